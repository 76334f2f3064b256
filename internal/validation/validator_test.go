// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package validation

import (
	"strings"
	"testing"
)

type registerForm struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=1,max=128"`
}

func TestValidateStructValid(t *testing.T) {
	form := registerForm{Username: "alice", Password: "secret"}
	if err := ValidateStruct(form); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	form := registerForm{}
	err := ValidateStruct(form)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors()))
	}
	first := err.Errors()[0]
	if first.Field() != "Username" {
		t.Errorf("expected Username field, got %s", first.Field())
	}
	if first.Tag() != "required" {
		t.Errorf("expected required tag, got %s", first.Tag())
	}
	if !strings.Contains(first.Error(), "required") {
		t.Errorf("unexpected message: %s", first.Error())
	}
}

func TestValidateStructMax(t *testing.T) {
	form := registerForm{
		Username: strings.Repeat("a", 65),
		Password: "secret",
	}
	err := ValidateStruct(form)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(err.Errors()))
	}
	msg := err.Errors()[0].Error()
	if !strings.Contains(msg, "at most 64 characters") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRequestValidationErrorCombined(t *testing.T) {
	form := registerForm{}
	err := ValidateStruct(form)
	if err == nil {
		t.Fatal("expected validation error")
	}
	combined := err.Error()
	if !strings.Contains(combined, "Username") || !strings.Contains(combined, "Password") {
		t.Errorf("combined message missing fields: %s", combined)
	}
	if !strings.Contains(combined, "; ") {
		t.Errorf("expected semicolon-joined message: %s", combined)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
