// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askroom/askroom/internal/auth"
	"github.com/askroom/askroom/internal/config"
	"github.com/askroom/askroom/internal/media"
	"github.com/askroom/askroom/internal/middleware"
)

// Router wires the HTTP routes to their handlers and middleware.
type Router struct {
	handler       *Handler
	authSvc       *auth.Service
	chiMiddleware *ChiMiddleware
	uploadsDir    string
}

// NewRouter creates a router from the application configuration.
func NewRouter(handler *Handler, authSvc *auth.Service, cfg *config.Config) *Router {
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	if cfg.Security.RateLimitReqs > 0 {
		mwCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	}
	if cfg.Security.RateLimitWindow > 0 {
		mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	}

	uploadsDir := ""
	if cfg.Storage.Backend == "local" {
		uploadsDir = cfg.Storage.UploadsDir
	}

	return &Router{
		handler:       handler,
		authSvc:       authSvc,
		chiMiddleware: NewChiMiddleware(mwCfg),
		uploadsDir:    uploadsDir,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global stack, applied in order to every route. Authenticate is
	// global so optional-session routes (logout, websocket) can still
	// see the current user.
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(router.authSvc.Authenticate)

	// Credential endpoints, rate limited against brute force.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Get("/register", router.handler.RegisterPage)
		r.Post("/register", router.handler.Register)
		r.Get("/login", router.handler.LoginPage)
		r.Post("/login", router.handler.Login)
		r.Get("/logout", router.handler.Logout)
	})

	// Session-gated conversation routes.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(auth.RequireAuth)
		r.Get("/chat_list", router.handler.ChatList)
		r.Get("/create_conversation", router.handler.CreateConversationPage)
		r.Post("/create_conversation", router.handler.CreateConversation)
		r.Get("/chat/{conversationID}", router.handler.Chat)
	})

	// Admin-only cascade delete.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(auth.RequireAdmin)
		r.Get("/delete_conversation/{conversationID}", router.handler.DeleteConversation)
	})

	// Upload and realtime channel carry no session requirement.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Post("/upload_image", router.handler.UploadImage)
		r.Get("/ws", router.handler.WebSocket)
	})

	// Locally stored images are served back from the uploads dir.
	if router.uploadsDir != "" {
		fs := http.StripPrefix(media.URLPrefix, http.FileServer(http.Dir(router.uploadsDir)))
		r.Get(media.URLPrefix+"*", fs.ServeHTTP)
	}

	r.Get("/healthz", router.handler.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
