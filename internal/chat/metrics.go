// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "askroom_websocket_connected_clients",
		Help: "Number of currently connected websocket clients.",
	})

	messagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "askroom_chat_messages_relayed_total",
		Help: "Chat messages persisted and published for broadcast.",
	})

	messagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askroom_chat_messages_dropped_total",
		Help: "Chat events dropped before broadcast, by reason.",
	}, []string{"reason"})
)
