package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stayloop_token_refreshes_total",
		Help: "Refresh calls issued, by outcome.",
	}, []string{"outcome"})
	AuthRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayloop_auth_retries_total",
		Help: "Requests retried after a refreshed token.",
	})
	SessionExpirations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayloop_session_expirations_total",
		Help: "Sessions terminated by refresh failure.",
	})
	ReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayloop_ws_reconnect_attempts_total",
		Help: "Scheduled websocket reconnection attempts.",
	})
	ReconnectExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayloop_ws_reconnect_exhausted_total",
		Help: "Times the reconnection budget ran out.",
	})
	PendingOutbound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stayloop_ws_pending_outbound",
		Help: "Messages queued while the websocket is down.",
	})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayloop_ws_messages_sent_total",
		Help: "Chat messages handed to the transport.",
	})
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayloop_ws_messages_received_total",
		Help: "Chat messages delivered to subscribers.",
	})
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stayloop_ws_frames_dropped_total",
		Help: "Inbound frames dropped because they did not parse.",
	})
)
