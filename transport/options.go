package transport

import (
	"time"

	"go.uber.org/zap"
)

type Options struct {
	// Host to connect to
	Host string

	// Port to connect to
	Port int

	// UseWebsocket selects the WebSocket transport instead of raw TCP, for
	// deployments that front the server with a WebSocket gateway.
	UseWebsocket bool

	// WebsocketPath is the URL path of the WebSocket endpoint
	WebsocketPath string

	// DialTimeout bounds the initial connect. Zero means no bound.
	DialTimeout time.Duration

	// Trace will dump every line to the log. This is only useful in local
	// debugging
	Trace bool

	Log *zap.Logger
}
