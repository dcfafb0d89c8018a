package transport

import (
	"context"
	"errors"
)

var (
	ErrNotConnected     = errors.New("Transport is not connected")
	ErrAlreadyConnected = errors.New("Transport is already connected")
)

// Handler receives everything a transport produces. OnLine is invoked on
// the transport's own read goroutine, never on the goroutine that called
// Connect or SendLine.
type Handler interface {
	OnLine(line string)
	OnConnected()
	OnDisconnected()
	OnConnectionError(err error)
}

// Transport maintains one persistent connection for the lifetime of the
// client. Connect may be called once; after Close (or a fatal I/O error)
// the instance is done for, there is no reconnect.
type Transport interface {
	Connect(ctx context.Context, h Handler) error
	SendLine(line string) error
	Close() error
}

// New picks a transport implementation from the options.
func New(options Options) Transport {
	if options.UseWebsocket {
		return NewWS(options)
	}

	return NewTCP(options)
}
