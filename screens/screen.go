package screens

import (
	"context"

	"github.com/EtayOfir/bistro/client"
)

// Conn is the slice of the protocol client that screens need. Screens
// register their handlers on becoming active and unregister on teardown;
// nothing here is reachable through globals.
type Conn interface {
	SendCommand(line string) error
	SendAndAwaitReply(ctx context.Context, line string) (string, error)
	Register(prefix string, h client.Handler)
	Unregister(prefix string)
}
