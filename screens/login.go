package screens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/EtayOfir/bistro/protocol"
)

var (
	ErrLoginFailed = errors.New("Login was rejected by the server")

	// ErrUnexpectedReply means the line that satisfied the wait was neither
	// a login response nor a server error. With no correlation IDs on the
	// wire, a coincidental push can land in the reply slot; callers may
	// simply retry.
	ErrUnexpectedReply = errors.New("Reply was not a login response, it may have been a coincidental push")
)

// Login authenticates and returns the granted role.
func Login(ctx context.Context, conn Conn, user, pass string) (string, error) {
	reply, err := conn.SendAndAwaitReply(ctx, protocol.LoginCommand(user, pass))
	if err != nil {
		return "", err
	}

	prefix, body := protocol.SplitPrefix(reply)

	switch {
	case prefix == protocol.PrefixLoginSuccess:
		return body, nil

	case strings.HasPrefix(reply, protocol.PrefixLoginFailed):
		return "", fmt.Errorf("%w: %s", ErrLoginFailed, reply)

	case prefix == protocol.PrefixError:
		return "", fmt.Errorf("%w: %s", ErrLoginFailed, body)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnexpectedReply, reply)
	}
}

// Identify announces the logged-in user and role. Fire and forget.
func Identify(conn Conn, user, role string) error {
	return conn.SendCommand(protocol.IdentifyCommand(user, role))
}
