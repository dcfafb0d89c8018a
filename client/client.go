package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/EtayOfir/bistro/internal/metrics"
	"github.com/EtayOfir/bistro/protocol"
	"github.com/EtayOfir/bistro/transport"
)

var (
	ErrClosed = errors.New("Client is closed, the connection is done for")
)

// LifecycleObserver is notified of connection lifecycle events, exactly
// once each. There is no automatic reconnect at this layer.
type LifecycleObserver interface {
	OnConnected()
	OnDisconnected()
	OnConnectionError(err error)
}

// Client is the sole owner of one Transport and the single point through
// which all outbound commands and inbound lines pass.
//
// The wire carries no correlation identifiers: a "reply" to a command is
// simply the next inbound line, which may just as well be a coincidental
// push. Every inbound line is therefore (a) stored into the single reply
// slot, waking a blocked SendAndAwaitReply caller if one exists, and
// (b) offered to the dispatch registry. Both always happen; the protocol
// makes no distinction between a reply and a push.
type Client struct {
	tr  transport.Transport
	log *zap.Logger

	registry *Registry
	fallback Handler

	// mu guards the reply slot. cond is signalled from the transport's
	// read goroutine; waiters re-check hasReply after waking.
	mu       sync.Mutex
	cond     *sync.Cond
	reply    string
	hasReply bool
	closed   bool

	obsMu    sync.RWMutex
	observer LifecycleObserver
}

type Option func(*Client)

// WithFallbackHandler replaces the handler that receives lines matching no
// registered prefix. The default logs the line as plain text.
func WithFallbackHandler(h Handler) Option {
	return func(c *Client) {
		c.fallback = h
	}
}

func New(tr transport.Transport, log *zap.Logger, options ...Option) *Client {
	c := &Client{
		tr:       tr,
		log:      log,
		registry: NewRegistry(),
	}

	c.cond = sync.NewCond(&c.mu)

	c.fallback = func(rawLine string) {
		c.log.Info("Unhandled server message", zap.String("line", rawLine))
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Connect establishes the connection and starts receiving. Call once.
func (c *Client) Connect(ctx context.Context) error {
	return c.tr.Connect(ctx, c)
}

// SendCommand transmits the line verbatim and returns immediately without
// awaiting any reply. A send failure means the connection is unusable: the
// client closes it and the error is terminal.
func (c *Client) SendCommand(line string) error {
	if err := c.tr.SendLine(line); err != nil {
		c.terminate(err)
		return fmt.Errorf("Failed to send command: %w", err)
	}

	metrics.CommandsSent.Inc()
	return nil
}

// SendAndAwaitReply transmits the line, then blocks the calling goroutine
// until the next inbound line arrives, consumes it from the reply slot and
// returns it. The line returned may be a true reply or a coincidental push;
// the wire gives us no way to tell.
//
// At most one synchronous call may be outstanding at a time. There is
// exactly one reply slot, so a second concurrent caller is not a supported
// configuration of this protocol.
//
// The wait is unbounded by default; pass a context with a deadline to opt
// into a timeout.
func (c *Client) SendAndAwaitReply(ctx context.Context, line string) (string, error) {
	if err := c.SendCommand(line); err != nil {
		return "", err
	}

	if ctx.Done() != nil {
		stop := make(chan struct{})
		defer close(stop)

		go func() {
			select {
			case <-ctx.Done():
				// Take the lock so the broadcast cannot land between a
				// waiter's predicate check and it's Wait.
				c.mu.Lock()
				c.cond.Broadcast()
				c.mu.Unlock()
			case <-stop:
			}
		}()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for !c.hasReply {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if c.closed {
			return "", ErrClosed
		}

		c.cond.Wait()
	}

	// Read-then-clear: two back-to-back waits never observe the same line.
	reply := c.reply
	c.reply = ""
	c.hasReply = false

	return reply, nil
}

// Register installs the active handler for a message prefix, replacing any
// prior one. Screens register on becoming active.
func (c *Client) Register(prefix string, h Handler) {
	c.registry.Register(prefix, h)
}

// Unregister clears the handler for a prefix. Screens unregister on
// teardown.
func (c *Client) Unregister(prefix string) {
	c.registry.Unregister(prefix)
}

// SetLifecycleObserver installs the single observer for connection events.
func (c *Client) SetLifecycleObserver(o LifecycleObserver) {
	c.obsMu.Lock()
	c.observer = o
	c.obsMu.Unlock()
}

// OnLine is invoked by the transport for every inbound line, on the
// transport's read goroutine.
//
// A burst of lines arriving while a waiter is still asleep overwrites the
// reply slot repeatedly; only the last line is guaranteed to reach the
// waiter, but every line is still offered to the registry.
func (c *Client) OnLine(rawLine string) {
	prefix, _ := protocol.SplitPrefix(rawLine)
	metrics.LinesReceived.WithLabelValues(prefix).Inc()

	c.mu.Lock()
	c.reply = rawLine
	c.hasReply = true
	c.cond.Signal()
	c.mu.Unlock()

	if !c.registry.Dispatch(rawLine) {
		c.fallback(rawLine)
	}
}

func (c *Client) OnConnected() {
	c.obsMu.RLock()
	o := c.observer
	c.obsMu.RUnlock()

	if o != nil {
		o.OnConnected()
	}
}

func (c *Client) OnDisconnected() {
	c.log.Info("Disconnected")

	// A goroutine blocked on a reply would otherwise sleep forever.
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()

	c.obsMu.RLock()
	o := c.observer
	c.obsMu.RUnlock()

	if o != nil {
		o.OnDisconnected()
	}
}

func (c *Client) OnConnectionError(err error) {
	metrics.TransportErrors.Inc()
	c.log.Warn("Connection errored", zap.Error(err))

	c.obsMu.RLock()
	o := c.observer
	c.obsMu.RUnlock()

	if o != nil {
		o.OnConnectionError(err)
	}
}

// Close releases the connection. Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()

	return c.tr.Close()
}

// terminate tears the client down after an unrecoverable send failure.
func (c *Client) terminate(err error) {
	metrics.TransportErrors.Inc()
	c.log.Error("Send failed, terminating connection", zap.Error(err))

	if cerr := c.Close(); cerr != nil {
		c.log.Warn("Connection did not close cleanly", zap.Error(cerr))
	}
}

var _ transport.Handler = (*Client)(nil)
