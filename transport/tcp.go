package transport

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// MaxLineSize caps a single inbound line. Snapshot bodies can carry a
	// whole table, so this is generous.
	MaxLineSize = 1 << 20

	terminal = '\n'
)

// TCP is the line transport the client uses by default: one TCP
// connection, one read goroutine delivering inbound lines to the Handler.
type TCP struct {
	ctx    context.Context
	cancel context.CancelFunc

	addr   string
	dialer net.Dialer

	conn net.Conn

	writeMu sync.Mutex

	loopWaiter sync.WaitGroup
	closeOnce  sync.Once

	log   *zap.Logger
	trace bool
}

func NewTCP(options Options) *TCP {
	return &TCP{
		addr:   net.JoinHostPort(options.Host, strconv.Itoa(options.Port)),
		dialer: net.Dialer{Timeout: options.DialTimeout},
		trace:  options.Trace,
		log:    options.Log,
	}
}

func (t *TCP) Connect(parentCtx context.Context, h Handler) error {
	if t.conn != nil {
		return ErrAlreadyConnected
	}

	ctx, cancel := context.WithCancel(parentCtx)
	t.ctx = ctx
	t.cancel = cancel

	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		cancel()
		return err
	}

	t.conn = conn
	t.log.Info("Connected", zap.String("addr", t.addr))
	h.OnConnected()

	t.loopWaiter.Add(1)
	go func() {
		defer t.loopWaiter.Done()
		t.readLoop(h)
	}()

	return nil
}

func (t *TCP) readLoop(h Handler) {
	log := t.log.Named("readLoop")

	scanner := bufio.NewScanner(t.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if t.trace {
			log.Debug("RECV", zap.String("line", line))
		}

		h.OnLine(line)
	}

	if err := scanner.Err(); err != nil && t.isRunning() {
		log.Warn("Read failed, connection is done for", zap.Error(err))
		h.OnConnectionError(err)
	}

	h.OnDisconnected()
}

func (t *TCP) SendLine(line string) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	if !t.isRunning() {
		return ErrNotConnected
	}

	if t.trace {
		t.log.Debug("SEND", zap.String("line", line))
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	_, err := t.conn.Write(append([]byte(line), terminal))
	return err
}

// Close releases the connection exactly once and waits for the read loop
// to drain. Safe to call from any goroutine, safe to call twice.
func (t *TCP) Close() (err error) {
	if t.conn == nil {
		return nil
	}

	t.closeOnce.Do(func() {
		t.cancel()

		if cerr := t.conn.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}

		t.loopWaiter.Wait()
	})

	return err
}

// isRunning returns true if Close has not been called
func (t *TCP) isRunning() bool {
	select {
	case <-t.ctx.Done():
		return false

	default:
		return true
	}
}

var _ Transport = (*TCP)(nil)
