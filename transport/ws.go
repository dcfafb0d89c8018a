package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// WS carries the same line protocol over a WebSocket: one text message is
// one line, no terminator needed.
type WS struct {
	ctx    context.Context
	cancel context.CancelFunc

	url    string
	dialer *websocket.Dialer

	conn *websocket.Conn

	writeMu sync.Mutex

	loopWaiter sync.WaitGroup
	closeOnce  sync.Once

	log   *zap.Logger
	trace bool
}

func NewWS(options Options) *WS {
	path := options.WebsocketPath
	if path == "" {
		path = "/ws"
	}

	return &WS{
		url: fmt.Sprintf("ws://%s%s",
			net.JoinHostPort(options.Host, strconv.Itoa(options.Port)), path),
		dialer: &websocket.Dialer{HandshakeTimeout: options.DialTimeout},
		trace:  options.Trace,
		log:    options.Log,
	}
}

func (w *WS) Connect(parentCtx context.Context, h Handler) error {
	if w.conn != nil {
		return ErrAlreadyConnected
	}

	ctx, cancel := context.WithCancel(parentCtx)
	w.ctx = ctx
	w.cancel = cancel

	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		cancel()
		return err
	}

	w.conn = conn
	w.log.Info("Connected", zap.String("url", w.url))
	h.OnConnected()

	w.loopWaiter.Add(1)
	go func() {
		defer w.loopWaiter.Done()
		w.readLoop(h)
	}()

	return nil
}

func (w *WS) readLoop(h Handler) {
	log := w.log.Named("readLoop")

	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if w.isRunning() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Warn("Read failed, connection is done for", zap.Error(err))
				h.OnConnectionError(err)
			}

			h.OnDisconnected()
			return
		}

		line := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")

		if w.trace {
			log.Debug("RECV", zap.String("line", line))
		}

		h.OnLine(line)
	}
}

func (w *WS) SendLine(line string) error {
	if w.conn == nil {
		return ErrNotConnected
	}

	if !w.isRunning() {
		return ErrNotConnected
	}

	if w.trace {
		w.log.Debug("SEND", zap.String("line", line))
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	return w.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (w *WS) Close() (err error) {
	if w.conn == nil {
		return nil
	}

	w.closeOnce.Do(func() {
		w.cancel()

		if cerr := w.conn.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}

		w.loopWaiter.Wait()
	})

	return err
}

// isRunning returns true if Close has not been called
func (w *WS) isRunning() bool {
	select {
	case <-w.ctx.Done():
		return false

	default:
		return true
	}
}

var _ Transport = (*WS)(nil)
