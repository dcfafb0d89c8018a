package screens

import (
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/EtayOfir/bistro/internal/metrics"
	"github.com/EtayOfir/bistro/protocol"
	"github.com/EtayOfir/bistro/storage"
)

// Subscribers is the member-management screen.
type Subscribers struct {
	conn  Conn
	store storage.Store
	out   io.Writer
	log   *zap.Logger

	mu   sync.Mutex
	rows []protocol.Subscriber
}

func NewSubscribers(conn Conn, store storage.Store, out io.Writer, log *zap.Logger) *Subscribers {
	return &Subscribers{conn: conn, store: store, out: out, log: log}
}

// Attach registers the screen's handlers and renders the last cached
// snapshot, if any.
func (s *Subscribers) Attach() {
	s.conn.Register(protocol.PrefixSubscribersList, s.onSnapshot)
	s.conn.Register(protocol.PrefixSubscriberData, s.onSubscriberData)
	s.conn.Register(protocol.PrefixUpdateSubscriberSuccess, s.onUpdateSuccess)

	s.renderCached()
}

func (s *Subscribers) renderCached() {
	raw := s.store.Get(storage.KindSubscribers)
	if raw == nil {
		return
	}

	var rows []protocol.Subscriber
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.log.Warn("Cached subscribers list is unreadable", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	renderSubscriberTable(s.out, rows)
}

func (s *Subscribers) Detach() {
	s.conn.Unregister(protocol.PrefixSubscribersList)
	s.conn.Unregister(protocol.PrefixSubscriberData)
	s.conn.Unregister(protocol.PrefixUpdateSubscriberSuccess)
}

func (s *Subscribers) Refresh() error {
	return s.conn.SendCommand(protocol.GetSubscribersCommand())
}

func (s *Subscribers) Update(id int64, name, phone, email string) error {
	return s.conn.SendCommand(protocol.UpdateSubscriberCommand(id, name, phone, email))
}

func (s *Subscribers) Rows() []protocol.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]protocol.Subscriber, len(s.rows))
	copy(rows, s.rows)

	return rows
}

func (s *Subscribers) onSnapshot(rawLine string) {
	_, body := protocol.SplitPrefix(rawLine)

	rows, dropped := protocol.DecodeSubscriberSnapshot(body)
	if dropped > 0 {
		metrics.RowsDropped.WithLabelValues(storage.KindSubscribers).Add(float64(dropped))
		s.log.Debug("Dropped malformed subscriber rows", zap.Int("dropped", dropped))
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	if err := s.store.Put(storage.KindSubscribers, rows); err != nil {
		s.log.Warn("Failed to cache subscribers", zap.Error(err))
	}

	renderSubscriberTable(s.out, rows)
}

// onSubscriberData handles a single-subscriber lookup. Same snapshot
// shape, usually one row.
func (s *Subscribers) onSubscriberData(rawLine string) {
	_, body := protocol.SplitPrefix(rawLine)

	rows, dropped := protocol.DecodeSubscriberSnapshot(body)
	if dropped > 0 {
		metrics.RowsDropped.WithLabelValues(storage.KindSubscribers).Add(float64(dropped))
	}

	renderSubscriberTable(s.out, rows)
}

func (s *Subscribers) onUpdateSuccess(string) {
	noticeColor.Fprintln(s.out, "Subscriber updated.")
}
