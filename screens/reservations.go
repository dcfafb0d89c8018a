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

// Reservations is the read-only view of active reservations.
type Reservations struct {
	conn  Conn
	store storage.Store
	out   io.Writer
	log   *zap.Logger

	mu   sync.Mutex
	rows []protocol.Reservation
}

func NewReservations(conn Conn, store storage.Store, out io.Writer, log *zap.Logger) *Reservations {
	return &Reservations{conn: conn, store: store, out: out, log: log}
}

// Attach registers the screen's handler and renders the last cached
// snapshot, if any.
func (r *Reservations) Attach() {
	r.conn.Register(protocol.PrefixActiveReservations, r.onSnapshot)

	r.renderCached()
}

func (r *Reservations) renderCached() {
	raw := r.store.Get(storage.KindReservations)
	if raw == nil {
		return
	}

	var rows []protocol.Reservation
	if err := json.Unmarshal(raw, &rows); err != nil {
		r.log.Warn("Cached reservations are unreadable", zap.Error(err))
		return
	}

	r.mu.Lock()
	r.rows = rows
	r.mu.Unlock()

	renderReservationTable(r.out, rows)
}

func (r *Reservations) Detach() {
	r.conn.Unregister(protocol.PrefixActiveReservations)
}

func (r *Reservations) Refresh() error {
	return r.conn.SendCommand(protocol.GetActiveReservationsCommand())
}

func (r *Reservations) Rows() []protocol.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]protocol.Reservation, len(r.rows))
	copy(rows, r.rows)

	return rows
}

func (r *Reservations) onSnapshot(rawLine string) {
	_, body := protocol.SplitPrefix(rawLine)

	rows, dropped := protocol.DecodeReservationSnapshot(body)
	if dropped > 0 {
		metrics.RowsDropped.WithLabelValues(storage.KindReservations).Add(float64(dropped))
		r.log.Debug("Dropped malformed reservation rows", zap.Int("dropped", dropped))
	}

	r.mu.Lock()
	r.rows = rows
	r.mu.Unlock()

	if err := r.store.Put(storage.KindReservations, rows); err != nil {
		r.log.Warn("Failed to cache reservations", zap.Error(err))
	}

	renderReservationTable(r.out, rows)
}
