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

// WaitingList is the host-stand screen: the live waiting list plus the
// add/update/delete operations on it.
//
// Handlers run on the transport's read goroutine while the operations run
// on the UI goroutine, so shared state is guarded.
type WaitingList struct {
	conn  Conn
	store storage.Store
	out   io.Writer
	log   *zap.Logger

	mu            sync.Mutex
	rows          []protocol.WaitingEntry
	pendingDiners map[string]int64
}

func NewWaitingList(conn Conn, store storage.Store, out io.Writer, log *zap.Logger) *WaitingList {
	return &WaitingList{
		conn:          conn,
		store:         store,
		out:           out,
		log:           log,
		pendingDiners: make(map[string]int64),
	}
}

// Attach makes this screen the active consumer of waiting-list pushes.
// Registering replaces whatever was registered before. The last cached
// snapshot, if any, is rendered right away so the screen is not blank
// until the next push arrives.
func (w *WaitingList) Attach() {
	w.conn.Register(protocol.PrefixWaitingList, w.onSnapshot)
	w.conn.Register(protocol.PrefixWaitingAdded, w.onAdded)

	w.renderCached()
}

func (w *WaitingList) renderCached() {
	raw := w.store.Get(storage.KindWaitingList)
	if raw == nil {
		return
	}

	var rows []protocol.WaitingEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		w.log.Warn("Cached waiting list is unreadable", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.rows = rows
	w.mu.Unlock()

	renderWaitingTable(w.out, rows)
}

func (w *WaitingList) Detach() {
	w.conn.Unregister(protocol.PrefixWaitingList)
	w.conn.Unregister(protocol.PrefixWaitingAdded)
}

// Refresh requests a one-shot snapshot. The result arrives as a push.
func (w *WaitingList) Refresh() error {
	return w.conn.SendCommand(protocol.GetWaitingListCommand())
}

// Subscribe requests ongoing push updates of the waiting list.
func (w *WaitingList) Subscribe() error {
	return w.conn.SendCommand(protocol.SubscribeWaitingListCommand())
}

// Add puts a party on the waiting list. The confirmation arrives as a
// WAITING_ADDED push; the diner count is remembered so the confirmation
// can echo it.
func (w *WaitingList) Add(diners int64, contactInfo, code string) error {
	w.mu.Lock()
	w.pendingDiners[code] = diners
	w.mu.Unlock()

	return w.conn.SendCommand(protocol.AddWaitingListCommand(diners, contactInfo, code))
}

func (w *WaitingList) UpdateStatus(code, newStatus string) error {
	return w.conn.SendCommand(protocol.UpdateWaitingStatusCommand(code, newStatus))
}

func (w *WaitingList) Delete(code string) error {
	return w.conn.SendCommand(protocol.DeleteWaitingCommand(code))
}

// Rows returns the most recently received snapshot.
func (w *WaitingList) Rows() []protocol.WaitingEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := make([]protocol.WaitingEntry, len(w.rows))
	copy(rows, w.rows)

	return rows
}

func (w *WaitingList) onSnapshot(rawLine string) {
	_, body := protocol.SplitPrefix(rawLine)

	rows, dropped := protocol.DecodeWaitingSnapshot(body)
	if dropped > 0 {
		metrics.RowsDropped.WithLabelValues(storage.KindWaitingList).Add(float64(dropped))
		w.log.Debug("Dropped malformed waiting-list rows", zap.Int("dropped", dropped))
	}

	w.mu.Lock()
	w.rows = rows
	w.mu.Unlock()

	if err := w.store.Put(storage.KindWaitingList, rows); err != nil {
		w.log.Warn("Failed to cache waiting list", zap.Error(err))
	}

	renderWaitingTable(w.out, rows)
}

func (w *WaitingList) onAdded(rawLine string) {
	_, code := protocol.SplitPrefix(rawLine)

	w.mu.Lock()
	diners, known := w.pendingDiners[code]
	delete(w.pendingDiners, code)
	w.mu.Unlock()

	if known {
		noticeColor.Fprintf(w.out, "Added to waiting list: party of %d, confirmation code %s\n", diners, code)
		return
	}

	noticeColor.Fprintf(w.out, "Added to waiting list: confirmation code %s\n", code)
}
