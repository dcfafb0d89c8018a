package storage

// List kinds used as cache keys. One key per snapshot-bearing message.
const (
	KindWaitingList  = "waiting_list"
	KindSubscribers  = "subscribers"
	KindReservations = "reservations"
)

// Update notifies listeners that the cached snapshot for one kind changed.
type Update struct {
	Kind string

	// Raw is the new JSON value cached under Kind.
	Raw []byte
}

// Store holds the most recent decoded snapshot per list kind, so a newly
// opened screen and the local status endpoint can read the last known
// state without waiting for the next push.
type Store interface {
	Put(kind string, rows interface{}) error
	Get(kind string) []byte
	Document() []byte

	Updates() <-chan *Update

	Close() error
}
