package protocol

import "time"

// WaitingEntry is one decoded row of a WAITING_LIST snapshot.
//
// SubscriberID and EntryTime are optional on the wire (transmitted as the
// empty string when absent); a nil pointer means absent.
type WaitingEntry struct {
	ID           int64
	ContactInfo  string
	Diners       int64
	Code         string
	SubscriberID *int64
	Status       string
	EntryTime    *time.Time
}

// Subscriber is one decoded row of a SUBSCRIBERS_LIST or
// SUBSCRIBER_DATA_RESPONSE snapshot.
type Subscriber struct {
	ID    int64
	Name  string
	Phone string
	Email string
	Role  string
}

// Reservation is one decoded row of an ACTIVE_RESERVATIONS snapshot.
type Reservation struct {
	ID           int64
	SubscriberID int64
	Diners       int64
	DateTime     time.Time
	Status       string
	Notes        string
}

// Field arities per row schema. Rows with fewer comma-separated fields
// than their schema's arity are dropped whole.
const (
	WaitingEntryArity = 7
	SubscriberArity   = 5
	ReservationArity  = 6
)
