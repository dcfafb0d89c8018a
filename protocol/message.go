package protocol

import "strings"

// PrefixSeparator delimits a message's type prefix from it's body.
const PrefixSeparator = "|"

// Server message prefixes. Bodyless signals arrive as the bare prefix with
// no separator at all.
const (
	PrefixLoginSuccess            = "LOGIN_SUCCESS"
	PrefixLoginFailed             = "LOGIN_FAILED"
	PrefixError                   = "ERROR"
	PrefixWaitingList             = "WAITING_LIST"
	PrefixWaitingAdded            = "WAITING_ADDED"
	PrefixSubscribersList         = "SUBSCRIBERS_LIST"
	PrefixActiveReservations      = "ACTIVE_RESERVATIONS"
	PrefixSubscriberData          = "SUBSCRIBER_DATA_RESPONSE"
	PrefixUpdateSubscriberSuccess = "UPDATE_SUBSCRIBER_SUCCESS"
)

// SplitPrefix returns a line's leading token up to the first prefix
// separator, and the remainder. A line with no separator is all prefix
// (the bodyless-signal case).
func SplitPrefix(line string) (prefix, body string) {
	if i := strings.Index(line, PrefixSeparator); i >= 0 {
		return line[:i], line[i+1:]
	}

	return line, ""
}
