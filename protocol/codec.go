package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// RowSeparator joins rows inside a snapshot body.
	RowSeparator = "~"

	// FieldSeparator joins fields inside a row.
	FieldSeparator = ","

	// EmptySentinel is the literal body of a zero-row snapshot. It must be
	// checked before any attempt to split rows.
	EmptySentinel = "EMPTY"
)

var (
	ErrRowTooShort     = errors.New("Row is malformed, it has fewer fields than it's schema requires")
	ErrRowBadInteger   = errors.New("Row is malformed, an integer field did not parse as strict decimal")
	ErrRowBadText      = errors.New("Row is malformed, a free-text field did not decode as url-safe base64")
	ErrRowBadTimestamp = errors.New("Row is malformed, a timestamp field did not parse as decimal unix milliseconds")
)

// DecodeWaitingEntry parses one WAITING_LIST row.
//
// Field order on the wire: id, contactInfoB64Url, diners, code,
// subscriberID-or-blank, status, entryTime-or-blank. Any field that fails
// to parse drops the whole row, never just the bad field.
func DecodeWaitingEntry(text string) (WaitingEntry, error) {
	fields, err := splitRow(text, WaitingEntryArity)
	if err != nil {
		return WaitingEntry{}, err
	}

	entry := WaitingEntry{
		Code:   fields[3],
		Status: fields[5],
	}

	if entry.ID, err = parseInt(fields[0]); err != nil {
		return WaitingEntry{}, err
	}

	if entry.ContactInfo, err = decodeText(fields[1]); err != nil {
		return WaitingEntry{}, err
	}

	if entry.Diners, err = parseInt(fields[2]); err != nil {
		return WaitingEntry{}, err
	}

	if entry.SubscriberID, err = parseOptionalInt(fields[4]); err != nil {
		return WaitingEntry{}, err
	}

	if entry.EntryTime, err = parseOptionalTime(fields[6]); err != nil {
		return WaitingEntry{}, err
	}

	return entry, nil
}

// EncodeWaitingEntry is the exact inverse of DecodeWaitingEntry.
func EncodeWaitingEntry(e WaitingEntry) string {
	return strings.Join([]string{
		formatInt(e.ID),
		EncodeText(e.ContactInfo),
		formatInt(e.Diners),
		e.Code,
		formatOptionalInt(e.SubscriberID),
		e.Status,
		formatOptionalTime(e.EntryTime),
	}, FieldSeparator)
}

// DecodeWaitingSnapshot parses a full WAITING_LIST body. Malformed rows are
// silently omitted and counted in dropped; one bad row never aborts the
// rest of the snapshot.
func DecodeWaitingSnapshot(body string) (rows []WaitingEntry, dropped int) {
	rows = []WaitingEntry{}

	for _, raw := range splitSnapshot(body) {
		row, err := DecodeWaitingEntry(raw)
		if err != nil {
			dropped++
			continue
		}

		rows = append(rows, row)
	}

	return rows, dropped
}

// EncodeWaitingSnapshot renders rows in order, or the empty sentinel.
func EncodeWaitingSnapshot(rows []WaitingEntry) string {
	if len(rows) == 0 {
		return EmptySentinel
	}

	encoded := make([]string, 0, len(rows))
	for _, row := range rows {
		encoded = append(encoded, EncodeWaitingEntry(row))
	}

	return strings.Join(encoded, RowSeparator)
}

// DecodeSubscriber parses one SUBSCRIBERS_LIST row.
//
// Field order on the wire: id, nameB64Url, phoneB64Url, emailB64Url, role.
func DecodeSubscriber(text string) (Subscriber, error) {
	fields, err := splitRow(text, SubscriberArity)
	if err != nil {
		return Subscriber{}, err
	}

	sub := Subscriber{Role: fields[4]}

	if sub.ID, err = parseInt(fields[0]); err != nil {
		return Subscriber{}, err
	}

	if sub.Name, err = decodeText(fields[1]); err != nil {
		return Subscriber{}, err
	}

	if sub.Phone, err = decodeText(fields[2]); err != nil {
		return Subscriber{}, err
	}

	if sub.Email, err = decodeText(fields[3]); err != nil {
		return Subscriber{}, err
	}

	return sub, nil
}

func EncodeSubscriber(s Subscriber) string {
	return strings.Join([]string{
		formatInt(s.ID),
		EncodeText(s.Name),
		EncodeText(s.Phone),
		EncodeText(s.Email),
		s.Role,
	}, FieldSeparator)
}

func DecodeSubscriberSnapshot(body string) (rows []Subscriber, dropped int) {
	rows = []Subscriber{}

	for _, raw := range splitSnapshot(body) {
		row, err := DecodeSubscriber(raw)
		if err != nil {
			dropped++
			continue
		}

		rows = append(rows, row)
	}

	return rows, dropped
}

func EncodeSubscriberSnapshot(rows []Subscriber) string {
	if len(rows) == 0 {
		return EmptySentinel
	}

	encoded := make([]string, 0, len(rows))
	for _, row := range rows {
		encoded = append(encoded, EncodeSubscriber(row))
	}

	return strings.Join(encoded, RowSeparator)
}

// DecodeReservation parses one ACTIVE_RESERVATIONS row.
//
// Field order on the wire: id, subscriberID, diners, dateTime (unix
// milliseconds), status, notesB64Url.
func DecodeReservation(text string) (Reservation, error) {
	fields, err := splitRow(text, ReservationArity)
	if err != nil {
		return Reservation{}, err
	}

	res := Reservation{Status: fields[4]}

	if res.ID, err = parseInt(fields[0]); err != nil {
		return Reservation{}, err
	}

	if res.SubscriberID, err = parseInt(fields[1]); err != nil {
		return Reservation{}, err
	}

	if res.Diners, err = parseInt(fields[2]); err != nil {
		return Reservation{}, err
	}

	if res.DateTime, err = parseTime(fields[3]); err != nil {
		return Reservation{}, err
	}

	if res.Notes, err = decodeText(fields[5]); err != nil {
		return Reservation{}, err
	}

	return res, nil
}

func EncodeReservation(r Reservation) string {
	return strings.Join([]string{
		formatInt(r.ID),
		formatInt(r.SubscriberID),
		formatInt(r.Diners),
		formatTime(r.DateTime),
		r.Status,
		EncodeText(r.Notes),
	}, FieldSeparator)
}

func DecodeReservationSnapshot(body string) (rows []Reservation, dropped int) {
	rows = []Reservation{}

	for _, raw := range splitSnapshot(body) {
		row, err := DecodeReservation(raw)
		if err != nil {
			dropped++
			continue
		}

		rows = append(rows, row)
	}

	return rows, dropped
}

func EncodeReservationSnapshot(rows []Reservation) string {
	if len(rows) == 0 {
		return EmptySentinel
	}

	encoded := make([]string, 0, len(rows))
	for _, row := range rows {
		encoded = append(encoded, EncodeReservation(row))
	}

	return strings.Join(encoded, RowSeparator)
}

// splitSnapshot returns the raw row texts of a snapshot body, or nothing
// for the empty sentinel. A completely blank body is treated the same as
// the sentinel rather than producing one unparseable row.
func splitSnapshot(body string) []string {
	if body == EmptySentinel || strings.TrimSpace(body) == "" {
		return nil
	}

	return strings.Split(body, RowSeparator)
}

// splitRow splits on the field separator with the split count capped at
// the schema's arity, so a trailing field containing commas cannot
// fragment the row.
func splitRow(text string, arity int) ([]string, error) {
	fields := strings.SplitN(text, FieldSeparator, arity)
	if len(fields) < arity {
		return nil, fmt.Errorf("Failed to split '%s' into %d fields: %w", text, arity, ErrRowTooShort)
	}

	return fields, nil
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("Failed to parse '%s': %w", s, ErrRowBadInteger)
	}

	return n, nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func parseOptionalInt(s string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	n, err := parseInt(s)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

func formatOptionalInt(n *int64) string {
	if n == nil {
		return ""
	}

	return formatInt(*n)
}

func parseTime(s string) (time.Time, error) {
	millis, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("Failed to parse '%s': %w", s, ErrRowBadTimestamp)
	}

	return time.Unix(millis/1000, (millis%1000)*int64(time.Millisecond)).UTC(), nil
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixNano()/int64(time.Millisecond), 10)
}

func parseOptionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	return formatTime(*t)
}

// decodeText decodes a free-text field from unpadded url-safe base64.
func decodeText(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("Failed to decode '%s': %w", s, ErrRowBadText)
	}

	return string(b), nil
}

// EncodeText encodes a free-text field as unpadded url-safe base64 so it
// can never contain a row or field separator. Command builders that take
// pre-encoded arguments share this with the row encoders.
func EncodeText(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
