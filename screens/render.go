package screens

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/EtayOfir/bistro/protocol"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	noticeColor  = color.New(color.FgGreen)
	warningColor = color.New(color.FgRed)
)

// RenderServerError prints a server-reported error (the body of an ERROR
// push) for the user.
func RenderServerError(out io.Writer, message string) {
	warningColor.Fprintf(out, "Server error: %s\n", message)
}

func renderWaitingTable(out io.Writer, rows []protocol.WaitingEntry) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "The waiting list is empty.")
		return
	}

	headerColor.Fprintf(out, "%-5s %-24s %-6s %-10s %-10s %-12s %s\n",
		"ID", "CONTACT", "DINERS", "CODE", "SUBSCRIBER", "STATUS", "SINCE")

	for _, row := range rows {
		fmt.Fprintf(out, "%-5d %-24s %-6d %-10s %-10s %-12s %s\n",
			row.ID,
			row.ContactInfo,
			row.Diners,
			row.Code,
			optionalInt(row.SubscriberID),
			row.Status,
			optionalTime(row.EntryTime))
	}
}

func renderSubscriberTable(out io.Writer, rows []protocol.Subscriber) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No subscribers.")
		return
	}

	headerColor.Fprintf(out, "%-5s %-20s %-14s %-24s %s\n",
		"ID", "NAME", "PHONE", "EMAIL", "ROLE")

	for _, row := range rows {
		fmt.Fprintf(out, "%-5d %-20s %-14s %-24s %s\n",
			row.ID, row.Name, row.Phone, row.Email, row.Role)
	}
}

func renderReservationTable(out io.Writer, rows []protocol.Reservation) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No active reservations.")
		return
	}

	headerColor.Fprintf(out, "%-5s %-10s %-6s %-20s %-12s %s\n",
		"ID", "SUBSCRIBER", "DINERS", "WHEN", "STATUS", "NOTES")

	for _, row := range rows {
		fmt.Fprintf(out, "%-5d %-10d %-6d %-20s %-12s %s\n",
			row.ID, row.SubscriberID, row.Diners,
			row.DateTime.Format("2006-01-02 15:04"), row.Status, row.Notes)
	}
}

func optionalInt(n *int64) string {
	if n == nil {
		return "-"
	}

	return fmt.Sprintf("%d", *n)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return t.Format("15:04:05")
}
