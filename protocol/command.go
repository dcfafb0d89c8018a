package protocol

import (
	"fmt"
	"strings"
)

// Command builders. Each returns the exact line to transmit; the transport
// adds framing. Free-text arguments are base64url-encoded here so callers
// never have to think about separator collisions.

func LoginCommand(user, pass string) string {
	return fmt.Sprintf("#LOGIN %s %s", user, pass)
}

// IdentifyCommand is the one pipe-delimited command on this wire.
func IdentifyCommand(user, role string) string {
	return strings.Join([]string{"IDENTIFY", user, role}, PrefixSeparator)
}

func GetWaitingListCommand() string {
	return "#GET_WAITING_LIST"
}

func AddWaitingListCommand(diners int64, contactInfo, code string) string {
	return fmt.Sprintf("#ADD_WAITING_LIST %d %s %s", diners, EncodeText(contactInfo), code)
}

func UpdateWaitingStatusCommand(code, newStatus string) string {
	return fmt.Sprintf("#WAITING_UPDATE_STATUS %s %s", code, newStatus)
}

func DeleteWaitingCommand(code string) string {
	return fmt.Sprintf("#WAITING_DELETE %s", code)
}

// SubscribeWaitingListCommand requests ongoing push updates of the waiting
// list. It takes no arguments.
func SubscribeWaitingListCommand() string {
	return "#SUBSCRIBE_WAITING_LIST"
}

func GetSubscribersCommand() string {
	return "#GET_SUBSCRIBERS"
}

func GetActiveReservationsCommand() string {
	return "#GET_ACTIVE_RESERVATIONS"
}

func UpdateSubscriberCommand(id int64, name, phone, email string) string {
	return fmt.Sprintf("#UPDATE_SUBSCRIBER %d %s %s %s",
		id, EncodeText(name), EncodeText(phone), EncodeText(email))
}

func QuitCommand() string {
	return "#QUIT"
}
