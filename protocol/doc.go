// This package implements parsing and serialising of the payloads the
// Bistro desktop client exchanges with it's server.
//
// The protocol is line-oriented text. Framing (one line per message) is
// the transport's job; this package only sees complete lines.
//
// - `Command`  - A client instruction to the server (e.g. '#LOGIN').
// - `Message`  - A line pushed from the server to the client. Messages are
//                identified by a literal prefix up to the first '|', or by
//                an exact full-line match for bodyless signals.
// - `Snapshot` - The full ordered set of rows for one list kind (waiting
//                list, subscribers, reservations), or the 'EMPTY' sentinel.
//
// === Client commands
//
//   ```
//     #LOGIN <user> <pass>
//     IDENTIFY|<user>|<role>
//     #GET_WAITING_LIST
//     #ADD_WAITING_LIST <diners> <contactInfoB64Url> <code>
//     #WAITING_UPDATE_STATUS <code> <newStatus>
//     #WAITING_DELETE <code>
//     #SUBSCRIBE_WAITING_LIST
//     #GET_SUBSCRIBERS
//     #GET_ACTIVE_RESERVATIONS
//     #UPDATE_SUBSCRIBER <id> <nameB64Url> <phoneB64Url> <emailB64Url>
//     #QUIT
//   ```
//
// === Server messages
//
//   ```
//     LOGIN_SUCCESS|<role>
//     LOGIN_FAILED...
//     ERROR|<reason>
//     WAITING_LIST|EMPTY
//     WAITING_LIST|<row>(~<row>)*
//     WAITING_ADDED|<code>
//     SUBSCRIBERS_LIST|...
//     ACTIVE_RESERVATIONS|...
//     SUBSCRIBER_DATA_RESPONSE|...
//     UPDATE_SUBSCRIBER_SUCCESS
//   ```
//
// There are no request IDs on this wire. A "reply" to a command is simply
// the next line the server sends, and pushes can interleave with replies
// at any point. The client package deals with the fallout of that; this
// package only encodes and decodes.
//
// === Snapshot encoding
//
// A snapshot body is rows joined by '~'. The literal token 'EMPTY' denotes
// a zero-row snapshot and is checked before any row splitting. Each row is
// fields joined by ','.
//
// Free-text fields (contact info, names, emails, notes) may contain either
// separator, so they travel as unpadded URL-safe base64 of their UTF-8
// bytes. Integer fields are plain decimal, timestamps are decimal Unix
// milliseconds, and optional fields are transmitted as the empty string
// when absent.
//
// A row that fails to decode is dropped whole. Its siblings still decode;
// one bad row never blanks an entire table.
package protocol
