package transport

import "context"

type EventKind string

const (
	// EventOpened is emitted when the session handshake completes and the
	// session is ready to send.
	EventOpened EventKind = "opened"

	// EventClosed is emitted when the transport disconnects. Terminal
	// closes mean the stored credentials are invalid (logged out) and
	// reconnecting cannot succeed without re-pairing.
	EventClosed EventKind = "closed"

	// EventCredentials is emitted after the protocol rotated credential
	// material and the provider persisted it.
	EventCredentials EventKind = "credentials"
)

// Event is one item of a session's lifecycle stream.
type Event struct {
	Kind EventKind

	// Closed-only fields.
	Reason     string
	StatusCode int
	Terminal   bool
}

// Session is a live, authenticated connection to the messaging network.
type Session interface {
	// SendText delivers a plain text message to a network address
	// (digits plus network suffix, e.g. "5511988887777@s.whatsapp.net").
	SendText(ctx context.Context, address, body string) error

	// Disconnect tears the connection down. The event stream reports the
	// resulting close.
	Disconnect()
}

// Provider dials the messaging network with persisted credentials.
//
// Connect blocks until the transport connection is established (not the
// handshake: readiness is reported via EventOpened on the returned stream).
// The stream is closed when the session is fully torn down; each Connect
// call returns a fresh stream.
type Provider interface {
	Connect(ctx context.Context) (Session, <-chan Event, error)
}
