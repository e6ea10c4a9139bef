package mailer

import "context"

// Message is one outbound email
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender dispatches email. Delivery is best-effort: callers treat a
// failed send as a logged event, never as a failed operation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
