package client

import "github.com/elishadar/CN-Ex4-Chat/internal/chat/message"

// Listener - the boundary to the presentation layer. The client reports
// everything through it and never prints or logs on its own.
// Implementations must not block: callbacks run on the client's
// goroutines.
type Listener interface {
	// Stat - status or diagnostic text.
	Stat(text string, isError bool)
	// MessageSent - called after every successful outbound send.
	MessageSent(m message.Message)
	// MessageReceived - called for every decoded inbound message,
	// before the client interprets it.
	MessageReceived(m message.Message)
}
