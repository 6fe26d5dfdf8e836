// Package message defines the chat wire protocol: a closed set of tagged
// message variants and the JSON envelope they travel in.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message - any wire message of the chat protocol.
// The set of implementations is closed, so dispatch sites may switch
// over concrete types exhaustively.
type Message interface {
	tag() string
}

// ClientMessage - a message the client is allowed to send to the server.
type ClientMessage interface {
	Message
	clientMessage()
}

// ServerMessage - a message the server is allowed to send to the client.
type ServerMessage interface {
	Message
	serverMessage()
}

// Message type tags as they appear on the wire.
const (
	tagLogin         = "login"
	tagLoginRequest  = "login-request"
	tagLoginResponse = "login-response"
	tagChat          = "chat"
	tagNameRequest   = "name-request"
	tagNameResponse  = "name-response"
)

// Login - request to join (Joining=true) or leave (Joining=false) the chat.
type Login struct {
	Name    string `json:"name"`
	Joining bool   `json:"joining"`
}

// LoginRequest - server asks the client to propose a different name.
type LoginRequest struct{}

// LoginResponse - outcome of a login attempt.
// Reason is filled when the attempt was rejected.
type LoginResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Chat - text message. Empty To means broadcast to all logged-in clients,
// otherwise private delivery to exactly the named client.
// Valid names are never empty, so the sentinel is unambiguous.
type Chat struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
	Body string `json:"body"`
}

// NameRequest - client asks for the current roster.
type NameRequest struct {
	From string `json:"from"`
}

// NameResponse - roster snapshot in login order.
type NameResponse struct {
	Names []string `json:"names"`
}

func (Login) tag() string         { return tagLogin }
func (LoginRequest) tag() string  { return tagLoginRequest }
func (LoginResponse) tag() string { return tagLoginResponse }
func (Chat) tag() string          { return tagChat }
func (NameRequest) tag() string   { return tagNameRequest }
func (NameResponse) tag() string  { return tagNameResponse }

func (Login) clientMessage()       {}
func (Chat) clientMessage()        {}
func (NameRequest) clientMessage() {}

func (LoginRequest) serverMessage()  {}
func (LoginResponse) serverMessage() {}
func (Chat) serverMessage()          {}
func (NameResponse) serverMessage()  {}

// ErrUnknownType - the envelope carried a type tag this protocol version
// does not know.
var ErrUnknownType = errors.New("message: unknown type tag")

// envelope - the JSON wrapper every frame is encoded into.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Marshal - encodes a message into its JSON envelope form.
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("message.Marshal: message is nil")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("message.Marshal: %w", err)
	}
	return json.Marshal(envelope{Type: m.tag(), Data: data})
}

// Unmarshal - decodes a JSON envelope back into its concrete variant.
// Unknown tags yield ErrUnknownType.
func Unmarshal(data []byte) (Message, error) {
	env := envelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("message.Unmarshal: %w", err)
	}
	decode := func(into interface{}) error {
		if len(env.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Data, into); err != nil {
			return fmt.Errorf("message.Unmarshal: %q payload: %w", env.Type, err)
		}
		return nil
	}
	switch env.Type {
	case tagLogin:
		m := Login{}
		if err := decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	case tagLoginRequest:
		return LoginRequest{}, nil
	case tagLoginResponse:
		m := LoginResponse{}
		if err := decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	case tagChat:
		m := Chat{}
		if err := decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	case tagNameRequest:
		m := NameRequest{}
		if err := decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	case tagNameResponse:
		m := NameResponse{}
		if err := decode(&m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("message.Unmarshal: %q: %w", env.Type, ErrUnknownType)
	}
}
