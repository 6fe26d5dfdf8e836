// Package client implements the chat client session: connecting, name
// negotiation with retry, the logged-in message loop and teardown.
// Presentation is left to the Listener implementation; Run is intended
// to execute on its own goroutine.
package client

import (
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/channel"
	"github.com/elishadar/CN-Ex4-Chat/internal/chat/message"
	"github.com/elishadar/CN-Ex4-Chat/internal/chat/server"
)

// Client - one chat session against a server.
//
// The mutable session state (name, state, running flags) forms a monitor:
// the mutex guards it and the condition wakes the negotiation loop when
// UpdateName stores a new name.
type Client struct {
	listener Listener

	mu       sync.Mutex
	nameCond *sync.Cond // signaled on every name update

	addr        string
	name        string
	nameVersion uint64 // bumped by UpdateName, observed by waiters
	state       State
	running     bool
	loggedIn    bool
	ch          *channel.Channel
}

// New - builds a client reporting to the given listener.
// A nil listener is allowed and discards all reports.
func New(listener Listener, serverAddress string) *Client {
	c := &Client{
		listener: listener,
		addr:     serverAddress,
		state:    Disconnected,
	}
	c.nameCond = sync.NewCond(&c.mu)
	return c
}

// UpdateServerAddress - sets the address used by the next Run.
func (c *Client) UpdateServerAddress(serverAddress string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addr = serverAddress
}

// UpdateName - stores a new display name and wakes the negotiation loop
// if it is waiting for one. Safe to call from any goroutine at any time;
// before Run the value is just remembered. Once logged in the name is
// frozen and the update is rejected with a status report.
func (c *Client) UpdateName(name string) {
	c.mu.Lock()
	if c.state == LoggedIn {
		c.mu.Unlock()
		c.stat("name can not be changed after login", true)
		return
	}
	c.name = name
	c.nameVersion++
	c.nameCond.Signal()
	c.mu.Unlock()
}

// IsValidName - pre-validates a name against the server-owned rule.
// Note: this does not check whether the name is taken.
func (c *Client) IsValidName(name string) bool {
	return server.ValidName(name)
}

// IsRunning - reports whether the session is up.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// State - current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run - starts the session and blocks until it ends: dials the server,
// negotiates the name and drains inbound messages to the listener.
// Run the client on its own goroutine:
//
//	go client.Run()
//
// A failed dial reports the error and returns without retrying.
func (c *Client) Run() {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		c.stat("client is already running", true)
		return
	}
	c.state = Connecting
	addr := c.addr
	c.mu.Unlock()

	c.stat("client starting ...", false)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		c.stat("connect: "+err.Error(), true)
		return
	}

	ch := channel.New(conn)
	c.mu.Lock()
	if c.state != Connecting {
		// Stop raced the dial
		c.mu.Unlock()
		ch.Close()
		return
	}
	c.ch = ch
	c.running = true
	c.state = NegotiatingName
	c.mu.Unlock()
	c.stat("client started", false)

	defer c.Stop()

	if !c.negotiate(ch) {
		return
	}
	c.stat("logged in", false)

	// logged-in loop: drain inbound messages to the listener
	for {
		m, err := ch.Receive()
		if err != nil {
			if errors.Is(err, channel.ErrBadFrame) {
				c.stat("an undecodable frame was received, dropped", true)
				continue
			}
			if c.IsRunning() {
				c.stat("connection failed: "+err.Error(), true)
			}
			return
		}
		c.received(m)
		if _, ok := m.(message.ServerMessage); !ok {
			c.stat("a non-server message was received, dropped", true)
		}
	}
}

// negotiate - drives the login loop until the server accepts a name,
// the session is stopped or the connection fails. If no name was set
// before Run, it suspends until UpdateName supplies one.
func (c *Client) negotiate(ch *channel.Channel) bool {
	c.mu.Lock()
	for c.running && strings.TrimSpace(c.name) == "" {
		c.nameCond.Wait()
	}
	if !c.running {
		c.mu.Unlock()
		return false
	}
	name := strings.TrimSpace(c.name)
	sentVersion := c.nameVersion
	c.mu.Unlock()

	if !c.send(message.Login{Name: name, Joining: true}) {
		return false
	}

	for {
		m, err := ch.Receive()
		if err != nil {
			if errors.Is(err, channel.ErrBadFrame) {
				c.stat("an undecodable frame was received, dropped", true)
				continue
			}
			if c.IsRunning() {
				c.stat("connection failed: "+err.Error(), true)
			}
			return false
		}
		c.received(m)
		sm, ok := m.(message.ServerMessage)
		if !ok {
			c.stat("a non-server message was received, dropped", true)
			continue
		}

		switch sm := sm.(type) {
		case message.LoginResponse:
			if !sm.Accepted {
				// a LoginRequest follows; the reason already reached
				// the listener through MessageReceived
				continue
			}
			c.mu.Lock()
			c.loggedIn = true
			c.state = LoggedIn
			c.mu.Unlock()
			return true
		case message.LoginRequest:
			// wait for a name newer than the one the server just
			// rejected; an update that raced the rejection counts
			c.mu.Lock()
			for c.running && c.nameVersion == sentVersion {
				c.nameCond.Wait()
			}
			if !c.running {
				c.mu.Unlock()
				return false
			}
			name = strings.TrimSpace(c.name)
			sentVersion = c.nameVersion
			c.mu.Unlock()
			if !c.send(message.Login{Name: name, Joining: true}) {
				return false
			}
		default:
			// other server messages carry no meaning while negotiating
		}
	}
}

// Stop - stops the session and logs out. Safe to call from any state,
// from any goroutine and concurrently with Run; teardown executes
// exactly once. Closing the channel unblocks a concurrent Receive.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.state == Stopping {
		c.mu.Unlock()
		return
	}
	if c.state == Disconnected && c.ch == nil {
		c.mu.Unlock()
		return
	}
	ch := c.ch
	loggedIn := c.loggedIn
	name := strings.TrimSpace(c.name)
	c.state = Stopping
	c.running = false
	c.loggedIn = false
	c.nameCond.Broadcast()
	c.mu.Unlock()

	c.stat("stopping ...", false)
	if ch != nil {
		if loggedIn {
			// best-effort logout notice
			notice := message.Login{Name: name, Joining: false}
			if err := ch.Send(notice); err == nil {
				c.sent(notice)
			}
		}
		ch.Close()
	}

	c.mu.Lock()
	c.ch = nil
	c.state = Disconnected
	c.mu.Unlock()
	c.stat("client stopped", false)
}

// MessageAll - sends a broadcast message to all logged-in users,
// the sender included. Reports an error if the client is not running.
func (c *Client) MessageAll(text string) {
	c.send(message.Chat{From: c.currentName(), Body: text})
}

// MessageOne - sends a private message to one user.
// Reports an error if the client is not running.
func (c *Client) MessageOne(dest, text string) {
	c.send(message.Chat{From: c.currentName(), To: dest, Body: text})
}

// ListNames - asks the server for the current roster; the reply arrives
// through MessageReceived as a NameResponse.
func (c *Client) ListNames() {
	c.send(message.NameRequest{From: c.currentName()})
}

func (c *Client) currentName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(c.name)
}

// send - ships one message if the session is up, reporting the outcome
// through the listener. Never panics on a dead connection.
func (c *Client) send(m message.Message) bool {
	c.mu.Lock()
	ch, running := c.ch, c.running
	c.mu.Unlock()
	if !running || ch == nil {
		c.stat("client is not running", true)
		return false
	}
	if err := ch.Send(m); err != nil {
		c.stat("send: "+err.Error(), true)
		return false
	}
	c.sent(m)
	return true
}

func (c *Client) stat(text string, isError bool) {
	if c.listener != nil {
		c.listener.Stat(text, isError)
	}
}

func (c *Client) sent(m message.Message) {
	if c.listener != nil {
		c.listener.MessageSent(m)
	}
}

func (c *Client) received(m message.Message) {
	if c.listener != nil {
		c.listener.MessageReceived(m)
	}
}
