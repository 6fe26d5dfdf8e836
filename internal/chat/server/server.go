// Package server implements the chat connection registry and message
// router: it accepts TCP connections, negotiates a unique display name
// with every client and relays chat messages to one or all of them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/channel"
	"github.com/elishadar/CN-Ex4-Chat/internal/chat/message"
	"github.com/elishadar/CN-Ex4-Chat/pkg/background"
)

// Server - chat server over any net.Listener implementation.
//
// Broadcast policy: a broadcast is delivered to every currently
// registered client, the sender included.
type Server struct {
	logger      Logger
	namePattern *regexp.Regexp
	roster      *roster

	scope  *background.Scope
	cancel func()
}

// New - builds a server, optionally tuned with options.
func New(options ...serverOption) (*Server, error) {
	scope, cancel := background.NewScope()
	s := &Server{
		namePattern: defaultNamePattern,
		roster:      newRoster(),
		scope:       scope,
		cancel:      cancel,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

// Serve - accepts connections of the given listener until the listener
// fails or the server is shut down. Blocks the caller.
func (s *Server) Serve(listener net.Listener) error {
	if listener == nil {
		return ErrNilListener
	}
	if s.scope.Context().Err() != nil {
		return ErrServerStopped
	}

	// close listener to unblock Accept on shutdown
	s.scope.Go(func(ctx context.Context) {
		<-ctx.Done()
		listener.Close()
	})

	logInfo(s.logger, "listen", listener.Addr().Network(), listener.Addr().String())
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.scope.Context().Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			logError(s.logger, "accept:", err)
			continue
		}

		s.scope.Go(func(ctx context.Context) {
			s.handle(ctx, conn)
		})
	}
}

// Shutdown - stops the server: cancels every connection handler, waits
// for them up to the given timeout and returns the time spent.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	from := time.Now()
	if s.scope.Context().Err() != nil {
		return 0
	}
	done := make(chan struct{})
	go func() {
		s.cancel()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
	return time.Since(from)
}

// handle - owns one client connection from accept to close.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	ch := channel.New(conn)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// unblock the handler's Receive on shutdown or handler exit
		<-ctx.Done()
		ch.Close()
	}()

	connID := uuid.NewString()
	logInfo(s.logger, "conn", connID, "accepted from", conn.RemoteAddr())

	name, ok := s.login(ch, connID)
	if !ok {
		logInfo(s.logger, "conn", connID, "closed before login")
		return
	}
	logInfo(s.logger, "conn", connID, "logged in as", name)
	defer func() {
		s.roster.remove(name)
		logInfo(s.logger, "conn", connID, name, "left,", s.roster.len(), "client(s) online")
	}()

	s.route(ch, name, connID)
}

// login - drives the name negotiation loop. The first meaningful frame
// must be a joining Login; the client may retry a rejected name without
// limit, each attempt validated independently.
func (s *Server) login(ch *channel.Channel, connID string) (string, bool) {
	for {
		m, err := ch.Receive()
		if err != nil {
			logError(s.logger, "conn", connID, "login:", err)
			return "", false
		}
		login, ok := m.(message.Login)
		if !ok || !login.Joining {
			logError(s.logger, "conn", connID, fmt.Sprintf("protocol violation: %T before login", m))
			return "", false
		}

		name := strings.TrimSpace(login.Name)
		reason := ""
		switch {
		case !s.namePattern.MatchString(name):
			reason = "name is not allowed"
		case !s.roster.add(name, ch):
			reason = "name is already taken"
		}
		if reason != "" {
			logInfo(s.logger, "conn", connID, "rejected name", fmt.Sprintf("%q:", name), reason)
			if err := ch.Send(message.LoginResponse{Accepted: false, Reason: reason}); err != nil {
				return "", false
			}
			if err := ch.Send(message.LoginRequest{}); err != nil {
				return "", false
			}
			continue
		}

		if err := ch.Send(message.LoginResponse{Accepted: true}); err != nil {
			s.roster.remove(name)
			return "", false
		}
		return name, true
	}
}

// route - relays messages of one logged-in client until logout,
// connection failure or protocol violation.
func (s *Server) route(ch *channel.Channel, name, connID string) {
	for {
		m, err := ch.Receive()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logError(s.logger, "conn", connID, "receive:", err)
			}
			return
		}
		switch m := m.(type) {
		case message.Chat:
			m.From = name // the roster, not the client, owns the sender identity
			if m.To == "" {
				s.broadcast(m)
				continue
			}
			target, ok := s.roster.get(m.To)
			if !ok {
				s.report(ch, name, fmt.Sprintf("no such user: %s", m.To))
				continue
			}
			if err := target.Send(m); err != nil {
				logError(s.logger, "conn", connID, "deliver to", m.To+":", err)
			}
		case message.NameRequest:
			if err := ch.Send(message.NameResponse{Names: s.roster.names()}); err != nil {
				logError(s.logger, "conn", connID, "name response:", err)
				return
			}
		case message.Login:
			if m.Joining {
				logError(s.logger, "conn", connID, "protocol violation: login while logged in")
			}
			return
		default:
			logError(s.logger, "conn", connID, fmt.Sprintf("protocol violation: unexpected %T", m))
			return
		}
	}
}

// broadcast - delivers the message to every registered client,
// the sender included.
func (s *Server) broadcast(m message.Chat) {
	for _, ch := range s.roster.channels() {
		if err := ch.Send(m); err != nil {
			// the recipient's own handler will notice the failure and
			// clean up its roster entry
			logError(s.logger, "broadcast from", m.From+":", err)
		}
	}
}

// report - sends a server-authored notice back to one client.
func (s *Server) report(ch *channel.Channel, to, text string) {
	if err := ch.Send(message.Chat{From: ServerName, To: to, Body: text}); err != nil {
		logError(s.logger, "report to", to+":", err)
	}
}
