package server

import (
	"errors"
	"regexp"
)

type serverOption func(s *Server) error

// WithLogger - attach logger for server events. A nil value is allowed
// and keeps the server silent.
func WithLogger(l Logger) serverOption {
	return func(s *Server) error {
		s.logger = l
		return nil
	}
}

// WithNamePattern - overwrites the default name validity rule.
func WithNamePattern(p *regexp.Regexp) serverOption {
	return func(s *Server) error {
		if p == nil {
			return errors.New("server.WithNamePattern: pattern is nil")
		}
		s.namePattern = p
		return nil
	}
}
