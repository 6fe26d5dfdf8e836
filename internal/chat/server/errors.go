package server

import "errors"

var (
	// ErrServerStopped - returned when the server is under stop condition
	// and will not serve any listener anymore.
	ErrServerStopped = errors.New("server.Server: under stop condition")

	// ErrNilListener - returned when Serve is called without a listener.
	ErrNilListener = errors.New("server.Server: net listener is nil")
)
