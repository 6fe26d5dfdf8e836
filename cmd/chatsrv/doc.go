// Package `chatsrv` implements the chat server application over TCP.
//
// To compile the server locally, run from the package directory:
//
//	go install .
//
// Or quickly launch it with:
//
//	go run .
package main
