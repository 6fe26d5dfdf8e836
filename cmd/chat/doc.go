// Package `chat` implements a reference terminal client for the chat
// server: a thin presentation layer over the session core.
//
// Commands:
//
//	/name <name>       propose or change the display name
//	/msg <user> <text> send a private message
//	/names             list everyone online
//	/quit              log out and exit
//
// Everything else typed is broadcast to all logged-in users.
package main
