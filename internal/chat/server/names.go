package server

import "regexp"

const (
	// DefaultPort - TCP port the chat server listens on unless configured
	// otherwise. Single source of truth, consumed by clients too.
	DefaultPort = 20000

	// ServerName - author of messages generated by the server itself,
	// e.g. routing failure reports. Deliberately unmatchable by the
	// name pattern, so no client can ever register it.
	ServerName = "**SERVER**"
)

// defaultNamePattern - the server-owned name validity rule.
var defaultNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// ValidName - reports whether a display name satisfies the server's
// default name rule. Note: this does not check whether the name is taken.
func ValidName(name string) bool {
	return defaultNamePattern.MatchString(name)
}
