// Package channel wraps one net.Conn into a bidirectional, ordered,
// message-framed transport. Each frame is a 4-byte big-endian length prefix
// followed by one JSON-encoded message envelope.
package channel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/message"
)

// MaxFrameSize - upper bound of a single frame body in bytes.
// Frames above it indicate a broken or hostile peer.
const MaxFrameSize = 1 << 20

var (
	// ErrBadFrame - the frame arrived intact but its payload did not decode
	// into a known message. Not fatal for the channel: the reader may drop
	// the frame and continue.
	ErrBadFrame = errors.New("channel: undecodable frame")

	// ErrFrameTooLarge - the peer announced a frame above MaxFrameSize.
	// Fatal: the stream can not be resynchronized.
	ErrFrameTooLarge = errors.New("channel: frame exceeds size limit")
)

// Channel - message-framed view of one network connection.
// Send is safe for concurrent use; Receive is owned by a single
// dedicated reader.
type Channel struct {
	conn net.Conn

	wmu sync.Mutex // serializes writers, one frame per Write call

	closeOnce sync.Once
	closeErr  error
}

// New - wraps an established connection.
func New(conn net.Conn) *Channel {
	return &Channel{conn: conn}
}

// Send - encodes and writes exactly one frame.
// The length prefix and the body go out in a single Write call,
// so concurrent senders never interleave partial frames.
func (c *Channel) Send(m message.Message) error {
	body, err := message.Marshal(m)
	if err != nil {
		return fmt.Errorf("channel.Send: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("channel.Send: %d byte(s): %w", len(body), ErrFrameTooLarge)
	}
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("channel.Send: %w", err)
	}
	return nil
}

// Receive - blocks until one full frame is available or the connection
// fails. ErrBadFrame means this frame only is lost; any other error is
// terminal for the channel.
func (c *Channel) Receive() (message.Message, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("channel.Receive: %w", err)
	}
	size := binary.BigEndian.Uint32(header)
	if size > MaxFrameSize {
		return nil, fmt.Errorf("channel.Receive: %d byte(s): %w", size, ErrFrameTooLarge)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, fmt.Errorf("channel.Receive: %w", err)
	}
	m, err := message.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("channel.Receive: %v: %w", err, ErrBadFrame)
	}
	return m, nil
}

// Close - releases the underlying connection and unblocks a concurrent
// Receive. Safe to call repeatedly and from any goroutine.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr - address of the peer.
func (c *Channel) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
