package server

import (
	"net"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/channel"
	"github.com/elishadar/CN-Ex4-Chat/internal/chat/message"
)

// startServer - runs a server on a loopback listener and returns its
// address plus a teardown func.
func startServer(test *testing.T, options ...serverOption) (addr string, teardown func()) {
	test.Helper()
	s, err := New(options...)
	if err != nil {
		test.Fatal("server.New, unexpected error:", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		test.Fatal("net.Listen, unexpected error:", err)
	}
	go s.Serve(listener)
	return listener.Addr().String(), func() {
		test.Log("server stopped in:", s.Shutdown(time.Second))
	}
}

// dial - connects a raw protocol client to the server under test.
func dial(test *testing.T, addr string) *channel.Channel {
	test.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		test.Fatal("net.Dial, unexpected error:", err)
	}
	return channel.New(conn)
}

// login - performs one login attempt and returns the server's verdict.
func login(test *testing.T, ch *channel.Channel, name string) message.LoginResponse {
	test.Helper()
	if err := ch.Send(message.Login{Name: name, Joining: true}); err != nil {
		test.Fatal("login send, unexpected error:", err)
	}
	m := receive(test, ch)
	response, ok := m.(message.LoginResponse)
	if !ok {
		test.Fatalf("login: expected LoginResponse, got %#v", m)
	}
	return response
}

// receive - one Receive with a test-failing deadline.
func receive(test *testing.T, ch *channel.Channel) message.Message {
	test.Helper()
	type result struct {
		m   message.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		m, err := ch.Receive()
		done <- result{m, err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			test.Fatal("receive, unexpected error:", r.err)
		}
		return r.m
	case <-time.After(2 * time.Second):
		test.Fatal("receive: no message within deadline")
		return nil
	}
}

func TestServer_login(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	alice := dial(test, addr)
	defer alice.Close()

	if response := login(test, alice, "alice"); !response.Accepted {
		test.Fatal("login(alice): expected acceptance, reason:", response.Reason)
	}

	// the roster now holds exactly alice
	if err := alice.Send(message.NameRequest{From: "alice"}); err != nil {
		test.Fatal("NameRequest, unexpected error:", err)
	}
	roster, ok := receive(test, alice).(message.NameResponse)
	if !ok {
		test.Fatal("Expected NameResponse")
	}
	if !reflect.DeepEqual(roster.Names, []string{"alice"}) {
		test.Error("Unexpected roster:", roster.Names)
	}
}

func TestServer_nameNegotiation(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	alice := dial(test, addr)
	defer alice.Close()
	if response := login(test, alice, "alice"); !response.Accepted {
		test.Fatal("login(alice): expected acceptance")
	}

	intruder := dial(test, addr)
	defer intruder.Close()

	// taken name: rejection with reason, then a re-prompt
	response := login(test, intruder, "alice")
	if response.Accepted {
		test.Fatal("login(alice) twice: expected rejection")
	}
	if response.Reason == "" {
		test.Error("Expected a rejection reason")
	}
	if _, ok := receive(test, intruder).(message.LoginRequest); !ok {
		test.Fatal("Expected LoginRequest after rejection")
	}

	// invalid name: same dance, retries are unlimited
	if response := login(test, intruder, "not a valid name!"); response.Accepted {
		test.Fatal("login with invalid name: expected rejection")
	}
	if _, ok := receive(test, intruder).(message.LoginRequest); !ok {
		test.Fatal("Expected LoginRequest after rejection")
	}

	// a corrected name succeeds and joins the roster after alice
	if response := login(test, intruder, "bob"); !response.Accepted {
		test.Fatal("login(bob): expected acceptance, reason:", response.Reason)
	}
	if err := intruder.Send(message.NameRequest{From: "bob"}); err != nil {
		test.Fatal("NameRequest, unexpected error:", err)
	}
	roster := receive(test, intruder).(message.NameResponse)
	if !reflect.DeepEqual(roster.Names, []string{"alice", "bob"}) {
		test.Error("Unexpected roster order:", roster.Names)
	}
}

func TestServer_messageBeforeLogin(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	ch := dial(test, addr)
	defer ch.Close()

	if err := ch.Send(message.Chat{From: "nobody", Body: "hi"}); err != nil {
		test.Fatal("send, unexpected error:", err)
	}
	// protocol violation: the server drops the connection
	if _, err := ch.Receive(); err == nil {
		test.Error("Expected closed connection after pre-login chat message")
	}
}

func TestServer_broadcastEcho(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	names := []string{"alice", "bob", "carol"}
	clients := make([]*channel.Channel, len(names))
	for i, name := range names {
		clients[i] = dial(test, addr)
		defer clients[i].Close()
		if response := login(test, clients[i], name); !response.Accepted {
			test.Fatal("login:", name, "rejected:", response.Reason)
		}
	}

	if err := clients[0].Send(message.Chat{From: "alice", Body: "hello all"}); err != nil {
		test.Fatal("broadcast send, unexpected error:", err)
	}

	// every client receives the broadcast, the sender included
	for i, ch := range clients {
		m, ok := receive(test, ch).(message.Chat)
		if !ok {
			test.Fatalf("Client %s: expected Chat", names[i])
		}
		if m.From != "alice" || m.To != "" || m.Body != "hello all" {
			test.Errorf("Client %s: unexpected message %#v", names[i], m)
		}
	}
}

func TestServer_broadcastSenderStamp(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	mallory := dial(test, addr)
	defer mallory.Close()
	if response := login(test, mallory, "mallory"); !response.Accepted {
		test.Fatal("login(mallory): rejected")
	}

	// the router stamps the roster name over whatever the client claims
	if err := mallory.Send(message.Chat{From: "alice", Body: "spoofed"}); err != nil {
		test.Fatal("send, unexpected error:", err)
	}
	m := receive(test, mallory).(message.Chat)
	if m.From != "mallory" {
		test.Error("Expected stamped sender mallory, actual", m.From)
	}
}

func TestServer_unicast(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	alice := dial(test, addr)
	defer alice.Close()
	bob := dial(test, addr)
	defer bob.Close()
	login(test, alice, "alice")
	login(test, bob, "bob")

	if err := alice.Send(message.Chat{From: "alice", To: "bob", Body: "hi"}); err != nil {
		test.Fatal("unicast send, unexpected error:", err)
	}
	m, ok := receive(test, bob).(message.Chat)
	if !ok {
		test.Fatal("bob: expected Chat")
	}
	expected := message.Chat{From: "alice", To: "bob", Body: "hi"}
	if m != expected {
		test.Errorf("bob: expected %#v, actual %#v", expected, m)
	}

	// unknown target: a report to the sender, nothing delivered anywhere
	if err := alice.Send(message.Chat{From: "alice", To: "nobody", Body: "hi"}); err != nil {
		test.Fatal("unicast send, unexpected error:", err)
	}
	report, ok := receive(test, alice).(message.Chat)
	if !ok {
		test.Fatal("alice: expected a routing failure report")
	}
	if report.From != ServerName || report.To != "alice" {
		test.Errorf("Unexpected report envelope: %#v", report)
	}

	// bob got the unicast only; alice never saw her own private message
	bob.Send(message.NameRequest{From: "bob"})
	if _, ok := receive(test, bob).(message.NameResponse); !ok {
		test.Error("bob: expected only the NameResponse to be pending")
	}
}

func TestServer_logoutFreesName(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	first := dial(test, addr)
	if response := login(test, first, "alice"); !response.Accepted {
		test.Fatal("login(alice): rejected")
	}
	if err := first.Send(message.Login{Name: "alice", Joining: false}); err != nil {
		test.Fatal("logout send, unexpected error:", err)
	}

	// removal is asynchronous; the retry loop is the protocol's own way
	// to wait for the name to free up
	second := dial(test, addr)
	defer second.Close()
	accepted := false
	for attempt := 0; attempt < 50; attempt++ {
		if login(test, second, "alice").Accepted {
			accepted = true
			break
		}
		if _, ok := receive(test, second).(message.LoginRequest); !ok {
			test.Fatal("Expected LoginRequest after rejection")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !accepted {
		test.Error("Name was not freed after logout")
	}
	first.Close()
}

func TestServer_disconnectFreesName(test *testing.T) {
	addr, teardown := startServer(test)
	defer teardown()

	first := dial(test, addr)
	if response := login(test, first, "alice"); !response.Accepted {
		test.Fatal("login(alice): rejected")
	}
	first.Close() // connection loss, no logout notice

	second := dial(test, addr)
	defer second.Close()
	accepted := false
	for attempt := 0; attempt < 50; attempt++ {
		if login(test, second, "alice").Accepted {
			accepted = true
			break
		}
		if _, ok := receive(test, second).(message.LoginRequest); !ok {
			test.Fatal("Expected LoginRequest after rejection")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !accepted {
		test.Error("Name was not freed after connection loss")
	}
}

func TestServer_shutdown(test *testing.T) {
	s, err := New()
	if err != nil {
		test.Fatal("server.New, unexpected error:", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		test.Fatal("net.Listen, unexpected error:", err)
	}
	served := make(chan error, 1)
	go func() { served <- s.Serve(listener) }()

	ch := dial(test, listener.Addr().String())
	defer ch.Close()
	if response := login(test, ch, "alice"); !response.Accepted {
		test.Fatal("login(alice): rejected")
	}

	test.Log("server stopped in:", s.Shutdown(time.Second))

	select {
	case err := <-served:
		if err != nil {
			test.Error("Serve: unexpected error:", err)
		}
	case <-time.After(time.Second):
		test.Error("Serve did not return after Shutdown")
	}

	// the client connection was closed by the shutdown
	if _, err := ch.Receive(); err == nil {
		test.Error("Expected closed connection after Shutdown")
	}

	// a stopped server refuses to serve again
	if err := s.Serve(listener); err != ErrServerStopped {
		test.Error("Expected ErrServerStopped, got:", err)
	}
}

func TestServer_withNamePattern(test *testing.T) {
	addr, teardown := startServer(test, WithNamePattern(regexp.MustCompile(`^[a-z]{2,8}$`)))
	defer teardown()

	ch := dial(test, addr)
	defer ch.Close()
	if response := login(test, ch, "Alice42"); response.Accepted {
		test.Fatal("Expected rejection under the custom pattern")
	}
	if _, ok := receive(test, ch).(message.LoginRequest); !ok {
		test.Fatal("Expected LoginRequest after rejection")
	}
	if response := login(test, ch, "alice"); !response.Accepted {
		test.Error("Expected acceptance under the custom pattern, reason:", response.Reason)
	}
}
