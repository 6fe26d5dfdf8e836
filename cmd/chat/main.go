package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/client"
	"github.com/elishadar/CN-Ex4-Chat/internal/chat/message"
	"github.com/elishadar/CN-Ex4-Chat/internal/chat/server"
)

// console - the presentation layer: renders whatever the session core
// reports through the Listener boundary.
type console struct{}

func (console) Stat(text string, isError bool) {
	if isError {
		fmt.Println("!", text)
		return
	}
	fmt.Println("*", text)
}

func (console) MessageSent(m message.Message) {}

func (console) MessageReceived(m message.Message) {
	switch m := m.(type) {
	case message.Chat:
		if m.To != "" {
			fmt.Printf("[private] %s: %s\n", m.From, m.Body)
			return
		}
		fmt.Printf("%s: %s\n", m.From, m.Body)
	case message.NameResponse:
		fmt.Println("* online:", strings.Join(m.Names, ", "))
	case message.LoginRequest:
		fmt.Println("* name rejected, pick another with /name <name>")
	case message.LoginResponse:
		if !m.Accepted {
			fmt.Println("* login rejected:", m.Reason)
		}
	}
}

func main() {
	defaultAddr := net.JoinHostPort("localhost", fmt.Sprintf("%d", server.DefaultPort))
	addr := flag.String("server", defaultAddr, "Chat server address")
	name := flag.String("name", "", "Display name (may also be set later with /name)")
	flag.Parse()

	c := client.New(console{}, *addr)
	if *name != "" {
		c.UpdateName(*name)
	}
	go c.Run()
	defer c.Stop()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return
		case line == "/names":
			c.ListNames()
		case strings.HasPrefix(line, "/name "):
			proposed := strings.TrimSpace(strings.TrimPrefix(line, "/name "))
			if !c.IsValidName(proposed) {
				fmt.Println("! name is not allowed")
				continue
			}
			c.UpdateName(proposed)
		case strings.HasPrefix(line, "/msg "):
			rest := strings.TrimPrefix(line, "/msg ")
			dest, text, ok := strings.Cut(rest, " ")
			if !ok || strings.TrimSpace(text) == "" {
				fmt.Println("! usage: /msg <user> <text>")
				continue
			}
			c.MessageOne(dest, text)
		case strings.HasPrefix(line, "/"):
			fmt.Println("! unknown command:", line)
		default:
			c.MessageAll(line)
		}
	}
}
