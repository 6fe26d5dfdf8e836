package main

import (
	"fmt"
	stdlog "log"
	"net"
	"os"
	"os/signal"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/server"
)

func main() {
	logger := stdlog.New(os.Stdout, "chatsrv:"+Version+" ", stdlog.Ldate|stdlog.Ltime)
	logger.Printf("Started with config: %+v", Config)

	node := net.JoinHostPort(Config.IPAddress, fmt.Sprintf("%d", Config.Port))
	listener, err := net.Listen("tcp", node)
	if err != nil {
		logger.Println("ERR", "Unable to listen TCP:", err)
		os.Exit(1)
	}

	srv, err := server.New(server.WithLogger(logger))
	if err != nil {
		logger.Println("ERR", "Can't build chat server:", err)
		listener.Close()
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	go srv.Serve(listener)
	logger.Println("Chat server has started.")

	<-sig
	logger.Println("Got stop signal")
	logger.Println("Chat server stopped in", srv.Shutdown(Config.ShutdownTimeout), "bye")
}
