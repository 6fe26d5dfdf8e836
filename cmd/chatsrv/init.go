package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/server"
	"github.com/elishadar/CN-Ex4-Chat/pkg/semver"
)

type (
	// Configuration - server configuration
	Configuration struct {
		// IPAddress - bind the address
		IPAddress string
		// Port - bind the port
		Port uint
		// ShutdownTimeout - grace period for closing client connections
		ShutdownTimeout time.Duration
	}
)

var (
	// Config - current configuration of the server
	Config = Configuration{
		IPAddress:       "",
		Port:            server.DefaultPort,
		ShutdownTimeout: 10 * time.Second,
	}

	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	// Version - app version fingerprint
	Version = semver.V{Major: 1}.String()
)

func init() {
	out := flag.CommandLine.Output()
	printUsage := func() {
		fmt.Fprintf(out, "Launch text chat server over TCP\n\n\t%s [options]\nOptions:\n\n", BinaryName)
		flag.PrintDefaults()
		fmt.Fprint(out, "\n")
	}
	printError := func(msg string) {
		fmt.Fprintf(out, "%s (v%s) error:\n\n\t%s\n", BinaryName, Version, msg)
	}

	help := false
	flag.BoolVar(&help, "help", false, "Print usage help")
	flag.StringVar(&Config.IPAddress, "ip", "", "Listen address")
	flag.UintVar(&Config.Port, "port", server.DefaultPort, "Listen port")
	shutdown := 10
	flag.IntVar(&shutdown, "shutdown-timeout", shutdown, "Grace period in seconds for closing client connections on stop.")

	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}

	if shutdown < 1 {
		printError("shutdown-timeout value should be greater 1")
		os.Exit(1)
	}
	Config.ShutdownTimeout = time.Duration(shutdown) * time.Second

	fmt.Fprint(out, "TCP chat server is launching, press Ctrl-C to stop...\n")
}
