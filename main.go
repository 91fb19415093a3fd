package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/tomaslejdung/pairdesk/pkg/relay"
)

// DefaultRelayServer is the default remote relay for P2P brokering
const DefaultRelayServer = "wss://relay.pairdesk.dev/ws"

// LocalRelayServer is the URL of a locally running relay
const LocalRelayServer = "ws://localhost:8080/ws"

// Config holds runtime configuration
type Config struct {
	ServeMode bool
	Port      int
	RelayURL  string
	Help      bool

	// TURN server configuration
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool // Force TURN relay (no direct P2P)
}

func parseFlags() Config {
	config := Config{}
	var localMode bool

	flag.BoolVar(&config.ServeMode, "serve", false, "Run as relay server only")
	flag.BoolVar(&config.ServeMode, "s", false, "Run as relay server only (shorthand)")

	flag.IntVar(&config.Port, "port", 8080, "Relay server port")
	flag.IntVar(&config.Port, "p", 8080, "Relay server port (shorthand)")

	flag.StringVar(&config.RelayURL, "relay", "", "Custom relay server URL (overrides default)")
	flag.BoolVar(&localMode, "local", false, "Use local relay server ("+LocalRelayServer+")")

	flag.StringVar(&config.TURNServer, "turn", "", "TURN server URL (e.g., turn:turn.example.com:3478)")
	flag.StringVar(&config.TURNUser, "turn-user", "", "TURN server username")
	flag.StringVar(&config.TURNPass, "turn-pass", "", "TURN server password")
	flag.BoolVar(&config.ForceRelay, "force-relay", false, "Force TURN relay (disable direct P2P)")

	flag.BoolVar(&config.Help, "help", false, "Show help")
	flag.BoolVar(&config.Help, "h", false, "Show help (shorthand)")

	flag.Parse()

	if localMode {
		config.RelayURL = LocalRelayServer
	}

	return config
}

func printHelp() {
	fmt.Println(`PairDesk - P2P Remote Desktop Control

Usage: pairdesk [options]

By default, PairDesk connects to the remote relay server at:
  ` + DefaultRelayServer + `

One side shares a screen and hands the 6-digit code to the other side
out of band; the controlling side enters the code to connect.

Options:
  --local                Use local relay server (` + LocalRelayServer + `)
  --relay <url>          Custom relay server URL (overrides default)
  --serve, -s            Run as relay server only
  --port, -p <port>      Relay server port (default: 8080)
  --help, -h             Show help

Network Options:
  --turn <url>           TURN server URL (e.g., turn:turn.example.com:3478)
  --turn-user <user>     TURN server username
  --turn-pass <pass>     TURN server password
  --force-relay          Force TURN relay (disable direct P2P connections)

Examples:
  pairdesk                   # Uses remote relay server
  pairdesk --serve           # Run local relay server
  pairdesk --local           # Connect to local relay server

TUI Controls:
  s             Share screen (host)
  c             Control a remote screen (client)
  ↑/↓ or j/k    Navigate source list
  Enter         Select source / submit code
  Esc           Back / stop session
  q             Quit`)
}

func main() {
	config := parseFlags()

	if config.Help {
		printHelp()
		return
	}

	// Server-only mode
	if config.ServeMode {
		runRelayServer(config.Port)
		return
	}

	if config.RelayURL == "" {
		config.RelayURL = DefaultRelayServer
	}

	if err := RunTUI(config); err != nil {
		log.Fatalf("TUI error: %v", err)
	}
}

func runRelayServer(port int) {
	server := relay.NewServer()
	addr := fmt.Sprintf(":%d", port)

	fmt.Printf("Starting relay server on http://localhost%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.StartServer(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// iceConfigFromFlags builds the session ICE configuration
func iceConfigFromFlags(config Config) ICEConfig {
	return ICEConfig{
		TURNServer: config.TURNServer,
		TURNUser:   config.TURNUser,
		TURNPass:   config.TURNPass,
		ForceRelay: config.ForceRelay,
	}
}
