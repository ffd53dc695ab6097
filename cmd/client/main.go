// Package main provides the terminal client for the dungeon game.
// It logs in over a websocket, follows the world and any battle, and sends player commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon-client/internal/client"
	"github.com/cory-johannsen/dungeon-client/internal/config"
	"github.com/cory-johannsen/dungeon-client/internal/frontend/terminal"
	"github.com/cory-johannsen/dungeon-client/internal/lifecycle"
	"github.com/cory-johannsen/dungeon-client/internal/observability"
	"github.com/cory-johannsen/dungeon-client/internal/transport/ws"
)

// defaultLogFile keeps logs off the terminal the game is drawn on.
const defaultLogFile = "dungeon-client.log"

func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults and environment only when empty)")
	name := flag.String("name", "", "player name; prompted for when empty")
	server := flag.String("server", "", "server websocket URL, overriding the configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("loading config: %v", err)
		return 1
	}
	if *server != "" {
		cfg.Client.ServerURL = *server
	}
	if *name != "" {
		cfg.Client.PlayerID = *name
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = defaultLogFile
	}

	console := terminal.NewConsole(os.Stdin)
	if cfg.Client.PlayerID == "" {
		cfg.Client.PlayerID, err = askName(console)
		if err != nil {
			log.Printf("reading name: %v", err)
			return 1
		}
	}
	if err := cfg.Client.Validate(); err != nil {
		log.Printf("invalid client configuration: %v", err)
		return 1
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Printf("initializing logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting dungeon client",
		zap.String("server_url", cfg.Client.ServerURL),
		zap.String("player_id", cfg.Client.PlayerID),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := ws.Dial(ctx, cfg.Client.ServerURL, ws.Options{
		DialTimeout:  cfg.Client.DialTimeout,
		WriteTimeout: cfg.Client.WriteTimeout,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("connecting to server", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Could not reach the server: %v\n", err)
		return 1
	}
	logger.Info("server connected", zap.Duration("elapsed", time.Since(start)))

	screen := terminal.NewScreen(os.Stdout, logger)
	sess, err := client.NewSession(conn, screen, cfg.Client, client.WithLogger(logger))
	if err != nil {
		logger.Error("creating session", zap.Error(err))
		return 1
	}

	// The outcome is buffered so the session never blocks on a reader that left.
	outcome := make(chan error, 1)
	sessCtx, stopSession := context.WithCancel(ctx)
	lc := lifecycle.New(logger)
	lc.Add("session", &lifecycle.FuncService{
		StartFn: func() error {
			err := sess.Run(sessCtx, console)
			outcome <- err
			if errors.Is(err, client.ErrQuit) || errors.Is(err, client.ErrPlayerDied) {
				return nil
			}
			return err
		},
		StopFn: stopSession,
	})

	if err := lc.Run(ctx); err != nil {
		logger.Error("session failed", zap.Error(err))
	}

	select {
	case err := <-outcome:
		return exitCode(err)
	default:
		// Interrupted by a signal.
		return 0
	}
}

func askName(console *terminal.Console) (string, error) {
	for {
		fmt.Print("What is your name, adventurer? ")
		line, err := console.ReadLine()
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, client.ErrQuit):
		fmt.Println("\nFarewell.")
		return 0
	case errors.Is(err, client.ErrPlayerDied):
		fmt.Println()
		return 0
	case errors.Is(err, client.ErrIDTaken):
		fmt.Fprintln(os.Stderr, "\nThat name is taken. Try again with another.")
		return 1
	case errors.Is(err, client.ErrDisconnected):
		fmt.Fprintln(os.Stderr, "\nThe server closed the connection.")
		return 1
	default:
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		return 1
	}
}
