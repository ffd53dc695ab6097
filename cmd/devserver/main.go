// Package main provides the scripted development server.
// It serves a YAML scenario over websockets so the client can be exercised without the game server.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon-client/internal/config"
	"github.com/cory-johannsen/dungeon-client/internal/devserver"
	"github.com/cory-johannsen/dungeon-client/internal/lifecycle"
	"github.com/cory-johannsen/dungeon-client/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "", "path to scenario YAML file, overriding the configuration")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *scenarioPath != "" {
		cfg.DevServer.Scenario = *scenarioPath
	}

	// The devserver logs to the console even when the client config names a log file.
	cfg.Logging.Output = ""
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	scenario, err := devserver.LoadScenarioFromFile(cfg.DevServer.Scenario)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	logger.Info("scenario loaded",
		zap.String("scenario", scenario.Name),
		zap.Int("rounds", len(scenario.Rounds)),
		zap.Strings("taken_ids", scenario.TakenIDs),
	)

	srv := devserver.NewServer(cfg.DevServer, scenario, logger)

	lc := lifecycle.New(logger)
	lc.Add("websocket", &lifecycle.FuncService{
		StartFn: srv.ListenAndServe,
		StopFn:  srv.Stop,
	})

	logger.Info("devserver initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.DevServer.Addr()),
		zap.Duration("round_delay", cfg.DevServer.RoundDelay),
	)

	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
