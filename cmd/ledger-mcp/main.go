package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/mcptools"
)

func main() {
	cfg, err := mcptools.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	flag.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Base URL of the ledger service")
	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "auto|stdio|http")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	// stdout carries the stdio protocol
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcptools.Run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("MCP server exited with error")
		os.Exit(1)
	}
}
