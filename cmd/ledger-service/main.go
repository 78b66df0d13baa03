package main

import (
	"flag"
	"os"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/config"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/platform/logger"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/ledgerservice"
)

func main() {
	// Optional build-target flag override (local | cloud | test)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud, test)")
	flag.Parse()

	if *buildTarget == "" {
		if err := ledgerservice.Run(); err != nil {
			os.Exit(1)
		}
		return
	}

	log := logger.New("ledger-service")
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg.BuildTarget = *buildTarget
	cfg.DBDriver = "auto"
	if err := cfg.ResolveDefaults(); err != nil {
		log.Fatal().Err(err).Msg("Invalid build-target override")
	}

	if err := ledgerservice.RunWithConfig(cfg); err != nil {
		os.Exit(1)
	}
}
