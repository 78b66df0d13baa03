package factory

import (
	"github.com/rs/zerolog"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/config"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/logsource"
)

// NewLogSource creates the upstream log API client from config.
func NewLogSource(cfg *config.Config, log zerolog.Logger) (*logsource.Client, error) {
	return logsource.New(cfg.LogSourceURL,
		logsource.WithTimeout(cfg.LogSourceTimeout()),
		logsource.WithMaxRetries(cfg.LogSourceMaxRetries),
		logsource.WithLogger(log),
	)
}
