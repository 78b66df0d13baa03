package mcptools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/client"
)

// Config holds MCP server settings, read from LEDGER_MCP_* variables.
type Config struct {
	APIURL          string        `envconfig:"API_URL" default:"http://localhost:8090"`
	ServerName      string        `envconfig:"SERVER_NAME" default:"ledger-mcp-server"`
	ServerVersion   string        `envconfig:"SERVER_VERSION" default:"0.1.0"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8091"`
	Transport       string        `envconfig:"TRANSPORT" default:"auto"` // auto | stdio | http
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("LEDGER_MCP", &cfg); err != nil {
		return nil, fmt.Errorf("loading mcp config: %w", err)
	}
	switch cfg.Transport {
	case "auto", "stdio", "http":
	default:
		return nil, fmt.Errorf("invalid LEDGER_MCP_TRANSPORT %q", cfg.Transport)
	}
	return &cfg, nil
}

type toolRegisterer interface {
	RegisterTools(s *server.MCPServer) error
}

// NewServer builds an MCP server with every ledger tool registered.
func NewServer(cfg *Config, c *client.Client) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		server.WithToolCapabilities(true),
	)
	for _, h := range []toolRegisterer{NewLedgerHandler(c)} {
		if err := h.RegisterTools(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Run serves the tools over stdio or streamable HTTP until ctx is done.
func Run(ctx context.Context, cfg *Config) error {
	c, err := client.New(cfg.APIURL)
	if err != nil {
		return err
	}
	s, err := NewServer(cfg, c)
	if err != nil {
		return err
	}

	if useStdio(cfg.Transport) {
		log.Info().Str("api_url", cfg.APIURL).Msg("Starting ledger MCP server (stdio transport)")
		return server.ServeStdio(s)
	}

	streamSrv := server.NewStreamableHTTPServer(s,
		server.WithEndpointPath("/mcp"),
		server.WithHeartbeatInterval(30*time.Second),
	)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           streamSrv,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      0, // SSE streams stay open
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("api_url", cfg.APIURL).Msg("Starting ledger MCP server (streamable HTTP)")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during HTTP server shutdown")
	}
	if err := streamSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during MCP server shutdown")
	}
	log.Info().Msg("MCP server shutdown complete")
	return nil
}

func useStdio(transport string) bool {
	switch transport {
	case "stdio":
		return true
	case "http":
		return false
	}
	// launched by another process when stdin is not a terminal
	if fi, err := os.Stdin.Stat(); err == nil {
		return fi.Mode()&os.ModeCharDevice == 0
	}
	return false
}
