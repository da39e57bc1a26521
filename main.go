// An MCP server implementation for Splunk that enables AI agents to run
// SPL searches, discover indexes, and monitor logs continuously.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"splunk-mcp/internal/logging"
	"splunk-mcp/internal/models"
	"splunk-mcp/internal/monitor"
	"splunk-mcp/internal/splunk"
	"splunk-mcp/internal/stream"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/peterbourgon/ff/v3"
)

// Version information
var (
	Version   = "dev"     // Set by goreleaser
	CommitSHA = "unknown" // Set by goreleaser
	BuildTime = "unknown" // Set by goreleaser
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	client := splunk.NewClient(cfg, logger)
	broadcaster := stream.NewBroadcaster(logger)
	ctrl := monitor.NewController(client, broadcaster, logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "splunk-mcp",
		Version: Version,
	}, nil)
	registerAllTools(server, cfg, client, ctrl)

	if cfg.HTTPMode {
		hs := NewHTTPServer(server, cfg, client, broadcaster, ctrl, logger)
		if err := hs.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
		return
	}

	logger.Info().Str("version", Version).Msg("starting MCP server on stdio")
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}
	if _, err := ctrl.Stop(); err != nil {
		logger.Warn().Err(err).Msg("failed to stop monitoring session")
	}
	broadcaster.Close()
}

// parseConfig builds the server configuration from flags, SPLUNK_*
// environment variables, and an optional JSON config file, in that order
// of precedence.
func parseConfig(args []string) (models.Config, error) {
	fs := flag.NewFlagSet("splunk-mcp", flag.ContinueOnError)

	var cfg models.Config
	var insecure bool
	fs.StringVar(&cfg.BaseURL, "url", "", "Splunk management API URL, e.g. https://splunk.example.com:8089")
	fs.StringVar(&cfg.Username, "username", "", "Splunk username")
	fs.StringVar(&cfg.Password, "password", "", "Splunk password")
	fs.StringVar(&cfg.AuthToken, "token", "", "Splunk bearer token (takes precedence over username/password)")
	fs.BoolVar(&insecure, "insecure-skip-verify", false, "skip TLS certificate verification")
	fs.IntVar(&cfg.MaxResultsDefault, "max-results", 100, "default result cap for one-shot searches")
	fs.IntVar(&cfg.SearchTimeout, "search-timeout", 300, "default search timeout in seconds")
	fs.Float64Var(&cfg.RequestRateLimit, "rate", 2, "search submissions per second limit")
	fs.IntVar(&cfg.RequestRateBurst, "burst", 2, "search submission burst capacity")
	fs.BoolVar(&cfg.HTTPMode, "http", false, "serve MCP over streamable HTTP instead of stdio")
	fs.StringVar(&cfg.Host, "host", "localhost", "HTTP listen host")
	fs.StringVar(&cfg.Port, "port", "8090", "HTTP listen port")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "console", "log format (console or json)")

	var configFile string
	fs.StringVar(&configFile, "config", "", "config file path (JSON)")

	err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("SPLUNK"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.JSONParser),
	)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.VerifySSL = !insecure

	if cfg.BaseURL == "" {
		return cfg, errors.New("Splunk URL must be provided via -url flag or SPLUNK_URL env var")
	}
	if cfg.AuthToken == "" && (cfg.Username == "" || cfg.Password == "") {
		return cfg, errors.New("Splunk credentials must be provided: either SPLUNK_TOKEN, or SPLUNK_USERNAME and SPLUNK_PASSWORD")
	}

	return cfg, nil
}
