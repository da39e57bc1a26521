package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"splunk-mcp/internal/models"
	"splunk-mcp/internal/monitor"
	"splunk-mcp/internal/splunk"
	"splunk-mcp/internal/stream"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// HTTPServer wraps the MCP server for HTTP transport
type HTTPServer struct {
	server      *mcp.Server
	cfg         models.Config
	client      *splunk.Client
	broadcaster *stream.Broadcaster
	ctrl        *monitor.Controller
	log         zerolog.Logger
}

// NewHTTPServer creates a new HTTP-based MCP server
func NewHTTPServer(server *mcp.Server, cfg models.Config, client *splunk.Client, broadcaster *stream.Broadcaster, ctrl *monitor.Controller, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		server:      server,
		cfg:         cfg,
		client:      client,
		broadcaster: broadcaster,
		ctrl:        ctrl,
		log:         log.With().Str("component", "http").Logger(),
	}
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully, stopping any active monitoring session.
func (h *HTTPServer) Start() error {
	addr := h.cfg.Host + ":" + h.cfg.Port

	mux := http.NewServeMux()

	// Stateless MCP handler for maximum client compatibility: direct tool
	// calls work without session management.
	httpHandler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return h.server
	}, nil)

	// Register on both root and /mcp paths for client flexibility
	mux.Handle("/", httpHandler)
	mux.Handle("/mcp", httpHandler)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/ws/monitor", h.broadcaster.HandleWS)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	h.log.Info().Str("addr", addr).Str("version", Version).Msg("MCP server listening")

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case sig := <-signalChan:
		h.log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		h.log.Error().Err(err).Msg("server error")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := h.ctrl.Stop(); err != nil {
		h.log.Warn().Err(err).Msg("failed to stop monitoring session")
	}
	h.broadcaster.Close()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		h.log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	h.log.Info().Msg("shutdown complete")
	return nil
}

// handleHealth reports liveness and probes Splunk connectivity.
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	payload := map[string]any{
		"server":  "splunk-mcp",
		"version": Version,
		"monitor": h.ctrl.Status().State,
	}

	info, err := h.client.GetServerInfo(ctx)
	if err != nil {
		payload["status"] = "degraded"
		payload["splunk_error"] = err.Error()
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		payload["status"] = "healthy"
		payload["splunk_version"] = info.Version
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(payload)
}
