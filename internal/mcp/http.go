package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
)

const (
	SSEEndpoint     = "/sse"
	MessageEndpoint = "/message"
	HealthEndpoint  = "/health"

	shutdownTimeout = 5 * time.Second
)

// newSSEServer creates the SSE transport for the MCP server. httpServer may
// be nil when the transport is mounted in a router that is served elsewhere.
func (s *Server) newSSEServer(httpServer *http.Server) *server.SSEServer {
	opts := []server.SSEOption{
		server.WithBaseURL("http://" + s.config.Address()),
		server.WithSSEEndpoint(SSEEndpoint),
		server.WithMessageEndpoint(MessageEndpoint),
	}
	if httpServer != nil {
		opts = append(opts, server.WithHTTPServer(httpServer))
	}
	return server.NewSSEServer(s.mcpServer, opts...)
}

// routes mounts the health check and the SSE transport on a chi router
func (s *Server) routes(sse *server.SSEServer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger, s.config.IsDebug()))

	r.Get(HealthEndpoint, s.handleHealth)
	r.Handle(SSEEndpoint, sse.SSEHandler())
	r.Handle(MessageEndpoint, sse.MessageHandler())

	return r
}

// Handler returns the HTTP handler served in server mode
func (s *Server) Handler() http.Handler {
	return s.routes(s.newSSEServer(nil))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	tagging := s.pdfService.Health()
	status := "ok"
	if !tagging.Healthy {
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"server":  s.config.ServerName,
		"version": s.config.Version,
		"tagging": tagging,
	})
}

// requestLogger logs one line per finished request. SSE streams are
// logged when the client disconnects.
func requestLogger(logger *log.Logger, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			if !debug && r.URL.Path == HealthEndpoint {
				return
			}
			logger.Printf("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(),
				time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
		})
	}
}

// runServerMode serves MCP over HTTP with server-sent events until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sse := s.newSSEServer(httpServer)
	httpServer.Handler = s.routes(sse)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting PDF tagging MCP server on http://%s (SSE endpoint %s)", s.config.Address(), SSEEndpoint)
		s.logger.Printf("PDF directory: %s", s.config.PDFDirectory)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Printf("Shutting down HTTP server")
		if err := sse.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	}
}
