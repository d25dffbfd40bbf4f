package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/events"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

// Server represents the interactions HTTP server.
type Server struct {
	config     Config
	verifier   *Verifier
	dispatcher Dispatcher
	events     *events.Hub
	logger     *slog.Logger
	server     *http.Server
}

// New creates a new interactions server. hub may be nil, in which case the
// events stream is not mounted.
func New(config Config, verifier *Verifier, dispatcher Dispatcher, hub *events.Hub, logger *slog.Logger) *Server {
	if config.MaxBodySize == 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}

	return &Server{
		config:     config,
		verifier:   verifier,
		dispatcher: dispatcher,
		events:     hub,
		logger:     logger,
	}
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("interaction server starting", "listen", s.config.Listen, "path", s.config.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("interaction server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("interaction server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("interaction server error: %w", err)
	}
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post(s.config.Path, s.handleInteraction)
	r.Get("/_health", s.handleHealth)

	if s.events != nil {
		r.Group(func(r chi.Router) {
			if s.config.EventsAPIKey != "" {
				r.Use(s.authMiddleware)
			}
			r.Get("/events", s.handleEvents)
		})
	}

	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// handleInteraction authenticates, decodes and dispatches one interaction.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(HeaderSignature)
	timestamp := r.Header.Get(HeaderTimestamp)
	if signature == "" || timestamp == "" {
		s.logger.Warn("interaction signature headers missing", "path", r.URL.Path)
		s.respondError(w, http.StatusBadRequest, "missing signature headers")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	// Nothing in the body is looked at before this succeeds.
	if err := s.verifier.Verify(signature, timestamp, body); err != nil {
		s.logger.Warn("interaction signature verification failed", "path", r.URL.Path)
		s.respondError(w, http.StatusUnauthorized, "invalid request signature")
		return
	}

	in, err := protocol.DecodeInteraction(body)
	if err != nil {
		s.logger.Warn("malformed interaction", "error", err)
		s.respondError(w, http.StatusBadRequest, "malformed interaction")
		return
	}

	resp, err := s.dispatcher.Dispatch(r.Context(), in)
	if err != nil {
		if errors.Is(err, command.ErrUnresolvablePath) || errors.Is(err, protocol.ErrMalformedEnvelope) {
			s.logger.Warn("interaction rejected", "interaction_id", in.ID, "error", err)
			s.respondError(w, http.StatusBadRequest, "unresolvable interaction")
			return
		}
		s.logger.Error("interaction dispatch failed", "interaction_id", in.ID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	var buf bytes.Buffer
	if err := protocol.EncodeResponse(&buf, resp); err != nil {
		s.logger.Error("failed to encode interaction response", "interaction_id", in.ID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
