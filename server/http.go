// Package server exposes the agent over HTTP. The service itself is
// stateless: every /invoke call is an independent transaction against the
// shared agent, bounded by a per-request timeout, and a failed invocation
// never takes the process down.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/parleyhq/parley/agent"
	"github.com/parleyhq/parley/session"
)

const shutdownTimeout = 5 * time.Second

// Server serves /health and /invoke in front of one shared agent.
type Server struct {
	addr          string
	agent         *agent.Agent
	sessions      session.Store
	invokeTimeout time.Duration
	server        *http.Server
}

// New creates a server. The agent and session store are injected; the
// server never constructs them itself.
func New(addr string, a *agent.Agent, sessions session.Store, invokeTimeout time.Duration) *Server {
	return &Server{
		addr:          addr,
		agent:         a,
		sessions:      sessions,
		invokeTimeout: invokeTimeout,
	}
}

// invokeRequest is the /invoke request body. SessionID is optional; when set,
// prior turns of that session feed into the query.
type invokeRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type invokeResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.invokeTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("HTTP server starting", "address", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	slog.Info("HTTP server shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// Handler returns the fully routed handler with middleware applied. Exposed
// so tests can drive the server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/invoke", s.handleInvoke)

	var handler http.Handler = mux
	handler = corsMiddleware(handler)
	handler = loggingMiddleware(handler)
	return handler
}

// handleHealth is a fixed, dependency-free liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleInvoke validates the request, resolves the session, runs the agent
// under the configured timeout and maps failures to HTTP statuses.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must be non-empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.invokeTimeout)
	defer cancel()

	sess, persist, err := s.resolveSession(ctx, req.SessionID)
	if err != nil {
		slog.Error("session load failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to load session")
		return
	}

	answer, err := s.agent.Invoke(ctx, sess, req.Query)
	if err != nil {
		// Provider errors can carry request payloads or endpoint details;
		// the client gets a generic message and the detail goes to the log.
		status := http.StatusBadGateway
		msg := "agent invocation failed"
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
			msg = "agent invocation timed out"
		}
		slog.Error("agent invocation failed", "error", err)
		writeError(w, status, msg)
		return
	}

	resp := invokeResponse{Response: answer}
	if persist {
		if err := s.sessions.Put(ctx, sess); err != nil {
			// The answer is already computed; losing one history write is
			// not worth failing the request over.
			slog.Warn("failed to persist session", "session", sess.ID, "error", err)
		}
		resp.SessionID = sess.ID
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// resolveSession loads an existing session, creates a fresh persistent one
// for an unknown id, or hands out a throwaway session for one-shot queries.
func (s *Server) resolveSession(ctx context.Context, id string) (*session.Session, bool, error) {
	if id == "" {
		return session.NewSession(), false, nil
	}
	sess, err := s.sessions.Get(ctx, id)
	if err == nil {
		return sess, true, nil
	}
	if errors.Is(err, session.ErrNotFound) {
		sess = session.NewSession()
		sess.ID = id
		return sess, true, nil
	}
	return nil, false, err
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// corsMiddleware adds permissive CORS headers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request with its duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
