// Package server exposes the runtime over HTTP: session creation via a REST
// endpoint and a per-session realtime websocket channel carrying plain text
// frames - client frames are user tasks, server frames are agent responses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"

	"github.com/switchkit/switchboard/core"
	"github.com/switchkit/switchboard/logging"
	"github.com/switchkit/switchboard/runtime"
)

// Options configure a Server.
type Options struct {
	Logger logging.Logger
}

// Server serves the session API and websocket channel for one Runtime.
type Server struct {
	cfg    Config
	rt     *runtime.Runtime
	logger logging.Logger
	http   *http.Server
}

// New creates a Server for the given runtime.
func New(cfg Config, rt *runtime.Runtime, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{cfg: cfg, rt: rt, logger: opts.Logger}
	s.http = &http.Server{Addr: cfg.Addr(), Handler: s.Handler()}
	return s
}

// Handler returns the HTTP handler, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("GET /ws/{session_id}", s.handleWebsocket)
	return mux
}

// ListenAndServe blocks serving HTTP until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", "addr", s.cfg.Addr())
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, drains the HTTP server and shuts the
// runtime down, closing every live session.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	return s.rt.Shutdown(ctx)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.rt.CreateSession(r.Context())
	if err != nil {
		s.logger.Error("session creation failed", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	s.logger.Info("created new session", "session_id", id)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"session_id": id})
}

// handleWebsocket runs one realtime channel: a writer goroutine drains the
// session's response channel into text frames while the request goroutine
// reads client frames and submits them as user tasks. Either side ending
// tears the session down.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin policy is left to the deployment proxy
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "session_id", sessionID, "error", err)
		return
	}
	s.logger.Info("client connected", "session_id", sessionID)

	responses, err := s.rt.Responses(sessionID)
	if err != nil {
		var notFound *core.SessionNotFoundError
		if errors.As(err, &notFound) {
			s.logger.Error("session not found", "session_id", sessionID)
			conn.Close(websocket.StatusInternalError, "Session not found")
			return
		}
		s.logger.Error("response channel unavailable", "session_id", sessionID, "error", err)
		conn.Close(websocket.StatusInternalError, "internal error")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for msg := range responses {
			if err := conn.Write(ctx, websocket.MessageText, []byte(msg.Payload)); err != nil {
				return
			}
		}
		// Channel closed: the session ended (exit command or shutdown).
		conn.Close(websocket.StatusNormalClosure, "session ended")
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.logger.Info("client disconnected", "session_id", sessionID)
			break
		}
		text := string(data)
		s.logger.Debug("received message", "session_id", sessionID, "length", len(text))
		if err := s.rt.SubmitUserMessage(ctx, sessionID, text); err != nil {
			break
		}
	}

	cancel()
	s.rt.CloseSession(sessionID)
	<-writeDone
	conn.Close(websocket.StatusNormalClosure, "")
}
