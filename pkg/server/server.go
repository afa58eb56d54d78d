// Package server exposes the advisor over HTTP. Each session holds its own
// parameter state in a TTL store so concurrent conversations stay isolated;
// turns within one session are serialized, since a turn's merge step depends
// on the complete prior parameters.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/agrosense/agrosense/pkg/advisor"
	"github.com/agrosense/agrosense/pkg/transcript"
)

// Server routes session and turn requests to the advisor.
type Server struct {
	advisor       *advisor.Advisor
	sessions      *cache.Cache
	logger        *zap.Logger
	transcriptDir string
}

// Options configures the HTTP server.
type Options struct {
	Advisor    *advisor.Advisor
	SessionTTL time.Duration
	// TranscriptDir enables on-disk turn records when non-empty.
	TranscriptDir string
	Logger        *zap.Logger
}

type session struct {
	mu       sync.Mutex
	params   advisor.Parameters
	recorder *transcript.Recorder
}

// New creates a Server with its session store.
func New(opts Options) *Server {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		advisor:       opts.Advisor,
		sessions:      cache.New(ttl, 10*time.Minute),
		logger:        logger,
		transcriptDir: opts.TranscriptDir,
	}
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/sessions", s.handleCreateSession)
	r.Post("/api/sessions/{sessionID}/turns", s.handleTurn)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := gonanoid.New()
	if err != nil {
		s.logger.Error("failed to generate session id", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	sess := &session{}
	if s.transcriptDir != "" {
		recorder, err := transcript.NewRecorder(s.transcriptDir, id)
		if err != nil {
			s.logger.Warn("transcript recorder unavailable", zap.String("session", id), zap.Error(err))
		} else {
			sess.recorder = recorder
		}
	}

	s.sessions.SetDefault(id, sess)
	s.logger.Info("session created", zap.String("session", id))
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

type turnRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	entry, ok := s.sessions.Get(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired session")
		return
	}
	sess := entry.(*session)

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	state := s.advisor.Advance(r.Context(), req.Query, sess.params)
	sess.params = state.Parameters
	s.sessions.SetDefault(sessionID, sess)

	if sess.recorder != nil {
		if err := sess.recorder.RecordTurn(transcript.FromState(state, time.Since(start))); err != nil {
			s.logger.Warn("failed to record turn", zap.String("session", sessionID), zap.Error(err))
		}
	}

	s.logger.Info("turn served",
		zap.String("session", sessionID),
		zap.Bool("needs_more_info", state.NeedsMoreInfo),
		zap.Int("candidates", len(state.CandidateResults)),
		zap.Duration("duration", time.Since(start)))

	writeJSON(w, http.StatusOK, state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
