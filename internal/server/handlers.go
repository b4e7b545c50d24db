// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"rideviz/internal/chat"
	apperrors "rideviz/internal/common/errors"
	"rideviz/internal/common/logger"
	"rideviz/internal/models"
	"rideviz/internal/viz"
)

// errorBubble is the fixed user-visible message for any chat backend
// failure. It lands in the transcript; visualization state is untouched.
const errorBubble = "Sorry, there was an error processing your request. Please try again."

const historyWindow = 20

// SessionHeader carries the session id; the server mints a UUID when absent.
const SessionHeader = "X-Session-ID"

// Asker is the chat backend collaborator.
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Analyzer is the response-classification pipeline. It never fails.
type Analyzer interface {
	Analyze(ctx context.Context, message string) *models.AnalysisResult
}

// Handlers is one shell's API surface: the dashboard and the widget each get
// an instance with their own panel policy and session namespace, sharing the
// pipeline underneath.
type Handlers struct {
	shell    string
	policy   viz.Policy
	asker    Asker
	analyzer Analyzer
	store    Store
	locks    *sessionLocks
	logger   logger.Logger
}

func NewHandlers(shell string, policy viz.Policy, asker Asker, analyzer Analyzer, store Store, log logger.Logger) *Handlers {
	return &Handlers{
		shell:    shell,
		policy:   policy,
		asker:    asker,
		analyzer: analyzer,
		store:    store,
		locks:    newSessionLocks(),
		logger: log.With(map[string]interface{}{
			"shell": shell,
		}),
	}
}

// Register mounts the shell's routes under prefix.
func (h *Handlers) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/chat", h.handleChat)
	mux.HandleFunc("GET "+prefix+"/state", h.handleState)
	mux.HandleFunc("POST "+prefix+"/selection", h.handleSelection)
	mux.HandleFunc("POST "+prefix+"/panels/map", h.panelHandler(panelMap))
	mux.HandleFunc("POST "+prefix+"/panels/chart", h.panelHandler(panelChart))
	mux.HandleFunc("GET "+prefix+"/chat/history", h.handleHistory)
	mux.HandleFunc("POST "+prefix+"/chat/clear", h.handleClear)
}

type chatAPIRequest struct {
	Message string `json:"message"`
}

type chatAPIResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	Analysis *models.AnalysisResult `json:"analysis,omitempty"`
	State    *viz.ViewState         `json:"state,omitempty"`
}

func (h *Handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidRequest, "message is required"))
		return
	}

	sessionID := h.sessionID(w, r)
	unlock := h.locks.lock(sessionID)
	defer unlock()

	state, err := h.loadState(r.Context(), sessionID)
	if err != nil {
		h.logger.WithError(err).Error("session load failed", nil)
		writeError(w, apperrors.Wrap(apperrors.ErrCodeSessionStoreFailed, "session store unavailable", err))
		return
	}

	state.Transcript = append(state.Transcript, models.ChatMessage{
		Role:      models.RoleUser,
		Text:      req.Message,
		Timestamp: time.Now().UTC(),
	})

	botText, err := h.asker.Ask(r.Context(), req.Message)
	if err != nil {
		h.logger.WithError(err).Warn("chat backend failure", nil)
		state.Transcript = append(state.Transcript, models.ChatMessage{
			Role:      models.RoleAssistant,
			Text:      errorBubble,
			Timestamp: time.Now().UTC(),
		})
		h.saveState(r.Context(), sessionID, state)
		writeJSON(w, http.StatusOK, chatAPIResponse{
			Success: false,
			Message: errorBubble,
		})
		return
	}

	formatted := chat.FormatBotResponse(botText)
	state.Transcript = append(state.Transcript, models.ChatMessage{
		Role:      models.RoleAssistant,
		Text:      formatted,
		Timestamp: time.Now().UTC(),
	})

	// The raw bot answer, not the display-formatted one, feeds analysis.
	analysis := h.analyzer.Analyze(r.Context(), botText)
	state.View = viz.Apply(state.View, analysis, h.policy)

	if err := h.store.Put(r.Context(), h.key(sessionID), state); err != nil {
		h.logger.WithError(err).Error("session save failed", nil)
		writeError(w, apperrors.Wrap(apperrors.ErrCodeSessionStoreFailed, "session store unavailable", err))
		return
	}

	writeJSON(w, http.StatusOK, chatAPIResponse{
		Success:  true,
		Message:  formatted,
		Analysis: analysis,
		State:    &state.View,
	})
}

func (h *Handlers) handleState(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	state, err := h.loadState(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeSessionStoreFailed, "session store unavailable", err))
		return
	}
	writeJSON(w, http.StatusOK, state.View)
}

type selectionRequest struct {
	Index int `json:"index"`
}

func (h *Handlers) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidRequest, "index is required"))
		return
	}

	h.mutateState(w, r, func(state *SessionState) {
		state.View = viz.Select(state.View, req.Index)
	})
}

type panelKind int

const (
	panelMap panelKind = iota
	panelChart
)

type panelRequest struct {
	Open bool `json:"open"`
}

func (h *Handlers) panelHandler(kind panelKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req panelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperrors.New(apperrors.ErrCodeInvalidRequest, "open flag is required"))
			return
		}

		h.mutateState(w, r, func(state *SessionState) {
			if kind == panelMap {
				state.View = viz.SetMapOpen(state.View, req.Open)
			} else {
				state.View = viz.SetChartOpen(state.View, req.Open)
			}
		})
	}
}

type historyResponse struct {
	Messages      []models.ChatMessage `json:"messages"`
	TotalMessages int                  `json:"total_messages"`
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	state, err := h.loadState(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeSessionStoreFailed, "session store unavailable", err))
		return
	}

	messages := state.Transcript
	if len(messages) > historyWindow {
		messages = messages[len(messages)-historyWindow:]
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Messages:      messages,
		TotalMessages: len(state.Transcript),
	})
}

func (h *Handlers) handleClear(w http.ResponseWriter, r *http.Request) {
	h.mutateState(w, r, func(state *SessionState) {
		state.Transcript = []models.ChatMessage{}
	})
}

// mutateState runs fn against the session under its lock and persists.
func (h *Handlers) mutateState(w http.ResponseWriter, r *http.Request, fn func(*SessionState)) {
	sessionID := h.sessionID(w, r)
	unlock := h.locks.lock(sessionID)
	defer unlock()

	state, err := h.loadState(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeSessionStoreFailed, "session store unavailable", err))
		return
	}

	fn(state)

	if err := h.store.Put(r.Context(), h.key(sessionID), state); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeSessionStoreFailed, "session store unavailable", err))
		return
	}
	writeJSON(w, http.StatusOK, state.View)
}

func (h *Handlers) loadState(ctx context.Context, sessionID string) (*SessionState, error) {
	state, err := h.store.Get(ctx, h.key(sessionID))
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = NewSessionState()
	}
	return state, nil
}

func (h *Handlers) saveState(ctx context.Context, sessionID string, state *SessionState) {
	if err := h.store.Put(ctx, h.key(sessionID), state); err != nil {
		h.logger.WithError(err).Error("session save failed", nil)
	}
}

func (h *Handlers) key(sessionID string) string {
	return fmt.Sprintf("rideviz:session:%s:%s", h.shell, sessionID)
}

// sessionID reads the caller's session id, minting one when absent. The id
// is echoed back so the shell can store it.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(SessionHeader, id)
	return id
}

// ==========================
// Session locks
// ==========================

// sessionLocks serializes state mutation per session, standing in for the
// original UI's single-threaded event loop.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *sessionLocks) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ==========================
// Response helpers
// ==========================

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error *apperrors.StandardError `json:"error"`
}

func writeError(w http.ResponseWriter, serr *apperrors.StandardError) {
	writeJSON(w, apperrors.HTTPStatus(serr.Code), errorResponse{Error: serr})
}
