package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"memorymate/internal/provider"
	"memorymate/internal/session"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	State         session.State   `json:"state"`
	Metrics       MetricsSnapshot `json:"metrics"`
}

// StateResponse describes the session as seen by the UI.
type StateResponse struct {
	State     session.State      `json:"state"`
	UserID    string             `json:"user_id,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
	Turns     []provider.Message `json:"turns"`
	Memories  string             `json:"memories"`
	Summary   string             `json:"summary"`
}

type loginRequest struct {
	Username string `json:"username"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		g.mu.Lock()
		state := g.ctrl.State()
		g.mu.Unlock()

		writeJSON(w, http.StatusOK, StatusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
			State:         state,
			Metrics:       g.metrics.Snapshot(),
		})
	}
}

func (g *Gateway) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		g.mu.Lock()
		defer g.mu.Unlock()

		if err := g.ctrl.Login(r.Context(), req.Username); err != nil {
			g.metrics.RecordError()
			status := http.StatusInternalServerError
			if errors.Is(err, session.ErrEmptyUsername) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}

		g.metrics.RecordLogin()
		writeJSON(w, http.StatusOK, g.stateLocked(r))
	}
}

func (g *Gateway) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		g.ctrl.Logout()
		writeJSON(w, http.StatusOK, g.stateLocked(r))
	}
}

func (g *Gateway) handleClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		if err := g.ctrl.Clear(r.Context()); err != nil {
			g.metrics.RecordError()
			status := http.StatusInternalServerError
			if errors.Is(err, session.ErrNoSession) {
				status = http.StatusConflict
			}
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, g.stateLocked(r))
	}
}

func (g *Gateway) handleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		writeJSON(w, http.StatusOK, g.stateLocked(r))
	}
}

// stateLocked snapshots the controller. Callers hold g.mu.
func (g *Gateway) stateLocked(r *http.Request) StateResponse {
	resp := StateResponse{
		State:     g.ctrl.State(),
		UserID:    g.ctrl.UserID(),
		SessionID: g.ctrl.SessionID(),
		Turns:     g.ctrl.Turns(),
		Memories:  session.NoMemoriesPlaceholder,
		Summary:   session.NoSummaryPlaceholder,
	}
	if resp.Turns == nil {
		resp.Turns = []provider.Message{}
	}
	if resp.State == session.StateActive {
		resp.Memories = session.FormatMemories(g.ctrl.Memories(r.Context()))
		resp.Summary = session.FormatSummary(g.ctrl.Summary(r.Context()))
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
