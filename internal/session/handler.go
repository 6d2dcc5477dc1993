package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ward-assistant/internal/gateway"
)

// Handler exposes the session surface over HTTP for the UI layer.
type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

type openSessionRequest struct {
	OperatorID string `json:"operator_id"`
	Name       string `json:"name"`
	Contact    string `json:"contact"`
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OperatorID == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	s := h.mgr.Open(r.Context(), req.OperatorID, req.Name, req.Contact)
	writeJSON(w, map[string]string{"session_id": s.ID.String()})
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if !h.mgr.Close(id) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	reply, err := s.SendMessage(r.Context(), req.Text)
	if err != nil {
		var rl *gateway.RateLimitedError
		if errors.As(err, &rl) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "rate_limited",
				"wait_ms": rl.Wait.Milliseconds(),
			})
			return
		}
		http.Error(w, "Message failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, reply)
}

type focusRequest struct {
	PatientID string `json:"patient_id"`
}

func (h *Handler) SetFocus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req focusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	s.SetFocusedPatient(r.Context(), req.PatientID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.RefreshInsights(r.Context()))
}

type suggestionFeedback struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func (h *Handler) SuggestionFeedback(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req suggestionFeedback
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Accepted {
		s.AcceptSuggestion(r.Context())
	} else {
		s.DismissSuggestion(r.Context(), req.Reason)
	}
	w.WriteHeader(http.StatusNoContent)
}

type paletteRequest struct {
	Query string `json:"query"`
}

func (h *Handler) Palette(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req paletteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.PaletteQuery(r.Context(), req.Query))
}

// Command parses and executes free text. When nothing matches it falls
// back to the chat path, so the UI has a single submit endpoint.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if res, matched := s.ExecuteCommand(r.Context(), req.Text); matched {
		writeJSON(w, map[string]interface{}{"kind": "action", "result": res})
		return
	}

	reply, err := s.SendMessage(r.Context(), req.Text)
	if err != nil {
		var rl *gateway.RateLimitedError
		if errors.As(err, &rl) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "rate_limited", "wait_ms": rl.Wait.Milliseconds()})
			return
		}
		http.Error(w, "Message failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"kind": "chat", "reply": reply})
}

func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	s.IngestTranscript(req.Text)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]interface{}{
		"in_flight":  s.InFlight(),
		"rate_limit": s.RateLimit(),
		"usage":      s.Usage(),
		"last_route": s.LastRoute(),
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return nil, false
	}
	s, found := h.mgr.Get(id)
	if !found {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// RegisterRoutes mounts the session surface on a chi router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/sessions", h.OpenSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Delete("/", h.CloseSession)
		r.Post("/messages", h.SendMessage)
		r.Put("/focus", h.SetFocus)
		r.Get("/insights", h.Insights)
		r.Post("/insights/feedback", h.SuggestionFeedback)
		r.Post("/palette", h.Palette)
		r.Post("/commands", h.Command)
		r.Post("/transcript", h.Transcript)
		r.Get("/status", h.Status)
	})
}
