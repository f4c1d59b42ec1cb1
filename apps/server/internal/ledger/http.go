package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"holdem-live/apps/server/internal/auth"
)

// HTTPHandler serves hand history under /api/hands.
type HTTPHandler struct {
	auth   auth.Service
	ledger Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(authService auth.Service, ledgerService Service) *HTTPHandler {
	return &HTTPHandler{
		auth:   authService,
		ledger: ledgerService,
	}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/hands", h.handleRecent)
	mux.HandleFunc("/api/hands/", h.handleHand)
}

// handleRecent lists a player's hands. Signed-in callers get their own
// history; otherwise ?username= names the player.
func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	username := h.resolveUsername(r)
	if username == "" {
		writeError(w, http.StatusBadRequest, "missing username")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.ledger.ListRecent(ctx, username, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query recent hands failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"items":    items,
	})
}

func (h *HTTPHandler) handleHand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	handID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/hands/"))
	if handID == "" || strings.Contains(handID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	rec, err := h.ledger.GetHand(ctx, handID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "hand not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "query hand failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *HTTPHandler) resolveUsername(r *http.Request) string {
	if token := auth.BearerToken(r.Header.Get("Authorization")); token != "" && h.auth != nil {
		if _, username, ok := h.auth.ResolveSession(token); ok {
			return username
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("username"))
}

func parseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return clampLimit(n)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
