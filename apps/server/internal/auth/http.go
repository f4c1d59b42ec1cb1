package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// HTTPHandler serves the account endpoints under /api/auth.
type HTTPHandler struct {
	accounts Service
	names    *Names
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse answers register, login and me. The token is only set
// when a new session was issued.
type sessionResponse struct {
	UserID       uint64 `json:"userId"`
	Username     string `json:"username"`
	SessionToken string `json:"sessionToken,omitempty"`
}

type availabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPHandler wires the account endpoints. names may be nil, in which
// case availability only checks registered accounts.
func NewHTTPHandler(accounts Service, names *Names) *HTTPHandler {
	return &HTTPHandler{accounts: accounts, names: names}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", only(http.MethodPost, h.handleRegister))
	mux.HandleFunc("/api/auth/login", only(http.MethodPost, h.handleLogin))
	mux.HandleFunc("/api/auth/logout", only(http.MethodPost, h.handleLogout))
	mux.HandleFunc("/api/auth/me", only(http.MethodGet, h.handleMe))
	mux.HandleFunc("/api/auth/available", only(http.MethodGet, h.handleAvailable))
}

func only(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(w, r)
	}
}

func (h *HTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := readCredentials(w, r)
	if !ok {
		return
	}
	// a guest playing under this name right now keeps it
	if h.names != nil && h.names.InUse(req.Username) {
		writeError(w, http.StatusConflict, ErrUsernameInUse.Error())
		return
	}
	userID, token, err := h.accounts.Register(req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, sessionResponse{UserID: userID, Username: strings.TrimSpace(req.Username), SessionToken: token})
	case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "register failed")
	}
}

func (h *HTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := readCredentials(w, r)
	if !ok {
		return
	}
	userID, token, err := h.accounts.Login(req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionResponse{UserID: userID, Username: strings.TrimSpace(req.Username), SessionToken: token})
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid username or password")
	default:
		writeError(w, http.StatusInternalServerError, "login failed")
	}
}

func (h *HTTPHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	h.accounts.Logout(token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := h.accounts.ResolveSession(BearerToken(r.Header.Get("Authorization")))
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{UserID: userID, Username: username})
}

// handleAvailable tells a client whether a guest may take a display name.
func (h *HTTPHandler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("username"))
	resp := availabilityResponse{Username: name, Available: true}
	switch {
	case ValidateUsername(name) != nil:
		resp.Available, resp.Reason = false, ErrInvalidUsername.Error()
	case h.accounts.IsRegistered(name):
		resp.Available, resp.Reason = false, ErrUsernameTaken.Error()
	case h.names != nil && h.names.InUse(name):
		resp.Available, resp.Reason = false, ErrUsernameInUse.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

// BearerToken extracts the session token from an Authorization header.
func BearerToken(raw string) string {
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
