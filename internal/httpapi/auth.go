package httpapi

import (
	"errors"
	"log"
	"net/http"

	"ashhabsport/backend/internal/domain"
	"ashhabsport/backend/internal/service"
)

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	allowed, err := a.loginLimiter.Allow(r.Context(), clientKey(r))
	if err != nil {
		// A broken limiter backend must not lock everyone out.
		log.Printf("[httpapi] WARN: login limiter unavailable: %v", err)
		allowed = true
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess, err := a.svc.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrNotLoggedIn) {
			writeError(w, http.StatusUnauthorized, errors.New("invalid credentials"))
			return
		}
		writeServiceError(w, err)
		return
	}

	if err := a.sessions.Issue(w, *sess); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    sess.User(),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	a.sessions.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	sess, err := a.sessions.FromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"logged_in": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logged_in": true,
		"user":      sess.User(),
	})
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess, err := a.svc.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := a.sessions.Issue(w, *sess); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    sess.User(),
	})
}
