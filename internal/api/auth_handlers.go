package api

import (
	"net/http"

	"github.com/padlockapp/padlock-server/internal/http/response"
	"github.com/padlockapp/padlock-server/internal/service"
)

// handleRegister creates a new user account.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.authService.Register(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, resp, s.logger)
}

// handleLogin authenticates a user and installs the session cookie. The
// token is also returned in the body for non-browser clients.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.authService.Login(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.setSessionCookie(w, resp.Token, resp.ExpiresAt)
	response.Success(w, resp, s.logger)
}

// handleLogout revokes the current session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())

	if err := s.authService.Logout(r.Context(), sessionID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.clearSessionCookie(w)
	response.Message(w, "Logged out successfully", s.logger)
}

// handleGetCurrentUser returns the authenticated user's profile.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())
	if user == nil {
		response.Unauthorized(w, "Unauthorized", s.logger)
		return
	}

	response.Success(w, user, s.logger)
}
