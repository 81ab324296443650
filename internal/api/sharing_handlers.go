package api

import (
	"net/http"

	"github.com/padlockapp/padlock-server/internal/http/response"
	"github.com/padlockapp/padlock-server/internal/service"
)

// handleShare grants another user read access to one of the caller's
// credentials.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())

	var req service.ShareRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.sharingService.Share(r.Context(), user.ID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}

// handleRevokeShare removes a recipient's grant on one of the caller's
// credentials.
func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())

	var req service.RevokeRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.sharingService.Revoke(r.Context(), user.ID, req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, "Access revoked successfully", s.logger)
}
