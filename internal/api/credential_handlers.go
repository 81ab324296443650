package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/http/response"
	"github.com/padlockapp/padlock-server/internal/service"
)

// credentialCreatedResponse is the body returned after creating a credential.
type credentialCreatedResponse struct {
	Message  string             `json:"message"`
	Password *domain.Credential `json:"password"`
}

// handleCreateCredential stores a new credential for the current user.
func (s *Server) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())

	var req service.CreateCredentialRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	credential, err := s.credentialService.Create(r.Context(), user.ID, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, credentialCreatedResponse{
		Message:  "Password added successfully",
		Password: credential,
	}, s.logger)
}

// handleListCredentials returns the combined owned/shared list for the
// current user. Secrets are never included here.
func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())

	entries, err := s.credentialService.List(r.Context(), user.ID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, entries, s.logger)
}

// handleGetCredential returns one credential with its decrypted secret.
// Readable by the owner or a share recipient.
func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())
	id := chi.URLParam(r, "id")

	secret, err := s.credentialService.GetSecret(r.Context(), user.ID, id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, secret, s.logger)
}

// handleUpdateCredential replaces a credential's fields. Owner only.
func (s *Server) handleUpdateCredential(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())
	id := chi.URLParam(r, "id")

	var req service.UpdateCredentialRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	credential, err := s.credentialService.Update(r.Context(), user.ID, id, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// The secret just came in on the request; return it decrypted rather
	// than making the client re-fetch.
	response.Success(w, &service.SecretResponse{
		ID:        credential.ID,
		Title:     credential.Title,
		Username:  credential.Username,
		URL:       credential.URL,
		Notes:     credential.Notes,
		Password:  req.Password,
		Decrypted: true,
	}, s.logger)
}

// handleDeleteCredential removes a credential and everything hanging off
// it. Owner only.
func (s *Server) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.credentialService.Delete(r.Context(), user.ID, id); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, "Password deleted successfully", s.logger)
}
