package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/http/response"
	"github.com/padlockapp/padlock-server/internal/service"
)

// tagAddedResponse is the body returned after tagging a credential.
type tagAddedResponse struct {
	Message string      `json:"message"`
	Tag     *domain.Tag `json:"tag"`
}

// handleAddTag attaches a tag to one of the caller's credentials, creating
// the tag if this user has never used the name before.
func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())
	id := chi.URLParam(r, "id")

	var req service.TagRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	tag, err := s.tagService.AddTag(r.Context(), user.ID, id, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tagAddedResponse{
		Message: "Tag added successfully",
		Tag:     tag,
	}, s.logger)
}

// handleRemoveTag detaches a tag from one of the caller's credentials.
// The tag itself survives for reuse.
func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())
	id := chi.URLParam(r, "id")
	tagID := chi.URLParam(r, "tagId")

	if err := s.tagService.RemoveTag(r.Context(), user.ID, id, tagID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, "Tag removed successfully", s.logger)
}

// handleListTags returns the caller's tags, for the tag picker.
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	user := getUser(r.Context())

	tags, err := s.tagService.ListTags(r.Context(), user.ID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, tags, s.logger)
}
