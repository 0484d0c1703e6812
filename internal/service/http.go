// Package service exposes Divvy's domain operations over JSON HTTP.
// Each service registers its routes on the shared mux; handlers decode a
// typed request, call into the split engine, ledger, and store, and encode
// a typed response.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/divvyhq/divvy/internal/ledger"
	"github.com/divvyhq/divvy/internal/middleware"
	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/split"
	"github.com/divvyhq/divvy/internal/storage"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeDomainError maps domain sentinels to HTTP statuses. Split and
// settlement validation failures are the caller's fault; a ledger
// invariant violation is ours.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, split.ErrInvalidSplit), errors.Is(err, ledger.ErrInvalidSettlement):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ledger.ErrLedgerInvariant):
		writeError(w, http.StatusInternalServerError, err)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// memberGroup loads the {id} group and verifies the requester belongs to
// it, writing the error response itself when not.
func memberGroup(w http.ResponseWriter, r *http.Request, store storage.Store) (*models.Group, bool) {
	userID := middleware.GetUserID(r.Context())

	group, err := store.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	if !group.HasMember(userID) {
		writeError(w, http.StatusForbidden, errors.New("you must be a member of this group"))
		return nil, false
	}
	return group, true
}

// recordActivity appends a feed entry for the requesting user. Feed writes
// are best-effort: a failure is logged, never surfaced to the caller.
func recordActivity(r *http.Request, store storage.Store, typ models.ActivityType, groupID, description string) {
	activity := &models.Activity{
		Type:        typ,
		ActorID:     middleware.GetUserID(r.Context()),
		GroupID:     groupID,
		Description: description,
	}
	if err := store.CreateActivity(r.Context(), activity); err != nil {
		slog.Warn("Failed to record activity", "type", typ, "group_id", groupID, "error", err)
	}
}
