package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/divvyhq/divvy/internal/middleware"
	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/storage"
)

// GroupService handles group CRUD and the activity feed.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// RegisterRoutes mounts the group endpoints on the authenticated mux.
func (s *GroupService) RegisterRoutes(authed *http.ServeMux) {
	authed.HandleFunc("POST /api/v1/groups", s.handleCreate)
	authed.HandleFunc("GET /api/v1/groups", s.handleList)
	authed.HandleFunc("GET /api/v1/groups/{id}", s.handleGet)
	authed.HandleFunc("POST /api/v1/groups/{id}/members", s.handleAddMembers)
	authed.HandleFunc("GET /api/v1/groups/{id}/activities", s.handleActivities)
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type groupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"created_by"`
	CreatedAt int64    `json:"created_at"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Members:   g.Members,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func (s *GroupService) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("group name is required"))
		return
	}

	// The creator is always a member.
	members := req.Members
	found := false
	for _, m := range members {
		if m == userID {
			found = true
			break
		}
	}
	if !found {
		members = append(members, userID)
	}

	group := &models.Group{
		Name:      req.Name,
		Members:   members,
		CreatedBy: userID,
	}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	recordActivity(r, s.store, models.ActivityGroupCreated, group.ID,
		fmt.Sprintf("created group %q", group.Name))

	slog.Info("Group created", "group_id", group.ID, "name", group.Name)
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (s *GroupService) handleList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := s.store.ListGroupsForUser(r.Context(), userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = toGroupResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *GroupService) handleGet(w http.ResponseWriter, r *http.Request) {
	group, ok := memberGroup(w, r, s.store)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

type addMembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

func (s *GroupService) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	group, ok := memberGroup(w, r, s.store)
	if !ok {
		return
	}

	var req addMembersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("user_ids is required"))
		return
	}

	if err := s.store.AddGroupMembers(r.Context(), group.ID, req.UserIDs); err != nil {
		slog.Error("AddGroupMembers failed", "group_id", group.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	recordActivity(r, s.store, models.ActivityMembersAdded, group.ID,
		fmt.Sprintf("added %d member(s) to %q", len(req.UserIDs), group.Name))

	updated, err := s.store.GetGroup(r.Context(), group.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(updated))
}

type activityResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	ActorID     string `json:"actor_id"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *GroupService) handleActivities(w http.ResponseWriter, r *http.Request) {
	group, ok := memberGroup(w, r, s.store)
	if !ok {
		return
	}

	activities, err := s.store.ListActivitiesByGroup(r.Context(), group.ID, 100)
	if err != nil {
		slog.Error("ListActivities failed", "group_id", group.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]activityResponse, len(activities))
	for i, a := range activities {
		out[i] = activityResponse{
			ID:          a.ID,
			Type:        string(a.Type),
			ActorID:     a.ActorID,
			Description: a.Description,
			CreatedAt:   a.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
