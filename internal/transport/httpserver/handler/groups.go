package handler

import (
	"net/http"
	"strings"

	"sharespend/internal/domain/groups"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

type joinGroupRequest struct {
	AccessSecret string `json:"access_secret"`
}

type joinGroupResponse struct {
	Group   groupResponse   `json:"group"`
	Session sessionResponse `json:"session"`
}

func (h *Handlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	c, ok := h.coordinator(w, r, "groups.list")
	if !ok {
		return
	}
	snap := c.Snapshot()
	writeJSON(w, http.StatusOK, groupsResponse{
		Items:     toGroupsResponse(snap.Groups),
		MaxGroups: snap.MaxGroups,
	})
}

func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	c, ok := h.coordinator(w, r, "groups.create")
	if !ok {
		return
	}

	if _, err := c.CreateNewGroup(r.Context(), req.Name, req.MemberCount); err != nil {
		h.writeSessionError(w, "groups.create", err, "user_id", c.UserID())
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(c.Snapshot()))
}

func (h *Handlers) JoinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	secret := strings.TrimSpace(req.AccessSecret)
	if secret == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "access_secret is required")
		return
	}
	if len([]rune(secret)) > groups.AccessSecretLimit {
		writeError(w, http.StatusBadRequest, "invalid_request", "access_secret is too long")
		return
	}

	c, ok := h.coordinator(w, r, "groups.join")
	if !ok {
		return
	}

	joined, err := c.JoinGroup(r.Context(), secret)
	if err != nil {
		h.writeSessionError(w, "groups.join", err, "user_id", c.UserID())
		return
	}

	writeJSON(w, http.StatusOK, joinGroupResponse{
		Group:   toGroupResponse(*joined),
		Session: toSessionResponse(c.Snapshot()),
	})
}

func (h *Handlers) SelectGroup(w http.ResponseWriter, r *http.Request) {
	groupID := groupIDParam(r)
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "group id is required")
		return
	}

	c, ok := h.coordinator(w, r, "groups.select")
	if !ok {
		return
	}

	if err := c.SelectGroup(r.Context(), groupID); err != nil {
		h.writeSessionError(w, "groups.select", err, "user_id", c.UserID(), "group_id", groupID)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}

func (h *Handlers) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	groupID := groupIDParam(r)
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "group id is required")
		return
	}

	c, ok := h.coordinator(w, r, "groups.leave")
	if !ok {
		return
	}

	if err := c.LeaveGroup(r.Context(), groupID); err != nil {
		h.writeSessionError(w, "groups.leave", err, "user_id", c.UserID(), "group_id", groupID)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(c.Snapshot()))
}
