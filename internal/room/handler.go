package room

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ironvault/api/internal/user"
	"github.com/ironvault/api/pkg/inflight"
	"github.com/ironvault/api/pkg/middleware"
	"github.com/ironvault/api/pkg/response"
)

// Handler handles HTTP requests for room operations
type Handler struct {
	service *Service
	files   chi.Router
}

// NewHandler creates a new room handler. The files router is mounted under
// /{id}/files so file endpoints resolve the room from the same URL tree.
func NewHandler(service *Service, files chi.Router) *Handler {
	return &Handler{service: service, files: files}
}

// ActorFromContext builds the acting-user descriptor from the request
// context. A missing identity yields nil, which every permission check
// treats as deny-everything.
func ActorFromContext(ctx context.Context) *Actor {
	id, ok := middleware.GetUserID(ctx)
	if !ok {
		return nil
	}
	roleStr, _ := middleware.GetUserRole(ctx)
	return &Actor{ID: id, Role: user.ParseGlobalRole(roleStr)}
}

// Routes returns the router for room endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/join", h.Join)
	r.Get("/{id}", h.GetDetails)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Member management
	r.Put("/{id}/members/{userId}", h.UpdateMemberRole)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	// Invite codes
	r.Post("/{id}/invite-codes", h.CreateInviteCode)
	r.Get("/{id}/invite-codes", h.ListInviteCodes)
	r.Delete("/{id}/invite-codes/{codeId}", h.RevokeInviteCode)

	// Email invitations
	r.Post("/{id}/invitations", h.Invite)

	if h.files != nil {
		r.Mount("/{id}/files", h.files)
	}

	return r
}

// InvitationRoutes returns the router for the acting user's invitations
func (h *Handler) InvitationRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListMyInvitations)
	r.Post("/{id}/accept", h.AcceptInvitation)
	r.Post("/{id}/reject", h.RejectInvitation)

	return r
}

// writeServiceError maps a service error onto the API error taxonomy:
// authorization denials become 403, lifecycle precondition violations 4xx
// with a displayable message, anything else a 500.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrInviteCodeNotFound),
		errors.Is(err, ErrInvitationNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, ErrNotRoomMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, inflight.ErrInProgress):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrCreatorCannotLeave),
		errors.Is(err, ErrCannotRemoveCreator),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInviteCodeInvalid),
		errors.Is(err, ErrInviteCodeExhausted),
		errors.Is(err, ErrInviteCodeExpired),
		errors.Is(err, ErrOnlyUsersCanJoin),
		errors.Is(err, ErrInvitationNotPending),
		errors.Is(err, ErrInvitationExpired):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func roomIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// Create handles POST /rooms
// @Summary      Create a new room
// @Description  Create a room and add the creator as its creator member
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body CreateRoomRequest true "Room creation request"
// @Success      201 {object} response.APIResponse{data=RoomResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /rooms [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "name is required")
		return
	}

	rm, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to create room")
		return
	}

	response.JSON(w, http.StatusCreated, rm.ToResponse())
}

// List handles GET /rooms
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if actor == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	rooms, total, err := h.service.ListByUser(r.Context(), actor.ID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list rooms")
		return
	}

	roomResponses := make([]*RoomResponse, len(rooms))
	for i, rm := range rooms {
		roomResponses[i] = rm.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, roomResponses, meta)
}

// GetDetails handles GET /rooms/{id}
// @Summary      Get room details
// @Description  Get a room snapshot with members, invite codes (managers only) and the caller's capability flags
// @Tags         rooms
// @Produce      json
// @Param        id path int true "Room ID"
// @Success      200 {object} response.APIResponse{data=RoomDetailsResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /rooms/{id} [get]
func (h *Handler) GetDetails(w http.ResponseWriter, r *http.Request) {
	id, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	actor := ActorFromContext(r.Context())
	details, err := h.service.GetDetails(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err, "Failed to get room")
		return
	}

	resp := &RoomDetailsResponse{
		Room:        details.Room.ToResponse(),
		Members:     make([]*MemberResponse, len(details.Members)),
		Permissions: details.Permissions,
	}
	for i, m := range details.Members {
		resp.Members[i] = m.ToResponse()
	}
	now := time.Now()
	for _, c := range details.InviteCodes {
		resp.InviteCodes = append(resp.InviteCodes, c.ToResponse(now))
	}

	response.JSON(w, http.StatusOK, resp)
}

// Update handles PUT /rooms/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	rm, err := h.service.Update(r.Context(), ActorFromContext(r.Context()), id, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to update room")
		return
	}

	response.JSON(w, http.StatusOK, rm.ToResponse())
}

// Delete handles DELETE /rooms/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	if err := h.service.Delete(r.Context(), ActorFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err, "Failed to delete room")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Room deleted successfully"})
}

// Join handles POST /rooms/join
// @Summary      Join a room with an invite code
// @Description  Join the room an invite code belongs to. Codes are case-insensitive. Only regular users can join via invite.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body JoinRequest true "Invite code"
// @Success      201 {object} response.APIResponse{data=MemberResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /rooms/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	member, err := h.service.Join(r.Context(), ActorFromContext(r.Context()), req.Code)
	if err != nil {
		writeServiceError(w, err, "Failed to join room")
		return
	}

	response.JSON(w, http.StatusCreated, member.ToResponse())
}

// RemoveMember handles DELETE /rooms/{id}/members/{userId}. Removing your
// own row is leaving the room.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}
	targetID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	left, err := h.service.RemoveMember(r.Context(), ActorFromContext(r.Context()), roomID, targetID)
	if err != nil {
		writeServiceError(w, err, "Failed to remove member")
		return
	}

	msg := "Member removed successfully"
	if left {
		msg = "Left the room"
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// UpdateMemberRole handles PUT /rooms/{id}/members/{userId}
func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	// The path parameter wins; the body user_id is kept for older clients
	// that sent it (sometimes as a string, hence FlexID).
	targetID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		targetID = req.UserID.Int64()
	}
	if targetID == 0 {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	member, err := h.service.UpdateMemberRole(r.Context(), ActorFromContext(r.Context()), roomID, targetID, req.Role)
	if err != nil {
		writeServiceError(w, err, "Failed to update member")
		return
	}

	response.JSON(w, http.StatusOK, member.ToResponse())
}

// CreateInviteCode handles POST /rooms/{id}/invite-codes
// @Summary      Create an invite code
// @Description  Create an invite code for a room. max_uses 0 means unlimited, expires_hours 0 means never.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        id path int true "Room ID"
// @Param        request body CreateInviteCodeRequest true "Invite code bounds"
// @Success      201 {object} response.APIResponse{data=InviteCodeResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /rooms/{id}/invite-codes [post]
func (h *Handler) CreateInviteCode(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req CreateInviteCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.MaxUses < 0 || req.ExpiresHours < 0 {
		response.BadRequest(w, "max_uses and expires_hours must not be negative")
		return
	}

	code, err := h.service.CreateInviteCode(r.Context(), ActorFromContext(r.Context()), roomID, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to create invite code")
		return
	}

	response.JSON(w, http.StatusCreated, code.ToResponse(time.Now()))
}

// ListInviteCodes handles GET /rooms/{id}/invite-codes
func (h *Handler) ListInviteCodes(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	codes, err := h.service.ListInviteCodes(r.Context(), ActorFromContext(r.Context()), roomID)
	if err != nil {
		writeServiceError(w, err, "Failed to list invite codes")
		return
	}

	now := time.Now()
	codeResponses := make([]*InviteCodeResponse, len(codes))
	for i, c := range codes {
		codeResponses[i] = c.ToResponse(now)
	}

	response.JSON(w, http.StatusOK, codeResponses)
}

// RevokeInviteCode handles DELETE /rooms/{id}/invite-codes/{codeId}
func (h *Handler) RevokeInviteCode(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}
	codeID, err := strconv.ParseInt(chi.URLParam(r, "codeId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid code ID")
		return
	}

	if err := h.service.RevokeInviteCode(r.Context(), ActorFromContext(r.Context()), roomID, codeID); err != nil {
		writeServiceError(w, err, "Failed to revoke invite code")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Invite code revoked"})
}

// Invite handles POST /rooms/{id}/invitations
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDParam(r)
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.InviteeEmail == "" {
		response.BadRequest(w, "invitee_email is required")
		return
	}

	inv, err := h.service.Invite(r.Context(), ActorFromContext(r.Context()), roomID, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to send invitation")
		return
	}

	response.JSON(w, http.StatusCreated, inv.ToResponse())
}

// ListMyInvitations handles GET /invitations
func (h *Handler) ListMyInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.service.ListMyInvitations(r.Context(), ActorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "Failed to list invitations")
		return
	}

	invResponses := make([]*InvitationResponse, len(invitations))
	for i, inv := range invitations {
		invResponses[i] = inv.ToResponse()
	}

	response.JSON(w, http.StatusOK, invResponses)
}

// AcceptInvitation handles POST /invitations/{id}/accept
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid invitation ID")
		return
	}

	member, err := h.service.AcceptInvitation(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, err, "Failed to accept invitation")
		return
	}

	response.JSON(w, http.StatusCreated, member.ToResponse())
}

// RejectInvitation handles POST /invitations/{id}/reject
func (h *Handler) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid invitation ID")
		return
	}

	if err := h.service.RejectInvitation(r.Context(), ActorFromContext(r.Context()), id); err != nil {
		writeServiceError(w, err, "Failed to reject invitation")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Invitation rejected"})
}
