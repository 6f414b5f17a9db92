package room

import "time"

// CreateRoomRequest represents the request to create a new room
type CreateRoomRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	IsPrivate   bool    `json:"is_private"`
	MaxMembers  int     `json:"max_members" validate:"required,min=1,max=500"`
}

// UpdateRoomRequest represents the request to update room settings
type UpdateRoomRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
	MaxMembers  *int    `json:"max_members,omitempty" validate:"omitempty,min=1,max=500"`
}

// JoinRequest represents the request to join a room through an invite code
type JoinRequest struct {
	Code string `json:"code" validate:"required"`
}

// CreateInviteCodeRequest represents the request to create an invite code.
// Zero means unbounded: max_uses 0 is unlimited, expires_hours 0 never expires.
type CreateInviteCodeRequest struct {
	MaxUses      int `json:"max_uses"`
	ExpiresHours int `json:"expires_hours"`
}

// UpdateMemberRequest represents the request to change a member's room role
type UpdateMemberRequest struct {
	UserID FlexID `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// CreateInvitationRequest represents the request to invite a user by email
type CreateInvitationRequest struct {
	InviteeEmail string  `json:"invitee_email" validate:"required,email"`
	Message      *string `json:"message,omitempty"`
}

// RoomResponse represents the response for a room
type RoomResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	CreatorID       int64   `json:"creator_id"`
	CreatorUsername string  `json:"creator_username,omitempty"`
	IsPrivate       bool    `json:"is_private"`
	MaxMembers      int     `json:"max_members"`
	CurrentMembers  int     `json:"current_members"`
	CreatedAt       string  `json:"created_at"`
}

// MemberResponse represents a member in a room response
type MemberResponse struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

// InviteCodeResponse represents an invite code in listings
type InviteCodeResponse struct {
	ID          int64  `json:"id"`
	RoomID      int64  `json:"room_id"`
	Code        string `json:"code"`
	MaxUses     *int   `json:"max_uses,omitempty"`
	CurrentUses int    `json:"current_uses"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	IsActive    bool   `json:"is_active"`
	Usable      bool   `json:"usable"`
	CreatedAt   string `json:"created_at"`
}

// InvitationResponse represents an email invitation
type InvitationResponse struct {
	ID              int64   `json:"id"`
	RoomID          int64   `json:"room_id"`
	RoomName        string  `json:"room_name,omitempty"`
	InviterID       int64   `json:"inviter_id"`
	InviterUsername string  `json:"inviter_username,omitempty"`
	InviteeEmail    string  `json:"invitee_email"`
	Message         *string `json:"message,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	ExpiresAt       string  `json:"expires_at"`
}

// RoomDetailsResponse bundles one room snapshot with everything the caller
// needs to re-derive its capabilities after a reload
type RoomDetailsResponse struct {
	Room        *RoomResponse         `json:"room"`
	Members     []*MemberResponse     `json:"members"`
	InviteCodes []*InviteCodeResponse `json:"invite_codes,omitempty"`
	Permissions Permissions           `json:"permissions"`
}

const timeFormat = "2006-01-02T15:04:05Z"

// ToResponse converts a Room model to a RoomResponse DTO
func (r *Room) ToResponse() *RoomResponse {
	return &RoomResponse{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		CreatorID:       r.CreatorID,
		CreatorUsername: r.CreatorUsername,
		IsPrivate:       r.IsPrivate,
		MaxMembers:      r.MaxMembers,
		CurrentMembers:  r.CurrentMembers,
		CreatedAt:       r.CreatedAt.Format(timeFormat),
	}
}

// ToResponse converts a RoomMember model to a MemberResponse DTO
func (m *RoomMember) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Username: m.Username,
		FullName: m.FullName,
		Email:    m.Email,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt.Format(timeFormat),
	}
}

// ToResponse converts an InviteCode model to an InviteCodeResponse DTO.
// Usable is derived at render time, never cached.
func (c *InviteCode) ToResponse(now time.Time) *InviteCodeResponse {
	resp := &InviteCodeResponse{
		ID:          c.ID,
		RoomID:      c.RoomID,
		Code:        c.Code,
		MaxUses:     c.MaxUses,
		CurrentUses: c.CurrentUses,
		IsActive:    c.IsActive,
		Usable:      c.Usable(now),
		CreatedAt:   c.CreatedAt.Format(timeFormat),
	}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.Format(timeFormat)
	}
	return resp
}

// ToResponse converts an Invitation model to an InvitationResponse DTO
func (i *Invitation) ToResponse() *InvitationResponse {
	return &InvitationResponse{
		ID:              i.ID,
		RoomID:          i.RoomID,
		RoomName:        i.RoomName,
		InviterID:       i.InviterID,
		InviterUsername: i.InviterUsername,
		InviteeEmail:    i.InviteeEmail,
		Message:         i.Message,
		Status:          string(i.Status),
		CreatedAt:       i.CreatedAt.Format(timeFormat),
		ExpiresAt:       i.ExpiresAt.Format(timeFormat),
	}
}
