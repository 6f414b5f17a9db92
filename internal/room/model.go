package room

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// RoomRole is a member's privilege level within one room, ordered
// member < admin < creator. It is distinct from a user's global role.
type RoomRole string

const (
	RoleMember  RoomRole = "member"
	RoleAdmin   RoomRole = "admin"
	RoleCreator RoomRole = "creator"
)

// ParseRoomRole normalizes a role from any producer into the canonical
// constant. Older API versions sent raw lowercase strings where newer ones
// send enum values; both must compare equal, so normalization happens here
// at the boundary and never downstream.
func ParseRoomRole(s string) (RoomRole, bool) {
	switch RoomRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleMember:
		return RoleMember, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCreator:
		return RoleCreator, true
	default:
		return "", false
	}
}

// rank returns the position of the role in the privilege order.
// Unknown roles rank below member.
func (r RoomRole) rank() int {
	switch r {
	case RoleCreator:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether the role meets or exceeds the given threshold
func (r RoomRole) AtLeast(threshold RoomRole) bool {
	return r.rank() >= threshold.rank()
}

// FlexID is an int64 that also accepts JSON string encodings ("7" as well
// as 7). Different API versions of the original clients sent ids both ways.
type FlexID int64

// UnmarshalJSON decodes a bare or quoted integer
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

// Int64 returns the plain integer value
func (f FlexID) Int64() int64 {
	return int64(f)
}

// Room represents a bounded collaboration space
type Room struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	CreatorID      int64     `json:"creator_id"`
	IsPrivate      bool      `json:"is_private"`
	MaxMembers     int       `json:"max_members"`
	CurrentMembers int       `json:"current_members"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Populated from JOIN
	CreatorUsername string `json:"creator_username,omitempty"`
	CreatorFullName string `json:"creator_full_name,omitempty"`
}

// RoomMember represents a user's membership in a room.
// Exactly one member per room holds RoleCreator, and that member's
// UserID equals the room's CreatorID.
type RoomMember struct {
	ID       int64     `json:"id"`
	RoomID   int64     `json:"room_id"`
	UserID   int64     `json:"user_id"`
	Role     RoomRole  `json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	// Populated from JOIN
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// InvitationStatus is the state of an email invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation represents an email invitation into a room
type Invitation struct {
	ID           int64            `json:"id"`
	RoomID       int64            `json:"room_id"`
	InviterID    int64            `json:"inviter_id"`
	InviteeEmail string           `json:"invitee_email"`
	Message      *string          `json:"message,omitempty"`
	Status       InvitationStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	ExpiresAt    time.Time        `json:"expires_at"`

	// Populated from JOIN
	RoomName        string `json:"room_name,omitempty"`
	InviterUsername string `json:"inviter_username,omitempty"`
}

// Expired reports whether the invitation window has closed
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
