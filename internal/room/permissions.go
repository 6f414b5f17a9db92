package room

import "github.com/ironvault/api/internal/user"

// Actor is the acting-user descriptor. It is passed explicitly into every
// permission derivation; nothing here reads ambient session state. A nil
// Actor means unauthenticated, and every capability is denied.
type Actor struct {
	ID   int64
	Role user.GlobalRole
}

// Permissions are the capability flags derived from one room snapshot.
// They are a pure function of (room, members, actor): recomputing from the
// same inputs always yields the same flags, and callers re-derive them from
// a fresh snapshot after every mutation rather than patching them locally.
type Permissions struct {
	IsCreator bool `json:"is_creator"`
	CanManage bool `json:"can_manage"`
}

// Evaluate derives capability flags for the actor against a room snapshot.
// Missing data (nil actor, nil room) yields the most restrictive answer.
func Evaluate(rm *Room, members []*RoomMember, actor *Actor) Permissions {
	if actor == nil || rm == nil {
		return Permissions{}
	}

	p := Permissions{IsCreator: actor.ID == rm.CreatorID}
	if p.IsCreator {
		p.CanManage = true
		return p
	}

	for _, m := range members {
		if m == nil {
			continue
		}
		if m.UserID == actor.ID && m.Role.AtLeast(RoleAdmin) {
			p.CanManage = true
			break
		}
	}
	return p
}

// CanRemoveMember reports whether the actor may remove the given member.
// A manager may remove anyone except themselves through this path.
func CanRemoveMember(p Permissions, actor *Actor, m *RoomMember) bool {
	if actor == nil || m == nil {
		return false
	}
	return p.CanManage && m.UserID != actor.ID
}

// CanLeave reports whether the actor may leave through the given membership
// row. The creator can never leave: removing the creator would leave the
// room without one, which the data model forbids.
func CanLeave(actor *Actor, m *RoomMember) bool {
	if actor == nil || m == nil {
		return false
	}
	return m.UserID == actor.ID && m.Role != RoleCreator
}

// CanChangeVisibility reports whether an actor holding the given ROOM role
// may toggle a file's visibility. Room admins and the creator may change any
// file; everyone else only their own uploads.
func CanChangeVisibility(actorRole RoomRole, actorID, uploaderID int64) bool {
	if actorID == 0 {
		return false
	}
	return actorRole.AtLeast(RoleAdmin) || uploaderID == actorID
}
