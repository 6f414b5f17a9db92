package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ironvault/api/internal/user"
	"github.com/ironvault/api/pkg/inflight"
)

// Common errors
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrNotAuthorized        = errors.New("not authorized to perform this action")
	ErrNotRoomMember        = errors.New("you are not a member of this room")
	ErrMemberNotFound       = errors.New("member not found")
	ErrAlreadyMember        = errors.New("user is already a member of this room")
	ErrCreatorCannotLeave   = errors.New("the room creator cannot leave the room")
	ErrCannotRemoveCreator  = errors.New("the room creator cannot be removed")
	ErrInvalidRole          = errors.New("invalid room role")
	ErrInviteCodeNotFound   = errors.New("invite code not found")
	ErrInviteCodeInvalid    = errors.New("invalid invite code")
	ErrInviteCodeExhausted  = errors.New("invite code has no uses left")
	ErrInviteCodeExpired    = errors.New("invite code has expired")
	ErrOnlyUsersCanJoin     = errors.New("only regular users can join rooms using invites")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationNotPending = errors.New("invitation is no longer pending")
	ErrInvitationExpired    = errors.New("invitation has expired")
)

// invitationTTL is the window during which an email invitation can be accepted
const invitationTTL = 7 * 24 * time.Hour

// maxCodeAttempts bounds the uniqueness retry loop for generated codes
const maxCodeAttempts = 5

// Details bundles one consistent room snapshot: the room, its member list,
// the invite codes (managers only) and the capability flags derived for the
// actor. Callers reload this whole snapshot after any mutation instead of
// patching permission-relevant state locally.
type Details struct {
	Room        *Room
	Members     []*RoomMember
	InviteCodes []*InviteCode
	Permissions Permissions
}

// Service handles room business logic
type Service struct {
	repo  *Repository
	users *user.Service
	guard *inflight.Guard
}

// NewService creates a new room service with dependencies injected
func NewService(repo *Repository, users *user.Service, guard *inflight.Guard) *Service {
	return &Service{repo: repo, users: users, guard: guard}
}

// Create creates a room owned by the actor; the creator membership row is
// written in the same transaction
func (s *Service) Create(ctx context.Context, actor *Actor, req *CreateRoomRequest) (*Room, error) {
	if actor == nil {
		return nil, ErrNotAuthorized
	}
	if req.MaxMembers < 1 {
		req.MaxMembers = 10
	}
	return s.repo.Create(ctx, actor.ID, req)
}

// GetDetails loads a room snapshot and derives the actor's capabilities from
// it. Invite codes are only included when the actor can manage the room.
func (s *Service) GetDetails(ctx context.Context, actor *Actor, roomID int64) (*Details, error) {
	rm, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, ErrRoomNotFound
	}

	members, err := s.repo.GetMembers(ctx, roomID)
	if err != nil {
		return nil, err
	}

	perms := Evaluate(rm, members, actor)

	// Private rooms are visible to members only; operators see everything
	if rm.IsPrivate && !perms.CanManage && !isMember(members, actor) && (actor == nil || !actor.Role.IsOperator()) {
		return nil, ErrRoomNotFound
	}

	details := &Details{Room: rm, Members: members, Permissions: perms}
	if perms.CanManage {
		codes, err := s.repo.ListInviteCodes(ctx, roomID)
		if err != nil {
			return nil, err
		}
		details.InviteCodes = codes
	}

	return details, nil
}

func isMember(members []*RoomMember, actor *Actor) bool {
	if actor == nil {
		return false
	}
	for _, m := range members {
		if m != nil && m.UserID == actor.ID {
			return true
		}
	}
	return false
}

// ListByUser retrieves the actor's rooms with pagination
func (s *Service) ListByUser(ctx context.Context, userID int64, page, perPage int) ([]*Room, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// Update modifies room settings; only the creator may do so
func (s *Service) Update(ctx context.Context, actor *Actor, roomID int64, req *UpdateRoomRequest) (*Room, error) {
	rm, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, ErrRoomNotFound
	}

	if !Evaluate(rm, nil, actor).IsCreator {
		return nil, ErrNotAuthorized
	}

	return s.repo.Update(ctx, roomID, req)
}

// Delete removes a room; only the creator may do so
func (s *Service) Delete(ctx context.Context, actor *Actor, roomID int64) error {
	rm, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if rm == nil {
		return ErrRoomNotFound
	}

	if !Evaluate(rm, nil, actor).IsCreator {
		return ErrNotAuthorized
	}

	return s.repo.Delete(ctx, roomID)
}

// Join adds the actor to a room through an invite code. Only accounts with
// the global role "user" are eligible; the code must be usable right now
// (active flag, remaining uses and expiry all checked, not the flag alone).
func (s *Service) Join(ctx context.Context, actor *Actor, rawCode string) (*RoomMember, error) {
	if actor == nil {
		return nil, ErrNotAuthorized
	}
	if actor.Role != user.GlobalRoleUser {
		return nil, ErrOnlyUsersCanJoin
	}

	code := NormalizeCode(rawCode)
	if code == "" {
		return nil, ErrInviteCodeInvalid
	}

	key := fmt.Sprintf("join:%d:%s", actor.ID, code)
	if err := s.guard.Acquire(key); err != nil {
		return nil, err
	}
	defer s.guard.Release(key)

	invite, err := s.repo.GetInviteCodeByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, ErrInviteCodeInvalid
	}

	now := time.Now()
	switch {
	case invite.Exhausted():
		return nil, ErrInviteCodeExhausted
	case invite.ExpiresAt != nil && now.After(*invite.ExpiresAt):
		return nil, ErrInviteCodeExpired
	case !invite.Usable(now):
		return nil, ErrInviteCodeInvalid
	}

	rm, err := s.repo.GetByID(ctx, invite.RoomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, ErrRoomNotFound
	}
	if rm.CurrentMembers >= rm.MaxMembers {
		return nil, ErrRoomFull
	}

	existing, err := s.repo.GetMember(ctx, invite.RoomID, actor.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	// The checks above give precise errors; capacity and remaining uses are
	// re-guarded inside the join transaction against concurrent admissions.
	return s.repo.AddMemberWithCode(ctx, invite.RoomID, actor.ID, invite.ID)
}

// RemoveMember removes a member from a room, or lets the actor leave when
// the target is themselves. Returns true when the actor left the room and
// should be navigated away from it.
func (s *Service) RemoveMember(ctx context.Context, actor *Actor, roomID, targetUserID int64) (bool, error) {
	if actor == nil {
		return false, ErrNotAuthorized
	}

	key := fmt.Sprintf("remove:%d:%d", roomID, targetUserID)
	if err := s.guard.Acquire(key); err != nil {
		return false, err
	}
	defer s.guard.Release(key)

	rm, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	if rm == nil {
		return false, ErrRoomNotFound
	}

	members, err := s.repo.GetMembers(ctx, roomID)
	if err != nil {
		return false, err
	}

	target := findMember(members, targetUserID)
	if target == nil {
		return false, ErrMemberNotFound
	}

	leaving := targetUserID == actor.ID
	if leaving {
		if !CanLeave(actor, target) {
			return false, ErrCreatorCannotLeave
		}
	} else {
		perms := Evaluate(rm, members, actor)
		if !CanRemoveMember(perms, actor, target) {
			return false, ErrNotAuthorized
		}
		// The capability flag allows removing anyone but yourself; the
		// one-creator-per-room invariant still protects the creator's row.
		if target.Role == RoleCreator {
			return false, ErrCannotRemoveCreator
		}
	}

	if err := s.repo.RemoveMember(ctx, roomID, targetUserID); err != nil {
		return false, err
	}
	return leaving, nil
}

func findMember(members []*RoomMember, userID int64) *RoomMember {
	for _, m := range members {
		if m != nil && m.UserID == userID {
			return m
		}
	}
	return nil
}

// UpdateMemberRole promotes or demotes a member between member and admin.
// Only the creator may change roles, and the creator's own row is immutable.
func (s *Service) UpdateMemberRole(ctx context.Context, actor *Actor, roomID, targetUserID int64, rawRole string) (*RoomMember, error) {
	rm, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, ErrRoomNotFound
	}

	if !Evaluate(rm, nil, actor).IsCreator {
		return nil, ErrNotAuthorized
	}

	role, ok := ParseRoomRole(rawRole)
	if !ok || role == RoleCreator {
		return nil, ErrInvalidRole
	}
	if targetUserID == rm.CreatorID {
		return nil, ErrInvalidRole
	}

	member, err := s.repo.UpdateMemberRole(ctx, roomID, targetUserID, role)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// CreateInviteCode creates a new invite code for a room. Zero-valued bounds
// mean unbounded and are stored as NULL. Requires manage capability.
func (s *Service) CreateInviteCode(ctx context.Context, actor *Actor, roomID int64, req *CreateInviteCodeRequest) (*InviteCode, error) {
	if err := s.requireManage(ctx, actor, roomID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("invite:%d", roomID)
	if err := s.guard.Acquire(key); err != nil {
		return nil, err
	}
	defer s.guard.Release(key)

	var maxUses *int
	if req.MaxUses > 0 {
		maxUses = &req.MaxUses
	}
	var expiresAt *time.Time
	if req.ExpiresHours > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresHours) * time.Hour)
		expiresAt = &t
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		created, err := s.repo.CreateInviteCode(ctx, roomID, code, maxUses, expiresAt)
		if err == errDuplicateCode {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}

	return nil, fmt.Errorf("failed to generate a unique invite code after %d attempts", maxCodeAttempts)
}

// ListInviteCodes lists a room's invite codes; requires manage capability
func (s *Service) ListInviteCodes(ctx context.Context, actor *Actor, roomID int64) ([]*InviteCode, error) {
	if err := s.requireManage(ctx, actor, roomID); err != nil {
		return nil, err
	}
	return s.repo.ListInviteCodes(ctx, roomID)
}

// RevokeInviteCode hard-deletes an invite code. Revoking is legal from any
// state, including a still-active code.
func (s *Service) RevokeInviteCode(ctx context.Context, actor *Actor, roomID, codeID int64) error {
	if err := s.requireManage(ctx, actor, roomID); err != nil {
		return err
	}

	key := fmt.Sprintf("revoke:%d", codeID)
	if err := s.guard.Acquire(key); err != nil {
		return err
	}
	defer s.guard.Release(key)

	return s.repo.DeleteInviteCode(ctx, roomID, codeID)
}

// Invite sends an email invitation into the room; requires manage capability
func (s *Service) Invite(ctx context.Context, actor *Actor, roomID int64, req *CreateInvitationRequest) (*Invitation, error) {
	if err := s.requireManage(ctx, actor, roomID); err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(invitationTTL)
	return s.repo.CreateInvitation(ctx, roomID, actor.ID, req, expiresAt)
}

// ListMyInvitations lists pending and past invitations addressed to the actor
func (s *Service) ListMyInvitations(ctx context.Context, actor *Actor) ([]*Invitation, error) {
	if actor == nil {
		return nil, ErrNotAuthorized
	}

	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListInvitationsByEmail(ctx, u.Email)
}

// AcceptInvitation turns a pending invitation into a membership. Acceptance
// follows the same admission rules as a code join, minus code consumption.
func (s *Service) AcceptInvitation(ctx context.Context, actor *Actor, invitationID int64) (*RoomMember, error) {
	inv, err := s.invitationForActor(ctx, actor, invitationID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("invitation:%d", invitationID)
	if err := s.guard.Acquire(key); err != nil {
		return nil, err
	}
	defer s.guard.Release(key)

	if inv.Expired(time.Now()) {
		// Record the derived state so listings stop showing it as pending
		if err := s.repo.UpdateInvitationStatus(ctx, invitationID, InvitationExpired); err != nil {
			return nil, err
		}
		return nil, ErrInvitationExpired
	}

	rm, err := s.repo.GetByID(ctx, inv.RoomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, ErrRoomNotFound
	}
	if rm.CurrentMembers >= rm.MaxMembers {
		return nil, ErrRoomFull
	}

	existing, err := s.repo.GetMember(ctx, inv.RoomID, actor.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	return s.repo.AcceptInvitation(ctx, inv.RoomID, actor.ID, invitationID)
}

// RejectInvitation declines a pending invitation addressed to the actor
func (s *Service) RejectInvitation(ctx context.Context, actor *Actor, invitationID int64) error {
	if _, err := s.invitationForActor(ctx, actor, invitationID); err != nil {
		return err
	}
	return s.repo.UpdateInvitationStatus(ctx, invitationID, InvitationRejected)
}

// invitationForActor loads a pending invitation and checks it is addressed
// to the acting user
func (s *Service) invitationForActor(ctx context.Context, actor *Actor, invitationID int64) (*Invitation, error) {
	if actor == nil {
		return nil, ErrNotAuthorized
	}

	inv, err := s.repo.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}

	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeEmail != u.Email {
		return nil, ErrNotAuthorized
	}
	if inv.Status != InvitationPending {
		return nil, ErrInvitationNotPending
	}

	return inv, nil
}

// requireManage loads the room snapshot and denies unless the actor holds
// the manage capability on it
func (s *Service) requireManage(ctx context.Context, actor *Actor, roomID int64) error {
	rm, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if rm == nil {
		return ErrRoomNotFound
	}

	members, err := s.repo.GetMembers(ctx, roomID)
	if err != nil {
		return err
	}

	if !Evaluate(rm, members, actor).CanManage {
		return ErrNotAuthorized
	}
	return nil
}
