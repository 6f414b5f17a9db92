package room

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository handles room data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new room repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// errDuplicateCode signals an invite code collision on insert; the service
// retries generation when it sees this.
var errDuplicateCode = fmt.Errorf("invite code already exists")

// Create inserts a new room and its creator membership in one transaction.
// The creator's member row is the single RoleCreator row the room will ever
// have, and current_members starts at 1 to count it.
func (r *Repository) Create(ctx context.Context, creatorID int64, req *CreateRoomRequest) (*Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	room := &Room{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rooms (name, description, creator_id, is_private, max_members, current_members)
		VALUES ($1, $2, $3, $4, $5, 1)
		RETURNING id, name, description, creator_id, is_private, max_members, current_members, created_at, updated_at
	`, req.Name, req.Description, creatorID, req.IsPrivate, req.MaxMembers).Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.CreatorID,
		&room.IsPrivate,
		&room.MaxMembers,
		&room.CurrentMembers,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO room_members (room_id, user_id, role)
		VALUES ($1, $2, $3)
	`, room.ID, creatorID, RoleCreator)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit room creation: %w", err)
	}

	return room, nil
}

// GetByID retrieves a room by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Room, error) {
	query := `
		SELECT r.id, r.name, r.description, r.creator_id, r.is_private, r.max_members,
		       r.current_members, r.created_at, r.updated_at, u.username, u.full_name
		FROM rooms r
		JOIN users u ON r.creator_id = u.id
		WHERE r.id = $1
	`

	room := &Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.CreatorID,
		&room.IsPrivate,
		&room.MaxMembers,
		&room.CurrentMembers,
		&room.CreatedAt,
		&room.UpdatedAt,
		&room.CreatorUsername,
		&room.CreatorFullName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// ListByUserID retrieves the rooms a user belongs to
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Room, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM rooms r
		JOIN room_members rm ON r.id = rm.room_id
		WHERE rm.user_id = $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	query := `
		SELECT r.id, r.name, r.description, r.creator_id, r.is_private, r.max_members,
		       r.current_members, r.created_at, r.updated_at, u.username, u.full_name
		FROM rooms r
		JOIN room_members rm ON r.id = rm.room_id
		JOIN users u ON r.creator_id = u.id
		WHERE rm.user_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room := &Room{}
		if err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Description,
			&room.CreatorID,
			&room.IsPrivate,
			&room.MaxMembers,
			&room.CurrentMembers,
			&room.CreatedAt,
			&room.UpdatedAt,
			&room.CreatorUsername,
			&room.CreatorFullName,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, total, nil
}

// Update modifies room settings with COALESCE partial update semantics
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateRoomRequest) (*Room, error) {
	query := `
		UPDATE rooms
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    is_private = COALESCE($4, is_private),
		    max_members = COALESCE($5, max_members),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, creator_id, is_private, max_members, current_members, created_at, updated_at
	`

	room := &Room{}
	err := r.db.QueryRowContext(ctx, query, id, req.Name, req.Description, req.IsPrivate, req.MaxMembers).Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.CreatorID,
		&room.IsPrivate,
		&room.MaxMembers,
		&room.CurrentMembers,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	return room, nil
}

// Delete removes a room; members, invite codes and invitations cascade
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRoomNotFound
	}

	return nil
}

// GetMembers retrieves all members of a room with their user details
func (r *Repository) GetMembers(ctx context.Context, roomID int64) ([]*RoomMember, error) {
	query := `
		SELECT rm.id, rm.room_id, rm.user_id, rm.role, rm.joined_at, u.username, u.full_name, u.email
		FROM room_members rm
		JOIN users u ON rm.user_id = u.id
		WHERE rm.room_id = $1
		ORDER BY rm.joined_at
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*RoomMember
	for rows.Next() {
		m := &RoomMember{}
		var rawRole string
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &rawRole, &m.JoinedAt, &m.Username, &m.FullName, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		// Normalize at the boundary; rows written by older versions may
		// carry mixed-case role strings.
		role, ok := ParseRoomRole(rawRole)
		if !ok {
			role = RoleMember
		}
		m.Role = role
		members = append(members, m)
	}

	return members, nil
}

// GetMember retrieves a specific membership row, nil when absent
func (r *Repository) GetMember(ctx context.Context, roomID, userID int64) (*RoomMember, error) {
	query := `
		SELECT rm.id, rm.room_id, rm.user_id, rm.role, rm.joined_at, u.username, u.full_name, u.email
		FROM room_members rm
		JOIN users u ON rm.user_id = u.id
		WHERE rm.room_id = $1 AND rm.user_id = $2
	`

	m := &RoomMember{}
	var rawRole string
	err := r.db.QueryRowContext(ctx, query, roomID, userID).Scan(
		&m.ID, &m.RoomID, &m.UserID, &rawRole, &m.JoinedAt, &m.Username, &m.FullName, &m.Email,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	role, ok := ParseRoomRole(rawRole)
	if !ok {
		role = RoleMember
	}
	m.Role = role
	return m, nil
}

// UpdateMemberRole changes a member's room role
func (r *Repository) UpdateMemberRole(ctx context.Context, roomID, userID int64, role RoomRole) (*RoomMember, error) {
	query := `
		UPDATE room_members
		SET role = $3
		WHERE room_id = $1 AND user_id = $2
		RETURNING id, room_id, user_id, role, joined_at
	`

	m := &RoomMember{}
	err := r.db.QueryRowContext(ctx, query, roomID, userID, role).Scan(
		&m.ID, &m.RoomID, &m.UserID, &m.Role, &m.JoinedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	return m, nil
}

// RemoveMember deletes a membership row and decrements the room's member
// count in one transaction
func (r *Repository) RemoveMember(ctx context.Context, roomID, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM room_members WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE rooms SET current_members = current_members - 1 WHERE id = $1
	`, roomID)
	if err != nil {
		return fmt.Errorf("failed to update member count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member removal: %w", err)
	}

	return nil
}

// AddMemberWithCode inserts a membership row, consumes one use of the invite
// code and bumps the room's member count, all in one transaction. The code's
// is_active flag is cleared in the same statement when this use exhausts it.
// The consuming update is guarded by the remaining-uses bound: the service's
// Usable check runs before this transaction, so a concurrent join may have
// taken the last use in between, and the guard is what keeps current_uses
// within max_uses.
func (r *Repository) AddMemberWithCode(ctx context.Context, roomID, userID, codeID int64) (*RoomMember, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := insertMember(ctx, tx, roomID, userID, RoleMember)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE room_invite_codes
		SET current_uses = current_uses + 1,
		    is_active = (max_uses IS NULL OR current_uses + 1 < max_uses)
		WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)
	`, codeID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume invite code: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrInviteCodeExhausted
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit join: %w", err)
	}

	return member, nil
}

// AcceptInvitation inserts the membership row and flips the invitation to
// accepted in one transaction, so a failed status update never strands a
// committed membership behind a still-pending invitation.
func (r *Repository) AcceptInvitation(ctx context.Context, roomID, userID, invitationID int64) (*RoomMember, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	member, err := insertMember(ctx, tx, roomID, userID, RoleMember)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE room_invitations SET status = 'accepted' WHERE id = $1 AND status = 'pending'
	`, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrInvitationNotPending
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit acceptance: %w", err)
	}

	return member, nil
}

func insertMember(ctx context.Context, tx *sql.Tx, roomID, userID int64, role RoomRole) (*RoomMember, error) {
	member := &RoomMember{}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO room_members (room_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, room_id, user_id, role, joined_at
	`, roomID, userID, role).Scan(
		&member.ID, &member.RoomID, &member.UserID, &member.Role, &member.JoinedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	// Capacity is enforced here, inside the transaction: the service's
	// read-side check can race a concurrent admission.
	result, err := tx.ExecContext(ctx, `
		UPDATE rooms SET current_members = current_members + 1
		WHERE id = $1 AND current_members < max_members
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to update member count: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrRoomFull
	}

	return member, nil
}

// CreateInviteCode inserts a new invite code row
func (r *Repository) CreateInviteCode(ctx context.Context, roomID int64, code string, maxUses *int, expiresAt *time.Time) (*InviteCode, error) {
	query := `
		INSERT INTO room_invite_codes (room_id, code, max_uses, current_uses, expires_at, is_active)
		VALUES ($1, $2, $3, 0, $4, TRUE)
		RETURNING id, room_id, code, max_uses, current_uses, expires_at, is_active, created_at
	`

	c := &InviteCode{}
	err := r.db.QueryRowContext(ctx, query, roomID, code, maxUses, expiresAt).Scan(
		&c.ID, &c.RoomID, &c.Code, &c.MaxUses, &c.CurrentUses, &c.ExpiresAt, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, errDuplicateCode
		}
		return nil, fmt.Errorf("failed to create invite code: %w", err)
	}

	return c, nil
}

// GetInviteCodeByCode looks up an invite code by its normalized token
func (r *Repository) GetInviteCodeByCode(ctx context.Context, code string) (*InviteCode, error) {
	query := `
		SELECT id, room_id, code, max_uses, current_uses, expires_at, is_active, created_at
		FROM room_invite_codes
		WHERE code = $1
	`

	c := &InviteCode{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.ID, &c.RoomID, &c.Code, &c.MaxUses, &c.CurrentUses, &c.ExpiresAt, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invite code: %w", err)
	}

	return c, nil
}

// ListInviteCodes retrieves all invite codes of a room, newest first.
// Exhausted and expired rows stay listed until revoked.
func (r *Repository) ListInviteCodes(ctx context.Context, roomID int64) ([]*InviteCode, error) {
	query := `
		SELECT id, room_id, code, max_uses, current_uses, expires_at, is_active, created_at
		FROM room_invite_codes
		WHERE room_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invite codes: %w", err)
	}
	defer rows.Close()

	var codes []*InviteCode
	for rows.Next() {
		c := &InviteCode{}
		if err := rows.Scan(&c.ID, &c.RoomID, &c.Code, &c.MaxUses, &c.CurrentUses, &c.ExpiresAt, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invite code: %w", err)
		}
		codes = append(codes, c)
	}

	return codes, nil
}

// DeleteInviteCode hard-deletes an invite code row, regardless of state
func (r *Repository) DeleteInviteCode(ctx context.Context, roomID, codeID int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM room_invite_codes WHERE id = $1 AND room_id = $2
	`, codeID, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete invite code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInviteCodeNotFound
	}

	return nil
}

// CreateInvitation inserts a new email invitation
func (r *Repository) CreateInvitation(ctx context.Context, roomID, inviterID int64, req *CreateInvitationRequest, expiresAt time.Time) (*Invitation, error) {
	query := `
		INSERT INTO room_invitations (room_id, inviter_id, invitee_email, message, status, expires_at)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING id, room_id, inviter_id, invitee_email, message, status, created_at, expires_at
	`

	inv := &Invitation{}
	err := r.db.QueryRowContext(ctx, query, roomID, inviterID, req.InviteeEmail, req.Message, expiresAt).Scan(
		&inv.ID, &inv.RoomID, &inv.InviterID, &inv.InviteeEmail, &inv.Message, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return inv, nil
}

// GetInvitation retrieves an invitation by its ID
func (r *Repository) GetInvitation(ctx context.Context, id int64) (*Invitation, error) {
	query := `
		SELECT i.id, i.room_id, i.inviter_id, i.invitee_email, i.message, i.status,
		       i.created_at, i.expires_at, r.name, u.username
		FROM room_invitations i
		JOIN rooms r ON i.room_id = r.id
		JOIN users u ON i.inviter_id = u.id
		WHERE i.id = $1
	`

	inv := &Invitation{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.RoomID, &inv.InviterID, &inv.InviteeEmail, &inv.Message, &inv.Status,
		&inv.CreatedAt, &inv.ExpiresAt, &inv.RoomName, &inv.InviterUsername,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// ListInvitationsByEmail retrieves invitations addressed to an email, newest first
func (r *Repository) ListInvitationsByEmail(ctx context.Context, email string) ([]*Invitation, error) {
	query := `
		SELECT i.id, i.room_id, i.inviter_id, i.invitee_email, i.message, i.status,
		       i.created_at, i.expires_at, r.name, u.username
		FROM room_invitations i
		JOIN rooms r ON i.room_id = r.id
		JOIN users u ON i.inviter_id = u.id
		WHERE i.invitee_email = $1
		ORDER BY i.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(
			&inv.ID, &inv.RoomID, &inv.InviterID, &inv.InviteeEmail, &inv.Message, &inv.Status,
			&inv.CreatedAt, &inv.ExpiresAt, &inv.RoomName, &inv.InviterUsername,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	return invitations, nil
}

// UpdateInvitationStatus transitions an invitation's status
func (r *Repository) UpdateInvitationStatus(ctx context.Context, id int64, status InvitationStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE room_invitations SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInvitationNotFound
	}

	return nil
}
