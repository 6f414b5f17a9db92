package file

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ironvault/api/internal/room"
	"github.com/ironvault/api/pkg/inflight"
)

// Common errors
var (
	ErrFileNotFound  = errors.New("file not found")
	ErrNotAuthorized = errors.New("not authorized to perform this action")
	ErrNotRoomMember = errors.New("you are not a member of this room")
)

// Service handles file business logic. It depends on the room repository to
// resolve the actor's room role: visibility decisions use the ROOM role, not
// the global one.
type Service struct {
	repo  *Repository
	rooms *room.Repository
	guard *inflight.Guard
}

// NewService creates a new file service with dependencies injected
func NewService(repo *Repository, rooms *room.Repository, guard *inflight.Guard) *Service {
	return &Service{repo: repo, rooms: rooms, guard: guard}
}

// memberRole loads the actor's membership row; absent membership denies
func (s *Service) memberRole(ctx context.Context, actor *room.Actor, roomID int64) (room.RoomRole, error) {
	if actor == nil {
		return "", ErrNotAuthorized
	}
	m, err := s.rooms.GetMember(ctx, roomID, actor.ID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", ErrNotRoomMember
	}
	return m.Role, nil
}

// Create registers the metadata of a completed upload. The storage key is
// generated here; the bytes were written by the external storage service.
func (s *Service) Create(ctx context.Context, actor *room.Actor, roomID int64, req *CreateFileRequest) (*RoomFile, error) {
	if _, err := s.memberRole(ctx, actor, roomID); err != nil {
		return nil, err
	}

	key := uuid.NewString()
	f := &RoomFile{
		RoomID:           roomID,
		UserID:           actor.ID,
		Filename:         key + filepath.Ext(req.OriginalFilename),
		OriginalFilename: req.OriginalFilename,
		FileSize:         req.FileSize,
		FileType:         req.FileType,
		Category:         CategoryFromFilename(req.OriginalFilename),
		Description:      req.Description,
		StoragePath:      fmt.Sprintf("rooms/%d/%s", roomID, key),
		Visibility:       VisibilityPrivate,
		IsEncrypted:      req.IsEncrypted,
	}

	return s.repo.Create(ctx, f)
}

// ListByRoom retrieves a room's files for a member, paginated
func (s *Service) ListByRoom(ctx context.Context, actor *room.Actor, roomID int64, category Category, page, perPage int) ([]*RoomFile, int, error) {
	if _, err := s.memberRole(ctx, actor, roomID); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRoom(ctx, roomID, category, perPage, offset)
}

// SetVisibility toggles a file between private and public. Room admins and
// the creator may change any file; other members only their own uploads.
// Callers reload the file list afterwards rather than patching it locally.
func (s *Service) SetVisibility(ctx context.Context, actor *room.Actor, roomID, fileID int64, visibility Visibility) error {
	role, err := s.memberRole(ctx, actor, roomID)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("visibility:%d", fileID)
	if err := s.guard.Acquire(key); err != nil {
		return err
	}
	defer s.guard.Release(key)

	f, err := s.repo.GetByID(ctx, roomID, fileID)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrFileNotFound
	}

	if !room.CanChangeVisibility(role, actor.ID, f.UserID) {
		return ErrNotAuthorized
	}

	return s.repo.UpdateVisibility(ctx, roomID, fileID, visibility)
}

// Delete removes a file's metadata. The uploader may delete their own file;
// room managers may delete any file.
func (s *Service) Delete(ctx context.Context, actor *room.Actor, roomID, fileID int64) error {
	role, err := s.memberRole(ctx, actor, roomID)
	if err != nil {
		return err
	}

	f, err := s.repo.GetByID(ctx, roomID, fileID)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrFileNotFound
	}

	if f.UserID != actor.ID && !role.AtLeast(room.RoleAdmin) {
		return ErrNotAuthorized
	}

	return s.repo.Delete(ctx, roomID, fileID)
}
