package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func memberRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "room_id", "user_id", "role", "joined_at"}).
		AddRow(int64(3), int64(1), int64(9), "member", time.Now())
}

func TestAddMemberWithCodeRefusesConcurrentlyExhaustedCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO room_members").WillReturnRows(memberRows())
	mock.ExpectExec("UPDATE rooms SET current_members").WillReturnResult(sqlmock.NewResult(0, 1))
	// Another join consumed the last use between the read-side check and this
	// transaction; the guarded update matches no rows and the whole join rolls
	// back, so current_uses can never pass max_uses.
	mock.ExpectExec("UPDATE room_invite_codes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := repo.AddMemberWithCode(context.Background(), 1, 9, 5); !errors.Is(err, ErrInviteCodeExhausted) {
		t.Errorf("expected ErrInviteCodeExhausted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddMemberWithCodeConsumesInsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO room_members").WillReturnRows(memberRows())
	mock.ExpectExec("UPDATE rooms SET current_members").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE room_invite_codes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	member, err := repo.AddMemberWithCode(context.Background(), 1, 9, 5)
	if err != nil {
		t.Fatalf("AddMemberWithCode failed: %v", err)
	}
	if member.UserID != 9 || member.Role != RoleMember {
		t.Errorf("unexpected member row: %+v", member)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddMemberWithCodeRefusesFullRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO room_members").WillReturnRows(memberRows())
	// The room filled up since the read-side capacity check; the guarded
	// member-count update matches no rows.
	mock.ExpectExec("UPDATE rooms SET current_members").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := repo.AddMemberWithCode(context.Background(), 1, 9, 5); !errors.Is(err, ErrRoomFull) {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAcceptInvitationCommitsMemberAndStatusTogether(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO room_members").WillReturnRows(memberRows())
	mock.ExpectExec("UPDATE rooms SET current_members").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE room_invitations SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	member, err := repo.AcceptInvitation(context.Background(), 1, 9, 4)
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if member.Role != RoleMember {
		t.Errorf("expected member role, got %q", member.Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAcceptInvitationRollsBackMemberOnStatusFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO room_members").WillReturnRows(memberRows())
	mock.ExpectExec("UPDATE rooms SET current_members").WillReturnResult(sqlmock.NewResult(0, 1))
	// The invitation left the pending state concurrently; the member insert
	// must roll back with it instead of committing on its own.
	mock.ExpectExec("UPDATE room_invitations SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := repo.AcceptInvitation(context.Background(), 1, 9, 4); !errors.Is(err, ErrInvitationNotPending) {
		t.Errorf("expected ErrInvitationNotPending, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
