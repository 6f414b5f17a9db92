package room

import (
	"context"
	"errors"
	"testing"

	"github.com/ironvault/api/internal/user"
	"github.com/ironvault/api/pkg/inflight"
)

// Eligibility is decided before any repository access, so a service with nil
// dependencies is enough to exercise the rejections.
func TestJoinEligibility(t *testing.T) {
	s := NewService(nil, nil, inflight.NewGuard())

	tests := []struct {
		name  string
		actor *Actor
		want  error
	}{
		{"unauthenticated", nil, ErrNotAuthorized},
		{"global admin", &Actor{ID: 2, Role: user.GlobalRoleAdmin}, ErrOnlyUsersCanJoin},
		{"global superadmin", &Actor{ID: 3, Role: user.GlobalRoleSuperadmin}, ErrOnlyUsersCanJoin},
		{"unknown global role", &Actor{ID: 4, Role: ""}, ErrOnlyUsersCanJoin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Join(context.Background(), tt.actor, "ABCD2345"); !errors.Is(err, tt.want) {
				t.Errorf("Join returned %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJoinRejectsBlankCode(t *testing.T) {
	s := NewService(nil, nil, inflight.NewGuard())
	actor := &Actor{ID: 9, Role: user.GlobalRoleUser}

	if _, err := s.Join(context.Background(), actor, "   "); !errors.Is(err, ErrInviteCodeInvalid) {
		t.Errorf("Join with blank code returned %v, want ErrInviteCodeInvalid", err)
	}
}
