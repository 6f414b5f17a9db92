package room

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseRoomRole(t *testing.T) {
	tests := []struct {
		in   string
		want RoomRole
		ok   bool
	}{
		{"member", RoleMember, true},
		{"admin", RoleAdmin, true},
		{"creator", RoleCreator, true},
		// Legacy producers sent raw mixed-case strings; they must compare
		// equal to the canonical values after parsing.
		{"CREATOR", RoleCreator, true},
		{"Admin", RoleAdmin, true},
		{" member ", RoleMember, true},
		{"owner", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRoomRole(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseRoomRole(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRoomRoleOrdering(t *testing.T) {
	if !RoleCreator.AtLeast(RoleAdmin) || !RoleAdmin.AtLeast(RoleMember) {
		t.Error("privilege order must be member < admin < creator")
	}
	if RoleMember.AtLeast(RoleAdmin) {
		t.Error("member must rank below admin")
	}
	if !RoleAdmin.AtLeast(RoleAdmin) {
		t.Error("AtLeast must be reflexive")
	}
	if RoomRole("").AtLeast(RoleMember) {
		t.Error("unknown role must rank below member")
	}
}

func TestFlexIDUnmarshal(t *testing.T) {
	var payload struct {
		UserID FlexID `json:"user_id"`
	}

	// Different API versions sent ids as numbers and as strings
	if err := json.Unmarshal([]byte(`{"user_id": 7}`), &payload); err != nil {
		t.Fatalf("bare number failed: %v", err)
	}
	if payload.UserID.Int64() != 7 {
		t.Errorf("expected 7, got %d", payload.UserID)
	}

	if err := json.Unmarshal([]byte(`{"user_id": "7"}`), &payload); err != nil {
		t.Fatalf("quoted number failed: %v", err)
	}
	if payload.UserID.Int64() != 7 {
		t.Errorf("expected 7 from quoted value, got %d", payload.UserID)
	}

	if err := json.Unmarshal([]byte(`{"user_id": "abc"}`), &payload); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestInvitationExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := &Invitation{ExpiresAt: now.Add(time.Hour)}
	if inv.Expired(now) {
		t.Error("invitation inside its window is not expired")
	}
	inv.ExpiresAt = now.Add(-time.Hour)
	if !inv.Expired(now) {
		t.Error("invitation past its window is expired")
	}
}
