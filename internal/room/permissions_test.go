package room

import (
	"testing"

	"github.com/ironvault/api/internal/user"
)

func member(userID int64, role RoomRole) *RoomMember {
	return &RoomMember{UserID: userID, Role: role}
}

func TestEvaluateCreator(t *testing.T) {
	rm := &Room{ID: 1, CreatorID: 7}
	members := []*RoomMember{member(7, RoleCreator)}
	actor := &Actor{ID: 7, Role: user.GlobalRoleUser}

	p := Evaluate(rm, members, actor)
	if !p.IsCreator {
		t.Error("expected IsCreator for the room creator")
	}
	if !p.CanManage {
		t.Error("expected CanManage for the room creator")
	}
	if CanLeave(actor, members[0]) {
		t.Error("the creator must never be able to leave")
	}
}

func TestEvaluatePlainMember(t *testing.T) {
	rm := &Room{ID: 1, CreatorID: 7}
	members := []*RoomMember{member(7, RoleCreator), member(9, RoleMember)}
	actor := &Actor{ID: 9, Role: user.GlobalRoleUser}

	p := Evaluate(rm, members, actor)
	if p.IsCreator {
		t.Error("plain member must not be IsCreator")
	}
	if p.CanManage {
		t.Error("plain member must not be CanManage")
	}
	if !CanLeave(actor, members[1]) {
		t.Error("plain member should be able to leave")
	}
}

func TestEvaluateRoomAdmin(t *testing.T) {
	rm := &Room{ID: 1, CreatorID: 7}
	members := []*RoomMember{member(7, RoleCreator), member(5, RoleAdmin)}
	actor := &Actor{ID: 5, Role: user.GlobalRoleUser}

	p := Evaluate(rm, members, actor)
	if p.IsCreator {
		t.Error("admin must not be IsCreator")
	}
	if !p.CanManage {
		t.Error("room admin should be CanManage")
	}
}

func TestEvaluateDeniesWithoutActor(t *testing.T) {
	rm := &Room{ID: 1, CreatorID: 7}
	members := []*RoomMember{member(7, RoleCreator), member(9, RoleAdmin)}

	p := Evaluate(rm, members, nil)
	if p.IsCreator || p.CanManage {
		t.Error("missing actor must deny every capability")
	}
	if CanRemoveMember(p, nil, members[1]) {
		t.Error("missing actor must not remove members")
	}
	if CanLeave(nil, members[1]) {
		t.Error("missing actor must not leave")
	}
	if CanChangeVisibility(RoleAdmin, 0, 9) {
		t.Error("missing actor must not change visibility")
	}
}

func TestEvaluateDeniesWithoutRoom(t *testing.T) {
	actor := &Actor{ID: 7, Role: user.GlobalRoleUser}
	p := Evaluate(nil, nil, actor)
	if p.IsCreator || p.CanManage {
		t.Error("missing room snapshot must deny every capability")
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	rm := &Room{ID: 1, CreatorID: 7}
	members := []*RoomMember{member(7, RoleCreator), member(5, RoleAdmin), member(9, RoleMember)}
	actor := &Actor{ID: 5, Role: user.GlobalRoleUser}

	first := Evaluate(rm, members, actor)
	second := Evaluate(rm, members, actor)
	if first != second {
		t.Errorf("evaluation is not idempotent: %+v vs %+v", first, second)
	}
}

func TestEvaluateToleratesNilMemberRows(t *testing.T) {
	rm := &Room{ID: 1, CreatorID: 7}
	members := []*RoomMember{nil, member(5, RoleAdmin)}
	actor := &Actor{ID: 5, Role: user.GlobalRoleUser}

	p := Evaluate(rm, members, actor)
	if !p.CanManage {
		t.Error("stale nil rows must not break evaluation for valid rows")
	}
}

func TestCanRemoveMember(t *testing.T) {
	manager := &Actor{ID: 5, Role: user.GlobalRoleUser}
	target := member(9, RoleMember)
	self := member(5, RoleAdmin)

	managing := Permissions{CanManage: true}
	if !CanRemoveMember(managing, manager, target) {
		t.Error("manager should remove another member")
	}
	if CanRemoveMember(managing, manager, self) {
		t.Error("manager must not remove themselves through this path")
	}
	if CanRemoveMember(Permissions{}, manager, target) {
		t.Error("non-manager must not remove members")
	}
	if CanRemoveMember(managing, manager, nil) {
		t.Error("missing member row must deny removal")
	}
}

func TestCanLeaveRequiresOwnRow(t *testing.T) {
	actor := &Actor{ID: 9, Role: user.GlobalRoleUser}
	if CanLeave(actor, member(8, RoleMember)) {
		t.Error("leaving through someone else's row must be denied")
	}
	if !CanLeave(actor, member(9, RoleMember)) {
		t.Error("leaving through own member row should be allowed")
	}
	if CanLeave(actor, member(9, RoleCreator)) {
		t.Error("creator must never leave")
	}
}

func TestCanChangeVisibility(t *testing.T) {
	tests := []struct {
		name       string
		role       RoomRole
		actorID    int64
		uploaderID int64
		want       bool
	}{
		{"room admin, any file", RoleAdmin, 5, 9, true},
		{"room creator, any file", RoleCreator, 7, 9, true},
		{"member, own file", RoleMember, 9, 9, true},
		{"member, someone else's file", RoleMember, 9, 5, false},
		{"unknown role, own file", "", 9, 9, true},
		{"unknown role, other file", "", 9, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanChangeVisibility(tt.role, tt.actorID, tt.uploaderID); got != tt.want {
				t.Errorf("CanChangeVisibility(%q, %d, %d) = %v, want %v",
					tt.role, tt.actorID, tt.uploaderID, got, tt.want)
			}
		})
	}
}
