package user

import "testing"

func TestParseGlobalRole(t *testing.T) {
	tests := []struct {
		in   string
		want GlobalRole
	}{
		{"user", GlobalRoleUser},
		{"admin", GlobalRoleAdmin},
		{"superadmin", GlobalRoleSuperadmin},
		{"ADMIN", GlobalRoleAdmin},
		{" user ", GlobalRoleUser},
		{"moderator", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ParseGlobalRole(tt.in); got != tt.want {
			t.Errorf("ParseGlobalRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsOperator(t *testing.T) {
	if GlobalRoleUser.IsOperator() {
		t.Error("user role should not be an operator")
	}
	if !GlobalRoleAdmin.IsOperator() {
		t.Error("admin role should be an operator")
	}
	if !GlobalRoleSuperadmin.IsOperator() {
		t.Error("superadmin role should be an operator")
	}
	if GlobalRole("").IsOperator() {
		t.Error("unknown role should not be an operator")
	}
}
