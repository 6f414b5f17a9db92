package room

import (
	"strings"
	"testing"
	"time"
)

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func TestUsable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		code InviteCode
		want bool
	}{
		{"unbounded active code", InviteCode{IsActive: true}, true},
		{"inactive code", InviteCode{IsActive: false}, false},
		{
			// The stored flag can be stale; remaining uses win.
			"exhausted but flag still active",
			InviteCode{IsActive: true, MaxUses: intPtr(1), CurrentUses: 1},
			false,
		},
		{
			"uses remaining",
			InviteCode{IsActive: true, MaxUses: intPtr(5), CurrentUses: 4},
			true,
		},
		{
			"expired despite remaining uses",
			InviteCode{IsActive: true, MaxUses: intPtr(5), CurrentUses: 0, ExpiresAt: timePtr(past)},
			false,
		},
		{
			"expired unbounded code",
			InviteCode{IsActive: true, ExpiresAt: timePtr(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))},
			false,
		},
		{
			"not yet expired",
			InviteCode{IsActive: true, ExpiresAt: timePtr(future)},
			true,
		},
		{
			"expiry boundary is inclusive",
			InviteCode{IsActive: true, ExpiresAt: timePtr(now)},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.Usable(now); got != tt.want {
				t.Errorf("Usable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExhausted(t *testing.T) {
	if (&InviteCode{CurrentUses: 100}).Exhausted() {
		t.Error("code without max_uses can never be exhausted")
	}
	if (&InviteCode{MaxUses: intPtr(3), CurrentUses: 2}).Exhausted() {
		t.Error("code below its bound is not exhausted")
	}
	if !(&InviteCode{MaxUses: intPtr(3), CurrentUses: 3}).Exhausted() {
		t.Error("code at its bound is exhausted")
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode failed: %v", err)
		}
		if len(code) != inviteCodeLength {
			t.Fatalf("expected %d characters, got %q", inviteCodeLength, code)
		}
		for _, c := range code {
			if !strings.ContainsRune(inviteCodeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected mostly unique codes, got %d unique out of 50", len(seen))
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct{ in, want string }{
		{"abcd2345", "ABCD2345"},
		{"  ABCD2345 ", "ABCD2345"},
		{"AbCd2345", "ABCD2345"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
