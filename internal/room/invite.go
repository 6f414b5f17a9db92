package room

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Invite codes are 8 characters drawn from an alphabet without 0/O and 1/I,
// generated uppercase and matched case-insensitively.
const (
	inviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// InviteCode is an opaque token granting membership in one room, optionally
// bounded by a use count and/or an expiry time. A code with neither bound
// never deactivates on its own; it exists until explicitly revoked.
type InviteCode struct {
	ID          int64      `json:"id"`
	RoomID      int64      `json:"room_id"`
	Code        string     `json:"code"`
	MaxUses     *int       `json:"max_uses,omitempty"`
	CurrentUses int        `json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Exhausted reports whether the use bound has been reached
func (c *InviteCode) Exhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}

// Usable decides whether the code currently grants entry. The stored
// is_active flag alone is not enough: it is only refreshed when a use is
// consumed, so remaining uses and expiry are re-derived on every read.
func (c *InviteCode) Usable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.Exhausted() {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}

// NormalizeCode maps user input onto the stored representation
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateCode produces a random invite code token
func generateCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf), nil
}
