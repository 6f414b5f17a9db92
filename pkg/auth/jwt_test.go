package auth

import (
	"net/http"
	"testing"
	"time"
)

const testSecret = "this-is-a-test-secret-with-32-bytes!"

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	token, err := m.Generate(42, "admin")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("expected role admin, got %q", claims.Role)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := NewJWTManager(testSecret, -time.Minute)

	token, err := m.Generate(1, "user")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	other := NewJWTManager("a-completely-different-secret-key!!", time.Hour)

	token, err := m.Generate(1, "user")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("expected error for token signed with another secret, got nil")
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	if _, err := m.Verify("not.a.token"); err == nil {
		t.Error("expected error for malformed token, got nil")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer abc123", "abc123", false},
		{"lowercase scheme", "bearer abc123", "abc123", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"no token", "Bearer", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractTokenFromHeader(r)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got token %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected token %q, got %q", tt.want, got)
			}
		})
	}
}
