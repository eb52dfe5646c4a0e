package auth

import (
	"errors"
	"testing"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifierFromPlaintext(map[string]struct{ Password, DisplayName string }{
		"Admin@Jasper.example": {Password: "correct-horse-battery", DisplayName: "Portal Admin"},
		"ops@jasper.example":   {Password: "staple-pony-42", DisplayName: "Ops Desk"},
	})
	if err != nil {
		t.Fatalf("NewVerifierFromPlaintext failed: %v", err)
	}
	return v
}

func TestVerifier_Verify(t *testing.T) {
	v := newTestVerifier(t)

	tests := []struct {
		name      string
		email     string
		password  string
		expectErr bool
		wantEmail string
	}{
		{
			name:      "valid credentials",
			email:     "admin@jasper.example",
			password:  "correct-horse-battery",
			wantEmail: "admin@jasper.example",
		},
		{
			name:      "email lookup is case-insensitive",
			email:     "ADMIN@JASPER.EXAMPLE",
			password:  "correct-horse-battery",
			wantEmail: "admin@jasper.example",
		},
		{
			name:      "email is trimmed",
			email:     "  ops@jasper.example  ",
			password:  "staple-pony-42",
			wantEmail: "ops@jasper.example",
		},
		{
			name:      "wrong password",
			email:     "admin@jasper.example",
			password:  "wrong",
			expectErr: true,
		},
		{
			name:      "unknown email",
			email:     "nobody@jasper.example",
			password:  "correct-horse-battery",
			expectErr: true,
		},
		{
			name:      "password comparison is case-sensitive",
			email:     "admin@jasper.example",
			password:  "CORRECT-HORSE-BATTERY",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(tt.email, tt.password)
			if tt.expectErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				// Failure is uniform regardless of which check failed
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("Expected ErrInvalidCredentials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if identity.Email != tt.wantEmail {
				t.Errorf("Expected email '%s', got '%s'", tt.wantEmail, identity.Email)
			}
			if identity.SubjectID != tt.wantEmail {
				t.Errorf("Expected subject_id '%s', got '%s'", tt.wantEmail, identity.SubjectID)
			}
		})
	}
}

func TestHashPassword_NotPlaintext(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter2" || len(hash) < 50 {
		t.Errorf("Expected a bcrypt hash, got '%s'", hash)
	}
}
