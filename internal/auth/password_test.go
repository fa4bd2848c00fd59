package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService returns a PasswordService with bcrypt's minimum cost
// so each hash takes milliseconds.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(bcrypt.MinCost)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_LengthLimit(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("Hash() should accept a %d-byte password, got error: %v", MaxPasswordBytes, err)
	}
	if _, err := ps.Hash(strings.Repeat("a", MaxPasswordBytes+1)); err == nil {
		t.Fatal("Hash() should reject passwords longer than the bcrypt limit")
	}
}

func TestNewPasswordServiceWithCost_OutOfRangeFallsBack(t *testing.T) {
	ps := NewPasswordServiceWithCost(99)
	if ps.cost != DefaultCost {
		t.Errorf("cost = %d, want %d", ps.cost, DefaultCost)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		if err := ps.Verify(hash, "correct-horse-battery-staple"); err != nil {
			t.Errorf("Verify() = %v, want nil", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		err := ps.Verify(hash, "wrong")
		if !errors.Is(err, ErrPasswordMismatch) {
			t.Errorf("Verify() = %v, want ErrPasswordMismatch", err)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		if err := ps.Verify(hash, ""); err == nil {
			t.Error("Verify() should fail for an empty password")
		}
	})

	t.Run("garbage hash", func(t *testing.T) {
		err := ps.Verify("not-a-valid-bcrypt-hash", "password")
		if err == nil {
			t.Fatal("Verify() should return an error for a garbage hash")
		}
		if errors.Is(err, ErrPasswordMismatch) {
			t.Error("a malformed hash should not look like a simple mismatch")
		}
	})
}

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}
			if err := ps.Verify(hash, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}
