package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRejectsOversizedInput(t *testing.T) {
	// 37 two-byte runes fit a 72 character limit but not bcrypt's byte limit
	if _, err := HashPassword(strings.Repeat("ă", 37)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !NeedsRehash(string(weak)) {
		t.Fatalf("a min-cost hash must be upgraded")
	}
	if !NeedsRehash("not-a-hash") {
		t.Fatalf("garbage must be replaced")
	}

	strong, err := HashPassword("password1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if NeedsRehash(strong) {
		t.Fatalf("fresh hash must be kept")
	}
	if ComparePassword(strong, "password1") != nil {
		t.Fatalf("password must match its hash")
	}
}
