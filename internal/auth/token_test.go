package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scpnet/authserver/types"
)

var testUser = types.User{
	ID:          "9f4c7d8e-0000-4000-8000-000000000001",
	Username:    "site_07",
	AccessLevel: types.AccessLevelDefault,
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("super-secret", time.Hour)

	token, err := codec.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != testUser.ID {
		t.Fatalf("UserID = %q, want %q", claims.UserID, testUser.ID)
	}
	if claims.Username != testUser.Username {
		t.Fatalf("Username = %q, want %q", claims.Username, testUser.Username)
	}
	if claims.AccessLevel != testUser.AccessLevel {
		t.Fatalf("AccessLevel = %q, want %q", claims.AccessLevel, testUser.AccessLevel)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("super-secret", -time.Minute)
	token, err := codec.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = codec.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer := NewTokenCodec("right-secret", time.Hour)
	verifier := NewTokenCodec("wrong-secret", time.Hour)

	token, err := issuer.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("super-secret", time.Hour)
	token, err := codec.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Flip the last signature byte.
	last := token[len(token)-1]
	replacement := byte('A')
	if last == replacement {
		replacement = 'B'
	}
	tampered := token[:len(token)-1] + string(replacement)

	_, err = codec.Verify(tampered)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

// A forged token must fail as invalid even when it is also expired:
// signature integrity is checked first.
func TestForgedBeatsExpired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenCodec("attacker-secret", -time.Minute)
	verifier := NewTokenCodec("super-secret", time.Hour)

	token, err := issuer.Issue(testUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("super-secret", time.Hour)
	for _, input := range []string{"", "garbage", strings.Repeat("a.b.c", 3)} {
		if _, err := codec.Verify(input); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q) err = %v, want ErrInvalidToken", input, err)
		}
	}
}
