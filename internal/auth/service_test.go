package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mlazarev/chatd/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return NewService(st, jwtConfig)
}

func TestRegister_RejectsInvalidName(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "", "alice@example.com", "password123"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	// Whitespace-only names are rejected after trimming.
	if _, _, err := svc.Register(ctx, "   ", "alice@example.com", "password123"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestRegister_RejectsInvalidEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	for _, email := range []string{"", "not-an-email", "missing@"} {
		if _, _, err := svc.Register(ctx, "Alice", email, "password123"); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail for %q, got %v", email, err)
		}
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "1234567"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRegister_CreatesUserAndRejectsDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("expected registration success, got %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password must not be stored in the clear")
	}

	if _, _, err := svc.Register(ctx, "Other Alice", "alice@example.com", "password123"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin_GenericErrorForBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Unknown email and wrong password yield the exact same error.
	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")
	_, _, errWrongPwd := svc.Login(ctx, "alice@example.com", "wrong-password")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", errUnknown)
	}
	if !errors.Is(errWrongPwd, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", errWrongPwd)
	}
	if errUnknown.Error() != errWrongPwd.Error() {
		t.Fatal("credential errors must be indistinguishable")
	}
}

func TestLogin_TokensAreAdditive(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, token1, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	_, token2, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	if token1 == token2 {
		t.Fatal("each login must mint a distinct token")
	}

	// Both tokens stay valid.
	for _, token := range []string{token1, token2} {
		claims, err := svc.ValidateToken(token)
		if err != nil {
			t.Fatalf("token validation failed: %v", err)
		}
		if claims.Email != "alice@example.com" {
			t.Errorf("expected claims for alice, got %q", claims.Email)
		}
	}
}
