package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("CARECONNECT_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	u := User{ID: "u-1", Email: "dana@example.org", Name: "Dana", Role: RoleCoordinator}
	token, err := GenerateToken(u, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "u-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != RoleCoordinator {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if claims.Email != "dana@example.org" {
		t.Fatalf("unexpected email: %s", claims.Email)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Setenv("CARECONNECT_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	token, err := GenerateToken(User{ID: "u-1", Role: RoleUser}, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Setenv("CARECONNECT_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	for _, tok := range []string{"", "   ", "not.a.jwt"} {
		if _, err := ParseAndValidate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("ParseAndValidate(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestRoleOrdering(t *testing.T) {
	cases := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleAdmin, RoleCoordinator, true},
		{RoleAdmin, RoleUser, true},
		{RoleCoordinator, RoleUser, true},
		{RoleCoordinator, RoleAdmin, false},
		{RoleUser, RoleCoordinator, false},
		{Role("BOGUS"), RoleUser, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.min); got != tc.want {
			t.Fatalf("%s.AtLeast(%s) = %v, want %v", tc.role, tc.min, got, tc.want)
		}
	}
}

func TestUserStoreCreateAndLookup(t *testing.T) {
	store := NewInMemoryUsers()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, User{Email: "Ann@Example.org", Name: "Ann", Role: RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := store.UserByEmail(ctx, "ann@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatalf("lookup mismatch: %s != %s", got.ID, u.ID)
	}

	if _, err := store.CreateUser(ctx, User{Email: "ann@example.org", Name: "Other"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := store.UserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeedDemoUsers(t *testing.T) {
	store := NewInMemoryUsers()
	if err := store.SeedDemoUsers(); err != nil {
		t.Fatal(err)
	}

	admin, err := store.UserByEmail(context.Background(), "admin@careconnect.com")
	if err != nil {
		t.Fatal(err)
	}
	if admin.Role != RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", admin.Role)
	}
	if err := VerifyPassword(admin.PasswordHash, DemoPassword); err != nil {
		t.Fatalf("demo password should verify: %v", err)
	}

	// Seeding twice must not duplicate or overwrite.
	if err := store.SeedDemoUsers(); err != nil {
		t.Fatal(err)
	}
	if n := len(store.All()); n != 3 {
		t.Fatalf("expected 3 users, got %d", n)
	}
}
