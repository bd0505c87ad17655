package domain

import "testing"

func TestUserStruct_DefaultZeroValues(t *testing.T) {
	var u User
	if u.ID != "" || u.Email != "" {
		t.Fatalf("expected empty identity")
	}
	if len(u.Roles) != 0 {
		t.Fatalf("expected no roles")
	}
}

func TestUser_HasRole(t *testing.T) {
	u := User{Roles: []string{string(RoleUser)}}
	if !u.HasRole("User") {
		t.Fatalf("expected role User")
	}
	if u.HasRole("Admin") {
		t.Fatalf("unexpected role Admin")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}

func TestNormalizeUserName(t *testing.T) {
	if got := NormalizeUserName(" alice_01 "); got != "ALICE_01" {
		t.Fatalf("unexpected normalized username %q", got)
	}
}
