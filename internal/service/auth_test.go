package service

import (
	"testing"

	"github.com/mzhao/parley/internal/store/sqlstore"
)

func newAuthService(t *testing.T) *AuthService {
	st, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewAuthService(st)
}

func TestSignupAndLogin(t *testing.T) {
	auth := newAuthService(t)

	res, err := auth.Signup("Alice", "alice@example.com", "555-0100", "secret")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if !res.Success || res.User == nil {
		t.Fatalf("Expected successful signup, got %+v", res)
	}
	if res.User.ID == "" {
		t.Error("Expected a user id to be assigned")
	}
	if res.User.IsOnline {
		t.Error("New users should start offline")
	}
	if res.User.Avatar == "" {
		t.Error("Expected a derived avatar URL")
	}

	login, err := auth.Login("alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !login.Success {
		t.Fatalf("Expected successful login, got %+v", login)
	}
	if login.User.ID != res.User.ID {
		t.Errorf("Login returned user %s, signup created %s", login.User.ID, res.User.ID)
	}
	if !login.User.IsOnline {
		t.Error("Expected user to be online after login")
	}

	current, err := auth.GetCurrentUser()
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if current == nil || current.ID != res.User.ID {
		t.Errorf("Expected current user %s, got %+v", res.User.ID, current)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	auth := newAuthService(t)

	auth.Signup("Alice", "alice@example.com", "", "secret")
	res, err := auth.Signup("Other Alice", "alice@example.com", "", "different")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if res.Success {
		t.Error("Expected duplicate email signup to be rejected")
	}
	if res.User != nil {
		t.Error("Rejected signup should not return a user")
	}

	users, _ := auth.GetAllUsers()
	if len(users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(users))
	}
}

func TestLoginBadCredentialsMutatesNothing(t *testing.T) {
	auth := newAuthService(t)
	auth.Signup("Alice", "alice@example.com", "", "secret")

	for _, tc := range []struct{ email, password string }{
		{"alice@example.com", "wrong"},
		{"nobody@example.com", "secret"},
	} {
		res, err := auth.Login(tc.email, tc.password)
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if res.Success {
			t.Errorf("Login(%s, %s) should fail", tc.email, tc.password)
		}
	}

	recent, _ := auth.GetRecentUsers()
	if len(recent) != 0 {
		t.Errorf("Failed logins must not touch recent logins, got %d entries", len(recent))
	}
	users, _ := auth.GetAllUsers()
	if users[0].IsOnline {
		t.Error("Failed login must not flip the user online")
	}
	current, _ := auth.GetCurrentUser()
	if current != nil {
		t.Errorf("Failed login must not set the current user, got %+v", current)
	}
}

func TestLogout(t *testing.T) {
	auth := newAuthService(t)

	// Logout with nobody logged in is a no-op.
	if err := auth.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	auth.Signup("Alice", "alice@example.com", "", "secret")
	auth.Login("alice@example.com", "secret")
	if err := auth.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	current, _ := auth.GetCurrentUser()
	if current != nil {
		t.Errorf("Expected no current user after logout, got %+v", current)
	}
	users, _ := auth.GetAllUsers()
	if users[0].IsOnline {
		t.Error("Expected user to be offline after logout")
	}
}

func TestRecentLoginsDedupAndCap(t *testing.T) {
	auth := newAuthService(t)

	for _, name := range []string{"a", "b", "c", "d"} {
		auth.Signup(name, name+"@example.com", "", "pw")
	}

	for _, name := range []string{"a", "b", "a", "c", "d"} {
		res, err := auth.Login(name+"@example.com", "pw")
		if err != nil || !res.Success {
			t.Fatalf("Login %s failed: %+v %v", name, res, err)
		}
	}

	recent, err := auth.GetRecentUsers()
	if err != nil {
		t.Fatalf("GetRecentUsers failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected recent logins capped at 3, got %d", len(recent))
	}
	got := []string{recent[0].Name, recent[1].Name, recent[2].Name}
	want := []string{"d", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Recent logins order: got %v, want %v", got, want)
			break
		}
	}
}

func TestUpdateUserStatus(t *testing.T) {
	auth := newAuthService(t)
	res, _ := auth.Signup("Alice", "alice@example.com", "", "secret")

	if err := auth.UpdateUserStatus(res.User.ID, true); err != nil {
		t.Fatalf("UpdateUserStatus failed: %v", err)
	}
	users, _ := auth.GetAllUsers()
	if !users[0].IsOnline {
		t.Error("Expected user to be online")
	}

	// Repeating the same status is idempotent, unknown ids are no-ops.
	if err := auth.UpdateUserStatus(res.User.ID, true); err != nil {
		t.Fatalf("UpdateUserStatus failed: %v", err)
	}
	if err := auth.UpdateUserStatus("missing", false); err != nil {
		t.Fatalf("UpdateUserStatus for unknown id failed: %v", err)
	}
}

func TestPasswordDigestIsNotPlaintext(t *testing.T) {
	auth := newAuthService(t)
	res, _ := auth.Signup("Alice", "alice@example.com", "", "secret")

	if res.User.Password == "secret" {
		t.Error("Password must be stored as a digest, not plaintext")
	}
	if hashPassword("secret") != hashPassword("secret") {
		t.Error("Digest must be deterministic")
	}
	if hashPassword("secret") == hashPassword("Secret") {
		t.Error("Digest should differ for different inputs")
	}
}
