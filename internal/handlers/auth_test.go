package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mzhao/parley/internal/auth"
	"github.com/mzhao/parley/internal/service"
	"github.com/mzhao/parley/internal/store/sqlstore"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	st, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return &AuthHandler{Auth: service.NewAuthService(st), Signer: auth.NewCookieSigner()}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest("POST", path, bytes.NewBuffer(body))
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSignup(t *testing.T) {
	h := newAuthHandler(t)

	payload := map[string]string{
		"name": "Alice", "email": "alice@example.com", "phone": "555-0100", "password": "secret",
	}
	rr := postJSON(t, h.Signup, "/signup", payload)
	if rr.Code != http.StatusCreated {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusCreated)
	}

	var res service.Result
	json.NewDecoder(rr.Body).Decode(&res)
	if !res.Success || res.User == nil {
		t.Fatalf("Expected success with user, got %+v", res)
	}
	if res.User.Password != "" {
		t.Error("Password digest must not leave the HTTP surface")
	}

	// Duplicate email is a conflict.
	rr = postJSON(t, h.Signup, "/signup", payload)
	if rr.Code != http.StatusConflict {
		t.Errorf("handler returned wrong status code for duplicate user: got %v want %v",
			rr.Code, http.StatusConflict)
	}
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(t)
	postJSON(t, h.Signup, "/signup", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret",
	})

	rr := postJSON(t, h.Login, "/login", map[string]string{
		"email": "alice@example.com", "password": "secret",
	})
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Expected session cookie to be set")
	}
	userID, err := h.Signer.Verify(cookies[0].Value)
	if err != nil || userID == "" {
		t.Errorf("Expected a signed user id cookie, got %q (%v)", cookies[0].Value, err)
	}

	rr = postJSON(t, h.Login, "/login", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code for bad password: got %v want %v",
			rr.Code, http.StatusUnauthorized)
	}
}

func TestLogout(t *testing.T) {
	h := newAuthHandler(t)
	postJSON(t, h.Signup, "/signup", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret",
	})
	postJSON(t, h.Login, "/login", map[string]string{
		"email": "alice@example.com", "password": "secret",
	})

	rr := postJSON(t, h.Logout, "/logout", nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNoContent)
	}

	current, _ := h.Auth.GetCurrentUser()
	if current != nil {
		t.Errorf("Expected no current user after logout, got %+v", current)
	}
}

func TestGetUsersStripsDigest(t *testing.T) {
	h := newAuthHandler(t)
	postJSON(t, h.Signup, "/signup", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "secret",
	})

	req, _ := http.NewRequest("GET", "/users", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.GetUsers).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}

	var users []map[string]any
	json.NewDecoder(rr.Body).Decode(&users)
	if len(users) != 1 {
		t.Fatalf("Expected 1 user, got %d", len(users))
	}
	if digest, ok := users[0]["password"]; ok && digest != "" {
		t.Errorf("Password digest leaked: %v", digest)
	}
}
