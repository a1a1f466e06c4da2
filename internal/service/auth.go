package service

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mzhao/parley/internal/models"
	"github.com/mzhao/parley/internal/store"
)

const maxRecentLogins = 3

// Result carries the outcome of signup/login so callers can render validation
// failures inline. An error return is reserved for store failures.
type Result struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
}

// AuthService owns the auth-state aggregate: users, the current-user pointer
// and the recent-logins ring. The mutex serializes every read-modify-write of
// the aggregate, since the store gives no atomicity across load and save.
type AuthService struct {
	store store.Store
	mu    sync.Mutex
}

func NewAuthService(st store.Store) *AuthService {
	return &AuthService{store: st}
}

// hashPassword is a deliberately weak placeholder digest (a rolling 31x string
// hash), kept so stored state is inspectable in development. Not a security
// boundary; documented as such.
func hashPassword(password string) string {
	var hash int32
	for _, r := range password {
		hash = (hash<<5 - hash) + int32(r)
	}
	return strconv.Itoa(int(hash))
}

func avatarURL(style, seed string) string {
	return "https://api.dicebear.com/7.x/" + style + "/svg?seed=" + url.QueryEscape(seed)
}

func (s *AuthService) Signup(name, email, phone, password string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadAuthState()
	if err != nil {
		return Result{}, fmt.Errorf("load auth state: %w", err)
	}

	for _, u := range state.Users {
		if u.Email == email {
			return Result{Message: "User with this email already exists"}, nil
		}
	}

	user := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Avatar:    avatarURL("avataaars", name),
		Password:  hashPassword(password),
		CreatedAt: time.Now().UTC(),
	}
	state.Users = append(state.Users, user)

	if err := s.store.SaveAuthState(state); err != nil {
		return Result{}, fmt.Errorf("save auth state: %w", err)
	}
	return Result{Success: true, Message: "Account created successfully", User: &user}, nil
}

func (s *AuthService) Login(email, password string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadAuthState()
	if err != nil {
		return Result{}, fmt.Errorf("load auth state: %w", err)
	}

	digest := hashPassword(password)
	idx := -1
	for i, u := range state.Users {
		if u.Email == email && u.Password == digest {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Result{Message: "Invalid email or password"}, nil
	}

	state.Users[idx].IsOnline = true
	user := state.Users[idx]
	state.CurrentUser = &user

	// Move this user to the front of the recent-logins ring, capped at three.
	recent := []string{user.ID}
	for _, id := range state.RecentLogins {
		if id != user.ID && len(recent) < maxRecentLogins {
			recent = append(recent, id)
		}
	}
	state.RecentLogins = recent

	if err := s.store.SaveAuthState(state); err != nil {
		return Result{}, fmt.Errorf("save auth state: %w", err)
	}
	return Result{Success: true, Message: "Login successful", User: &user}, nil
}

// Logout clears the current-user pointer and flips that user offline. No-op
// when nobody is logged in.
func (s *AuthService) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadAuthState()
	if err != nil {
		return fmt.Errorf("load auth state: %w", err)
	}
	if state.CurrentUser == nil {
		return nil
	}

	for i := range state.Users {
		if state.Users[i].ID == state.CurrentUser.ID {
			state.Users[i].IsOnline = false
			break
		}
	}
	state.CurrentUser = nil

	if err := s.store.SaveAuthState(state); err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}
	return nil
}

func (s *AuthService) GetCurrentUser() (*models.User, error) {
	state, err := s.store.LoadAuthState()
	if err != nil {
		return nil, fmt.Errorf("load auth state: %w", err)
	}
	return state.CurrentUser, nil
}

// GetRecentUsers returns the recently-logged-in users, most recent first.
// Ids that no longer resolve to a user are dropped silently.
func (s *AuthService) GetRecentUsers() ([]models.User, error) {
	state, err := s.store.LoadAuthState()
	if err != nil {
		return nil, fmt.Errorf("load auth state: %w", err)
	}

	var users []models.User
	for _, id := range state.RecentLogins {
		for _, u := range state.Users {
			if u.ID == id {
				users = append(users, u)
				break
			}
		}
	}
	return users, nil
}

func (s *AuthService) GetAllUsers() ([]models.User, error) {
	state, err := s.store.LoadAuthState()
	if err != nil {
		return nil, fmt.Errorf("load auth state: %w", err)
	}
	return state.Users, nil
}

// UpdateUserStatus flips a user's online flag. No-op for an unknown id.
func (s *AuthService) UpdateUserStatus(userID string, isOnline bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadAuthState()
	if err != nil {
		return fmt.Errorf("load auth state: %w", err)
	}

	for i := range state.Users {
		if state.Users[i].ID == userID {
			state.Users[i].IsOnline = isOnline
			if err := s.store.SaveAuthState(state); err != nil {
				return fmt.Errorf("save auth state: %w", err)
			}
			return nil
		}
	}
	return nil
}
