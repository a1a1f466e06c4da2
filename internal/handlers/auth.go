package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mzhao/parley/internal/auth"
	"github.com/mzhao/parley/internal/middleware"
	"github.com/mzhao/parley/internal/models"
	"github.com/mzhao/parley/internal/service"
)

type AuthHandler struct {
	Auth   *service.AuthService
	Signer *auth.CookieSigner
}

// sanitize strips the password digest before a user leaves the HTTP surface.
func sanitize(u models.User) models.User {
	u.Password = ""
	return u
}

func sanitizeAll(users []models.User) []models.User {
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = sanitize(u)
	}
	return out
}

func writeResult(w http.ResponseWriter, status int, res service.Result) {
	if res.User != nil {
		u := sanitize(*res.User)
		res.User = &u
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(res)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.Auth.Signup(req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !res.Success {
		writeResult(w, http.StatusConflict, res)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !res.Success {
		writeResult(w, http.StatusUnauthorized, res)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    h.Signer.Sign(res.User.ID),
		Path:     "/",
		HttpOnly: true,
	})
	writeResult(w, http.StatusOK, res)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   middleware.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.GetAllUsers()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(sanitizeAll(users))
}

func (h *AuthHandler) GetRecentUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.GetRecentUsers()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(sanitizeAll(users))
}
