package handlers

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/bizsites/libs/httpx"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/account"
	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/model"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toUser(u model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toSession(s account.Session) sessionResponse {
	return sessionResponse{Token: s.Token, TokenType: "Bearer", ExpiresAt: s.ExpiresAt, User: toUser(s.User)}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.accounts.Register(r.Context(), account.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSession(s))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSession(s))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.accounts.Me(r.Context(), a.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toUser(u)})
}
