package handlers

import (
	"credit-chat/internal/apperrors"
	"credit-chat/internal/auth"
	"credit-chat/internal/logger"
	"credit-chat/internal/repository/db"
	"credit-chat/internal/repository/sqlstore"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Register handles POST /api/register
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.authValidator.ValidateRegisterRequest(req.Email, req.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.config.DB.CreateUser(ctx, req.Email, req.Password, db.RoleUser)
	if err != nil {
		respondError(c, err, "Error creating user")
		return
	}

	if _, err := h.credits.EnsureAccount(ctx, user.ID); err != nil {
		respondError(c, err, "Error creating credit account")
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		respondError(c, err, "Error generating token")
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	respondOK(c, http.StatusCreated, TokenResponse{Token: token})
}

// Login handles POST /api/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := h.authValidator.ValidateLoginRequest(req.Email, req.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.config.DB.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		respondError(c, err, "Login failed")
		return
	}
	if user == nil || !sqlstore.VerifyPassword(user, req.Password) {
		logger.Log.WithField("request_id", auth.RequestIDFrom(c)).Info("Login failed: invalid credentials")
		respondError(c, apperrors.ErrUnauthenticated, "")
		return
	}

	if _, err := h.credits.EnsureAccount(ctx, user.ID); err != nil {
		respondError(c, err, "Error loading credit account")
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		respondError(c, err, "Error generating token")
		return
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	respondOK(c, http.StatusOK, TokenResponse{Token: token})
}
