package handlers

import (
	"credit-chat/internal/auth"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CreditsResponse struct {
	Credits int `json:"credits"`
}

type GrantRequest struct {
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount"`
	Credits int    `json:"credits"`
}

type GrantResponse struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
	Amount  int64  `json:"amount"`
}

// GetCredits handles GET /api/credits
func (h *Handlers) GetCredits(c *gin.Context) {
	balance, err := h.credits.GetBalance(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to load credits")
		return
	}
	respondOK(c, http.StatusOK, CreditsResponse{Credits: balance})
}

// GrantCredits handles POST /api/admin/credits
func (h *Handlers) GrantCredits(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	account, err := h.credits.Grant(c.Request.Context(), req.UserID, req.Amount, req.Credits, auth.RequestIDFrom(c))
	if err != nil {
		respondError(c, err, "Failed to add credits")
		return
	}

	respondOK(c, http.StatusOK, GrantResponse{UserID: account.UserID, Credits: account.Credits, Amount: account.Amount})
}
