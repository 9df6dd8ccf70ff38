package handlers

import (
	"credit-chat/internal/analytics"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type EventsResponse struct {
	Events []analytics.Event `json:"events"`
}

type CostsResponse struct {
	UserID string `json:"user_id"`
	Total  string `json:"total"`
}

// Events handles GET /api/admin/events
func (h *Handlers) Events(c *gin.Context) {
	limit := analytics.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	respondOK(c, http.StatusOK, EventsResponse{Events: h.config.Events.Recent(limit)})
}

// UserCosts handles GET /api/admin/costs/:userID
func (h *Handlers) UserCosts(c *gin.Context) {
	userID := c.Param("userID")
	total := h.costs.UserTotal(c.Request.Context(), userID)
	respondOK(c, http.StatusOK, CostsResponse{UserID: userID, Total: total.String()})
}
