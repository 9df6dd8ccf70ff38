package handlers

import (
	"credit-chat/internal/config"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ProvidersResponse struct {
	Providers []config.ProviderInfo `json:"providers"`
	Default   string                `json:"default"`
}

// GetProviders handles GET /api/providers
func (h *Handlers) GetProviders(c *gin.Context) {
	catalog := h.config.Providers()
	respondOK(c, http.StatusOK, ProvidersResponse{
		Providers: catalog.GetProviders(),
		Default:   catalog.GetDefaultProvider(),
	})
}

// Health handles GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}
