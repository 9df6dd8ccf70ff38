package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderInfo describes a chat backend exposed to clients
type ProviderInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
	Role  string `json:"role"` // primary or secondary
}

// ProviderCatalog holds the available chat providers in preference order
type ProviderCatalog struct {
	providers []ProviderInfo
}

// DefaultProviders returns the built-in primary/secondary pair
func DefaultProviders() []ProviderInfo {
	return []ProviderInfo{
		{ID: ProviderGemini, Name: "Google Gemini", Model: "gemini-2.5-flash", Role: "primary"},
		{ID: ProviderOpenAI, Name: "OpenAI", Model: "gpt-4o-mini", Role: "secondary"},
	}
}

// NewProviderCatalog builds a catalog from an explicit list
func NewProviderCatalog(providers []ProviderInfo) (*ProviderCatalog, error) {
	if len(providers) != 2 {
		return nil, fmt.Errorf("exactly two providers are required, got %d", len(providers))
	}
	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if p.ID == "" {
			return nil, fmt.Errorf("provider id cannot be empty")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true
	}
	return &ProviderCatalog{providers: providers}, nil
}

// LoadProviderCatalog reads the catalog from a JSON file, or returns the
// built-in catalog when configPath is empty
func LoadProviderCatalog(configPath string) (*ProviderCatalog, error) {
	if configPath == "" {
		return NewProviderCatalog(DefaultProviders())
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var providers []ProviderInfo
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, err
	}

	return NewProviderCatalog(providers)
}

// GetProviders returns the configured providers
func (pc *ProviderCatalog) GetProviders() []ProviderInfo {
	return pc.providers
}

// IsValidProvider checks if a provider id is in the catalog
func (pc *ProviderCatalog) IsValidProvider(id string) bool {
	for _, p := range pc.providers {
		if p.ID == id {
			return true
		}
	}
	return false
}

// GetDefaultProvider returns the first provider as the default
func (pc *ProviderCatalog) GetDefaultProvider() string {
	if len(pc.providers) > 0 {
		return pc.providers[0].ID
	}
	return ProviderGemini
}

// Other returns the provider that is not id
func (pc *ProviderCatalog) Other(id string) string {
	for _, p := range pc.providers {
		if p.ID != id {
			return p.ID
		}
	}
	return ""
}
