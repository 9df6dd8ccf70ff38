package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProviderCatalog_Default(t *testing.T) {
	catalog, err := LoadProviderCatalog("")
	if err != nil {
		t.Fatalf("LoadProviderCatalog() error = %v, want nil", err)
	}

	providers := catalog.GetProviders()
	if len(providers) != 2 {
		t.Fatalf("GetProviders() returned %d providers, want 2", len(providers))
	}

	if catalog.GetDefaultProvider() != ProviderGemini {
		t.Errorf("GetDefaultProvider() = %s, want %s", catalog.GetDefaultProvider(), ProviderGemini)
	}
}

func TestLoadProviderCatalog_ValidFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "providers.json")

	validJSON := `[
		{"id": "openai", "name": "OpenAI", "model": "gpt-4o-mini", "role": "primary"},
		{"id": "gemini", "name": "Google Gemini", "model": "gemini-2.5-flash", "role": "secondary"}
	]`

	if err := os.WriteFile(configPath, []byte(validJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	catalog, err := LoadProviderCatalog(configPath)
	if err != nil {
		t.Fatalf("LoadProviderCatalog() error = %v, want nil", err)
	}

	if catalog.GetDefaultProvider() != ProviderOpenAI {
		t.Errorf("GetDefaultProvider() = %s, want %s", catalog.GetDefaultProvider(), ProviderOpenAI)
	}
}

func TestLoadProviderCatalog_FileNotFound(t *testing.T) {
	catalog, err := LoadProviderCatalog("/nonexistent/path/providers.json")
	if err == nil {
		t.Error("LoadProviderCatalog() error = nil, want error for nonexistent file")
	}
	if catalog != nil {
		t.Error("LoadProviderCatalog() returned non-nil catalog for nonexistent file")
	}
}

func TestLoadProviderCatalog_InvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte(`{ this is not valid json }`), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	catalog, err := LoadProviderCatalog(configPath)
	if err == nil {
		t.Error("LoadProviderCatalog() error = nil, want error for invalid JSON")
	}
	if catalog != nil {
		t.Error("LoadProviderCatalog() returned non-nil catalog for invalid JSON")
	}
}

func TestNewProviderCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		providers []ProviderInfo
	}{
		{name: "single provider", providers: []ProviderInfo{{ID: "gemini"}}},
		{name: "three providers", providers: []ProviderInfo{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
		{name: "duplicate id", providers: []ProviderInfo{{ID: "gemini"}, {ID: "gemini"}}},
		{name: "empty id", providers: []ProviderInfo{{ID: "gemini"}, {ID: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProviderCatalog(tt.providers); err == nil {
				t.Error("NewProviderCatalog() error = nil, want error")
			}
		})
	}
}

func TestProviderCatalog_IsValidAndOther(t *testing.T) {
	catalog, _ := NewProviderCatalog(DefaultProviders())

	tests := []struct {
		id        string
		wantValid bool
		wantOther string
	}{
		{id: "gemini", wantValid: true, wantOther: "openai"},
		{id: "openai", wantValid: true, wantOther: "gemini"},
		{id: "claude", wantValid: false, wantOther: "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := catalog.IsValidProvider(tt.id); got != tt.wantValid {
				t.Errorf("IsValidProvider(%s) = %v, want %v", tt.id, got, tt.wantValid)
			}
			if got := catalog.Other(tt.id); got != tt.wantOther {
				t.Errorf("Other(%s) = %s, want %s", tt.id, got, tt.wantOther)
			}
		})
	}
}
