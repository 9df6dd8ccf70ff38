package api

import (
	"bytes"
	"context"
	"credit-chat/internal/app"
	"credit-chat/internal/config"
	"credit-chat/internal/repository/db"
	"credit-chat/internal/repository/sqlstore"
	"credit-chat/internal/service/cost"
	"credit-chat/internal/service/llm"
	"credit-chat/internal/testutil"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success          bool            `json:"success"`
	Data             json.RawMessage `json:"data"`
	Error            string          `json:"error"`
	RemainingCredits *int            `json:"remainingCredits"`
}

type testServer struct {
	router *gin.Engine
	store  *sqlstore.Store
	gemini *testutil.MockProvider
}

func newTestServer(t *testing.T, balance int, limits config.RateLimitConfig) *testServer {
	t.Helper()

	store, err := sqlstore.NewSQLiteDB(":memory:", balance)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	gemini := &testutil.MockProvider{ChatFunc: func(ctx context.Context, message string) (string, error) {
		return "Answer to: " + message, nil
	}}
	openai := &testutil.MockProvider{ChatFunc: func(ctx context.Context, message string) (string, error) {
		return "", fmt.Errorf("openai unavailable")
	}}

	catalog := testutil.NewMockCatalog()
	registry, err := llm.NewRegistry(catalog, map[string]llm.Provider{"gemini": gemini, "openai": openai})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	appConfig := &config.AppConfig{
		Server:    config.ServerConfig{Env: "test", AllowedOrigin: "http://localhost:3000"},
		Chat:      config.DefaultChatConfig(),
		Credits:   config.CreditsConfig{DefaultBalance: balance},
		RateLimit: limits,
		Auth: config.AuthConfig{
			JWTSecret:       []byte("test-secret-that-is-at-least-32-characters"),
			TokenExpiration: time.Hour,
		},
		Providers: catalog,
	}

	cfg := app.NewConfig(store, appConfig, client, registry)
	return &testServer{router: NewRouter(cfg), store: store, gemini: gemini}
}

func defaultLimits() config.RateLimitConfig {
	return config.RateLimitConfig{DailyLimit: 100, SubscriberDailyLimit: 200, BurstPerMinute: 100}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil && w.Code != http.StatusNoContent {
		t.Fatalf("Invalid JSON response for %s %s: %s", method, path, w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) token(t *testing.T, code int, env envelope) string {
	t.Helper()
	if !env.Success {
		t.Fatalf("Expected success, got %d: %s", code, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Token == "" {
		t.Fatal("Expected a token")
	}
	return data.Token
}

type chatData struct {
	Reply            string `json:"reply"`
	RemainingCredits *int   `json:"remainingCredits"`
	Cached           bool   `json:"cached"`
}

func decodeChat(t *testing.T, env envelope) chatData {
	t.Helper()
	var data chatData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Invalid chat data: %v", err)
	}
	return data
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t, 3, defaultLimits())
	creds := map[string]string{"email": "ada@example.com", "password": "correct-horse"}

	code, env := s.do(t, http.MethodPost, "/api/register", "", creds)
	if code != http.StatusCreated {
		t.Fatalf("Expected 201 on register, got %d: %s", code, env.Error)
	}
	s.token(t, code, env)

	if code, _ := s.do(t, http.MethodPost, "/api/register", "", creds); code != http.StatusConflict {
		t.Errorf("Expected 409 on duplicate register, got %d", code)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-password"}); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 on wrong password, got %d", code)
	}

	code, env = s.do(t, http.MethodPost, "/api/login", "", creds)
	if code != http.StatusOK {
		t.Fatalf("Expected 200 on login, got %d", code)
	}
	token := s.token(t, code, env)

	if code, _ := s.do(t, http.MethodPost, "/api/chat", "", map[string]string{"message": "hi"}); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", code)
	}

	code, env = s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "What is React?", "provider": "gemini"})
	if code != http.StatusOK {
		t.Fatalf("Expected 200 on chat, got %d: %s", code, env.Error)
	}
	first := decodeChat(t, env)
	if first.Cached || first.RemainingCredits == nil || *first.RemainingCredits != 2 {
		t.Errorf("Expected fresh reply with 2 credits left, got %+v", first)
	}

	code, env = s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "what is react?"})
	second := decodeChat(t, env)
	if code != http.StatusOK || !second.Cached || second.RemainingCredits != nil {
		t.Errorf("Expected cached reply with null credits, got %d %+v", code, second)
	}
	if second.Reply != first.Reply {
		t.Errorf("Expected identical cached reply, got %q", second.Reply)
	}

	code, env = s.do(t, http.MethodGet, "/api/credits", token, nil)
	var credits struct {
		Credits int `json:"credits"`
	}
	json.Unmarshal(env.Data, &credits)
	if code != http.StatusOK || credits.Credits != 2 {
		t.Errorf("Expected 2 credits, got %d (status %d)", credits.Credits, code)
	}

	s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "second question"})
	s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "third question"})

	code, env = s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "fourth question"})
	if code != http.StatusPaymentRequired {
		t.Fatalf("Expected 402 when out of credits, got %d", code)
	}
	if env.Error != "Insufficient credits" || env.RemainingCredits == nil || *env.RemainingCredits != 0 {
		t.Errorf("Unexpected insufficient credits envelope: %+v", env)
	}
	if s.gemini.Calls() != 3 {
		t.Errorf("Expected 3 provider calls, got %d", s.gemini.Calls())
	}
}

func TestChat_BadRequests(t *testing.T) {
	s := newTestServer(t, 10, defaultLimits())
	_, env := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "bob@example.com", "password": "correct-horse"})
	token := s.token(t, http.StatusCreated, env)

	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{name: "empty message", body: map[string]string{"message": "  "}, want: "Message cannot be empty"},
		{name: "unknown provider", body: map[string]string{"message": "hi", "provider": "claude"}, want: "unsupported provider: claude"},
		{name: "unknown field", body: map[string]string{"message": "hi", "history": "x"}, want: "Invalid request body"},
		{name: "malformed json", body: "{not json", want: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/api/chat", token, tt.body)
			if code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", code)
			}
			if env.Success || env.Error != tt.want {
				t.Errorf("Expected error %q, got %q", tt.want, env.Error)
			}
		})
	}

	if s.gemini.Calls() != 0 {
		t.Errorf("Expected no provider calls, got %d", s.gemini.Calls())
	}
}

func TestChat_DailyLimit(t *testing.T) {
	s := newTestServer(t, 10, config.RateLimitConfig{DailyLimit: 2, SubscriberDailyLimit: 5, BurstPerMinute: 100})
	_, env := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "eve@example.com", "password": "correct-horse"})
	token := s.token(t, http.StatusCreated, env)

	for i := 0; i < 2; i++ {
		if code, _ := s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": fmt.Sprintf("q%d", i)}); code != http.StatusOK {
			t.Fatalf("Expected request %d to succeed, got %d", i+1, code)
		}
	}

	code, env := s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "q3"})
	if code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", code)
	}
	if env.Success {
		t.Error("Expected error envelope")
	}
}

func TestChat_BurstLimit(t *testing.T) {
	s := newTestServer(t, 10, config.RateLimitConfig{DailyLimit: 100, SubscriberDailyLimit: 100, BurstPerMinute: 1})
	_, env := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "mal@example.com", "password": "correct-horse"})
	token := s.token(t, http.StatusCreated, env)

	if code, _ := s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "first"}); code != http.StatusOK {
		t.Fatalf("Expected first request to succeed, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "second"}); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 on burst, got %d", code)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, 5, defaultLimits())
	ctx := context.Background()

	if _, err := s.store.CreateUser(ctx, "root@example.com", "admin-password", db.RoleAdmin); err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	_, env := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "root@example.com", "password": "admin-password"})
	adminToken := s.token(t, http.StatusOK, env)

	_, env = s.do(t, http.MethodPost, "/api/register", "", map[string]string{"email": "user@example.com", "password": "correct-horse"})
	userToken := s.token(t, http.StatusCreated, env)
	user, err := s.store.GetUserByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Failed to load user: %v", err)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/admin/events", userToken, nil); code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", code)
	}

	s.do(t, http.MethodPost, "/api/chat", userToken, map[string]string{"message": "What is Go?"})

	code, env := s.do(t, http.MethodPost, "/api/admin/credits", adminToken, map[string]interface{}{"user_id": user.ID, "amount": 500, "credits": 100})
	if code != http.StatusOK {
		t.Fatalf("Expected 200 on grant, got %d: %s", code, env.Error)
	}
	var granted struct {
		Credits int `json:"credits"`
	}
	json.Unmarshal(env.Data, &granted)
	if granted.Credits != 104 {
		t.Errorf("Expected 104 credits after grant, got %d", granted.Credits)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/admin/credits", adminToken, map[string]interface{}{"user_id": user.ID, "amount": 0, "credits": 100}); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for zero amount, got %d", code)
	}

	code, env = s.do(t, http.MethodGet, "/api/admin/events?limit=10", adminToken, nil)
	var events struct {
		Events []struct {
			Name string `json:"event"`
		} `json:"events"`
	}
	json.Unmarshal(env.Data, &events)
	if code != http.StatusOK || len(events.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d (status %d)", len(events.Events), code)
	}
	if events.Events[0].Name != "ai_usage" || events.Events[1].Name != "credit_purchase" {
		t.Errorf("Unexpected event order: %+v", events.Events)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/admin/events?limit=abc", adminToken, nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", code)
	}

	code, env = s.do(t, http.MethodGet, "/api/admin/costs/"+user.ID, adminToken, nil)
	var costs struct {
		Total string `json:"total"`
	}
	json.Unmarshal(env.Data, &costs)
	want := cost.Estimate("chat", config.ProviderGemini, "gemini-2.5-flash")
	if code != http.StatusOK || !decimal.RequireFromString(costs.Total).Equal(want) {
		t.Errorf("Expected total %s, got %q (status %d)", want, costs.Total, code)
	}
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t, 5, defaultLimits())

	code, env := s.do(t, http.MethodGet, "/api/providers", "", nil)
	var providers struct {
		Providers []config.ProviderInfo `json:"providers"`
		Default   string                `json:"default"`
	}
	json.Unmarshal(env.Data, &providers)
	if code != http.StatusOK || len(providers.Providers) != 2 || providers.Default != "gemini" {
		t.Errorf("Unexpected providers response: %d %+v", code, providers)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/health", "", nil); code != http.StatusOK {
		t.Errorf("Expected 200 on health, got %d", code)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/billing/webhook", "", "{}"); code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when billing is unconfigured, got %d", code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, 5, defaultLimits())

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}
