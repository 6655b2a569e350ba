package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zauberjournal/journal-api/internal/iconmappings"
	"github.com/zauberjournal/journal-api/internal/icons"
	"github.com/zauberjournal/journal-api/internal/notifications"
	pkgAuth "github.com/zauberjournal/journal-api/pkg/auth"
	"github.com/zauberjournal/journal-api/pkg/config"
	"github.com/zauberjournal/journal-api/pkg/enums"
	"github.com/zauberjournal/journal-api/pkg/iconapi"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubFetcher struct {
	calls atomic.Int32
	icons []iconapi.Icon
}

func (f *stubFetcher) FetchIcons(context.Context) ([]iconapi.Icon, error) {
	f.calls.Add(1)
	return f.icons, nil
}

type stubMappingsService struct {
	created []iconmappings.CreateInput
}

func (s *stubMappingsService) List(context.Context) ([]iconmappings.MappingDTO, error) {
	return []iconmappings.MappingDTO{}, nil
}

func (s *stubMappingsService) PublicIcons(context.Context) ([]iconmappings.PublicIcon, error) {
	return []iconmappings.PublicIcon{{Keyword: "tomate", Emoji: "🍅"}}, nil
}

func (s *stubMappingsService) Create(_ context.Context, input iconmappings.CreateInput) (*iconmappings.MappingDTO, error) {
	s.created = append(s.created, input)
	return &iconmappings.MappingDTO{ID: uuid.New(), Keyword: input.Keyword, Emoji: input.Emoji}, nil
}

func (s *stubMappingsService) Update(context.Context, uuid.UUID, iconmappings.UpdateInput) (*iconmappings.MappingDTO, error) {
	return &iconmappings.MappingDTO{}, nil
}

func (s *stubMappingsService) Delete(context.Context, uuid.UUID) error {
	return nil
}

type testEnv struct {
	cfg      *config.Config
	router   http.Handler
	fetcher  *stubFetcher
	mappings *stubMappingsService
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", CORSAllowedOrigins: []string{"http://localhost:5173"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "zauberjournal", AccessTTL: time.Hour},
		RateLimit: config.RateLimitConfig{
			NotifyWindow: time.Minute,
			NotifyLimit:  30,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logg := logger.Discard()
	cfg := testConfig()

	center, err := notifications.NewCenter(logg)
	require.NoError(t, err)

	fetcher := &stubFetcher{icons: []iconapi.Icon{{Keyword: "tomate", Emoji: "🍅"}, {Keyword: "kirschtomate", Emoji: "🍒"}}}
	resolver, err := icons.NewResolver(fetcher, logg, nil)
	require.NoError(t, err)

	mappings := &stubMappingsService{}
	router := NewRouter(cfg, logg, stubPinger{}, nil, prometheus.NewRegistry(), center, resolver, mappings)
	return &testEnv{cfg: cfg, router: router, fetcher: fetcher, mappings: mappings}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{Subject: "kitchen@zauberjournal", Role: role})
	require.NoError(t, err)
	return token
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/metrics", "", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/public/ping", "", "").Code)
}

func TestNotificationLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/v1/notifications", `{"message":"Rezept gespeichert","type":"success","durationMs":0}`, "")
	require.Equal(t, http.StatusAccepted, resp.Code)
	resp = env.do(t, http.MethodPost, "/api/v1/notifications", `{"message":"Rezept gespeichert","type":"success","durationMs":0}`, "")
	require.Equal(t, http.StatusAccepted, resp.Code)

	resp = env.do(t, http.MethodGet, "/api/v1/notifications", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Data struct {
			Items []notifications.Notification `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list.Data.Items, 1, "duplicate must be suppressed")

	id := list.Data.Items[0].ID
	resp = env.do(t, http.MethodDelete, "/api/v1/notifications/"+jsonNumber(id), "", "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(t, http.MethodGet, "/api/v1/notifications", "", "")
	assert.JSONEq(t, `{"data":{"items":[]}}`, resp.Body.String())
}

func TestEmojiLookupLoadsOnce(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/icons/emoji?name=Kirschtomaten", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":{"name":"Kirschtomaten","emoji":"🍒","found":true}}`, resp.Body.String())

	resp = env.do(t, http.MethodGet, "/api/v1/icons/emoji?name=Tomate", "", "")
	assert.JSONEq(t, `{"data":{"name":"Tomate","emoji":"🍅","found":true}}`, resp.Body.String())
	assert.Equal(t, int32(1), env.fetcher.calls.Load())
}

func TestPublicIconTableIsUnwrapped(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/icon-mappings", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"icons":[{"keyword":"tomate","emoji":"🍅"}]}`, resp.Body.String())
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/admin/ping", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/admin/v1/icons/status", "", buildToken(t, env.cfg, enums.RoleViewer))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = env.do(t, http.MethodGet, "/api/admin/v1/icons/status", "", buildToken(t, env.cfg, enums.RoleAdmin))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":{"loaded":false,"loading":false,"count":0}}`, resp.Body.String())
}

func TestAdminInvalidateForcesRefetch(t *testing.T) {
	env := newTestEnv(t)
	token := buildToken(t, env.cfg, enums.RoleAdmin)

	env.do(t, http.MethodGet, "/api/v1/icons/emoji?name=tomate", "", "")
	resp := env.do(t, http.MethodPost, "/api/admin/v1/icons/invalidate", "", token)
	require.Equal(t, http.StatusOK, resp.Code)

	env.do(t, http.MethodGet, "/api/v1/icons/emoji?name=tomate", "", "")
	assert.Equal(t, int32(2), env.fetcher.calls.Load())
}

func TestAdminCreateMappingWithoutRedisSkipsIdempotency(t *testing.T) {
	env := newTestEnv(t)
	token := buildToken(t, env.cfg, enums.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/admin/v1/icon-mappings", `{"keyword":"gurke","emoji":"🥒"}`, token)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Len(t, env.mappings.created, 1)
}

func jsonNumber(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestNotificationPostIsRateLimitedWithoutRedis(t *testing.T) {
	env := newTestEnv(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 31; i++ {
		last = env.do(t, http.MethodPost, "/api/v1/notifications", `{"message":"spam"}`, "")
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
}
