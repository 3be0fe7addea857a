package helptoken

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/handlers/health"
	"github.com/helptoken/helptoken/internal/ledgerclient"
	"github.com/helptoken/helptoken/internal/lib/jwt"
	"github.com/helptoken/helptoken/internal/metrics"
	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/services/accounting"
	"github.com/helptoken/helptoken/internal/services/catalog"
	"github.com/helptoken/helptoken/internal/services/settlement"
	"github.com/helptoken/helptoken/internal/services/verification"
	"github.com/helptoken/helptoken/internal/storage/memory"
)

type recordingGateway struct {
	ledgerclient.Unconfigured
}

func (recordingGateway) RecordSession(context.Context, models.SettlementRequest) (string, error) {
	return "0xfeed", nil
}

type testAPI struct {
	t          *testing.T
	server     *httptest.Server
	tokens     *jwt.MakerImpl
	reconciler *settlement.Reconciler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	guard := authz.NewGuard()
	m := metrics.New(prometheus.NewRegistry())
	engine := accounting.NewEngine(logger, store, guard, m)
	reconciler := settlement.NewReconciler(logger, store, recordingGateway{}, guard, m, settlement.Config{})
	tokens := jwt.NewJWTMaker("test-secret", time.Hour)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Verification: verification.NewService(logger, store, engine, reconciler, guard, m),
		Accounting:   engine,
		Catalog:      catalog.NewService(logger, store, nil, time.Minute, guard),
		Settlements:  reconciler,
		Gateway:      recordingGateway{},
		Tokens:       tokens,
		Metrics:      m.Handler(),
		Health:       map[string]health.Pinger{"storage": store},
		RPS:          1000,
		Burst:        1000,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, tokens: tokens, reconciler: reconciler}
}

func (a *testAPI) token(role authz.Role) string {
	tok, err := a.tokens.GenerateToken(uuid.NewString(), string(role))
	require.NoError(a.t, err)
	return tok
}

func (a *testAPI) do(method, path, token string, body any) (int, gjson.Result) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, gjson.ParseBytes(raw)
}

func TestAPI_EarnAndRedeem(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token(authz.RoleAdmin)
	verifier := api.token(authz.RoleVerifier)
	volunteer := api.token(authz.RoleVolunteer)

	status, body := api.do(http.MethodPost, "/api/v1/opportunities", admin, map[string]any{
		"title": "Park cleanup", "reward_rate": "2.5",
	})
	require.Equal(t, http.StatusCreated, status, body.Raw)
	oppID := body.Get("data.id").Int()

	status, body = api.do(http.MethodPost, "/api/v1/marketplace/items", admin, map[string]any{
		"title": "Bus pass", "cost": "6",
	})
	require.Equal(t, http.StatusCreated, status, body.Raw)
	itemID := body.Get("data.id").Int()

	status, body = api.do(http.MethodPost, "/api/v1/sessions", volunteer, map[string]any{
		"opportunity_id": oppID, "hours": "4", "description": "collected litter",
	})
	require.Equal(t, http.StatusCreated, status, body.Raw)
	sessionID := strconv.FormatInt(body.Get("data.id").Int(), 10)
	assert.Equal(t, "pending_verification", body.Get("data.status").String())

	status, _ = api.do(http.MethodPut, "/api/v1/sessions/"+sessionID+"/decision", volunteer, map[string]any{"approved": true})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = api.do(http.MethodGet, "/api/v1/sessions/pending", verifier, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body.Get("data").Array(), 1)

	status, body = api.do(http.MethodPut, "/api/v1/sessions/"+sessionID+"/decision", verifier, map[string]any{"approved": true})
	require.Equal(t, http.StatusOK, status, body.Raw)
	assert.Equal(t, "verified", body.Get("data.status").String())
	assert.Equal(t, "10", body.Get("data.tokens_earned").String())

	status, _ = api.do(http.MethodPut, "/api/v1/sessions/"+sessionID+"/decision", verifier, map[string]any{"approved": false})
	assert.Equal(t, http.StatusConflict, status)

	status, body = api.do(http.MethodGet, "/api/v1/me/balance", volunteer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10", body.Get("data.balance").String())
	assert.Equal(t, int64(1), body.Get("data.total_projects").Int())

	status, body = api.do(http.MethodPost, "/api/v1/marketplace/redeem", volunteer, map[string]any{"item_id": itemID})
	require.Equal(t, http.StatusCreated, status, body.Raw)
	status, _ = api.do(http.MethodPost, "/api/v1/marketplace/redeem", volunteer, map[string]any{"item_id": itemID})
	assert.Equal(t, http.StatusPaymentRequired, status)

	status, body = api.do(http.MethodGet, "/api/v1/me/balance", volunteer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "4", body.Get("data.balance").String())

	status, body = api.do(http.MethodGet, "/api/v1/me/transactions", volunteer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "spend", body.Get("data.0.type").String())
	assert.Equal(t, "earn", body.Get("data.1.type").String())
}

func TestAPI_SettlementFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token(authz.RoleAdmin)
	verifier := api.token(authz.RoleVerifier)
	volunteer := api.token(authz.RoleVolunteer)

	_, body := api.do(http.MethodPost, "/api/v1/opportunities", admin, map[string]any{"title": "Food bank", "reward_rate": "1"})
	oppID := body.Get("data.id").Int()
	status, _ := api.do(http.MethodPut, "/api/v1/me/wallet", volunteer, map[string]any{
		"wallet_address": "0xabcdef0123456789abcdef0123456789abcdef01",
	})
	require.Equal(t, http.StatusOK, status)

	_, body = api.do(http.MethodPost, "/api/v1/sessions", volunteer, map[string]any{"opportunity_id": oppID, "hours": "1.5"})
	sessionID := strconv.FormatInt(body.Get("data.id").Int(), 10)
	status, _ = api.do(http.MethodPut, "/api/v1/sessions/"+sessionID+"/decision", verifier, map[string]any{"approved": true})
	require.Equal(t, http.StatusOK, status)

	status, body = api.do(http.MethodGet, "/api/v1/sessions/"+sessionID, volunteer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pending", body.Get("data.settlement.status").String())
	assert.Equal(t, int64(90), body.Get("data.settlement.minutes").Int())

	n, err := api.reconciler.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	status, body = api.do(http.MethodGet, "/api/v1/settlements?status=confirmed", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0xfeed", body.Get("data.0.external_reference").String())

	status, _ = api.do(http.MethodGet, "/api/v1/settlements", volunteer, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_AuthAndHealth(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(http.MethodGet, "/api/v1/opportunities", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodGet, "/api/v1/opportunities", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Get("data.dependencies.storage").String())

	resp, err := http.Get(api.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_SwaggerDocs(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.server.URL + "/docs/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	doc := gjson.ParseBytes(raw)
	assert.Equal(t, "HelpToken API", doc.Get("info.title").String())
	assert.Equal(t, "/api/v1", doc.Get("basePath").String())
	for _, path := range []string{"/sessions", "/sessions/{id}/decision", "/marketplace/redeem", "/settlements/{id}/retry"} {
		assert.True(t, doc.Get("paths").Get(gjson.Escape(path)).Exists(), "path %s is not documented", path)
	}
}
