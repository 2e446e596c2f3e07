package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/anomaly"
	"siem-anomaly-gateway/internal/auth"
	"siem-anomaly-gateway/internal/data"
	"siem-anomaly-gateway/internal/query"
	"siem-anomaly-gateway/internal/refresh"
	"siem-anomaly-gateway/internal/storage"
)

type stubSource struct{ events []data.Event }

func (s *stubSource) Load() ([]data.Event, error) { return s.events, nil }

func testHandler(t *testing.T, authCfg auth.Config) (*Handler, *storage.EventStore) {
	t.Helper()
	classifier, err := anomaly.NewClassifier(nil)
	require.NoError(t, err)
	store := storage.NewEventStore()
	engine := query.NewEngine(classifier)

	sched := refresh.NewScheduler(refresh.Options{
		Interval: time.Hour,
		LogPath:  t.TempDir() + "/alerts.csv",
		DefaultSpec: func(now time.Time) query.Spec {
			spec, _ := query.NewSpec(time.Time{}, 0, 1e9, nil, query.LabelAll)
			return spec
		},
	}, &stubSource{}, store, engine, nil, nil, zap.NewNop())

	h := NewHandler(store, engine, sched, nil, auth.NewManager(authCfg),
		ScoreDefaults{Min: 310, Max: 312}, zap.NewNop())
	return h, store
}

func populate(store *storage.EventStore, scores ...float64) {
	now := time.Now()
	events := make([]data.Event, len(scores))
	for i, sc := range scores {
		events[i] = data.Event{
			Timestamp:   now.Add(-time.Duration(i) * time.Minute),
			SampleIndex: i,
			Score:       sc,
			Anomalous:   true,
		}
	}
	store.Replace(events, now)
}

func TestHandleViewNoData(t *testing.T) {
	h, _ := testHandler(t, auth.Config{})
	router := SetupQueryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/view?range=all", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.NoData, "never-populated store is an explicit no-data state")
	assert.Empty(t, resp.Alerts)
}

func TestHandleView(t *testing.T) {
	h, store := testHandler(t, auth.Config{})
	populate(store, 310.5, 311.5, 312.5, 309.0)
	router := SetupQueryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/view?range=all&min_score=310&max_score=313&label=anomalous", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.NoData)
	assert.Equal(t, uint64(1), resp.Generation)
	assert.Equal(t, 4, resp.Summary.TotalCount)
	assert.Equal(t, 3, resp.Summary.FilteredCount) // 309.0 excluded
	require.Len(t, resp.Alerts, 3)
	assert.Equal(t, data.SeverityMedium, resp.Alerts[0].Severity)
	assert.Equal(t, data.SeverityCritical, resp.Alerts[2].Severity)
}

func TestHandleViewSeverityFilter(t *testing.T) {
	h, store := testHandler(t, auth.Config{})
	populate(store, 310.5, 311.5, 312.5)
	router := SetupQueryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/view?range=all&severity=Critical", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Alerts, 1)
	assert.Equal(t, data.SeverityCritical, resp.Alerts[0].Severity)
}

func TestHandleViewRejectsInvalidSpec(t *testing.T) {
	h, store := testHandler(t, auth.Config{})
	populate(store, 310.5)
	router := SetupQueryRouter(h)

	for _, target := range []string{
		"/api/v1/view?min_score=5&max_score=1",
		"/api/v1/view?range=fortnight",
		"/api/v1/view?severity=Extreme",
		"/api/v1/view?label=maybe",
		"/api/v1/view?cutoff=yesterday",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandleViewExplicitCutoff(t *testing.T) {
	h, store := testHandler(t, auth.Config{})
	populate(store, 310.5, 310.6, 310.7) // at now, -1m, -2m
	router := SetupQueryRouter(h)

	cutoff := time.Now().Add(-90 * time.Second).Format(time.RFC3339Nano)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/v1/view?cutoff="+strings.ReplaceAll(cutoff, "+", "%2B"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ViewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.FilteredCount)
}

func TestHandleStatus(t *testing.T) {
	h, _ := testHandler(t, auth.Config{})
	router := SetupQueryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status refresh.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Populated)
}

func TestHandleRefreshCoalesces(t *testing.T) {
	h, _ := testHandler(t, auth.Config{})
	router := SetupQueryRouter(h)

	// The scheduler is not running, so the first trigger occupies the slot
	// and the second is coalesced.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["triggered"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp["triggered"])
}

func TestAPIKeyGuard(t *testing.T) {
	h, _ := testHandler(t, auth.Config{APIKeys: []string{"sekrit"}})
	router := SetupQueryRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	h, _ := testHandler(t, auth.Config{
		JWTSecret:             "test-secret",
		JWTExpirationMinutes:  5,
		DashboardPasswordHash: hash,
	})
	router := SetupDashboardRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"password":"hunter2"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	// The websocket endpoint rejects requests without the token before any
	// upgrade is attempted.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
