package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/ledger"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/logsource"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/metrics"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/platform/clock"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/store/memory"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/tracker"
)

const testDay = "2024-03-10"

type staticSource map[string]model.DayEvents

func (s staticSource) FetchDay(_ context.Context, key string) (model.DayEvents, error) {
	return s[key], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	src := staticSource{
		testDay: {
			Water: []model.ActivityEvent{{ID: "w1", Timestamp: testDay + "T09:00:00", Amount: 500}},
			Laptop: []model.ActivityEvent{
				{ID: "l1", Timestamp: testDay + "T10:00:00", DurationMinutes: 45, Category: "coding"},
				{ID: "l2", Timestamp: testDay + "T21:00:00", DurationMinutes: 30, Category: "youtube"},
			},
		},
	}
	return newServerWith(t, src)
}

func newServerWith(t *testing.T, src logsource.Source) *httptest.Server {
	t.Helper()
	tr, err := tracker.New(tracker.Options{
		Source: src,
		Store:  memory.New().Ledger(),
		Clock:  clock.Fixed{T: time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)},
		Log:    zerolog.Nop(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(tr, metrics.Handler()))
	t.Cleanup(srv.Close)
	return srv
}

type downSource struct{}

func (downSource) FetchDay(context.Context, string) (model.DayEvents, error) {
	return model.DayEvents{}, errors.New("upstream unavailable")
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSelectionAndSummary(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/summary", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: testDay, Wait: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[tracker.Status](t, resp)
	assert.Equal(t, testDay, st.DateKey)
	assert.Equal(t, "applied", st.State)

	resp = do(t, http.MethodGet, srv.URL+"/api/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[model.DailySummary](t, resp)
	assert.Equal(t, 45.0, s.CountedTotal)
	assert.Equal(t, 30.0, s.ExcludedTotal)
	assert.Equal(t, 500.0, s.WaterMl)
	assert.Equal(t, 1, s.DrinkCount)

	resp = do(t, http.MethodGet, srv.URL+"/api/day", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[tracker.DayView](t, resp)
	assert.Len(t, v.Laptop.Sessions, 2)

	resp = do(t, http.MethodPost, srv.URL+"/api/selection/reload?wait=true", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSelectionValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: "2024-02-30"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/selection", bytes.NewBufferString("{"))
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = raw.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/selection/reload", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLedgerLifecycle(t *testing.T) {
	srv := newTestServer(t)
	do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: testDay, Wait: true})

	resp := do(t, http.MethodGet, srv.URL+"/api/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Entries []model.LedgerEntry `json:"entries"`
		Count   int                 `json:"count"`
	}](t, resp)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, testDay, list.Entries[0].DateKey)

	resp = do(t, http.MethodPut, srv.URL+"/api/ledger/"+testDay+"/feedback", map[string]string{"feedback": "solid day"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "solid day", decode[model.LedgerEntry](t, resp).Feedback)

	resp = do(t, http.MethodGet, srv.URL+"/api/ledger/"+testDay, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "solid day", decode[model.LedgerEntry](t, resp).Feedback)

	resp = do(t, http.MethodDelete, srv.URL+"/api/ledger/"+testDay, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/ledger/"+testDay, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/ledger/not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnnotation(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPut, srv.URL+"/api/day/events/l2/annotation", map[string]string{"label": "study"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "nothing selected yet")

	do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: testDay, Wait: true})
	resp = do(t, http.MethodPut, srv.URL+"/api/day/events/l2/annotation", map[string]string{"label": "study"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[model.DailySummary](t, resp)
	assert.Equal(t, 75.0, s.CountedTotal)
	assert.Equal(t, 0.0, s.ExcludedTotal)
}

func TestGoalsAndRollup(t *testing.T) {
	srv := newTestServer(t)
	do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: testDay, Wait: true})

	resp := do(t, http.MethodGet, srv.URL+"/api/goals", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.DefaultGoals(), decode[model.Goals](t, resp))

	resp = do(t, http.MethodPut, srv.URL+"/api/goals", model.Goals{WaterMl: 500, StudyMinutes: 45})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/api/goals", model.Goals{WaterMl: 0, StudyMinutes: 45})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/rollups/weekly", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	r := decode[ledger.Rollup](t, resp)
	assert.Equal(t, "2024-03-06", r.From)
	assert.Equal(t, "2024-03-12", r.To)
	assert.Equal(t, 1, r.Days)
	assert.Equal(t, 100.0, r.AvgScore)
	assert.Equal(t, 1, r.WaterGoalDays)

	resp = do(t, http.MethodGet, srv.URL+"/api/rollups/daily?date="+testDay, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/rollups/hourly", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	BindServiceHealth(func() bool { return false }, func() []string { return []string{"store"} })
	resp := do(t, http.MethodGet, srv.URL+"/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, []any{"store"}, body["unhealthy"])

	BindServiceHealth(func() bool { return true }, nil)
	resp = do(t, http.MethodGet, srv.URL+"/api/health", nil)
	assert.Equal(t, "healthy", decode[map[string]any](t, resp)["status"])

	resp = do(t, http.MethodGet, srv.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadFailureIsReported(t *testing.T) {
	srv := newServerWith(t, downSource{})

	resp := do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: testDay, Wait: true})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/summary", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/selection", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[tracker.Status](t, resp)
	assert.True(t, st.LoadFailed)
	assert.NotEmpty(t, st.LoadError)

	resp = do(t, http.MethodPost, srv.URL+"/api/selection/reload?wait=true", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.0, decode[map[string]any](t, resp)["count"])
}

func TestAnnotationNeedsDomainForSharedIDs(t *testing.T) {
	srv := newServerWith(t, staticSource{
		testDay: {
			Water:  []model.ActivityEvent{{ID: "0", Timestamp: testDay + "T09:00:00", Amount: 500}},
			Laptop: []model.ActivityEvent{{ID: "0", Timestamp: testDay + "T10:00:00", DurationMinutes: 45, Category: "coding"}},
		},
	})
	resp := do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: testDay, Wait: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/api/day/events/0/annotation", AnnotationRequest{Label: "game"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/api/day/events/0/annotation", AnnotationRequest{Label: "game", Domain: "laptop"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[model.DailySummary](t, resp)
	assert.Equal(t, 0.0, s.CountedTotal)
	assert.Equal(t, 45.0, s.ExcludedTotal)
	assert.Equal(t, 500.0, s.WaterMl)
}

func TestReloadRules(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, http.MethodPut, srv.URL+"/api/selection", SelectionRequest{Date: testDay, Wait: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/rules/reload", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, 1.0, body["version"])
}
