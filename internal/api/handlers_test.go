package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wakeup-planner/internal/planner"
	"wakeup-planner/internal/repository"
	"wakeup-planner/internal/service"
)

var testNow = time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

// setupRouter wires a server whose clock reads the returned pointer.
func setupRouter(t *testing.T, token string) (*gin.Engine, *service.PlanService, *repository.UserRepository, *time.Time) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "api.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	p := planner.New(planner.DefaultPolicy())
	plans := service.NewPlanService(repository.NewPlanRepository(db), repository.NewCheckInRepository(db), p, service.NewUserLocks(), log)
	clock := testNow
	srv := NewServer(users, plans, p, log, func() time.Time { return clock })
	return srv.Router(token), plans, users, &clock
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthSetsRequestID(t *testing.T) {
	r, _, _, _ := setupRouter(t, "")

	w := do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodGet, "/healthz", "", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}

func TestPreview(t *testing.T) {
	r, _, _, _ := setupRouter(t, "")

	w := do(r, http.MethodPost, "/api/preview", `{"currentWakeTime":"08:00","targetWakeTime":"06:00","targetDate":"2026-03-16"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	data := body["data"].(map[string]any)
	intervals := data["intervals"].([]any)
	require.Len(t, intervals, 7)
	last := intervals[6].(map[string]any)
	assert.Equal(t, "2026-03-16", last["date"])
	assert.Equal(t, "06:00", last["wakeTime"])
	assert.Len(t, body["meta"].(map[string]any)["blocks"], 2)

	w = do(r, http.MethodPost, "/api/preview", `{"currentWakeTime":"8am","targetWakeTime":"06:00","targetDate":"2026-03-16"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/preview", `{"targetWakeTime":"06:00"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokenRequired(t *testing.T) {
	r, _, _, _ := setupRouter(t, "secret")
	payload := `{"currentWakeTime":"08:00","targetWakeTime":"06:00","targetDate":"2026-03-16"}`

	w := do(r, http.MethodPost, "/api/preview", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/preview", payload, map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlanAndCheckIns(t *testing.T) {
	r, plans, users, clock := setupRouter(t, "")
	ctx := context.Background()

	w := do(r, http.MethodGet, "/api/users/42/plan", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	user, err := users.UpsertFromTelegram(ctx, 42, 42, "Ann", "", "ann")
	require.NoError(t, err)

	w = do(r, http.MethodGet, "/api/users/42/plan", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err = plans.CreatePlan(ctx, user, service.PlanInput{CurrentWakeTime: "08:00", TargetWakeTime: "06:00", TargetDate: "2026-03-24"}, testNow)
	require.NoError(t, err)

	w = do(r, http.MethodGet, "/api/users/42/plan", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)["data"].(map[string]any)
	next := view["nextWakeUp"].(map[string]any)
	assert.Equal(t, "2026-03-10", next["date"])
	assert.Equal(t, "07:36", next["time"])
	assert.Equal(t, false, view["analysis"].(map[string]any)["needsReset"])

	*clock = time.Date(2026, 3, 10, 7, 38, 0, 0, time.UTC)
	w = do(r, http.MethodPost, "/api/users/42/check-ins", "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	entry := created["data"].(map[string]any)
	assert.Equal(t, "2026-03-10", entry["date"])
	assert.EqualValues(t, 456, entry["scheduledWakeMinutes"])
	assert.EqualValues(t, 458, entry["actualWakeMinutes"])
	assert.EqualValues(t, 2, entry["deviationMinutes"])
	assert.Equal(t, true, created["meta"].(map[string]any)["verified"])

	w = do(r, http.MethodGet, "/api/users/42/check-ins", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["meta"].(map[string]any)["count"])

	stored, err := plans.GetPlan(ctx, user)
	require.NoError(t, err)
	assert.True(t, stored.Intervals[0].Completed)

	w = do(r, http.MethodPost, "/api/users/42/check-ins", `{"wokeAt":"2026-04-30T07:00:00Z"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/api/users/abc/plan", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckInClaimedTimeNotVerified(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		clock  time.Time
		wokeAt string
		date   string
	}{
		{"future", testNow, "2026-03-12T07:37:00Z", "2026-03-12"},
		{"backdated", time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC), "2026-03-12T07:37:00Z", "2026-03-12"},
		{"later today", testNow, "2026-03-10T07:37:00Z", "2026-03-10"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, plans, users, clock := setupRouter(t, "")
			user, err := users.UpsertFromTelegram(ctx, 42, 42, "Ann", "", "ann")
			require.NoError(t, err)
			before, err := plans.CreatePlan(ctx, user, service.PlanInput{CurrentWakeTime: "08:00", TargetWakeTime: "06:00", TargetDate: "2026-03-24"}, testNow)
			require.NoError(t, err)

			*clock = tc.clock
			w := do(r, http.MethodPost, "/api/users/42/check-ins", `{"wokeAt":"`+tc.wokeAt+`"}`, nil)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			created := decode(t, w)
			assert.Equal(t, false, created["meta"].(map[string]any)["verified"])
			assert.Equal(t, tc.date, created["data"].(map[string]any)["date"])

			after, err := plans.GetPlan(ctx, user)
			require.NoError(t, err)
			assert.Equal(t, before.Intervals, after.Intervals)
		})
	}
}
