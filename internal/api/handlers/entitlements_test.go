package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designkit/internal/entitlement"
	"designkit/internal/plan"
	"designkit/internal/types"
	"designkit/internal/usage"
)

// fixedNow pins the clock to mid-afternoon so the reset countdown is stable.
var fixedNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

type stubProjects struct {
	count    int
	countErr error
	projects []types.Project
	created  []*types.Project
	delErr   error
}

func (s *stubProjects) CountByUser(_ context.Context, _ string) (int, error) {
	return s.count, s.countErr
}

func (s *stubProjects) Create(_ context.Context, p *types.Project) error {
	s.created = append(s.created, p)
	s.count++
	return nil
}

func (s *stubProjects) Delete(_ context.Context, _, _ string) error {
	return s.delErr
}

func (s *stubProjects) ListByUser(_ context.Context, _ string) ([]types.Project, error) {
	return s.projects, nil
}

type fixture struct {
	registry  plan.Registry
	resolver  *plan.Resolver
	evaluator *entitlement.Evaluator
	usage     *usage.Service
	store     *usage.MemStore
	projects  *stubProjects
	logger    *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := plan.NewStaticRegistry()
	resolver := plan.NewResolver("")
	store := usage.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		registry:  registry,
		resolver:  resolver,
		evaluator: entitlement.NewEvaluator(registry, resolver),
		usage: usage.NewService(store, logger,
			usage.WithClock(func() time.Time { return fixedNow }),
			usage.WithLocation(time.UTC),
		),
		store:    store,
		projects: &stubProjects{},
		logger:   logger,
	}
}

func (f *fixture) entitlementHandler() *EntitlementHandler {
	return NewEntitlementHandler(
		f.evaluator, f.usage, f.registry, f.resolver, f.projects, f.logger,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
}

func requestAs(user *types.User, method, path string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, path, body)
	ctx := types.WithRequestID(r.Context(), "req-test")
	if user != nil {
		ctx = types.WithUser(ctx, user)
	}
	return r.WithContext(ctx)
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Data
}

func TestHandleGetEntitlements_AnonymousGetsFreeView(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()

	w := httptest.NewRecorder()
	h.HandleGetEntitlements(w, requestAs(nil, http.MethodGet, "/v1/entitlements", nil))

	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeData[types.UsageSnapshot](t, w.Body.Bytes())

	assert.Equal(t, types.PlanFree, snap.Plan)
	assert.Equal(t, types.ModelFast, snap.ModelTier)
	assert.False(t, snap.VoiceEnabled)
	assert.Equal(t, 5, snap.Limits[types.FeatureGeneration].Limit)
	assert.Equal(t, 5, snap.Limits[types.FeatureGeneration].Remaining)
	assert.Equal(t, types.ResetNever, snap.Limits[types.FeatureProject].ResetType)
	assert.Equal(t, types.ResetDaily, snap.Limits[types.FeatureExport].ResetType)
}

func TestHandleGetEntitlements_CountdownTruncates(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()

	w := httptest.NewRecorder()
	h.HandleGetEntitlements(w, requestAs(nil, http.MethodGet, "/v1/entitlements", nil))

	snap := decodeData[types.UsageSnapshot](t, w.Body.Bytes())

	// 14:30 UTC -> 9h30m until midnight.
	assert.Equal(t, 9, snap.ResetIn.Hours)
	assert.Equal(t, 30, snap.ResetIn.Minutes)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), snap.NextReset.UTC())
}

func TestHandleGetEntitlements_ReflectsConsumption(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()
	user := &types.User{ID: "u1", PlanID: types.PlanStarter}

	for i := 0; i < 3; i++ {
		f.usage.Increment(context.Background(), types.FeatureGeneration, "u1")
	}
	f.projects.count = 2

	w := httptest.NewRecorder()
	h.HandleGetEntitlements(w, requestAs(user, http.MethodGet, "/v1/entitlements", nil))

	snap := decodeData[types.UsageSnapshot](t, w.Body.Bytes())
	assert.Equal(t, types.PlanStarter, snap.Plan)
	assert.Equal(t, 3, snap.Limits[types.FeatureGeneration].Used)
	assert.Equal(t, 47, snap.Limits[types.FeatureGeneration].Remaining)
	assert.Equal(t, 2, snap.Limits[types.FeatureProject].Used)
	assert.True(t, snap.VoiceEnabled)
}

func TestHandleGetEntitlements_UnlimitedShowsSentinel(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()
	user := &types.User{ID: "dev1", IsDeveloper: true}

	w := httptest.NewRecorder()
	h.HandleGetEntitlements(w, requestAs(user, http.MethodGet, "/v1/entitlements", nil))

	snap := decodeData[types.UsageSnapshot](t, w.Body.Bytes())
	assert.Equal(t, types.PlanDeveloper, snap.Plan)
	assert.Equal(t, -1, snap.Limits[types.FeatureGeneration].Limit)
	assert.Equal(t, -1, snap.Limits[types.FeatureGeneration].Remaining)
}

func TestHandleGetEntitlements_ProjectCountFailureDegradesToZero(t *testing.T) {
	f := newFixture(t)
	f.projects.countErr = errors.New("connection refused")
	h := f.entitlementHandler()

	w := httptest.NewRecorder()
	h.HandleGetEntitlements(w, requestAs(&types.User{ID: "u1"}, http.MethodGet, "/v1/entitlements", nil))

	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeData[types.UsageSnapshot](t, w.Body.Bytes())
	assert.Equal(t, 0, snap.Limits[types.FeatureProject].Used)
}

func TestHandleListPlans_OmitsDeveloperPlan(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()

	w := httptest.NewRecorder()
	h.HandleListPlans(w, requestAs(nil, http.MethodGet, "/v1/plans", nil))

	require.Equal(t, http.StatusOK, w.Code)
	catalog := decodeData[[]planCatalogEntry](t, w.Body.Bytes())

	require.Len(t, catalog, 3)
	for _, entry := range catalog {
		assert.NotEqual(t, types.PlanDeveloper, entry.ID)
	}
	assert.Equal(t, types.PlanFree, catalog[0].ID)
	assert.Equal(t, 200, catalog[2].Limits.GenerationsPerDay)
}

func TestHandleResetUsage_DeveloperOnly(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()

	w := httptest.NewRecorder()
	h.HandleResetUsage(w, requestAs(&types.User{ID: "u1", PlanID: types.PlanPro}, http.MethodPost, "/v1/usage/reset", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "permission_developer_only")
}

func TestHandleResetUsage_AnonymousDenied(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()

	w := httptest.NewRecorder()
	h.HandleResetUsage(w, requestAs(nil, http.MethodPost, "/v1/usage/reset", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleResetUsage_ClearsDailyCounters(t *testing.T) {
	f := newFixture(t)
	h := f.entitlementHandler()
	dev := &types.User{ID: "dev1", IsDeveloper: true}

	f.usage.Increment(context.Background(), types.FeatureGeneration, "dev1")
	f.usage.Increment(context.Background(), types.FeatureExport, "dev1")
	require.Equal(t, 1, f.usage.Read(context.Background(), types.FeatureGeneration, "dev1"))

	w := httptest.NewRecorder()
	h.HandleResetUsage(w, requestAs(dev, http.MethodPost, "/v1/usage/reset", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, f.usage.Read(context.Background(), types.FeatureGeneration, "dev1"))
	assert.Equal(t, 0, f.usage.Read(context.Background(), types.FeatureExport, "dev1"))
}
