// Package handlers contains the HTTP handler implementations for the
// DesignKit entitlement API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"designkit/internal/core"
	"designkit/internal/entitlement"
	"designkit/internal/plan"
	"designkit/internal/types"
	"designkit/internal/usage"
)

// ProjectCounter is the subset of the project repository the snapshot
// endpoint needs: the direct cardinality of a user's saved projects.
type ProjectCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

// EntitlementHandler serves the usage dashboard endpoints: the per-user
// snapshot, the public plan catalog, and the developer-gated manual reset.
type EntitlementHandler struct {
	evaluator *entitlement.Evaluator
	usage     *usage.Service
	registry  plan.Registry
	resolver  *plan.Resolver
	projects  ProjectCounter
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
}

// EntitlementHandlerOption configures an EntitlementHandler.
type EntitlementHandlerOption func(*EntitlementHandler)

// WithClock overrides the handler's time source. Used by tests to pin the
// reset countdown.
func WithClock(now func() time.Time) EntitlementHandlerOption {
	return func(h *EntitlementHandler) { h.now = now }
}

// WithLocation sets the timezone for the reset boundary. It must match the
// usage service's location so the countdown agrees with key partitioning.
func WithLocation(loc *time.Location) EntitlementHandlerOption {
	return func(h *EntitlementHandler) { h.loc = loc }
}

// NewEntitlementHandler creates an EntitlementHandler.
func NewEntitlementHandler(
	evaluator *entitlement.Evaluator,
	usageSvc *usage.Service,
	registry plan.Registry,
	resolver *plan.Resolver,
	projects ProjectCounter,
	logger *slog.Logger,
	opts ...EntitlementHandlerOption,
) *EntitlementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &EntitlementHandler{
		evaluator: evaluator,
		usage:     usageSvc,
		registry:  registry,
		resolver:  resolver,
		projects:  projects,
		logger:    logger,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the entitlement endpoints on the v1 router.
func (h *EntitlementHandler) RegisterRoutes(r chi.Router) {
	r.Get("/entitlements", h.HandleGetEntitlements)
	r.Get("/plans", h.HandleListPlans)
	r.Post("/usage/reset", h.HandleResetUsage)
}

// HandleGetEntitlements returns the caller's usage snapshot: plan, model
// tier, feature flags, per-feature limit/used/remaining, and the countdown
// to the next daily reset. Anonymous callers get the free plan view.
func (h *EntitlementHandler) HandleGetEntitlements(w http.ResponseWriter, r *http.Request) {
	user := types.GetUser(r.Context())
	snapshot := h.buildSnapshot(r.Context(), user)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: snapshot})
}

// buildSnapshot assembles the UsageSnapshot for a user. Each feature's
// verdict is computed per query; nothing is cached.
func (h *EntitlementHandler) buildSnapshot(ctx context.Context, user *types.User) types.UsageSnapshot {
	planID := h.resolver.ResolveTier(user)
	limits := h.registry.GetLimits(planID)

	details := make(map[types.FeatureKind]types.LimitDetail, len(types.AllFeatureKinds))
	for _, kind := range types.AllFeatureKinds {
		used := h.currentUsage(ctx, kind, user)
		decision := h.evaluator.CheckUsage(kind, used, user)

		resetType := types.ResetDaily
		if kind == types.FeatureProject {
			resetType = types.ResetNever
		}

		details[kind] = types.LimitDetail{
			Limit:     decision.Limit,
			Used:      decision.Used,
			Remaining: decision.Remaining,
			ResetType: resetType,
		}
	}

	now := h.now().In(h.loc)
	return types.UsageSnapshot{
		Plan:         planID,
		ModelTier:    limits.ModelTier,
		Features:     limits.Features,
		VoiceEnabled: limits.Voice.Enabled,
		Limits:       details,
		NextReset:    entitlement.NextReset(now),
		ResetIn:      entitlement.CountdownUntilReset(now),
	}
}

// currentUsage returns the live consumption for a feature kind. Projects are
// a direct count of saved rows; everything else reads today's counter. A
// failing project count degrades to zero so the snapshot stays available.
func (h *EntitlementHandler) currentUsage(ctx context.Context, kind types.FeatureKind, user *types.User) int {
	userID := callerID(user)

	if kind == types.FeatureProject {
		n, err := h.projects.CountByUser(ctx, userID)
		if err != nil {
			h.logger.WarnContext(ctx, "project count failed, reporting zero",
				"user_id", userID,
				"error", err,
			)
			return 0
		}
		return n
	}

	return h.usage.Read(ctx, kind, userID)
}

// planCatalogEntry is the public view of one plan's limits.
type planCatalogEntry struct {
	ID     types.PlanID     `json:"id"`
	Limits types.PlanLimits `json:"limits"`
}

// HandleListPlans returns the public plan catalog. The developer plan is not
// advertised; it is reachable only through tier resolution.
func (h *EntitlementHandler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	public := []types.PlanID{types.PlanFree, types.PlanStarter, types.PlanPro}
	catalog := make([]planCatalogEntry, 0, len(public))
	for _, id := range public {
		catalog = append(catalog, planCatalogEntry{ID: id, Limits: h.registry.GetLimits(id)})
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: catalog})
}

// HandleResetUsage clears today's daily counters for the caller. Restricted
// to developer-tier callers; everyone else gets 403. Project counts are
// untouched since they never reset.
func (h *EntitlementHandler) HandleResetUsage(w http.ResponseWriter, r *http.Request) {
	user := types.GetUser(r.Context())
	if h.resolver.ResolveTier(user) != types.PlanDeveloper {
		core.Error(w, r, types.NewAppError(
			types.ErrCodePermissionDeveloper,
			"manual usage reset is restricted to developer accounts",
			nil,
		))
		return
	}

	h.usage.ResetAll(r.Context(), user.ID)
	h.logger.InfoContext(r.Context(), "manual usage reset",
		"user_id", user.ID,
	)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"status": "reset"}})
}
