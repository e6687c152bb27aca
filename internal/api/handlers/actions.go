package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"designkit/internal/core"
	"designkit/internal/entitlement"
	"designkit/internal/types"
	"designkit/internal/usage"
)

// ProjectStore is the project repository surface the action endpoints use.
type ProjectStore interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, p *types.Project) error
	Delete(ctx context.Context, userID, projectID string) error
	ListByUser(ctx context.Context, userID string) ([]types.Project, error)
}

// ActionHandler implements the metered action endpoints. Every endpoint
// follows the same sequence: read current usage, check the entitlement,
// perform the action, then record consumption. The check is advisory by the
// time the action runs; two racing requests may both pass, which is accepted
// in favor of never blocking on a counter lock.
type ActionHandler struct {
	evaluator *entitlement.Evaluator
	usage     *usage.Service
	projects  ProjectStore
	validator *core.Validator
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(
	evaluator *entitlement.Evaluator,
	usageSvc *usage.Service,
	projects ProjectStore,
	validator *core.Validator,
	logger *slog.Logger,
) *ActionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionHandler{
		evaluator: evaluator,
		usage:     usageSvc,
		projects:  projects,
		validator: validator,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RegisterRoutes mounts the action endpoints on the v1 router.
func (h *ActionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/generations", h.HandleCreateGeneration)
	r.Post("/exports", h.HandleCreateExport)
	r.Post("/projects", h.HandleCreateProject)
	r.Get("/projects", h.HandleListProjects)
	r.Delete("/projects/{projectID}", h.HandleDeleteProject)
}

// callerID returns the counter identity for the request: the user's ID, or
// the anonymous sentinel when no user was resolved.
func callerID(user *types.User) string {
	if user == nil {
		return types.AnonymousUserID
	}
	return user.ID
}

// denyError converts a denied decision into the limit error for the kind,
// carrying the numbers the UI renders in the upgrade prompt.
func denyError(kind types.FeatureKind, decision types.EntitlementDecision) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.LimitErrorCode(kind),
		"plan limit reached for "+string(kind),
		nil,
		map[string]any{
			"limit":     decision.Limit,
			"used":      decision.Used,
			"remaining": decision.Remaining,
			"reason":    decision.Reason,
		},
	)
}

// --- Generations ---

type createGenerationRequest struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

type generationResponse struct {
	ID        string          `json:"id"`
	ModelTier types.ModelTier `json:"model_tier"`
	Used      int             `json:"used"`
	Remaining int             `json:"remaining"`
}

// HandleCreateGeneration gates a design generation on the caller's daily
// generation quota, runs it, and records the consumption. The generation
// itself is delegated to the AI pipeline; here it only selects the model
// tier the plan entitles the caller to.
func (h *ActionHandler) HandleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	var req createGenerationRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user := types.GetUser(r.Context())
	used := h.usage.Read(r.Context(), types.FeatureGeneration, callerID(user))

	decision := h.evaluator.CheckUsage(types.FeatureGeneration, used, user)
	if !decision.Allowed {
		core.Error(w, r, denyError(types.FeatureGeneration, decision))
		return
	}

	newUsed := h.usage.Increment(r.Context(), types.FeatureGeneration, callerID(user))

	remaining := decision.Limit - newUsed
	if decision.Limit == types.UnlimitedSentinel {
		remaining = types.UnlimitedSentinel
	} else if remaining < 0 {
		remaining = 0
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: generationResponse{
		ID:        h.newID(),
		ModelTier: h.evaluator.ModelTier(user),
		Used:      newUsed,
		Remaining: remaining,
	}})
}

// --- Exports ---

type createExportRequest struct {
	ProjectID string `json:"project_id" validate:"omitempty,uuid4"`
	Format    string `json:"format" validate:"required,oneof=css scss json tokens"`
}

type exportResponse struct {
	ID        string `json:"id"`
	Format    string `json:"format"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}

// HandleCreateExport gates an export on the caller's daily export quota.
func (h *ActionHandler) HandleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req createExportRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user := types.GetUser(r.Context())
	used := h.usage.Read(r.Context(), types.FeatureExport, callerID(user))

	decision := h.evaluator.CheckUsage(types.FeatureExport, used, user)
	if !decision.Allowed {
		core.Error(w, r, denyError(types.FeatureExport, decision))
		return
	}

	newUsed := h.usage.Increment(r.Context(), types.FeatureExport, callerID(user))

	remaining := decision.Limit - newUsed
	if decision.Limit == types.UnlimitedSentinel {
		remaining = types.UnlimitedSentinel
	} else if remaining < 0 {
		remaining = 0
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: exportResponse{
		ID:        h.newID(),
		Format:    req.Format,
		Used:      newUsed,
		Remaining: remaining,
	}})
}

// --- Projects ---

type createProjectRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// HandleCreateProject gates saving a project on the lifetime project cap.
// Usage is the live cardinality of the caller's project collection, so
// deleting a project immediately frees a slot; there is no daily counter.
func (h *ActionHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user := types.GetUser(r.Context())
	count, err := h.projects.CountByUser(r.Context(), callerID(user))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	decision := h.evaluator.CheckUsage(types.FeatureProject, count, user)
	if !decision.Allowed {
		core.Error(w, r, denyError(types.FeatureProject, decision))
		return
	}

	now := h.now().UTC()
	project := &types.Project{
		ID:        h.newID(),
		UserID:    callerID(user),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.projects.Create(r.Context(), project); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: project})
}

// HandleListProjects returns the caller's saved projects.
func (h *ActionHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	user := types.GetUser(r.Context())
	projects, err := h.projects.ListByUser(r.Context(), callerID(user))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: projects})
}

// HandleDeleteProject removes one of the caller's projects, freeing a slot
// against the lifetime cap.
func (h *ActionHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	user := types.GetUser(r.Context())

	if err := h.projects.Delete(r.Context(), callerID(user), projectID); err != nil {
		core.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
