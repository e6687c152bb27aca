// Package plan provides the plan registry and tier resolution logic: which
// plan a user is on, and what that plan allows.
package plan

import "designkit/internal/types"

// Registry defines the authoritative limits for each plan.
// This is the single source of truth for what each plan allows.
type Registry interface {
	// GetLimits returns the resource limits for the given plan ID.
	// For unknown IDs, returns the Free limits to fail safely.
	GetLimits(id types.PlanID) types.PlanLimits
}

// staticRegistry is a compile-time plan registry backed by an in-memory map.
// It implements Registry and is the standard implementation for production use.
type staticRegistry struct {
	limits map[types.PlanID]types.PlanLimits
}

// planDefaults defines the hardcoded plan limits.
//
//	| Plan      | Generations/Day | Model    | Projects | Exports/Day | Voice chars/Day |
//	|-----------|-----------------|----------|----------|-------------|-----------------|
//	| Free      | 5               | fast     | 3        | 2           | disabled        |
//	| Starter   | 50              | fast     | 15       | 20          | 5,000           |
//	| Pro       | 200             | advanced | 100      | -1          | 50,000          |
//	| Developer | -1 (unlimited)  | advanced | -1       | -1          | -1              |
//
// -1 represents "unlimited" -- enforcement code must treat -1 as no limit.
var planDefaults = map[types.PlanID]types.PlanLimits{
	types.PlanFree: {
		GenerationsPerDay: 5,
		ModelTier:         types.ModelFast,
		ProjectsTotal:     3,
		ExportsPerDay:     2,
		Voice: types.VoiceLimits{
			Enabled:          false,
			CharactersPerDay: 0,
		},
		Features: types.FeatureSet{},
	},
	types.PlanStarter: {
		GenerationsPerDay: 50,
		ModelTier:         types.ModelFast,
		ProjectsTotal:     15,
		ExportsPerDay:     20,
		Voice: types.VoiceLimits{
			Enabled:          true,
			CharactersPerDay: 5000,
		},
		Features: types.FeatureSet{
			AdvancedPalettes: true,
		},
	},
	types.PlanPro: {
		GenerationsPerDay: 200,
		ModelTier:         types.ModelAdvanced,
		ProjectsTotal:     100,
		ExportsPerDay:     types.UnlimitedSentinel,
		Voice: types.VoiceLimits{
			Enabled:          true,
			CharactersPerDay: 50000,
		},
		Features: types.FeatureSet{
			AdvancedPalettes: true,
			PrioritySupport:  true,
			APIAccess:        true,
			CustomBranding:   true,
		},
	},
	types.PlanDeveloper: {
		GenerationsPerDay: types.UnlimitedSentinel,
		ModelTier:         types.ModelAdvanced,
		ProjectsTotal:     types.UnlimitedSentinel,
		ExportsPerDay:     types.UnlimitedSentinel,
		Voice: types.VoiceLimits{
			Enabled:          true,
			CharactersPerDay: types.UnlimitedSentinel,
		},
		Features: types.FeatureSet{
			AdvancedPalettes: true,
			PrioritySupport:  true,
			APIAccess:        true,
			CustomBranding:   true,
		},
	},
}

// freeLimits is cached to avoid map lookups on the fallback path.
var freeLimits = planDefaults[types.PlanFree]

// NewStaticRegistry returns a Registry backed by the hardcoded plan limits.
// This is the standard production implementation; no database or external
// service is required.
func NewStaticRegistry() Registry {
	// Copy the defaults into a new map so callers cannot mutate the package-level variable.
	m := make(map[types.PlanID]types.PlanLimits, len(planDefaults))
	for k, v := range planDefaults {
		m[k] = v
	}
	return &staticRegistry{limits: m}
}

// GetLimits returns the resource limits for the given plan ID.
// If the ID is unknown, it returns the Free limits as a safe default.
func (r *staticRegistry) GetLimits(id types.PlanID) types.PlanLimits {
	if limits, ok := r.limits[id]; ok {
		return limits
	}
	return freeLimits
}

// LimitFor returns the numeric limit on the given feature kind. Unknown kinds
// return 0 (always denied); callers should treat that as a configuration bug
// signal, not a user-facing error.
func LimitFor(limits types.PlanLimits, kind types.FeatureKind) int {
	switch kind {
	case types.FeatureGeneration:
		return limits.GenerationsPerDay
	case types.FeatureProject:
		return limits.ProjectsTotal
	case types.FeatureExport:
		return limits.ExportsPerDay
	case types.FeatureVoice:
		return limits.Voice.CharactersPerDay
	default:
		return 0
	}
}
