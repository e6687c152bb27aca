// Package entitlement implements the allow/deny decision engine for
// plan-gated actions. Given a feature kind, a user, and current usage it
// produces an EntitlementDecision; it never errors, never panics, and never
// caches a decision across calls.
package entitlement

import (
	"designkit/internal/plan"
	"designkit/internal/types"
)

// Evaluator computes entitlement decisions from the plan registry and tier
// resolver. It is stateless and safe for concurrent use.
type Evaluator struct {
	registry plan.Registry
	resolver *plan.Resolver
}

// NewEvaluator creates an Evaluator backed by the given registry and resolver.
func NewEvaluator(registry plan.Registry, resolver *plan.Resolver) *Evaluator {
	return &Evaluator{
		registry: registry,
		resolver: resolver,
	}
}

// CheckUsage returns the verdict for one feature check.
//
// The limit is resolved via the tier resolver and plan registry. A limit of
// -1 means unlimited: the check always allows and reports -1 remaining,
// regardless of currentUsage. For finite limits the comparison is strict
// less-than, so a user exactly at the limit is denied, and remaining is
// clamped to zero.
//
// An unknown feature kind falls through to a limit of 0 (always denied) with
// ReasonUnknownFeature; callers must treat that as a configuration bug
// signal, not a user-facing error. Negative currentUsage is not clamped;
// callers are expected to pass only values produced by the usage service.
func (e *Evaluator) CheckUsage(kind types.FeatureKind, currentUsage int, user *types.User) types.EntitlementDecision {
	limits := e.registry.GetLimits(e.resolver.ResolveTier(user))
	limit := plan.LimitFor(limits, kind)

	if limit == types.UnlimitedSentinel {
		return types.EntitlementDecision{
			Allowed:   true,
			Reason:    types.ReasonUnlimited,
			Limit:     types.UnlimitedSentinel,
			Used:      currentUsage,
			Remaining: types.UnlimitedSentinel,
		}
	}

	remaining := limit - currentUsage
	if remaining < 0 {
		remaining = 0
	}

	allowed := currentUsage < limit
	reason := types.ReasonOK
	if !allowed {
		reason = types.ReasonLimitReached
		if !isKnownKind(kind) {
			reason = types.ReasonUnknownFeature
		}
	}

	return types.EntitlementDecision{
		Allowed:   allowed,
		Reason:    reason,
		Limit:     limit,
		Used:      currentUsage,
		Remaining: remaining,
	}
}

// CheckFeatureAccess reports whether the user's plan includes the given
// boolean capability flag. Unknown flags are denied.
func (e *Evaluator) CheckFeatureAccess(flag types.FeatureFlag, user *types.User) bool {
	limits := e.registry.GetLimits(e.resolver.ResolveTier(user))

	switch flag {
	case types.FlagAdvancedPalettes:
		return limits.Features.AdvancedPalettes
	case types.FlagPrioritySupport:
		return limits.Features.PrioritySupport
	case types.FlagAPIAccess:
		return limits.Features.APIAccess
	case types.FlagCustomBranding:
		return limits.Features.CustomBranding
	case types.FlagVoice:
		return limits.Voice.Enabled
	default:
		return false
	}
}

// ModelTier returns the AI model tier the user's plan selects. It carries no
// behavior inside this engine beyond being returned to the caller.
func (e *Evaluator) ModelTier(user *types.User) types.ModelTier {
	return e.registry.GetLimits(e.resolver.ResolveTier(user)).ModelTier
}

func isKnownKind(kind types.FeatureKind) bool {
	switch kind {
	case types.FeatureGeneration, types.FeatureProject, types.FeatureExport, types.FeatureVoice:
		return true
	default:
		return false
	}
}
