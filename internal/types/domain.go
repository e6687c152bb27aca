package types

import "time"

// VoiceLimits configures the text-to-speech entitlement for a plan.
type VoiceLimits struct {
	Enabled          bool `json:"enabled"`
	CharactersPerDay int  `json:"characters_per_day"`
}

// FeatureSet holds the boolean capability flags bundled with a plan.
// These are gated by CheckFeatureAccess, never counted.
type FeatureSet struct {
	AdvancedPalettes bool `json:"advanced_palettes"`
	PrioritySupport  bool `json:"priority_support"`
	APIAccess        bool `json:"api_access"`
	CustomBranding   bool `json:"custom_branding"`
}

// PlanLimits is the immutable bundle of numeric limits and feature flags for
// one plan. Records are defined once at process start and never mutated.
// A value of -1 (UnlimitedSentinel) in any numeric field means "no cap".
// ProjectsTotal is a lifetime cap on saved projects and never resets; all
// other numeric fields reset daily via date-keyed counter partitioning.
type PlanLimits struct {
	GenerationsPerDay int         `json:"generations_per_day"`
	ModelTier         ModelTier   `json:"model_tier"`
	ProjectsTotal     int         `json:"projects_total"`
	ExportsPerDay     int         `json:"exports_per_day"`
	Voice             VoiceLimits `json:"voice"`
	Features          FeatureSet  `json:"features"`
}

// User is the subset of the external user record the entitlement engine reads.
// A nil *User anywhere in this codebase means an anonymous visitor on the
// free tier.
type User struct {
	ID          string `json:"id" db:"id"`
	Email       string `json:"email" db:"email"`
	PlanID      PlanID `json:"plan_id" db:"plan_id"`
	IsDeveloper bool   `json:"is_developer" db:"is_developer"`
}

// EntitlementDecision is the verdict for one feature check. Decisions are
// computed per query and never cached or persisted.
//
// For unlimited plans Limit and Remaining are both -1 and Allowed is always
// true. For finite limits, Remaining is clamped to zero (never negative) and
// Allowed is a strict less-than comparison: a user exactly at the limit is
// denied.
type EntitlementDecision struct {
	Allowed   bool       `json:"allowed"`
	Reason    ReasonCode `json:"reason"`
	Limit     int        `json:"limit"`
	Used      int        `json:"used"`
	Remaining int        `json:"remaining"`
}

// Project is a saved design-system project. Projects count against the
// lifetime ProjectsTotal cap; the "usage" for FeatureProject is the
// cardinality of a user's project collection, not a counter entry.
type Project struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LimitDetail describes a single resource limit with current consumption,
// for the usage dashboard.
type LimitDetail struct {
	Limit     int            `json:"limit"`
	Used      int            `json:"used"`
	Remaining int            `json:"remaining"`
	ResetType ResetFrequency `json:"reset_type"`
}

// UsageSnapshot combines plan limits with actual consumption for every
// feature kind. Serialized directly to the UI.
type UsageSnapshot struct {
	Plan         PlanID                      `json:"plan"`
	ModelTier    ModelTier                   `json:"model_tier"`
	Features     FeatureSet                  `json:"features"`
	VoiceEnabled bool                        `json:"voice_enabled"`
	Limits       map[FeatureKind]LimitDetail `json:"limits"`
	NextReset    time.Time                   `json:"next_reset"`
	ResetIn      Countdown                   `json:"reset_in"`
}

// Countdown is the display form of the time remaining until the next daily
// reset boundary. Hours and minutes are truncated, not rounded.
type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// SubscriptionUpdate is the normalized result of a billing provider webhook
// event: which user's plan changed and what it changed to.
type SubscriptionUpdate struct {
	CustomerID string             `json:"customer_id"`
	Plan       PlanID             `json:"plan"`
	Status     SubscriptionStatus `json:"status"`
}
