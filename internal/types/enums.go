package types

// PlanID identifies the subscription plan assigned to a user.
type PlanID string

const (
	PlanFree      PlanID = "free"
	PlanStarter   PlanID = "starter"
	PlanPro       PlanID = "pro"
	PlanDeveloper PlanID = "developer"
)

// FeatureKind is the category of rate-limited action. Each kind maps to one
// numeric limit field on PlanLimits.
type FeatureKind string

const (
	FeatureGeneration FeatureKind = "generation"
	FeatureProject    FeatureKind = "project"
	FeatureExport     FeatureKind = "export"
	FeatureVoice      FeatureKind = "voice"
)

// FeatureFlag identifies a boolean plan capability. Flags are gated, not counted.
type FeatureFlag string

const (
	FlagAdvancedPalettes FeatureFlag = "advanced_palettes"
	FlagPrioritySupport  FeatureFlag = "priority_support"
	FlagAPIAccess        FeatureFlag = "api_access"
	FlagCustomBranding   FeatureFlag = "custom_branding"
	FlagVoice            FeatureFlag = "voice"
)

// ModelTier selects which downstream AI model a caller should request.
type ModelTier string

const (
	ModelFast     ModelTier = "fast"
	ModelAdvanced ModelTier = "advanced"
)

// ReasonCode explains why an entitlement check was allowed or denied.
type ReasonCode string

const (
	ReasonOK             ReasonCode = "ok"
	ReasonUnlimited      ReasonCode = "unlimited"
	ReasonLimitReached   ReasonCode = "limit_reached"
	ReasonUnknownFeature ReasonCode = "unknown_feature"
)

// ResetFrequency defines how often a usage counter resets.
type ResetFrequency string

const (
	ResetDaily ResetFrequency = "daily"
	ResetNever ResetFrequency = "never"
)

// SubscriptionStatus represents the state of a billing subscription as
// reported by the payment provider.
type SubscriptionStatus string

const (
	SubStatusActive   SubscriptionStatus = "active"
	SubStatusTrialing SubscriptionStatus = "trialing"
	SubStatusPastDue  SubscriptionStatus = "past_due"
	SubStatusCanceled SubscriptionStatus = "canceled"
	SubStatusUnpaid   SubscriptionStatus = "unpaid"
)

// UnlimitedSentinel is the value used in numeric limit fields to mean "no cap".
// Enforcement code must treat it as a special case everywhere limits are compared.
const UnlimitedSentinel = -1

// AnonymousUserID is the sentinel used in counter keys when no user is present.
const AnonymousUserID = "anonymous"

// AllFeatureKinds lists every counted feature kind. Used by the usage service
// when clearing a user's daily counters.
var AllFeatureKinds = []FeatureKind{
	FeatureGeneration,
	FeatureProject,
	FeatureExport,
	FeatureVoice,
}
