package plan

import "designkit/internal/types"

// DefaultDeveloperEmail is the reserved address that always resolves to the
// developer plan, independent of any stored subscription tier.
const DefaultDeveloperEmail = "dev@designkit.io"

// Resolver determines a user's effective plan ID from the user record.
// Resolution is pure and side-effect-free so it can be called repeatedly per
// request without re-querying external state.
type Resolver struct {
	developerEmail string
}

// NewResolver creates a Resolver with the given reserved developer address.
// An empty address falls back to DefaultDeveloperEmail.
func NewResolver(developerEmail string) *Resolver {
	if developerEmail == "" {
		developerEmail = DefaultDeveloperEmail
	}
	return &Resolver{developerEmail: developerEmail}
}

// ResolveTier returns the effective plan ID for the given user.
//
//   - The developer flag, or an email exactly matching the reserved developer
//     address, wins over any stored subscription tier.
//   - A nil user (anonymous) or a user with no stored tier resolves to free.
//   - Otherwise the stored plan ID is returned as-is; unknown values are
//     handled downstream by the Registry's free fallback.
func (r *Resolver) ResolveTier(user *types.User) types.PlanID {
	if user == nil {
		return types.PlanFree
	}
	if user.IsDeveloper || user.Email == r.developerEmail {
		return types.PlanDeveloper
	}
	if user.PlanID == "" {
		return types.PlanFree
	}
	return user.PlanID
}
