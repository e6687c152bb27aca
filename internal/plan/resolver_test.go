package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"designkit/internal/types"
)

func TestResolveTier(t *testing.T) {
	r := NewResolver("dev@designkit.io")

	cases := []struct {
		name string
		user *types.User
		want types.PlanID
	}{
		{
			name: "nil user resolves to free",
			user: nil,
			want: types.PlanFree,
		},
		{
			name: "empty stored tier resolves to free",
			user: &types.User{ID: "u1", Email: "a@example.com"},
			want: types.PlanFree,
		},
		{
			name: "stored tier is returned as-is",
			user: &types.User{ID: "u1", Email: "a@example.com", PlanID: types.PlanPro},
			want: types.PlanPro,
		},
		{
			name: "developer flag wins over stored tier",
			user: &types.User{ID: "u1", Email: "a@example.com", PlanID: types.PlanStarter, IsDeveloper: true},
			want: types.PlanDeveloper,
		},
		{
			name: "reserved email wins over stored tier",
			user: &types.User{ID: "u1", Email: "dev@designkit.io", PlanID: types.PlanFree},
			want: types.PlanDeveloper,
		},
		{
			name: "email match is exact",
			user: &types.User{ID: "u1", Email: "Dev@designkit.io", PlanID: types.PlanPro},
			want: types.PlanPro,
		},
		{
			name: "unknown stored tier passes through for registry fallback",
			user: &types.User{ID: "u1", Email: "a@example.com", PlanID: types.PlanID("legacy_gold")},
			want: types.PlanID("legacy_gold"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.ResolveTier(tc.user))
		})
	}
}

func TestResolveTier_IsPure(t *testing.T) {
	r := NewResolver("")
	user := &types.User{ID: "u1", Email: "a@example.com", PlanID: types.PlanStarter}

	first := r.ResolveTier(user)
	second := r.ResolveTier(user)

	assert.Equal(t, first, second)
	assert.Equal(t, types.PlanStarter, user.PlanID, "user record must not be mutated")
}

func TestNewResolver_DefaultEmail(t *testing.T) {
	r := NewResolver("")
	user := &types.User{ID: "u1", Email: DefaultDeveloperEmail}

	assert.Equal(t, types.PlanDeveloper, r.ResolveTier(user))
}

func TestResolveTier_UnknownPlanMatchesFreeLimits(t *testing.T) {
	// Feeding an unrecognized tier into the registry must yield the exact
	// same limits as explicitly requesting free.
	r := NewResolver("")
	reg := NewStaticRegistry()

	user := &types.User{ID: "u1", Email: "a@example.com", PlanID: types.PlanID("nonexistent")}
	resolved := r.ResolveTier(user)

	assert.Equal(t, reg.GetLimits(types.PlanFree), reg.GetLimits(resolved))
}
