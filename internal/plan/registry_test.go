package plan

import (
	"testing"

	"designkit/internal/types"
)

func TestNewStaticRegistry(t *testing.T) {
	reg := NewStaticRegistry()
	if reg == nil {
		t.Fatal("NewStaticRegistry returned nil")
	}
}

func TestGetLimits_Free(t *testing.T) {
	reg := NewStaticRegistry()
	limits := reg.GetLimits(types.PlanFree)

	if limits.GenerationsPerDay != 5 {
		t.Errorf("Free: GenerationsPerDay = %d, want 5", limits.GenerationsPerDay)
	}
	if limits.ModelTier != types.ModelFast {
		t.Errorf("Free: ModelTier = %s, want fast", limits.ModelTier)
	}
	if limits.ProjectsTotal != 3 {
		t.Errorf("Free: ProjectsTotal = %d, want 3", limits.ProjectsTotal)
	}
	if limits.ExportsPerDay != 2 {
		t.Errorf("Free: ExportsPerDay = %d, want 2", limits.ExportsPerDay)
	}
	if limits.Voice.Enabled {
		t.Error("Free: Voice.Enabled = true, want false")
	}
	if limits.Features.AdvancedPalettes {
		t.Error("Free: AdvancedPalettes = true, want false")
	}
}

func TestGetLimits_Pro(t *testing.T) {
	reg := NewStaticRegistry()
	limits := reg.GetLimits(types.PlanPro)

	if limits.GenerationsPerDay != 200 {
		t.Errorf("Pro: GenerationsPerDay = %d, want 200", limits.GenerationsPerDay)
	}
	if limits.ModelTier != types.ModelAdvanced {
		t.Errorf("Pro: ModelTier = %s, want advanced", limits.ModelTier)
	}
	if limits.ExportsPerDay != types.UnlimitedSentinel {
		t.Errorf("Pro: ExportsPerDay = %d, want -1", limits.ExportsPerDay)
	}
	if !limits.Voice.Enabled || limits.Voice.CharactersPerDay != 50000 {
		t.Errorf("Pro: Voice = %+v, want enabled with 50000 chars/day", limits.Voice)
	}
	if !limits.Features.APIAccess || !limits.Features.CustomBranding {
		t.Errorf("Pro: Features = %+v, want all flags set", limits.Features)
	}
}

func TestGetLimits_DeveloperIsUnlimited(t *testing.T) {
	reg := NewStaticRegistry()
	limits := reg.GetLimits(types.PlanDeveloper)

	for kind, got := range map[string]int{
		"GenerationsPerDay": limits.GenerationsPerDay,
		"ProjectsTotal":     limits.ProjectsTotal,
		"ExportsPerDay":     limits.ExportsPerDay,
		"VoiceCharsPerDay":  limits.Voice.CharactersPerDay,
	} {
		if got != types.UnlimitedSentinel {
			t.Errorf("Developer: %s = %d, want -1", kind, got)
		}
	}
}

func TestGetLimits_UnknownPlanFallsBackToFree(t *testing.T) {
	reg := NewStaticRegistry()

	unknown := reg.GetLimits(types.PlanID("platinum"))
	free := reg.GetLimits(types.PlanFree)

	if unknown != free {
		t.Errorf("Unknown plan limits = %+v, want Free limits %+v", unknown, free)
	}
}

func TestGetLimits_EmptyPlanFallsBackToFree(t *testing.T) {
	reg := NewStaticRegistry()

	empty := reg.GetLimits(types.PlanID(""))
	free := reg.GetLimits(types.PlanFree)

	if empty != free {
		t.Errorf("Empty plan limits = %+v, want Free limits %+v", empty, free)
	}
}

func TestGetLimits_AllPlansPresent(t *testing.T) {
	reg := NewStaticRegistry()

	plans := []types.PlanID{
		types.PlanFree,
		types.PlanStarter,
		types.PlanPro,
		types.PlanDeveloper,
	}

	for _, id := range plans {
		limits := reg.GetLimits(id)
		t.Logf("Plan=%s  Gen=%d  Projects=%d  Exports=%d  Voice=%v",
			id, limits.GenerationsPerDay, limits.ProjectsTotal, limits.ExportsPerDay, limits.Voice.Enabled)
	}
}

func TestLimitFor(t *testing.T) {
	limits := types.PlanLimits{
		GenerationsPerDay: 5,
		ProjectsTotal:     3,
		ExportsPerDay:     2,
		Voice:             types.VoiceLimits{CharactersPerDay: 1000},
	}

	cases := []struct {
		kind types.FeatureKind
		want int
	}{
		{types.FeatureGeneration, 5},
		{types.FeatureProject, 3},
		{types.FeatureExport, 2},
		{types.FeatureVoice, 1000},
		{types.FeatureKind("hologram"), 0},
	}

	for _, tc := range cases {
		if got := LimitFor(limits, tc.kind); got != tc.want {
			t.Errorf("LimitFor(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestRegistryInterface(t *testing.T) {
	// Compile-time check that staticRegistry satisfies Registry.
	var _ Registry = NewStaticRegistry()
}
