package refreshrate_test

import (
	"math"
	"sync"
	"testing"

	"codeberg.org/mutker/displayctl/internal/refreshrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructionPolicyAdmitsEverything(t *testing.T) {
	engine := newTestEngine(t)

	policy := engine.GetPolicy()
	assert.Equal(t, refreshrate.ModeID(1), policy.DefaultMode)
	assert.Equal(t, 0.0, policy.MinFPS)
	assert.Equal(t, math.MaxFloat64, policy.MaxFPS)

	for id := refreshrate.ModeID(0); id <= 2; id++ {
		assert.True(t, engine.IsModeAllowed(id), "mode %d should be allowed at boot", id)
	}
	assert.Equal(t, refreshrate.ModeID(0), engine.MinAllowed().ID)
	assert.Equal(t, refreshrate.ModeID(2), engine.MaxAllowed().ID)
}

func TestSetPolicy(t *testing.T) {
	engine := newTestEngine(t)

	changed, err := engine.SetPolicy(1, 60, 90)
	require.NoError(t, err)
	assert.True(t, changed)

	policy := engine.GetPolicy()
	assert.Equal(t, refreshrate.ModeID(1), policy.DefaultMode)
	assert.Equal(t, 60.0, policy.MinFPS)
	assert.Equal(t, 90.0, policy.MaxFPS)

	assert.False(t, engine.IsModeAllowed(0))
	assert.True(t, engine.IsModeAllowed(1))
	assert.True(t, engine.IsModeAllowed(2))
	assert.Equal(t, refreshrate.ModeID(1), engine.MinAllowed().ID)
	assert.Equal(t, refreshrate.ModeID(2), engine.MaxAllowed().ID)
}

func TestSetPolicyReportsUnchanged(t *testing.T) {
	engine := newTestEngine(t)

	changed, err := engine.SetPolicy(1, 30, 90)
	require.NoError(t, err)
	assert.True(t, changed)

	// Identical policy: accepted, but nothing to do downstream.
	changed, err = engine.SetPolicy(1, 30, 90)
	require.NoError(t, err)
	assert.False(t, changed)

	// A single bound moving counts as a change.
	changed, err = engine.SetPolicy(1, 30, 60)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSetPolicyRejectsUnknownDefault(t *testing.T) {
	engine := newTestEngine(t)
	before := engine.GetPolicy()

	changed, err := engine.SetPolicy(42, 30, 90)
	assertCode(t, err, refreshrate.ErrPolicyUnknownMode)
	assert.False(t, changed)
	assert.Equal(t, before, engine.GetPolicy())
}

func TestSetPolicyRejectsDefaultOutsideWindow(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.SetPolicy(1, 60, 90)
	require.NoError(t, err)
	before := engine.GetPolicy()

	// 30fps default against a [60, 90] window.
	changed, err := engine.SetPolicy(0, 60, 90)
	assertCode(t, err, refreshrate.ErrPolicyOutOfRange)
	assert.False(t, changed)

	// Rejection is all-or-nothing.
	assert.Equal(t, before, engine.GetPolicy())
	assert.False(t, engine.IsModeAllowed(0))
}

func TestSetPolicyRejectsInvertedWindow(t *testing.T) {
	engine := newTestEngine(t)
	before := engine.GetPolicy()

	changed, err := engine.SetPolicy(1, 90, 30)
	assertCode(t, err, refreshrate.ErrPolicyBadWindow)
	assert.False(t, changed)
	assert.Equal(t, before, engine.GetPolicy())
}

func TestSetPolicyEpsilonBoundary(t *testing.T) {
	engine := newTestEngine(t)

	// The default sits on the boundary within epsilon.
	changed, err := engine.SetPolicy(1, 60.0005, 90)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, engine.IsModeAllowed(1))

	// Beyond epsilon it is out.
	_, err = engine.SetPolicy(1, 60.1, 90)
	assertCode(t, err, refreshrate.ErrPolicyOutOfRange)
}

func TestPolicyBoundsOrdering(t *testing.T) {
	engine := newTestEngine(t)

	policies := []struct {
		def      refreshrate.ModeID
		min, max float64
	}{
		{1, 0, math.MaxFloat64},
		{0, 30, 30},
		{1, 30, 60},
		{2, 60, 90},
		{2, 90, 90},
	}

	for _, p := range policies {
		_, err := engine.SetPolicy(p.def, p.min, p.max)
		require.NoError(t, err)

		def, err := engine.ModeByID(p.def)
		require.NoError(t, err)

		// minAllowed <= default <= maxAllowed, within epsilon.
		assert.LessOrEqual(t, engine.MinAllowed().FPS, def.FPS+refreshrate.FPSEpsilon)
		assert.GreaterOrEqual(t, engine.MaxAllowed().FPS+refreshrate.FPSEpsilon, def.FPS)
	}
}

func TestSetCurrentMode(t *testing.T) {
	engine := newTestEngine(t)

	require.NoError(t, engine.SetCurrentMode(2))
	assert.Equal(t, refreshrate.ModeID(2), engine.CurrentMode().ID)

	err := engine.SetCurrentMode(42)
	assertCode(t, err, refreshrate.ErrModeNotFound)
	assert.Equal(t, refreshrate.ModeID(2), engine.CurrentMode().ID)
}

func TestCurrentModeIndependentOfPolicy(t *testing.T) {
	engine := newTestEngine(t)

	require.NoError(t, engine.SetCurrentMode(0))

	// Tightening the policy does not move the tracked mode; only an
	// explicit hardware-switch notification does.
	_, err := engine.SetPolicy(2, 90, 90)
	require.NoError(t, err)
	assert.Equal(t, refreshrate.ModeID(0), engine.CurrentMode().ID)
}

func TestConcurrentPolicyReadsAndWrites(t *testing.T) {
	engine := newTestEngine(t)

	policyA := refreshrate.Policy{DefaultMode: 1, MinFPS: 30, MaxFPS: 90}
	policyB := refreshrate.Policy{DefaultMode: 2, MinFPS: 60, MaxFPS: 90}
	boot := engine.GetPolicy()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				_, err := engine.SetPolicy(policyA.DefaultMode, policyA.MinFPS, policyA.MaxFPS)
				assert.NoError(t, err)
			} else {
				_, err := engine.SetPolicy(policyB.DefaultMode, policyB.MinFPS, policyB.MaxFPS)
				assert.NoError(t, err)
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				// A reader sees a fully-old or fully-new policy, never
				// a mix of default and bounds.
				got := engine.GetPolicy()
				assert.Contains(t, []refreshrate.Policy{boot, policyA, policyB}, got)

				mode := engine.SelectByContent([]refreshrate.LayerRequirement{
					{Vote: refreshrate.VoteExplicit, DesiredFPS: 90, Weight: 1},
				})
				assert.Contains(t, []refreshrate.ModeID{1, 2}, mode.ID)
			}
		}()
	}

	wg.Wait()
}
