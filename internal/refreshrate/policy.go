package refreshrate

import (
	"fmt"

	"codeberg.org/mutker/displayctl/internal/errors"
)

// SetPolicy replaces the refresh-rate policy. It validates that the
// default mode exists, that the window is not inverted, and that the
// default's rate lies inside the window (within FPSEpsilon); on any
// violation the store is left untouched. The returned bool reports
// whether the accepted policy differs from the previous one, so callers
// can skip redundant downstream work.
func (e *Engine) SetPolicy(defaultMode ModeID, minFPS, maxFPS float64) (bool, error) {
	errFactory := errors.New()

	mode, ok := e.modes[defaultMode]
	if !ok {
		return false, errFactory.WithData(ErrPolicyUnknownMode, fmt.Sprintf("mode %d", defaultMode))
	}
	if minFPS > maxFPS+FPSEpsilon {
		return false, errFactory.WithData(ErrPolicyBadWindow,
			fmt.Sprintf("min %g > max %g", minFPS, maxFPS))
	}
	if !mode.inPolicy(minFPS, maxFPS) {
		return false, errFactory.WithData(ErrPolicyOutOfRange,
			fmt.Sprintf("mode %d (%s) outside [%g, %g]", defaultMode, mode.Name, minFPS, maxFPS))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	changed := e.defaultMode != defaultMode || e.minFPS != minFPS || e.maxFPS != maxFPS
	if !changed {
		return false, nil
	}

	e.defaultMode = defaultMode
	e.minFPS = minFPS
	e.maxFPS = maxFPS
	e.available = e.buildAvailable()

	return true, nil
}

// buildAvailable derives the modes admitted by the current window,
// lowest rate first. Callers hold mu, or own the engine exclusively
// during construction.
func (e *Engine) buildAvailable() []*Mode {
	out := make([]*Mode, 0, len(e.sorted))
	for _, m := range e.sorted {
		if m.inPolicy(e.minFPS, e.maxFPS) {
			out = append(out, m)
		}
	}

	return out
}

// GetPolicy returns a snapshot of the current policy. A concurrent
// SetPolicy is observed either fully or not at all.
func (e *Engine) GetPolicy() Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Policy{DefaultMode: e.defaultMode, MinFPS: e.minFPS, MaxFPS: e.maxFPS}
}

// IsModeAllowed reports whether the mode is admitted by the current
// policy window.
func (e *Engine) IsModeAllowed(id ModeID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, m := range e.available {
		if m.ID == id {
			return true
		}
	}

	return false
}

// MinAllowed returns the lowest rate the current policy permits.
func (e *Engine) MinAllowed() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.available) == 0 {
		failNoAllowedModes()
	}

	return *e.available[0]
}

// MaxAllowed returns the highest rate the current policy permits.
func (e *Engine) MaxAllowed() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.available) == 0 {
		failNoAllowedModes()
	}

	return *e.available[len(e.available)-1]
}

// SetCurrentMode records the mode the display is driven at, after a
// successful hardware switch. Selection never consults this value, so
// what was picked cannot feed back into what gets picked next.
func (e *Engine) SetCurrentMode(id ModeID) error {
	mode, ok := e.modes[id]
	if !ok {
		return errors.New().WithData(ErrModeNotFound, fmt.Sprintf("mode %d", id))
	}

	e.mu.Lock()
	e.current = mode
	e.mu.Unlock()

	return nil
}

// CurrentMode returns the mode the display is presently driven at.
func (e *Engine) CurrentMode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return *e.current
}

// failNoAllowedModes aborts on an empty allowed list. The policy
// invariants guarantee at least the default mode is admitted, so an
// empty list means engine state was corrupted, not that input was bad;
// degrading silently here risks visible display glitches.
func failNoAllowedModes() {
	panic(errors.New().New(ErrNoAllowedModes))
}
