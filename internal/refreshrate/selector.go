package refreshrate

import "math"

// Strategy names one of the content scoring formulas. The numeric
// constants behind each are tuning knobs, not contract: every strategy
// honors the same idle, max-override and policy-bound rules.
type Strategy int

const (
	StrategyV1 Strategy = iota
	StrategyV2
)

func (s Strategy) String() string {
	switch s {
	case StrategyV1:
		return "v1"
	case StrategyV2:
		return "v2"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a strategy name to its value. Unknown names
// report false.
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "v1", "":
		return StrategyV1, true
	case "v2":
		return StrategyV2, true
	default:
		return StrategyV1, false
	}
}

// scoring holds the tunable constants of one strategy.
type scoring struct {
	// heuristicConfidence discounts Heuristic votes relative to
	// Explicit ones, so an explicit exact match always outweighs a
	// heuristic near-match of equal weight.
	heuristicConfidence float64
	// quadraticDecay makes affinity fall off with the square of the
	// rate distance instead of linearly.
	quadraticDecay bool
}

var strategies = map[Strategy]scoring{
	StrategyV1: {heuristicConfidence: 0.8},
	StrategyV2: {heuristicConfidence: 0.9, quadraticDecay: true},
}

// SelectByPolicy returns the best mode under the current policy alone,
// irrespective of content: the default mode while it is admitted,
// otherwise the admitted mode closest to the default's rate. Keeping
// the default fixed and recomputing the nearest legal point avoids
// drifting to an extreme when bounds tighten, which keeps visible rate
// jumps small.
func (e *Engine) SelectByPolicy() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.available) == 0 {
		failNoAllowedModes()
	}

	def := e.modes[e.defaultMode]
	best := e.available[0]
	for _, m := range e.available {
		if m.ID == def.ID {
			return *m
		}
		if closer(m, best, def.FPS) {
			best = m
		}
	}

	return *best
}

// closer prefers the candidate nearer the target rate, breaking exact
// distance ties toward the higher rate.
func closer(candidate, incumbent *Mode, targetFPS float64) bool {
	dc := math.Abs(candidate.FPS - targetFPS)
	di := math.Abs(incumbent.FPS - targetFPS)
	if dc != di {
		return dc < di
	}

	return candidate.FPS > incumbent.FPS
}

// SelectByContent picks the mode that best serves the given layer
// requirements under the current policy.
func (e *Engine) SelectByContent(layers []LayerRequirement) Mode {
	return e.selectForContent(layers, strategies[StrategyV1])
}

// SelectByContentV2 is the alternate scoring formula kept while the
// heuristic evolves. Same contract as SelectByContent.
func (e *Engine) SelectByContentV2(layers []LayerRequirement) Mode {
	return e.selectForContent(layers, strategies[StrategyV2])
}

// Select runs content selection with an explicit strategy. Unknown
// strategies fall back to V1.
func (e *Engine) Select(s Strategy, layers []LayerRequirement) Mode {
	sc, ok := strategies[s]
	if !ok {
		sc = strategies[StrategyV1]
	}

	return e.selectForContent(layers, sc)
}

func (e *Engine) selectForContent(layers []LayerRequirement, sc scoring) Mode {
	// Snapshot the candidates so a concurrent policy change cannot skew
	// scoring mid-loop; it only affects the next call.
	e.mu.RLock()
	if len(e.available) == 0 {
		e.mu.RUnlock()
		failNoAllowedModes()
	}
	candidates := make([]*Mode, len(e.available))
	copy(candidates, e.available)
	e.mu.RUnlock()

	voting := false
	for i := range layers {
		switch layers[i].Vote {
		case VoteMax:
			// A single performance request overrides every other vote,
			// weights included.
			return *candidates[len(candidates)-1]
		case VoteMin, VoteHeuristic, VoteExplicit:
			voting = true
		}
	}

	// An idle display drops to the lowest permitted rate.
	if !voting {
		return *candidates[0]
	}

	best := candidates[0]
	bestScore := contentScore(layers, best, candidates[0], sc)
	for _, m := range candidates[1:] {
		score := contentScore(layers, m, candidates[0], sc)
		// Ties go to the higher rate. Candidates are ordered lowest
		// rate first, so two modes at the same rate resolve to the
		// earlier catalog entry.
		if score > bestScore || (score == bestScore && m.FPS > best.FPS+FPSEpsilon) {
			best = m
			bestScore = score
		}
	}

	return *best
}

// contentScore sums the weighted per-layer contributions for one
// candidate mode.
func contentScore(layers []LayerRequirement, m, lowest *Mode, sc scoring) float64 {
	var total float64
	for i := range layers {
		l := &layers[i]
		switch l.Vote {
		case VoteMin:
			// Peaks only at the lowest candidate so a slow-rate layer
			// cannot be averaged away by faster voters.
			if m == lowest {
				total += l.Weight
			}
		case VoteExplicit:
			total += l.Weight * rateAffinity(m.FPS, l.DesiredFPS, sc)
		case VoteHeuristic:
			total += l.Weight * sc.heuristicConfidence * rateAffinity(m.FPS, l.DesiredFPS, sc)
		}
	}

	return total
}

// rateAffinity is 1 at an exact match (within FPSEpsilon) and decays
// with the distance between the candidate and desired rates, so an
// exact match always dominates an approximate one for that layer.
func rateAffinity(fps, desired float64, sc scoring) float64 {
	d := math.Abs(fps - desired)
	if d <= FPSEpsilon {
		return 1
	}
	if sc.quadraticDecay {
		return 1 / (1 + d*d)
	}

	return 1 / (1 + d)
}
