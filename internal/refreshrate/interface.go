// Package refreshrate decides which refresh rate a display should run
// at. It owns the immutable catalog of modes the panel supports, the
// runtime-configurable policy (default mode plus allowed rate window),
// and the selection algorithms that pick a mode either from policy
// alone or from the rendering demands of the on-screen layers.
//
// The engine only recommends a mode; performing the hardware switch and
// reporting it back via SetCurrentMode is the caller's job.
package refreshrate

// FPSEpsilon is the tolerance within which two refresh rates are
// considered approximately equal. It applies to policy range membership
// and desired-rate matching, never to mode identity.
const FPSEpsilon = 0.001

// Domain types for type safety and validation
type (
	// ModeID identifies a mode by its position in the table the
	// hardware reported at construction time.
	ModeID int

	// GroupID identifies the switching group of a mode. Modes sharing
	// a group can be switched between without a full display
	// reconfiguration.
	GroupID int
)

// Mode is one supported refresh configuration. Mode values are
// immutable once the engine is constructed.
type Mode struct {
	ID          ModeID
	VsyncPeriod int64 // nanoseconds
	Group       GroupID
	Name        string
	FPS         float64
}

// Equal reports whether two modes are the same hardware configuration.
// The name is cosmetic and the fps is derived, so neither participates.
func (m Mode) Equal(other Mode) bool {
	return m.ID == other.ID && m.VsyncPeriod == other.VsyncPeriod && m.Group == other.Group
}

// inPolicy reports whether the mode's rate falls inside [minFPS,
// maxFPS], with FPSEpsilon applied to both boundaries.
func (m Mode) inPolicy(minFPS, maxFPS float64) bool {
	return m.FPS >= minFPS-FPSEpsilon && m.FPS <= maxFPS+FPSEpsilon
}

// InputMode is the raw construction tuple for one mode.
type InputMode struct {
	ID          ModeID
	Group       GroupID
	VsyncPeriod int64 // nanoseconds
}

// HWConfig is an opaque hardware configuration handle. Any source that
// can name an id, a group and a vsync period can seed the catalog.
type HWConfig interface {
	ConfigID() int
	ConfigGroup() int
	VsyncPeriod() int64
}

// Policy is the currently configured default mode and permissible
// rate window.
type Policy struct {
	DefaultMode ModeID
	MinFPS      float64
	MaxFPS      float64
}

// VoteKind is a layer's stated kind of refresh-rate preference.
type VoteKind int

const (
	NoVote        VoteKind = iota // layer does not care about the rate
	VoteMin                       // lowest rate available
	VoteMax                       // highest rate available
	VoteHeuristic                 // platform-computed rate, lower confidence
	VoteExplicit                  // rate requested by the application
)

func (v VoteKind) String() string {
	switch v {
	case NoVote:
		return "none"
	case VoteMin:
		return "min"
	case VoteMax:
		return "max"
	case VoteHeuristic:
		return "heuristic"
	case VoteExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// ParseVote maps a vote name to its kind. Unknown names report false.
func ParseVote(s string) (VoteKind, bool) {
	switch s {
	case "none", "":
		return NoVote, true
	case "min":
		return VoteMin, true
	case "max":
		return VoteMax, true
	case "heuristic":
		return VoteHeuristic, true
	case "explicit":
		return VoteExplicit, true
	default:
		return NoVote, false
	}
}

// LayerRequirement captures one layer's refresh-rate requirement for a
// single selection call. The caller retains ownership of the slice it
// passes in; the engine only reads it for the duration of the call.
type LayerRequirement struct {
	Name       string // diagnostic only
	Vote       VoteKind
	DesiredFPS float64 // meaningful for Heuristic and Explicit votes
	Weight     float64 // in [0, 1]; higher weight, more influence
}
