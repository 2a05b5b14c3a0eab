package refreshrate

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"codeberg.org/mutker/displayctl/internal/errors"
)

// Engine holds the mode catalog, the refresh-rate policy and the
// current-mode tracker, and answers selection queries.
//
// The catalog (modes, sorted, minSupported, maxSupported) is fixed at
// construction and read without locking. Everything below mu changes at
// runtime: a control-plane thread writes policy and current mode while
// compositor threads read on every frame.
type Engine struct {
	modes  map[ModeID]*Mode
	sorted []*Mode // every mode, lowest rate first; equal rates keep input order

	minSupported *Mode
	maxSupported *Mode

	mu          sync.RWMutex
	defaultMode ModeID
	minFPS      float64
	maxFPS      float64
	available   []*Mode // modes admitted by the policy window, lowest rate first
	current     *Mode
}

// New builds an engine from raw mode tuples. The boot id names the mode
// the display is driven at when the engine comes up, and becomes the
// initial policy default with an unbounded rate window.
func New(inputs []InputMode, boot ModeID) (*Engine, error) {
	errFactory := errors.New()

	if len(inputs) == 0 {
		return nil, errFactory.New(ErrEmptyModeSet)
	}

	e := &Engine{
		modes:  make(map[ModeID]*Mode, len(inputs)),
		sorted: make([]*Mode, 0, len(inputs)),
		maxFPS: math.MaxFloat64,
	}

	for _, in := range inputs {
		if in.VsyncPeriod <= 0 {
			return nil, errFactory.WithData(ErrInvalidVsync,
				fmt.Sprintf("mode %d: vsync period %dns", in.ID, in.VsyncPeriod))
		}
		if _, ok := e.modes[in.ID]; ok {
			return nil, errFactory.WithData(ErrDuplicateMode, fmt.Sprintf("mode %d", in.ID))
		}

		fps := roundFPS(1e9 / float64(in.VsyncPeriod))
		mode := &Mode{
			ID:          in.ID,
			VsyncPeriod: in.VsyncPeriod,
			Group:       in.Group,
			Name:        fmt.Sprintf("%gfps", fps),
			FPS:         fps,
		}
		e.modes[in.ID] = mode
		e.sorted = append(e.sorted, mode)
	}

	sort.SliceStable(e.sorted, func(i, j int) bool {
		return e.sorted[i].FPS < e.sorted[j].FPS
	})
	e.minSupported = e.sorted[0]
	e.maxSupported = e.sorted[len(e.sorted)-1]

	bootMode, ok := e.modes[boot]
	if !ok {
		return nil, errFactory.WithData(ErrUnknownBootMode, fmt.Sprintf("mode %d", boot))
	}
	e.current = bootMode
	e.defaultMode = boot
	e.available = e.buildAvailable()

	return e, nil
}

// NewFromHWConfigs builds an engine from opaque hardware configuration
// handles, normalized into the same catalog New builds.
func NewFromHWConfigs(configs []HWConfig, boot ModeID) (*Engine, error) {
	inputs := make([]InputMode, 0, len(configs))
	for _, hc := range configs {
		inputs = append(inputs, InputMode{
			ID:          ModeID(hc.ConfigID()),
			Group:       GroupID(hc.ConfigGroup()),
			VsyncPeriod: hc.VsyncPeriod(),
		})
	}

	return New(inputs, boot)
}

// roundFPS snaps a derived rate to the nearest millihertz so periods
// like 16666667ns land exactly on the epsilon grid.
func roundFPS(fps float64) float64 {
	return math.Round(fps*1000) / 1000
}

// AllModes returns a copy of the full catalog keyed by mode id. The
// set of supported modes never changes at runtime.
func (e *Engine) AllModes() map[ModeID]Mode {
	out := make(map[ModeID]Mode, len(e.modes))
	for id, m := range e.modes {
		out[id] = *m
	}

	return out
}

// ModeByID looks a mode up in the catalog. An unknown id is a contract
// violation by the caller, since every id must originate from this
// catalog; it is reported, not absorbed.
func (e *Engine) ModeByID(id ModeID) (Mode, error) {
	m, ok := e.modes[id]
	if !ok {
		return Mode{}, errors.New().WithData(ErrModeNotFound, fmt.Sprintf("mode %d", id))
	}

	return *m, nil
}

// MinMode returns the lowest rate the display supports.
func (e *Engine) MinMode() Mode {
	return *e.minSupported
}

// MaxMode returns the highest rate the display supports.
func (e *Engine) MaxMode() Mode {
	return *e.maxSupported
}
