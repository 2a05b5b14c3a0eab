package telemetry

import (
	"context"
	"time"
)

// Recorder defines the core domain interface
type Recorder interface {
	Record(ctx context.Context, snapshot *DecisionSnapshot) error
	Close() error
}

// DecisionSnapshot captures one refresh-rate decision for the history
// database. It is purely observational: nothing here feeds back into
// selection.
type DecisionSnapshot struct {
	Timestamp time.Time
	Current   ModeMetrics
	Selected  ModeMetrics
	Policy    PolicyMetrics
	Layers    int
	Strategy  string
}

// Domain value objects
type ModeMetrics struct {
	ID  int
	FPS float64
}

type PolicyMetrics struct {
	DefaultMode int
	MinFPS      float64
	MaxFPS      float64
}
