// Package ipc exposes the refresh-rate engine to control-plane clients
// over a unix domain socket. The protocol is line-delimited JSON: a
// client sends {"type": "...", "data": {...}} and receives
// {"status": "ok", "data": ...} or {"status": "error", "error": "..."}.
// The engine itself stays wire-format free; this package owns the
// translation at the process boundary.
package ipc

import "encoding/json"

// Request types understood by the server.
const (
	TypeSetPolicy    = "set_policy"
	TypeGetPolicy    = "get_policy"
	TypeSelect       = "select"
	TypeSelectPolicy = "select_policy"
	TypeSetCurrent   = "set_current"
	TypeGetCurrent   = "get_current"
	TypeModes        = "modes"
)

type Request struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Response struct {
	Status string      `json:"status"`          // "ok" or "error"
	Error  string      `json:"error,omitempty"` // set when Status == "error"
	Data   interface{} `json:"data,omitempty"`
}

// SetPolicyData configures the default mode and permitted rate window.
type SetPolicyData struct {
	DefaultMode int     `json:"default_mode"`
	MinRate     float64 `json:"min_rate"`
	MaxRate     float64 `json:"max_rate"` // <= 0 means unbounded
}

// PolicyData reports the active policy.
type PolicyData struct {
	DefaultMode int     `json:"default_mode"`
	MinRate     float64 `json:"min_rate"`
	MaxRate     float64 `json:"max_rate"`
	Changed     bool    `json:"changed,omitempty"`
}

// LayerData is one layer requirement as sent by the window manager.
type LayerData struct {
	Name       string  `json:"name,omitempty"`
	Vote       string  `json:"vote"`
	DesiredFPS float64 `json:"desired_fps,omitempty"`
	Weight     float64 `json:"weight"`
}

// SelectData asks for a content-based selection.
type SelectData struct {
	Strategy string      `json:"strategy,omitempty"` // "v1" (default) or "v2"
	Layers   []LayerData `json:"layers"`
}

// SetCurrentData reports a completed hardware mode switch.
type SetCurrentData struct {
	Mode int `json:"mode"`
}

// ModeData describes one catalog mode.
type ModeData struct {
	ID            int     `json:"id"`
	Group         int     `json:"group"`
	VsyncPeriodNs int64   `json:"vsync_period_ns"`
	Name          string  `json:"name"`
	FPS           float64 `json:"fps"`
}
