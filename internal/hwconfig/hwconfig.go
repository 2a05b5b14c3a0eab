// Package hwconfig loads the display mode table the hardware layer
// exports. The daemon has no composer connection of its own, so the
// table file stands in for the construction-time mode list a compositor
// would receive from the hardware composer.
package hwconfig

import (
	"fmt"
	"os"

	"codeberg.org/mutker/displayctl/internal/errors"
	"codeberg.org/mutker/displayctl/internal/refreshrate"
	"gopkg.in/yaml.v3"
)

// Entry is one hardware mode as declared in the table file. It
// implements refreshrate.HWConfig, so the parsed table feeds the
// engine's hardware-handle constructor directly.
type Entry struct {
	ID    int   `yaml:"id"`
	Group int   `yaml:"group"`
	Vsync int64 `yaml:"vsync_period_ns"`
}

func (e Entry) ConfigID() int      { return e.ID }
func (e Entry) ConfigGroup() int   { return e.Group }
func (e Entry) VsyncPeriod() int64 { return e.Vsync }

// Table is the full mode declaration for one display.
type Table struct {
	BootMode int     `yaml:"boot_mode"`
	Modes    []Entry `yaml:"modes"`
}

// Load reads and parses a mode table file.
func Load(path string) (*Table, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errFactory.Wrap(ErrReadTable, err)
	}

	var table Table
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, errFactory.Wrap(ErrParseTable, err)
	}

	if len(table.Modes) == 0 {
		return nil, errFactory.WithData(ErrEmptyTable, path)
	}

	return &table, nil
}

// Handles returns the table entries as opaque hardware config handles.
func (t *Table) Handles() []refreshrate.HWConfig {
	handles := make([]refreshrate.HWConfig, len(t.Modes))
	for i, entry := range t.Modes {
		handles[i] = entry
	}

	return handles
}

// Describe renders a short human-readable summary for startup logging.
func (t *Table) Describe() string {
	return fmt.Sprintf("%d modes, boot mode %d", len(t.Modes), t.BootMode)
}
