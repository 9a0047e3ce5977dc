package models

import (
	"strings"

	"github.com/pkg/errors"
)

type Mode uint

const (
	// fold constant sub-expressions while building formulas
	MODE_CONSTANT_FOLDING Mode = 1 << iota
	// only build expressions for instructions reading symbolic operands
	MODE_ONLY_ON_SYMBOLIZED
	// only build expressions for instructions reading tainted operands
	MODE_ONLY_ON_TAINTED
	// only record path constraints whose condition is symbolized
	MODE_PC_TRACKING_SYMBOLIC
	// loads and stores through a tainted pointer taint the value
	MODE_TAINT_THROUGH_POINTERS
)

var modeNames = []struct {
	mode Mode
	name string
}{
	{MODE_CONSTANT_FOLDING, "constant_folding"},
	{MODE_ONLY_ON_SYMBOLIZED, "only_on_symbolized"},
	{MODE_ONLY_ON_TAINTED, "only_on_tainted"},
	{MODE_PC_TRACKING_SYMBOLIC, "pc_tracking_symbolic"},
	{MODE_TAINT_THROUGH_POINTERS, "taint_through_pointers"},
}

func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimPrefix(strings.ToUpper(name), "MODE_"))
	for _, m := range modeNames {
		if m.name == name {
			return m.mode, nil
		}
	}
	return 0, errors.Errorf("unknown mode %q", name)
}

func (m Mode) String() string {
	for _, v := range modeNames {
		if v.mode == m {
			return v.name
		}
	}
	return "unknown"
}

// Modes is a set of execution modes. It is a plain value: assignment copies it.
type Modes struct {
	flags Mode
}

func NewModes(modes ...Mode) Modes {
	var m Modes
	for _, mode := range modes {
		m.Enable(mode, true)
	}
	return m
}

func (m *Modes) Enable(mode Mode, enabled bool) {
	if enabled {
		m.flags |= mode
	} else {
		m.flags &^= mode
	}
}

func (m Modes) IsEnabled(mode Mode) bool {
	return m.flags&mode == mode
}

func (m Modes) Enabled() []Mode {
	var ret []Mode
	for _, v := range modeNames {
		if m.IsEnabled(v.mode) {
			ret = append(ret, v.mode)
		}
	}
	return ret
}

func (m Modes) String() string {
	var names []string
	for _, mode := range m.Enabled() {
		names = append(names, mode.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}
