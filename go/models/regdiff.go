package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
)

var (
	colorKept    = ansi.ColorCode("default:default")
	colorChanged = ansi.ColorCode("default+bu:default")
)

// diffColumns is how many registers String prints per line.
const diffColumns = 4

// Change is the old and new value of one register.
type Change struct {
	Old, New uint64
	Reg      RegID
	Name     string
}

func (c *Change) Changed() bool {
	return c.Old != c.New
}

// DigitSpan is a run of hex digits of a Change that all differ or all match.
type DigitSpan struct {
	Old, New string
	Changed  bool
}

// Spans splits both values, printed as digits wide hex, into alternating runs of
// matching and differing digits.
func (c *Change) Spans(digits int) []DigitSpan {
	cur := fmt.Sprintf("%0*x", digits, c.New)
	old := fmt.Sprintf("%0*x", digits, c.Old)
	var spans []DigitSpan
	start := 0
	for i := 1; i <= len(cur); i++ {
		if i < len(cur) && (cur[i] != old[i]) == (cur[start] != old[start]) {
			continue
		}
		spans = append(spans, DigitSpan{Old: old[start:i], New: cur[start:i], Changed: cur[start] != old[start]})
		start = i
	}
	return spans
}

// Format renders the new value. Changed registers are marked with a leading "+",
// or with color, where only the digits that differ are highlighted.
func (c *Change) Format(digits int, color bool) string {
	if !c.Changed() {
		return fmt.Sprintf(" %4s 0x%0*x", c.Name, digits, c.New)
	}
	if !color {
		return fmt.Sprintf("+ %4s 0x%0*x", c.Name, digits, c.New)
	}
	var b strings.Builder
	fmt.Fprintf(&b, " %s%4s%s 0x", colorChanged, c.Name, ansi.Reset)
	for _, s := range c.Spans(digits) {
		if s.Changed {
			b.WriteString(colorChanged)
		} else {
			b.WriteString(colorKept)
		}
		b.WriteString(s.New)
	}
	b.WriteString(ansi.Reset)
	return b.String()
}

// Changes is a register diff between two dumps of the same architecture.
type Changes struct {
	// hex digits per value
	Digits  int
	Changes []*Change
}

// Diff compares two RegDump results. Registers missing from old count as zero.
func Diff(arch *Arch, old, cur []RegVal, onlyChanged bool) *Changes {
	prev := make(map[RegID]uint64, len(old))
	for _, r := range old {
		prev[r.ID] = r.Val
	}
	cs := &Changes{Digits: int(arch.Bits / 4)}
	for _, r := range cur {
		c := &Change{Old: prev[r.ID], New: r.Val, Reg: r.ID, Name: r.Name}
		if !onlyChanged || c.Changed() {
			cs.Changes = append(cs.Changes, c)
		}
	}
	return cs
}

func (cs *Changes) String(color bool) string {
	var b strings.Builder
	for i, c := range cs.Changes {
		b.WriteString(c.Format(cs.Digits, color))
		if (i+1)%diffColumns == 0 || i == len(cs.Changes)-1 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Count returns how many registers changed.
func (cs *Changes) Count() int {
	n := 0
	for _, c := range cs.Changes {
		if c.Changed() {
			n++
		}
	}
	return n
}

func (cs *Changes) Find(reg RegID) *Change {
	for _, c := range cs.Changes {
		if c.Reg == reg {
			return c
		}
	}
	return nil
}
