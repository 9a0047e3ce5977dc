package arch

import (
	"fmt"

	"github.com/snapcorn/snapcorn/go/arch/arm64"
	"github.com/snapcorn/snapcorn/go/arch/x86"
	"github.com/snapcorn/snapcorn/go/arch/x86_64"
	"github.com/snapcorn/snapcorn/go/models"
	"github.com/snapcorn/snapcorn/go/models/cpu"
)

// State is a detached copy of an architecture's cpu, tagged with the architecture it came from.
// The variants are closed: x86, x86_64, aarch64 and the empty state.
type State interface {
	Arch() models.ArchID
	IsEmpty() bool
	// Cpu returns a copy of the captured cpu. Writes to it never reach the state.
	Cpu() (cpu.Cpu, error)
	clone() cpu.Cpu
}

type emptyState struct{}

func (emptyState) Arch() models.ArchID   { return models.ARCH_INVALID }
func (emptyState) IsEmpty() bool         { return true }
func (emptyState) Cpu() (cpu.Cpu, error) { return nil, ErrEmptyState }
func (emptyState) clone() cpu.Cpu        { return nil }
func (emptyState) String() string        { return "state(empty)" }

type x86State struct{ c *x86.Cpu }

func (s x86State) Arch() models.ArchID   { return models.ARCH_X86 }
func (s x86State) IsEmpty() bool         { return false }
func (s x86State) Cpu() (cpu.Cpu, error) { return s.c.Clone(), nil }
func (s x86State) clone() cpu.Cpu        { return s.c.Clone() }

type x86_64State struct{ c *x86_64.Cpu }

func (s x86_64State) Arch() models.ArchID   { return models.ARCH_X86_64 }
func (s x86_64State) IsEmpty() bool         { return false }
func (s x86_64State) Cpu() (cpu.Cpu, error) { return s.c.Clone(), nil }
func (s x86_64State) clone() cpu.Cpu        { return s.c.Clone() }

type arm64State struct{ c *arm64.Cpu }

func (s arm64State) Arch() models.ArchID   { return models.ARCH_AARCH64 }
func (s arm64State) IsEmpty() bool         { return false }
func (s arm64State) Cpu() (cpu.Cpu, error) { return s.c.Clone(), nil }
func (s arm64State) clone() cpu.Cpu        { return s.c.Clone() }

// EmptyState is what capturing an unconfigured architecture produces.
func EmptyState() State { return emptyState{} }

// stateOf wraps c, which must already be detached from any live handle.
func stateOf(id models.ArchID, c cpu.Cpu) (State, error) {
	switch id {
	case models.ARCH_X86:
		if v, ok := c.(*x86.Cpu); ok {
			return x86State{v}, nil
		}
	case models.ARCH_X86_64:
		if v, ok := c.(*x86_64.Cpu); ok {
			return x86_64State{v}, nil
		}
	case models.ARCH_AARCH64:
		if v, ok := c.(*arm64.Cpu); ok {
			return arm64State{v}, nil
		}
	case models.ARCH_INVALID:
		return emptyState{}, nil
	}
	return nil, ErrArchMismatch
}

// Capture deep-copies the live cpu. The copy shares nothing with the live machine, hooks included.
// An unconfigured architecture captures as the empty state.
func (a *Architecture) Capture() (State, error) {
	if !a.IsValid() {
		return emptyState{}, nil
	}
	var c cpu.Cpu
	switch v := a.cpu.(type) {
	case *x86.Cpu:
		c = v.Clone()
	case *x86_64.Cpu:
		c = v.Clone()
	case *arm64.Cpu:
		c = v.Clone()
	default:
		return nil, ErrArchMismatch
	}
	return stateOf(a.id, c)
}

// Restore installs a copy of s as the live cpu. The state must carry the same architecture
// as the live handle; otherwise nothing is modified. s stays usable for later restores.
func (a *Architecture) Restore(s State) error {
	if err := a.CheckRestore(s); err != nil {
		return err
	}
	a.install(a.id, s.clone())
	return nil
}

// CheckRestore reports whether Restore(s) would succeed without touching the live cpu.
func (a *Architecture) CheckRestore(s State) error {
	if s == nil || s.IsEmpty() {
		return ErrEmptyState
	}
	if !a.IsValid() {
		return ErrNoArchitecture
	}
	if s.Arch() != a.id {
		return ErrArchMismatch
	}
	return nil
}

func describe(s State) string {
	c, err := s.Cpu()
	if err != nil {
		return "state(empty)"
	}
	return fmt.Sprintf("state(%s, %d regs, %d pages)", s.Arch(), len(c.Arch().Parents()), len(c.Mappings()))
}

func (s x86State) String() string    { return describe(s) }
func (s x86_64State) String() string { return describe(s) }
func (s arm64State) String() string  { return describe(s) }
