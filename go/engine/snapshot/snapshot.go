package snapshot

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/arch"
	"github.com/snapcorn/snapcorn/go/ast"
	"github.com/snapcorn/snapcorn/go/engine/symbolic"
	"github.com/snapcorn/snapcorn/go/engine/taint"
	"github.com/snapcorn/snapcorn/go/models"
	"github.com/snapcorn/snapcorn/go/models/cpu"
)

var (
	ErrNoArchitecture = arch.ErrNoArchitecture
	ErrNilSnapshot    = errors.New("nil snapshot")
	ErrEmptyHandle    = errors.New("snapshot handle is empty")
)

// Source is the live machine as seen by Create.
type Source interface {
	Architecture() *arch.Architecture
	SymbolicEngine() *symbolic.Engine
	TaintEngine() *taint.Engine
	AstContext() *ast.Context
	Modes() models.Modes
}

// Target is the live machine as seen by Restore.
type Target interface {
	Source
	SetSymbolicEngine(*symbolic.Engine)
	SetTaintEngine(*taint.Engine)
	SetAstContext(*ast.Context)
	SetModes(models.Modes)
}

// Snapshot is a self-contained copy of a live machine at one instant.
// Nothing in it is shared with the machine it was taken from, and neither
// reading nor restoring it changes it, so one Snapshot may be restored
// any number of times.
type Snapshot struct {
	id       uuid.UUID
	pc       uint64
	state    arch.State
	symbolic *symbolic.Engine
	taint    *taint.Engine
	ast      *ast.Context
	modes    models.Modes
}

// Create captures src. It fails without an architecture and never modifies src.
func Create(src Source) (*Snapshot, error) {
	a := src.Architecture()
	if a == nil || !a.IsValid() {
		return nil, ErrNoArchitecture
	}
	live, err := a.Cpu()
	if err != nil {
		return nil, err
	}
	pc, err := live.PC()
	if err != nil {
		return nil, err
	}
	state, err := a.Capture()
	if err != nil {
		return nil, errors.Wrap(err, "capturing cpu")
	}
	sym, tnt, ctx := src.SymbolicEngine(), src.TaintEngine(), src.AstContext()
	if sym == nil || tnt == nil || ctx == nil {
		return nil, errors.Wrap(ErrEmptyHandle, "live machine")
	}
	return &Snapshot{
		id:       uuid.New(),
		pc:       pc,
		state:    state,
		symbolic: sym.Clone(),
		taint:    tnt.Clone(),
		ast:      ctx.Clone(),
		modes:    src.Modes(),
	}, nil
}

func (s *Snapshot) valid() error {
	if s == nil {
		return ErrNilSnapshot
	}
	if s.state == nil || s.symbolic == nil || s.taint == nil || s.ast == nil {
		return ErrEmptyHandle
	}
	return nil
}

// Restore puts dst back into the state s was taken in. The cpu is checked first:
// on an architecture mismatch dst is left untouched.
func Restore(dst Target, s *Snapshot) error {
	if err := s.valid(); err != nil {
		return err
	}
	a := dst.Architecture()
	if a == nil {
		return ErrNoArchitecture
	}
	if err := a.Restore(s.state); err != nil {
		return errors.Wrapf(err, "restoring %s", s)
	}
	dst.SetSymbolicEngine(s.symbolic.Clone())
	dst.SetTaintEngine(s.taint.Clone())
	dst.SetAstContext(s.ast.Clone())
	dst.SetModes(s.modes)
	return nil
}

func (s *Snapshot) ID() uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	return s.id
}

// PC is the program counter at capture time.
func (s *Snapshot) PC() uint64 {
	if s == nil {
		return 0
	}
	return s.pc
}

func (s *Snapshot) Arch() models.ArchID {
	if s == nil || s.state == nil {
		return models.ARCH_INVALID
	}
	return s.state.Arch()
}

func (s *Snapshot) State() (arch.State, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	return s.state, nil
}

// CpuInstance returns a copy of the captured cpu.
func (s *Snapshot) CpuInstance() (cpu.Cpu, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	c, err := s.state.Cpu()
	if err != nil {
		return nil, errors.Wrap(ErrEmptyHandle, err.Error())
	}
	return c, nil
}

// SymbolicEngine returns a copy of the captured symbolic engine.
func (s *Snapshot) SymbolicEngine() (*symbolic.Engine, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	return s.symbolic.Clone(), nil
}

// TaintEngine returns a copy of the captured taint engine.
func (s *Snapshot) TaintEngine() (*taint.Engine, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	return s.taint.Clone(), nil
}

// AstContext returns a copy of the captured formula context.
func (s *Snapshot) AstContext() (*ast.Context, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	return s.ast.Clone(), nil
}

func (s *Snapshot) Modes() (models.Modes, error) {
	if err := s.valid(); err != nil {
		return models.Modes{}, err
	}
	return s.modes, nil
}

func (s *Snapshot) String() string {
	if s == nil {
		return "snapshot(nil)"
	}
	return fmt.Sprintf("snapshot(%s %s pc=%#x)", s.id, s.Arch(), s.pc)
}
