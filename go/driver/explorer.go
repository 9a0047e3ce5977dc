package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	snapcorn "github.com/snapcorn/snapcorn/go"
	"github.com/snapcorn/snapcorn/go/arch"
	"github.com/snapcorn/snapcorn/go/engine/snapshot"
	"github.com/snapcorn/snapcorn/go/engine/symbolic"
)

var ErrMaxSteps = errors.New("step limit reached")

// Step records one processed instruction.
type Step struct {
	Ins    *Instruction
	Result *Result
	// restored before Ins ran
	Restored *snapshot.Snapshot
}

const (
	END_HALT = iota
	END_EXIT
	END_LIMIT
	END_LOOP
)

type EndReason int

func (e EndReason) String() string {
	switch e {
	case END_HALT:
		return "halt"
	case END_EXIT:
		return "exit"
	case END_LIMIT:
		return "limit"
	case END_LOOP:
		return "loop"
	}
	return fmt.Sprintf("EndReason(%d)", int(e))
}

// Path is one route through a program found by Explore.
type Path struct {
	Addrs       []uint64
	Constraints []symbolic.PathConstraint
	End         EndReason
	// program counter when the path ended
	Last uint64
}

// Explorer drives a Machine over a Program, keeping snapshots in Table keyed by the
// address they should be restored at.
type Explorer struct {
	Machine  *snapcorn.Machine
	Table    *snapshot.Table
	MaxSteps int
	// Explore ends a path that repeats one address cycle this many times in a row; zero disables.
	MaxLoops int
	// Before runs ahead of every instruction, after any snapshot for its address is restored.
	Before func(ins *Instruction) error
	OnStep func(Step)

	steps int
}

func NewExplorer(m *snapcorn.Machine) *Explorer {
	return &Explorer{
		Machine:  m,
		Table:    snapshot.NewTable(),
		MaxSteps: m.Config().MaxSteps,
		MaxLoops: m.Config().MaxLoops,
	}
}

// Steps is the number of instructions processed so far.
func (e *Explorer) Steps() int {
	return e.steps
}

func (e *Explorer) limited() bool {
	return e.MaxSteps > 0 && e.steps >= e.MaxSteps
}

// snapshot captures the machine and writes its cpu image when a save directory is configured.
func (e *Explorer) snapshot() (*snapshot.Snapshot, error) {
	s, err := e.Machine.CreateSnapshot()
	if err != nil {
		return nil, err
	}
	dir := e.Machine.Config().SaveDir
	if dir == "" {
		return s, nil
	}
	state, err := s.State()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, s.ID().String()+".snap")
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "saving snapshot")
	}
	defer f.Close()
	if err := arch.SaveState(f, state); err != nil {
		return nil, errors.Wrapf(err, "saving snapshot to %s", path)
	}
	e.Machine.Logger().Debug("snapshot saved", "path", path)
	return s, nil
}

func (e *Explorer) step(ins *Instruction, force *bool) (*Result, error) {
	if e.Before != nil {
		if err := e.Before(ins); err != nil {
			return nil, errors.Wrapf(err, "before %#x", ins.Address)
		}
	}
	var res *Result
	var err error
	if force != nil {
		res, err = ProcessForced(e.Machine, ins, *force)
	} else {
		res, err = Process(e.Machine, ins)
	}
	if err != nil {
		return nil, err
	}
	e.steps++
	return res, nil
}

// RunTrace walks the listing of p in address order, whatever the branches decide.
// Every conditional branch is snapshotted after it is processed and the snapshot is
// filed under each of its successors; reaching one of those addresses restores it, so
// each side of the branch starts from the state the branch left behind.
func (e *Explorer) RunTrace(ctx context.Context, p *Program) ([]Step, error) {
	var trace []Step
	for _, ins := range p.Listing() {
		if err := ctx.Err(); err != nil {
			return trace, err
		}
		if e.limited() {
			return trace, ErrMaxSteps
		}
		step := Step{Ins: ins}
		if s, ok := e.Table.Get(ins.Address); ok {
			if err := e.Machine.RestoreSnapshot(s); err != nil {
				return trace, err
			}
			step.Restored = s
		}
		res, err := e.step(ins, nil)
		if err != nil {
			return trace, err
		}
		step.Result = res
		if ins.IsConditional() {
			s, err := e.snapshot()
			if err != nil {
				return trace, err
			}
			for _, addr := range ins.Successors() {
				e.Table.Put(addr, s)
			}
		}
		trace = append(trace, step)
		if e.OnStep != nil {
			e.OnStep(step)
		}
		if res.Halted {
			break
		}
	}
	return trace, nil
}

type fork struct {
	snap   *snapshot.Snapshot
	ins    *Instruction
	taken  bool
	prefix []uint64
}

// Explore follows control flow from entry depth first. At each conditional branch
// reached for the first time the machine is snapshotted; once the current path ends,
// the snapshot is restored and the branch is forced the other way. No solver is
// consulted, so concrete values on a forced path may not satisfy its constraints.
func (e *Explorer) Explore(ctx context.Context, p *Program, entry uint64) ([]Path, error) {
	forked := make(map[uint64]bool)
	var work []fork
	var paths []Path

	pc, prefix := entry, []uint64(nil)
	var force *bool
	for {
		path, err := e.follow(ctx, p, pc, prefix, force, forked, &work)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
		e.Machine.Logger().Info("path", "end", path.End, "last", path.Last, "len", len(path.Addrs))
		if len(work) == 0 || path.End == END_LIMIT {
			return paths, nil
		}
		f := work[len(work)-1]
		work = work[:len(work)-1]
		if err := e.Machine.RestoreSnapshot(f.snap); err != nil {
			return paths, err
		}
		taken := f.taken
		pc, prefix, force = f.ins.Address, f.prefix, &taken
	}
}

func (e *Explorer) follow(ctx context.Context, p *Program, pc uint64, prefix []uint64, force *bool, forked map[uint64]bool, work *[]fork) (Path, error) {
	path := Path{Addrs: append([]uint64(nil), prefix...)}
	for {
		if err := ctx.Err(); err != nil {
			return path, err
		}
		ins, ok := p.At(pc)
		if !ok {
			path.End = END_EXIT
			break
		}
		if e.limited() {
			path.End = END_LIMIT
			break
		}
		var snap *snapshot.Snapshot
		if ins.IsConditional() && force == nil && !forked[ins.Address] {
			forked[ins.Address] = true
			s, err := e.snapshot()
			if err != nil {
				return path, err
			}
			snap = s
		}
		res, err := e.step(ins, force)
		if err != nil {
			return path, err
		}
		force = nil
		if snap != nil {
			*work = append(*work, fork{
				snap:   snap,
				ins:    ins,
				taken:  !res.Taken,
				prefix: append([]uint64(nil), path.Addrs...),
			})
		}
		path.Addrs = append(path.Addrs, ins.Address)
		if e.OnStep != nil {
			e.OnStep(Step{Ins: ins, Result: res})
		}
		if res.Halted {
			path.End = END_HALT
			break
		}
		pc = res.Next
		if e.MaxLoops > 0 {
			if period, n := spinning(path.Addrs, maxLoopLen); n >= e.MaxLoops {
				e.Machine.Logger().Debug("loop", "addr", ins.Address, "period", period, "count", n)
				path.End = END_LOOP
				break
			}
		}
	}
	path.Last = pc
	path.Constraints = e.Machine.SymbolicEngine().PathConstraints()
	return path, nil
}
