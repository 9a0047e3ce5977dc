package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	snapcorn "github.com/snapcorn/snapcorn/go"
	"github.com/snapcorn/snapcorn/go/arch"
	"github.com/snapcorn/snapcorn/go/engine/symbolic"
	"github.com/snapcorn/snapcorn/go/models"
)

const branchScenario = `
arch: x86_64
registers: {rbx: 0}
symbolic:
  registers: [rax, rbx]
symbolize_at:
  - {addr: 0x07, register: rcx}
program:
  - {addr: 0x00, asm: "cmp rbx, 1"}
  - {addr: 0x04, asm: "je 0x10"}
  - {addr: 0x06, asm: "nop"}
  - {addr: 0x07, asm: "mov rax, 0x1010101"}
  - {addr: 0x0e, asm: "jmp 0x17"}
  - {addr: 0x10, asm: "mov rax, 0x2020202"}
`

func setup(t *testing.T, config *models.Config) (*snapcorn.Machine, *Scenario, *Program) {
	s, err := ParseScenario([]byte(branchScenario))
	if err != nil {
		t.Fatal(err)
	}
	if config == nil {
		config = &models.Config{}
	}
	config.Output = &bytes.Buffer{}
	m, err := snapcorn.NewMachine(config)
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.Setup(m)
	if err != nil {
		t.Fatal(err)
	}
	return m, s, p
}

func exprIDs(e *symbolic.Engine) map[models.RegID]uint {
	ids := make(map[models.RegID]uint)
	for id, expr := range e.SymbolicRegisters() {
		ids[id] = expr.ID
	}
	return ids
}

func TestScenarioSetup(t *testing.T) {
	m, s, p := setup(t, nil)
	if m.Arch().ID != models.ARCH_X86_64 {
		t.Fatalf("arch = %s", m.Arch().Name)
	}
	if !m.IsRegisterSymbolized(reg(t, m, "rax")) || !m.IsRegisterSymbolized(reg(t, m, "rbx")) {
		t.Fatal("rax and rbx should start symbolized")
	}
	if p.Len() != 6 || s.EntryPoint(p) != 0 {
		t.Fatalf("%d instructions, entry %#x", p.Len(), s.EntryPoint(p))
	}
	if _, err := ParseScenario([]byte("arch: x86_64\nbogus: 1\n")); err == nil {
		t.Fatal("unknown field accepted")
	}
	if _, err := ParseScenario([]byte("program: [{addr: 0, asm: nop}]\n")); err == nil {
		t.Fatal("missing arch accepted")
	}
}

func TestRunTraceBranch(t *testing.T) {
	m, s, p := setup(t, nil)
	x := NewExplorer(m)

	rcx := reg(t, m, "rcx")
	annotate := s.Before(m)
	checked := false
	x.Before = func(ins *Instruction) error {
		if err := annotate(ins); err != nil {
			return err
		}
		if ins.Address != 0x10 {
			return nil
		}
		snap, ok := x.Table.Get(0x10)
		if !ok {
			t.Fatal("no snapshot for 0x10")
		}
		saved, err := snap.SymbolicEngine()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(exprIDs(saved), exprIDs(m.SymbolicEngine())); diff != "" {
			t.Errorf("symbolic registers at 0x10 (-snapshot +live):\n%s", diff)
		}
		if m.IsRegisterSymbolized(rcx) {
			t.Error("rcx symbolized on the taken side")
		}
		if !m.IsRegisterSymbolized(reg(t, m, "rax")) {
			t.Error("rax lost its variable")
		}
		checked = true
		return nil
	}

	trace, err := x.RunTrace(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !checked {
		t.Fatal("0x10 was never reached")
	}
	var addrs []uint64
	for _, step := range trace {
		addrs = append(addrs, step.Ins.Address)
	}
	if diff := cmp.Diff([]uint64{0x00, 0x04, 0x06, 0x07, 0x0e, 0x10}, addrs); diff != "" {
		t.Fatalf("trace (-want +got):\n%s", diff)
	}
	snap, _ := x.Table.Get(0x06)
	if trace[2].Restored != snap || trace[5].Restored != snap {
		t.Fatal("both successors should restore the branch snapshot")
	}
	if x.Table.Len() != 2 || x.Steps() != 6 {
		t.Fatalf("%d snapshots after %d steps", x.Table.Len(), x.Steps())
	}
	if v := value(t, m, "rax"); v != 0x2020202 {
		t.Fatalf("rax = %#x", v)
	}
	if m.IsRegisterSymbolized(reg(t, m, "rax")) {
		t.Fatal("rax still symbolized after a constant move")
	}
}

func TestExplore(t *testing.T) {
	m, s, p := setup(t, nil)
	x := NewExplorer(m)
	x.Before = s.Before(m)
	paths, err := x.Explore(context.Background(), p, s.EntryPoint(p))
	if err != nil {
		t.Fatal(err)
	}
	type summary struct {
		Addrs []uint64
		End   EndReason
		Last  uint64
		Taken []bool
	}
	var got []summary
	for _, path := range paths {
		sum := summary{Addrs: path.Addrs, End: path.End, Last: path.Last}
		for _, c := range path.Constraints {
			sum.Taken = append(sum.Taken, c.Taken)
		}
		got = append(got, sum)
	}
	want := []summary{
		{Addrs: []uint64{0x00, 0x04, 0x06, 0x07, 0x0e}, End: END_EXIT, Last: 0x17, Taken: []bool{false}},
		{Addrs: []uint64{0x00, 0x04, 0x10}, End: END_EXIT, Last: 0x11, Taken: []bool{true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paths (-want +got):\n%s\n%s", diff, spew.Sdump(got))
	}
	if !paths[1].Constraints[0].Cond.Symbolized() {
		t.Fatal("branch condition should depend on rbx")
	}
}

func TestRunTraceLimits(t *testing.T) {
	m, _, p := setup(t, nil)
	x := NewExplorer(m)
	x.MaxSteps = 3
	trace, err := x.RunTrace(context.Background(), p)
	if err != ErrMaxSteps || len(trace) != 3 {
		t.Fatalf("RunTrace() = %d steps, %v", len(trace), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x = NewExplorer(m)
	if _, err := x.RunTrace(ctx, p); errors.Cause(err) != context.Canceled {
		t.Fatalf("RunTrace() = %v", err)
	}
}

func TestSaveDir(t *testing.T) {
	dir := t.TempDir()
	m, _, p := setup(t, &models.Config{SaveDir: dir})
	x := NewExplorer(m)
	if _, err := x.RunTrace(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.snap"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("%d images saved", len(files))
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	state, err := arch.LoadState(f)
	if err != nil {
		t.Fatal(err)
	}
	if state.Arch() != models.ARCH_X86_64 {
		t.Fatalf("image arch = %s", state.Arch())
	}
}

func TestSpinning(t *testing.T) {
	tests := []struct {
		addrs         []uint64
		period, count int
	}{
		{nil, 0, 0},
		{[]uint64{1, 2, 3}, 0, 0},
		{[]uint64{5, 5, 5}, 1, 3},
		{[]uint64{9, 1, 2, 1, 2, 1, 2}, 2, 3},
		{[]uint64{1, 2, 3, 1, 2, 3}, 3, 2},
	}
	for _, v := range tests {
		period, count := spinning(v.addrs, maxLoopLen)
		if period != v.period || count != v.count {
			t.Errorf("spinning(%v) = %d, %d; want %d, %d", v.addrs, period, count, v.period, v.count)
		}
	}
}

func TestExploreLoop(t *testing.T) {
	m := newMachine(t, models.ARCH_X86_64)
	p, err := NewProgram(m.Arch(), []Line{
		{Addr: 0x0, Asm: "inc rax"},
		{Addr: 0x1, Asm: "jmp 0x0"},
	})
	if err != nil {
		t.Fatal(err)
	}
	x := NewExplorer(m)
	x.MaxLoops = 3
	paths, err := x.Explore(context.Background(), p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0].End != END_LOOP || len(paths[0].Addrs) != 6 {
		t.Fatalf("paths:\n%s", spew.Sdump(paths))
	}
	if v := value(t, m, "rax"); v != 3 {
		t.Fatalf("rax = %d", v)
	}
}
