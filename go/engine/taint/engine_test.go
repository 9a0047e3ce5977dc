package taint

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/snapcorn/snapcorn/go/models"
)

var (
	rax = models.NewRegister(1, "rax", 1, 63, 0, true)
	al  = models.NewRegister(2, "al", 1, 7, 0, true)
	rbx = models.NewRegister(3, "rbx", 3, 63, 0, true)
	rcx = models.NewRegister(4, "rcx", 4, 63, 0, true)
)

func mem(t *testing.T, addr uint64, size uint) models.MemoryAccess {
	m, err := models.NewMemoryAccess(addr, size)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestRegisterTaint(t *testing.T) {
	e := NewEngine()
	if !e.TaintRegister(al) || !e.IsRegisterTainted(rax) {
		t.Fatal("tainting al should taint rax")
	}
	if e.UnionRegisterImmediate(rbx) {
		t.Fatal("immediate union should not taint rbx")
	}
	if !e.UnionRegisterRegister(rbx, rax) {
		t.Fatal("union should propagate taint")
	}
	if e.AssignRegisterRegister(rbx, rcx) || e.IsRegisterTainted(rbx) {
		t.Fatal("assignment from clean rcx should untaint rbx")
	}
	if e.AssignRegisterImmediate(rax) {
		t.Fatal("assigning an immediate should untaint")
	}
}

func TestMemoryTaint(t *testing.T) {
	e := NewEngine()
	e.TaintMemory(mem(t, 0x1000, 2))
	if !e.IsMemoryTainted(mem(t, 0x0fff, 2)) || e.IsMemoryTainted(mem(t, 0x1002, 8)) {
		t.Fatal("bad memory taint ranges")
	}
	if !e.AssignRegisterMemory(rcx, mem(t, 0x1000, 8)) {
		t.Fatal("rcx should pick up memory taint")
	}
	e.AssignMemoryRegister(mem(t, 0x2000, 4), rcx)
	e.AssignMemoryMemory(mem(t, 0x3000, 4), mem(t, 0x0fff, 2))
	want := []uint64{0x1000, 0x1001, 0x2000, 0x2001, 0x2002, 0x2003, 0x3001}
	if diff := cmp.Diff(want, e.TaintedMemory()); diff != "" {
		t.Fatalf("tainted memory: %s", diff)
	}
	e.UntaintMemory(mem(t, 0x2000, 4))
	if e.UnionMemoryImmediate(mem(t, 0x2000, 4)) {
		t.Fatal("0x2000 should be clean")
	}
	if !e.UnionMemoryMemory(mem(t, 0x2000, 1), mem(t, 0x1000, 1)) {
		t.Fatal("union from tainted memory")
	}
}

func TestDisabled(t *testing.T) {
	e := NewEngine()
	e.Enable(false)
	if e.TaintRegister(rax) || e.IsRegisterTainted(rax) {
		t.Fatal("disabled engine should ignore taint")
	}
	e.Enable(true)
	e.TaintRegister(rax)
	e.Enable(false)
	if !e.UntaintRegister(rax) {
		t.Fatal("disabled engine should keep existing taint")
	}
}

func TestCloneIndependent(t *testing.T) {
	e := NewEngine()
	e.TaintRegister(rax)
	e.TaintMemory(mem(t, 0x10, 1))
	clone := e.Clone()
	e.UntaintRegister(rax)
	e.TaintRegister(rbx)
	e.UntaintMemory(mem(t, 0x10, 1))
	if diff := cmp.Diff([]models.RegID{rax.ID}, clone.TaintedRegisters()); diff != "" {
		t.Fatalf("clone registers: %s", diff)
	}
	if diff := cmp.Diff([]uint64{0x10}, clone.TaintedMemory()); diff != "" {
		t.Fatalf("clone memory: %s", diff)
	}
	if diff := cmp.Diff([]models.RegID{rbx.ID}, e.TaintedRegisters()); diff != "" {
		t.Fatalf("live registers: %s", diff)
	}
}
