package cpu

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

type (
	CodeCb = func(c Cpu, addr uint64, size uint32)
	MemCb  = func(c Cpu, access int, addr uint64, size int, val int64)
	RegCb  = func(c Cpu, reg models.Register, val *big.Int)
)

// hook is one installed callback. It fires for addresses start-end inclusive, or
// everywhere when start > end.
type hook[F any] struct {
	kind       int
	start, end uint64
	cb         F
}

func (h *hook[F]) covers(addr uint64) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type hookList[F any] []*hook[F]

func (l *hookList[F]) add(kind int, cb interface{}, start, end uint64) (Hook, error) {
	fn, ok := cb.(F)
	if !ok {
		return nil, errors.Errorf("bad callback type %T for hook type %d", cb, kind)
	}
	h := &hook[F]{kind: kind, start: start, end: end, cb: fn}
	*l = append(*l, h)
	return h, nil
}

// remove copies the list so a dispatch in progress keeps iterating the old one.
func (l *hookList[F]) remove(hh Hook) bool {
	for i, h := range *l {
		if Hook(h) == hh {
			*l = append((*l)[:i:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// Hooks belong to the live machine. They are attached to whichever cpu is current
// and are never part of a cpu copy.
type Hooks struct {
	cpu Cpu

	code hookList[CodeCb]
	mem  hookList[MemCb]
	reg  hookList[RegCb]
}

func NewHooks() *Hooks {
	return &Hooks{}
}

// Attach makes c the cpu passed to callbacks.
func (h *Hooks) Attach(c Cpu) {
	h.cpu = c
}

// Len returns the number of installed hooks.
func (h *Hooks) Len() int {
	return len(h.code) + len(h.mem) + len(h.reg)
}

// HookAdd installs cb, which must match the callback type for kind.
func (h *Hooks) HookAdd(kind int, cb interface{}, start uint64, end uint64) (Hook, error) {
	switch kind {
	case HOOK_CODE:
		return h.code.add(kind, cb, start, end)
	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		return h.mem.add(kind, cb, start, end)
	case HOOK_REG_WRITE:
		return h.reg.add(kind, cb, start, end)
	}
	return nil, errors.Errorf("unknown hook type %d", kind)
}

func (h *Hooks) HookDel(hh Hook) error {
	if h.code.remove(hh) || h.mem.remove(hh) || h.reg.remove(hh) {
		return nil
	}
	return errors.Errorf("hook %v is not installed", hh)
}

func (h *Hooks) OnCode(addr uint64, size uint32) {
	for _, v := range h.code {
		if v.covers(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnMem(access int, addr uint64, size int, val int64) {
	want := HOOK_MEM_WRITE
	if access == MEM_READ {
		want = HOOK_MEM_READ
	}
	for _, v := range h.mem {
		if v.kind&want != 0 && v.covers(addr) {
			v.cb(h.cpu, access, addr, size, val)
		}
	}
}

// OnRegWrite ignores hook ranges, registers have no address.
func (h *Hooks) OnRegWrite(reg models.Register, val *big.Int) {
	for _, v := range h.reg {
		v.cb(h.cpu, reg, val)
	}
}
