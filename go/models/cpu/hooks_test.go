package cpu

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/snapcorn/snapcorn/go/models"
)

func fireAll(h *Hooks) {
	h.OnCode(0x1001, 2)
	h.OnMem(MEM_WRITE, 0x1002, 4, -1)
	h.OnMem(MEM_READ, 0x1003, 8, 0)
	h.OnRegWrite(models.NewRegister(1, "r1", 1, 63, 0, true), big.NewInt(5))
}

type hookLog []string

func (l *hookLog) code(_ Cpu, addr uint64, size uint32) {
	*l = append(*l, fmt.Sprintf("code %#x/%d", addr, size))
}

func (l *hookLog) mem(_ Cpu, access int, addr uint64, size int, val int64) {
	*l = append(*l, fmt.Sprintf("mem %d %#x/%d = %d", access, addr, size, val))
}

func (l *hookLog) reg(_ Cpu, reg models.Register, val *big.Int) {
	*l = append(*l, fmt.Sprintf("reg %s = %s", reg.Name, val))
}

func (l *hookLog) install(t *testing.T, h *Hooks) []Hook {
	var out []Hook
	for kind, cb := range map[int]interface{}{
		HOOK_CODE:                     CodeCb(l.code),
		HOOK_MEM_READ | HOOK_MEM_WRITE: MemCb(l.mem),
		HOOK_REG_WRITE:                RegCb(l.reg),
	} {
		hh, err := h.HookAdd(kind, cb, 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, hh)
	}
	return out
}

func TestHooksEmpty(t *testing.T) {
	fireAll(NewHooks())
}

func TestHooks(t *testing.T) {
	want := hookLog{"code 0x1001/2", "mem 16 0x1002/4 = -1", "mem 17 0x1003/8 = 0", "reg r1 = 5"}
	h := NewHooks()
	var log hookLog
	installed := log.install(t, h)
	fireAll(h)
	if diff := cmp.Diff(want, log); diff != "" {
		t.Fatalf("hook calls (-want +got):\n%s", diff)
	}

	for _, hh := range installed {
		if err := h.HookDel(hh); err != nil {
			t.Fatal(err)
		}
	}
	if h.Len() != 0 {
		t.Fatalf("%d hooks left after removal", h.Len())
	}
	if err := h.HookDel(installed[0]); err == nil {
		t.Fatal("removed a hook twice")
	}
	log = nil
	fireAll(h)
	if len(log) != 0 {
		t.Fatalf("removed hooks fired: %v", log)
	}
}

func TestHookRange(t *testing.T) {
	h := NewHooks()
	var log hookLog
	if _, err := h.HookAdd(HOOK_MEM_WRITE, MemCb(log.mem), 0x1000, 0x1fff); err != nil {
		t.Fatal(err)
	}
	for addr := uint64(0); addr < 0x4000; addr += 0x1000 {
		h.OnMem(MEM_WRITE, addr, 8, 0)
		h.OnMem(MEM_READ, addr, 8, 0)
	}
	if diff := cmp.Diff(hookLog{"mem 16 0x1000/8 = 0"}, log); diff != "" {
		t.Fatalf("hook calls (-want +got):\n%s", diff)
	}
}

func TestHookBadCallback(t *testing.T) {
	h := NewHooks()
	if _, err := h.HookAdd(HOOK_CODE, func() {}, 1, 0); err == nil {
		t.Fatal("HookAdd accepted a mismatched callback")
	}
	if _, err := h.HookAdd(HOOK_REG_WRITE, MemCb(nil), 1, 0); err == nil {
		t.Fatal("HookAdd accepted a memory callback for registers")
	}
	if _, err := h.HookAdd(12345, func() {}, 1, 0); err == nil {
		t.Fatal("HookAdd accepted an unknown hook type")
	}
	if err := h.HookDel(42); err == nil {
		t.Fatal("HookDel accepted a non-hook")
	}
}

func BenchmarkOnCode(b *testing.B) {
	h := NewHooks()
	if _, err := h.HookAdd(HOOK_CODE, func(Cpu, uint64, uint32) {}, 0x1000, 0x1fff); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.OnCode(0x1000, 1)
	}
}
