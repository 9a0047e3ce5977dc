package x86_64

import (
	"encoding/binary"
	"fmt"

	"github.com/snapcorn/snapcorn/go/arch/x86"
	"github.com/snapcorn/snapcorn/go/models"
)

var Arch = buildArch()

func buildArch() *models.Arch {
	var t models.RegTable
	for _, r := range []string{"a", "b", "c", "d"} {
		p := t.Parent("r"+r+"x", 64)
		t.Sub(p, "e"+r+"x", 31, 0)
		t.Sub(p, r+"x", 15, 0)
		t.Sub(p, r+"h", 15, 8)
		t.Sub(p, r+"l", 7, 0)
	}
	for _, r := range []string{"si", "di", "bp", "sp"} {
		p := t.Parent("r"+r, 64)
		t.Sub(p, "e"+r, 31, 0)
		t.Sub(p, r, 15, 0)
		t.Sub(p, r+"l", 7, 0)
	}
	for i := 8; i < 16; i++ {
		p := t.Parent(fmt.Sprintf("r%d", i), 64)
		t.Sub(p, fmt.Sprintf("r%dd", i), 31, 0)
		t.Sub(p, fmt.Sprintf("r%dw", i), 15, 0)
		t.Sub(p, fmt.Sprintf("r%db", i), 7, 0)
	}
	rip := t.Parent("rip", 64)
	t.Sub(rip, "eip", 31, 0)
	t.Sub(rip, "ip", 15, 0)

	x86.AddFlags(&t)
	for _, s := range []string{"cs", "ds", "es", "fs", "gs", "ss"} {
		t.Parent(s, 64)
	}
	for i := 0; i < 8; i++ {
		t.Parent(fmt.Sprintf("mm%d", i), 64)
	}
	for i := 0; i < 16; i++ {
		zmm := t.Parent(fmt.Sprintf("zmm%d", i), 512)
		t.Sub(zmm, fmt.Sprintf("ymm%d", i), 255, 0)
		t.Sub(zmm, fmt.Sprintf("xmm%d", i), 127, 0)
	}
	return &models.Arch{
		ID:    models.ARCH_X86_64,
		Name:  "x86_64",
		Bits:  64,
		Order: binary.LittleEndian,
		PC:    t.ID("rip"),
		SP:    t.ID("rsp"),
		Regs:  t.Registers(),
		DefaultRegs: []string{
			"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
			"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15", "rip",
			"cf", "pf", "af", "zf", "sf", "of",
		},
	}
}
