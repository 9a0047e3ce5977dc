package x86

import (
	"encoding/binary"
	"fmt"

	"github.com/snapcorn/snapcorn/go/models"
)

var Arch = buildArch()

func buildArch() *models.Arch {
	var t models.RegTable
	for _, r := range []string{"a", "b", "c", "d"} {
		e := t.Parent("e"+r+"x", 32)
		t.Sub(e, r+"x", 15, 0)
		t.Sub(e, r+"h", 15, 8)
		t.Sub(e, r+"l", 7, 0)
	}
	for _, r := range []string{"si", "di", "bp", "sp"} {
		e := t.Parent("e"+r, 32)
		t.Sub(e, r, 15, 0)
	}
	eip := t.Parent("eip", 32)
	t.Sub(eip, "ip", 15, 0)

	AddFlags(&t)
	for _, s := range []string{"cs", "ds", "es", "fs", "gs", "ss"} {
		t.Parent(s, 32)
	}
	for i := 0; i < 8; i++ {
		t.Parent(fmt.Sprintf("mm%d", i), 64)
	}
	for i := 0; i < 8; i++ {
		ymm := t.Parent(fmt.Sprintf("ymm%d", i), 256)
		t.Sub(ymm, fmt.Sprintf("xmm%d", i), 127, 0)
	}
	return &models.Arch{
		ID:    models.ARCH_X86,
		Name:  "x86",
		Bits:  32,
		Order: binary.LittleEndian,
		PC:    t.ID("eip"),
		SP:    t.ID("esp"),
		Regs:  t.Registers(),
		DefaultRegs: []string{
			"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp", "eip",
			"cf", "pf", "af", "zf", "sf", "of",
		},
	}
}
