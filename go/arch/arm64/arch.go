package arm64

import (
	"encoding/binary"
	"fmt"

	"github.com/snapcorn/snapcorn/go/models"
)

var Arch = buildArch()

func buildArch() *models.Arch {
	var t models.RegTable
	for i := 0; i <= 30; i++ {
		x := t.Parent(fmt.Sprintf("x%d", i), 64)
		t.Sub(x, fmt.Sprintf("w%d", i), 31, 0)
	}
	sp := t.Parent("sp", 64)
	t.Sub(sp, "wsp", 31, 0)
	t.Parent("pc", 64)
	xzr := t.Immutable("xzr", 64)
	t.Sub(xzr, "wzr", 31, 0)
	for _, f := range []string{"n", "z", "c", "v"} {
		t.Parent(f, 1)
	}
	for i := 0; i < 32; i++ {
		q := t.Parent(fmt.Sprintf("q%d", i), 128)
		t.Sub(q, fmt.Sprintf("d%d", i), 63, 0)
		t.Sub(q, fmt.Sprintf("s%d", i), 31, 0)
		t.Sub(q, fmt.Sprintf("h%d", i), 15, 0)
		t.Sub(q, fmt.Sprintf("b%d", i), 7, 0)
	}
	t.Parent("spsr", 32)
	return &models.Arch{
		ID:    models.ARCH_AARCH64,
		Name:  "aarch64",
		Bits:  64,
		Order: binary.LittleEndian,
		PC:    t.ID("pc"),
		SP:    t.ID("sp"),
		Regs:  t.Registers(),
		DefaultRegs: []string{
			"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7",
			"x8", "x9", "x10", "x11", "x12", "x13", "x14", "x15",
			"x16", "x17", "x18", "x19", "x20", "x21", "x22", "x23",
			"x24", "x25", "x26", "x27", "x28", "x29", "x30", "sp", "pc",
			"n", "z", "c", "v",
		},
	}
}
