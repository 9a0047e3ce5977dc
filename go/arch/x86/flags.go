package x86

import (
	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
	"github.com/snapcorn/snapcorn/go/models/cpu"
)

// eflags bit positions of the single-bit flag registers
var eflagsBits = []struct {
	name string
	bit  uint
}{
	{"cf", 0}, {"pf", 2}, {"af", 4}, {"zf", 6}, {"sf", 7},
	{"tf", 8}, {"if", 9}, {"df", 10}, {"of", 11},
}

// AddFlags adds the flag registers shared by x86 and x86_64. Each flag is its own 1-bit register.
func AddFlags(t *models.RegTable) {
	for _, f := range eflagsBits {
		t.Parent(f.name, 1)
	}
}

// ReadEflags composes the flag registers into an eflags value. Reserved bit 1 is always set.
func ReadEflags(c cpu.Cpu) (uint64, error) {
	val := uint64(1 << 1)
	for _, f := range eflagsBits {
		r, err := c.Arch().RegisterByName(f.name)
		if err != nil {
			return 0, err
		}
		bit, err := c.RegRead(r)
		if err != nil {
			return 0, errors.Wrap(err, "ReadEflags")
		}
		val |= bit << f.bit
	}
	return val, nil
}

// WriteEflags splits val into the flag registers.
func WriteEflags(c cpu.Cpu, val uint64) error {
	for _, f := range eflagsBits {
		r, err := c.Arch().RegisterByName(f.name)
		if err != nil {
			return err
		}
		if err := c.RegWrite(r, val>>f.bit&1); err != nil {
			return errors.Wrap(err, "WriteEflags")
		}
	}
	return nil
}
