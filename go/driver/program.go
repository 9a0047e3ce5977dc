package driver

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

// Line is one entry of a program listing.
type Line struct {
	Addr uint64 `yaml:"addr"`
	Asm  string `yaml:"asm"`
	// overrides the size taken from the listing
	Size uint64 `yaml:"size,omitempty"`
}

// Program is an assembled listing, addressable by instruction address.
type Program struct {
	Arch  *models.Arch
	insns map[uint64]*Instruction
	order []*Instruction
}

// NewProgram assembles lines for arch. Unless a line gives its size, an instruction
// extends to the next listed address; the last one keeps its default size.
func NewProgram(arch *models.Arch, lines []Line) (*Program, error) {
	p := &Program{Arch: arch, insns: make(map[uint64]*Instruction)}
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Addr < sorted[j].Addr })
	for i, l := range sorted {
		if _, dup := p.insns[l.Addr]; dup {
			return nil, errors.Errorf("duplicate instruction at %#x", l.Addr)
		}
		ins, err := Assemble(arch, l.Addr, l.Asm)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}
		switch {
		case l.Size > 0:
			ins.Size = l.Size
		case arch.ID == models.ARCH_AARCH64:
		case i+1 < len(sorted):
			ins.Size = sorted[i+1].Addr - l.Addr
		}
		p.insns[l.Addr] = ins
		p.order = append(p.order, ins)
	}
	return p, nil
}

// At returns the instruction at addr.
func (p *Program) At(addr uint64) (*Instruction, bool) {
	ins, ok := p.insns[addr]
	return ins, ok
}

// Listing returns the instructions in address order.
func (p *Program) Listing() []*Instruction {
	return p.order
}

func (p *Program) Len() int {
	return len(p.order)
}
