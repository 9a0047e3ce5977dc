package cpu

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

// Regs stores one value per parent register. Sub-registers are bit-range views into their parent.
// Stored values are never mutated in place, only replaced.
type Regs struct {
	arch  *models.Arch
	vals  map[models.RegID]*big.Int
	hooks *Hooks
}

func NewRegs(arch *models.Arch) *Regs {
	r := &Regs{
		arch: arch,
		vals: make(map[models.RegID]*big.Int),
	}
	for _, p := range arch.Parents() {
		r.vals[p.ID] = new(big.Int)
	}
	return r
}

func (r *Regs) Arch() *models.Arch {
	return r.arch
}

func (r *Regs) PC() (uint64, error) {
	pc, err := r.arch.Register(r.arch.PC)
	if err != nil {
		return 0, err
	}
	return r.RegRead(pc)
}

func (r *Regs) parent(reg models.Register) (*big.Int, error) {
	if val, ok := r.vals[reg.Parent]; ok && r.arch.IsRegister(reg) {
		return val, nil
	}
	return nil, errors.Wrapf(models.ErrInvalidRegister, "%s: %s", r.arch.Name, reg)
}

func bitMask(bits uint) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), bits)
	return m.Sub(m, big.NewInt(1))
}

func (r *Regs) RegReadBig(reg models.Register) (*big.Int, error) {
	parent, err := r.parent(reg)
	if err != nil {
		return nil, err
	}
	val := new(big.Int).Rsh(parent, reg.Low)
	return val.And(val, bitMask(reg.BitSize())), nil
}

func (r *Regs) RegWriteBig(reg models.Register, val *big.Int) error {
	parent, err := r.parent(reg)
	if err != nil {
		return err
	}
	if !reg.Mutable {
		return errors.Wrapf(models.ErrImmutableRegister, "%s", reg)
	}
	mask := bitMask(reg.BitSize())
	v := new(big.Int).And(val, mask)
	v.Lsh(v, reg.Low)
	cleared := new(big.Int).AndNot(parent, mask.Lsh(mask, reg.Low))
	r.vals[reg.Parent] = cleared.Or(cleared, v)
	if r.hooks != nil {
		r.hooks.OnRegWrite(reg, new(big.Int).And(val, bitMask(reg.BitSize())))
	}
	return nil
}

func (r *Regs) RegRead(reg models.Register) (uint64, error) {
	if reg.BitSize() > 64 {
		return 0, errors.Wrapf(models.ErrRegisterTooWide, "%s", reg)
	}
	val, err := r.RegReadBig(reg)
	if err != nil {
		return 0, err
	}
	return val.Uint64(), nil
}

func (r *Regs) RegWrite(reg models.Register, val uint64) error {
	if reg.BitSize() > 64 {
		return errors.Wrapf(models.ErrRegisterTooWide, "%s", reg)
	}
	return r.RegWriteBig(reg, new(big.Int).SetUint64(val))
}

// Clone deep-copies the register file. Hooks are not copied.
func (r *Regs) Clone() *Regs {
	c := &Regs{arch: r.arch, vals: make(map[models.RegID]*big.Int, len(r.vals))}
	for id, v := range r.vals {
		c.vals[id] = new(big.Int).Set(v)
	}
	return c
}

// Equal compares every parent register value.
func (r *Regs) Equal(o *Regs) bool {
	if r.arch != o.arch || len(r.vals) != len(o.vals) {
		return false
	}
	for id, v := range r.vals {
		if ov, ok := o.vals[id]; !ok || v.Cmp(ov) != 0 {
			return false
		}
	}
	return true
}

func (r *Regs) SetHooks(h *Hooks) {
	r.hooks = h
}
