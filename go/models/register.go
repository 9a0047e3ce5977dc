package models

import (
	"fmt"
)

type RegID int

// ID_REG_INVALID is the id of the zero Register, meaning "no register".
const ID_REG_INVALID RegID = 0

// Register is a named bit-range view of a parent register.
// Registers sharing a Parent alias the same storage.
type Register struct {
	BitRange

	ID      RegID
	Parent  RegID
	Name    string
	Mutable bool
}

func NewRegister(id RegID, name string, parent RegID, high, low uint, mutable bool) Register {
	return Register{
		BitRange: BitRange{High: high, Low: low},
		ID:       id,
		Parent:   parent,
		Name:     name,
		Mutable:  mutable,
	}
}

func (r Register) IsValid() bool {
	return r.ID != ID_REG_INVALID
}

// IsParent reports whether r is the widest view of its storage.
func (r Register) IsParent() bool {
	return r.ID == r.Parent
}

func (r Register) Type() OperandType {
	return OP_REG
}

// Overlaps reports whether r and o share at least one bit of the same parent register.
func (r Register) Overlaps(o Register) bool {
	return r.Parent == o.Parent && r.BitRange.Intersects(o.BitRange)
}

func (r Register) Equal(o Register) bool {
	return r.ID == o.ID
}

func (r Register) Less(o Register) bool {
	return r.ID < o.ID
}

func (r Register) String() string {
	name := r.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s:%d %s", name, r.BitSize(), r.BitRange)
}
