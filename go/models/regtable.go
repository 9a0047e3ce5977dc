package models

import (
	"fmt"
)

// RegTable assigns sequential ids while an architecture's register table is built.
type RegTable struct {
	regs []Register
	ids  map[string]RegID
}

func (t *RegTable) add(name string, parent RegID, high, low uint, mutable bool) RegID {
	if t.ids == nil {
		t.ids = make(map[string]RegID)
	}
	if _, ok := t.ids[name]; ok {
		panic(fmt.Sprintf("duplicate register %q", name))
	}
	id := RegID(len(t.regs) + 1)
	if parent == ID_REG_INVALID {
		parent = id
	}
	t.regs = append(t.regs, NewRegister(id, name, parent, high, low, mutable))
	t.ids[name] = id
	return id
}

// Parent adds a mutable register of the given width with its own storage.
func (t *RegTable) Parent(name string, bits uint) RegID {
	return t.add(name, ID_REG_INVALID, bits-1, 0, true)
}

// Immutable adds a read-only register, such as a zero register.
func (t *RegTable) Immutable(name string, bits uint) RegID {
	return t.add(name, ID_REG_INVALID, bits-1, 0, false)
}

// Sub adds a view of bits [high, low] of parent.
func (t *RegTable) Sub(parent RegID, name string, high, low uint) RegID {
	p := t.regs[parent-1]
	return t.add(name, parent, high, low, p.Mutable)
}

func (t *RegTable) ID(name string) RegID {
	id, ok := t.ids[name]
	if !ok {
		panic(fmt.Sprintf("unknown register %q", name))
	}
	return id
}

func (t *RegTable) Registers() []Register {
	return append([]Register(nil), t.regs...)
}
