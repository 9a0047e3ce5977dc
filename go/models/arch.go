package models

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"
)

// ArchID tags every architecture-specific value. The set is closed.
type ArchID int

const (
	ARCH_INVALID ArchID = iota
	ARCH_X86
	ARCH_X86_64
	ARCH_AARCH64
)

func (a ArchID) String() string {
	switch a {
	case ARCH_X86:
		return "x86"
	case ARCH_X86_64:
		return "x86_64"
	case ARCH_AARCH64:
		return "aarch64"
	}
	return "invalid"
}

func ParseArchID(name string) (ArchID, error) {
	switch strings.ToLower(name) {
	case "x86", "i386":
		return ARCH_X86, nil
	case "x86_64", "amd64":
		return ARCH_X86_64, nil
	case "aarch64", "arm64":
		return ARCH_AARCH64, nil
	}
	return ARCH_INVALID, errors.Errorf("unknown architecture %q", name)
}

type RegVal struct {
	Register
	Val uint64
}

type regList []Register

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

// RegReader is the part of a cpu RegDump needs.
type RegReader interface {
	RegRead(reg Register) (uint64, error)
}

// Arch describes one architecture: its register table and a few well-known registers.
// Tables are built once and never modified, so an Arch can be shared between machines.
type Arch struct {
	ID    ArchID
	Name  string
	Bits  uint
	Order binary.ByteOrder
	PC    RegID
	SP    RegID
	Regs  []Register
	// registers shown by RegDump
	DefaultRegs []string

	once    sync.Once
	byID    map[RegID]Register
	byName  map[string]Register
	parents []Register
	dump    regList
}

func (a *Arch) index() {
	a.once.Do(func() {
		a.byID = make(map[RegID]Register, len(a.Regs))
		a.byName = make(map[string]Register, len(a.Regs))
		for _, r := range a.Regs {
			if _, ok := a.byID[r.ID]; ok {
				panic(fmt.Sprintf("%s: duplicate register id %d (%s)", a.Name, r.ID, r.Name))
			}
			a.byID[r.ID] = r
			a.byName[r.Name] = r
			if r.IsParent() {
				a.parents = append(a.parents, r)
			}
		}
		for _, name := range a.DefaultRegs {
			if r, ok := a.byName[name]; ok {
				a.dump = append(a.dump, r)
			}
		}
		sort.Sort(a.dump)
	})
}

// ByteSize is the native word size in bytes.
func (a *Arch) ByteSize() uint {
	return a.Bits / BYTE_SIZE_BIT
}

func (a *Arch) Register(id RegID) (Register, error) {
	a.index()
	if r, ok := a.byID[id]; ok {
		return r, nil
	}
	return Register{}, errors.Wrapf(ErrInvalidRegister, "%s: register id %d", a.Name, id)
}

func (a *Arch) RegisterByName(name string) (Register, error) {
	a.index()
	if r, ok := a.byName[strings.ToLower(name)]; ok {
		return r, nil
	}
	return Register{}, errors.Wrapf(ErrInvalidRegister, "%s: register %q", a.Name, name)
}

// IsRegister reports whether r belongs to this architecture.
func (a *Arch) IsRegister(r Register) bool {
	a.index()
	known, ok := a.byID[r.ID]
	return ok && known.Parent == r.Parent
}

// Parent returns the widest register aliasing r.
func (a *Arch) Parent(r Register) Register {
	a.index()
	if p, ok := a.byID[r.Parent]; ok {
		return p
	}
	return r
}

// Parents returns one register per physical storage location, in table order.
func (a *Arch) Parents() []Register {
	a.index()
	return append([]Register(nil), a.parents...)
}

// RegDump reads DefaultRegs in natural name order.
func (a *Arch) RegDump(c RegReader) ([]RegVal, error) {
	a.index()
	ret := make([]RegVal, len(a.dump))
	for i, r := range a.dump {
		val, err := c.RegRead(r)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", r.Name)
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}

func (a *Arch) String() string {
	return fmt.Sprintf("<Arch %s>", a.Name)
}

// RegReadWriter is the part of a cpu SmokeTest needs.
type RegReadWriter interface {
	RegReader
	RegWrite(reg Register, val uint64) error
}

// SmokeTest checks that every register of the table up to 64 bits round-trips through c.
func (a *Arch) SmokeTest(t testing.TB, c RegReadWriter) {
	a.index()
	sp, err := a.Register(a.SP)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.RegWrite(sp, 0x1000); err != nil {
		t.Fatal(err)
	}
	if val, err := c.RegRead(sp); err != nil {
		t.Fatal(err)
	} else if val != 0x1000 {
		t.Fatal(a.Name + " failed to read/write stack pointer")
	}
	for _, r := range a.Regs {
		if r.BitSize() > 64 || !r.Mutable {
			continue
		}
		want := uint64(0x5a5a5a5a5a5a5a5a) & r.Mask()
		if err := c.RegWrite(r, want); err != nil {
			t.Fatalf("%s: RegWrite(%s) failed: %v", a.Name, r.Name, err)
		}
		if val, err := c.RegRead(r); err != nil || val != want {
			t.Fatalf("%s: RegRead(%s) = %#x, %v; expecting %#x", a.Name, r.Name, val, err, want)
		}
	}
}
