package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

const PAGE_SIZE = 0x1000

// Mem is the Cpu-facing memory model over a page-granular address space.
type Mem struct {
	bits uint
	// methods return an error for addresses that do not fit inside mask
	// calculated by NewMem using ^uint64(0) >> (64 - bits)
	mask  uint64
	hooks *Hooks
	space *space

	order binary.ByteOrder
}

func NewMem(bits uint, order binary.ByteOrder) *Mem {
	return &Mem{
		bits:  bits,
		mask:  ^uint64(0) >> (64 - bits),
		space: &space{},
		order: order,
	}
}

func (m *Mem) inRange(addr, size uint64) bool {
	if size == 0 {
		return addr&m.mask == addr
	}
	end := addr + size - 1
	return end >= addr && end&m.mask == end
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if !m.inRange(addr, size) {
		return errors.Errorf("region 0x%x-0x%x outside memory range", addr, addr+size)
	}
	m.space.mapRange(addr, size, prot, false)
	return nil
}

func (m *Mem) MemProt(addr, size uint64, prot int) error {
	if mapped, _ := m.space.covers(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.space.protect(addr, size, prot)
	return nil
}

func (m *Mem) MemUnmap(addr, size uint64) error {
	if mapped, _ := m.space.covers(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.space.unmap(addr, size)
	return nil
}

func (m *Mem) Mappings() Pages {
	return append(Pages(nil), m.space.pages...)
}

func (m *Mem) IsMapped(addr, size uint64) bool {
	mapped, _ := m.space.covers(addr, size, 0)
	return mapped
}

func (m *Mem) ClearMemory() {
	m.space.pages = nil
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.space.read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.space.write(addr, p, 0)
}

// MemReadArea reads size bytes. Bytes outside any mapping read as zero.
func (m *Mem) MemReadArea(addr uint64, size int) []byte {
	p := make([]byte, size)
	for i := 0; i < size; {
		a := addr + uint64(i)
		page := m.space.pages.Find(a)
		if page == nil {
			i++
			continue
		}
		i += copy(p[i:], page.Data[a-page.Addr:])
	}
	if m.hooks != nil {
		m.hooks.OnMem(MEM_READ, addr, size, 0)
	}
	return p
}

// MemWriteArea writes p, mapping any missing pages read/write first.
func (m *Mem) MemWriteArea(addr uint64, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if !m.inRange(addr, uint64(len(p))) {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	}
	last := addr + uint64(len(p)) - 1
	for page := addr &^ (PAGE_SIZE - 1); ; page += PAGE_SIZE {
		if !m.IsMapped(page, PAGE_SIZE) {
			m.space.fill(page, PAGE_SIZE, PROT_READ|PROT_WRITE)
		}
		// stop before page wraps past the top of the address space
		if last-page < PAGE_SIZE {
			break
		}
	}
	if err := m.space.write(addr, p, 0); err != nil {
		return err
	}
	if m.hooks != nil {
		var val int64
		if v, err := unpackWord(m.order, p); err == nil {
			val = int64(v)
		}
		m.hooks.OnMem(MEM_WRITE, addr, len(p), val)
	}
	return nil
}

func (m *Mem) MemReadUint(mem models.MemoryAccess) (uint64, error) {
	if mem.Size() > models.QWORD_SIZE {
		return 0, errors.Wrapf(models.ErrInvalidSize, "MemReadUint %s", mem)
	}
	return unpackWord(m.order, m.MemReadArea(mem.Address(), int(mem.Size())))
}

func (m *Mem) MemWriteUint(mem models.MemoryAccess, val uint64) error {
	if mem.Size() > models.QWORD_SIZE {
		return errors.Wrapf(models.ErrInvalidSize, "MemWriteUint %s", mem)
	}
	p, err := packWord(m.order, val, int(mem.Size()))
	if err != nil {
		return err
	}
	return m.MemWriteArea(mem.Address(), p)
}

// Clone deep-copies every mapping. Hooks are not copied.
func (m *Mem) Clone() *Mem {
	c := NewMem(m.bits, m.order)
	c.space = m.space.clone()
	return c
}

func (m *Mem) SetHooks(h *Hooks) {
	m.hooks = h
}
