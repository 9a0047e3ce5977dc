package cpu

import (
	"fmt"
	"strings"
)

// Page is one mapping in an address space. Data always holds Size bytes.
type Page struct {
	Addr uint64
	Size uint64
	Prot int
	Data []byte

	Desc string
}

var protChars = []struct {
	bit int
	c   byte
}{{PROT_READ, 'r'}, {PROT_WRITE, 'w'}, {PROT_EXEC, 'x'}}

func protString(prot int) string {
	b := []byte("---")
	for i, pc := range protChars {
		if prot&pc.bit != 0 {
			b[i] = pc.c
		}
	}
	return string(b)
}

func (p *Page) String() string {
	s := fmt.Sprintf("0x%x-0x%x %s", p.Addr, p.Addr+p.Size, protString(p.Prot))
	if p.Desc != "" {
		s += " [" + p.Desc + "]"
	}
	return s
}

// Last returns the address of the final byte, which is the top of the address
// space for a page ending there.
func (p *Page) Last() uint64 {
	return p.Addr + p.Size - 1
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr-p.Addr < p.Size
}

// Intersect returns the part of addr-addr+size that p covers. The range may end at
// the top of the address space but not wrap past it.
func (p *Page) Intersect(addr, size uint64) (start, n uint64, ok bool) {
	if size == 0 || p.Size == 0 {
		return 0, 0, false
	}
	start, last := p.Addr, p.Last()
	if addr > start {
		start = addr
	}
	if l := addr + size - 1; l < last {
		last = l
	}
	if last < start {
		return 0, 0, false
	}
	return start, last - start + 1, true
}

// piece returns the part of p starting at addr. Its Data aliases p.Data.
func (p *Page) piece(addr, size uint64) *Page {
	off := addr - p.Addr
	return &Page{Addr: addr, Size: size, Prot: p.Prot, Data: p.Data[off : off+size], Desc: p.Desc}
}

// Split shrinks p to addr-addr+size, which must lie inside p, and returns what was
// cut off either side. left or right is nil when nothing remains on that side.
func (p *Page) Split(addr, size uint64) (left, right *Page) {
	last := addr + size - 1
	if last < p.Last() {
		right = p.piece(last+1, p.Last()-last)
	}
	if addr > p.Addr {
		left = p.piece(p.Addr, addr-p.Addr)
	}
	*p = *p.piece(addr, size)
	return left, right
}

// Clone copies the page and its contents.
func (p *Page) Clone() *Page {
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}

// Pages is sorted by address.
type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	lines := make([]string, len(p))
	for i, pg := range p {
		lines[i] = pg.String()
	}
	return strings.Join(lines, "\n")
}

// bsearch returns the index of the page holding addr, or -1.
func (p Pages) bsearch(addr uint64) int {
	lo, hi := 0, len(p)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch pg := p[mid]; {
		case addr < pg.Addr:
			hi = mid
		case addr-pg.Addr >= pg.Size:
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}

func (p Pages) Find(addr uint64) *Page {
	if i := p.bsearch(addr); i >= 0 {
		return p[i]
	}
	return nil
}
