package cpu

import (
	"fmt"
	"sort"
)

// MemError is returned for an access that leaves mapped memory or lacks permission.
type MemError struct {
	Addr uint64
	Size int
	Enum int
}

var memErrorNames = map[int]string{
	MEM_WRITE_UNMAPPED: "unmapped write",
	MEM_READ_UNMAPPED:  "unmapped read",
	MEM_WRITE_PROT:     "protected write",
	MEM_READ_PROT:      "protected read",
}

func (m *MemError) Error() string {
	name, ok := memErrorNames[m.Enum]
	if !ok {
		name = "memory error"
	}
	return fmt.Sprintf("%s at %#x(%d)", name, m.Addr, m.Size)
}

// space is an address space: pages sorted by address that never overlap.
type space struct {
	pages Pages
}

// covers reports whether addr-addr+size is mapped without gaps, and whether every
// page it touches carries all bits of prot. A zero prot skips the permission check.
func (s *space) covers(addr, size uint64, prot int) (mapped, allowed bool) {
	i := s.pages.bsearch(addr)
	if i < 0 {
		return false, false
	}
	if size == 0 {
		return true, s.pages[i].Prot&prot == prot
	}
	allowed = true
	last := addr + size - 1
	for ; i < len(s.pages); i++ {
		p := s.pages[i]
		if !p.Contains(addr) {
			break
		}
		if p.Prot&prot != prot {
			allowed = false
		}
		if p.Last() >= last {
			return true, allowed
		}
		addr = p.Last() + 1
	}
	return false, allowed
}

func (s *space) insert(pages ...*Page) {
	s.pages = append(s.pages, pages...)
	sort.Sort(s.pages)
}

// carve splits every page overlapping addr-addr+size at the range bounds and hands
// each inner piece to inner, which returns the piece to keep or nil to drop it.
func (s *space) carve(addr, size uint64, inner func(*Page) *Page) {
	out := make(Pages, 0, len(s.pages)+2)
	for _, p := range s.pages {
		oaddr, osize, ok := p.Intersect(addr, size)
		if !ok {
			out = append(out, p)
			continue
		}
		left, right := p.Split(oaddr, osize)
		for _, piece := range []*Page{left, inner(p), right} {
			if piece != nil {
				out = append(out, piece)
			}
		}
	}
	s.pages = out
}

// mapRange maps a fresh page over addr-addr+size. Bytes that were already mapped
// there are carried over unless zero is set.
func (s *space) mapRange(addr, size uint64, prot int, zero bool) *Page {
	page := blank(addr, size, prot)
	if !zero {
		s.gather(addr, page.Data)
	}
	s.unmap(addr, size)
	s.insert(page)
	return page
}

func blank(addr, size uint64, prot int) *Page {
	return &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size)}
}

// fill maps the unmapped gaps inside addr-addr+size and leaves existing pages alone.
func (s *space) fill(addr, size uint64, prot int) {
	if size == 0 {
		return
	}
	var gaps Pages
	last := addr + size - 1
	covered := false
	for _, p := range s.pages {
		if p.Last() < addr {
			continue
		}
		if p.Addr > last {
			break
		}
		if p.Addr > addr {
			gaps = append(gaps, blank(addr, p.Addr-addr, prot))
		}
		if p.Last() >= last {
			covered = true
			break
		}
		addr = p.Last() + 1
	}
	if !covered {
		gaps = append(gaps, blank(addr, last-addr+1, prot))
	}
	if len(gaps) > 0 {
		s.insert(gaps...)
	}
}

func (s *space) protect(addr, size uint64, prot int) {
	s.carve(addr, size, func(p *Page) *Page {
		p.Prot = prot
		return p
	})
}

func (s *space) unmap(addr, size uint64) {
	s.carve(addr, size, func(*Page) *Page { return nil })
}

// gather copies the mapped parts of addr-addr+len(p) into p.
func (s *space) gather(addr uint64, p []byte) {
	for _, pg := range s.pages {
		if oaddr, osize, ok := pg.Intersect(addr, uint64(len(p))); ok {
			copy(p[oaddr-addr:oaddr-addr+osize], pg.Data[oaddr-pg.Addr:])
		}
	}
}

func (s *space) read(addr uint64, p []byte, prot int) error {
	return s.access(addr, p, prot, false)
}

func (s *space) write(addr uint64, p []byte, prot int) error {
	return s.access(addr, p, prot, true)
}

func (s *space) access(addr uint64, p []byte, prot int, write bool) error {
	mapped, allowed := s.covers(addr, uint64(len(p)), prot)
	if !mapped || !allowed {
		e := &MemError{Addr: addr, Size: len(p)}
		switch {
		case !mapped && write:
			e.Enum = MEM_WRITE_UNMAPPED
		case !mapped:
			e.Enum = MEM_READ_UNMAPPED
		case write:
			e.Enum = MEM_WRITE_PROT
		default:
			e.Enum = MEM_READ_PROT
		}
		return e
	}
	// covers guarantees the pages from i on are contiguous up to the end of p
	for i := s.pages.bsearch(addr); len(p) > 0; i++ {
		pg := s.pages[i]
		off := addr - pg.Addr
		var n int
		if write {
			n = copy(pg.Data[off:], p)
		} else {
			n = copy(p, pg.Data[off:])
		}
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

func (s *space) clone() *space {
	c := &space{pages: make(Pages, len(s.pages))}
	for i, p := range s.pages {
		c.pages[i] = p.Clone()
	}
	return c
}
