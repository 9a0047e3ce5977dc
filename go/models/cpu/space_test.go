package cpu

import (
	"bytes"
	"testing"
)

// pattern returns n bytes that do not repeat within any 256 byte window.
func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i ^ i>>8)
	}
	return p
}

func TestSpaceReadWrite(t *testing.T) {
	s := &space{}
	s.mapRange(0x1000, 0x1000, 0, true)
	s.mapRange(0x2000, 0x1000, 0, true)
	s.mapRange(0x3000, 0x1000, 0, true)

	b := pattern(0x3000)
	if err := s.write(0x1000, b, 0); err != nil {
		t.Fatal(err)
	}
	c := make([]byte, len(b))
	if err := s.read(0x1000, c, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, c) {
		t.Fatal("read across adjacent pages differs from what was written")
	}
}

func TestSpaceUnmap(t *testing.T) {
	s := &space{}
	s.mapRange(0x1000, 0x1000, 0, true)
	b := pattern(0x1000)
	s.write(0x1000, b, 0)
	s.unmap(0x1100, 0x100)

	if len(s.pages) != 2 {
		t.Fatalf("unmap left %d pages:\n%s", len(s.pages), s.pages)
	}
	c := make([]byte, 0x100)
	if err := s.read(0x1000, c, 0); err != nil || !bytes.Equal(c, b[:0x100]) {
		t.Errorf("left of hole: %v", err)
	}
	if err := s.read(0x1200, c, 0); err != nil || !bytes.Equal(c, b[0x200:0x300]) {
		t.Errorf("right of hole: %v", err)
	}

	tests := []struct {
		start, end uint64
		fails      bool
	}{
		{0x1000, 0x1100, false},
		{0x1000, 0x1050, false},
		{0x1000, 0x1200, true},
		{0x1050, 0x1150, true},
		{0x1100, 0x1200, true},
		{0x1150, 0x1250, true},
		{0x1200, 0x1250, false},
	}
	for _, tt := range tests {
		p := make([]byte, tt.end-tt.start)
		rerr := s.read(tt.start, p, 0)
		werr := s.write(tt.start, p, 0)
		if (rerr != nil) != tt.fails || (werr != nil) != tt.fails {
			t.Errorf("%#x-%#x: read %v, write %v", tt.start, tt.end, rerr, werr)
		}
		if tt.fails {
			if e, ok := rerr.(*MemError); !ok || e.Enum != MEM_READ_UNMAPPED {
				t.Errorf("%#x-%#x: read error %v", tt.start, tt.end, rerr)
			}
			if e, ok := werr.(*MemError); !ok || e.Enum != MEM_WRITE_UNMAPPED {
				t.Errorf("%#x-%#x: write error %v", tt.start, tt.end, werr)
			}
		}
	}
}

func TestSpaceRemap(t *testing.T) {
	s := &space{}
	b := pattern(0x4000)
	s.mapRange(0x1000, 0x4000, 0, true)
	s.write(0x1000, b, 0)

	// keeps contents
	s.mapRange(0x1000, 0x4000, PROT_READ, false)
	c := make([]byte, len(b))
	if err := s.read(0x1000, c, 0); err != nil || !bytes.Equal(b, c) {
		t.Fatalf("remap lost data: %v", err)
	}

	s.mapRange(0x2000, 0x1000, PROT_READ, true)
	copy(b[0x1000:0x2000], make([]byte, 0x1000))
	if err := s.read(0x1000, c, 0); err != nil || !bytes.Equal(b, c) {
		t.Fatalf("zeroing remap: %v", err)
	}
	if len(s.pages) != 3 {
		t.Fatalf("%d pages after zeroing remap:\n%s", len(s.pages), s.pages)
	}
}

func TestSpaceProtect(t *testing.T) {
	s := &space{}
	s.mapRange(0x1000, 0x3000, PROT_READ|PROT_WRITE, true)
	s.protect(0x2000, 0x1000, PROT_READ)
	if len(s.pages) != 3 {
		t.Fatalf("protect produced %d pages:\n%s", len(s.pages), s.pages)
	}
	p := make([]byte, 4)
	err := s.write(0x2000, p, PROT_WRITE)
	if e, ok := err.(*MemError); !ok || e.Enum != MEM_WRITE_PROT {
		t.Errorf("write to read-only page: %v", err)
	}
	if err := s.write(0x1ffe, p[:2], PROT_WRITE); err != nil {
		t.Error(err)
	}
	if err := s.read(0x2ffe, p, PROT_READ); err != nil {
		t.Errorf("read spanning a prot boundary: %v", err)
	}
	if err.Error() != "protected write at 0x2000(4)" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestSpaceFill(t *testing.T) {
	s := &space{}
	s.mapRange(0x2000, 0x1000, PROT_READ, true)
	s.write(0x2000, []byte{1, 2, 3}, 0)
	s.fill(0x1000, 0x3000, PROT_READ|PROT_WRITE)
	if len(s.pages) != 3 {
		t.Fatalf("fill produced %d pages:\n%s", len(s.pages), s.pages)
	}
	if p := s.pages.Find(0x2000); p.Prot != PROT_READ || p.Data[1] != 2 {
		t.Fatal("fill replaced an existing page")
	}
	if ok, _ := s.covers(0x1000, 0x3000, 0); !ok {
		t.Fatal("gaps were not mapped")
	}
}

func TestSpaceClone(t *testing.T) {
	s := &space{}
	s.mapRange(0x1000, 0x1000, PROT_ALL, true)
	c := s.clone()
	s.write(0x1000, []byte{0xff}, 0)
	p := make([]byte, 1)
	c.read(0x1000, p, 0)
	if p[0] != 0 {
		t.Fatal("clone shares page data")
	}
}

func BenchmarkSpaceRead(b *testing.B) {
	s := &space{}
	s.mapRange(0x1000, 0x100000, 0, true)
	p := make([]byte, 8)
	for i := 0; i < b.N; i++ {
		s.read(0x1000+uint64(i*8)&0xfffff, p, 0)
	}
}

func TestSpaceTop(t *testing.T) {
	s := &space{}
	s.fill(0xffffffffffffe000, 0x2000, PROT_READ|PROT_WRITE)
	if len(s.pages) != 1 {
		t.Fatalf("fill produced %d pages:\n%s", len(s.pages), s.pages)
	}
	if ok, _ := s.covers(0xfffffffffffffff0, 0x10, 0); !ok {
		t.Fatal("top of the address space not covered")
	}
	s.protect(0xfffffffffffff000, 0x1000, PROT_READ)
	if len(s.pages) != 2 || s.pages[1].Last() != ^uint64(0) {
		t.Fatalf("protect at the top:\n%s", s.pages)
	}
	err := s.write(0xfffffffffffffffc, []byte{1, 2, 3, 4}, PROT_WRITE)
	if e, ok := err.(*MemError); !ok || e.Enum != MEM_WRITE_PROT {
		t.Fatalf("write to read-only top page: %v", err)
	}
	// the gap left by unmap is filled again
	s.unmap(0xffffffffffffe800, 0x100)
	s.fill(0xffffffffffffe000, 0x2000, PROT_READ)
	if ok, _ := s.covers(0xffffffffffffe000, 0x2000, 0); !ok || len(s.pages) != 4 {
		t.Fatalf("refill at the top:\n%s", s.pages)
	}
}
