package models

import (
	"testing"
)

const (
	tRAX RegID = iota + 1
	tEAX
	tAX
	tAH
	tAL
	tRBX
)

var testRegs = []Register{
	NewRegister(tRAX, "rax", tRAX, 63, 0, true),
	NewRegister(tEAX, "eax", tRAX, 31, 0, true),
	NewRegister(tAX, "ax", tRAX, 15, 0, true),
	NewRegister(tAH, "ah", tRAX, 15, 8, true),
	NewRegister(tAL, "al", tRAX, 7, 0, true),
	NewRegister(tRBX, "rbx", tRBX, 63, 0, true),
}

func TestRegisterOverlap(t *testing.T) {
	rax, eax, ax, ah, al, rbx := testRegs[0], testRegs[1], testRegs[2], testRegs[3], testRegs[4], testRegs[5]
	overlapping := [][2]Register{{rax, eax}, {rax, al}, {eax, ah}, {ax, ah}, {ax, al}}
	for _, p := range overlapping {
		if !p[0].Overlaps(p[1]) || !p[1].Overlaps(p[0]) {
			t.Errorf("%s and %s should overlap", p[0], p[1])
		}
	}
	disjoint := [][2]Register{{ah, al}, {rax, rbx}, {al, rbx}}
	for _, p := range disjoint {
		if p[0].Overlaps(p[1]) || p[1].Overlaps(p[0]) {
			t.Errorf("%s and %s should not overlap", p[0], p[1])
		}
	}
	for _, r := range testRegs {
		if !r.Overlaps(r) {
			t.Errorf("%s does not overlap itself", r)
		}
	}
}

func TestRegisterIdentity(t *testing.T) {
	ax, ah := testRegs[2], testRegs[3]
	// same range, different identity
	fake := NewRegister(tAH+100, "fake", tRAX, 15, 8, true)
	if ah.Equal(fake) {
		t.Fatal("registers with different ids compared equal")
	}
	if !ah.Equal(ah) || !ax.Less(ah) || ah.Less(ax) || ah.Less(ah) {
		t.Fatal("register ordering is not by id")
	}
}

func TestRegisterString(t *testing.T) {
	tests := map[string]Register{
		"rax:64 bv[63..0]":   testRegs[0],
		"ah:8 bv[15..8]":     testRegs[3],
		"unknown:1 bv[0..0]": {},
	}
	for want, r := range tests {
		if got := r.String(); got != want {
			t.Errorf("String() = %q, expecting %q", got, want)
		}
	}
	if (Register{}).IsValid() {
		t.Error("zero register should be invalid")
	}
	if testRegs[0].Size() != 8 || testRegs[3].BitSize() != 8 || testRegs[1].Size() != 4 {
		t.Error("bad register sizes")
	}
}

func TestImmediate(t *testing.T) {
	tests := []struct {
		val  uint64
		size uint
		want uint64
	}{
		{0x1122334455667788, BYTE_SIZE, 0x88},
		{0x1122334455667788, WORD_SIZE, 0x7788},
		{0x1122334455667788, DWORD_SIZE, 0x55667788},
		{0x1122334455667788, QWORD_SIZE, 0x1122334455667788},
		{uint64(0xfffffffffffffffc), BYTE_SIZE, 0xfc},
	}
	for _, tt := range tests {
		imm, err := NewImmediate(tt.val, tt.size)
		if err != nil {
			t.Fatal(err)
		}
		if imm.Value() != tt.want || imm.Size() != tt.size || imm.BitSize() != tt.size*8 {
			t.Errorf("NewImmediate(%#x, %d) = %s", tt.val, tt.size, imm)
		}
	}
	if imm, _ := NewImmediate(0xfc, BYTE_SIZE); imm.Signed() != -4 {
		t.Errorf("Signed() = %d, expecting -4", imm.Signed())
	}
	for _, size := range []uint{0, 3, 16} {
		if _, err := NewImmediate(1, size); err == nil {
			t.Errorf("NewImmediate(1, %d) should fail", size)
		}
	}
}
