package driver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/snapcorn/snapcorn/go/arch"
	"github.com/snapcorn/snapcorn/go/models"
)

func getArch(t *testing.T, name string) *models.Arch {
	a, err := arch.GetArch(name)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAssemble(t *testing.T) {
	x64 := getArch(t, "x86_64")
	arm := getArch(t, "arm64")
	tests := []struct {
		arch *models.Arch
		text string
		want string
	}{
		{x64, "nop", "nop"},
		{x64, "mov rax, 0x1010101", "mov rax, 0x1010101"},
		{x64, "MOV  eax,ebx ; comment", "mov eax, ebx"},
		{x64, "cmp rbx, 1", "cmp rbx, 0x1"},
		{x64, "je 0x10", "je 0x10"},
		{x64, "mov al, byte ptr [rsi + rcx*4 + 0x10]", "mov al, byte ptr [rsi + rcx*4 + 0x10]"},
		{x64, "mov qword ptr [rsp], rax", "mov qword ptr [rsp], rax"},
		{x64, "lea rdi, [rip + 0x20]", "lea rdi, qword ptr [rip + 0x20]"},
		{arm, "ldr x0, [x1, #8]", "ldr x0, qword ptr [x1 + 0x8]"},
		{arm, "add x0, x1, x2", "add x0, x1, x2"},
		{arm, "b.ne 0x40", "b.ne 0x40"},
	}
	for _, v := range tests {
		ins, err := Assemble(v.arch, 0, v.text)
		if err != nil {
			t.Errorf("%s: %v", v.text, err)
			continue
		}
		if got := ins.String(); got != v.want {
			t.Errorf("%s: got %q, want %q", v.text, got, v.want)
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	x64 := getArch(t, "x86_64")
	for _, text := range []string{
		"frob rax",
		"mov rax",
		"mov 1, rax",
		"mov rax, ebx",
		"mov [rax], [rbx]",
		"je rax",
		"nop rax",
		"mov rax, [rbx",
		"mov rax, foo",
		"mov rax, dword ptr [rbx]",
		"mov rax, tbyte ptr [rbx]",
	} {
		if _, err := Assemble(x64, 0, text); err == nil {
			t.Errorf("%q assembled", text)
		}
	}
}

func TestSuccessors(t *testing.T) {
	x64 := getArch(t, "x86_64")
	tests := []struct {
		text string
		want []uint64
	}{
		{"nop", []uint64{0x5}},
		{"hlt", nil},
		{"jmp 0x20", []uint64{0x20}},
		{"jne 0x20", []uint64{0x20, 0x5}},
	}
	for _, v := range tests {
		ins, err := Assemble(x64, 4, v.text)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(v.want, ins.Successors()); diff != "" {
			t.Errorf("%s: successors (-want +got):\n%s", v.text, diff)
		}
	}
}

func TestProgramSizes(t *testing.T) {
	p, err := NewProgram(getArch(t, "x86_64"), []Line{
		{Addr: 0x07, Asm: "mov rax, 0x1010101"},
		{Addr: 0x00, Asm: "cmp rbx, 1"},
		{Addr: 0x04, Asm: "je 0x10"},
		{Addr: 0x0e, Asm: "jmp 0x17", Size: 2},
		{Addr: 0x10, Asm: "mov rax, 0x2020202"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var got [][2]uint64
	for _, ins := range p.Listing() {
		got = append(got, [2]uint64{ins.Address, ins.Size})
	}
	want := [][2]uint64{{0x00, 4}, {0x04, 3}, {0x07, 7}, {0x0e, 2}, {0x10, 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sizes (-want +got):\n%s", diff)
	}
	if _, ok := p.At(0x07); !ok {
		t.Fatal("missing instruction at 0x07")
	}
	if _, err := NewProgram(p.Arch, []Line{{Addr: 0, Asm: "nop"}, {Addr: 0, Asm: "hlt"}}); err == nil {
		t.Fatal("duplicate address accepted")
	}
}

func TestProgramAarch64(t *testing.T) {
	p, err := NewProgram(getArch(t, "arm64"), []Line{
		{Addr: 0x0, Asm: "cmp x0, #1"},
		{Addr: 0x8, Asm: "b.eq 0x10"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, ins := range p.Listing() {
		if ins.Size != 4 {
			t.Fatalf("%s: size %d", ins, ins.Size)
		}
	}
}
