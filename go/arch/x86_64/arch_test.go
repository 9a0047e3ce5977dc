package x86_64

import (
	"math/big"
	"testing"
)

func TestX86_64(t *testing.T) { Arch.SmokeTest(t, New()) }

func TestX86_64Aliases(t *testing.T) {
	c := New()
	rax, _ := Arch.RegisterByName("rax")
	r9b, _ := Arch.RegisterByName("r9b")
	sil, _ := Arch.RegisterByName("sil")
	if r9b.BitSize() != 8 || Arch.Parent(r9b).Name != "r9" || Arch.Parent(sil).Name != "rsi" {
		t.Fatal("bad byte register layout")
	}
	c.RegWrite(rax, 0xffffffffffffffff)
	ah, _ := Arch.RegisterByName("ah")
	c.RegWrite(ah, 0)
	if val, _ := c.RegRead(rax); val != 0xffffffffffff00ff {
		t.Fatalf("rax = %#x after writing ah", val)
	}
}

func TestX86_64Vector(t *testing.T) {
	c := New()
	zmm, _ := Arch.RegisterByName("zmm1")
	xmm, _ := Arch.RegisterByName("xmm1")
	val := new(big.Int).Lsh(big.NewInt(1), 300)
	val.Or(val, big.NewInt(0x42))
	if err := c.RegWriteBig(zmm, val); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.RegReadBig(xmm); got.Int64() != 0x42 {
		t.Fatalf("xmm1 = %x", got)
	}
	if Arch.ByteSize() != 8 {
		t.Fatal("bad word size")
	}
}

func TestX86_64Clone(t *testing.T) {
	c := New()
	c.SetRflags(1 << 6)
	clone := c.Clone()
	c.SetRflags(0)
	if val, _ := clone.Rflags(); val != 1<<6|2 {
		t.Fatalf("clone rflags = %#x", val)
	}
}
