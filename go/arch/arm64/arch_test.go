package arm64

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

func TestArm64(t *testing.T) { Arch.SmokeTest(t, New()) }

func TestArm64ZeroRegister(t *testing.T) {
	c := New()
	wzr, _ := Arch.RegisterByName("wzr")
	if wzr.Mutable {
		t.Fatal("wzr should be immutable")
	}
	if err := c.RegWrite(wzr, 5); errors.Cause(err) != models.ErrImmutableRegister {
		t.Fatalf("expected ErrImmutableRegister, got %v", err)
	}
	if val, _ := c.RegRead(wzr); val != 0 {
		t.Fatalf("wzr = %d", val)
	}
}

func TestArm64Nzcv(t *testing.T) {
	c := New()
	if err := c.SetNzcv(0x60000000); err != nil {
		t.Fatal(err)
	}
	z, _ := Arch.RegisterByName("z")
	n, _ := Arch.RegisterByName("n")
	if val, _ := c.RegRead(z); val != 1 {
		t.Fatal("z flag not set")
	}
	if val, _ := c.RegRead(n); val != 0 {
		t.Fatal("n flag set")
	}
	if val, _ := c.Nzcv(); val != 0x60000000 {
		t.Fatalf("Nzcv() = %#x", val)
	}
}

func TestArm64Aliases(t *testing.T) {
	c := New()
	x3, _ := Arch.RegisterByName("x3")
	w3, _ := Arch.RegisterByName("w3")
	b7, _ := Arch.RegisterByName("b7")
	c.RegWrite(x3, 0xaaaaaaaabbbbbbbb)
	if val, _ := c.RegRead(w3); val != 0xbbbbbbbb {
		t.Fatalf("w3 = %#x", val)
	}
	if Arch.Parent(b7).Name != "q7" {
		t.Fatal("b7 should alias q7")
	}
}
