package ast

import (
	"math/big"
	"testing"
)

func mustVar(t *testing.T, c *Context, size uint, value uint64) *Node {
	v, err := c.NewVariable(size, "", "", new(big.Int).SetUint64(value))
	if err != nil {
		t.Fatal(err)
	}
	return c.Var(v)
}

func TestEval(t *testing.T) {
	c := NewContext()
	x := mustVar(t, c, 8, 0xf0)
	tests := map[string]struct {
		node *Node
		want uint64
	}{
		"add wraps":   {c.Add(x, c.BV(0x20, 8)), 0x10},
		"sub wraps":   {c.Sub(c.BV(1, 8), c.BV(2, 8)), 0xff},
		"neg":         {c.Neg(c.BV(1, 8)), 0xff},
		"not":         {c.Not(x), 0x0f},
		"shl":         {c.Shl(x, c.BV(4, 8)), 0x00},
		"shl too far": {c.Shl(x, c.BV(9, 8)), 0x00},
		"lshr":        {c.Lshr(x, c.BV(4, 8)), 0x0f},
		"eq":          {c.Eq(x, c.BV(0xf0, 8)), 1},
		"ne":          {c.Ne(x, c.BV(0xf0, 8)), 0},
		"ult":         {c.Ult(c.BV(1, 8), x), 1},
		"extract":     {c.Extract(7, 4, x), 0xf},
		"concat":      {c.Concat(x, c.BV(0xab, 8)), 0xf0ab},
		"zx":          {c.ZeroExt(8, x), 0xf0},
		"ite":         {c.Ite(c.Eq(x, x), c.BV(1, 8), c.BV(2, 8)), 1},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := c.Evaluate(tt.node)
			if err != nil {
				t.Fatal(err)
			}
			if got.Uint64() != tt.want {
				t.Fatalf("%s = %#x, expecting %#x", tt.node, got.Uint64(), tt.want)
			}
		})
	}
}

func TestExtractSimplify(t *testing.T) {
	c := NewContext()
	hi := mustVar(t, c, 32, 0)
	lo := mustVar(t, c, 32, 0)
	cat := c.Concat(hi, lo)
	if got := c.Extract(31, 0, cat); got != lo {
		t.Fatalf("extract of low half = %s, expecting %s", got, lo)
	}
	if got := c.Extract(63, 32, cat); got != hi {
		t.Fatalf("extract of high half = %s, expecting %s", got, hi)
	}
	if got := c.Extract(7, 0, c.Extract(15, 8, cat)); got.Kind() != EXTRACT || got.Children()[0] != lo {
		t.Fatalf("nested extract was not collapsed: %s", got)
	}
	if got := c.Extract(63, 32, c.ZeroExt(32, lo)); !got.Equal(c.BV(0, 32)) {
		t.Fatalf("extract above zero extension = %s", got)
	}
}

func TestConstantFolding(t *testing.T) {
	c := NewContext()
	sum := c.Add(c.BV(1, 32), c.BV(2, 32))
	if sum.Kind() != ADD {
		t.Fatalf("folded without constant folding: %s", sum)
	}
	c.SetConstantFolding(true)
	sum = c.Add(c.BV(1, 32), c.BV(2, 32))
	if sum.Kind() != BV || sum.Value().Uint64() != 3 {
		t.Fatalf("expected folded constant, got %s", sum)
	}
	x := mustVar(t, c, 32, 7)
	if n := c.Add(x, c.BV(1, 32)); n.Kind() != ADD || !n.Symbolized() {
		t.Fatalf("symbolic expression should not fold: %s", n)
	}
}

func TestContextClone(t *testing.T) {
	c := NewContext()
	x := mustVar(t, c, 64, 1)
	clone := c.Clone()

	mustVar(t, c, 64, 2)
	if err := c.SetVariableValue(x.Variable().ID, big.NewInt(5)); err != nil {
		t.Fatal(err)
	}
	if len(clone.Variables()) != 1 {
		t.Fatalf("clone sees %d variables, expecting 1", len(clone.Variables()))
	}
	if v, _ := clone.VariableValue(x.Variable().ID); v.Uint64() != 1 {
		t.Fatalf("clone variable value changed to %d", v.Uint64())
	}
	if next := mustVar(t, clone, 8, 0); next.Variable().ID != 1 {
		t.Fatalf("clone allocated id %d, expecting 1", next.Variable().ID)
	}
}

func TestVariables(t *testing.T) {
	c := NewContext()
	x := mustVar(t, c, 8, 0)
	y := mustVar(t, c, 8, 0)
	ids := Variables(c.Add(c.Add(x, y), x))
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Fatalf("Variables() = %v", ids)
	}
	if name := x.String(); name != "SymVar_0" {
		t.Fatalf("variable renders as %q", name)
	}
}
