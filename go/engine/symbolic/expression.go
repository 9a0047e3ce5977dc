package symbolic

import (
	"fmt"

	"github.com/snapcorn/snapcorn/go/ast"
	"github.com/snapcorn/snapcorn/go/models"
)

// Origin records what an expression was assigned to when it was created.
type Origin int

const (
	ORIGIN_VOLATILE Origin = iota
	ORIGIN_REG
	ORIGIN_MEM
)

func (o Origin) String() string {
	switch o {
	case ORIGIN_REG:
		return "reg"
	case ORIGIN_MEM:
		return "mem"
	}
	return "volatile"
}

// Expression is an immutable symbolic value with a stable id.
// Engines and their clones share Expression pointers freely.
type Expression struct {
	ID       uint
	Node     *ast.Node
	Origin   Origin
	Register models.Register
	Address  uint64
	Comment  string
}

func (e *Expression) IsSymbolized() bool {
	return e.Node.Symbolized()
}

func (e *Expression) String() string {
	var dst string
	switch e.Origin {
	case ORIGIN_REG:
		dst = e.Register.Name + " = "
	case ORIGIN_MEM:
		dst = fmt.Sprintf("[@%#x] = ", e.Address)
	}
	s := fmt.Sprintf("ref!%d %s%s", e.ID, dst, e.Node)
	if e.Comment != "" {
		s += " ; " + e.Comment
	}
	return s
}

// PathConstraint is a branch decision observed at Address: the formula Cond held
// (Taken) or did not hold on the way to Target.
type PathConstraint struct {
	Address uint64
	Target  uint64
	Taken   bool
	Cond    *ast.Node
}

func (p PathConstraint) String() string {
	return fmt.Sprintf("%#x -> %#x taken=%v %s", p.Address, p.Target, p.Taken, p.Cond)
}
