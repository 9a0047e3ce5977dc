package models

type OperandType int

const (
	OP_INVALID OperandType = iota
	OP_IMM
	OP_MEM
	OP_REG
)

func (o OperandType) String() string {
	switch o {
	case OP_IMM:
		return "imm"
	case OP_MEM:
		return "mem"
	case OP_REG:
		return "reg"
	}
	return "invalid"
}

// Operand is the common view of registers, immediates and memory accesses.
type Operand interface {
	Type() OperandType
	BitSize() uint
	Size() uint
	String() string
}

var (
	_ Operand = Register{}
	_ Operand = Immediate{}
	_ Operand = MemoryAccess{}
)
