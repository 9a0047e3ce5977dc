package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// Immediate is a constant operand masked to its width.
// The zero value is the empty immediate used by memory operands without scale or displacement.
type Immediate struct {
	value uint64
	size  uint
}

func NewImmediate(value uint64, size uint) (Immediate, error) {
	switch size {
	case BYTE_SIZE, WORD_SIZE, DWORD_SIZE, QWORD_SIZE:
	default:
		return Immediate{}, errors.Wrapf(ErrInvalidSize, "immediate 0x%x: size %d", value, size)
	}
	return Immediate{value: value & SizeRange(size).Mask(), size: size}, nil
}

func (i Immediate) Value() uint64 { return i.value }
func (i Immediate) Size() uint    { return i.size }

func (i Immediate) BitSize() uint {
	return i.size * BYTE_SIZE_BIT
}

func (i Immediate) Type() OperandType {
	return OP_IMM
}

// Signed returns the value sign-extended from its width.
func (i Immediate) Signed() int64 {
	if i.size == 0 || i.size >= QWORD_SIZE {
		return int64(i.value)
	}
	shift := 64 - i.BitSize()
	return int64(i.value<<shift) >> shift
}

func (i Immediate) Equal(o Immediate) bool {
	return i.value == o.value && i.size == o.size
}

func (i Immediate) String() string {
	if i.size == 0 {
		return "0x0:0"
	}
	return fmt.Sprintf("0x%x:%d %s", i.value, i.BitSize(), SizeRange(i.size))
}
