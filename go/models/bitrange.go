package models

import (
	"fmt"
)

// BitRange is the contiguous span [High, Low] covered by an operand.
type BitRange struct {
	High uint
	Low  uint
}

// SizeRange returns the range covering size bytes starting at bit 0.
func SizeRange(size uint) BitRange {
	if size == 0 {
		return BitRange{}
	}
	return BitRange{High: size*BYTE_SIZE_BIT - 1, Low: 0}
}

func (b BitRange) BitSize() uint {
	return b.High - b.Low + 1
}

// Size is only meaningful when BitSize is a multiple of 8.
func (b BitRange) Size() uint {
	return b.BitSize() / BYTE_SIZE_BIT
}

// Mask returns a mask with BitSize low bits set, for ranges up to 64 bits.
func (b BitRange) Mask() uint64 {
	if b.BitSize() >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<b.BitSize() - 1
}

func (b BitRange) Intersects(o BitRange) bool {
	if b.Low <= o.Low && o.Low <= b.High {
		return true
	}
	return o.Low <= b.Low && b.Low <= o.High
}

func (b BitRange) Contains(o BitRange) bool {
	return b.Low <= o.Low && o.High <= b.High
}

func (b BitRange) String() string {
	return fmt.Sprintf("bv[%d..%d]", b.High, b.Low)
}
