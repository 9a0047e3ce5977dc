package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

// packWord encodes the low size bytes of n in order. size may be 1 to 8.
func packWord(order binary.ByteOrder, n uint64, size int) ([]byte, error) {
	if size < 1 || size > models.QWORD_SIZE {
		return nil, errors.Wrapf(models.ErrInvalidSize, "%d-byte word", size)
	}
	p := make([]byte, size)
	for i := range p {
		p[wordIndex(order, i, size)] = byte(n >> (8 * uint(i)))
	}
	return p, nil
}

// unpackWord decodes up to 8 bytes as an unsigned integer in order.
func unpackWord(order binary.ByteOrder, p []byte) (uint64, error) {
	if len(p) < 1 || len(p) > models.QWORD_SIZE {
		return 0, errors.Wrapf(models.ErrInvalidSize, "%d-byte word", len(p))
	}
	var n uint64
	for i := range p {
		n |= uint64(p[wordIndex(order, i, len(p))]) << (8 * uint(i))
	}
	return n, nil
}

// wordIndex is the offset of the i-th least significant byte.
func wordIndex(order binary.ByteOrder, i, size int) int {
	if order == binary.BigEndian {
		return size - 1 - i
	}
	return i
}
