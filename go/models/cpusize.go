package models

// operand widths, in bytes
const (
	BYTE_SIZE    = 1
	WORD_SIZE    = 2
	DWORD_SIZE   = 4
	QWORD_SIZE   = 8
	DQWORD_SIZE  = 16
	QQWORD_SIZE  = 32
	DQQWORD_SIZE = 64
)

// operand widths, in bits
const (
	BYTE_SIZE_BIT    = 8
	WORD_SIZE_BIT    = 16
	DWORD_SIZE_BIT   = 32
	QWORD_SIZE_BIT   = 64
	DQWORD_SIZE_BIT  = 128
	QQWORD_SIZE_BIT  = 256
	DQQWORD_SIZE_BIT = 512
)

// IsLegalSize reports whether size (in bytes) is an access width any supported architecture can perform.
func IsLegalSize(size uint) bool {
	switch size {
	case BYTE_SIZE, WORD_SIZE, DWORD_SIZE, QWORD_SIZE, DQWORD_SIZE, QQWORD_SIZE, DQQWORD_SIZE:
		return true
	}
	return false
}
