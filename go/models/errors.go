package models

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidSize       = errors.New("invalid operand size")
	ErrInvalidRegister   = errors.New("invalid register")
	ErrImmutableRegister = errors.New("register is not mutable")
	ErrRegisterTooWide   = errors.New("register is wider than 64 bits")
)
