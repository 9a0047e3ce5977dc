package arch

import (
	"github.com/pkg/errors"
)

var (
	ErrNoArchitecture = errors.New("no architecture configured")
	ErrArchMismatch   = errors.New("architecture mismatch")
	ErrEmptyState     = errors.New("state holds no cpu")
)
