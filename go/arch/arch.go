package arch

import (
	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/arch/arm64"
	"github.com/snapcorn/snapcorn/go/arch/x86"
	"github.com/snapcorn/snapcorn/go/arch/x86_64"
	"github.com/snapcorn/snapcorn/go/models"
	"github.com/snapcorn/snapcorn/go/models/cpu"
)

var archMap = map[models.ArchID]*models.Arch{
	models.ARCH_X86:     x86.Arch,
	models.ARCH_X86_64:  x86_64.Arch,
	models.ARCH_AARCH64: arm64.Arch,
}

func GetArch(name string) (*models.Arch, error) {
	id, err := models.ParseArchID(name)
	if err != nil {
		return nil, err
	}
	return ByID(id)
}

func ByID(id models.ArchID) (*models.Arch, error) {
	a, ok := archMap[id]
	if !ok {
		return nil, errors.Errorf("arch %s not found", id)
	}
	return a, nil
}

// NewCpu builds a zeroed cpu for the architecture.
func NewCpu(id models.ArchID) (cpu.Cpu, error) {
	switch id {
	case models.ARCH_X86:
		return x86.New(), nil
	case models.ARCH_X86_64:
		return x86_64.New(), nil
	case models.ARCH_AARCH64:
		return arm64.New(), nil
	}
	return nil, errors.Errorf("arch %s not found", id)
}

// Architecture is the live machine's architecture handle. It exclusively owns the current cpu;
// hooks belong to the handle and follow whichever cpu is installed.
type Architecture struct {
	id    models.ArchID
	cpu   cpu.Cpu
	hooks *cpu.Hooks
}

func NewArchitecture() *Architecture {
	return &Architecture{hooks: cpu.NewHooks()}
}

// SetArchitecture installs a fresh cpu for id.
func (a *Architecture) SetArchitecture(id models.ArchID) error {
	c, err := NewCpu(id)
	if err != nil {
		return err
	}
	a.install(id, c)
	return nil
}

func (a *Architecture) install(id models.ArchID, c cpu.Cpu) {
	if a.cpu != nil {
		a.cpu.SetHooks(nil)
	}
	a.id, a.cpu = id, c
	c.SetHooks(a.hooks)
}

// Clear drops the cpu and returns to the unconfigured state.
func (a *Architecture) Clear() {
	if a.cpu != nil {
		a.cpu.SetHooks(nil)
	}
	a.id, a.cpu = models.ARCH_INVALID, nil
}

func (a *Architecture) ID() models.ArchID { return a.id }
func (a *Architecture) IsValid() bool     { return a.id != models.ARCH_INVALID && a.cpu != nil }
func (a *Architecture) Hooks() *cpu.Hooks { return a.hooks }

// Arch returns the descriptor of the current architecture, or nil.
func (a *Architecture) Arch() *models.Arch {
	if !a.IsValid() {
		return nil
	}
	return a.cpu.Arch()
}

func (a *Architecture) Cpu() (cpu.Cpu, error) {
	if !a.IsValid() {
		return nil, ErrNoArchitecture
	}
	return a.cpu, nil
}
