package snapcorn

import (
	"encoding/binary"
	"log/slog"
	"math/big"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/arch"
	"github.com/snapcorn/snapcorn/go/ast"
	"github.com/snapcorn/snapcorn/go/engine/symbolic"
	"github.com/snapcorn/snapcorn/go/engine/taint"
	"github.com/snapcorn/snapcorn/go/models"
	"github.com/snapcorn/snapcorn/go/models/cpu"
)

// Machine is the live analysis context: one architecture handle with its cpu,
// and the symbolic, taint and formula state built on top of it.
// A Machine is owned by a single driver and is not safe for concurrent use.
type Machine struct {
	config *models.Config
	log    *slog.Logger

	arch     *arch.Architecture
	symbolic *symbolic.Engine
	taint    *taint.Engine
	ast      *ast.Context
	modes    models.Modes
}

func NewMachine(config *models.Config) (*Machine, error) {
	if config == nil {
		config = &models.Config{}
	}
	config.Init()
	modes, err := config.ExecutionModes()
	if err != nil {
		return nil, err
	}
	m := &Machine{
		config: config,
		log:    config.Logger(),
		arch:   arch.NewArchitecture(),
	}
	m.resetEngines()
	m.SetModes(modes)
	if err := m.addHooks(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Machine) resetEngines() {
	m.symbolic = symbolic.NewEngine()
	m.taint = taint.NewEngine()
	m.ast = ast.NewContext()
	m.ast.SetConstantFolding(m.modes.IsEnabled(models.MODE_CONSTANT_FOLDING))
}

func (m *Machine) addHooks() error {
	hooks := m.arch.Hooks()
	if m.config.TraceExec {
		_, err := hooks.HookAdd(cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) {
			m.log.Debug("exec", "addr", addr, "size", size)
		}, 1, 0)
		if err != nil {
			return err
		}
	}
	if m.config.TraceMem {
		_, err := hooks.HookAdd(cpu.HOOK_MEM_READ|cpu.HOOK_MEM_WRITE, func(_ cpu.Cpu, access int, addr uint64, size int, value int64) {
			if access == cpu.MEM_WRITE {
				m.log.Debug("mem write", "addr", addr, "size", size, "value", uint64(value))
			} else {
				m.log.Debug("mem read", "addr", addr, "size", size)
			}
		}, 1, 0)
		if err != nil {
			return err
		}
	}
	if m.config.TraceReg {
		_, err := hooks.HookAdd(cpu.HOOK_REG_WRITE, func(_ cpu.Cpu, reg models.Register, val *big.Int) {
			m.log.Debug("reg write", "reg", reg.Name, "value", "0x"+val.Text(16))
		}, 1, 0)
		if err != nil {
			return err
		}
	}
	return nil
}

// SetArchitecture installs a zeroed cpu for id and resets every engine. Modes are kept.
func (m *Machine) SetArchitecture(id models.ArchID) error {
	if err := m.arch.SetArchitecture(id); err != nil {
		return err
	}
	m.resetEngines()
	m.log.Debug("architecture set", "arch", id)
	return nil
}

// Reset drops the architecture and every engine.
func (m *Machine) Reset() {
	m.arch.Clear()
	m.resetEngines()
}

func (m *Machine) Config() *models.Config { return m.config }
func (m *Machine) Logger() *slog.Logger   { return m.log }

func (m *Machine) Architecture() *arch.Architecture { return m.arch }
func (m *Machine) SymbolicEngine() *symbolic.Engine { return m.symbolic }
func (m *Machine) TaintEngine() *taint.Engine       { return m.taint }
func (m *Machine) AstContext() *ast.Context         { return m.ast }
func (m *Machine) Modes() models.Modes              { return m.modes }

func (m *Machine) SetSymbolicEngine(e *symbolic.Engine) { m.symbolic = e }
func (m *Machine) SetTaintEngine(e *taint.Engine)       { m.taint = e }
func (m *Machine) SetAstContext(c *ast.Context)         { m.ast = c }

func (m *Machine) SetModes(modes models.Modes) {
	m.modes = modes
	m.ast.SetConstantFolding(modes.IsEnabled(models.MODE_CONSTANT_FOLDING))
}

func (m *Machine) EnableMode(mode models.Mode, enabled bool) {
	modes := m.modes
	modes.Enable(mode, enabled)
	m.SetModes(modes)
}

func (m *Machine) IsModeEnabled(mode models.Mode) bool {
	return m.modes.IsEnabled(mode)
}

// Arch returns the current architecture descriptor, or nil.
func (m *Machine) Arch() *models.Arch {
	return m.arch.Arch()
}

func (m *Machine) Cpu() (cpu.Cpu, error) {
	return m.arch.Cpu()
}

func (m *Machine) Register(id models.RegID) (models.Register, error) {
	a := m.Arch()
	if a == nil {
		return models.Register{}, arch.ErrNoArchitecture
	}
	return a.Register(id)
}

func (m *Machine) RegisterByName(name string) (models.Register, error) {
	a := m.Arch()
	if a == nil {
		return models.Register{}, arch.ErrNoArchitecture
	}
	return a.RegisterByName(name)
}

// ParentRegister returns the widest register aliasing reg.
func (m *Machine) ParentRegister(reg models.Register) models.Register {
	if a := m.Arch(); a != nil {
		return a.Parent(reg)
	}
	return reg
}

func (m *Machine) PC() (uint64, error) {
	c, err := m.Cpu()
	if err != nil {
		return 0, err
	}
	return c.PC()
}

func (m *Machine) SetPC(pc uint64) error {
	a := m.Arch()
	if a == nil {
		return arch.ErrNoArchitecture
	}
	reg, err := a.Register(a.PC)
	if err != nil {
		return err
	}
	return m.SetConcreteRegisterValue(reg, pc)
}

func (m *Machine) GetConcreteRegisterValue(reg models.Register) (uint64, error) {
	c, err := m.Cpu()
	if err != nil {
		return 0, err
	}
	return c.RegRead(reg)
}

func (m *Machine) GetConcreteRegisterValueBig(reg models.Register) (*big.Int, error) {
	c, err := m.Cpu()
	if err != nil {
		return nil, err
	}
	return c.RegReadBig(reg)
}

func (m *Machine) SetConcreteRegisterValue(reg models.Register, val uint64) error {
	c, err := m.Cpu()
	if err != nil {
		return err
	}
	return c.RegWrite(reg, val)
}

func (m *Machine) SetConcreteRegisterValueBig(reg models.Register, val *big.Int) error {
	c, err := m.Cpu()
	if err != nil {
		return err
	}
	return c.RegWriteBig(reg, val)
}

// GetConcreteMemoryArea reads size bytes; unmapped bytes read as zero.
func (m *Machine) GetConcreteMemoryArea(addr uint64, size int) ([]byte, error) {
	c, err := m.Cpu()
	if err != nil {
		return nil, err
	}
	return c.MemReadArea(addr, size), nil
}

// SetConcreteMemoryArea writes data, mapping pages as needed.
func (m *Machine) SetConcreteMemoryArea(addr uint64, data []byte) error {
	c, err := m.Cpu()
	if err != nil {
		return err
	}
	return c.MemWriteArea(addr, data)
}

// GetConcreteMemoryValue reads mem as one integer in the architecture's byte order.
func (m *Machine) GetConcreteMemoryValue(mem models.MemoryAccess) (*big.Int, error) {
	data, err := m.GetConcreteMemoryArea(mem.Address(), int(mem.Size()))
	if err != nil {
		return nil, err
	}
	return bytesToInt(m.Arch(), data), nil
}

func (m *Machine) SetConcreteMemoryValue(mem models.MemoryAccess, val *big.Int) error {
	if val.Sign() < 0 || uint(val.BitLen()) > mem.BitSize() {
		return errors.Errorf("value 0x%s does not fit %s", val.Text(16), mem)
	}
	return m.SetConcreteMemoryArea(mem.Address(), intToBytes(m.Arch(), val, mem.Size()))
}

func bytesToInt(a *models.Arch, data []byte) *big.Int {
	if a.Order != binary.BigEndian {
		rev := make([]byte, len(data))
		for i, b := range data {
			rev[len(data)-1-i] = b
		}
		data = rev
	}
	return new(big.Int).SetBytes(data)
}

func intToBytes(a *models.Arch, val *big.Int, size uint) []byte {
	data := make([]byte, size)
	val.FillBytes(data)
	if a.Order != binary.BigEndian {
		for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
			data[i], data[j] = data[j], data[i]
		}
	}
	return data
}
