package snapcorn

import (
	"github.com/snapcorn/snapcorn/go/models"
)

func (m *Machine) TaintRegister(reg models.Register) bool     { return m.taint.TaintRegister(reg) }
func (m *Machine) UntaintRegister(reg models.Register) bool   { return m.taint.UntaintRegister(reg) }
func (m *Machine) IsRegisterTainted(reg models.Register) bool { return m.taint.IsRegisterTainted(reg) }

func (m *Machine) TaintMemory(mem models.MemoryAccess) bool     { return m.taint.TaintMemory(mem) }
func (m *Machine) UntaintMemory(mem models.MemoryAccess) bool   { return m.taint.UntaintMemory(mem) }
func (m *Machine) IsMemoryTainted(mem models.MemoryAccess) bool { return m.taint.IsMemoryTainted(mem) }
