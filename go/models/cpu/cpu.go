package cpu

import (
	"math/big"

	"github.com/snapcorn/snapcorn/go/models"
)

type Hook interface{}

// Cpu is the concrete machine state an architecture owns: a register file and a memory image.
type Cpu interface {
	Arch() *models.Arch
	PC() (uint64, error)

	// register IO, through any alias of a parent register
	RegRead(reg models.Register) (uint64, error)
	RegWrite(reg models.Register, val uint64) error
	RegReadBig(reg models.Register) (*big.Int, error)
	RegWriteBig(reg models.Register, val *big.Int) error

	// memory mapping
	MemMapProt(addr, size uint64, prot int) error
	MemUnmap(addr, size uint64) error
	Mappings() Pages
	IsMapped(addr, size uint64) bool
	ClearMemory()

	// strict memory IO, mapping checked
	MemRead(addr, size uint64) ([]byte, error)
	MemWrite(addr uint64, p []byte) error

	// analysis memory IO: unmapped bytes read as zero, writes map pages on demand
	MemReadUint(mem models.MemoryAccess) (uint64, error)
	MemWriteUint(mem models.MemoryAccess, val uint64) error
	MemReadArea(addr uint64, size int) []byte
	MemWriteArea(addr uint64, p []byte) error

	SetHooks(h *Hooks)
}
