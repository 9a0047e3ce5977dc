package cpu

// Hook kinds use Unicorn's numbering.
const (
	HOOK_CODE      = 1 << 2
	HOOK_MEM_READ  = 1 << 10
	HOOK_MEM_WRITE = 1 << 11
	HOOK_REG_WRITE = 1 << 16
)

// MemError.Enum values.
const (
	MEM_WRITE_PROT     = 12
	MEM_READ_PROT      = 13
	MEM_READ_UNMAPPED  = 19
	MEM_WRITE_UNMAPPED = 20
)

// Access kinds passed to memory hooks.
const (
	MEM_WRITE = 16
	MEM_READ  = 17
)

// Page protection bits.
const (
	PROT_NONE  = 0
	PROT_READ  = 1 << 0
	PROT_WRITE = 1 << 1
	PROT_EXEC  = 1 << 2
	PROT_ALL   = PROT_READ | PROT_WRITE | PROT_EXEC
)
