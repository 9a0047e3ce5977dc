package driver

const (
	OP_INVALID = iota
	OP_NOP
	OP_HLT

	OP_MOV
	OP_LEA
	OP_LOAD
	OP_STORE

	OP_ADD
	OP_SUB
	OP_AND
	OP_OR
	OP_XOR
	OP_NOT
	OP_NEG
	OP_INC
	OP_DEC

	OP_CMP
	OP_TEST

	OP_JMP
	OP_JZ
	OP_JNZ
)

// x86 and AArch64 spellings map onto the same ops
var opNames = map[string]int{
	"nop": OP_NOP,
	"hlt": OP_HLT,

	"mov": OP_MOV,
	"lea": OP_LEA,
	"ldr": OP_LOAD,
	"str": OP_STORE,

	"add": OP_ADD,
	"sub": OP_SUB,
	"and": OP_AND,
	"or":  OP_OR,
	"orr": OP_OR,
	"xor": OP_XOR,
	"eor": OP_XOR,
	"not": OP_NOT,
	"mvn": OP_NOT,
	"neg": OP_NEG,
	"inc": OP_INC,
	"dec": OP_DEC,

	"cmp":  OP_CMP,
	"test": OP_TEST,
	"tst":  OP_TEST,

	"jmp":  OP_JMP,
	"b":    OP_JMP,
	"je":   OP_JZ,
	"jz":   OP_JZ,
	"b.eq": OP_JZ,
	"jne":  OP_JNZ,
	"jnz":  OP_JNZ,
	"b.ne": OP_JNZ,
}

// operand size prefixes, in bytes
var ptrSizes = map[string]uint{
	"byte":    1,
	"word":    2,
	"dword":   4,
	"qword":   8,
	"xmmword": 16,
	"ymmword": 32,
	"zmmword": 64,
}
