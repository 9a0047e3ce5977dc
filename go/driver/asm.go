package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models"
)

// Instruction is one assembled line. Memory operands carry their addressing
// registers and displacement; the address itself is resolved when the
// instruction is processed.
type Instruction struct {
	Address  uint64
	Size     uint64
	Mnemonic string
	Operands []models.Operand

	op int
}

// Next is the fall-through address.
func (i *Instruction) Next() uint64 {
	return i.Address + i.Size
}

func (i *Instruction) IsBranch() bool {
	return i.op == OP_JMP || i.op == OP_JZ || i.op == OP_JNZ
}

func (i *Instruction) IsConditional() bool {
	return i.op == OP_JZ || i.op == OP_JNZ
}

// Target is the destination of a branch.
func (i *Instruction) Target() (uint64, bool) {
	if !i.IsBranch() || len(i.Operands) != 1 {
		return 0, false
	}
	if imm, ok := i.Operands[0].(models.Immediate); ok {
		return imm.Value(), true
	}
	return 0, false
}

// Successors lists the addresses control may reach after i.
func (i *Instruction) Successors() []uint64 {
	if i.op == OP_HLT {
		return nil
	}
	target, ok := i.Target()
	switch {
	case i.IsConditional() && ok:
		return []uint64{target, i.Next()}
	case i.IsBranch() && ok:
		return []uint64{target}
	}
	return []uint64{i.Next()}
}

func (i *Instruction) OpStr() string {
	args := make([]string, len(i.Operands))
	for j, o := range i.Operands {
		args[j] = opText(o)
	}
	return strings.Join(args, ", ")
}

func (i *Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + i.OpStr()
}

func opText(o models.Operand) string {
	switch v := o.(type) {
	case models.Register:
		return v.Name
	case models.Immediate:
		return fmt.Sprintf("%#x", v.Value())
	case models.MemoryAccess:
		var name string
		for k, size := range ptrSizes {
			if size == v.Size() {
				name = k
			}
		}
		var terms []string
		if v.Base().IsValid() {
			terms = append(terms, v.Base().Name)
		}
		if v.Index().IsValid() {
			terms = append(terms, fmt.Sprintf("%s*%d", v.Index().Name, v.Scale().Value()))
		}
		if d := v.Displacement(); d.Size() != 0 && d.Value() != 0 || len(terms) == 0 {
			terms = append(terms, fmt.Sprintf("%#x", d.Value()))
		}
		s := "[" + strings.Join(terms, " + ") + "]"
		if v.Segment().IsValid() {
			s = v.Segment().Name + ":" + s
		}
		return name + " ptr " + s
	}
	return o.String()
}

// splitArgs splits on commas outside brackets.
func splitArgs(s string) []string {
	var args []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		args = append(args, rest)
	}
	return args
}

func parseInt(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	val, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Errorf("bad number %q", s)
	}
	if neg {
		val = -val
	}
	return val, nil
}

type asmState struct {
	arch *models.Arch
	text string
}

func (a *asmState) errorf(format string, args ...interface{}) error {
	return errors.Errorf("%s: %q: %s", a.arch.Name, a.text, fmt.Sprintf(format, args...))
}

// parseMem parses "[size ptr] [seg:][base + index*scale + disp]" and AArch64 "[base, #disp]".
func (a *asmState) parseMem(s string, size uint) (models.MemoryAccess, error) {
	if fields := strings.Fields(s); len(fields) > 2 && fields[1] == "ptr" {
		var ok bool
		if size, ok = ptrSizes[fields[0]]; !ok {
			return models.MemoryAccess{}, a.errorf("unknown size %q", fields[0])
		}
		s = strings.Join(fields[2:], " ")
	}
	if size == 0 {
		return models.MemoryAccess{}, a.errorf("memory operand %s needs a size", s)
	}
	var seg models.Register
	if i := strings.Index(s, ":"); i > 0 && i < strings.Index(s, "[") {
		r, err := a.arch.RegisterByName(strings.TrimSpace(s[:i]))
		if err != nil {
			return models.MemoryAccess{}, a.errorf("bad segment %q", s[:i])
		}
		seg, s = r, s[i+1:]
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return models.MemoryAccess{}, a.errorf("bad memory operand %q", s)
	}
	inner := strings.Replace(s[1:len(s)-1], ",", "+", -1)
	inner = strings.Replace(inner, "-", "+-", -1)

	mem, err := models.NewMemoryAccess(0, size)
	if err != nil {
		return mem, err
	}
	mem.SetSegment(seg)
	var disp uint64
	for _, term := range strings.Split(inner, "+") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if parts := strings.SplitN(term, "*", 2); len(parts) == 2 {
			idx, err := a.arch.RegisterByName(strings.TrimSpace(parts[0]))
			if err != nil {
				return mem, a.errorf("bad index %q", parts[0])
			}
			scale, err := parseInt(parts[1])
			if err != nil {
				return mem, a.errorf("%v", err)
			}
			imm, err := models.NewImmediate(scale, a.arch.ByteSize())
			if err != nil {
				return mem, err
			}
			mem.SetIndex(idx)
			mem.SetScale(imm)
		} else if r, err := a.arch.RegisterByName(term); err == nil {
			if !mem.Base().IsValid() {
				mem.SetBase(r)
			} else {
				one, _ := models.NewImmediate(1, a.arch.ByteSize())
				mem.SetIndex(r)
				mem.SetScale(one)
			}
		} else {
			val, err := parseInt(term)
			if err != nil {
				return mem, a.errorf("%v", err)
			}
			disp += val
		}
	}
	imm, err := models.NewImmediate(disp, a.arch.ByteSize())
	if err != nil {
		return mem, err
	}
	mem.SetDisplacement(imm)
	return mem, nil
}

// Assemble parses one line of assembly for arch at addr. Instruction sizes are not encoded:
// AArch64 instructions are 4 bytes, other architectures default to 1 until a Program
// sizes them from its listing.
func Assemble(arch *models.Arch, addr uint64, text string) (*Instruction, error) {
	a := &asmState{arch: arch, text: text}
	line := strings.ToLower(strings.TrimSpace(text))
	if i := strings.IndexAny(line, ";"); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	mnemonic, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		mnemonic, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	op, ok := opNames[mnemonic]
	if !ok {
		return nil, a.errorf("unknown mnemonic %q", mnemonic)
	}
	ins := &Instruction{Address: addr, Size: 1, Mnemonic: mnemonic, op: op}
	if arch.ID == models.ARCH_AARCH64 {
		ins.Size = 4
	}
	args := splitArgs(rest)

	// the first register operand sizes memory and immediates
	var size uint
	for _, s := range args {
		if r, err := arch.RegisterByName(s); err == nil {
			size = r.Size()
			break
		}
	}
	for i, s := range args {
		var operand models.Operand
		if r, err := arch.RegisterByName(s); err == nil {
			operand = r
		} else if strings.Contains(s, "[") {
			mem, err := a.parseMem(s, size)
			if err != nil {
				return nil, err
			}
			if size == 0 {
				size = mem.Size()
			}
			operand = mem
		} else {
			val, err := parseInt(s)
			if err != nil {
				return nil, a.errorf("operand %d: %v", i+1, err)
			}
			immSize := size
			if ins.IsBranch() || immSize == 0 || immSize > models.QWORD_SIZE {
				immSize = arch.ByteSize()
			}
			imm, err := models.NewImmediate(val, immSize)
			if err != nil {
				return nil, err
			}
			operand = imm
		}
		ins.Operands = append(ins.Operands, operand)
	}
	if err := a.check(ins); err != nil {
		return nil, err
	}
	return ins, nil
}

// check validates operand counts and kinds.
func (a *asmState) check(ins *Instruction) error {
	n := len(ins.Operands)
	kind := func(i int) models.OperandType { return ins.Operands[i].Type() }
	switch ins.op {
	case OP_NOP, OP_HLT:
		if n != 0 {
			return a.errorf("%s takes no operands", ins.Mnemonic)
		}
	case OP_JMP, OP_JZ, OP_JNZ:
		if n != 1 || kind(0) != models.OP_IMM {
			return a.errorf("%s needs an absolute target", ins.Mnemonic)
		}
	case OP_NOT, OP_NEG, OP_INC, OP_DEC:
		if n == 2 && (ins.op == OP_NOT || ins.op == OP_NEG) {
			// AArch64 "mvn x0, x1" and "neg x0, x1"
			if kind(0) != models.OP_REG {
				return a.errorf("destination must be a register")
			}
		} else if n != 1 || kind(0) == models.OP_IMM {
			return a.errorf("%s needs one writable operand", ins.Mnemonic)
		}
	case OP_LEA, OP_LOAD, OP_STORE:
		if n != 2 || kind(0) != models.OP_REG || kind(1) != models.OP_MEM {
			return a.errorf("%s needs a register and a memory operand", ins.Mnemonic)
		}
	case OP_CMP, OP_TEST:
		if n != 2 {
			return a.errorf("%s needs two operands", ins.Mnemonic)
		}
	default:
		if n < 2 || n > 3 || kind(0) == models.OP_IMM {
			return a.errorf("%s needs a writable destination and one or two sources", ins.Mnemonic)
		}
		if n == 3 && ins.op == OP_MOV {
			return a.errorf("mov takes two operands")
		}
		if n == 2 && kind(0) == models.OP_MEM && kind(1) == models.OP_MEM {
			return a.errorf("memory to memory operands")
		}
	}
	for _, o := range ins.Operands {
		if o.BitSize() != ins.Operands[0].BitSize() && ins.op != OP_LEA && !ins.IsBranch() {
			if _, ok := o.(models.Immediate); ok {
				continue
			}
			return a.errorf("operand size mismatch")
		}
	}
	return nil
}
