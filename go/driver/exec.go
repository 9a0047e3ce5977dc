package driver

import (
	"math/big"

	"github.com/pkg/errors"

	snapcorn "github.com/snapcorn/snapcorn/go"
	"github.com/snapcorn/snapcorn/go/arch"
	"github.com/snapcorn/snapcorn/go/ast"
	"github.com/snapcorn/snapcorn/go/engine/symbolic"
	"github.com/snapcorn/snapcorn/go/models"
)

// Result describes where control went after an instruction.
type Result struct {
	Next   uint64
	Taken  bool
	Halted bool
	// set when a conditional branch recorded a path constraint
	Constraint *symbolic.PathConstraint
}

type exec struct {
	m    *snapcorn.Machine
	ins  *Instruction
	ctx  *ast.Context
	arch *models.Arch
	// direction forced onto a conditional branch
	force *bool
}

// Process runs ins on m: concrete state, symbolic expressions, taint and the program
// counter are all updated. Execution modes of m are honored.
func Process(m *snapcorn.Machine, ins *Instruction) (*Result, error) {
	return process(m, ins, nil)
}

// ProcessForced is Process with the direction of a conditional branch decided by taken
// rather than by the flags. Concrete values are not adjusted to make the path feasible.
func ProcessForced(m *snapcorn.Machine, ins *Instruction, taken bool) (*Result, error) {
	return process(m, ins, &taken)
}

func process(m *snapcorn.Machine, ins *Instruction, force *bool) (*Result, error) {
	a := m.Arch()
	if a == nil {
		return nil, arch.ErrNoArchitecture
	}
	e := &exec{m: m, ins: ins, ctx: m.AstContext(), arch: a, force: force}
	pc, err := m.Register(a.PC)
	if err != nil {
		return nil, err
	}
	if err := m.SetPC(ins.Address); err != nil {
		return nil, err
	}
	m.ConcretizeRegister(pc)
	m.Architecture().Hooks().OnCode(ins.Address, uint32(ins.Size))

	res, err := e.run()
	if err != nil {
		return nil, errors.Wrapf(err, "%#x: %s", ins.Address, ins)
	}
	if !res.Halted {
		if err := m.SetPC(res.Next); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (e *exec) zf() (models.Register, error) {
	if e.arch.ID == models.ARCH_AARCH64 {
		return e.arch.RegisterByName("z")
	}
	return e.arch.RegisterByName("zf")
}

// setsFlags reports whether arithmetic updates the zero flag. AArch64 only does so for cmp and tst.
func (e *exec) setsFlags() bool {
	return e.arch.ID != models.ARCH_AARCH64
}

func (e *exec) run() (*Result, error) {
	ins, ops := e.ins, e.ins.Operands
	res := &Result{Next: ins.Next()}
	switch ins.op {
	case OP_NOP:
	case OP_HLT:
		res.Halted = true

	case OP_MOV, OP_LOAD:
		return res, e.move(ops[0], ops[1])
	case OP_STORE:
		return res, e.move(ops[1], ops[0])
	case OP_LEA:
		return res, e.lea(ops[0].(models.Register), ops[1].(models.MemoryAccess))

	case OP_ADD, OP_SUB, OP_AND, OP_OR, OP_XOR:
		dst, a, b := ops[0], ops[0], ops[1]
		if len(ops) == 3 {
			a, b = ops[1], ops[2]
		}
		return res, e.binary(ins.op, dst, a, b, e.setsFlags())
	case OP_INC:
		one, _ := models.NewImmediate(1, models.BYTE_SIZE)
		return res, e.binary(OP_ADD, ops[0], ops[0], one, e.setsFlags())
	case OP_DEC:
		one, _ := models.NewImmediate(1, models.BYTE_SIZE)
		return res, e.binary(OP_SUB, ops[0], ops[0], one, e.setsFlags())
	case OP_NOT, OP_NEG:
		dst, src := ops[0], ops[0]
		if len(ops) == 2 {
			src = ops[1]
		}
		return res, e.unary(dst, src)
	case OP_CMP, OP_TEST:
		return res, e.compare(ops[0], ops[1])

	case OP_JMP:
		res.Next, _ = ins.Target()
		res.Taken = true
	case OP_JZ, OP_JNZ:
		return e.branch(res)
	default:
		return nil, errors.Errorf("unsupported op %d", ins.op)
	}
	return res, nil
}

// resolve computes the address of mem from the current register values and
// attaches the address formula.
func (e *exec) resolve(mem models.MemoryAccess) (models.MemoryAccess, error) {
	bits := e.arch.Bits
	addr := e.ctx.BV(mem.Displacement().Value(), bits)
	widen := func(n *ast.Node) *ast.Node {
		if n.BitSize() < bits {
			return e.ctx.ZeroExt(bits-n.BitSize(), n)
		}
		return n
	}
	if base := mem.Base(); base.IsValid() {
		n, err := e.m.GetRegisterAst(base)
		if err != nil {
			return mem, err
		}
		addr = e.ctx.Add(widen(n), addr)
	}
	if index := mem.Index(); index.IsValid() {
		n, err := e.m.GetRegisterAst(index)
		if err != nil {
			return mem, err
		}
		scaled := e.ctx.Mul(widen(n), e.ctx.BV(mem.Scale().Value(), bits))
		addr = e.ctx.Add(addr, scaled)
	}
	val, err := e.m.Evaluate(addr)
	if err != nil {
		return mem, err
	}
	mem.SetAddress(val.Uint64())
	mem.SetLeaAst(addr)
	return mem, nil
}

// resolveAll resolves every memory operand in place.
func (e *exec) resolveAll(ops ...*models.Operand) error {
	for _, o := range ops {
		if mem, ok := (*o).(models.MemoryAccess); ok {
			r, err := e.resolve(mem)
			if err != nil {
				return err
			}
			*o = r
		}
	}
	return nil
}

// read returns the formula of o at width bits.
func (e *exec) read(o models.Operand, bits uint) (*ast.Node, error) {
	switch v := o.(type) {
	case models.Register:
		return e.m.GetRegisterAst(v)
	case models.MemoryAccess:
		return e.m.GetMemoryAst(v)
	case models.Immediate:
		return e.ctx.BV(v.Value(), bits), nil
	}
	return nil, errors.Errorf("bad operand %v", o)
}

func (e *exec) tainted(ops ...models.Operand) bool {
	for _, o := range ops {
		switch v := o.(type) {
		case models.Register:
			if e.m.IsRegisterTainted(v) {
				return true
			}
		case models.MemoryAccess:
			if e.m.IsMemoryTainted(v) || e.pointerTainted(v) {
				return true
			}
		}
	}
	return false
}

func (e *exec) pointerTainted(mem models.MemoryAccess) bool {
	if !e.m.IsModeEnabled(models.MODE_TAINT_THROUGH_POINTERS) {
		return false
	}
	return mem.Base().IsValid() && e.m.IsRegisterTainted(mem.Base()) ||
		mem.Index().IsValid() && e.m.IsRegisterTainted(mem.Index())
}

// write stores node into dst. 32-bit writes to 64-bit general registers zero-extend
// into the parent. Under MODE_ONLY_ON_TAINTED a result with no tainted source is
// stored concretely.
func (e *exec) write(dst models.Operand, node *ast.Node, sources ...models.Operand) error {
	comment := e.ins.String()
	if e.m.IsModeEnabled(models.MODE_ONLY_ON_TAINTED) && !e.tainted(sources...) {
		val, err := e.m.Evaluate(node)
		if err != nil {
			return err
		}
		switch v := dst.(type) {
		case models.Register:
			v, val = e.extend(v, val)
			if err := e.m.SetConcreteRegisterValueBig(v, val); err != nil {
				return err
			}
			e.m.ConcretizeRegister(v)
		case models.MemoryAccess:
			if err := e.m.SetConcreteMemoryValue(v, val); err != nil {
				return err
			}
			e.m.ConcretizeMemory(v)
		}
		return nil
	}
	switch v := dst.(type) {
	case models.Register:
		if parent := e.m.ParentRegister(v); e.zeroExtends(v, parent) {
			v, node = parent, e.ctx.ZeroExt(parent.BitSize()-v.BitSize(), node)
		}
		_, err := e.m.AssignSymbolicExpressionToRegister(node, v, comment)
		return err
	case models.MemoryAccess:
		return e.m.AssignSymbolicExpressionToMemory(node, v, comment)
	}
	return errors.Errorf("cannot write to %v", dst)
}

func (e *exec) zeroExtends(reg, parent models.Register) bool {
	switch e.arch.ID {
	case models.ARCH_X86_64, models.ARCH_AARCH64:
		return reg.BitSize() == models.DWORD_SIZE_BIT && reg.Low == 0 && parent.BitSize() == models.QWORD_SIZE_BIT
	}
	return false
}

func (e *exec) extend(reg models.Register, val *big.Int) (models.Register, *big.Int) {
	if parent := e.m.ParentRegister(reg); e.zeroExtends(reg, parent) {
		return parent, val
	}
	return reg, val
}

// taintAssign gives dst exactly the taint of src.
func (e *exec) taintAssign(dst, src models.Operand) {
	t := e.m.TaintEngine()
	switch d := dst.(type) {
	case models.Register:
		switch s := src.(type) {
		case models.Register:
			t.AssignRegisterRegister(d, s)
		case models.MemoryAccess:
			t.AssignRegisterMemory(d, s)
			if e.pointerTainted(s) {
				t.TaintRegister(d)
			}
		case models.Immediate:
			t.AssignRegisterImmediate(d)
		}
	case models.MemoryAccess:
		switch s := src.(type) {
		case models.Register:
			t.AssignMemoryRegister(d, s)
		case models.MemoryAccess:
			t.AssignMemoryMemory(d, s)
		case models.Immediate:
			t.AssignMemoryImmediate(d)
		}
		if e.pointerTainted(d) {
			t.TaintMemory(d)
		}
	}
}

// taintUnion adds the taint of src to dst.
func (e *exec) taintUnion(dst, src models.Operand) {
	t := e.m.TaintEngine()
	switch d := dst.(type) {
	case models.Register:
		switch s := src.(type) {
		case models.Register:
			t.UnionRegisterRegister(d, s)
		case models.MemoryAccess:
			t.UnionRegisterMemory(d, s)
			if e.pointerTainted(s) {
				t.TaintRegister(d)
			}
		case models.Immediate:
			t.UnionRegisterImmediate(d)
		}
	case models.MemoryAccess:
		switch s := src.(type) {
		case models.Register:
			t.UnionMemoryRegister(d, s)
		case models.MemoryAccess:
			t.UnionMemoryMemory(d, s)
		case models.Immediate:
			t.UnionMemoryImmediate(d)
		}
	}
}

func (e *exec) move(dst, src models.Operand) error {
	if err := e.resolveAll(&dst, &src); err != nil {
		return err
	}
	node, err := e.read(src, dst.BitSize())
	if err != nil {
		return err
	}
	if err := e.write(dst, node, src); err != nil {
		return err
	}
	e.taintAssign(dst, src)
	return nil
}

func (e *exec) lea(dst models.Register, mem models.MemoryAccess) error {
	mem, err := e.resolve(mem)
	if err != nil {
		return err
	}
	node := mem.LeaAst()
	if dst.BitSize() < node.BitSize() {
		node = e.ctx.Extract(dst.BitSize()-1, 0, node)
	} else if dst.BitSize() > node.BitSize() {
		node = e.ctx.ZeroExt(dst.BitSize()-node.BitSize(), node)
	}
	var sources []models.Operand
	for _, r := range []models.Register{mem.Base(), mem.Index()} {
		if r.IsValid() {
			sources = append(sources, r)
		}
	}
	if err := e.write(dst, node, sources...); err != nil {
		return err
	}
	t := e.m.TaintEngine()
	t.AssignRegisterImmediate(dst)
	for _, r := range sources {
		t.UnionRegisterRegister(dst, r.(models.Register))
	}
	return nil
}

func (e *exec) compute(op int, a, b *ast.Node) *ast.Node {
	switch op {
	case OP_ADD:
		return e.ctx.Add(a, b)
	case OP_SUB, OP_CMP:
		return e.ctx.Sub(a, b)
	case OP_AND, OP_TEST:
		return e.ctx.And(a, b)
	case OP_OR:
		return e.ctx.Or(a, b)
	case OP_XOR:
		return e.ctx.Xor(a, b)
	}
	panic("bad binary op")
}

func (e *exec) binary(op int, dst, a, b models.Operand, flags bool) error {
	if err := e.resolveAll(&dst, &a, &b); err != nil {
		return err
	}
	bits := dst.BitSize()
	na, err := e.read(a, bits)
	if err != nil {
		return err
	}
	nb, err := e.read(b, bits)
	if err != nil {
		return err
	}
	result := e.compute(op, na, nb)
	if err := e.write(dst, result, a, b); err != nil {
		return err
	}
	if len(e.ins.Operands) == 3 {
		e.taintAssign(dst, a)
	}
	e.taintUnion(dst, b)
	if flags {
		return e.setZF(result, a, b)
	}
	return nil
}

func (e *exec) unary(dst, src models.Operand) error {
	if err := e.resolveAll(&dst, &src); err != nil {
		return err
	}
	n, err := e.read(src, dst.BitSize())
	if err != nil {
		return err
	}
	var result *ast.Node
	if e.ins.op == OP_NOT {
		result = e.ctx.Not(n)
	} else {
		result = e.ctx.Neg(n)
	}
	if err := e.write(dst, result, src); err != nil {
		return err
	}
	e.taintAssign(dst, src)
	if e.ins.op == OP_NEG && e.setsFlags() {
		return e.setZF(result, src)
	}
	return nil
}

func (e *exec) compare(a, b models.Operand) error {
	if err := e.resolveAll(&a, &b); err != nil {
		return err
	}
	na, err := e.read(a, a.BitSize())
	if err != nil {
		return err
	}
	nb, err := e.read(b, a.BitSize())
	if err != nil {
		return err
	}
	return e.setZF(e.compute(e.ins.op, na, nb), a, b)
}

// setZF sets the zero flag from result; the flag takes the union taint of sources.
func (e *exec) setZF(result *ast.Node, sources ...models.Operand) error {
	zf, err := e.zf()
	if err != nil {
		return err
	}
	zero := e.ctx.BV(0, result.BitSize())
	flag := e.ctx.Ite(e.ctx.Eq(result, zero), e.ctx.BV(1, 1), e.ctx.BV(0, 1))
	if err := e.write(zf, flag, sources...); err != nil {
		return err
	}
	e.m.TaintEngine().SetTaintRegister(zf, e.tainted(sources...))
	return nil
}

func (e *exec) branch(res *Result) (*Result, error) {
	zf, err := e.zf()
	if err != nil {
		return nil, err
	}
	flag, err := e.m.GetRegisterAst(zf)
	if err != nil {
		return nil, err
	}
	val, err := e.m.GetConcreteRegisterValue(zf)
	if err != nil {
		return nil, err
	}
	want := uint64(1)
	if e.ins.op == OP_JNZ {
		want = 0
	}
	cond := e.ctx.Eq(flag, e.ctx.BV(want, 1))
	target, _ := e.ins.Target()
	res.Taken = val == want
	if e.force != nil {
		res.Taken = *e.force
	}
	if res.Taken {
		res.Next = target
	}
	if !e.m.IsModeEnabled(models.MODE_PC_TRACKING_SYMBOLIC) || cond.Symbolized() {
		pc := symbolic.PathConstraint{Address: e.ins.Address, Target: res.Next, Taken: res.Taken, Cond: cond}
		e.m.SymbolicEngine().AddPathConstraint(pc)
		res.Constraint = &pc
	}
	return res, nil
}
