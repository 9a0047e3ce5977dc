package ast

import (
	"math/big"

	"github.com/pkg/errors"
)

func mask(size uint) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), size)
	return m.Sub(m, big.NewInt(1))
}

func truncate(v *big.Int, size uint) *big.Int {
	if v.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), size)
		v = new(big.Int).Mod(v, mod)
	}
	return new(big.Int).And(v, mask(size))
}

func boolBV(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// Eval computes the concrete value of n. lookup supplies variable values.
func Eval(n *Node, lookup func(id uint) (*big.Int, bool)) (*big.Int, error) {
	switch n.kind {
	case BV:
		return new(big.Int).Set(n.value), nil
	case VARIABLE:
		if lookup != nil {
			if v, ok := lookup(n.variable.ID); ok {
				return truncate(v, n.size), nil
			}
		}
		return nil, errors.Errorf("no value for %s", n.variable.Name())
	}

	vals := make([]*big.Int, len(n.children))
	for i, c := range n.children {
		v, err := Eval(c, lookup)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	var r *big.Int
	switch n.kind {
	case NOT:
		r = new(big.Int).Xor(vals[0], mask(n.size))
	case NEG:
		r = new(big.Int).Neg(vals[0])
	case ADD:
		r = new(big.Int).Add(vals[0], vals[1])
	case SUB:
		r = new(big.Int).Sub(vals[0], vals[1])
	case MUL:
		r = new(big.Int).Mul(vals[0], vals[1])
	case AND:
		r = new(big.Int).And(vals[0], vals[1])
	case OR:
		r = new(big.Int).Or(vals[0], vals[1])
	case XOR:
		r = new(big.Int).Xor(vals[0], vals[1])
	case SHL:
		if vals[1].Cmp(big.NewInt(int64(n.size))) >= 0 {
			r = big.NewInt(0)
		} else {
			r = new(big.Int).Lsh(vals[0], uint(vals[1].Uint64()))
		}
	case LSHR:
		if vals[1].Cmp(big.NewInt(int64(n.size))) >= 0 {
			r = big.NewInt(0)
		} else {
			r = new(big.Int).Rsh(vals[0], uint(vals[1].Uint64()))
		}
	case EQ:
		r = boolBV(vals[0].Cmp(vals[1]) == 0)
	case NE:
		r = boolBV(vals[0].Cmp(vals[1]) != 0)
	case ULT:
		r = boolBV(vals[0].Cmp(vals[1]) < 0)
	case UGT:
		r = boolBV(vals[0].Cmp(vals[1]) > 0)
	case EXTRACT:
		r = new(big.Int).Rsh(vals[0], n.low)
	case CONCAT:
		r = new(big.Int)
		for i, v := range vals {
			r.Lsh(r, n.children[i].size)
			r.Or(r, v)
		}
	case ZX:
		r = vals[0]
	case ITE:
		if vals[0].Sign() != 0 {
			r = vals[1]
		} else {
			r = vals[2]
		}
	default:
		return nil, errors.Errorf("cannot evaluate %s", n.kind)
	}
	return truncate(r, n.size), nil
}
