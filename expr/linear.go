package expr

import (
	"errors"
	"fmt"
	"strings"
)

// A Term is a coefficient applied to a referenced component.
type Term struct {
	V     Value
	Coeff float64
}

// A Linear is an affine combination of terms plus a constant offset.
type Linear struct {
	Terms    []Term
	Constant float64
}

// Clone returns a copy of the underlying terms.
func (l Linear) Clone() Linear {
	res := Linear{Terms: make([]Term, len(l.Terms)), Constant: l.Constant}
	copy(res.Terms, l.Terms)
	return res
}

func (l Linear) String() string {
	var sbb strings.Builder
	for i, t := range l.Terms {
		if i > 0 {
			sbb.WriteString(" + ")
		}
		fmt.Fprintf(&sbb, "%g*%s", t.Coeff, t.V.Label())
	}
	if l.Constant != 0 || len(l.Terms) == 0 {
		if len(l.Terms) > 0 {
			sbb.WriteString(" + ")
		}
		fmt.Fprintf(&sbb, "%g", l.Constant)
	}
	return sbb.String()
}

// ErrNotAffine is returned by Linearize when the expression tree is not an
// affine combination of component references.
var ErrNotAffine = errors.New("expression is not affine")

// Linearize extracts the affine form of n. Products of two non-constant
// subexpressions and non-trivial powers fail with ErrNotAffine. Terms
// referencing the same component are merged.
func Linearize(n Node) (Linear, error) {
	l, err := linearize(n)
	if err != nil {
		return Linear{}, err
	}
	return mergeTerms(l), nil
}

func linearize(n Node) (Linear, error) {
	switch e := n.(type) {
	case constant:
		return Linear{Constant: float64(e)}, nil
	case ref:
		return Linear{Terms: []Term{{V: e.v, Coeff: 1}}}, nil
	case neg:
		l, err := linearize(e.n)
		if err != nil {
			return Linear{}, err
		}
		return scale(l, -1), nil
	case nary:
		if e.op == '+' {
			var acc Linear
			for _, o := range e.operands {
				l, err := linearize(o)
				if err != nil {
					return Linear{}, err
				}
				acc.Terms = append(acc.Terms, l.Terms...)
				acc.Constant += l.Constant
			}
			return acc, nil
		}
		// product: at most one operand may carry terms
		acc := Linear{Constant: 1}
		for _, o := range e.operands {
			l, err := linearize(o)
			if err != nil {
				return Linear{}, err
			}
			if len(l.Terms) == 0 {
				acc = scale(acc, l.Constant)
				continue
			}
			if len(acc.Terms) > 0 {
				return Linear{}, fmt.Errorf("%w: product of two non-constant expressions", ErrNotAffine)
			}
			c := acc.Constant
			acc = scale(l, c)
		}
		return acc, nil
	case div:
		num, err := linearize(e.num)
		if err != nil {
			return Linear{}, err
		}
		den, err := linearize(e.den)
		if err != nil {
			return Linear{}, err
		}
		if len(den.Terms) > 0 {
			return Linear{}, fmt.Errorf("%w: non-constant denominator", ErrNotAffine)
		}
		if den.Constant == 0 {
			return Linear{}, errors.New("division by zero")
		}
		return scale(num, 1/den.Constant), nil
	case pow:
		switch e.exp {
		case 0:
			return Linear{Constant: 1}, nil
		case 1:
			return linearize(e.base)
		}
		return Linear{}, fmt.Errorf("%w: power %d", ErrNotAffine, e.exp)
	default:
		return Linear{}, fmt.Errorf("%w: unknown node %T", ErrNotAffine, n)
	}
}

func scale(l Linear, c float64) Linear {
	for i := range l.Terms {
		l.Terms[i].Coeff *= c
	}
	l.Constant *= c
	return l
}

func mergeTerms(l Linear) Linear {
	if len(l.Terms) < 2 {
		return l
	}
	merged := make([]Term, 0, len(l.Terms))
	seen := make(map[Value]int, len(l.Terms))
	for _, t := range l.Terms {
		if i, ok := seen[t.V]; ok {
			merged[i].Coeff += t.Coeff
			continue
		}
		seen[t.V] = len(merged)
		merged = append(merged, t)
	}
	l.Terms = merged
	return l
}
