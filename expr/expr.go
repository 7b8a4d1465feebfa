// Package expr implements the symbolic expression trees gomo models are
// written in.
//
// Expressions reference model components (parameters, variables) through the
// Value interface and are evaluated only once those components are bound,
// mirroring the abstract/concrete split of the model package: building an
// expression never reads a component's value.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is implemented by model components an expression can reference.
// Value() must return an error while the component is unbound.
type Value interface {
	Label() string
	Value() (float64, error)
	IsDecision() bool
}

// Node is a scalar expression tree.
type Node interface {
	// Eval computes the expression against currently bound component values.
	Eval() (float64, error)
	String() string
}

type constant float64

func (c constant) Eval() (float64, error) { return float64(c), nil }
func (c constant) String() string         { return strconv.FormatFloat(float64(c), 'g', -1, 64) }

type ref struct{ v Value }

func (r ref) Eval() (float64, error) { return r.v.Value() }
func (r ref) String() string         { return r.v.Label() }

type nary struct {
	op       byte // '+' or '*'
	operands []Node
}

func (n nary) Eval() (float64, error) {
	var acc float64
	if n.op == '*' {
		acc = 1
	}
	for _, o := range n.operands {
		v, err := o.Eval()
		if err != nil {
			return 0, err
		}
		if n.op == '*' {
			acc *= v
		} else {
			acc += v
		}
	}
	return acc, nil
}

func (n nary) String() string {
	parts := make([]string, len(n.operands))
	for i, o := range n.operands {
		parts[i] = o.String()
	}
	return "(" + strings.Join(parts, " "+string(n.op)+" ") + ")"
}

type neg struct{ n Node }

func (n neg) Eval() (float64, error) {
	v, err := n.n.Eval()
	return -v, err
}
func (n neg) String() string { return "-" + n.n.String() }

type div struct{ num, den Node }

func (d div) Eval() (float64, error) {
	nv, err := d.num.Eval()
	if err != nil {
		return 0, err
	}
	dv, err := d.den.Eval()
	if err != nil {
		return 0, err
	}
	if dv == 0 {
		return 0, errors.New("division by zero")
	}
	return nv / dv, nil
}
func (d div) String() string { return "(" + d.num.String() + " / " + d.den.String() + ")" }

type pow struct {
	base Node
	exp  int
}

func (p pow) Eval() (float64, error) {
	v, err := p.base.Eval()
	if err != nil {
		return 0, err
	}
	return math.Pow(v, float64(p.exp)), nil
}
func (p pow) String() string { return p.base.String() + "**" + strconv.Itoa(p.exp) }

// Const returns a constant expression.
func Const(c float64) Node { return constant(c) }

// Ref returns an expression referencing a model component.
func Ref(v Value) Node { return ref{v} }

// Add returns i1 + i2 + in...
func Add(i1, i2 Node, in ...Node) Node {
	return nary{op: '+', operands: append([]Node{i1, i2}, in...)}
}

// Sub returns i1 - i2.
func Sub(i1, i2 Node) Node { return nary{op: '+', operands: []Node{i1, neg{i2}}} }

// Neg returns -i1.
func Neg(i1 Node) Node { return neg{i1} }

// Mul returns i1 * i2 * in...
func Mul(i1, i2 Node, in ...Node) Node {
	return nary{op: '*', operands: append([]Node{i1, i2}, in...)}
}

// Div returns i1 / i2. Evaluation fails on a zero denominator.
func Div(i1, i2 Node) Node { return div{i1, i2} }

// Pow returns base**exp for a small integer exponent.
func Pow(base Node, exp int) Node { return pow{base, exp} }

// Sum folds terms into a single sum. An empty sum evaluates to 0.
func Sum(terms ...Node) Node {
	switch len(terms) {
	case 0:
		return constant(0)
	case 1:
		return terms[0]
	}
	return nary{op: '+', operands: terms}
}

// Prod folds factors into a single product. An empty product evaluates to 1.
func Prod(factors ...Node) Node {
	switch len(factors) {
	case 0:
		return constant(1)
	case 1:
		return factors[0]
	}
	return nary{op: '*', operands: factors}
}

// Eval is shorthand for n.Eval() with a wrapped error, the analog of
// value(expr) in algebraic modeling languages.
func Eval(n Node) (float64, error) {
	v, err := n.Eval()
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", n.String(), err)
	}
	return v, nil
}
