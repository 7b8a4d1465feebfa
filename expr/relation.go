package expr

// Op is a relational operator.
type Op uint8

const (
	LE Op = iota // lhs <= rhs
	GE           // lhs >= rhs
	EQ           // lhs == rhs
)

func (op Op) String() string {
	switch op {
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "=="
	}
}

// A Relation relates two expressions; it is the body of a constraint.
type Relation struct {
	LHS Node
	Op  Op
	RHS Node
}

// LessEq returns lhs <= rhs.
func LessEq(lhs, rhs Node) Relation { return Relation{LHS: lhs, Op: LE, RHS: rhs} }

// GreaterEq returns lhs >= rhs.
func GreaterEq(lhs, rhs Node) Relation { return Relation{LHS: lhs, Op: GE, RHS: rhs} }

// EqualTo returns lhs == rhs.
func EqualTo(lhs, rhs Node) Relation { return Relation{LHS: lhs, Op: EQ, RHS: rhs} }

func (r Relation) String() string {
	return r.LHS.String() + " " + r.Op.String() + " " + r.RHS.String()
}

// Residual evaluates lhs - rhs.
func (r Relation) Residual() (float64, error) {
	lv, err := r.LHS.Eval()
	if err != nil {
		return 0, err
	}
	rv, err := r.RHS.Eval()
	if err != nil {
		return 0, err
	}
	return lv - rv, nil
}

// Satisfied reports whether the relation holds within tol.
func (r Relation) Satisfied(tol float64) (bool, error) {
	res, err := r.Residual()
	if err != nil {
		return false, err
	}
	switch r.Op {
	case LE:
		return res <= tol, nil
	case GE:
		return res >= -tol, nil
	default:
		return res <= tol && res >= -tol, nil
	}
}
