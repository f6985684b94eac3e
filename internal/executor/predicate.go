package executor

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Op is a comparison operator.
type Op int

const (
	Equals Op = iota
	NotEquals
	LessThan
	LessThanOrEq
	GreaterThan
	GreaterThanOrEq
	// Like is substring containment on strings and equality on ints.
	Like
)

var opStrings = [...]string{
	Equals:          "=",
	NotEquals:       "<>",
	LessThan:        "<",
	LessThanOrEq:    "<=",
	GreaterThan:     ">",
	GreaterThanOrEq: ">=",
	Like:            "LIKE",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opStrings) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opStrings[op]
}

// ParseOp maps an operator token to an Op.
func ParseOp(s string) (Op, error) {
	switch s {
	case "=", "==":
		return Equals, nil
	case "<>", "!=":
		return NotEquals, nil
	case "<":
		return LessThan, nil
	case "<=":
		return LessThanOrEq, nil
	case ">":
		return GreaterThan, nil
	case ">=":
		return GreaterThanOrEq, nil
	case "LIKE", "like":
		return Like, nil
	}
	return 0, errors.Newf("unknown comparison operator %q", s)
}

// Predicate compares one field of a tuple against a constant.
type Predicate struct {
	Field   int
	Op      Op
	Operand Field
}

// NewPredicate returns a predicate testing "t[field] op operand".
func NewPredicate(field int, op Op, operand Field) *Predicate {
	return &Predicate{Field: field, Op: op, Operand: operand}
}

// Filter reports whether t satisfies the predicate.
func (p *Predicate) Filter(t *Tuple) bool {
	f := t.Field(p.Field)
	return f != nil && f.Compare(p.Op, p.Operand)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("$%d %s %s", p.Field, p.Op, p.Operand)
}

// JoinPredicate compares a field of an outer tuple with a field of an
// inner tuple.
type JoinPredicate struct {
	Field1 int
	Op     Op
	Field2 int
}

// NewJoinPredicate returns a predicate testing "t1[field1] op t2[field2]".
func NewJoinPredicate(field1 int, op Op, field2 int) *JoinPredicate {
	return &JoinPredicate{Field1: field1, Op: op, Field2: field2}
}

// Filter reports whether the pair (t1, t2) satisfies the predicate.
func (p *JoinPredicate) Filter(t1, t2 *Tuple) bool {
	f1 := t1.Field(p.Field1)
	f2 := t2.Field(p.Field2)
	return f1 != nil && f2 != nil && f1.Compare(p.Op, f2)
}

func (p *JoinPredicate) String() string {
	return fmt.Sprintf("left.$%d %s right.$%d", p.Field1, p.Op, p.Field2)
}
