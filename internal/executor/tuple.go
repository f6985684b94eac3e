package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Type is the type of a tuple field.
type Type int

const (
	IntType Type = iota
	StringType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case StringType:
		return "VARCHAR"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Field is a single typed value of a tuple.
type Field interface {
	Type() Type
	// Compare reports whether "f op other" holds. Fields of different
	// types never compare true.
	Compare(op Op, other Field) bool
	String() string
}

// IntField is a 64-bit integer value.
type IntField int64

func (f IntField) Type() Type { return IntType }

func (f IntField) String() string { return strconv.FormatInt(int64(f), 10) }

func (f IntField) Compare(op Op, other Field) bool {
	o, ok := other.(IntField)
	if !ok {
		return false
	}
	switch op {
	case Equals, Like:
		return f == o
	case NotEquals:
		return f != o
	case LessThan:
		return f < o
	case LessThanOrEq:
		return f <= o
	case GreaterThan:
		return f > o
	case GreaterThanOrEq:
		return f >= o
	}
	return false
}

// StringField is a variable-length string value.
type StringField string

func (f StringField) Type() Type { return StringType }

func (f StringField) String() string { return string(f) }

func (f StringField) Compare(op Op, other Field) bool {
	o, ok := other.(StringField)
	if !ok {
		return false
	}
	c := strings.Compare(string(f), string(o))
	switch op {
	case Equals:
		return c == 0
	case NotEquals:
		return c != 0
	case LessThan:
		return c < 0
	case LessThanOrEq:
		return c <= 0
	case GreaterThan:
		return c > 0
	case GreaterThanOrEq:
		return c >= 0
	case Like:
		return strings.Contains(string(f), string(o))
	}
	return false
}

// TDItem names and types one column of a TupleDesc.
type TDItem struct {
	Type Type
	Name string
}

// TupleDesc is the schema of a tuple: an ordered list of typed, named fields.
type TupleDesc struct {
	items []TDItem
}

// NewTupleDesc builds a TupleDesc from parallel type and name slices. Names
// may be nil, in which case fields are anonymous.
func NewTupleDesc(types []Type, names []string) *TupleDesc {
	td := &TupleDesc{items: make([]TDItem, len(types))}
	for i, t := range types {
		td.items[i].Type = t
		if i < len(names) {
			td.items[i].Name = names[i]
		}
	}
	return td
}

// MergeTupleDesc returns a TupleDesc holding the fields of a followed by the
// fields of b.
func MergeTupleDesc(a, b *TupleDesc) *TupleDesc {
	items := make([]TDItem, 0, len(a.items)+len(b.items))
	items = append(items, a.items...)
	items = append(items, b.items...)
	return &TupleDesc{items: items}
}

func (td *TupleDesc) NumFields() int { return len(td.items) }

func (td *TupleDesc) FieldType(i int) Type { return td.items[i].Type }

func (td *TupleDesc) FieldName(i int) string { return td.items[i].Name }

// Items returns a copy of the descriptor's fields.
func (td *TupleDesc) Items() []TDItem {
	return append([]TDItem(nil), td.items...)
}

// IndexOf resolves a field name. A qualified name ("t.col") must match
// exactly; an unqualified one matches the column part of qualified fields
// and must be unambiguous.
func (td *TupleDesc) IndexOf(name string) (int, error) {
	for i, it := range td.items {
		if it.Name == name {
			return i, nil
		}
	}
	if strings.Contains(name, ".") {
		return -1, errors.Newf("no field named %q", name)
	}
	found := -1
	for i, it := range td.items {
		if _, col, ok := strings.Cut(it.Name, "."); ok && col == name {
			if found >= 0 {
				return -1, errors.Newf("field name %q is ambiguous", name)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, errors.Newf("no field named %q", name)
	}
	return found, nil
}

// Equal compares field types only; names are informational.
func (td *TupleDesc) Equal(other *TupleDesc) bool {
	if td.NumFields() != other.NumFields() {
		return false
	}
	for i := range td.items {
		if td.items[i].Type != other.items[i].Type {
			return false
		}
	}
	return true
}

func (td *TupleDesc) String() string {
	parts := make([]string, len(td.items))
	for i, it := range td.items {
		parts[i] = fmt.Sprintf("%s(%s)", it.Type, it.Name)
	}
	return strings.Join(parts, ", ")
}

// Tuple is a row of fields conforming to a TupleDesc.
type Tuple struct {
	desc   *TupleDesc
	fields []Field
}

// NewTuple allocates a tuple with unset fields.
func NewTuple(desc *TupleDesc) *Tuple {
	return &Tuple{desc: desc, fields: make([]Field, desc.NumFields())}
}

// NewTupleFromFields builds a tuple from its field values.
func NewTupleFromFields(desc *TupleDesc, fields ...Field) (*Tuple, error) {
	if len(fields) != desc.NumFields() {
		return nil, errors.Newf("expected %d fields, got %d", desc.NumFields(), len(fields))
	}
	t := NewTuple(desc)
	for i, f := range fields {
		if f.Type() != desc.FieldType(i) {
			return nil, errors.Newf("field %d: expected %s, got %s", i, desc.FieldType(i), f.Type())
		}
		t.fields[i] = f
	}
	return t, nil
}

func (t *Tuple) TupleDesc() *TupleDesc { return t.desc }

func (t *Tuple) Field(i int) Field { return t.fields[i] }

func (t *Tuple) SetField(i int, f Field) { t.fields[i] = f }

// Fields returns the tuple's values; the slice must not be modified.
func (t *Tuple) Fields() []Field { return t.fields }

func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		if f == nil {
			parts[i] = "NULL"
			continue
		}
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// joinTuples concatenates left and right into a new tuple of desc: left's
// fields land at [0, n) and right's at [n, n+m).
func joinTuples(desc *TupleDesc, left, right *Tuple) *Tuple {
	t := NewTuple(desc)
	n := copy(t.fields, left.fields)
	copy(t.fields[n:], right.fields)
	return t
}
