package executor

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// intDesc returns a TupleDesc of n INT fields named prefix.c0, prefix.c1, ...
func intDesc(prefix string, n int) *TupleDesc {
	types := make([]Type, n)
	names := make([]string, n)
	for i := range types {
		types[i] = IntType
		names[i] = fmt.Sprintf("%s.c%d", prefix, i)
	}
	return NewTupleDesc(types, names)
}

func intTuple(t testing.TB, desc *TupleDesc, vals ...int64) *Tuple {
	fields := make([]Field, len(vals))
	for i, v := range vals {
		fields[i] = IntField(v)
	}
	tup, err := NewTupleFromFields(desc, fields...)
	require.NoError(t, err)
	return tup
}

// intSource returns an in-memory source over rows of width INT fields.
func intSource(t testing.TB, prefix string, width int, rows ...[]int64) *TupleIterator {
	desc := intDesc(prefix, width)
	tuples := make([]*Tuple, len(rows))
	for i, r := range rows {
		tuples[i] = intTuple(t, desc, r...)
	}
	return NewTupleIterator(desc, tuples)
}

func intValues(tuples []*Tuple) [][]int64 {
	out := make([][]int64, 0, len(tuples))
	for _, tup := range tuples {
		row := make([]int64, len(tup.Fields()))
		for i, f := range tup.Fields() {
			row[i] = int64(f.(IntField))
		}
		out = append(out, row)
	}
	return out
}

// nestedLoop computes the expected join output by brute force, in outer
// then inner order.
func nestedLoop(pred *JoinPredicate, outer, inner [][]int64) [][]int64 {
	out := [][]int64{}
	for _, o := range outer {
		for _, i := range inner {
			if pred.Field1 >= len(o) || pred.Field2 >= len(i) {
				continue
			}
			if IntField(o[pred.Field1]).Compare(pred.Op, IntField(i[pred.Field2])) {
				row := append(append([]int64{}, o...), i...)
				out = append(out, row)
			}
		}
	}
	return out
}

// countingExecutor records lifecycle calls made on the wrapped executor.
type countingExecutor struct {
	Executor
	opens, closes, rewinds, nexts int
}

func (c *countingExecutor) Open() error {
	c.opens++
	return c.Executor.Open()
}

func (c *countingExecutor) Close() error {
	c.closes++
	return c.Executor.Close()
}

func (c *countingExecutor) Rewind() error {
	c.rewinds++
	return c.Executor.Rewind()
}

func (c *countingExecutor) Next() (*Tuple, error) {
	c.nexts++
	return c.Executor.Next()
}

// faultyExecutor fails Open with openErr, or fails Next with nextErr once
// failAfter tuples have been returned.
type faultyExecutor struct {
	Executor
	openErr   error
	nextErr   error
	failAfter int
	returned  int
	closed    bool
}

func (f *faultyExecutor) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	return f.Executor.Open()
}

func (f *faultyExecutor) Close() error {
	f.closed = true
	return f.Executor.Close()
}

func (f *faultyExecutor) Next() (*Tuple, error) {
	if f.nextErr != nil && f.returned >= f.failAfter {
		return nil, f.nextErr
	}
	t, err := f.Executor.Next()
	if t != nil {
		f.returned++
	}
	return t, err
}

// requireMarked checks err against an error class; marks are only visible
// to errors.Is from github.com/cockroachdb/errors.
func requireMarked(t testing.TB, err error, mark error) {
	t.Helper()
	require.Truef(t, errors.Is(err, mark), "expected %v, got %v", mark, err)
}
