package executor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testOuterRows = [][]int64{
		{1, 10}, {2, 20}, {3, 30}, {2, 21}, {5, 50}, {1, 11}, {7, 70},
	}
	testInnerRows = [][]int64{
		{2, 200}, {1, 100}, {9, 900}, {2, 201}, {5, 500},
	}
)

func newTestJoin(
	t *testing.T, pred *JoinPredicate, outer, inner Executor, chunkSize int,
) *ChunkNestedLoopJoin {
	t.Helper()
	j, err := NewChunkNestedLoopJoin(pred, outer, inner, chunkSize)
	require.NoError(t, err)
	return j
}

func TestChunkNestedLoopJoinExample(t *testing.T) {
	outer := intSource(t, "l", 3, []int64{1, 2, 3}, []int64{4, 5, 6})
	inner := intSource(t, "r", 3, []int64{1, 5, 6}, []int64{9, 9, 9})
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 0), outer, inner, 2)

	out, err := Run(j)
	require.NoError(t, err)
	require.Equal(t, [][]int64{{1, 2, 3, 1, 5, 6}}, intValues(out))
}

func TestChunkNestedLoopJoinChunkSizes(t *testing.T) {
	for _, pred := range []*JoinPredicate{
		NewJoinPredicate(0, Equals, 0),
		NewJoinPredicate(0, LessThan, 0),
		NewJoinPredicate(1, GreaterThanOrEq, 0),
		NewJoinPredicate(0, NotEquals, 0),
	} {
		expected := nestedLoop(pred, testOuterRows, testInnerRows)
		// Sizes below, equal to and above the outer row count, dividing it
		// evenly or not.
		for chunkSize := 1; chunkSize <= len(testOuterRows)+3; chunkSize++ {
			outer := intSource(t, "l", 2, testOuterRows...)
			inner := intSource(t, "r", 2, testInnerRows...)
			j := newTestJoin(t, pred, outer, inner, chunkSize)

			out, err := Run(j)
			require.NoError(t, err)
			require.Equal(t, expected, intValues(out), "%s chunk=%d", pred, chunkSize)
		}
	}
}

func TestChunkNestedLoopJoinDuplicatesKept(t *testing.T) {
	outer := intSource(t, "l", 1, []int64{1}, []int64{1})
	inner := intSource(t, "r", 1, []int64{1}, []int64{1}, []int64{1})
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 0), outer, inner, 2)

	out, err := Run(j)
	require.NoError(t, err)
	require.Len(t, out, 6)
}

func TestChunkNestedLoopJoinEmptyInputs(t *testing.T) {
	pred := NewJoinPredicate(0, Equals, 0)
	for _, tc := range []struct {
		name         string
		outer, inner [][]int64
	}{
		{name: "empty outer", inner: testInnerRows},
		{name: "empty inner", outer: testOuterRows},
		{name: "both empty"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, chunkSize := range []int{1, 3, 100} {
				outer := intSource(t, "l", 2, tc.outer...)
				inner := intSource(t, "r", 2, tc.inner...)
				j := newTestJoin(t, pred, outer, inner, chunkSize)

				out, err := Run(j)
				require.NoError(t, err)
				require.Empty(t, out)
			}
		})
	}
}

func TestChunkNestedLoopJoinTupleDesc(t *testing.T) {
	outerDesc := NewTupleDesc([]Type{IntType, StringType}, []string{"l.id", "l.name"})
	innerDesc := NewTupleDesc([]Type{StringType, IntType, IntType}, []string{"r.tag", "r.id", "r.n"})
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 1),
		NewTupleIterator(outerDesc, nil), NewTupleIterator(innerDesc, nil), 4)

	desc := j.TupleDesc()
	require.Equal(t, 5, desc.NumFields())
	for i := 0; i < outerDesc.NumFields(); i++ {
		require.Equal(t, outerDesc.FieldType(i), desc.FieldType(i))
		require.Equal(t, outerDesc.FieldName(i), desc.FieldName(i))
	}
	for i := 0; i < innerDesc.NumFields(); i++ {
		require.Equal(t, innerDesc.FieldType(i), desc.FieldType(outerDesc.NumFields()+i))
	}
}

func TestChunkNestedLoopJoinStringKeys(t *testing.T) {
	desc := NewTupleDesc([]Type{StringType, IntType}, []string{"name", "n"})
	mk := func(s string, n int64) *Tuple {
		tup, err := NewTupleFromFields(desc, StringField(s), IntField(n))
		require.NoError(t, err)
		return tup
	}
	outer := NewTupleIterator(desc, []*Tuple{mk("ada", 1), mk("bob", 2)})
	inner := NewTupleIterator(desc, []*Tuple{mk("bob", 3), mk("ada", 4), mk("ada", 5)})
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 0), outer, inner, 1)

	out, err := Run(j)
	require.NoError(t, err)
	var got []string
	for _, tup := range out {
		got = append(got, tup.String())
	}
	require.Equal(t, []string{"{ada,1,ada,4}", "{ada,1,ada,5}", "{bob,2,bob,3}"}, got)
}

func TestChunkNestedLoopJoinRewind(t *testing.T) {
	pred := NewJoinPredicate(0, Equals, 0)
	expected := nestedLoop(pred, testOuterRows, testInnerRows)
	j := newTestJoin(t, pred,
		intSource(t, "l", 2, testOuterRows...), intSource(t, "r", 2, testInnerRows...), 3)
	require.NoError(t, j.Open())
	defer func() { require.NoError(t, j.Close()) }()

	first, err := Drain(j)
	require.NoError(t, err)
	require.Equal(t, expected, intValues(first))

	require.NoError(t, j.Rewind())
	second, err := Drain(j)
	require.NoError(t, err)
	require.Equal(t, intValues(first), intValues(second))

	// Rewinding mid-stream, with a chunk active and a lookahead tuple
	// buffered, starts over as well.
	require.NoError(t, j.Rewind())
	_, err = j.Next()
	require.NoError(t, err)
	ok, err := j.HasNext()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, j.CurrentChunk())
	require.NoError(t, j.Rewind())
	require.Nil(t, j.CurrentChunk())
	require.Zero(t, j.Cursor())
	third, err := Drain(j)
	require.NoError(t, err)
	require.Equal(t, intValues(first), intValues(third))
}

func TestChunkNestedLoopJoinReopen(t *testing.T) {
	pred := NewJoinPredicate(0, Equals, 0)
	j := newTestJoin(t, pred,
		intSource(t, "l", 2, testOuterRows...), intSource(t, "r", 2, testInnerRows...), 4)

	first, err := Run(j)
	require.NoError(t, err)
	second, err := Run(j)
	require.NoError(t, err)
	require.Equal(t, intValues(first), intValues(second))
	require.Equal(t, nestedLoop(pred, testOuterRows, testInnerRows), intValues(second))
}

func TestChunkNestedLoopJoinHasNext(t *testing.T) {
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 0),
		intSource(t, "l", 2, testOuterRows...), intSource(t, "r", 2, testInnerRows...), 2)
	require.NoError(t, j.Open())

	var got []*Tuple
	for {
		// Probing twice must not skip a tuple.
		ok, err := j.HasNext()
		require.NoError(t, err)
		ok2, err := j.HasNext()
		require.NoError(t, err)
		require.Equal(t, ok, ok2)
		if !ok {
			break
		}
		tup, err := j.Next()
		require.NoError(t, err)
		got = append(got, tup)
	}
	tup, err := j.Next()
	require.NoError(t, err)
	require.Nil(t, tup)
	require.NoError(t, j.Close())

	require.Equal(t, nestedLoop(j.JoinPredicate(), testOuterRows, testInnerRows), intValues(got))
}

func TestChunkNestedLoopJoinChunkState(t *testing.T) {
	outer := intSource(t, "l", 1, []int64{1}, []int64{2}, []int64{3})
	inner := intSource(t, "r", 1, []int64{1}, []int64{2}, []int64{3})
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 0), outer, inner, 2)
	require.NoError(t, j.Open())
	require.Nil(t, j.CurrentChunk())

	type state struct {
		row            int64
		fill, capacity int
		cursor         int
	}
	for _, want := range []state{
		{row: 1, fill: 2, capacity: 2, cursor: 0},
		{row: 2, fill: 2, capacity: 2, cursor: 1},
		// The last chunk is partial.
		{row: 3, fill: 1, capacity: 2, cursor: 0},
	} {
		tup, err := j.Next()
		require.NoError(t, err)
		require.Equal(t, IntField(want.row), tup.Field(0))
		c := j.CurrentChunk()
		require.NotNil(t, c)
		require.Equal(t, want.fill, c.Len())
		require.Equal(t, want.capacity, c.Capacity())
		require.Equal(t, want.cursor, j.Cursor())
	}

	tup, err := j.Next()
	require.NoError(t, err)
	require.Nil(t, tup)
	require.Nil(t, j.CurrentChunk())
	require.NoError(t, j.Close())
}

func TestChunkNestedLoopJoinInnerRewinds(t *testing.T) {
	for _, chunkSize := range []int{1, 2, 3, 7, 50} {
		outer := &countingExecutor{Executor: intSource(t, "l", 2, testOuterRows...)}
		inner := &countingExecutor{Executor: intSource(t, "r", 2, testInnerRows...)}
		j := newTestJoin(t, NewJoinPredicate(0, Equals, 0), outer, inner, chunkSize)

		_, err := Run(j)
		require.NoError(t, err)
		// One full inner scan, and one rewind, per outer tuple, the last
		// one included.
		require.Equal(t, len(testOuterRows), inner.rewinds, "chunk=%d", chunkSize)
		require.Zero(t, outer.rewinds)
		require.Equal(t, 1, outer.opens)
		require.Equal(t, 1, inner.opens)
		require.Equal(t, 1, outer.closes)
		require.Equal(t, 1, inner.closes)
		// Each inner scan reads every tuple plus the end-of-stream marker.
		require.Equal(t, len(testOuterRows)*(len(testInnerRows)+1), inner.nexts)
	}
}

func TestChunkNestedLoopJoinNoChildCallsAfterExhaustion(t *testing.T) {
	outer := &countingExecutor{Executor: intSource(t, "l", 2, testOuterRows...)}
	inner := &countingExecutor{Executor: intSource(t, "r", 2, testInnerRows...)}
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 0), outer, inner, 3)
	require.NoError(t, j.Open())
	_, err := Drain(j)
	require.NoError(t, err)

	outerNexts, innerNexts := outer.nexts, inner.nexts
	for i := 0; i < 3; i++ {
		tup, err := j.Next()
		require.NoError(t, err)
		require.Nil(t, tup)
	}
	require.Equal(t, outerNexts, outer.nexts)
	require.Equal(t, innerNexts, inner.nexts)
	require.NoError(t, j.Close())
}

func TestChunkNestedLoopJoinInvalidChunkSize(t *testing.T) {
	for _, chunkSize := range []int{0, -3} {
		_, err := NewChunkNestedLoopJoin(NewJoinPredicate(0, Equals, 0),
			intSource(t, "l", 1), intSource(t, "r", 1), chunkSize)
		require.Error(t, err)
	}
}

func TestChunkNestedLoopJoinChildErrors(t *testing.T) {
	pred := NewJoinPredicate(0, Equals, 0)

	t.Run("outer open", func(t *testing.T) {
		openErr := ExecutionErrorf("cannot open outer")
		inner := &countingExecutor{Executor: intSource(t, "r", 2, testInnerRows...)}
		j := newTestJoin(t, pred,
			&faultyExecutor{Executor: intSource(t, "l", 2, testOuterRows...), openErr: openErr},
			inner, 2)
		err := j.Open()
		require.ErrorIs(t, err, openErr)
		requireMarked(t, err, ErrExecution)
		require.Zero(t, inner.opens)
		// A failed Open leaves the join closed.
		_, err = j.Next()
		requireMarked(t, err, ErrProtocolViolation)
	})

	t.Run("inner open", func(t *testing.T) {
		openErr := ExecutionErrorf("cannot open inner")
		outer := &faultyExecutor{Executor: intSource(t, "l", 2, testOuterRows...)}
		j := newTestJoin(t, pred, outer,
			&faultyExecutor{Executor: intSource(t, "r", 2, testInnerRows...), openErr: openErr}, 2)
		require.ErrorIs(t, j.Open(), openErr)
		require.True(t, outer.closed)
	})

	t.Run("inner conflict", func(t *testing.T) {
		conflict := TransactionConflictf("write-write conflict")
		j := newTestJoin(t, pred,
			intSource(t, "l", 2, testOuterRows...),
			&faultyExecutor{Executor: intSource(t, "r", 2, testInnerRows...), nextErr: conflict, failAfter: 8},
			2)
		require.NoError(t, j.Open())
		out, err := Drain(j)
		requireMarked(t, err, ErrTransactionConflict)
		require.ErrorIs(t, err, conflict)
		// Tuples produced before the failure were whole.
		for _, tup := range out {
			require.Len(t, tup.Fields(), 4)
		}
		require.NoError(t, j.Close())
	})

	t.Run("outer fetch", func(t *testing.T) {
		fetchErr := ExecutionErrorf("page read failed")
		j := newTestJoin(t, pred,
			&faultyExecutor{Executor: intSource(t, "l", 2, testOuterRows...), nextErr: fetchErr, failAfter: 4},
			intSource(t, "r", 2, testInnerRows...), 3)
		require.NoError(t, j.Open())
		_, err := Drain(j)
		require.ErrorIs(t, err, fetchErr)
		requireMarked(t, err, ErrExecution)
		require.NoError(t, j.Close())
	})
}

func TestChunkNestedLoopJoinProtocolViolations(t *testing.T) {
	j := newTestJoin(t, NewJoinPredicate(0, Equals, 0),
		intSource(t, "l", 2, testOuterRows...), intSource(t, "r", 2, testInnerRows...), 2)

	_, err := j.Next()
	requireMarked(t, err, ErrProtocolViolation)
	_, err = j.HasNext()
	requireMarked(t, err, ErrProtocolViolation)
	requireMarked(t, j.Rewind(), ErrProtocolViolation)
	requireMarked(t, j.Close(), ErrProtocolViolation)

	require.NoError(t, j.Open())
	require.NoError(t, j.Close())

	_, err = j.Next()
	requireMarked(t, err, ErrProtocolViolation)
	_, err = j.HasNext()
	requireMarked(t, err, ErrProtocolViolation)
	requireMarked(t, j.Close(), ErrProtocolViolation)
}

func TestChunkNestedLoopJoinSetChildren(t *testing.T) {
	pred := NewJoinPredicate(0, Equals, 0)
	outer := intSource(t, "l", 2, testOuterRows...)
	inner := intSource(t, "r", 2, testInnerRows...)
	j := newTestJoin(t, pred, outer, inner, 2)

	children := j.Children()
	require.Len(t, children, 2)
	require.Same(t, outer, children[0])
	require.Same(t, inner, children[1])

	require.Error(t, j.SetChildren([]Executor{outer}))

	// Swapping the inputs keeps the output schema but changes the join.
	require.NoError(t, j.SetChildren([]Executor{inner, outer}))
	out, err := Run(j)
	require.NoError(t, err)
	require.Equal(t, nestedLoop(pred, testInnerRows, testOuterRows), intValues(out))
}
