package executor

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ChunkNestedLoopJoin joins an outer and an inner input with a block nested
// loop: it buffers up to chunkSize outer tuples at a time and, for each
// buffered tuple in turn, scans the whole inner input, emitting the
// concatenation of every pair that satisfies the predicate. A chunk size of 1
// is a plain tuple-at-a-time nested loop join.
//
// Output order is outer delivery order, then inner delivery order for each
// outer tuple. Join columns are not deduplicated: joining {1,2,3} with
// {1,5,6} on the first column yields {1,2,3,1,5,6}.
type ChunkNestedLoopJoin struct {
	operator

	pred      *JoinPredicate
	outer     Executor
	inner     Executor
	chunkSize int
	desc      *TupleDesc

	// chunk is nil when no chunk is active. While it is set, cursor indexes
	// the outer tuple being matched, 0 <= cursor < chunk.Len(); the chunk is
	// dropped as soon as cursor reaches its fill count.
	chunk  *Chunk
	cursor int
	// exhausted is set once the outer input failed to fill a new chunk.
	exhausted bool
}

var _ Operator = (*ChunkNestedLoopJoin)(nil)

// NewChunkNestedLoopJoin returns a join of outer and inner on pred that
// buffers chunkSize outer tuples at a time. chunkSize must be at least 1.
func NewChunkNestedLoopJoin(
	pred *JoinPredicate, outer, inner Executor, chunkSize int,
) (*ChunkNestedLoopJoin, error) {
	if chunkSize < 1 {
		return nil, errors.Newf("chunk size must be at least 1, got %d", chunkSize)
	}
	j := &ChunkNestedLoopJoin{
		pred:      pred,
		outer:     outer,
		inner:     inner,
		chunkSize: chunkSize,
		desc:      MergeTupleDesc(outer.TupleDesc(), inner.TupleDesc()),
	}
	j.operator.init("ChunkNestedLoopJoin", j.fetchNext)
	return j, nil
}

func (j *ChunkNestedLoopJoin) JoinPredicate() *JoinPredicate { return j.pred }

func (j *ChunkNestedLoopJoin) ChunkSize() int { return j.chunkSize }

// TupleDesc returns the outer fields followed by the inner fields.
func (j *ChunkNestedLoopJoin) TupleDesc() *TupleDesc { return j.desc }

// CurrentChunk returns the active chunk, or nil between chunks.
func (j *ChunkNestedLoopJoin) CurrentChunk() *Chunk { return j.chunk }

// Cursor returns the index of the outer tuple being matched in the active
// chunk.
func (j *ChunkNestedLoopJoin) Cursor() int { return j.cursor }

// Open opens the outer input, then the inner one.
func (j *ChunkNestedLoopJoin) Open() error {
	if err := j.outer.Open(); err != nil {
		return err
	}
	if err := j.inner.Open(); err != nil {
		return errors.CombineErrors(err, j.outer.Close())
	}
	j.resetChunk()
	j.markOpen()
	return nil
}

// Close closes the inner input, then the outer one. Both are closed even if
// the first fails.
func (j *ChunkNestedLoopJoin) Close() error {
	if err := j.markClosed(); err != nil {
		return err
	}
	j.resetChunk()
	return errors.CombineErrors(j.inner.Close(), j.outer.Close())
}

// Rewind restarts both inputs and drops the active chunk.
func (j *ChunkNestedLoopJoin) Rewind() error {
	if err := j.reset(); err != nil {
		return err
	}
	if err := j.outer.Rewind(); err != nil {
		return err
	}
	if err := j.inner.Rewind(); err != nil {
		return err
	}
	j.resetChunk()
	return nil
}

func (j *ChunkNestedLoopJoin) resetChunk() {
	j.chunk = nil
	j.cursor = 0
	j.exhausted = false
}

// Children returns the outer and inner inputs, in that order.
func (j *ChunkNestedLoopJoin) Children() []Executor {
	return []Executor{j.outer, j.inner}
}

// SetChildren replaces the outer and inner inputs. The output TupleDesc is
// not recomputed and no iteration state is reset.
func (j *ChunkNestedLoopJoin) SetChildren(children []Executor) error {
	if len(children) != 2 {
		return errors.Newf("ChunkNestedLoopJoin takes 2 children, got %d", len(children))
	}
	j.outer, j.inner = children[0], children[1]
	return nil
}

// fetchChunk replaces the active chunk with up to chunkSize tuples from the
// outer input. It returns false when the outer input had nothing left.
func (j *ChunkNestedLoopJoin) fetchChunk() (bool, error) {
	c := NewChunk(j.chunkSize)
	if err := c.Load(j.outer); err != nil {
		return false, err
	}
	if c.Len() == 0 {
		return false, nil
	}
	j.chunk = c
	j.cursor = 0
	zap.L().Debug("loaded outer chunk",
		zap.Int("tuples", c.Len()), zap.Int("capacity", j.chunkSize))
	return true, nil
}

// fetchNext returns the next joined tuple, or nil when the join is done.
//
// A match returns immediately and leaves the inner input where it is, so
// the next call resumes the inner scan for the same outer tuple. When the
// inner input runs out, it is rewound for the next outer tuple; that
// includes the last outer tuple of the last chunk.
func (j *ChunkNestedLoopJoin) fetchNext() (*Tuple, error) {
	for !j.exhausted {
		if j.chunk == nil {
			ok, err := j.fetchChunk()
			if err != nil {
				return nil, err
			}
			if !ok {
				j.exhausted = true
				zap.L().Debug("join exhausted")
				break
			}
		}

		left := j.chunk.At(j.cursor)
		for {
			right, err := j.inner.Next()
			if err != nil {
				return nil, err
			}
			if right == nil {
				break
			}
			if j.pred.Filter(left, right) {
				return joinTuples(j.desc, left, right), nil
			}
		}

		if err := j.inner.Rewind(); err != nil {
			return nil, err
		}
		j.cursor++
		if j.cursor == j.chunk.Len() {
			j.chunk = nil
			j.cursor = 0
		}
	}
	return nil, nil
}
