package executor

// Chunk is a fixed-capacity batch of tuples drawn from the outer input of a
// ChunkNestedLoopJoin. It is filled once and then only read.
type Chunk struct {
	tuples []*Tuple
}

// NewChunk returns an empty chunk holding at most capacity tuples.
func NewChunk(capacity int) *Chunk {
	return &Chunk{tuples: make([]*Tuple, 0, capacity)}
}

// Load pulls tuples from src until the chunk is full or src is exhausted.
// Fewer than Capacity tuples are loaded only when src ran dry.
func (c *Chunk) Load(src Executor) error {
	for len(c.tuples) < cap(c.tuples) {
		t, err := src.Next()
		if err != nil {
			return err
		}
		if t == nil {
			return nil
		}
		c.tuples = append(c.tuples, t)
	}
	return nil
}

// Len is the fill count.
func (c *Chunk) Len() int { return len(c.tuples) }

func (c *Chunk) Capacity() int { return cap(c.tuples) }

func (c *Chunk) At(i int) *Tuple { return c.tuples[i] }

// Tuples returns the loaded tuples; the slice must not be modified.
func (c *Chunk) Tuples() []*Tuple { return c.tuples }
