package executor

import "github.com/cockroachdb/errors"

// Executor is the pull iterator every row source implements (Volcano model).
//
// Open must be called before HasNext, Next or Rewind, and Close releases the
// iterator; using it outside that window is an ErrProtocolViolation. Next
// returns (nil, nil) once the stream is exhausted.
type Executor interface {
	Open() error
	Close() error
	// Rewind restarts the iterator at its first tuple.
	Rewind() error
	HasNext() (bool, error)
	Next() (*Tuple, error)
	// TupleDesc is valid from construction on.
	TupleDesc() *TupleDesc
}

// Operator is an Executor with child inputs that a plan rewriter can replace.
// SetChildren resets no iteration state: after rebinding, the caller must
// Open (or Rewind) the operator before pulling from it again.
type Operator interface {
	Executor
	Children() []Executor
	SetChildren(children []Executor) error
}

// operator implements the lifecycle and lookahead half of the pull protocol
// on top of a fetchNext function that returns the next tuple, or nil at the
// end of the stream.
type operator struct {
	name      string
	fetchNext func() (*Tuple, error)
	open      bool
	// next is a tuple fetched by HasNext and not yet returned by Next.
	next *Tuple
}

func (o *operator) init(name string, fetchNext func() (*Tuple, error)) {
	o.name = name
	o.fetchNext = fetchNext
}

func (o *operator) markOpen() {
	o.open = true
	o.next = nil
}

func (o *operator) markClosed() error {
	if !o.open {
		return protocolViolationf("%s: Close called on an iterator that is not open", o.name)
	}
	o.open = false
	o.next = nil
	return nil
}

// reset drops the lookahead tuple as part of a Rewind.
func (o *operator) reset() error {
	if !o.open {
		return protocolViolationf("%s: Rewind called on an iterator that is not open", o.name)
	}
	o.next = nil
	return nil
}

func (o *operator) HasNext() (bool, error) {
	if !o.open {
		return false, protocolViolationf("%s: HasNext called on an iterator that is not open", o.name)
	}
	if o.next == nil {
		t, err := o.fetchNext()
		if err != nil {
			return false, err
		}
		o.next = t
	}
	return o.next != nil, nil
}

func (o *operator) Next() (*Tuple, error) {
	if !o.open {
		return nil, protocolViolationf("%s: Next called on an iterator that is not open", o.name)
	}
	if t := o.next; t != nil {
		o.next = nil
		return t, nil
	}
	return o.fetchNext()
}

// Drain pulls every remaining tuple from an open executor.
func Drain(e Executor) ([]*Tuple, error) {
	var out []*Tuple
	for {
		t, err := e.Next()
		if err != nil {
			return out, err
		}
		if t == nil {
			return out, nil
		}
		out = append(out, t)
	}
}

// Run opens e, drains it and closes it.
func Run(e Executor) (_ []*Tuple, retErr error) {
	if err := e.Open(); err != nil {
		return nil, err
	}
	defer func() {
		retErr = errors.CombineErrors(retErr, e.Close())
	}()
	return Drain(e)
}
