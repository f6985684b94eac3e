package executor

import (
	"github.com/benkivuva/chunkdb/internal/storage"
	"github.com/cockroachdb/errors"
)

// TupleIterator is an in-memory source over a fixed list of tuples.
type TupleIterator struct {
	operator
	desc   *TupleDesc
	tuples []*Tuple
	pos    int
}

var _ Executor = (*TupleIterator)(nil)

func NewTupleIterator(desc *TupleDesc, tuples []*Tuple) *TupleIterator {
	it := &TupleIterator{desc: desc, tuples: tuples}
	it.operator.init("TupleIterator", it.fetchNext)
	return it
}

func (it *TupleIterator) TupleDesc() *TupleDesc { return it.desc }

func (it *TupleIterator) Open() error {
	it.pos = 0
	it.markOpen()
	return nil
}

func (it *TupleIterator) Close() error { return it.markClosed() }

func (it *TupleIterator) Rewind() error {
	if err := it.reset(); err != nil {
		return err
	}
	it.pos = 0
	return nil
}

func (it *TupleIterator) fetchNext() (*Tuple, error) {
	if it.pos >= len(it.tuples) {
		return nil, nil
	}
	t := it.tuples[it.pos]
	it.pos++
	return t, nil
}

// SeqScan reads every tuple of a table heap in storage order.
type SeqScan struct {
	operator
	heap     *storage.TableHeap
	desc     *TupleDesc
	iterator *storage.TableIterator
}

var _ Executor = (*SeqScan)(nil)

// NewSeqScan scans heap, decoding its tuples with desc.
func NewSeqScan(heap *storage.TableHeap, desc *TupleDesc) *SeqScan {
	s := &SeqScan{heap: heap, desc: desc}
	s.operator.init("SeqScan", s.fetchNext)
	return s
}

func (s *SeqScan) TupleDesc() *TupleDesc { return s.desc }

func (s *SeqScan) Open() error {
	s.iterator = s.heap.Iterator()
	s.markOpen()
	return nil
}

func (s *SeqScan) Close() error {
	if err := s.markClosed(); err != nil {
		return err
	}
	s.iterator = nil
	return nil
}

func (s *SeqScan) Rewind() error {
	if err := s.reset(); err != nil {
		return err
	}
	s.iterator.Reset()
	return nil
}

func (s *SeqScan) fetchNext() (*Tuple, error) {
	data, rid, err := s.iterator.Next()
	if err != nil {
		return nil, markExecution(err, "scanning heap at page %d", s.heap.FirstPageID())
	}
	if data == nil {
		return nil, nil
	}
	t, err := DecodeTuple(s.desc, data)
	if err != nil {
		return nil, markExecution(err, "decoding tuple %s", rid)
	}
	return t, nil
}

// Filter passes through the tuples of its child that satisfy a predicate.
type Filter struct {
	operator
	pred  *Predicate
	child Executor
}

var _ Operator = (*Filter)(nil)

func NewFilter(pred *Predicate, child Executor) *Filter {
	f := &Filter{pred: pred, child: child}
	f.operator.init("Filter", f.fetchNext)
	return f
}

func (f *Filter) Predicate() *Predicate { return f.pred }

func (f *Filter) TupleDesc() *TupleDesc { return f.child.TupleDesc() }

func (f *Filter) Open() error {
	if err := f.child.Open(); err != nil {
		return err
	}
	f.markOpen()
	return nil
}

func (f *Filter) Close() error {
	if err := f.markClosed(); err != nil {
		return err
	}
	return f.child.Close()
}

func (f *Filter) Rewind() error {
	if err := f.reset(); err != nil {
		return err
	}
	return f.child.Rewind()
}

func (f *Filter) Children() []Executor { return []Executor{f.child} }

func (f *Filter) SetChildren(children []Executor) error {
	if len(children) != 1 {
		return errors.Newf("Filter takes 1 child, got %d", len(children))
	}
	f.child = children[0]
	return nil
}

func (f *Filter) fetchNext() (*Tuple, error) {
	for {
		t, err := f.child.Next()
		if err != nil || t == nil {
			return nil, err
		}
		if f.pred.Filter(t) {
			return t, nil
		}
	}
}

// Project keeps a subset of its child's fields, in the given order.
type Project struct {
	operator
	fields []int
	desc   *TupleDesc
	child  Executor
}

var _ Operator = (*Project)(nil)

// NewProject returns an operator emitting child fields fields[0], fields[1], ...
func NewProject(fields []int, child Executor) (*Project, error) {
	cd := child.TupleDesc()
	types := make([]Type, len(fields))
	names := make([]string, len(fields))
	for i, idx := range fields {
		if idx < 0 || idx >= cd.NumFields() {
			return nil, errors.Newf("projected field %d out of range [0, %d)", idx, cd.NumFields())
		}
		types[i] = cd.FieldType(idx)
		names[i] = cd.FieldName(idx)
	}
	p := &Project{fields: fields, desc: NewTupleDesc(types, names), child: child}
	p.operator.init("Project", p.fetchNext)
	return p, nil
}

func (p *Project) TupleDesc() *TupleDesc { return p.desc }

func (p *Project) Open() error {
	if err := p.child.Open(); err != nil {
		return err
	}
	p.markOpen()
	return nil
}

func (p *Project) Close() error {
	if err := p.markClosed(); err != nil {
		return err
	}
	return p.child.Close()
}

func (p *Project) Rewind() error {
	if err := p.reset(); err != nil {
		return err
	}
	return p.child.Rewind()
}

func (p *Project) Children() []Executor { return []Executor{p.child} }

func (p *Project) SetChildren(children []Executor) error {
	if len(children) != 1 {
		return errors.Newf("Project takes 1 child, got %d", len(children))
	}
	p.child = children[0]
	return nil
}

func (p *Project) fetchNext() (*Tuple, error) {
	t, err := p.child.Next()
	if err != nil || t == nil {
		return nil, err
	}
	out := NewTuple(p.desc)
	for i, idx := range p.fields {
		out.fields[i] = t.Field(idx)
	}
	return out, nil
}

// Insert writes every tuple of its child into a table heap and then emits a
// single tuple holding the number of tuples inserted.
type Insert struct {
	operator
	heap  *storage.TableHeap
	child Executor
	desc  *TupleDesc

	inserted int
	ran      bool
	emitted  bool
}

var _ Operator = (*Insert)(nil)

// NewInsert returns an insert of child into heap. The child's tuples must
// match tableDesc.
func NewInsert(heap *storage.TableHeap, tableDesc *TupleDesc, child Executor) (*Insert, error) {
	if !tableDesc.Equal(child.TupleDesc()) {
		return nil, errors.Newf("cannot insert (%s) into table (%s)", child.TupleDesc(), tableDesc)
	}
	ins := &Insert{
		heap:  heap,
		child: child,
		desc:  NewTupleDesc([]Type{IntType}, []string{"count"}),
	}
	ins.operator.init("Insert", ins.fetchNext)
	return ins, nil
}

func (ins *Insert) TupleDesc() *TupleDesc { return ins.desc }

func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.inserted, ins.ran, ins.emitted = 0, false, false
	ins.markOpen()
	return nil
}

func (ins *Insert) Close() error {
	if err := ins.markClosed(); err != nil {
		return err
	}
	return ins.child.Close()
}

// Rewind replays the count tuple; the inserts are not repeated.
func (ins *Insert) Rewind() error {
	if err := ins.reset(); err != nil {
		return err
	}
	ins.emitted = false
	return nil
}

func (ins *Insert) Children() []Executor { return []Executor{ins.child} }

func (ins *Insert) SetChildren(children []Executor) error {
	if len(children) != 1 {
		return errors.Newf("Insert takes 1 child, got %d", len(children))
	}
	ins.child = children[0]
	return nil
}

func (ins *Insert) fetchNext() (*Tuple, error) {
	if ins.emitted {
		return nil, nil
	}
	for !ins.ran {
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if t == nil {
			ins.ran = true
			break
		}
		data, err := EncodeTuple(t)
		if err != nil {
			return nil, err
		}
		if _, err := ins.heap.InsertTuple(data); err != nil {
			return nil, markExecution(err, "inserting tuple %s", t)
		}
		ins.inserted++
	}
	ins.emitted = true
	out := NewTuple(ins.desc)
	out.fields[0] = IntField(ins.inserted)
	return out, nil
}
