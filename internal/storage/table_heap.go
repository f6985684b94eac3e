package storage

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// TableHeap is an unordered table stored as a linked list of slotted pages.
// Tuples are appended, so an iterator returns them in insertion order.
type TableHeap struct {
	bufferPool  *BufferPool
	firstPageID PageID
	lastPageID  PageID
}

// NewTableHeap opens the heap starting at firstPageID, or allocates a new
// empty heap when firstPageID is InvalidPageID.
func NewTableHeap(bp *BufferPool, firstPageID PageID) (*TableHeap, error) {
	th := &TableHeap{bufferPool: bp, firstPageID: firstPageID, lastPageID: firstPageID}
	if firstPageID != InvalidPageID {
		return th, nil
	}

	page, err := bp.NewPage()
	if err != nil {
		return nil, errors.Wrap(err, "allocating first heap page")
	}
	NewSlottedPage(page).Init()
	th.firstPageID = page.ID
	th.lastPageID = page.ID
	bp.UnpinPage(page.ID, true)
	return th, nil
}

// FirstPageID returns the head of the page chain.
func (th *TableHeap) FirstPageID() PageID {
	return th.firstPageID
}

// InsertTuple appends data to the heap, linking a new page when the tail is full.
func (th *TableHeap) InsertTuple(data []byte) (RID, error) {
	currPageID := th.lastPageID
	for {
		page, err := th.bufferPool.FetchPage(currPageID)
		if err != nil {
			return RID{}, err
		}
		sp := NewSlottedPage(page)

		slot, err := sp.InsertTuple(data)
		if err == nil {
			th.bufferPool.UnpinPage(currPageID, true)
			th.lastPageID = currPageID
			return RID{PageID: currPageID, SlotID: uint32(slot)}, nil
		}
		if !errors.Is(err, ErrPageFull) {
			th.bufferPool.UnpinPage(currPageID, false)
			return RID{}, err
		}

		nextID := sp.NextPageID()
		if nextID != InvalidPageID {
			th.bufferPool.UnpinPage(currPageID, false)
			currPageID = nextID
			continue
		}

		newPage, err := th.bufferPool.NewPage()
		if err != nil {
			th.bufferPool.UnpinPage(currPageID, false)
			return RID{}, err
		}
		NewSlottedPage(newPage).Init()
		sp.SetNextPageID(newPage.ID)
		th.bufferPool.UnpinPage(currPageID, true)
		th.bufferPool.UnpinPage(newPage.ID, true)
		zap.L().Debug("linked heap page",
			zap.Int64("prev", int64(currPageID)), zap.Int64("page", int64(newPage.ID)))
		currPageID = newPage.ID
	}
}

// GetTuple returns a copy of the tuple stored at rid.
func (th *TableHeap) GetTuple(rid RID) ([]byte, error) {
	page, err := th.bufferPool.FetchPage(rid.PageID)
	if err != nil {
		return nil, err
	}
	defer th.bufferPool.UnpinPage(rid.PageID, false)

	data := NewSlottedPage(page).GetTuple(int(rid.SlotID))
	if data == nil {
		return nil, errors.Wrapf(ErrTupleNotFound, "rid %s", rid)
	}
	return append([]byte(nil), data...), nil
}

// Iterator returns an iterator positioned before the first tuple.
func (th *TableHeap) Iterator() *TableIterator {
	it := &TableIterator{tableHeap: th}
	it.Reset()
	return it
}

// TableIterator walks a heap page by page, slot by slot.
type TableIterator struct {
	tableHeap  *TableHeap
	currPageID PageID
	currSlot   int
}

// Reset repositions the iterator before the first tuple of the heap.
func (it *TableIterator) Reset() {
	it.currPageID = it.tableHeap.firstPageID
	it.currSlot = 0
}

// Next returns a copy of the next tuple and its RID, or nil data at the end.
func (it *TableIterator) Next() ([]byte, RID, error) {
	bp := it.tableHeap.bufferPool
	for it.currPageID != InvalidPageID {
		page, err := bp.FetchPage(it.currPageID)
		if err != nil {
			return nil, RID{}, err
		}
		sp := NewSlottedPage(page)

		for it.currSlot < sp.NumSlots() {
			slot := it.currSlot
			it.currSlot++
			if data := sp.GetTuple(slot); data != nil {
				out := append([]byte(nil), data...)
				bp.UnpinPage(it.currPageID, false)
				return out, RID{PageID: it.currPageID, SlotID: uint32(slot)}, nil
			}
		}

		nextID := sp.NextPageID()
		bp.UnpinPage(it.currPageID, false)
		it.currPageID = nextID
		it.currSlot = 0
	}
	return nil, RID{}, nil
}
