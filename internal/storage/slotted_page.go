package storage

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Slotted page layout:
//
//	[0, 8)    next page id (int64), links the pages of a table heap
//	[8, 10)   number of slots (uint16)
//	[10, 12)  free space pointer (uint16), tuple data grows down from PageSize
//	[12, ...) slot array of {offset uint16, length uint16}
const (
	OffsetNextPageID = 0
	OffsetNumSlots   = 8
	OffsetFreeSpace  = 10
	SizeOfHeader     = 12
	SizeOfSlot       = 4

	// MaxTupleSize is the largest tuple an empty page can hold.
	MaxTupleSize = PageSize - SizeOfHeader - SizeOfSlot
)

// SlottedPage is a view over a Page storing variable-length tuples.
type SlottedPage struct {
	page *Page
}

// NewSlottedPage wraps page, initializing the header of a zeroed page.
func NewSlottedPage(page *Page) *SlottedPage {
	sp := &SlottedPage{page: page}
	if sp.NumSlots() == 0 && sp.freeSpacePointer() == 0 {
		sp.setFreeSpacePointer(PageSize)
	}
	return sp
}

// Init formats the page as an empty slotted page with no successor.
func (sp *SlottedPage) Init() {
	sp.page.Reset()
	sp.setFreeSpacePointer(PageSize)
	sp.SetNextPageID(InvalidPageID)
}

func (sp *SlottedPage) NextPageID() PageID {
	return PageID(int64(binary.BigEndian.Uint64(sp.page.Data[OffsetNextPageID:])))
}

func (sp *SlottedPage) SetNextPageID(pid PageID) {
	binary.BigEndian.PutUint64(sp.page.Data[OffsetNextPageID:], uint64(pid))
}

func (sp *SlottedPage) NumSlots() int {
	return int(binary.BigEndian.Uint16(sp.page.Data[OffsetNumSlots:]))
}

func (sp *SlottedPage) setNumSlots(n int) {
	binary.BigEndian.PutUint16(sp.page.Data[OffsetNumSlots:], uint16(n))
}

func (sp *SlottedPage) freeSpacePointer() int {
	return int(binary.BigEndian.Uint16(sp.page.Data[OffsetFreeSpace:]))
}

func (sp *SlottedPage) setFreeSpacePointer(ptr int) {
	binary.BigEndian.PutUint16(sp.page.Data[OffsetFreeSpace:], uint16(ptr))
}

func (sp *SlottedPage) slot(idx int) (offset, length int) {
	pos := SizeOfHeader + idx*SizeOfSlot
	offset = int(binary.BigEndian.Uint16(sp.page.Data[pos:]))
	length = int(binary.BigEndian.Uint16(sp.page.Data[pos+2:]))
	return offset, length
}

func (sp *SlottedPage) setSlot(idx, offset, length int) {
	pos := SizeOfHeader + idx*SizeOfSlot
	binary.BigEndian.PutUint16(sp.page.Data[pos:], uint16(offset))
	binary.BigEndian.PutUint16(sp.page.Data[pos+2:], uint16(length))
}

// FreeSpace is the number of bytes available for one more tuple, slot
// entry included.
func (sp *SlottedPage) FreeSpace() int {
	return sp.freeSpacePointer() - (SizeOfHeader + sp.NumSlots()*SizeOfSlot)
}

// InsertTuple appends data to the page and returns its slot index.
func (sp *SlottedPage) InsertTuple(data []byte) (int, error) {
	if len(data) == 0 {
		return -1, errors.New("cannot insert an empty tuple")
	}
	if len(data) > MaxTupleSize {
		return -1, errors.Wrapf(ErrTupleTooLarge, "%d bytes", len(data))
	}
	if sp.FreeSpace() < SizeOfSlot+len(data) {
		return -1, ErrPageFull
	}

	slotIdx := sp.NumSlots()
	offset := sp.freeSpacePointer() - len(data)
	copy(sp.page.Data[offset:], data)
	sp.setFreeSpacePointer(offset)
	sp.setSlot(slotIdx, offset, len(data))
	sp.setNumSlots(slotIdx + 1)
	return slotIdx, nil
}

// GetTuple returns the bytes stored in slot idx, aliasing the page. It
// returns nil for an empty or out of range slot.
func (sp *SlottedPage) GetTuple(idx int) []byte {
	if idx < 0 || idx >= sp.NumSlots() {
		return nil
	}
	offset, length := sp.slot(idx)
	if length == 0 {
		return nil
	}
	return sp.page.Data[offset : offset+length]
}
