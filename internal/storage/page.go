package storage

import "fmt"

const PageSize = 4096

// PageID identifies a page by its position in the database file.
type PageID int64

// InvalidPageID terminates page chains and asks constructors to allocate.
const InvalidPageID PageID = -1

// RID is a record id: a slot on a page.
type RID struct {
	PageID PageID
	SlotID uint32
}

func (r RID) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageID, r.SlotID)
}

// Page is a fixed-size block of data cached by the buffer pool.
type Page struct {
	ID       PageID
	PinCount int32
	IsDirty  bool
	Data     [PageSize]byte
}

// NewPage creates a new empty page with the given ID.
func NewPage(id PageID) *Page {
	return &Page{ID: id}
}

// GetData returns the byte slice of the page data.
func (p *Page) GetData() []byte {
	return p.Data[:]
}

// Copy copies data into the page.
func (p *Page) Copy(data []byte) {
	copy(p.Data[:], data)
}

// Reset zeroes the page contents.
func (p *Page) Reset() {
	p.Data = [PageSize]byte{}
}
