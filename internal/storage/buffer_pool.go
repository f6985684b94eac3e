package storage

import (
	"container/list"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// BufferPool caches pages in memory. Fetched pages are pinned and must be
// released with UnpinPage; only unpinned pages are eviction candidates, and
// the least recently unpinned one goes first.
type BufferPool struct {
	mu          sync.Mutex
	diskManager *DiskManager
	capacity    int
	pages       map[PageID]*Page
	// lru holds the PageIDs of unpinned pages, front = least recently used.
	lru      *list.List
	lruElems map[PageID]*list.Element
}

// NewBufferPool creates a buffer pool holding at most capacity pages.
func NewBufferPool(capacity int, diskManager *DiskManager) *BufferPool {
	return &BufferPool{
		diskManager: diskManager,
		capacity:    capacity,
		pages:       make(map[PageID]*Page, capacity),
		lru:         list.New(),
		lruElems:    make(map[PageID]*list.Element, capacity),
	}
}

// FetchPage returns the requested page, reading it from disk on a miss.
// The returned page is pinned.
func (bp *BufferPool) FetchPage(pageID PageID) (*Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if page, ok := bp.pages[pageID]; ok {
		bp.pin(page)
		return page, nil
	}
	if err := bp.makeRoom(); err != nil {
		return nil, err
	}

	page := NewPage(pageID)
	if err := bp.diskManager.ReadPage(pageID, page); err != nil {
		return nil, err
	}
	page.PinCount = 1
	bp.pages[pageID] = page
	return page, nil
}

// NewPage allocates a page on disk and returns it pinned.
func (bp *BufferPool) NewPage() (*Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if err := bp.makeRoom(); err != nil {
		return nil, err
	}
	pageID, err := bp.diskManager.AllocatePage()
	if err != nil {
		return nil, err
	}
	page := NewPage(pageID)
	page.PinCount = 1
	bp.pages[pageID] = page
	return page, nil
}

// UnpinPage releases one pin on the page and marks it dirty if isDirty.
func (bp *BufferPool) UnpinPage(pageID PageID, isDirty bool) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	page, ok := bp.pages[pageID]
	if !ok {
		return
	}
	if isDirty {
		page.IsDirty = true
	}
	if page.PinCount == 0 {
		return
	}
	page.PinCount--
	if page.PinCount == 0 {
		bp.lruElems[pageID] = bp.lru.PushBack(pageID)
	}
}

// FlushPage writes the page to disk if it is dirty.
func (bp *BufferPool) FlushPage(pageID PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.flushPage(pageID)
}

// FlushAll writes every dirty page to disk.
func (bp *BufferPool) FlushAll() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for id := range bp.pages {
		if err := bp.flushPage(id); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of cached pages.
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

func (bp *BufferPool) pin(page *Page) {
	if page.PinCount == 0 {
		if elem, ok := bp.lruElems[page.ID]; ok {
			bp.lru.Remove(elem)
			delete(bp.lruElems, page.ID)
		}
	}
	page.PinCount++
}

func (bp *BufferPool) flushPage(pageID PageID) error {
	page, ok := bp.pages[pageID]
	if !ok || !page.IsDirty {
		return nil
	}
	if err := bp.diskManager.WritePage(page); err != nil {
		return err
	}
	page.IsDirty = false
	return nil
}

// makeRoom evicts the least recently used unpinned page if the pool is full.
func (bp *BufferPool) makeRoom() error {
	if len(bp.pages) < bp.capacity {
		return nil
	}
	front := bp.lru.Front()
	if front == nil {
		return errors.Wrapf(ErrAllPinned, "buffer pool full (%d pages)", bp.capacity)
	}
	victim := front.Value.(PageID)
	if err := bp.flushPage(victim); err != nil {
		return err
	}
	bp.lru.Remove(front)
	delete(bp.lruElems, victim)
	delete(bp.pages, victim)
	zap.L().Debug("evicted page", zap.Int64("page", int64(victim)))
	return nil
}
