package storage

import (
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DiskManager reads and writes fixed-size pages of a single database file.
type DiskManager struct {
	mu       sync.RWMutex
	file     *os.File
	fileName string
	numPages int64
}

// NewDiskManager creates or opens the database file.
func NewDiskManager(fileName string) (*DiskManager, error) {
	file, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file %s", fileName)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "stat db file %s", fileName)
	}
	return &DiskManager{
		file:     file,
		fileName: fileName,
		numPages: info.Size() / PageSize,
	}, nil
}

// FileName returns the path of the underlying file.
func (d *DiskManager) FileName() string {
	return d.fileName
}

// NumPages returns the number of pages allocated in the file.
func (d *DiskManager) NumPages() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.numPages
}

// Close closes the underlying file.
func (d *DiskManager) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return errors.Wrap(d.file.Close(), "closing db file")
}

// AllocatePage extends the file by one zeroed page and returns its ID.
func (d *DiskManager) AllocatePage() (PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pid := PageID(d.numPages)
	var empty [PageSize]byte
	if _, err := d.file.WriteAt(empty[:], int64(pid)*PageSize); err != nil {
		return InvalidPageID, errors.Wrapf(err, "allocating page %d", pid)
	}
	d.numPages++
	zap.L().Debug("allocated page", zap.String("file", d.fileName), zap.Int64("page", int64(pid)))
	return pid, nil
}

// WritePage writes the page data to disk.
func (d *DiskManager) WritePage(page *Page) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.WriteAt(page.Data[:], int64(page.ID)*PageSize); err != nil {
		return errors.Wrapf(err, "writing page %d", page.ID)
	}
	return nil
}

// ReadPage reads page pageID from disk into page.
func (d *DiskManager) ReadPage(pageID PageID, page *Page) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if pageID < 0 || int64(pageID) >= d.numPages {
		return errors.Newf("page %d out of range [0, %d)", pageID, d.numPages)
	}
	n, err := d.file.ReadAt(page.Data[:], int64(pageID)*PageSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "reading page %d", pageID)
	}
	// A short read at the end of the file leaves stale bytes behind.
	clear(page.Data[n:])
	page.ID = pageID
	return nil
}
