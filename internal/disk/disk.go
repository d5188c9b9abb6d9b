// Package disk owns the single database file that backs the storage
// engine: page-granular I/O plus page-id allocation and free-list reuse.
package disk

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SolieSoftware/db-engine/internal/page"
)

var (
	// ErrIO wraps any failure opening, reading or writing the database file.
	ErrIO = errors.New("disk: i/o error")
	// ErrOutOfRange is returned by ReadPage for a page id at or beyond the
	// current high-water mark; it is a programmer error, not an I/O fault.
	ErrOutOfRange = errors.New("disk: page id out of range")
)

// Manager owns a single database file carved into page.Size-byte pages.
// Allocation is monotonic unless the free-list has an entry, which is
// reused LIFO. The free-list lives only in memory: a process restart loses
// track of previously-freed page ids, which remain allocated-but-unused
// holes in the file (see DESIGN.md's open-question ledger).
type Manager struct {
	mu        sync.Mutex
	file      *os.File
	numPages  int32
	freeList  []page.ID
	sessionID string
	log       *zap.Logger
}

// Open creates the file at path if it does not exist, opens it for random
// access, and measures the current page high-water mark from its size.
// Truncated tail bytes (a partial final page) are treated as non-existent.
func Open(path string, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}
	session := uuid.NewString()
	m := &Manager{
		file:      f,
		numPages:  int32(info.Size() / page.Size),
		sessionID: session,
		log:       log.With(zap.String("component", "disk.Manager"), zap.String("session", session)),
	}
	m.log.Debug("opened database file", zap.String("path", path), zap.Int32("num_pages", m.numPages))
	return m, nil
}

// Close closes the underlying file. It does not sync; WritePage has already
// synced every write.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// GetNumPages returns the current page high-water mark.
func (m *Manager) GetNumPages() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numPages
}

// ReadPage reads exactly page.Size bytes for pageID into out, which must
// have length page.Size.
func (m *Manager) ReadPage(pageID page.ID, out []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pageID < 0 || int32(pageID) >= m.numPages {
		return fmt.Errorf("%w: page %d (num_pages=%d)", ErrOutOfRange, pageID, m.numPages)
	}
	if len(out) != page.Size {
		return fmt.Errorf("%w: read buffer is %d bytes, want %d", ErrIO, len(out), page.Size)
	}
	offset := int64(pageID) * int64(page.Size)
	n, err := m.file.ReadAt(out, offset)
	if err != nil {
		return fmt.Errorf("%w: reading page %d: %v", ErrIO, pageID, err)
	}
	if n != page.Size {
		return fmt.Errorf("%w: short read for page %d: got %d bytes", ErrIO, pageID, n)
	}
	return nil
}

// WritePage writes exactly page.Size bytes of data to pageID's slot,
// extending the file if necessary, and flushes to the OS.
func (m *Manager) WritePage(pageID page.ID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(data) != page.Size {
		return fmt.Errorf("%w: write buffer is %d bytes, want %d", ErrIO, len(data), page.Size)
	}
	offset := int64(pageID) * int64(page.Size)
	if _, err := m.file.WriteAt(data, offset); err != nil {
		return fmt.Errorf("%w: writing page %d: %v", ErrIO, pageID, err)
	}
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("%w: syncing page %d: %v", ErrIO, pageID, err)
	}
	if int32(pageID)+1 > m.numPages {
		m.numPages = int32(pageID) + 1
	}
	return nil
}

// AllocatePage returns a free-list entry if one exists (LIFO), otherwise
// bumps the high-water mark. It does not touch the file; the caller is
// expected to overwrite the page before any subsequent read.
func (m *Manager) AllocatePage() page.ID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.freeList); n > 0 {
		id := m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
		m.log.Debug("allocated page from free list", zap.Int32("page_id", int32(id)))
		return id
	}
	id := page.ID(m.numPages)
	m.numPages++
	m.log.Debug("allocated new page", zap.Int32("page_id", int32(id)))
	return id
}

// DeallocatePage pushes pageID onto the free list for later LIFO reuse. A
// page id outside [0, numPages) is silently ignored.
func (m *Manager) DeallocatePage(pageID page.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pageID < 0 || int32(pageID) >= m.numPages {
		return
	}
	m.freeList = append(m.freeList, pageID)
	m.log.Debug("deallocated page", zap.Int32("page_id", int32(pageID)))
}
