// Package buffer implements the buffer pool manager: a fixed-size cache of
// page-sized frames backed by package disk, with LRU-based eviction of
// unpinned frames and write-back of dirty pages.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/SolieSoftware/db-engine/internal/disk"
	"github.com/SolieSoftware/db-engine/internal/page"
	"github.com/SolieSoftware/db-engine/pkg/telemetry"
)

// ErrNoAvailableFrame is returned by FetchPage/NewPage when every frame is
// pinned and none can be evicted.
var ErrNoAvailableFrame = errors.New("buffer: no available frame")

// bgCtx is used for the handful of metric increments that have no request
// context to thread through; none of the configured instruments are
// context-sensitive (no baggage, no span linking).
func bgCtx() context.Context {
	return context.Background()
}

// Manager is the buffer pool manager. It owns a fixed pool of frames,
// a page-id -> frame-id table for resident pages, the inverse frame-id ->
// page-id mapping (tracked independently of the frame's bytes, since the
// page-id's offset within those bytes depends on which typed view —
// slotted page or bptree node — currently owns the frame), a free-frame
// list for frames holding no page (never used, or released by DeletePage
// or a failed FetchPage read), and an LRU Replacer over the unpinned
// subset.
type Manager struct {
	mu sync.Mutex

	disk        *disk.Manager
	frames      []page.Frame
	pageTo      map[page.ID]page.FrameID
	frameToPage []page.ID
	freeList    []page.FrameID
	replacer    *Replacer

	metrics *telemetry.BufferPoolMetrics
	log     *zap.Logger
}

// New constructs a buffer pool of poolSize frames over disk. metrics may be
// nil, in which case pool activity is not reported.
func New(diskManager *disk.Manager, poolSize int, metrics *telemetry.BufferPoolMetrics, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	free := make([]page.FrameID, poolSize)
	for i := range free {
		free[i] = page.FrameID(i)
	}
	frameToPage := make([]page.ID, poolSize)
	for i := range frameToPage {
		frameToPage[i] = page.InvalidID
	}
	return &Manager{
		disk:        diskManager,
		frames:      make([]page.Frame, poolSize),
		pageTo:      make(map[page.ID]page.FrameID, poolSize),
		frameToPage: frameToPage,
		freeList:    free,
		replacer:    NewReplacer(poolSize),
		metrics:     metrics,
		log:         log.With(zap.String("component", "buffer.Manager")),
	}
}

// findVictim returns a frame id ready to hold a new page: either an unused
// frame from the free list, or an unpinned frame evicted via LRU. A dirty
// evicted frame is flushed to disk first; a failure to write it back is
// fatal to the caller's operation, since reusing the frame without the
// write-back would silently drop that page's contents. Returns ok=false if
// no frame is available (not an error: the pool is simply exhausted).
func (m *Manager) findVictim() (page.FrameID, bool, error) {
	if n := len(m.freeList); n > 0 {
		id := m.freeList[0]
		m.freeList = m.freeList[1:]
		return id, true, nil
	}

	frameID, ok := m.replacer.Victim()
	if !ok {
		return 0, false, nil
	}
	frame := &m.frames[frameID]
	oldPageID := m.frameToPage[frameID]
	if frame.Dirty {
		if err := m.disk.WritePage(oldPageID, frame.Data[:]); err != nil {
			return 0, false, fmt.Errorf("buffer: flushing victim page %d before eviction: %w", oldPageID, err)
		}
		if m.metrics != nil {
			m.metrics.DiskWrites.Add(bgCtx(), 1)
		}
	}
	delete(m.pageTo, oldPageID)
	m.frameToPage[frameID] = page.InvalidID
	if m.metrics != nil {
		m.metrics.Evictions.Add(bgCtx(), 1)
	}
	m.log.Debug("evicted frame", zap.Int32("frame_id", int32(frameID)), zap.Int32("old_page_id", int32(oldPageID)))
	return frameID, true, nil
}

// FetchPage pins and returns the data for pageID, loading it from disk into
// a frame if it is not already resident.
func (m *Manager) FetchPage(pageID page.ID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frameID, ok := m.pageTo[pageID]; ok {
		frame := &m.frames[frameID]
		frame.PinCount++
		m.replacer.Pin(frameID)
		if m.metrics != nil {
			m.metrics.Hits.Add(bgCtx(), 1)
		}
		return frame.Data[:], nil
	}

	frameID, ok, err := m.findVictim()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoAvailableFrame
	}
	frame := &m.frames[frameID]
	frame.Reset()
	if err := m.disk.ReadPage(pageID, frame.Data[:]); err != nil {
		m.freeList = append(m.freeList, frameID)
		return nil, fmt.Errorf("buffer: fetching page %d: %w", pageID, err)
	}
	if m.metrics != nil {
		m.metrics.Misses.Add(bgCtx(), 1)
		m.metrics.DiskReads.Add(bgCtx(), 1)
	}
	frame.PinCount = 1
	m.pageTo[pageID] = frameID
	m.frameToPage[frameID] = pageID
	m.log.Debug("fetched page", zap.Int32("page_id", int32(pageID)), zap.Int32("frame_id", int32(frameID)))
	return frame.Data[:], nil
}

// NewPage allocates a fresh page on disk, pins it in a frame, and
// initializes it as an empty slotted page. Returns the new page's id and
// its frame's data.
func (m *Manager) NewPage() (page.ID, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok, err := m.findVictim()
	if err != nil {
		return page.InvalidID, nil, err
	}
	if !ok {
		return page.InvalidID, nil, ErrNoAvailableFrame
	}
	pageID := m.disk.AllocatePage()

	frame := &m.frames[frameID]
	frame.Reset()
	page.NewSlottedPage(frame.Data[:]).Init(pageID)
	frame.PinCount = 1
	frame.Dirty = true
	m.pageTo[pageID] = frameID
	m.frameToPage[frameID] = pageID
	if m.metrics != nil {
		m.metrics.Misses.Add(bgCtx(), 1)
	}
	m.log.Debug("allocated page", zap.Int32("page_id", int32(pageID)), zap.Int32("frame_id", int32(frameID)))
	return pageID, frame.Data[:], nil
}

// UnpinPage decrements pageID's pin count. isDirty is OR'd into the frame's
// dirty flag so a previous writer's flag is never lost by a later read-only
// unpin. Once the pin count reaches zero the frame becomes eligible for
// eviction.
func (m *Manager) UnpinPage(pageID page.ID, isDirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.pageTo[pageID]
	if !ok {
		return fmt.Errorf("buffer: unpin of non-resident page %d", pageID)
	}
	frame := &m.frames[frameID]
	if isDirty {
		frame.Dirty = true
	}
	if frame.PinCount <= 0 {
		return fmt.Errorf("buffer: page %d is not pinned", pageID)
	}
	frame.PinCount--
	if frame.PinCount == 0 {
		m.replacer.Unpin(frameID)
	}
	return nil
}

// FlushPage writes a resident page's frame to disk if it is dirty, and
// clears its dirty flag. Flushing a clean page is a successful no-op.
func (m *Manager) FlushPage(pageID page.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushLocked(pageID)
}

func (m *Manager) flushLocked(pageID page.ID) error {
	frameID, ok := m.pageTo[pageID]
	if !ok {
		return fmt.Errorf("buffer: flush of non-resident page %d", pageID)
	}
	frame := &m.frames[frameID]
	if !frame.Dirty {
		return nil
	}
	if err := m.disk.WritePage(pageID, frame.Data[:]); err != nil {
		return fmt.Errorf("buffer: flushing page %d: %w", pageID, err)
	}
	frame.Dirty = false
	if m.metrics != nil {
		m.metrics.DiskWrites.Add(bgCtx(), 1)
	}
	return nil
}

// FlushAllPages writes every resident page whose dirty flag is set to disk,
// stopping at the first error.
func (m *Manager) FlushAllPages() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pageID := range m.pageTo {
		if err := m.flushLocked(pageID); err != nil {
			return err
		}
	}
	return nil
}

// PoolSize returns the total number of frames in the pool.
func (m *Manager) PoolSize() int {
	return len(m.frames)
}

// ResidentPages returns the number of frames currently holding a page.
func (m *Manager) ResidentPages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pageTo)
}

// DeletePage removes pageID from the buffer pool and deallocates it on
// disk. Refuses while the page is pinned.
func (m *Manager) DeletePage(pageID page.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, ok := m.pageTo[pageID]
	if !ok {
		m.disk.DeallocatePage(pageID)
		return nil
	}
	frame := &m.frames[frameID]
	if frame.PinCount > 0 {
		return fmt.Errorf("buffer: page %d is pinned, cannot delete", pageID)
	}
	m.replacer.Pin(frameID) // remove from eviction candidacy before reuse
	delete(m.pageTo, pageID)
	m.frameToPage[frameID] = page.InvalidID
	frame.Reset()
	m.freeList = append(m.freeList, frameID)
	m.disk.DeallocatePage(pageID)
	return nil
}
