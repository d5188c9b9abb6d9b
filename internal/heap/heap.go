// Package heap implements the heap file: unordered record storage built
// directly on the buffer pool's slotted-page operations, used to back a
// catalog table's rows.
package heap

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SolieSoftware/db-engine/internal/buffer"
	"github.com/SolieSoftware/db-engine/internal/page"
)

// ErrRecordNotFound is returned when a RID names a slot with no live
// record, either because it was deleted or never existed.
var ErrRecordNotFound = errors.New("heap: record not found")

// File is a heap file: a chain of slotted pages with no particular record
// order. Scans iterate by page-id range rather than by a forward link.
type File struct {
	bpm          *buffer.Manager
	firstPageID  page.ID
	lastPageID   page.ID
	log          *zap.Logger
}

// Create allocates the heap file's first page and returns a File over it.
func Create(bpm *buffer.Manager, log *zap.Logger) (*File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	id, data, err := bpm.NewPage()
	if err != nil {
		return nil, fmt.Errorf("heap: allocating first page: %w", err)
	}
	page.NewSlottedPage(data).Init(id)
	if err := bpm.UnpinPage(id, true); err != nil {
		return nil, err
	}
	return &File{
		bpm:         bpm,
		firstPageID: id,
		lastPageID:  id,
		log:         log.With(zap.String("component", "heap.File")),
	}, nil
}

// Open wraps an existing page range (e.g. recorded by a catalog) as a
// File, without touching its contents.
func Open(bpm *buffer.Manager, firstPageID, lastPageID page.ID, log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}
	return &File{
		bpm:         bpm,
		firstPageID: firstPageID,
		lastPageID:  lastPageID,
		log:         log.With(zap.String("component", "heap.File")),
	}
}

func (f *File) FirstPageID() page.ID { return f.firstPageID }
func (f *File) LastPageID() page.ID  { return f.lastPageID }

// Insert stores record, trying the last page first and allocating a new
// last page if it is full. Chaining via a forward link is not required:
// scans iterate by page-id range.
func (f *File) Insert(record []byte) (page.RID, error) {
	data, err := f.bpm.FetchPage(f.lastPageID)
	if err != nil {
		return page.RID{}, fmt.Errorf("heap: fetching last page: %w", err)
	}
	sp := page.NewSlottedPage(data)
	if slot, gen, ok := sp.InsertRecord(record); ok {
		if err := f.bpm.UnpinPage(f.lastPageID, true); err != nil {
			return page.RID{}, err
		}
		return page.RID{PageID: f.lastPageID, SlotNumber: int32(slot), Generation: gen}, nil
	}
	if err := f.bpm.UnpinPage(f.lastPageID, false); err != nil {
		return page.RID{}, err
	}

	newID, newData, err := f.bpm.NewPage()
	if err != nil {
		return page.RID{}, fmt.Errorf("heap: allocating new last page: %w", err)
	}
	newSP := page.NewSlottedPage(newData)
	newSP.Init(newID)
	slot, gen, ok := newSP.InsertRecord(record)
	if !ok {
		f.bpm.UnpinPage(newID, false)
		return page.RID{}, fmt.Errorf("heap: record of %d bytes does not fit in an empty page", len(record))
	}
	f.lastPageID = newID
	if err := f.bpm.UnpinPage(newID, true); err != nil {
		return page.RID{}, err
	}
	return page.RID{PageID: newID, SlotNumber: int32(slot), Generation: gen}, nil
}

// Get returns a copy of the record named by rid; the returned slice does
// not alias the page's frame.
func (f *File) Get(rid page.RID) ([]byte, error) {
	data, err := f.bpm.FetchPage(rid.PageID)
	if err != nil {
		return nil, fmt.Errorf("heap: fetching page %d: %w", rid.PageID, err)
	}
	defer f.bpm.UnpinPage(rid.PageID, false)

	sp := page.NewSlottedPage(data)
	gen, ok := sp.Generation(uint16(rid.SlotNumber))
	if !ok || gen != rid.Generation {
		return nil, ErrRecordNotFound
	}
	record, ok := sp.GetRecord(uint16(rid.SlotNumber))
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := make([]byte, len(record))
	copy(out, record)
	return out, nil
}

// Update overwrites rid's record in place. Fails (without allocating a new
// slot) if the new record is larger than the old one; the caller should
// Delete and re-Insert in that case.
func (f *File) Update(rid page.RID, record []byte) error {
	data, err := f.bpm.FetchPage(rid.PageID)
	if err != nil {
		return fmt.Errorf("heap: fetching page %d: %w", rid.PageID, err)
	}
	sp := page.NewSlottedPage(data)
	gen, ok := sp.Generation(uint16(rid.SlotNumber))
	if !ok || gen != rid.Generation {
		f.bpm.UnpinPage(rid.PageID, false)
		return ErrRecordNotFound
	}
	if !sp.UpdateRecord(uint16(rid.SlotNumber), record) {
		f.bpm.UnpinPage(rid.PageID, false)
		return fmt.Errorf("heap: record of %d bytes does not fit in slot %d in place", len(record), rid.SlotNumber)
	}
	return f.bpm.UnpinPage(rid.PageID, true)
}

// Delete tombstones rid's slot.
func (f *File) Delete(rid page.RID) error {
	data, err := f.bpm.FetchPage(rid.PageID)
	if err != nil {
		return fmt.Errorf("heap: fetching page %d: %w", rid.PageID, err)
	}
	sp := page.NewSlottedPage(data)
	gen, ok := sp.Generation(uint16(rid.SlotNumber))
	if !ok || gen != rid.Generation {
		f.bpm.UnpinPage(rid.PageID, false)
		return ErrRecordNotFound
	}
	if !sp.DeleteRecord(uint16(rid.SlotNumber)) {
		f.bpm.UnpinPage(rid.PageID, false)
		return ErrRecordNotFound
	}
	return f.bpm.UnpinPage(rid.PageID, true)
}

// Iterator walks every live record in the heap file, page by page in
// first-to-last page-id order.
type Iterator struct {
	file       *File
	curPageID  page.ID
	curSlot    uint16
	done       bool
}

// NewIterator returns an Iterator positioned before the first record.
func (f *File) NewIterator() *Iterator {
	return &Iterator{file: f, curPageID: f.firstPageID, curSlot: 0}
}

// Next advances to the next live record, returning its RID and bytes, or
// ok=false once every page through lastPageID has been exhausted.
func (it *Iterator) Next() (page.RID, []byte, bool, error) {
	if it.done {
		return page.RID{}, nil, false, nil
	}
	for {
		data, err := it.file.bpm.FetchPage(it.curPageID)
		if err != nil {
			return page.RID{}, nil, false, fmt.Errorf("heap: fetching page %d during scan: %w", it.curPageID, err)
		}
		sp := page.NewSlottedPage(data)
		numSlots := sp.NumSlots()

		for it.curSlot < numSlots {
			slot := it.curSlot
			it.curSlot++
			record, ok := sp.GetRecord(slot)
			if !ok {
				continue
			}
			gen, _ := sp.Generation(slot)
			out := make([]byte, len(record))
			copy(out, record)
			rid := page.RID{PageID: it.curPageID, SlotNumber: int32(slot), Generation: gen}
			if err := it.file.bpm.UnpinPage(it.curPageID, false); err != nil {
				return page.RID{}, nil, false, err
			}
			return rid, out, true, nil
		}

		if err := it.file.bpm.UnpinPage(it.curPageID, false); err != nil {
			return page.RID{}, nil, false, err
		}
		if it.curPageID >= it.file.lastPageID {
			it.done = true
			return page.RID{}, nil, false, nil
		}
		it.curPageID++
		it.curSlot = 0
	}
}
