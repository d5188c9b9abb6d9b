// Package page defines the fixed-size byte buffer that is the unit of
// disk I/O and buffer management, plus the slotted-page typed view used
// for variable-length record storage. The B+ tree node typed view lives
// in package bptree and reinterprets the same raw bytes.
package page

import "encoding/binary"

// Size is the fixed size, in bytes, of every page and every buffer frame.
const Size = 4096

// ID identifies a page on disk. -1 denotes "no page".
type ID int32

// InvalidID is the sentinel page id meaning "no page".
const InvalidID ID = -1

// FrameID identifies a slot in the buffer pool, not a page.
type FrameID int32

// RID (Record Identifier) names a single record within a heap file.
// Generation is bumped whenever the slot is reused after a delete, so a
// caller holding a stale RID can detect that the slot was recycled.
type RID struct {
	PageID     ID
	SlotNumber int32
	Generation uint32
}

// Valid reports whether the RID could plausibly name a live record.
func (r RID) Valid() bool {
	return r.PageID >= 0 && r.SlotNumber >= 0
}

// Frame is the raw byte buffer backing one buffer-pool slot. It does not
// record which page is resident in it (the buffer pool tracks that); its
// bytes are read through whichever typed view (SlottedPage, bptree node
// header) the caller chooses.
type Frame struct {
	Data     [Size]byte
	PinCount int
	Dirty    bool
}

// Reset clears a frame's contents and metadata so it can be reused for a
// different page.
func (f *Frame) Reset() {
	for i := range f.Data {
		f.Data[i] = 0
	}
	f.PinCount = 0
	f.Dirty = false
}

// --- Slotted-page layout (record storage) ---
//
// Header (10 bytes, offset 0):
//
//	numSlots     uint16  offset 0
//	numRecords   uint16  offset 2
//	freeSpacePtr uint16  offset 4
//	pageID       int32   offset 6
//
// The slot directory grows forward from headerSize; each slot is 6 bytes:
//
//	recordOffset uint16
//	recordSize   uint16  (0 marks a tombstone)
//	generation   uint16
//
// Record bytes grow backward from Size. A tombstoned slot is preferentially
// reused on the next insert, bumping its generation so a stale RID can be
// told apart from the record that now occupies the slot.

const (
	headerSize = 10
	slotSize   = 6
)

// SlottedPage is a typed view over a Frame's bytes for record storage.
type SlottedPage struct {
	Data []byte
}

// NewSlottedPage wraps frame data with the slotted-page view.
func NewSlottedPage(data []byte) SlottedPage {
	return SlottedPage{Data: data}
}

// Init zero-fills the header of a freshly allocated page and stamps its id.
func (p SlottedPage) Init(id ID) {
	p.SetNumSlots(0)
	p.SetNumRecords(0)
	p.SetFreeSpacePointer(Size)
	p.SetPageID(id)
}

func (p SlottedPage) NumSlots() uint16 {
	return binary.LittleEndian.Uint16(p.Data[0:2])
}

func (p SlottedPage) SetNumSlots(n uint16) {
	binary.LittleEndian.PutUint16(p.Data[0:2], n)
}

func (p SlottedPage) NumRecords() uint16 {
	return binary.LittleEndian.Uint16(p.Data[2:4])
}

func (p SlottedPage) SetNumRecords(n uint16) {
	binary.LittleEndian.PutUint16(p.Data[2:4], n)
}

func (p SlottedPage) FreeSpacePointer() uint16 {
	return binary.LittleEndian.Uint16(p.Data[4:6])
}

func (p SlottedPage) SetFreeSpacePointer(off uint16) {
	binary.LittleEndian.PutUint16(p.Data[4:6], off)
}

func (p SlottedPage) PageID() ID {
	return ID(int32(binary.LittleEndian.Uint32(p.Data[6:10])))
}

func (p SlottedPage) SetPageID(id ID) {
	binary.LittleEndian.PutUint32(p.Data[6:10], uint32(int32(id)))
}

func slotOffset(idx uint16) int {
	return headerSize + int(idx)*slotSize
}

func (p SlottedPage) slotAt(idx uint16) (recOffset, recSize, generation uint16) {
	o := slotOffset(idx)
	return binary.LittleEndian.Uint16(p.Data[o : o+2]),
		binary.LittleEndian.Uint16(p.Data[o+2 : o+4]),
		binary.LittleEndian.Uint16(p.Data[o+4 : o+6])
}

func (p SlottedPage) setSlotAt(idx uint16, recOffset, recSize, generation uint16) {
	o := slotOffset(idx)
	binary.LittleEndian.PutUint16(p.Data[o:o+2], recOffset)
	binary.LittleEndian.PutUint16(p.Data[o+2:o+4], recSize)
	binary.LittleEndian.PutUint16(p.Data[o+4:o+6], generation)
}

// FreeSpace returns the number of bytes available for a new slot plus its
// record bytes, honoring the invariant that the slot directory and the
// record area may not overlap.
func (p SlottedPage) FreeSpace() int {
	dirEnd := headerSize + int(p.NumSlots())*slotSize
	return int(p.FreeSpacePointer()) - dirEnd
}

// findTombstone returns the index of a reusable tombstone slot, if any.
func (p SlottedPage) findTombstone() (uint16, bool) {
	n := p.NumSlots()
	for i := uint16(0); i < n; i++ {
		_, size, _ := p.slotAt(i)
		if size == 0 {
			return i, true
		}
	}
	return 0, false
}

// InsertRecord appends record bytes to the page, reusing a tombstoned slot
// when one exists. Returns the new slot number and the record's generation,
// or ok=false if there is not enough free space.
func (p SlottedPage) InsertRecord(record []byte) (slot uint16, generation uint32, ok bool) {
	size := uint16(len(record))

	if idx, found := p.findTombstone(); found {
		if p.FreeSpace() < int(size) {
			return 0, 0, false
		}
		_, _, gen := p.slotAt(idx)
		gen++
		newOffset := p.FreeSpacePointer() - size
		copy(p.Data[newOffset:newOffset+size], record)
		p.setSlotAt(idx, newOffset, size, gen)
		p.SetFreeSpacePointer(newOffset)
		p.SetNumRecords(p.NumRecords() + 1)
		return idx, uint32(gen), true
	}

	if p.FreeSpace() < int(size)+slotSize {
		return 0, 0, false
	}
	idx := p.NumSlots()
	newOffset := p.FreeSpacePointer() - size
	copy(p.Data[newOffset:newOffset+size], record)
	p.setSlotAt(idx, newOffset, size, 0)
	p.SetNumSlots(idx + 1)
	p.SetFreeSpacePointer(newOffset)
	p.SetNumRecords(p.NumRecords() + 1)
	return idx, 0, true
}

// GetRecord returns the bytes for slot idx, or ok=false if the slot is a
// tombstone or out of range.
func (p SlottedPage) GetRecord(idx uint16) (data []byte, ok bool) {
	if idx >= p.NumSlots() {
		return nil, false
	}
	offset, size, _ := p.slotAt(idx)
	if size == 0 {
		return nil, false
	}
	return p.Data[offset : offset+size], true
}

// Generation reports the current generation stamp of slot idx.
func (p SlottedPage) Generation(idx uint16) (uint32, bool) {
	if idx >= p.NumSlots() {
		return 0, false
	}
	_, _, gen := p.slotAt(idx)
	return uint32(gen), true
}

// DeleteRecord tombstones slot idx: its size is zeroed so the slot can be
// reused, bumping the generation on next reuse via InsertRecord.
func (p SlottedPage) DeleteRecord(idx uint16) bool {
	if idx >= p.NumSlots() {
		return false
	}
	offset, size, gen := p.slotAt(idx)
	if size == 0 {
		return false
	}
	p.setSlotAt(idx, offset, 0, gen)
	p.SetNumRecords(p.NumRecords() - 1)
	return true
}

// UpdateRecord overwrites slot idx's bytes in place when the new record is
// no larger than the old one; otherwise the caller must delete and
// re-insert (the slotted page never compacts in place).
func (p SlottedPage) UpdateRecord(idx uint16, record []byte) bool {
	if idx >= p.NumSlots() {
		return false
	}
	offset, size, gen := p.slotAt(idx)
	if size == 0 || len(record) > int(size) {
		return false
	}
	copy(p.Data[offset:offset+uint16(len(record))], record)
	p.setSlotAt(idx, offset, uint16(len(record)), gen)
	return true
}
