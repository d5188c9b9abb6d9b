// Package bptree implements an ordered int32-key index layered entirely on
// the buffer pool: every node is an ordinary page whose bytes are
// reinterpreted through the typed view in this file.
package bptree

import (
	"encoding/binary"

	"github.com/SolieSoftware/db-engine/internal/page"
)

// NodeType distinguishes an internal node (keys are separators, children
// are page ids) from a leaf (keys map to record identifiers).
type NodeType uint8

const (
	InternalType NodeType = 0
	LeafType     NodeType = 1
)

// --- Common header (20 bytes), shared by both node kinds ---
//
//	parentPageID int32  offset 0
//	pageID       int32  offset 4
//	pageType     uint8  offset 8
//	(3 bytes padding)
//	size         int32  offset 12
//	maxSize      int32  offset 16
//
// Leaves extend the header with nextPageID (int32) at offset 20.
//
// Then a key array of exactly maxSize int32s, then a value array: maxSize
// page.RIDs for leaves, or maxSize+1 page.IDs for internal nodes.

const (
	commonHeaderSize   = 20
	leafHeaderSize     = 24
	internalHeaderSize = 20
	ridSize            = 12 // page.ID(4) + SlotNumber(4) + Generation(4)
)

// Node is a typed view over a page's raw bytes.
type Node struct {
	Data []byte
}

func (n Node) ParentPageID() page.ID {
	return page.ID(int32(binary.LittleEndian.Uint32(n.Data[0:4])))
}

func (n Node) SetParentPageID(id page.ID) {
	binary.LittleEndian.PutUint32(n.Data[0:4], uint32(int32(id)))
}

func (n Node) PageID() page.ID {
	return page.ID(int32(binary.LittleEndian.Uint32(n.Data[4:8])))
}

func (n Node) SetPageID(id page.ID) {
	binary.LittleEndian.PutUint32(n.Data[4:8], uint32(int32(id)))
}

func (n Node) Type() NodeType {
	return NodeType(n.Data[8])
}

func (n Node) setType(t NodeType) {
	n.Data[8] = byte(t)
}

func (n Node) IsLeaf() bool {
	return n.Type() == LeafType
}

func (n Node) Size() int32 {
	return int32(binary.LittleEndian.Uint32(n.Data[12:16]))
}

func (n Node) SetSize(size int32) {
	binary.LittleEndian.PutUint32(n.Data[12:16], uint32(size))
}

func (n Node) MaxSize() int32 {
	return int32(binary.LittleEndian.Uint32(n.Data[16:20]))
}

func (n Node) setMaxSize(maxSize int32) {
	binary.LittleEndian.PutUint32(n.Data[16:20], uint32(maxSize))
}

// NextPageID is valid only for leaves: the right-sibling link used for
// range scans. Internal nodes do not store one.
func (n Node) NextPageID() page.ID {
	return page.ID(int32(binary.LittleEndian.Uint32(n.Data[20:24])))
}

func (n Node) SetNextPageID(id page.ID) {
	binary.LittleEndian.PutUint32(n.Data[20:24], uint32(int32(id)))
}

func (n Node) headerSize() int {
	if n.IsLeaf() {
		return leafHeaderSize
	}
	return internalHeaderSize
}

func (n Node) keyOffset(i int) int {
	return n.headerSize() + i*4
}

func (n Node) Key(i int) int32 {
	o := n.keyOffset(i)
	return int32(binary.LittleEndian.Uint32(n.Data[o : o+4]))
}

func (n Node) SetKey(i int, key int32) {
	o := n.keyOffset(i)
	binary.LittleEndian.PutUint32(n.Data[o:o+4], uint32(key))
}

func (n Node) valueArrayOffset() int {
	return n.keyOffset(int(n.MaxSize()))
}

// RID returns leaf value i. Only valid on a leaf node.
func (n Node) RID(i int) page.RID {
	o := n.valueArrayOffset() + i*ridSize
	return page.RID{
		PageID:     page.ID(int32(binary.LittleEndian.Uint32(n.Data[o : o+4]))),
		SlotNumber: int32(binary.LittleEndian.Uint32(n.Data[o+4 : o+8])),
		Generation: binary.LittleEndian.Uint32(n.Data[o+8 : o+12]),
	}
}

func (n Node) SetRID(i int, rid page.RID) {
	o := n.valueArrayOffset() + i*ridSize
	binary.LittleEndian.PutUint32(n.Data[o:o+4], uint32(int32(rid.PageID)))
	binary.LittleEndian.PutUint32(n.Data[o+4:o+8], uint32(rid.SlotNumber))
	binary.LittleEndian.PutUint32(n.Data[o+8:o+12], rid.Generation)
}

// Child returns child page id i. Only valid on an internal node; there are
// Size()+1 live entries.
func (n Node) Child(i int) page.ID {
	o := n.valueArrayOffset() + i*4
	return page.ID(int32(binary.LittleEndian.Uint32(n.Data[o : o+4])))
}

func (n Node) SetChild(i int, id page.ID) {
	o := n.valueArrayOffset() + i*4
	binary.LittleEndian.PutUint32(n.Data[o:o+4], uint32(int32(id)))
}

// InitLeaf zero-configures a freshly allocated page as an empty leaf.
func (n Node) InitLeaf(id, parent page.ID, maxSize int32) {
	n.SetParentPageID(parent)
	n.SetPageID(id)
	n.setType(LeafType)
	n.SetSize(0)
	n.setMaxSize(maxSize)
	n.SetNextPageID(page.InvalidID)
}

// InitInternal zero-configures a freshly allocated page as an empty
// internal node.
func (n Node) InitInternal(id, parent page.ID, maxSize int32) {
	n.SetParentPageID(parent)
	n.SetPageID(id)
	n.setType(InternalType)
	n.SetSize(0)
	n.setMaxSize(maxSize)
}
