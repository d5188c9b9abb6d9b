package bptree

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SolieSoftware/db-engine/internal/buffer"
	"github.com/SolieSoftware/db-engine/internal/page"
)

var (
	// ErrKeyNotFound is returned by Delete when the key is absent.
	ErrKeyNotFound = errors.New("bptree: key not found")
	// ErrDuplicateKey is returned by Insert when the key is already present.
	// The specification leaves duplicate-key handling open; this
	// implementation resolves it by rejecting the insert outright.
	ErrDuplicateKey = errors.New("bptree: duplicate key")
)

// BTree is an ordered map from int32 key to page.RID, built entirely out of
// buffer-pool pin/fetch/unpin calls over page.Size-byte pages.
type BTree struct {
	bpm        *buffer.Manager
	rootPageID page.ID
	maxSize    int32
	log        *zap.Logger
}

// NewBTree allocates a fresh root page (an empty leaf) and returns a tree
// over it. maxSize bounds how many keys a node may hold before it splits.
func NewBTree(bpm *buffer.Manager, maxSize int32, log *zap.Logger) (*BTree, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rootID, data, err := bpm.NewPage()
	if err != nil {
		return nil, fmt.Errorf("bptree: allocating root: %w", err)
	}
	Node{Data: data}.InitLeaf(rootID, page.InvalidID, maxSize)
	if err := bpm.UnpinPage(rootID, true); err != nil {
		return nil, err
	}
	return &BTree{
		bpm:        bpm,
		rootPageID: rootID,
		maxSize:    maxSize,
		log:        log.With(zap.String("component", "bptree.BTree")),
	}, nil
}

// OpenBTree wraps an existing root page (e.g. one recorded by a catalog)
// as a tree, without touching its contents.
func OpenBTree(bpm *buffer.Manager, rootPageID page.ID, maxSize int32, log *zap.Logger) *BTree {
	if log == nil {
		log = zap.NewNop()
	}
	return &BTree{
		bpm:        bpm,
		rootPageID: rootPageID,
		maxSize:    maxSize,
		log:        log.With(zap.String("component", "bptree.BTree")),
	}
}

// RootPageID reports the current root, which changes across splits and
// merges; callers persisting it (e.g. a catalog) must re-read it after
// every mutating call.
func (t *BTree) RootPageID() page.ID {
	return t.rootPageID
}

func (t *BTree) minSize() int32 {
	return (t.maxSize + 1) / 2
}

// upperBound returns the number of keys in node that are <= key: the
// number of keys strictly less than or equal, i.e. the index of the first
// key greater than key. Used for internal-node descent, since separator
// keys are copies of their right child's first key.
func upperBound(node Node, key int32) int {
	size := int(node.Size())
	i := 0
	for i < size && node.Key(i) <= key {
		i++
	}
	return i
}

// lowerBound returns the index of the first key >= key.
func lowerBound(node Node, key int32) int {
	size := int(node.Size())
	i := 0
	for i < size && node.Key(i) < key {
		i++
	}
	return i
}

func findChildIndex(node Node, childID page.ID) int {
	n := int(node.Size()) + 1
	for i := 0; i < n; i++ {
		if node.Child(i) == childID {
			return i
		}
	}
	return -1
}

// findLeaf walks from the root to the leaf that would contain key, holding
// at most one page pin at any instant.
func (t *BTree) findLeaf(key int32) (page.ID, error) {
	curID := t.rootPageID
	for {
		data, err := t.bpm.FetchPage(curID)
		if err != nil {
			return page.InvalidID, err
		}
		node := Node{Data: data}
		if node.IsLeaf() {
			if err := t.bpm.UnpinPage(curID, false); err != nil {
				return page.InvalidID, err
			}
			return curID, nil
		}
		idx := upperBound(node, key)
		childID := node.Child(idx)
		if err := t.bpm.UnpinPage(curID, false); err != nil {
			return page.InvalidID, err
		}
		curID = childID
	}
}

// Search looks up key, reporting its RID and whether it was found.
func (t *BTree) Search(key int32) (page.RID, bool, error) {
	leafID, err := t.findLeaf(key)
	if err != nil {
		return page.RID{}, false, err
	}
	data, err := t.bpm.FetchPage(leafID)
	if err != nil {
		return page.RID{}, false, err
	}
	leaf := Node{Data: data}
	pos := lowerBound(leaf, key)
	if pos < int(leaf.Size()) && leaf.Key(pos) == key {
		rid := leaf.RID(pos)
		return rid, true, t.bpm.UnpinPage(leafID, false)
	}
	return page.RID{}, false, t.bpm.UnpinPage(leafID, false)
}

// Insert adds key/rid to the tree. If the target leaf is full it is split
// first (the split propagates into full ancestors) and the insert is
// retried from the root. Returns ErrDuplicateKey if key is already present.
func (t *BTree) Insert(key int32, rid page.RID) error {
	for {
		leafID, err := t.findLeaf(key)
		if err != nil {
			return err
		}
		data, err := t.bpm.FetchPage(leafID)
		if err != nil {
			return err
		}
		leaf := Node{Data: data}

		if leaf.Size() == leaf.MaxSize() {
			if err := t.splitLeaf(leafID, leaf); err != nil {
				return err
			}
			continue
		}

		pos := lowerBound(leaf, key)
		if pos < int(leaf.Size()) && leaf.Key(pos) == key {
			return errors.Join(ErrDuplicateKey, t.bpm.UnpinPage(leafID, false))
		}
		for i := int(leaf.Size()) - 1; i >= pos; i-- {
			leaf.SetKey(i+1, leaf.Key(i))
			leaf.SetRID(i+1, leaf.RID(i))
		}
		leaf.SetKey(pos, key)
		leaf.SetRID(pos, rid)
		leaf.SetSize(leaf.Size() + 1)
		return t.bpm.UnpinPage(leafID, true)
	}
}

// splitLeaf splits a full leaf L (already fetched as leaf/leafID) into L
// and a new right sibling, then promotes the right sibling's first key
// into the parent (or creates a new root).
func (t *BTree) splitLeaf(leafID page.ID, leaf Node) error {
	size := leaf.Size()
	mid := size / 2
	newID, newData, err := t.bpm.NewPage()
	if err != nil {
		t.bpm.UnpinPage(leafID, false)
		return fmt.Errorf("bptree: allocating leaf sibling: %w", err)
	}
	right := Node{Data: newData}
	right.InitLeaf(newID, leaf.ParentPageID(), t.maxSize)
	right.SetNextPageID(leaf.NextPageID())

	n := size - mid
	for i := int32(0); i < n; i++ {
		right.SetKey(int(i), leaf.Key(int(mid+i)))
		right.SetRID(int(i), leaf.RID(int(mid+i)))
	}
	right.SetSize(n)
	leaf.SetSize(mid)
	leaf.SetNextPageID(newID)

	sepKey := right.Key(0)
	t.log.Debug("split leaf", zap.Int32("left", int32(leafID)), zap.Int32("right", int32(newID)), zap.Int32("separator", sepKey))
	return t.insertIntoParentOrNewRoot(leafID, leaf, newID, right, sepKey)
}

// splitInternal splits a full internal node I (already fetched) into I and
// a new right sibling J, reparenting every child moved to J, then promotes
// the middle key (removed from I, not duplicated) upward.
func (t *BTree) splitInternal(leftID page.ID, left Node) (page.ID, error) {
	size := left.Size()
	mid := size / 2
	promoted := left.Key(int(mid))

	newID, newData, err := t.bpm.NewPage()
	if err != nil {
		t.bpm.UnpinPage(leftID, false)
		return page.InvalidID, fmt.Errorf("bptree: allocating internal sibling: %w", err)
	}
	right := Node{Data: newData}
	right.InitInternal(newID, left.ParentPageID(), t.maxSize)

	n := size - mid - 1
	for i := int32(0); i < n; i++ {
		right.SetKey(int(i), left.Key(int(mid+1+i)))
	}
	for i := int32(0); i <= n; i++ {
		right.SetChild(int(i), left.Child(int(mid+1+i)))
	}
	right.SetSize(n)
	left.SetSize(mid)

	for i := int32(0); i <= n; i++ {
		childID := right.Child(int(i))
		cdata, err := t.bpm.FetchPage(childID)
		if err != nil {
			t.bpm.UnpinPage(leftID, true)
			t.bpm.UnpinPage(newID, true)
			return page.InvalidID, fmt.Errorf("bptree: reparenting child %d during internal split: %w", childID, err)
		}
		cnode := Node{Data: cdata}
		cnode.SetParentPageID(newID)
		t.bpm.UnpinPage(childID, true)
	}

	t.log.Debug("split internal", zap.Int32("left", int32(leftID)), zap.Int32("right", int32(newID)), zap.Int32("promoted", promoted))
	if err := t.insertIntoParentOrNewRoot(leftID, left, newID, right, promoted); err != nil {
		return page.InvalidID, err
	}
	return newID, nil
}

func (t *BTree) insertIntoParentOrNewRoot(leftID page.ID, left Node, rightID page.ID, right Node, sepKey int32) error {
	parentID := left.ParentPageID()
	if parentID == page.InvalidID {
		return t.createNewRoot(leftID, rightID, sepKey, left, right)
	}
	return t.insertIntoParent(parentID, leftID, left, rightID, right, sepKey)
}

func (t *BTree) createNewRoot(leftID, rightID page.ID, sepKey int32, left, right Node) error {
	newRootID, data, err := t.bpm.NewPage()
	if err != nil {
		t.bpm.UnpinPage(leftID, true)
		t.bpm.UnpinPage(rightID, true)
		return fmt.Errorf("bptree: allocating new root: %w", err)
	}
	root := Node{Data: data}
	root.InitInternal(newRootID, page.InvalidID, t.maxSize)
	root.SetSize(1)
	root.SetKey(0, sepKey)
	root.SetChild(0, leftID)
	root.SetChild(1, rightID)

	left.SetParentPageID(newRootID)
	right.SetParentPageID(newRootID)
	t.rootPageID = newRootID

	if err := t.bpm.UnpinPage(newRootID, true); err != nil {
		return err
	}
	if err := t.bpm.UnpinPage(leftID, true); err != nil {
		return err
	}
	return t.bpm.UnpinPage(rightID, true)
}

// insertIntoParent inserts (sepKey, rightID) into parentID's entry for
// leftID, splitting the parent first if it is already full. A parent split
// may move leftID to the new sibling; both are checked after the split to
// find which one now holds leftID before retrying the insert.
func (t *BTree) insertIntoParent(parentID page.ID, leftID page.ID, left Node, rightID page.ID, right Node, sepKey int32) error {
	pdata, err := t.bpm.FetchPage(parentID)
	if err != nil {
		t.bpm.UnpinPage(leftID, true)
		t.bpm.UnpinPage(rightID, true)
		return err
	}
	parent := Node{Data: pdata}

	if parent.Size() < parent.MaxSize() {
		idx := findChildIndex(parent, leftID)
		insertChildEntry(parent, idx, sepKey, rightID)
		if err := t.bpm.UnpinPage(parentID, true); err != nil {
			return err
		}
		t.bpm.UnpinPage(leftID, true)
		return t.bpm.UnpinPage(rightID, true)
	}

	newSiblingID, err := t.splitInternal(parentID, parent)
	if err != nil {
		t.bpm.UnpinPage(leftID, true)
		t.bpm.UnpinPage(rightID, true)
		return err
	}

	pdata2, err := t.bpm.FetchPage(parentID)
	if err != nil {
		t.bpm.UnpinPage(leftID, true)
		t.bpm.UnpinPage(rightID, true)
		return err
	}
	p2 := Node{Data: pdata2}
	var targetID page.ID
	var target Node
	if idx := findChildIndex(p2, leftID); idx >= 0 {
		targetID, target = parentID, p2
	} else {
		if err := t.bpm.UnpinPage(parentID, false); err != nil {
			t.bpm.UnpinPage(leftID, true)
			t.bpm.UnpinPage(rightID, true)
			return err
		}
		sdata, err := t.bpm.FetchPage(newSiblingID)
		if err != nil {
			t.bpm.UnpinPage(leftID, true)
			t.bpm.UnpinPage(rightID, true)
			return err
		}
		targetID, target = newSiblingID, Node{Data: sdata}
	}

	idx := findChildIndex(target, leftID)
	insertChildEntry(target, idx, sepKey, rightID)
	left.SetParentPageID(targetID)
	right.SetParentPageID(targetID)

	if err := t.bpm.UnpinPage(targetID, true); err != nil {
		return err
	}
	t.bpm.UnpinPage(leftID, true)
	return t.bpm.UnpinPage(rightID, true)
}

func insertChildEntry(node Node, idx int, key int32, childID page.ID) {
	size := int(node.Size())
	for i := size - 1; i >= idx; i-- {
		node.SetKey(i+1, node.Key(i))
	}
	node.SetKey(idx, key)
	for i := size; i >= idx+1; i-- {
		node.SetChild(i+1, node.Child(i))
	}
	node.SetChild(idx+1, childID)
	node.SetSize(int32(size + 1))
}

// Delete removes key, merging underflowing nodes on the way back up.
// Returns ErrKeyNotFound if the key is absent.
func (t *BTree) Delete(key int32) error {
	leafID, err := t.findLeaf(key)
	if err != nil {
		return err
	}
	data, err := t.bpm.FetchPage(leafID)
	if err != nil {
		return err
	}
	leaf := Node{Data: data}
	pos := lowerBound(leaf, key)
	if pos >= int(leaf.Size()) || leaf.Key(pos) != key {
		t.bpm.UnpinPage(leafID, false)
		return ErrKeyNotFound
	}

	size := leaf.Size()
	for i := pos; i < int(size)-1; i++ {
		leaf.SetKey(i, leaf.Key(i+1))
		leaf.SetRID(i, leaf.RID(i+1))
	}
	leaf.SetSize(size - 1)

	isRoot := leaf.ParentPageID() == page.InvalidID
	underflow := !isRoot && leaf.Size() < t.minSize()
	if err := t.bpm.UnpinPage(leafID, true); err != nil {
		return err
	}
	if underflow {
		return t.handleLeafUnderflow(leafID)
	}
	return nil
}

func (t *BTree) handleLeafUnderflow(leafID page.ID) error {
	data, err := t.bpm.FetchPage(leafID)
	if err != nil {
		return err
	}
	leaf := Node{Data: data}
	parentID := leaf.ParentPageID()
	pdata, err := t.bpm.FetchPage(parentID)
	if err != nil {
		t.bpm.UnpinPage(leafID, false)
		return err
	}
	parent := Node{Data: pdata}
	i := findChildIndex(parent, leafID)

	var leftID, rightID page.ID
	var k int
	if i > 0 {
		leftID, rightID, k = parent.Child(i-1), leafID, i-1
	} else {
		leftID, rightID, k = leafID, parent.Child(i+1), i
	}
	t.bpm.UnpinPage(leafID, false)
	t.bpm.UnpinPage(parentID, false)
	return t.mergeLeafNodes(leftID, rightID, parentID, k)
}

// mergeLeafNodes appends Rm's entries onto Lm, relinks the leaf chain, and
// deletes Rm's page before removing its separator from the parent. A leaf's
// key/RID arrays are sized to exactly maxSize entries with no spare room, so
// this only runs when the combined size still fits; otherwise it falls back
// to redistributeLeafNodes, which borrows a single entry instead of
// concatenating both nodes in full.
func (t *BTree) mergeLeafNodes(leftID, rightID, parentID page.ID, k int) error {
	ldata, err := t.bpm.FetchPage(leftID)
	if err != nil {
		return err
	}
	left := Node{Data: ldata}
	rdata, err := t.bpm.FetchPage(rightID)
	if err != nil {
		t.bpm.UnpinPage(leftID, false)
		return err
	}
	right := Node{Data: rdata}

	ls, rs := left.Size(), right.Size()
	if ls+rs > t.maxSize {
		return t.redistributeLeafNodes(left, leftID, right, rightID, parentID, k, ls, rs)
	}

	for i := int32(0); i < rs; i++ {
		left.SetKey(int(ls+i), right.Key(int(i)))
		left.SetRID(int(ls+i), right.RID(int(i)))
	}
	left.SetSize(ls + rs)
	left.SetNextPageID(right.NextPageID())

	if err := t.bpm.UnpinPage(leftID, true); err != nil {
		return err
	}
	if err := t.bpm.UnpinPage(rightID, false); err != nil {
		return err
	}
	if err := t.bpm.DeletePage(rightID); err != nil {
		return fmt.Errorf("bptree: deleting merged leaf %d: %w", rightID, err)
	}
	t.log.Debug("merged leaves", zap.Int32("left", int32(leftID)), zap.Int32("right", int32(rightID)))
	return t.deleteFromParent(parentID, k)
}

// redistributeLeafNodes borrows a single entry across the left/right
// boundary instead of merging, used when left.Size()+right.Size() would
// overflow maxSize. Exactly one of the two sides is underflowing (that is
// how mergeLeafNodes got called); the borrow brings it back up to minSize
// without ever writing past either node's own maxSize entries. The parent's
// separator at k is rewritten in place; the child count does not change.
func (t *BTree) redistributeLeafNodes(left Node, leftID page.ID, right Node, rightID, parentID page.ID, k int, ls, rs int32) error {
	var newSeparator int32
	if ls < t.minSize() {
		left.SetKey(int(ls), right.Key(0))
		left.SetRID(int(ls), right.RID(0))
		left.SetSize(ls + 1)
		for i := int32(0); i < rs-1; i++ {
			right.SetKey(int(i), right.Key(int(i+1)))
			right.SetRID(int(i), right.RID(int(i+1)))
		}
		right.SetSize(rs - 1)
		newSeparator = right.Key(0)
	} else {
		for i := rs; i > 0; i-- {
			right.SetKey(int(i), right.Key(int(i-1)))
			right.SetRID(int(i), right.RID(int(i-1)))
		}
		right.SetKey(0, left.Key(int(ls-1)))
		right.SetRID(0, left.RID(int(ls-1)))
		right.SetSize(rs + 1)
		left.SetSize(ls - 1)
		newSeparator = right.Key(0)
	}

	if err := t.bpm.UnpinPage(leftID, true); err != nil {
		t.bpm.UnpinPage(rightID, false)
		return err
	}
	if err := t.bpm.UnpinPage(rightID, true); err != nil {
		return err
	}

	pdata, err := t.bpm.FetchPage(parentID)
	if err != nil {
		return err
	}
	Node{Data: pdata}.SetKey(k, newSeparator)
	if err := t.bpm.UnpinPage(parentID, true); err != nil {
		return err
	}
	t.log.Debug("redistributed leaves", zap.Int32("left", int32(leftID)), zap.Int32("right", int32(rightID)))
	return nil
}

// deleteFromParent removes separator k and the child immediately after it,
// collapsing the root if it becomes a single-child pass-through, or
// recursing into handleInternalUnderflow if the parent itself underflows.
func (t *BTree) deleteFromParent(parentID page.ID, k int) error {
	pdata, err := t.bpm.FetchPage(parentID)
	if err != nil {
		return err
	}
	parent := Node{Data: pdata}
	size := parent.Size()
	for i := k; i < int(size)-1; i++ {
		parent.SetKey(i, parent.Key(i+1))
	}
	for i := k + 1; i < int(size); i++ {
		parent.SetChild(i, parent.Child(i+1))
	}
	parent.SetSize(size - 1)

	isRoot := parent.ParentPageID() == page.InvalidID
	if isRoot {
		if parent.Size() == 0 {
			onlyChild := parent.Child(0)
			cdata, err := t.bpm.FetchPage(onlyChild)
			if err != nil {
				t.bpm.UnpinPage(parentID, true)
				return err
			}
			Node{Data: cdata}.SetParentPageID(page.InvalidID)
			if err := t.bpm.UnpinPage(onlyChild, true); err != nil {
				return err
			}
			t.rootPageID = onlyChild
			if err := t.bpm.UnpinPage(parentID, true); err != nil {
				return err
			}
			return t.bpm.DeletePage(parentID)
		}
		return t.bpm.UnpinPage(parentID, true)
	}

	underflow := parent.Size() < t.minSize()
	if err := t.bpm.UnpinPage(parentID, true); err != nil {
		return err
	}
	if underflow {
		return t.handleInternalUnderflow(parentID)
	}
	return nil
}

func (t *BTree) handleInternalUnderflow(nodeID page.ID) error {
	data, err := t.bpm.FetchPage(nodeID)
	if err != nil {
		return err
	}
	node := Node{Data: data}
	parentID := node.ParentPageID()
	pdata, err := t.bpm.FetchPage(parentID)
	if err != nil {
		t.bpm.UnpinPage(nodeID, false)
		return err
	}
	parent := Node{Data: pdata}
	i := findChildIndex(parent, nodeID)

	var leftID, rightID page.ID
	var k int
	if i > 0 {
		leftID, rightID, k = parent.Child(i-1), nodeID, i-1
	} else {
		leftID, rightID, k = nodeID, parent.Child(i+1), i
	}
	t.bpm.UnpinPage(nodeID, false)
	t.bpm.UnpinPage(parentID, false)
	return t.mergeInternalNodes(leftID, rightID, parentID, k)
}

// mergeInternalNodes pulls the parent's separator down into Lm, appends
// Rm's keys and children, reparents every moved child, and deletes Rm's
// page before removing the now-redundant separator from the parent. Like
// mergeLeafNodes, this only runs when the combined key count (ls+1+rs,
// counting the pulled-down separator) still fits in maxSize; otherwise it
// falls back to redistributeInternalNodes.
func (t *BTree) mergeInternalNodes(leftID, rightID, parentID page.ID, k int) error {
	ldata, err := t.bpm.FetchPage(leftID)
	if err != nil {
		return err
	}
	left := Node{Data: ldata}

	pdata, err := t.bpm.FetchPage(parentID)
	if err != nil {
		t.bpm.UnpinPage(leftID, false)
		return err
	}
	sepKey := Node{Data: pdata}.Key(k)
	if err := t.bpm.UnpinPage(parentID, false); err != nil {
		t.bpm.UnpinPage(leftID, false)
		return err
	}

	rdata, err := t.bpm.FetchPage(rightID)
	if err != nil {
		t.bpm.UnpinPage(leftID, false)
		return err
	}
	right := Node{Data: rdata}

	ls, rs := left.Size(), right.Size()
	if ls+1+rs > t.maxSize {
		return t.redistributeInternalNodes(left, leftID, right, rightID, parentID, k, sepKey, ls, rs)
	}

	left.SetKey(int(ls), sepKey)
	for i := int32(0); i < rs; i++ {
		left.SetKey(int(ls+1+i), right.Key(int(i)))
	}
	for i := int32(0); i <= rs; i++ {
		left.SetChild(int(ls+1+i), right.Child(int(i)))
	}
	left.SetSize(ls + 1 + rs)

	for i := int32(0); i <= rs; i++ {
		childID := right.Child(int(i))
		cdata, err := t.bpm.FetchPage(childID)
		if err != nil {
			t.bpm.UnpinPage(leftID, true)
			t.bpm.UnpinPage(rightID, false)
			return fmt.Errorf("bptree: reparenting child %d during internal merge: %w", childID, err)
		}
		Node{Data: cdata}.SetParentPageID(leftID)
		t.bpm.UnpinPage(childID, true)
	}

	if err := t.bpm.UnpinPage(leftID, true); err != nil {
		return err
	}
	if err := t.bpm.UnpinPage(rightID, false); err != nil {
		return err
	}
	if err := t.bpm.DeletePage(rightID); err != nil {
		return fmt.Errorf("bptree: deleting merged internal node %d: %w", rightID, err)
	}
	t.log.Debug("merged internal nodes", zap.Int32("left", int32(leftID)), zap.Int32("right", int32(rightID)))
	return t.deleteFromParent(parentID, k)
}

// redistributeInternalNodes rotates one key and one child across the
// left/right boundary instead of merging, used when ls+1+rs (the combined
// key count, including the separator pulled down from the parent) would
// overflow maxSize. Exactly one side is underflowing; the rotation brings
// it back up to minSize and reparents the single child that crosses the
// boundary. The parent's separator at k is rewritten in place, not removed.
func (t *BTree) redistributeInternalNodes(left Node, leftID page.ID, right Node, rightID, parentID page.ID, k int, sepKey, ls, rs int32) error {
	var newSeparator int32
	var movedChildID page.ID
	var movedChildNewParent page.ID

	if ls < t.minSize() {
		promoted := right.Key(0)
		movedChildID = right.Child(0)
		movedChildNewParent = leftID

		left.SetKey(int(ls), sepKey)
		left.SetChild(int(ls+1), movedChildID)
		left.SetSize(ls + 1)

		for i := int32(0); i < rs-1; i++ {
			right.SetKey(int(i), right.Key(int(i+1)))
		}
		for i := int32(0); i < rs; i++ {
			right.SetChild(int(i), right.Child(int(i+1)))
		}
		right.SetSize(rs - 1)
		newSeparator = promoted
	} else {
		movedChildID = left.Child(int(ls))
		promoted := left.Key(int(ls - 1))
		movedChildNewParent = rightID

		for i := rs; i >= 0; i-- {
			right.SetChild(int(i+1), right.Child(int(i)))
		}
		for i := rs - 1; i >= 0; i-- {
			right.SetKey(int(i+1), right.Key(int(i)))
		}
		right.SetKey(0, sepKey)
		right.SetChild(0, movedChildID)
		right.SetSize(rs + 1)
		left.SetSize(ls - 1)
		newSeparator = promoted
	}

	cdata, err := t.bpm.FetchPage(movedChildID)
	if err != nil {
		t.bpm.UnpinPage(leftID, false)
		t.bpm.UnpinPage(rightID, false)
		return fmt.Errorf("bptree: reparenting child %d during internal redistribution: %w", movedChildID, err)
	}
	Node{Data: cdata}.SetParentPageID(movedChildNewParent)
	if err := t.bpm.UnpinPage(movedChildID, true); err != nil {
		t.bpm.UnpinPage(leftID, false)
		t.bpm.UnpinPage(rightID, false)
		return err
	}

	if err := t.bpm.UnpinPage(leftID, true); err != nil {
		t.bpm.UnpinPage(rightID, false)
		return err
	}
	if err := t.bpm.UnpinPage(rightID, true); err != nil {
		return err
	}

	pdata, err := t.bpm.FetchPage(parentID)
	if err != nil {
		return err
	}
	Node{Data: pdata}.SetKey(k, newSeparator)
	if err := t.bpm.UnpinPage(parentID, true); err != nil {
		return err
	}
	t.log.Debug("redistributed internal nodes", zap.Int32("left", int32(leftID)), zap.Int32("right", int32(rightID)))
	return nil
}
