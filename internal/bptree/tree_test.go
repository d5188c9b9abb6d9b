package bptree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SolieSoftware/db-engine/internal/buffer"
	"github.com/SolieSoftware/db-engine/internal/disk"
	"github.com/SolieSoftware/db-engine/internal/page"
)

func newTestTree(t *testing.T, maxSize int32, poolSize int) *BTree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	d, err := disk.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	bpm := buffer.New(d, poolSize, nil, nil)
	tree, err := NewBTree(bpm, maxSize, nil)
	require.NoError(t, err)
	return tree
}

func ridFor(key int32) page.RID {
	return page.RID{PageID: page.ID(key), SlotNumber: 0, Generation: 0}
}

func TestBTreeSearchOnEmptyTree(t *testing.T) {
	tree := newTestTree(t, 5, 20)
	_, found, err := tree.Search(1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBTreeInsertAndSearchRoundTrip(t *testing.T) {
	tree := newTestTree(t, 5, 20)
	for _, k := range []int32{10, 20, 30, 40, 50} {
		require.NoError(t, tree.Insert(k, ridFor(k)))
	}
	for _, k := range []int32{10, 20, 30, 40, 50} {
		rid, found, err := tree.Search(k)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, ridFor(k), rid)
	}
	_, found, err := tree.Search(25)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBTreeLeafSplitPromotesSeparator(t *testing.T) {
	tree := newTestTree(t, 5, 20)
	for _, k := range []int32{10, 20, 30, 40, 50, 60} {
		require.NoError(t, tree.Insert(k, ridFor(k)))
	}

	for _, k := range []int32{10, 20, 30, 40, 50, 60} {
		rid, found, err := tree.Search(k)
		require.NoError(t, err)
		require.True(t, found, "key %d should be found", k)
		require.Equal(t, ridFor(k), rid)
	}
	_, found, err := tree.Search(25)
	require.NoError(t, err)
	require.False(t, found)

	// The root should now be an internal node with separator 30.
	data, err := tree.bpm.FetchPage(tree.RootPageID())
	require.NoError(t, err)
	root := Node{Data: data}
	require.False(t, root.IsLeaf())
	require.EqualValues(t, 1, root.Size())
	require.EqualValues(t, 30, root.Key(0))
	require.NoError(t, tree.bpm.UnpinPage(tree.RootPageID(), false))
}

func TestBTreeRejectsDuplicateKey(t *testing.T) {
	tree := newTestTree(t, 5, 20)
	require.NoError(t, tree.Insert(1, ridFor(1)))
	err := tree.Insert(1, ridFor(99))
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestBTreeDeleteMissingKeyErrors(t *testing.T) {
	tree := newTestTree(t, 5, 20)
	require.NoError(t, tree.Insert(1, ridFor(1)))
	err := tree.Delete(2)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBTreeDeleteTriggersMergeOnUnderflow(t *testing.T) {
	tree := newTestTree(t, 4, 20)
	for k := int32(1); k <= 8; k++ {
		require.NoError(t, tree.Insert(k, ridFor(k)))
	}

	require.NoError(t, tree.Delete(1))

	_, found, err := tree.Search(1)
	require.NoError(t, err)
	require.False(t, found)

	for k := int32(2); k <= 8; k++ {
		_, found, err := tree.Search(k)
		require.NoError(t, err)
		require.True(t, found, "key %d should still be present", k)
	}
}

func TestBTreeDeleteTriggersRedistributionWhenMergeWouldOverflow(t *testing.T) {
	tree := newTestTree(t, 4, 20)
	for k := int32(1); k <= 8; k++ {
		require.NoError(t, tree.Insert(k, ridFor(k)))
	}

	// The inserts leave leaves {1,2}, {3,4}, {5,6,7,8}. Deleting 1 merges
	// {2} with {3,4}; deleting 2 leaves {3,4}; deleting 3 underflows it to
	// {4}. Merging that with the full right sibling {5,6,7,8} would need 5
	// slots in a 4-slot node, so this must redistribute instead of merge.
	require.NoError(t, tree.Delete(1))
	require.NoError(t, tree.Delete(2))
	require.NoError(t, tree.Delete(3))

	rid, found, err := tree.Search(4)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, ridFor(4), rid)

	for k := int32(4); k <= 8; k++ {
		rid, found, err := tree.Search(k)
		require.NoError(t, err)
		require.True(t, found, "key %d should still be present", k)
		require.Equal(t, ridFor(k), rid)
	}
}

// TestBTreeSurvivesIndexPageEvictionUnderSmallPool uses a pool far smaller
// than the tree it builds, so internal nodes (not just leaves) get evicted
// and re-fetched mid-traversal. This exercises the buffer pool's victim
// bookkeeping against a bptree node, whose page-id lives at a different
// byte offset than a slotted page's — a path the larger fixed pools used by
// the other tests above never exercise, since nothing is ever evicted.
func TestBTreeSurvivesIndexPageEvictionUnderSmallPool(t *testing.T) {
	// poolSize is small relative to the dozen-plus pages a maxSize=3 tree
	// over 20 keys grows to, but still comfortably above the handful of
	// frames a single cascading split or merge can hold pinned at once.
	tree := newTestTree(t, 3, 8)
	for k := int32(1); k <= 20; k++ {
		require.NoError(t, tree.Insert(k, ridFor(k)))
	}

	for k := int32(1); k <= 20; k++ {
		rid, found, err := tree.Search(k)
		require.NoError(t, err)
		require.True(t, found, "key %d should be found", k)
		require.Equal(t, ridFor(k), rid)
	}
	_, found, err := tree.Search(21)
	require.NoError(t, err)
	require.False(t, found)

	for k := int32(20); k >= 1; k-- {
		require.NoError(t, tree.Delete(k))
	}
	for k := int32(1); k <= 20; k++ {
		_, found, err := tree.Search(k)
		require.NoError(t, err)
		require.False(t, found)
	}
}

func TestBTreeDeleteAllCollapsesToEmptyLeafRoot(t *testing.T) {
	tree := newTestTree(t, 4, 20)
	for k := int32(1); k <= 8; k++ {
		require.NoError(t, tree.Insert(k, ridFor(k)))
	}
	for k := int32(1); k <= 8; k++ {
		require.NoError(t, tree.Delete(k))
	}
	for k := int32(1); k <= 8; k++ {
		_, found, err := tree.Search(k)
		require.NoError(t, err)
		require.False(t, found)
	}
}
