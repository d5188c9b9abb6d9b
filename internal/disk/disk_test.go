package disk

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SolieSoftware/db-engine/internal/page"
)

func TestSimplePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	m, err := Open(path, nil)
	require.NoError(t, err)

	id := m.AllocatePage()
	require.Equal(t, page.ID(0), id)

	buf := make([]byte, page.Size)
	for i := range buf {
		buf[i] = 0xAA
	}
	require.NoError(t, m.WritePage(id, buf))
	require.NoError(t, m.Close())

	m2, err := Open(path, nil)
	require.NoError(t, err)
	defer m2.Close()

	require.EqualValues(t, 1, m2.GetNumPages())

	out := make([]byte, page.Size)
	require.NoError(t, m2.ReadPage(id, out))
	require.Equal(t, buf, out)
}

func TestReadOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	m, err := Open(path, nil)
	require.NoError(t, err)
	defer m.Close()

	out := make([]byte, page.Size)
	err = m.ReadPage(page.ID(0), out)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestFreeListReuseIsLIFO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	m, err := Open(path, nil)
	require.NoError(t, err)
	defer m.Close()

	a := m.AllocatePage()
	b := m.AllocatePage()
	c := m.AllocatePage()

	m.DeallocatePage(a)
	m.DeallocatePage(b)
	m.DeallocatePage(c)

	require.Equal(t, c, m.AllocatePage())
	require.Equal(t, b, m.AllocatePage())
	require.Equal(t, a, m.AllocatePage())

	// Free list is drained; next allocation extends the high-water mark.
	next := m.AllocatePage()
	require.Equal(t, page.ID(3), next)
}

func TestDeallocateIgnoresOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	m, err := Open(path, nil)
	require.NoError(t, err)
	defer m.Close()

	m.DeallocatePage(page.ID(42))
	// No panic, no effect: the next allocation still extends the file.
	require.Equal(t, page.ID(0), m.AllocatePage())
}
