package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SolieSoftware/db-engine/internal/buffer"
	"github.com/SolieSoftware/db-engine/internal/disk"
	"github.com/SolieSoftware/db-engine/internal/types"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	d, err := disk.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	bpm := buffer.New(d, 16, nil, nil)
	return New(bpm, nil)
}

func peopleSchema() types.Schema {
	return types.NewSchema(
		types.Column{Name: "id", Kind: types.Integer},
		types.Column{Name: "name", Kind: types.Varchar},
	)
}

func TestCreateAndLookupTable(t *testing.T) {
	c := newTestCatalog(t)
	info, err := c.CreateTable("people", peopleSchema())
	require.NoError(t, err)
	require.Equal(t, "people", info.Name)

	got, err := c.Table("people")
	require.NoError(t, err)
	require.Same(t, info, got)
}

func TestCreateTableDuplicateNameErrors(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.CreateTable("people", peopleSchema())
	require.NoError(t, err)

	_, err = c.CreateTable("people", peopleSchema())
	require.ErrorIs(t, err, ErrTableExists)
}

func TestTableNotFoundErrors(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.Table("ghost")
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestDropTable(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.CreateTable("people", peopleSchema())
	require.NoError(t, err)

	require.NoError(t, c.DropTable("people"))
	_, err = c.Table("people")
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestCreateIndexOnIntegerColumn(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.CreateTable("people", peopleSchema())
	require.NoError(t, err)

	require.NoError(t, c.CreateIndex("people", "id"))
	info, err := c.Table("people")
	require.NoError(t, err)
	require.NotNil(t, info.Index)
	require.Equal(t, "id", info.IndexColumn)
}

func TestCreateIndexRejectsVarcharColumn(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.CreateTable("people", peopleSchema())
	require.NoError(t, err)

	err = c.CreateIndex("people", "name")
	require.Error(t, err)
}

func TestListTables(t *testing.T) {
	c := newTestCatalog(t)
	_, err := c.CreateTable("a", peopleSchema())
	require.NoError(t, err)
	_, err = c.CreateTable("b", peopleSchema())
	require.NoError(t, err)

	names := c.ListTables()
	require.ElementsMatch(t, []string{"a", "b"}, names)
}
