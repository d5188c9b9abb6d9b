package exec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SolieSoftware/db-engine/internal/buffer"
	"github.com/SolieSoftware/db-engine/internal/disk"
	"github.com/SolieSoftware/db-engine/internal/heap"
	"github.com/SolieSoftware/db-engine/internal/types"
)

func newTestFile(t *testing.T) *heap.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exec.db")
	d, err := disk.Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	bpm := buffer.New(d, 10, nil, nil)
	f, err := heap.Create(bpm, nil)
	require.NoError(t, err)
	return f
}

func personSchema() types.Schema {
	return types.NewSchema(
		types.Column{Name: "id", Kind: types.Integer},
		types.Column{Name: "name", Kind: types.Varchar},
	)
}

func drain(t *testing.T, e Executor) []types.Row {
	t.Helper()
	require.NoError(t, e.Init())
	var rows []types.Row
	for {
		row, _, ok, err := e.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows
}

func TestInsertThenSeqScanRoundTrip(t *testing.T) {
	f := newTestFile(t)
	schema := personSchema()
	rows := []types.Row{
		{types.NewInteger(1), types.NewVarchar("alice")},
		{types.NewInteger(2), types.NewVarchar("bob")},
		{types.NewInteger(3), types.NewVarchar("carol")},
	}

	ins := NewInsertExecutor(f, schema, rows)
	inserted := drain(t, ins)
	require.Len(t, inserted, 3)

	scan := NewSeqScanExecutor(f, schema, nil)
	got := drain(t, scan)
	require.Len(t, got, 3)
	for i, row := range got {
		require.True(t, row[0].Equal(rows[i][0]))
		require.True(t, row[1].Equal(rows[i][1]))
	}
}

func TestFilterExecutorKeepsOnlyMatches(t *testing.T) {
	f := newTestFile(t)
	schema := personSchema()
	rows := []types.Row{
		{types.NewInteger(1), types.NewVarchar("alice")},
		{types.NewInteger(2), types.NewVarchar("bob")},
		{types.NewInteger(3), types.NewVarchar("carol")},
	}
	require.NoError(t, NewInsertExecutor(f, schema, rows).Init())
	ins := NewInsertExecutor(f, schema, rows)
	_ = drain(t, ins)

	scan := NewSeqScanExecutor(f, schema, nil)
	filtered := NewFilterExecutor(scan, func(row types.Row) (bool, error) {
		return row[0].Compare(types.NewInteger(1)) > 0, nil
	})
	got := drain(t, filtered)
	require.Len(t, got, 2)
	for _, row := range got {
		require.Greater(t, row[0].Int, int64(1))
	}
}

func TestInsertExecutorRejectsColumnCountMismatch(t *testing.T) {
	f := newTestFile(t)
	schema := personSchema()
	ins := NewInsertExecutor(f, schema, []types.Row{{types.NewInteger(1)}})
	require.NoError(t, ins.Init())
	_, _, _, err := ins.Next()
	require.Error(t, err)
}
