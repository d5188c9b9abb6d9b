// Package exec implements the pull-based executor tree that sits above the
// heap file: sequential scan, filter and insert operators, each speaking the
// Init/Next contract.
package exec

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/SolieSoftware/db-engine/internal/heap"
	"github.com/SolieSoftware/db-engine/internal/page"
	"github.com/SolieSoftware/db-engine/internal/types"
)

// Executor is a pull-based operator. Init prepares (or resets) the operator;
// Next produces one tuple at a time, returning ok=false once exhausted.
type Executor interface {
	Init() error
	Next() (tuple types.Row, rid page.RID, ok bool, err error)
}

// SeqScanExecutor walks every live record of a heap file in page-id order,
// decoding each into a Row via schema. It holds at most one pinned page at
// a time, via the heap iterator it wraps.
type SeqScanExecutor struct {
	file   *heap.File
	schema types.Schema
	it     *heap.Iterator
	log    *zap.Logger
}

// NewSeqScanExecutor returns a scan over file's records, decoded per schema.
func NewSeqScanExecutor(file *heap.File, schema types.Schema, log *zap.Logger) *SeqScanExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &SeqScanExecutor{file: file, schema: schema, log: log}
}

func (s *SeqScanExecutor) Init() error {
	s.it = s.file.NewIterator()
	return nil
}

func (s *SeqScanExecutor) Next() (types.Row, page.RID, bool, error) {
	rid, data, ok, err := s.it.Next()
	if err != nil {
		return nil, page.RID{}, false, fmt.Errorf("exec: seq scan: %w", err)
	}
	if !ok {
		return nil, page.RID{}, false, nil
	}
	row, err := types.DecodeRow(s.schema, data)
	if err != nil {
		return nil, page.RID{}, false, fmt.Errorf("exec: seq scan: decoding row at %v: %w", rid, err)
	}
	return row, rid, true, nil
}

// Predicate evaluates a boolean condition over a row.
type Predicate func(row types.Row) (bool, error)

// FilterExecutor passes through only the rows from child for which pred
// reports true, pulling from child until a match or exhaustion.
type FilterExecutor struct {
	child Executor
	pred  Predicate
}

// NewFilterExecutor wraps child, keeping only rows matching pred.
func NewFilterExecutor(child Executor, pred Predicate) *FilterExecutor {
	return &FilterExecutor{child: child, pred: pred}
}

func (f *FilterExecutor) Init() error {
	return f.child.Init()
}

func (f *FilterExecutor) Next() (types.Row, page.RID, bool, error) {
	for {
		row, rid, ok, err := f.child.Next()
		if err != nil {
			return nil, page.RID{}, false, fmt.Errorf("exec: filter: %w", err)
		}
		if !ok {
			return nil, page.RID{}, false, nil
		}
		match, err := f.pred(row)
		if err != nil {
			return nil, page.RID{}, false, fmt.Errorf("exec: filter: evaluating predicate: %w", err)
		}
		if match {
			return row, rid, true, nil
		}
	}
}

// InsertExecutor feeds a fixed list of rows into a heap file, one per Next
// call, yielding each inserted row's new RID. It has no child operator.
type InsertExecutor struct {
	file   *heap.File
	schema types.Schema
	rows   []types.Row
	pos    int
}

// NewInsertExecutor returns an executor that inserts rows into file.
func NewInsertExecutor(file *heap.File, schema types.Schema, rows []types.Row) *InsertExecutor {
	return &InsertExecutor{file: file, schema: schema, rows: rows}
}

func (ins *InsertExecutor) Init() error {
	ins.pos = 0
	return nil
}

func (ins *InsertExecutor) Next() (types.Row, page.RID, bool, error) {
	if ins.pos >= len(ins.rows) {
		return nil, page.RID{}, false, nil
	}
	row := ins.rows[ins.pos]
	ins.pos++
	if len(row) != len(ins.schema.Columns) {
		return nil, page.RID{}, false, fmt.Errorf("exec: insert: row has %d values, schema has %d columns", len(row), len(ins.schema.Columns))
	}
	rid, err := ins.file.Insert(row.Encode())
	if err != nil {
		return nil, page.RID{}, false, fmt.Errorf("exec: insert: %w", err)
	}
	return row, rid, true, nil
}
