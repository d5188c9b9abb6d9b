// Package catalog is the minimal table directory that lets a caller resolve
// a table_name to the heap file and schema backing it, plus an optional
// single-column integer index. It is in-memory: the set of tables does not
// survive process restart.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/SolieSoftware/db-engine/internal/bptree"
	"github.com/SolieSoftware/db-engine/internal/buffer"
	"github.com/SolieSoftware/db-engine/internal/heap"
	"github.com/SolieSoftware/db-engine/internal/types"
)

// ErrTableExists is returned by CreateTable when the name is already taken.
var ErrTableExists = errors.New("catalog: table already exists")

// ErrTableNotFound is returned by Table and DropTable for an unknown name.
var ErrTableNotFound = errors.New("catalog: table not found")

// ErrNoIndex reports that a table has no index. No function in this
// repository returns it.
var ErrNoIndex = errors.New("catalog: table has no index")

// defaultIndexFanout is the max_size used for every B+ tree index the
// catalog creates; spec'd nowhere, chosen to keep node pages well under
// PAGE_SIZE for the common case of small test fixtures.
const defaultIndexFanout = 64

// TableInfo groups everything the catalog knows about one table.
type TableInfo struct {
	Name   string
	Schema types.Schema
	Heap   *heap.File

	// IndexColumn and Index are set only once CreateIndex has been called
	// for this table; Index is nil otherwise.
	IndexColumn string
	Index       *bptree.BTree
}

// Catalog is a name-keyed directory of tables, all sharing one buffer pool.
type Catalog struct {
	mu     sync.Mutex
	bpm    *buffer.Manager
	tables map[string]*TableInfo
	log    *zap.Logger
}

// New returns an empty catalog backed by bpm.
func New(bpm *buffer.Manager, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		bpm:    bpm,
		tables: make(map[string]*TableInfo),
		log:    log.With(zap.String("component", "catalog.Catalog")),
	}
}

// CreateTable registers a new table with the given name and schema,
// allocating a fresh heap file for it.
func (c *Catalog) CreateTable(name string, schema types.Schema) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	f, err := heap.Create(c.bpm, c.log)
	if err != nil {
		return nil, fmt.Errorf("catalog: creating heap file for %s: %w", name, err)
	}
	info := &TableInfo{Name: name, Schema: schema, Heap: f}
	c.tables[name] = info
	c.log.Info("table created", zap.String("table", name))
	return info, nil
}

// Table returns the registered TableInfo for name.
func (c *Catalog) Table(name string) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return info, nil
}

// DropTable removes name from the catalog. It does not reclaim the heap
// file's pages; nothing in this catalog's scope frees a table's storage.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	delete(c.tables, name)
	c.log.Info("table dropped", zap.String("table", name))
	return nil
}

// ListTables returns every registered table name, in no particular order.
func (c *Catalog) ListTables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	return names
}

// CreateIndex builds a new, empty B+ tree index over column for table, and
// records it on that table's TableInfo. column must be an INTEGER column;
// the index starts empty, it is not populated from existing rows.
func (c *Catalog) CreateIndex(table, column string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	idx := info.Schema.IndexOf(column)
	if idx < 0 {
		return fmt.Errorf("catalog: table %s has no column %s", table, column)
	}
	if info.Schema.Columns[idx].Kind != types.Integer {
		return fmt.Errorf("catalog: index column %s.%s must be INTEGER", table, column)
	}
	tree, err := bptree.NewBTree(c.bpm, defaultIndexFanout, c.log)
	if err != nil {
		return fmt.Errorf("catalog: creating index on %s.%s: %w", table, column, err)
	}
	info.IndexColumn = column
	info.Index = tree
	c.log.Info("index created", zap.String("table", table), zap.String("column", column))
	return nil
}
