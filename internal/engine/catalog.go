package engine

import (
	"sort"

	"github.com/benkivuva/chunkdb/internal/executor"
	"github.com/benkivuva/chunkdb/internal/sql"
	"github.com/benkivuva/chunkdb/internal/storage"
	"github.com/cockroachdb/errors"
)

// Table is a catalog entry. Field names of Desc are qualified with the
// table name ("users.id").
type Table struct {
	Name string
	Desc *executor.TupleDesc
	Heap *storage.TableHeap
}

// Catalog maps table names to tables. It lives in memory only: the heaps
// of a previous run are not rediscovered.
type Catalog struct {
	bp     *storage.BufferPool
	tables map[string]*Table
}

func NewCatalog(bp *storage.BufferPool) *Catalog {
	return &Catalog{bp: bp, tables: make(map[string]*Table)}
}

// CreateTable allocates a heap for a new table.
func (c *Catalog) CreateTable(name string, cols []sql.ColumnDef) (*Table, error) {
	if _, ok := c.tables[name]; ok {
		return nil, errors.Newf("table %s already exists", name)
	}
	if len(cols) == 0 {
		return nil, errors.Newf("table %s has no columns", name)
	}
	types := make([]executor.Type, len(cols))
	names := make([]string, len(cols))
	seen := make(map[string]bool, len(cols))
	for i, col := range cols {
		if seen[col.Name] {
			return nil, errors.Newf("duplicate column %s in table %s", col.Name, name)
		}
		seen[col.Name] = true
		names[i] = name + "." + col.Name
		switch col.Type {
		case sql.TypeInt:
			types[i] = executor.IntType
		case sql.TypeVarchar:
			types[i] = executor.StringType
		default:
			return nil, errors.AssertionFailedf("unhandled column type %d", col.Type)
		}
	}

	heap, err := storage.NewTableHeap(c.bp, storage.InvalidPageID)
	if err != nil {
		return nil, errors.Wrapf(err, "creating heap for table %s", name)
	}
	t := &Table{Name: name, Desc: executor.NewTupleDesc(types, names), Heap: heap}
	c.tables[name] = t
	return t, nil
}

func (c *Catalog) Table(name string) (*Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, errors.Newf("table %s does not exist", name)
	}
	return t, nil
}

// TableNames returns the table names in sorted order.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
