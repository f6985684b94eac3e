// Package engine ties the SQL front end to the executor: it keeps the
// catalog, plans statements into operator trees and runs them.
package engine

import (
	"fmt"
	"strings"

	"github.com/benkivuva/chunkdb/internal/config"
	"github.com/benkivuva/chunkdb/internal/executor"
	"github.com/benkivuva/chunkdb/internal/sql"
	"github.com/benkivuva/chunkdb/internal/storage"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Engine holds the core database components. It is not safe for
// concurrent use.
type Engine struct {
	dm        *storage.DiskManager
	bp        *storage.BufferPool
	catalog   *Catalog
	chunkSize int
}

// Open initializes an engine over cfg.DBPath.
func Open(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dm, err := storage.NewDiskManager(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	bp := storage.NewBufferPool(cfg.BufferPoolPages, dm)
	return &Engine{
		dm:        dm,
		bp:        bp,
		catalog:   NewCatalog(bp),
		chunkSize: cfg.ChunkSize,
	}, nil
}

// Close flushes dirty pages and closes the database file.
func (e *Engine) Close() error {
	return errors.CombineErrors(e.bp.FlushAll(), e.dm.Close())
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

func (e *Engine) ChunkSize() int { return e.chunkSize }

// SetChunkSize changes the chunk size used by joins planned afterwards.
func (e *Engine) SetChunkSize(n int) error {
	if n < 1 {
		return errors.Newf("chunk size must be at least 1, got %d", n)
	}
	e.chunkSize = n
	return nil
}

// Result is the outcome of a statement: rows for a SELECT, a message
// otherwise.
type Result struct {
	Columns []string
	Rows    [][]string
	Message string
}

// Format renders the result as text.
func (r *Result) Format() string {
	if r.Columns == nil {
		return r.Message + "\n"
	}
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteString("\n----------------\n")
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "(%d rows)\n", len(r.Rows))
	return b.String()
}

// Execute parses and executes a single SQL statement.
func (e *Engine) Execute(query string) (*Result, error) {
	stmt, err := sql.Parse(query)
	if err != nil {
		return nil, errors.Wrap(err, "parse error")
	}

	switch s := stmt.(type) {
	case *sql.CreateTableStatement:
		t, err := e.catalog.CreateTable(s.TableName, s.Columns)
		if err != nil {
			return nil, err
		}
		zap.L().Info("created table", zap.String("table", t.Name), zap.Stringer("schema", t.Desc))
		return &Result{Message: "CREATE TABLE"}, nil

	case *sql.InsertStatement:
		n, err := e.insert(s)
		if err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("INSERT %d", n)}, nil

	case *sql.SelectStatement:
		plan, err := e.planSelect(s)
		if err != nil {
			return nil, err
		}
		tuples, err := executor.Run(plan)
		if err != nil {
			return nil, err
		}
		desc := plan.TupleDesc()
		res := &Result{Columns: make([]string, desc.NumFields()), Rows: make([][]string, 0, len(tuples))}
		for i := range res.Columns {
			res.Columns[i] = desc.FieldName(i)
		}
		for _, t := range tuples {
			row := make([]string, len(t.Fields()))
			for i, f := range t.Fields() {
				row[i] = f.String()
			}
			res.Rows = append(res.Rows, row)
		}
		return res, nil
	}
	return nil, errors.AssertionFailedf("unhandled statement type %T", stmt)
}

func (e *Engine) insert(s *sql.InsertStatement) (int64, error) {
	t, err := e.catalog.Table(s.TableName)
	if err != nil {
		return 0, err
	}
	tuples := make([]*executor.Tuple, len(s.Rows))
	for i, vals := range s.Rows {
		if len(vals) != t.Desc.NumFields() {
			return 0, errors.Newf("table %s has %d columns but %d values were supplied",
				t.Name, t.Desc.NumFields(), len(vals))
		}
		fields := make([]executor.Field, len(vals))
		for j, v := range vals {
			f, err := toField(v, t.Desc.FieldType(j))
			if err != nil {
				return 0, errors.Wrapf(err, "column %s", t.Desc.FieldName(j))
			}
			fields[j] = f
		}
		if tuples[i], err = executor.NewTupleFromFields(t.Desc, fields...); err != nil {
			return 0, err
		}
	}

	ins, err := executor.NewInsert(t.Heap, t.Desc, executor.NewTupleIterator(t.Desc, tuples))
	if err != nil {
		return 0, err
	}
	out, err := executor.Run(ins)
	if err != nil {
		return 0, err
	}
	return int64(out[0].Field(0).(executor.IntField)), nil
}
