package engine

import (
	"strings"

	"github.com/benkivuva/chunkdb/internal/executor"
	"github.com/benkivuva/chunkdb/internal/sql"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// planSelect builds the operator tree for a SELECT:
//
//	SeqScan [ChunkNestedLoopJoin SeqScan] [Filter ...] [Project]
func (e *Engine) planSelect(stmt *sql.SelectStatement) (executor.Executor, error) {
	left, err := e.catalog.Table(stmt.TableName)
	if err != nil {
		return nil, err
	}
	var plan executor.Executor = executor.NewSeqScan(left.Heap, left.Desc)

	if stmt.Join != nil {
		right, err := e.catalog.Table(stmt.Join.JoinTable)
		if err != nil {
			return nil, err
		}
		pred, err := joinPredicate(stmt.Join, left.Desc, right.Desc)
		if err != nil {
			return nil, err
		}
		plan, err = executor.NewChunkNestedLoopJoin(
			pred, plan, executor.NewSeqScan(right.Heap, right.Desc), e.chunkSize)
		if err != nil {
			return nil, err
		}
		zap.L().Debug("planned join",
			zap.String("outer", left.Name), zap.String("inner", right.Name),
			zap.Stringer("predicate", pred), zap.Int("chunk_size", e.chunkSize))
	}

	for _, w := range stmt.Where {
		pred, err := filterPredicate(w, plan.TupleDesc())
		if err != nil {
			return nil, err
		}
		plan = executor.NewFilter(pred, plan)
	}

	if len(stmt.Fields) == 1 && stmt.Fields[0] == "*" {
		return plan, nil
	}
	fields := make([]int, len(stmt.Fields))
	for i, name := range stmt.Fields {
		if name == "*" {
			return nil, errors.New("* cannot be combined with other fields")
		}
		idx, err := plan.TupleDesc().IndexOf(name)
		if err != nil {
			return nil, err
		}
		fields[i] = idx
	}
	return executor.NewProject(fields, plan)
}

// joinPredicate resolves "ON a op b". Each side is looked up in its own
// table, so a self join can use the same qualified names; if the fields
// are written inner first, the operator is mirrored.
func joinPredicate(j *sql.JoinClause, outer, inner *executor.TupleDesc) (*executor.JoinPredicate, error) {
	op, err := executor.ParseOp(j.Op)
	if err != nil {
		return nil, err
	}
	l, lerr := outer.IndexOf(j.OnLeftField)
	r, rerr := inner.IndexOf(j.OnRightField)
	if lerr == nil && rerr == nil {
		return executor.NewJoinPredicate(l, op, r), nil
	}

	l, lerr2 := outer.IndexOf(j.OnRightField)
	r, rerr2 := inner.IndexOf(j.OnLeftField)
	if lerr2 == nil && rerr2 == nil {
		if op == executor.Like {
			return nil, errors.Newf("LIKE join condition must name the %s field first", j.OnRightField)
		}
		return executor.NewJoinPredicate(l, mirror(op), r), nil
	}
	return nil, errors.Wrapf(errors.CombineErrors(lerr, rerr), "resolving join condition")
}

// mirror returns op' such that "a op b" == "b op' a".
func mirror(op executor.Op) executor.Op {
	switch op {
	case executor.LessThan:
		return executor.GreaterThan
	case executor.LessThanOrEq:
		return executor.GreaterThanOrEq
	case executor.GreaterThan:
		return executor.LessThan
	case executor.GreaterThanOrEq:
		return executor.LessThanOrEq
	}
	return op
}

func filterPredicate(w sql.WhereClause, desc *executor.TupleDesc) (*executor.Predicate, error) {
	idx, err := desc.IndexOf(w.Field)
	if err != nil {
		return nil, err
	}
	op, err := executor.ParseOp(strings.ToUpper(w.Op))
	if err != nil {
		return nil, err
	}
	operand, err := toField(w.Value, desc.FieldType(idx))
	if err != nil {
		return nil, errors.Wrapf(err, "WHERE %s", w.Field)
	}
	return executor.NewPredicate(idx, op, operand), nil
}

// toField converts a parsed literal to a field of type t.
func toField(v interface{}, t executor.Type) (executor.Field, error) {
	switch t {
	case executor.IntType:
		if n, ok := v.(int64); ok {
			return executor.IntField(n), nil
		}
	case executor.StringType:
		if s, ok := v.(string); ok {
			return executor.StringField(s), nil
		}
	}
	return nil, errors.Newf("cannot use %v as %s", v, t)
}
