package sql

// StatementType represents the type of SQL statement.
type StatementType int

const (
	StmtCreate StatementType = iota
	StmtInsert
	StmtSelect
)

type Statement interface {
	Type() StatementType
}

type FieldType int

const (
	TypeInt FieldType = iota
	TypeVarchar
)

type ColumnDef struct {
	Name string
	Type FieldType
}

// CreateTableStatement: CREATE TABLE <name> (col1 type, col2 type)
type CreateTableStatement struct {
	TableName string
	Columns   []ColumnDef
}

func (s *CreateTableStatement) Type() StatementType { return StmtCreate }

// InsertStatement: INSERT INTO <name> VALUES (...)[, (...)]
// Values hold int64 or string.
type InsertStatement struct {
	TableName string
	Rows      [][]interface{}
}

func (s *InsertStatement) Type() StatementType { return StmtInsert }

// JoinClause represents JOIN <table> ON <left> <op> <right>.
type JoinClause struct {
	JoinTable    string
	OnLeftField  string
	Op           string
	OnRightField string
}

// SelectStatement: SELECT <fields|*> FROM <name> [JOIN ...] [WHERE ...]
type SelectStatement struct {
	TableName string
	Fields    []string
	Join      *JoinClause
	Where     []WhereClause
}

func (s *SelectStatement) Type() StatementType { return StmtSelect }

// WhereClause is one "field op literal" conjunct.
type WhereClause struct {
	Field string
	Op    string
	Value interface{}
}
