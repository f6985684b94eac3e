package sql

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
}

func NewParser(l *Lexer) (*Parser, error) {
	p := &Parser{lexer: l}
	// Read two tokens to set up cur and peek.
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse parses a single statement from input.
func Parse(input string) (Statement, error) {
	p, err := NewParser(NewLexer(input))
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

func (p *Parser) nextToken() error {
	p.curToken = p.peekToken
	t, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.peekToken = t
	return nil
}

func (p *Parser) Parse() (Statement, error) {
	var stmt Statement
	var err error
	switch {
	case p.curIs(TokenKeyword, "CREATE"):
		stmt, err = p.parseCreate()
	case p.curIs(TokenKeyword, "INSERT"):
		stmt, err = p.parseInsert()
	case p.curIs(TokenKeyword, "SELECT"):
		stmt, err = p.parseSelect()
	default:
		return nil, errors.Newf("unexpected %s at start of statement", p.curToken)
	}
	if err != nil {
		return nil, err
	}
	if p.peekIs(TokenSymbol, ";") {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	if p.peekToken.Type != TokenEOF {
		return nil, errors.Newf("unexpected %s after statement", p.peekToken)
	}
	return stmt, nil
}

// CREATE TABLE name (col type, ...)
func (p *Parser) parseCreate() (*CreateTableStatement, error) {
	if err := p.expectPeek(TokenKeyword, "TABLE"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenIdentifier, ""); err != nil {
		return nil, err
	}
	stmt := &CreateTableStatement{TableName: p.curToken.Value}
	if err := p.expectPeek(TokenSymbol, "("); err != nil {
		return nil, err
	}

	for {
		if err := p.expectPeek(TokenIdentifier, ""); err != nil {
			return nil, errors.Wrap(err, "expected column name")
		}
		col := ColumnDef{Name: p.curToken.Value}
		if err := p.expectPeek(TokenKeyword, ""); err != nil {
			return nil, errors.Wrapf(err, "expected type of column %s", col.Name)
		}
		switch p.curToken.Value {
		case "INT":
			col.Type = TypeInt
		case "VARCHAR":
			col.Type = TypeVarchar
		default:
			return nil, errors.Newf("unknown type %s", p.curToken.Value)
		}
		stmt.Columns = append(stmt.Columns, col)

		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if p.curIs(TokenSymbol, ")") {
			return stmt, nil
		}
		if !p.curIs(TokenSymbol, ",") {
			return nil, errors.Newf("expected , or ) got %s", p.curToken)
		}
	}
}

// INSERT INTO name VALUES (v1, v2)[, (v1, v2) ...]
func (p *Parser) parseInsert() (*InsertStatement, error) {
	if err := p.expectPeek(TokenKeyword, "INTO"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenIdentifier, ""); err != nil {
		return nil, err
	}
	stmt := &InsertStatement{TableName: p.curToken.Value}
	if err := p.expectPeek(TokenKeyword, "VALUES"); err != nil {
		return nil, err
	}

	for {
		if err := p.expectPeek(TokenSymbol, "("); err != nil {
			return nil, err
		}
		var row []interface{}
		for {
			if err := p.expectPeek(TokenLiteral, ""); err != nil {
				return nil, err
			}
			row = append(row, literalValue(p.curToken))
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			if p.curIs(TokenSymbol, ")") {
				break
			}
			if !p.curIs(TokenSymbol, ",") {
				return nil, errors.Newf("expected , or ) got %s", p.curToken)
			}
		}
		stmt.Rows = append(stmt.Rows, row)

		if !p.peekIs(TokenSymbol, ",") {
			return stmt, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
}

// SELECT * | f1, f2 FROM name [[INNER] JOIN other ON a op b] [WHERE f op v [AND ...]]
func (p *Parser) parseSelect() (*SelectStatement, error) {
	stmt := &SelectStatement{}
	for {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if !p.curIs(TokenSymbol, "*") && p.curToken.Type != TokenIdentifier {
			return nil, errors.Newf("expected field name or *, got %s", p.curToken)
		}
		stmt.Fields = append(stmt.Fields, p.curToken.Value)
		if !p.peekIs(TokenSymbol, ",") {
			break
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}

	if err := p.expectPeek(TokenKeyword, "FROM"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenIdentifier, ""); err != nil {
		return nil, err
	}
	stmt.TableName = p.curToken.Value

	if p.peekIs(TokenKeyword, "INNER") {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if !p.peekIs(TokenKeyword, "JOIN") {
			return nil, errors.Newf("expected JOIN after INNER, got %s", p.peekToken)
		}
	}
	if p.peekIs(TokenKeyword, "JOIN") {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	if p.peekIs(TokenKeyword, "WHERE") {
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		for {
			w, err := p.parseWhere()
			if err != nil {
				return nil, err
			}
			stmt.Where = append(stmt.Where, *w)
			if !p.peekIs(TokenKeyword, "AND") {
				break
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	}
	return stmt, nil
}

// JOIN other ON left op right
func (p *Parser) parseJoin() (*JoinClause, error) {
	if err := p.nextToken(); err != nil { // JOIN
		return nil, err
	}
	if err := p.expectPeek(TokenIdentifier, ""); err != nil {
		return nil, err
	}
	join := &JoinClause{JoinTable: p.curToken.Value}
	if err := p.expectPeek(TokenKeyword, "ON"); err != nil {
		return nil, err
	}
	if err := p.expectPeek(TokenIdentifier, ""); err != nil {
		return nil, err
	}
	join.OnLeftField = p.curToken.Value
	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}
	join.Op = op
	if err := p.expectPeek(TokenIdentifier, ""); err != nil {
		return nil, err
	}
	join.OnRightField = p.curToken.Value
	return join, nil
}

// field op literal
func (p *Parser) parseWhere() (*WhereClause, error) {
	if err := p.expectPeek(TokenIdentifier, ""); err != nil {
		return nil, err
	}
	w := &WhereClause{Field: p.curToken.Value}
	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}
	w.Op = op
	if err := p.expectPeek(TokenLiteral, ""); err != nil {
		return nil, err
	}
	w.Value = literalValue(p.curToken)
	return w, nil
}

func (p *Parser) parseOp() (string, error) {
	if err := p.nextToken(); err != nil {
		return "", err
	}
	switch {
	case p.curToken.Type == TokenSymbol && p.curToken.Value != "," && p.curToken.Value != "(" &&
		p.curToken.Value != ")" && p.curToken.Value != "*" && p.curToken.Value != ";":
		return p.curToken.Value, nil
	case p.curIs(TokenKeyword, "LIKE"):
		return p.curToken.Value, nil
	}
	return "", errors.Newf("expected comparison operator, got %s", p.curToken)
}

// literalValue returns an int64 for unquoted numbers and a string otherwise.
func literalValue(t Token) interface{} {
	if !t.Quoted {
		if v, err := strconv.ParseInt(t.Value, 10, 64); err == nil {
			return v
		}
	}
	return t.Value
}

func (p *Parser) curIs(t TokenType, val string) bool {
	return p.curToken.Type == t && p.curToken.Value == val
}

func (p *Parser) peekIs(t TokenType, val string) bool {
	return p.peekToken.Type == t && p.peekToken.Value == val
}

func (p *Parser) expectPeek(t TokenType, val string) error {
	if p.peekToken.Type != t {
		return errors.Newf("expected %s, got %s", t, p.peekToken)
	}
	if val != "" && p.peekToken.Value != val {
		return errors.Newf("expected %q, got %s", val, p.peekToken)
	}
	return p.nextToken()
}
