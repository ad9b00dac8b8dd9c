package sql

// Grammar (informal EBNF), in the style of the teacher's parser.go header:
//
//   stmt       := selectStmt | createStmt | dropStmt | explainStmt
//               | describeStmt | showStmt
//   selectStmt := SELECT selectList FROM source (WHERE expr)?
//                 (GROUP BY exprList)? (HAVING expr)? (WINDOW windowSpec)?
//   source     := ident (AS? ident)? (JOIN ident (AS? ident)? ON expr)*
//   explainStmt:= EXPLAIN stmt
//   createStmt := CREATE STREAM ident '(' colDef (',' colDef)* ')'
//   dropStmt   := DROP ident
//   describeStmt := DESCRIBE ident
//   showStmt   := SHOW STREAMS
//
//   expr       := orExpr
//   orExpr     := andExpr (OR andExpr)*
//   andExpr    := notExpr (AND notExpr)*
//   notExpr    := NOT notExpr | nullTestExpr
//   nullTestExpr := cmpExpr (IS NOT? NULL)?
//   cmpExpr    := addExpr ((= | <> | < | <= | > | >=) addExpr)?
//   addExpr    := mulExpr ((+ | -) mulExpr)*
//   mulExpr    := unaryExpr ((* | / | %) unaryExpr)*
//   unaryExpr  := (- | +) unaryExpr | primary
//   primary    := literal | ident ('.' ident)? | ident '(' argList? ')'
//               | '(' expr ')'

import (
	"fmt"
	"strings"
)

type Parser struct {
	lex  *Lexer
	tok  int
	errs []string
}

func NewParser(src string) *Parser {
	p := &Parser{lex: NewLexer(src)}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.tok = p.lex.Next()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, fmt.Sprintf("%s: %s", p.lex.pos(), fmt.Sprintf(format, args...)))
}

func (p *Parser) Errors() []string {
	all := append([]string{}, p.lex.Errors()...)
	return append(all, p.errs...)
}

func (p *Parser) expect(tk int, what string) Pos {
	pos := p.lex.pos()
	if p.tok != tk {
		p.errorf("expected %s", what)
		return pos
	}
	p.advance()
	return pos
}

func (p *Parser) expectIdent(what string) (string, Pos) {
	pos := p.lex.pos()
	if p.tok != TkIdent {
		p.errorf("expected %s", what)
		return "", pos
	}
	text := p.lex.Lexeme.Text
	p.advance()
	return text, pos
}

// ParseStatement parses exactly one statement and returns nil if any
// syntax error was recorded.
func (p *Parser) ParseStatement() Statement {
	stmt := p.parseStatement()
	if len(p.Errors()) > 0 {
		return nil
	}
	return stmt
}

func (p *Parser) parseStatement() Statement {
	switch p.tok {
	case TkSelect:
		return p.parseSelect()
	case TkCreate:
		return p.parseCreateStream()
	case TkDrop:
		return p.parseDrop()
	case TkExplain:
		return p.parseExplain()
	case TkDescribe:
		return p.parseDescribe()
	case TkShow:
		return p.parseShow()
	default:
		p.errorf("expected a statement (SELECT, CREATE STREAM, DROP, EXPLAIN, DESCRIBE, or SHOW)")
		return nil
	}
}

func (p *Parser) parseExplain() Statement {
	pos := p.expect(TkExplain, "EXPLAIN")
	child := p.parseStatement()
	if child == nil {
		return nil
	}
	return &ExplainStmt{CodePos: pos, Child: child}
}

func (p *Parser) parseDescribe() Statement {
	pos := p.expect(TkDescribe, "DESCRIBE")
	name, _ := p.expectIdent("a stream name")
	return &DescribeStmt{CodePos: pos, Name: name}
}

func (p *Parser) parseShow() Statement {
	pos := p.expect(TkShow, "SHOW")
	p.expect(TkStreams, "STREAMS")
	return &ShowStmt{CodePos: pos}
}

func (p *Parser) parseDrop() Statement {
	pos := p.expect(TkDrop, "DROP")
	name, _ := p.expectIdent("a stream name")
	return &DropStmt{CodePos: pos, Name: name}
}

func typeKeywordName(tok int) string {
	switch tok {
	case TkTypeBoolean:
		return "boolean"
	case TkTypeInt:
		return "int"
	case TkTypeBigint:
		return "bigint"
	case TkTypeFloat:
		return "float"
	case TkTypeDouble:
		return "double"
	case TkTypeString:
		return "string"
	case TkTypeTimestamp:
		return "timestamp"
	case TkTypeTimespan:
		return "timespan"
	default:
		return ""
	}
}

func (p *Parser) parseCreateStream() Statement {
	pos := p.expect(TkCreate, "CREATE")
	p.expect(TkStream, "STREAM")
	name, _ := p.expectIdent("a stream name")
	p.expect(TkLParen, "'('")

	var cols []*ColumnDef
	for {
		colPos := p.lex.pos()
		colName, _ := p.expectIdent("a column name")
		typeName := typeKeywordName(p.tok)
		if typeName == "" {
			p.errorf("expected a column type")
		} else {
			p.advance()
		}
		nullable := true
		cols = append(cols, &ColumnDef{Name: colName, TypeName: typeName, Nullable: nullable, CodePos: colPos})
		if p.tok == TkComma {
			p.advance()
			continue
		}
		break
	}
	p.expect(TkRParen, "')'")
	return &CreateStreamStmt{CodePos: pos, Name: name, Columns: cols}
}

func (p *Parser) parseSelect() Statement {
	pos := p.expect(TkSelect, "SELECT")

	var items []*SelectItem
	idx := 0
	for {
		itemPos := p.lex.pos()
		if p.tok == TkStar {
			p.advance()
			items = append(items, &SelectItem{CodePos: itemPos, Star: true})
		} else {
			idx++
			e := p.parseExpr()
			alias := ""
			if p.tok == TkAs {
				p.advance()
				alias, _ = p.expectIdent("an alias")
			}
			items = append(items, &SelectItem{Expr: e, Alias: alias, CodePos: itemPos})
		}
		if p.tok == TkComma {
			p.advance()
			continue
		}
		break
	}

	p.expect(TkFrom, "FROM")
	source := p.parseSource()

	stmt := &SelectStmt{CodePos: pos, Projection: items, Source: source}

	if p.tok == TkWhere {
		p.advance()
		stmt.Where = p.parseExpr()
	}
	if p.tok == TkGroup {
		p.advance()
		p.expect(TkBy, "BY")
		stmt.GroupBy = p.parseExprList()
	}
	if p.tok == TkHaving {
		p.advance()
		stmt.Having = p.parseExpr()
	}
	if p.tok == TkWindow {
		winPos := p.lex.pos()
		p.advance()
		size := p.parseExpr()
		unit, _ := p.expectIdent("a time unit")
		stmt.Window = &WindowClause{CodePos: winPos, Size: size, Unit: strings.ToLower(unit)}
	}
	return stmt
}

func (p *Parser) parseSource() *SourceClause {
	pos := p.lex.pos()
	stream, _ := p.expectIdent("a stream name")
	alias := p.parseOptionalAlias()
	src := &SourceClause{CodePos: pos, Stream: stream, Alias: alias}

	for p.tok == TkJoin {
		joinPos := p.lex.pos()
		p.advance()
		joinStream, _ := p.expectIdent("a stream name")
		joinAlias := p.parseOptionalAlias()
		p.expect(TkOn, "ON")
		on := p.parseExpr()
		src.Joins = append(src.Joins, &JoinClause{CodePos: joinPos, Stream: joinStream, Alias: joinAlias, On: on})
	}
	return src
}

func (p *Parser) parseOptionalAlias() string {
	if p.tok == TkAs {
		p.advance()
		name, _ := p.expectIdent("an alias")
		return name
	}
	if p.tok == TkIdent {
		name := p.lex.Lexeme.Text
		p.advance()
		return name
	}
	return ""
}

func (p *Parser) parseExprList() []Expr {
	var list []Expr
	list = append(list, p.parseExpr())
	for p.tok == TkComma {
		p.advance()
		list = append(list, p.parseExpr())
	}
	return list
}

func (p *Parser) parseExpr() Expr { return p.parseOr() }

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for p.tok == TkOr {
		pos := p.lex.pos()
		p.advance()
		right := p.parseAnd()
		left = &BinaryExpr{exprBase: exprBase{CodePos: pos}, Op: OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseNot()
	for p.tok == TkAnd {
		pos := p.lex.pos()
		p.advance()
		right := p.parseNot()
		left = &BinaryExpr{exprBase: exprBase{CodePos: pos}, Op: OpAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseNot() Expr {
	if p.tok == TkNot {
		pos := p.lex.pos()
		p.advance()
		inner := p.parseNot()
		return &UnaryExpr{exprBase: exprBase{CodePos: pos}, Op: OpNot, Expr: inner}
	}
	return p.parseNullTest()
}

func (p *Parser) parseNullTest() Expr {
	e := p.parseCmp()
	if p.tok == TkIs {
		pos := p.lex.pos()
		p.advance()
		if p.tok == TkNot {
			p.advance()
			p.expect(TkNull, "NULL")
			return &UnaryExpr{exprBase: exprBase{CodePos: pos}, Op: OpIsNotNull, Expr: e}
		}
		p.expect(TkNull, "NULL")
		return &UnaryExpr{exprBase: exprBase{CodePos: pos}, Op: OpIsNull, Expr: e}
	}
	return e
}

func (p *Parser) parseCmp() Expr {
	left := p.parseAdd()
	var op BinaryOp
	switch p.tok {
	case TkEq:
		op = OpEq
	case TkNe:
		op = OpNe
	case TkLt:
		op = OpLt
	case TkLe:
		op = OpLe
	case TkGt:
		op = OpGt
	case TkGe:
		op = OpGe
	default:
		return left
	}
	pos := p.lex.pos()
	p.advance()
	right := p.parseAdd()
	return &BinaryExpr{exprBase: exprBase{CodePos: pos}, Op: op, Left: left, Right: right}
}

func (p *Parser) parseAdd() Expr {
	left := p.parseMul()
	for p.tok == TkPlus || p.tok == TkMinus {
		op := OpAdd
		if p.tok == TkMinus {
			op = OpSub
		}
		pos := p.lex.pos()
		p.advance()
		right := p.parseMul()
		left = &BinaryExpr{exprBase: exprBase{CodePos: pos}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMul() Expr {
	left := p.parseUnary()
	for p.tok == TkStar || p.tok == TkSlash || p.tok == TkPercent {
		var op BinaryOp
		switch p.tok {
		case TkStar:
			op = OpMul
		case TkSlash:
			op = OpDiv
		default:
			op = OpMod
		}
		pos := p.lex.pos()
		p.advance()
		right := p.parseUnary()
		left = &BinaryExpr{exprBase: exprBase{CodePos: pos}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	switch p.tok {
	case TkMinus:
		pos := p.lex.pos()
		p.advance()
		return &UnaryExpr{exprBase: exprBase{CodePos: pos}, Op: OpNeg, Expr: p.parseUnary()}
	case TkPlus:
		pos := p.lex.pos()
		p.advance()
		return &UnaryExpr{exprBase: exprBase{CodePos: pos}, Op: OpPos, Expr: p.parseUnary()}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() Expr {
	pos := p.lex.pos()
	switch p.tok {
	case TkIntLit:
		v := p.lex.Lexeme.Int
		p.advance()
		return &ConstExpr{exprBase: exprBase{CodePos: pos}, Kind: ConstInt, Int: v}
	case TkFloatLit:
		v := p.lex.Lexeme.Real
		p.advance()
		return &ConstExpr{exprBase: exprBase{CodePos: pos}, Kind: ConstFloat, Float: v}
	case TkStringLit:
		v := p.lex.Lexeme.Text
		p.advance()
		return &ConstExpr{exprBase: exprBase{CodePos: pos}, Kind: ConstString, String: v}
	case TkTrue:
		p.advance()
		return &ConstExpr{exprBase: exprBase{CodePos: pos}, Kind: ConstBool, Bool: true}
	case TkFalse:
		p.advance()
		return &ConstExpr{exprBase: exprBase{CodePos: pos}, Kind: ConstBool, Bool: false}
	case TkNull:
		p.advance()
		return &ConstExpr{exprBase: exprBase{CodePos: pos}, Kind: ConstNull}
	case TkLParen:
		p.advance()
		e := p.parseExpr()
		p.expect(TkRParen, "')'")
		return e
	case TkIdent:
		name := p.lex.Lexeme.Text
		p.advance()
		if p.tok == TkLParen {
			p.advance()
			var args []Expr
			if p.tok != TkRParen {
				args = p.parseExprList()
			}
			p.expect(TkRParen, "')'")
			return &FuncCallExpr{exprBase: exprBase{CodePos: pos}, Name: name, Args: args}
		}
		if p.tok == TkDot {
			p.advance()
			field, _ := p.expectIdent("a field name")
			return &IdentExpr{exprBase: exprBase{CodePos: pos}, Qualifier: name, Name: field}
		}
		return &IdentExpr{exprBase: exprBase{CodePos: pos}, Name: name}
	default:
		p.errorf("expected an expression")
		return &ConstExpr{exprBase: exprBase{CodePos: pos}, Kind: ConstNull}
	}
}
