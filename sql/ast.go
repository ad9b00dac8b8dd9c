package sql

import "github.com/radhaisme/flumebase/lang"

// Statement is the tagged-sum root of the AST: exactly one per
// submission, per spec.md §6.
type Statement interface {
	Pos() Pos
	Format(depth int) string
}

// ColumnDef names one column of a CREATE STREAM declaration.
type ColumnDef struct {
	Name     string
	TypeName string // one of the TkType* lexemes lowercased: "int", "string", ...
	Nullable bool
	CodePos  Pos
}

// SelectStmt is SELECT projection FROM source [JOIN ...] [WHERE ...]
// [GROUP BY ...] [HAVING ...] [WINDOW ...].
type SelectStmt struct {
	CodePos    Pos
	Projection []*SelectItem
	Source     *SourceClause
	Where      Expr // nil if absent
	GroupBy    []Expr
	Having     Expr // nil if absent
	Window     *WindowClause // nil if absent
	Into       string        // named memory output, or "" for console
}

func (s *SelectStmt) Pos() Pos { return s.CodePos }

// SelectItem is one projected expression, with an optional user alias; the
// AssignFieldLabels visitor fills Label when Alias is empty.
type SelectItem struct {
	Expr    Expr
	Alias   string
	Label   string
	CodePos Pos
	Star    bool // true for a bare '*'
}

// SourceClause names the FROM stream and any JOINs chained onto it.
type SourceClause struct {
	CodePos Pos
	Stream  string
	Alias   string
	Joins   []*JoinClause
}

type JoinClause struct {
	CodePos Pos
	Stream  string
	Alias   string
	On      Expr // equality predicate(s), ANDed
}

type WindowClause struct {
	CodePos Pos
	Size    Expr
	Unit    string // e.g. "seconds" — left uninterpreted by the parser
}

// CreateStreamStmt declares a new named stream with a fixed schema,
// mutating the root symbol table rather than producing a flow.
type CreateStreamStmt struct {
	CodePos Pos
	Name    string
	Columns []*ColumnDef
}

func (s *CreateStreamStmt) Pos() Pos { return s.CodePos }

// DropStmt removes a previously declared stream or named memory output.
type DropStmt struct {
	CodePos Pos
	Name    string
}

func (s *DropStmt) Pos() Pos { return s.CodePos }

// ExplainStmt wraps another statement, asking the plan builder to format
// the resulting spec instead of deploying it. Grounded on
// original_source's ExplainStmt.java.
type ExplainStmt struct {
	CodePos Pos
	Child   Statement
}

func (s *ExplainStmt) Pos() Pos { return s.CodePos }

// DescribeStmt reports a declared stream's schema.
type DescribeStmt struct {
	CodePos Pos
	Name    string
}

func (s *DescribeStmt) Pos() Pos { return s.CodePos }

// ShowStmt lists every stream currently declared in the root symbol table.
type ShowStmt struct {
	CodePos Pos
}

func (s *ShowStmt) Pos() Pos { return s.CodePos }

// Expr is the tagged-sum root for value expressions. Every variant
// carries a mutable Type slot, filled in by the type checker and left nil
// until then, per spec.md §3.
type Expr interface {
	Pos() Pos
	ExprType() lang.Type
	SetExprType(t lang.Type)
	Format() string
}

type exprBase struct {
	CodePos  Pos
	typeSlot lang.Type
}

func (e *exprBase) Pos() Pos               { return e.CodePos }
func (e *exprBase) ExprType() lang.Type    { return e.typeSlot }
func (e *exprBase) SetExprType(t lang.Type) { e.typeSlot = t }

// ConstExpr is a literal: NULL, TRUE/FALSE, a number, or a string.
type ConstExpr struct {
	exprBase
	Kind   int // ConstNull, ConstBool, ConstInt, ConstFloat, ConstString
	Bool   bool
	Int    int64
	Float  float64
	String string
}

const (
	ConstNull = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

func (e *ConstExpr) Format() string { return PrintExpr(e) }

// IdentExpr is a (possibly qualified) field reference: `field` or
// `stream.field`.
type IdentExpr struct {
	exprBase
	Qualifier string // "" if unqualified; filled by JoinNameVisitor post-join
	Name      string
}

func (e *IdentExpr) Format() string { return PrintExpr(e) }

// BinaryOp enumerates every binary operator the lattice in package lang
// needs to reason about.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	default:
		return "?"
	}
}

type BinaryExpr struct {
	exprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) Format() string { return PrintExpr(e) }

// UnaryOp enumerates the unary operators spec.md §8's scenarios exercise
// directly: NOT, numeric negate/positive, IS NULL, IS NOT NULL.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpPos
	OpIsNull
	OpIsNotNull
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "NOT"
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	default:
		return "?"
	}
}

type UnaryExpr struct {
	exprBase
	Op   UnaryOp
	Expr Expr
}

func (e *UnaryExpr) Format() string { return PrintExpr(e) }

// FuncCallExpr is a builtin or aggregate function call; resolved against
// the symbol table's function entries during type checking (universal
// instantiation per spec.md §4.1).
type FuncCallExpr struct {
	exprBase
	Name string
	Args []Expr
}

func (e *FuncCallExpr) Format() string { return PrintExpr(e) }
