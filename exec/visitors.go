package exec

import (
	"fmt"

	"github.com/radhaisme/flumebase/lang"
	"github.com/radhaisme/flumebase/sql"
)

// JoinKey pairs one equality predicate's left/right operands with the side
// of the join each belongs to, per spec.md §4.2's JoinKeyVisitor.
type JoinKey struct {
	Left  sql.Expr
	Right sql.Expr
}

// Elaborated carries every result the visitor pipeline produces for one
// SELECT statement, threaded from AssignFieldLabels through JoinNameVisitor.
type Elaborated struct {
	Labels   map[sql.Expr]string
	JoinKeys map[*sql.JoinClause][]*JoinKey
}

// Elaborate runs the fixed four-pass pipeline from spec.md §4.2 over a
// single SELECT statement and aggregates the first failure, matching the
// teacher's restraint around panics: a pipeline failure is a returned
// error, never a panic, outside of truly unreachable switch arms.
func Elaborate(stmt *sql.SelectStmt, root *SymbolTable) (*Elaborated, error) {
	scope, err := buildScope(stmt, root)
	if err != nil {
		return nil, err
	}

	elaborated := &Elaborated{
		Labels:   make(map[sql.Expr]string),
		JoinKeys: make(map[*sql.JoinClause][]*JoinKey),
	}

	if err := assignFieldLabels(stmt, elaborated); err != nil {
		return nil, err
	}
	if err := typeCheck(stmt, scope); err != nil {
		return nil, err
	}
	if err := resolveJoinKeys(stmt, elaborated, root); err != nil {
		return nil, err
	}
	qualifyFieldNames(stmt, scope)

	return elaborated, nil
}

// buildScope resolves the FROM clause (and any JOINs) against root and
// builds the SymbolTable a SELECT statement's expressions are checked
// against: one child scope per source stream, nested under root.
func buildScope(stmt *sql.SelectStmt, root *SymbolTable) (*SymbolTable, error) {
	scope := NewSymbolTable(root)

	addStream := func(name, alias string) error {
		sym, ok := root.Resolve(name)
		if !ok || sym.Kind != SymStream {
			return NewPlanError("no such stream %q", name)
		}
		qualifier := alias
		if qualifier == "" {
			qualifier = name
		}
		for _, fieldName := range sym.Fields.Names() {
			field, _ := sym.Fields.Resolve(fieldName)
			scope.Define(&Symbol{Name: fieldName, Kind: SymField, Type: field.Type})
			scope.Define(&Symbol{Name: qualifier + "." + fieldName, Kind: SymField, Type: field.Type})
		}
		return nil
	}

	if err := addStream(stmt.Source.Stream, stmt.Source.Alias); err != nil {
		return nil, err
	}
	for _, j := range stmt.Source.Joins {
		if err := addStream(j.Stream, j.Alias); err != nil {
			return nil, err
		}
	}
	return scope, nil
}

// assignFieldLabels assigns a canonical label to every projected
// expression: the user alias if present, else an auto-generated label,
// with _2/_3 suffixing on collision, per spec.md §4.2 pass 1.
func assignFieldLabels(stmt *sql.SelectStmt, out *Elaborated) error {
	seen := make(map[string]int)
	label := func(preferred string) string {
		n := seen[preferred]
		seen[preferred]++
		if n == 0 {
			return preferred
		}
		return fmt.Sprintf("%s_%d", preferred, n+1)
	}

	for i, item := range stmt.Projection {
		if item.Star {
			continue
		}
		preferred := item.Alias
		if preferred == "" {
			preferred = autoLabel(item.Expr, i)
		}
		item.Label = label(preferred)
		out.Labels[item.Expr] = item.Label
	}
	return nil
}

func autoLabel(e sql.Expr, index int) string {
	switch v := e.(type) {
	case *sql.IdentExpr:
		return v.Name
	case *sql.FuncCallExpr:
		return v.Name
	default:
		return fmt.Sprintf("col%d", index+1)
	}
}

// typeCheck walks every expression in the statement bottom-up, filling in
// each node's type slot, per spec.md §4.2 pass 2.
func typeCheck(stmt *sql.SelectStmt, scope *SymbolTable) error {
	for _, item := range stmt.Projection {
		if item.Star {
			continue
		}
		if _, err := checkExpr(item.Expr, scope); err != nil {
			return err
		}
	}
	for _, j := range stmt.Source.Joins {
		if _, err := checkExpr(j.On, scope); err != nil {
			return err
		}
	}
	if stmt.Where != nil {
		t, err := checkExpr(stmt.Where, scope)
		if err != nil {
			return err
		}
		if !promotesToBoolean(t) {
			return NewTypeError(stmt.Where, "WHERE clause must be BOOLEAN, got %s", t)
		}
	}
	for _, g := range stmt.GroupBy {
		if _, err := checkExpr(g, scope); err != nil {
			return err
		}
	}
	if stmt.Having != nil {
		if _, err := checkExpr(stmt.Having, scope); err != nil {
			return err
		}
	}
	return nil
}

func promotesToBoolean(t lang.Type) bool {
	return t.PromotesTo(lang.Primitive(lang.BOOLEAN)) || lang.Equal(t, lang.Nullable(lang.Primitive(lang.BOOLEAN)))
}

// checkExpr recursively types a single expression and records the result
// in its type slot.
func checkExpr(e sql.Expr, scope *SymbolTable) (lang.Type, error) {
	switch v := e.(type) {
	case *sql.ConstExpr:
		t := constType(v)
		v.SetExprType(t)
		return t, nil

	case *sql.IdentExpr:
		name := v.Name
		if v.Qualifier != "" {
			name = v.Qualifier + "." + v.Name
		}
		sym, ok := scope.Resolve(name)
		if !ok || sym.Kind != SymField {
			return nil, NewTypeError(v, "unresolved field reference %q", name)
		}
		v.SetExprType(sym.Type)
		return sym.Type, nil

	case *sql.UnaryExpr:
		return checkUnary(v, scope)

	case *sql.BinaryExpr:
		return checkBinary(v, scope)

	case *sql.FuncCallExpr:
		return checkFuncCall(v, scope)

	default:
		return nil, NewTypeError(e, "unsupported expression kind")
	}
}

func constType(c *sql.ConstExpr) lang.Type {
	switch c.Kind {
	case sql.ConstNull:
		return lang.Primitive(lang.NULL)
	case sql.ConstBool:
		return lang.Primitive(lang.BOOLEAN)
	case sql.ConstInt:
		return lang.Primitive(lang.BIGINT)
	case sql.ConstFloat:
		return lang.Primitive(lang.DOUBLE)
	case sql.ConstString:
		return lang.Primitive(lang.STRING)
	default:
		panic("unreachable")
	}
}

func checkUnary(v *sql.UnaryExpr, scope *SymbolTable) (lang.Type, error) {
	inner, err := checkExpr(v.Expr, scope)
	if err != nil {
		return nil, err
	}
	switch v.Op {
	case sql.OpNot:
		if !promotesToBoolean(inner) {
			return nil, NewTypeError(v, "NOT requires a BOOLEAN operand, got %s", inner)
		}
		v.SetExprType(inner)
		return inner, nil
	case sql.OpNeg, sql.OpPos:
		if !inner.PromotesTo(lang.Numeric) {
			return nil, NewTypeError(v, "%s requires a numeric operand, got %s", v.Op, inner)
		}
		v.SetExprType(inner)
		return inner, nil
	case sql.OpIsNull, sql.OpIsNotNull:
		result := lang.Primitive(lang.BOOLEAN)
		v.SetExprType(result)
		return result, nil
	default:
		panic("unreachable")
	}
}

func checkBinary(v *sql.BinaryExpr, scope *SymbolTable) (lang.Type, error) {
	lt, err := checkExpr(v.Left, scope)
	if err != nil {
		return nil, err
	}
	rt, err := checkExpr(v.Right, scope)
	if err != nil {
		return nil, err
	}

	switch v.Op {
	case sql.OpAnd, sql.OpOr:
		if !promotesToBoolean(lt) || !promotesToBoolean(rt) {
			return nil, NewTypeError(v, "%s requires BOOLEAN operands, got %s and %s", v.Op, lt, rt)
		}
		result := lang.Primitive(lang.BOOLEAN)
		v.SetExprType(result)
		return result, nil

	case sql.OpAdd, sql.OpSub, sql.OpMul, sql.OpDiv, sql.OpMod:
		m, err := lang.Meet(lt, rt)
		if err != nil || !m.PromotesTo(lang.Numeric) {
			return nil, NewTypeError(v, "%s requires numeric operands, got %s and %s", v.Op, lt, rt)
		}
		v.SetExprType(m)
		return m, nil

	case sql.OpEq, sql.OpNe, sql.OpLt, sql.OpLe, sql.OpGt, sql.OpGe:
		if _, err := lang.Meet(lt, rt); err != nil {
			return nil, NewTypeError(v, "cannot compare %s and %s", lt, rt)
		}
		result := lang.Primitive(lang.BOOLEAN)
		v.SetExprType(result)
		return result, nil

	default:
		panic("unreachable")
	}
}

func checkFuncCall(v *sql.FuncCallExpr, scope *SymbolTable) (lang.Type, error) {
	sym, ok := scope.Resolve(v.Name)
	if !ok || sym.Kind != SymFunction {
		return nil, NewTypeError(v, "unresolved function %q", v.Name)
	}
	sig := sym.Func
	if len(v.Args) != len(sig.Params) {
		return nil, NewTypeError(v, "function %q expects %d argument(s), got %d", v.Name, len(sig.Params), len(v.Args))
	}

	sub := lang.NewSubstitution()
	var argTypes []lang.Type
	for _, arg := range v.Args {
		t, err := checkExpr(arg, scope)
		if err != nil {
			return nil, err
		}
		argTypes = append(argTypes, t)
	}

	var resolved []lang.Type
	for i, param := range sig.Params {
		candidate, err := param.Resolve([]lang.Type{argTypes[i]})
		if err != nil {
			return nil, NewTypeError(v, "%s", err)
		}
		if err := sub.Bind(param, candidate); err != nil {
			return nil, NewTypeError(v, "%s", err)
		}
		resolved = append(resolved, candidate)
	}

	var result lang.Type
	if sig.Return != nil {
		result = sig.Return
	} else {
		result = resolved[sig.ReturnsParam]
	}
	v.SetExprType(result)
	return result, nil
}

// resolveJoinKeys pairs each join's ON-clause equality predicates with
// their left/right operands, per spec.md §4.2 pass 3. Any predicate not
// shaped as `left_field = right_field` fails. The operands are oriented by
// which input stream each field actually belongs to, not by the order the
// ON clause happens to write them in.
func resolveJoinKeys(stmt *sql.SelectStmt, out *Elaborated, root *SymbolTable) error {
	for _, j := range stmt.Source.Joins {
		keys, err := collectEqualityKeys(j.On, stmt, j, root)
		if err != nil {
			return err
		}
		out.JoinKeys[j] = keys
	}
	return nil
}

func collectEqualityKeys(e sql.Expr, stmt *sql.SelectStmt, j *sql.JoinClause, root *SymbolTable) ([]*JoinKey, error) {
	bin, ok := e.(*sql.BinaryExpr)
	if !ok {
		return nil, NewTypeError(e, "join condition must be an equality or a conjunction of equalities")
	}
	if bin.Op == sql.OpAnd {
		left, err := collectEqualityKeys(bin.Left, stmt, j, root)
		if err != nil {
			return nil, err
		}
		right, err := collectEqualityKeys(bin.Right, stmt, j, root)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}
	if bin.Op != sql.OpEq {
		return nil, NewTypeError(e, "join condition must use equality, got %s", bin.Op)
	}
	leftIdent, ok := bin.Left.(*sql.IdentExpr)
	if !ok {
		return nil, NewTypeError(e, "left side of join equality must be a field reference")
	}
	rightIdent, ok := bin.Right.(*sql.IdentExpr)
	if !ok {
		return nil, NewTypeError(e, "right side of join equality must be a field reference")
	}

	leftSide, err := joinOperandSide(leftIdent, stmt, j, root)
	if err != nil {
		return nil, err
	}
	rightSide, err := joinOperandSide(rightIdent, stmt, j, root)
	if err != nil {
		return nil, err
	}
	if leftSide == rightSide {
		return nil, NewTypeError(e, "join equality must reference one field from each side of %q, got two from the %s side", j.Stream, leftSide)
	}

	// Orient to the physical left (already in scope) / right (j's stream)
	// inputs regardless of which order the ON clause wrote them in.
	if leftSide == joinSideRight {
		bin.Left, bin.Right = bin.Right, bin.Left
	}
	return []*JoinKey{{Left: bin.Left, Right: bin.Right}}, nil
}

const (
	joinSideLeft  = "left"
	joinSideRight = "right"
)

// joinOperandSide reports whether ident names a field of the stream already
// in scope before j (the "left" side of j) or of j's own stream (the
// "right" side), per spec.md §4.2 pass 3. A qualifier, when present, is
// checked first against each side's stream name/alias; an unqualified
// ident instead falls back to checking which stream's declared schema
// defines the field.
func joinOperandSide(ident *sql.IdentExpr, stmt *sql.SelectStmt, j *sql.JoinClause, root *SymbolTable) (string, error) {
	rightName, rightAlias := j.Stream, j.Alias

	if ident.Qualifier != "" {
		if ident.Qualifier == rightName || (rightAlias != "" && ident.Qualifier == rightAlias) {
			return joinSideRight, nil
		}
		if streamQualifierInScope(ident.Qualifier, stmt, j) {
			return joinSideLeft, nil
		}
		return "", NewTypeError(ident, "join field qualifier %q does not match any input stream", ident.Qualifier)
	}

	inRight := streamHasField(root, rightName, ident.Name)
	inLeft := false
	for _, name := range leftStreamNames(stmt, j) {
		if streamHasField(root, name, ident.Name) {
			inLeft = true
			break
		}
	}
	switch {
	case inLeft && !inRight:
		return joinSideLeft, nil
	case inRight && !inLeft:
		return joinSideRight, nil
	case inLeft && inRight:
		return "", NewTypeError(ident, "ambiguous join field %q: qualify with a stream name", ident.Name)
	default:
		return "", NewTypeError(ident, "unresolved join field %q", ident.Name)
	}
}

// leftStreamNames lists every stream already in scope before j: the
// driving FROM-clause stream plus any earlier joins in a multi-way chain.
func leftStreamNames(stmt *sql.SelectStmt, j *sql.JoinClause) []string {
	names := []string{stmt.Source.Stream}
	for _, other := range stmt.Source.Joins {
		if other == j {
			break
		}
		names = append(names, other.Stream)
	}
	return names
}

// streamQualifierInScope reports whether qualifier names the stream or
// alias of stmt's driving stream or any join already in scope before j.
func streamQualifierInScope(qualifier string, stmt *sql.SelectStmt, j *sql.JoinClause) bool {
	if qualifier == stmt.Source.Stream || (stmt.Source.Alias != "" && qualifier == stmt.Source.Alias) {
		return true
	}
	for _, other := range stmt.Source.Joins {
		if other == j {
			break
		}
		if qualifier == other.Stream || (other.Alias != "" && qualifier == other.Alias) {
			return true
		}
	}
	return false
}

func streamHasField(root *SymbolTable, streamName, fieldName string) bool {
	sym, ok := root.Resolve(streamName)
	if !ok || sym.Kind != SymStream {
		return false
	}
	_, ok = sym.Fields.Resolve(fieldName)
	return ok
}

// qualifyFieldNames rewrites every unqualified IdentExpr remaining after
// the join pass to carry an explicit stream qualifier, so the physical
// builder never has to re-resolve ambiguity, per spec.md §4.2 pass 4.
func qualifyFieldNames(stmt *sql.SelectStmt, scope *SymbolTable) {
	if len(stmt.Source.Joins) == 0 {
		return
	}
	var walk func(e sql.Expr)
	walk = func(e sql.Expr) {
		switch v := e.(type) {
		case *sql.IdentExpr:
			if v.Qualifier == "" {
				if sym, ok := scope.Resolve(v.Name); ok && sym.Kind == SymField {
					v.Qualifier = stmt.Source.Stream
				}
			}
		case *sql.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *sql.UnaryExpr:
			walk(v.Expr)
		case *sql.FuncCallExpr:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	for _, item := range stmt.Projection {
		if !item.Star {
			walk(item.Expr)
		}
	}
	if stmt.Where != nil {
		walk(stmt.Where)
	}
}
