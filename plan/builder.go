package plan

import (
	"fmt"

	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/lang"
	"github.com/radhaisme/flumebase/sql"
)

// CreateExecPlan dispatches per statement variant, per spec.md §4.3.
// DDL statements mutate ctx.Root and return an empty FlowSpecification.
// EXPLAIN runs the same pipeline as its child but flags the result
// context so the caller stringifies the spec instead of deploying it.
func CreateExecPlan(stmt sql.Statement, ctx *PlanContext) (*FlowSpecification, error) {
	switch v := stmt.(type) {
	case *sql.SelectStmt:
		return planSelect(v, ctx)
	case *sql.CreateStreamStmt:
		return planCreateStream(v, ctx)
	case *sql.DropStmt:
		return planDrop(v, ctx)
	case *sql.ExplainStmt:
		return planExplain(v, ctx)
	case *sql.DescribeStmt:
		return planDescribe(v, ctx)
	case *sql.ShowStmt:
		return planShow(v, ctx)
	default:
		return nil, ctx.err("createExecPlan", "unsupported statement type %T", stmt)
	}
}

func planExplain(stmt *sql.ExplainStmt, ctx *PlanContext) (*FlowSpecification, error) {
	childCtx := ctx.child()
	childSpec, err := CreateExecPlan(stmt.Child, childCtx)
	if err != nil {
		return nil, err
	}

	ctx.MsgBuilder.WriteString("Parse tree:\n")
	ctx.MsgBuilder.WriteString(stmt.Child.Format(0))
	ctx.MsgBuilder.WriteString("\n")
	ctx.MsgBuilder.WriteString("Execution plan:\n")
	ctx.MsgBuilder.WriteString(FormatSpec(childSpec))

	ctx.Explain = true
	return NewFlowSpecification(), nil
}

func planCreateStream(stmt *sql.CreateStreamStmt, ctx *PlanContext) (*FlowSpecification, error) {
	if _, ok := ctx.Root.Resolve(stmt.Name); ok {
		return nil, ctx.err("createStream", "stream %q is already declared", stmt.Name)
	}
	fields := exec.NewSymbolTable(nil)
	for _, col := range stmt.Columns {
		t, err := columnType(col)
		if err != nil {
			return nil, err
		}
		fields.Define(&exec.Symbol{Name: col.Name, Kind: exec.SymField, Type: t})
	}
	ctx.Root.Define(&exec.Symbol{Name: stmt.Name, Kind: exec.SymStream, Fields: fields})
	fmt.Fprintf(ctx.MsgBuilder, "Stream %q created.\n", stmt.Name)
	return NewFlowSpecification(), nil
}

func columnType(col *sql.ColumnDef) (lang.Type, error) {
	var base lang.Type
	switch col.TypeName {
	case "boolean":
		base = lang.Primitive(lang.BOOLEAN)
	case "int":
		base = lang.Primitive(lang.INT)
	case "bigint":
		base = lang.Primitive(lang.BIGINT)
	case "float":
		base = lang.Primitive(lang.FLOAT)
	case "double":
		base = lang.Primitive(lang.DOUBLE)
	case "string":
		base = lang.Primitive(lang.STRING)
	case "timestamp":
		base = lang.Primitive(lang.TIMESTAMP)
	case "timespan":
		base = lang.Primitive(lang.TIMESPAN)
	default:
		return nil, exec.NewPlanError("unknown column type %q for column %q", col.TypeName, col.Name)
	}
	if col.Nullable {
		return lang.Nullable(base), nil
	}
	return base, nil
}

func planDrop(stmt *sql.DropStmt, ctx *PlanContext) (*FlowSpecification, error) {
	if _, ok := ctx.Root.Resolve(stmt.Name); !ok {
		return nil, ctx.err("drop", "no such stream or output %q", stmt.Name)
	}
	ctx.Root.Undefine(stmt.Name)
	fmt.Fprintf(ctx.MsgBuilder, "%q dropped.\n", stmt.Name)
	return NewFlowSpecification(), nil
}

func planDescribe(stmt *sql.DescribeStmt, ctx *PlanContext) (*FlowSpecification, error) {
	sym, ok := ctx.Root.Resolve(stmt.Name)
	if !ok || sym.Kind != exec.SymStream {
		return nil, ctx.err("describe", "no such stream %q", stmt.Name)
	}
	fmt.Fprintf(ctx.MsgBuilder, "%s:\n", stmt.Name)
	for _, fieldName := range sym.Fields.Names() {
		field, _ := sym.Fields.Resolve(fieldName)
		fmt.Fprintf(ctx.MsgBuilder, "  %s %s\n", field.Name, field.Type)
	}
	return NewFlowSpecification(), nil
}

func planShow(stmt *sql.ShowStmt, ctx *PlanContext) (*FlowSpecification, error) {
	ctx.MsgBuilder.WriteString("Streams:\n")
	for _, name := range ctx.Root.Names() {
		if sym, ok := ctx.Root.Resolve(name); ok && sym.Kind == exec.SymStream {
			fmt.Fprintf(ctx.MsgBuilder, "  %s\n", name)
		}
	}
	return NewFlowSpecification(), nil
}

// planSelect lowers a SELECT into source(s) -> optional filter -> optional
// join -> optional aggregate -> projection -> terminal sink, per
// spec.md §4.3, in the staged-construction style of the teacher's
// planner.go (planPrepare -> planTableScan -> planJoin -> ...).
func planSelect(stmt *sql.SelectStmt, ctx *PlanContext) (*FlowSpecification, error) {
	elaborated, err := exec.Elaborate(stmt, ctx.Root)
	if err != nil {
		return nil, err
	}

	spec := NewFlowSpecification()

	tail, err := planSource(stmt, ctx, spec)
	if err != nil {
		return nil, err
	}
	tail, err = planJoin(stmt, ctx, elaborated, spec, tail)
	if err != nil {
		return nil, err
	}
	tail, err = planFilter(stmt, ctx, tail)
	if err != nil {
		return nil, err
	}
	tail, err = planAggregate(stmt, ctx, tail)
	if err != nil {
		return nil, err
	}
	tail, err = planProject(stmt, ctx, tail)
	if err != nil {
		return nil, err
	}
	if err := planSink(stmt, ctx, tail); err != nil {
		return nil, err
	}

	if err := PropagateSchemas(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func planSource(stmt *sql.SelectStmt, ctx *PlanContext, spec *FlowSpecification) (*Node, error) {
	sym, ok := ctx.Root.Resolve(stmt.Source.Stream)
	if !ok || sym.Kind != exec.SymStream {
		return nil, ctx.err("planSource", "no such stream %q", stmt.Source.Stream)
	}
	root := &Node{Kind: NodeSource, StreamName: stmt.Source.Stream, OutputSchema: streamSchema(sym)}
	spec.AddRoot(root)
	return root, nil
}

func streamSchema(sym *exec.Symbol) Schema {
	var out Schema
	for _, name := range sym.Fields.Names() {
		field, _ := sym.Fields.Resolve(name)
		out = append(out, FieldDef{Name: name, Type: field.Type})
	}
	return out
}

func planJoin(stmt *sql.SelectStmt, ctx *PlanContext, elaborated *exec.Elaborated, spec *FlowSpecification, left *Node) (*Node, error) {
	if len(stmt.Source.Joins) == 0 {
		return left, nil
	}
	cur := left
	for _, j := range stmt.Source.Joins {
		sym, ok := ctx.Root.Resolve(j.Stream)
		if !ok || sym.Kind != exec.SymStream {
			return nil, ctx.err("planJoin", "no such stream %q", j.Stream)
		}
		rightSrc := &Node{Kind: NodeSource, StreamName: j.Stream, OutputSchema: streamSchema(sym)}
		spec.AddRoot(rightSrc)

		joinNode := &Node{Kind: NodeJoin, JoinKeys: elaborated.JoinKeys[j]}
		cur.AddChild(joinNode)
		rightSrc.AddChild(joinNode)
		cur = joinNode
	}
	return cur, nil
}

func planFilter(stmt *sql.SelectStmt, ctx *PlanContext, input *Node) (*Node, error) {
	if stmt.Where == nil {
		return input, nil
	}
	n := &Node{Kind: NodeFilter, FilterExpr: stmt.Where}
	input.AddChild(n)
	return n, nil
}

func planAggregate(stmt *sql.SelectStmt, ctx *PlanContext, input *Node) (*Node, error) {
	if len(stmt.GroupBy) == 0 && !hasAggregate(stmt.Projection) {
		return input, nil
	}
	n := &Node{Kind: NodeAggregate, GroupBy: stmt.GroupBy, Having: stmt.Having, AggItems: stmt.Projection}
	input.AddChild(n)
	return n, nil
}

func hasAggregate(items []*sql.SelectItem) bool {
	var contains func(e sql.Expr) bool
	contains = func(e sql.Expr) bool {
		switch v := e.(type) {
		case *sql.FuncCallExpr:
			if sql.IsAggFunc(v.Name) {
				return true
			}
			for _, a := range v.Args {
				if contains(a) {
					return true
				}
			}
		case *sql.BinaryExpr:
			return contains(v.Left) || contains(v.Right)
		case *sql.UnaryExpr:
			return contains(v.Expr)
		}
		return false
	}
	for _, item := range items {
		if !item.Star && contains(item.Expr) {
			return true
		}
	}
	return false
}

func planProject(stmt *sql.SelectStmt, ctx *PlanContext, input *Node) (*Node, error) {
	n := &Node{Kind: NodeProject, ProjectItems: stmt.Projection}
	input.AddChild(n)
	return n, nil
}

func planSink(stmt *sql.SelectStmt, ctx *PlanContext, input *Node) error {
	if stmt.Into != "" {
		n := &Node{Kind: NodeMemoryOutput, MemoryName: stmt.Into}
		input.AddChild(n)
		return nil
	}
	var fields []string
	for _, item := range stmt.Projection {
		if item.Star {
			fields = append(fields, "*")
			continue
		}
		fields = append(fields, item.Label)
	}
	n := &Node{Kind: NodeConsoleOutput, OutputFields: fields}
	input.AddChild(n)
	return nil
}
