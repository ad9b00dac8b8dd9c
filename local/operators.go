package local

import (
	"fmt"

	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/plan"
	"github.com/radhaisme/flumebase/sql"
)

// SourceOperator is the entry point of a flow for one declared stream. It
// performs no transformation: the ingestion subsystem (or a test harness)
// delivers rows by calling this operator's own Context.Emit directly,
// looked up by stream name through the sink-binding registry
// (package ingest). TakeEvent exists so a SourceOperator can also be
// driven directly, e.g. by another operator feeding it in tests.
type SourceOperator struct {
	baseOperator
	StreamName string
}

func NewSourceOperator(streamName string) *SourceOperator {
	return &SourceOperator{StreamName: streamName}
}

func (o *SourceOperator) TakeEvent(e Event) error {
	if o.IsClosed() {
		return nil
	}
	return o.emit(e)
}

// FilterOperator drops events for which FilterExpr does not evaluate to
// true, per spec.md's WHERE clause semantics (NULL is treated as false,
// matching typical SQL tri-valued logic).
type FilterOperator struct {
	baseOperator
	Expr sql.Expr
}

func NewFilterOperator(expr sql.Expr) *FilterOperator {
	return &FilterOperator{Expr: expr}
}

func (o *FilterOperator) TakeEvent(e Event) error {
	if o.IsClosed() {
		return nil
	}
	v, err := Eval(o.Expr, e)
	if err != nil {
		return &exec.RuntimeError{Operator: "Filter", Cause: err}
	}
	keep, _ := v.(bool)
	if !keep {
		return nil
	}
	return o.emit(e)
}

// ProjectOperator computes the projection's SelectItems against each
// input event, producing a new Event keyed by each item's resolved label
// (per exec.assignFieldLabels), or passes the input through unchanged for
// a bare '*'.
type ProjectOperator struct {
	baseOperator
	Items []*sql.SelectItem
}

func NewProjectOperator(items []*sql.SelectItem) *ProjectOperator {
	return &ProjectOperator{Items: items}
}

func (o *ProjectOperator) TakeEvent(e Event) error {
	if o.IsClosed() {
		return nil
	}
	if len(o.Items) == 1 && o.Items[0].Star {
		return o.emit(e)
	}
	out := make(Event, len(o.Items))
	for _, item := range o.Items {
		if item.Star {
			for k, v := range e {
				out[k] = v
			}
			continue
		}
		v, err := Eval(item.Expr, e)
		if err != nil {
			return &exec.RuntimeError{Operator: "Project", Cause: err}
		}
		out[item.Label] = v
	}
	return o.emit(out)
}

// JoinOperator is a symmetric hash join over two unbounded inputs,
// buffering every row seen on each side keyed by its join key values, per
// spec.md §1's note that physical operators are "named but only their
// uniform contract is specified." Buffers grow without bound for the
// lifetime of the flow; bounding them (e.g. via the parsed but
// unenforced WindowClause) is outside this engine's scope.
type JoinOperator struct {
	baseOperator
	Keys []*exec.JoinKey

	left  map[string][]Event
	right map[string][]Event
}

func NewJoinOperator(keys []*exec.JoinKey) *JoinOperator {
	return &JoinOperator{
		Keys:  keys,
		left:  make(map[string][]Event),
		right: make(map[string][]Event),
	}
}

func (o *JoinOperator) TakeEvent(e Event) error {
	if o.IsClosed() {
		return nil
	}
	side, _ := e[joinSideKey].(string)
	row := e.Clone()
	delete(row, joinSideKey)

	var keyExprs []sql.Expr
	for _, k := range o.Keys {
		if side == "right" {
			keyExprs = append(keyExprs, k.Right)
		} else {
			keyExprs = append(keyExprs, k.Left)
		}
	}
	key, err := joinKey(keyExprs, row)
	if err != nil {
		return &exec.RuntimeError{Operator: "Join", Cause: err}
	}

	if side == "right" {
		o.right[key] = append(o.right[key], row)
		for _, l := range o.left[key] {
			if err := o.emitJoined(l, row); err != nil {
				return err
			}
		}
		return nil
	}

	o.left[key] = append(o.left[key], row)
	for _, r := range o.right[key] {
		if err := o.emitJoined(row, r); err != nil {
			return err
		}
	}
	return nil
}

func (o *JoinOperator) emitJoined(left, right Event) error {
	out := make(Event, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for k, v := range right {
		out[k] = v
	}
	return o.emit(out)
}

func joinKey(keyExprs []sql.Expr, row Event) (string, error) {
	key := ""
	for _, ke := range keyExprs {
		v, err := Eval(ke, row)
		if err != nil {
			return "", err
		}
		key += fmt.Sprintf("|%v", v)
	}
	return key, nil
}

// accum is one running aggregate's state, shared across every event in a
// group for the lifetime of the flow. Each distinct aggregate
// sql.FuncCallExpr node in the SELECT/HAVING tree gets its own accum, so a
// call repeated verbatim in both clauses (e.g. SELECT sum(x) ... HAVING
// sum(x) > 10) is tracked twice but computes the identical running value
// either way.
type accum struct {
	fn       string
	count    int64
	sawValue bool
	sum      float64
	sumInt   int64
	sawFloat bool
	min      interface{}
	max      interface{}
}

func (a *accum) update(v interface{}) {
	a.count++
	if v == nil {
		return
	}
	a.sawValue = true
	if f, ok := asFloat(v); ok {
		a.sum += f
		if iv, ok := v.(int64); ok {
			a.sumInt += iv
		} else {
			a.sawFloat = true
		}
	}
	if a.min == nil {
		a.min, a.max = v, v
		return
	}
	if lessValue(v, a.min) {
		a.min = v
	}
	if lessValue(a.max, v) {
		a.max = v
	}
}

func lessValue(a, b interface{}) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af < bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as < bs
		}
	}
	return false
}

func (a *accum) result() interface{} {
	switch a.fn {
	case "count":
		return a.count
	case "sum":
		if !a.sawValue {
			return nil
		}
		if a.sawFloat {
			return a.sum
		}
		return a.sumInt
	case "avg":
		if !a.sawValue {
			return nil
		}
		return a.sum / float64(a.count)
	case "min":
		return a.min
	case "max":
		return a.max
	default:
		return nil
	}
}

// AggregateOperator maintains one accum set per distinct GROUP BY key,
// re-emitting the group's current row on every input event belonging to
// that group — a continuous, ever-refining aggregate, not a
// windowed-then-close batch aggregate.
type AggregateOperator struct {
	baseOperator
	GroupBy  []sql.Expr
	Having   sql.Expr
	AggItems []*sql.SelectItem

	groups map[string]map[sql.Expr]*accum
}

func NewAggregateOperator(groupBy []sql.Expr, having sql.Expr, items []*sql.SelectItem) *AggregateOperator {
	return &AggregateOperator{
		GroupBy:  groupBy,
		Having:   having,
		AggItems: items,
		groups:   make(map[string]map[sql.Expr]*accum),
	}
}

func (o *AggregateOperator) TakeEvent(e Event) error {
	if o.IsClosed() {
		return nil
	}
	key, err := joinKey(o.GroupBy, e)
	if err != nil {
		return &exec.RuntimeError{Operator: "Aggregate", Cause: err}
	}
	state, ok := o.groups[key]
	if !ok {
		state = make(map[sql.Expr]*accum)
		o.groups[key] = state
	}

	out := make(Event, len(o.GroupBy)+len(o.AggItems))
	for i, g := range o.GroupBy {
		v, err := Eval(g, e)
		if err != nil {
			return &exec.RuntimeError{Operator: "Aggregate", Cause: err}
		}
		out[fmt.Sprintf("group%d", i+1)] = v
	}
	for _, item := range o.AggItems {
		if item.Star {
			continue
		}
		v, err := evalAgg(item.Expr, e, state)
		if err != nil {
			return &exec.RuntimeError{Operator: "Aggregate", Cause: err}
		}
		out[item.Label] = v
	}

	if o.Having != nil {
		hv, err := evalAgg(o.Having, e, state)
		if err != nil {
			return &exec.RuntimeError{Operator: "Aggregate", Cause: err}
		}
		keep, _ := hv.(bool)
		if !keep {
			return nil
		}
	}
	return o.emit(out)
}

// evalAgg is Eval extended with aggregate FuncCallExpr support, routing
// each call node to its own accum in state (keyed by AST node identity)
// and updating it with the current event's argument value.
func evalAgg(e sql.Expr, ev Event, state map[sql.Expr]*accum) (interface{}, error) {
	switch v := e.(type) {
	case *sql.FuncCallExpr:
		if !sql.IsAggFunc(v.Name) {
			return nil, fmt.Errorf("eval: unsupported scalar function %q", v.Name)
		}
		a, ok := state[e]
		if !ok {
			a = &accum{fn: v.Name}
			state[e] = a
		}
		var argVal interface{}
		if len(v.Args) > 0 {
			val, err := Eval(v.Args[0], ev)
			if err != nil {
				return nil, err
			}
			argVal = val
		}
		a.update(argVal)
		return a.result(), nil

	case *sql.BinaryExpr:
		left, err := evalAgg(v.Left, ev, state)
		if err != nil {
			return nil, err
		}
		right, err := evalAgg(v.Right, ev, state)
		if err != nil {
			return nil, err
		}
		return evalBinaryValues(v.Op, left, right)

	case *sql.UnaryExpr:
		inner, err := evalAgg(v.Expr, ev, state)
		if err != nil {
			return nil, err
		}
		return evalUnaryValue(v.Op, inner)

	default:
		return Eval(e, ev)
	}
}

func evalBinaryValues(op sql.BinaryOp, left, right interface{}) (interface{}, error) {
	switch op {
	case sql.OpAnd:
		return boolOp(left, right, func(a, b bool) bool { return a && b })
	case sql.OpOr:
		return boolOp(left, right, func(a, b bool) bool { return a || b })
	case sql.OpAdd, sql.OpSub, sql.OpMul, sql.OpDiv, sql.OpMod:
		return arith(op, left, right)
	case sql.OpEq:
		return compareEq(left, right)
	case sql.OpNe:
		eq, err := compareEq(left, right)
		if err != nil || eq == nil {
			return eq, err
		}
		return !eq.(bool), nil
	case sql.OpLt, sql.OpLe, sql.OpGt, sql.OpGe:
		return compareOrd(op, left, right)
	default:
		return nil, fmt.Errorf("eval: unsupported binary operator %s", op)
	}
}

func evalUnaryValue(op sql.UnaryOp, inner interface{}) (interface{}, error) {
	switch op {
	case sql.OpNot:
		if inner == nil {
			return nil, nil
		}
		b, ok := inner.(bool)
		if !ok {
			return nil, fmt.Errorf("eval: NOT requires a boolean operand")
		}
		return !b, nil
	case sql.OpNeg:
		if inner == nil {
			return nil, nil
		}
		return negate(inner)
	case sql.OpPos:
		return inner, nil
	case sql.OpIsNull:
		return inner == nil, nil
	case sql.OpIsNotNull:
		return inner != nil, nil
	default:
		return nil, fmt.Errorf("eval: unsupported unary operator %s", op)
	}
}

// ConsoleOutputOperator is a terminal node; its context (SinkContext)
// does the actual routing to watching sessions, per spec.md §4.7.
type ConsoleOutputOperator struct {
	baseOperator
	Fields []string
}

func NewConsoleOutputOperator(fields []string) *ConsoleOutputOperator {
	return &ConsoleOutputOperator{Fields: fields}
}

func (o *ConsoleOutputOperator) TakeEvent(e Event) error {
	if o.IsClosed() {
		return nil
	}
	return o.emit(e)
}

// MemoryOutputOperator is a terminal node writing into a named
// plan.FlowSpecification's memory output, via its SinkContext's Memory
// table; TakeEvent itself does no filtering, matching spec.md §4.4's
// "Terminal -> Sink" wiring policy.
type MemoryOutputOperator struct {
	baseOperator
	Name string
}

func NewMemoryOutputOperator(name string) *MemoryOutputOperator {
	return &MemoryOutputOperator{Name: name}
}

func (o *MemoryOutputOperator) TakeEvent(e Event) error {
	if o.IsClosed() {
		return nil
	}
	return o.emit(e)
}

// nodeOperator instantiates the concrete Operator for one plan.Node, per
// spec.md §4.4. Kept as a free function (rather than a method on Node) so
// package local, not plan, owns the physical-operator vocabulary.
func nodeOperator(n *plan.Node) (Operator, error) {
	switch n.Kind {
	case plan.NodeSource:
		return NewSourceOperator(n.StreamName), nil
	case plan.NodeFilter:
		return NewFilterOperator(n.FilterExpr), nil
	case plan.NodeJoin:
		return NewJoinOperator(n.JoinKeys), nil
	case plan.NodeAggregate:
		return NewAggregateOperator(n.GroupBy, n.Having, n.AggItems), nil
	case plan.NodeProject:
		return NewProjectOperator(n.ProjectItems), nil
	case plan.NodeConsoleOutput:
		return NewConsoleOutputOperator(n.OutputFields), nil
	case plan.NodeMemoryOutput:
		return NewMemoryOutputOperator(n.MemoryName), nil
	default:
		return nil, fmt.Errorf("physical builder: unsupported node kind %s", n.Kind)
	}
}
