// Package plan lowers a type-checked AST into a FlowSpecification: a DAG
// of logical plan nodes carrying input/output schemas, per spec.md §3 and
// §4.3. Grounded in shape on the teacher's plan.Plan (plan/plan.go) and
// planner.go's staged construction, regeared from an AWK-targeting plan
// to the engine's own node kinds.
package plan

import (
	"fmt"

	"github.com/radhaisme/flumebase/exec"
	"github.com/radhaisme/flumebase/lang"
	"github.com/radhaisme/flumebase/sql"
)

type NodeKind int

const (
	NodeSource NodeKind = iota
	NodeFilter
	NodeJoin
	NodeAggregate
	NodeProject
	NodeConsoleOutput
	NodeMemoryOutput
)

func (k NodeKind) String() string {
	switch k {
	case NodeSource:
		return "Source"
	case NodeFilter:
		return "Filter"
	case NodeJoin:
		return "Join"
	case NodeAggregate:
		return "Aggregate"
	case NodeProject:
		return "Project"
	case NodeConsoleOutput:
		return "ConsoleOutput"
	case NodeMemoryOutput:
		return "MemoryOutput"
	default:
		return "Unknown"
	}
}

// FieldDef names one field of a schema with its resolved type.
type FieldDef struct {
	Name string
	Type lang.Type
}

// Schema is an ordered list of fields, per spec.md §3.
type Schema []FieldDef

func (s Schema) IndexOf(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Node is one element of a FlowSpecification. It is a tagged union over
// NodeKind rather than one struct type per kind, following the teacher's
// preference for flat structs with an explicit tag (plan.TableDescriptor,
// plan.Join) over a deep type hierarchy.
type Node struct {
	Kind NodeKind

	InputSchema  Schema
	OutputSchema Schema

	// NodeSource
	StreamName string

	// NodeFilter
	FilterExpr sql.Expr

	// NodeJoin
	JoinKeys []*exec.JoinKey

	// NodeAggregate
	GroupBy  []sql.Expr
	Having   sql.Expr
	AggItems []*sql.SelectItem

	// NodeProject
	ProjectItems []*sql.SelectItem

	// NodeConsoleOutput
	OutputFields []string

	// NodeMemoryOutput
	MemoryName string

	children []*Node
	parents  []*Node
	seen     bool
}

func (n *Node) Children() []*Node  { return n.children }
func (n *Node) Parents() []*Node   { return n.parents }
func (n *Node) AddChild(c *Node)   { n.children = append(n.children, c); c.parents = append(c.parents, n) }
func (n *Node) AddParent(p *Node)  { n.parents = append(n.parents, p); p.children = append(p.children, n) }
func (n *Node) Seen() bool         { return n.seen }
func (n *Node) MarkSeen()          { n.seen = true }
func (n *Node) ClearSeen()         { n.seen = false }

func (n *Node) formatParams() string {
	switch n.Kind {
	case NodeSource:
		return fmt.Sprintf("Source(%s)", n.StreamName)
	case NodeFilter:
		return fmt.Sprintf("Filter(%s)", sql.PrintExpr(n.FilterExpr))
	case NodeJoin:
		return fmt.Sprintf("Join(%d keys)", len(n.JoinKeys))
	case NodeAggregate:
		return fmt.Sprintf("Aggregate(%d group keys)", len(n.GroupBy))
	case NodeProject:
		return fmt.Sprintf("Project(%d cols)", len(n.ProjectItems))
	case NodeConsoleOutput:
		return fmt.Sprintf("ConsoleOutput(%v)", n.OutputFields)
	case NodeMemoryOutput:
		return fmt.Sprintf("MemoryOutput(%s)", n.MemoryName)
	default:
		panic("unreachable")
	}
}
