package plan

import (
	"fmt"

	"github.com/radhaisme/flumebase/exec"
)

// PropagateSchemas walks the spec top-down and computes each node's output
// schema from its inputs and parameters, per spec.md §4.3. Any node whose
// parameters reference fields absent from the input schema fails.
func PropagateSchemas(spec *FlowSpecification) error {
	var failure error
	err := spec.BFS(func(n *Node) error {
		n.InputSchema = gatherInputSchema(n)
		out, err := computeOutputSchema(n)
		if err != nil {
			failure = err
			return err
		}
		n.OutputSchema = out
		return nil
	})
	if err != nil {
		if failure != nil {
			return failure
		}
		return err
	}
	return nil
}

func gatherInputSchema(n *Node) Schema {
	var in Schema
	for _, p := range n.Parents() {
		in = append(in, p.OutputSchema...)
	}
	return in
}

func computeOutputSchema(n *Node) (Schema, error) {
	switch n.Kind {
	case NodeSource:
		// The source's schema is supplied externally (the declared
		// stream's fields); planSource pre-populates OutputSchema from
		// the symbol table on construction, so here we simply pass it
		// through.
		if n.OutputSchema != nil {
			return n.OutputSchema, nil
		}
		return n.InputSchema, nil

	case NodeFilter:
		return n.InputSchema, nil

	case NodeJoin:
		return n.InputSchema, nil

	case NodeAggregate:
		return aggregateSchema(n)

	case NodeProject:
		return projectSchema(n)

	case NodeConsoleOutput, NodeMemoryOutput:
		return n.InputSchema, nil

	default:
		panic("unreachable")
	}
}

func aggregateSchema(n *Node) (Schema, error) {
	var out Schema
	for _, g := range n.GroupBy {
		t := g.ExprType()
		if t == nil {
			return nil, exec.NewPlanError("GROUP BY expression has no resolved type")
		}
		out = append(out, FieldDef{Name: fmt.Sprintf("group%d", len(out)+1), Type: t})
	}
	for _, item := range n.AggItems {
		if item.Star {
			continue
		}
		t := item.Expr.ExprType()
		if t == nil {
			return nil, exec.NewPlanError("aggregate projection %q has no resolved type", item.Label)
		}
		out = append(out, FieldDef{Name: item.Label, Type: t})
	}
	return out, nil
}

func projectSchema(n *Node) (Schema, error) {
	if len(n.ProjectItems) == 1 && n.ProjectItems[0].Star {
		return n.InputSchema, nil
	}
	var out Schema
	for _, item := range n.ProjectItems {
		if item.Star {
			out = append(out, n.InputSchema...)
			continue
		}
		t := item.Expr.ExprType()
		if t == nil {
			return nil, exec.NewPlanError("projected expression %q has no resolved type", item.Label)
		}
		out = append(out, FieldDef{Name: item.Label, Type: t})
	}
	return out, nil
}
