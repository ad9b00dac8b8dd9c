package plan

import (
	"fmt"
	"strings"
)

// FormatSpec renders a FlowSpecification via breadth-first traversal, one
// line per node, matching the teacher's habit of a dedicated formatter
// walking the structure it is given rather than relying on %v.
func FormatSpec(spec *FlowSpecification) string {
	var sb strings.Builder
	_ = spec.BFS(func(n *Node) error {
		sb.WriteString(n.formatParams())
		sb.WriteString("\n")
		for _, f := range n.OutputSchema {
			fmt.Fprintf(&sb, "  -> %s %s\n", f.Name, f.Type)
		}
		return nil
	})
	if sb.Len() == 0 {
		return "(empty)\n"
	}
	return sb.String()
}
