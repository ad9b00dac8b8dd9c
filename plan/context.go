package plan

import (
	"fmt"
	"strings"

	"github.com/radhaisme/flumebase/dag"
	"github.com/radhaisme/flumebase/exec"
)

// FlowSpecification is the DAG of logical plan nodes spec.md §3 describes.
type FlowSpecification = dag.DAG[*Node]

func NewFlowSpecification() *FlowSpecification {
	return dag.New[*Node]()
}

// PlanContext threads the root symbol table, a per-submission message
// buffer, and the explain flag through plan construction. Grounded on the
// teacher's Plan struct accumulating a `stage` string and on
// original_source's PlanContext (seen via ExplainStmt.java, which
// constructs `new PlanContext(planContext)` to flag explain without
// disturbing the parent's buffer).
type PlanContext struct {
	Root       *exec.SymbolTable
	MsgBuilder *strings.Builder
	Explain    bool
	Options    map[string]string
}

func NewPlanContext(root *exec.SymbolTable, options map[string]string) *PlanContext {
	return &PlanContext{Root: root, MsgBuilder: &strings.Builder{}, Options: options}
}

// child produces a PlanContext sharing this one's root and buffer, used
// by EXPLAIN to mark the sub-evaluation as "don't deploy, just describe"
// without losing the accumulated messages.
func (c *PlanContext) child() *PlanContext {
	return &PlanContext{Root: c.Root, MsgBuilder: c.MsgBuilder, Options: c.Options, Explain: true}
}

func (c *PlanContext) err(stage string, format string, args ...interface{}) error {
	return exec.NewPlanError("%s: %s", stage, fmt.Sprintf(format, args...))
}
