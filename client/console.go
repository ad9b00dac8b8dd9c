// Package client implements session.Console: the interactive renderer a
// CLI session uses to display submit() messages and watched-flow rows.
// Grounded on the teacher's cg/gen_format.go, which maps its own
// output-coloring enum onto github.com/fatih/color attributes for ANSI
// terminal output; this renderer keeps that mapping style for EXPLAIN
// output and watched rows instead of the teacher's AWK print statements.
package client

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/radhaisme/flumebase/local"
)

// Console renders submit() results and watched-flow events to an
// io.Writer, implementing session.Console so UserSession.Deliver reaches
// an actual terminal.
type Console struct {
	out io.Writer

	header *color.Color
	field  *color.Color
	errC   *color.Color
}

// New builds a Console writing to out with ANSI coloring enabled. Use
// color.NoColor = true process-wide (fatih/color's own convention) to
// disable escapes for non-terminal output, e.g. when piping or in tests.
func New(out io.Writer) *Console {
	return &Console{
		out:    out,
		header: color.New(color.FgCyan, color.Bold),
		field:  color.New(color.FgYellow),
		errC:   color.New(color.FgRed),
	}
}

// RenderMessages prints submit()'s message buffer, highlighting the
// "Parse tree:" / "Execution plan:" section headers EXPLAIN produces and
// any line that looks like an error, matching spec.md §6's EXPLAIN
// contract (messages contain both headers; no flow is deployed).
func (c *Console) RenderMessages(messages string) {
	for _, line := range strings.Split(strings.TrimRight(messages, "\n"), "\n") {
		switch {
		case line == "":
			continue
		case strings.HasSuffix(line, ":") && (strings.HasPrefix(line, "Parse tree") || strings.HasPrefix(line, "Execution plan") || strings.HasPrefix(line, "Streams")):
			c.header.Fprintln(c.out, line)
		case strings.Contains(line, "Error") || strings.Contains(line, "error"):
			c.errC.Fprintln(c.out, line)
		default:
			fmt.Fprintln(c.out, line)
		}
	}
}

// Deliver implements session.Console: one watched row from flow, rendered
// as a sorted field=value line so output is stable across Go map
// iteration order.
func (c *Console) Deliver(flow local.FlowID, e local.Event) {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c.field.Fprintf(c.out, "[%s] ", flow)
	for i, k := range keys {
		if i > 0 {
			fmt.Fprint(c.out, ", ")
		}
		fmt.Fprintf(c.out, "%s=%v", k, e[k])
	}
	fmt.Fprintln(c.out)
}
