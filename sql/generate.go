package sql

import (
	"fmt"
	"io"
)

// Generate parses exactly one statement out of src and returns it, or nil
// if a syntax error occurred. Syntax errors are written to errOut rather
// than returned, matching original_source's ASTGenerator.parse contract
// (spec.md §6: "syntactic errors are written to a caller-supplied error
// stream and cause parse to return nothing").
func Generate(src string, errOut io.Writer) Statement {
	p := NewParser(src)
	stmt := p.ParseStatement()
	for _, e := range p.Errors() {
		fmt.Fprintln(errOut, e)
	}
	if len(p.Errors()) > 0 {
		return nil
	}
	return stmt
}
