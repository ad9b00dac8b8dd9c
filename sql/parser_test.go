package sql

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string) Statement {
	var errBuf bytes.Buffer
	stmt := Generate(src, &errBuf)
	require.Empty(t, errBuf.String(), "unexpected parse errors: %s", errBuf.String())
	require.NotNil(t, stmt)
	return stmt
}

func TestParseSimpleSelect(t *testing.T) {
	stmt := parseOK(t, "SELECT a, b FROM s")
	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok)
	assert.Len(t, sel.Projection, 2)
	assert.Equal(t, "s", sel.Source.Stream)
}

func TestParseSelectWithWhereAndAlias(t *testing.T) {
	stmt := parseOK(t, "SELECT a AS x FROM s WHERE a > 10")
	sel := stmt.(*SelectStmt)
	assert.Equal(t, "x", sel.Projection[0].Alias)
	require.NotNil(t, sel.Where)
	bin, ok := sel.Where.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpGt, bin.Op)
}

func TestParseJoin(t *testing.T) {
	stmt := parseOK(t, "SELECT a FROM s1 JOIN s2 ON s1.k = s2.k")
	sel := stmt.(*SelectStmt)
	require.Len(t, sel.Source.Joins, 1)
	on := sel.Source.Joins[0].On.(*BinaryExpr)
	assert.Equal(t, OpEq, on.Op)
}

func TestParseGroupByHaving(t *testing.T) {
	stmt := parseOK(t, "SELECT k, count(1) FROM s GROUP BY k HAVING count(1) > 1")
	sel := stmt.(*SelectStmt)
	require.Len(t, sel.GroupBy, 1)
	require.NotNil(t, sel.Having)
}

func TestParseStar(t *testing.T) {
	stmt := parseOK(t, "SELECT * FROM s")
	sel := stmt.(*SelectStmt)
	require.Len(t, sel.Projection, 1)
	assert.True(t, sel.Projection[0].Star)
}

func TestParseCreateStream(t *testing.T) {
	stmt := parseOK(t, "CREATE STREAM s (a int, b string)")
	cs := stmt.(*CreateStreamStmt)
	assert.Equal(t, "s", cs.Name)
	require.Len(t, cs.Columns, 2)
	assert.Equal(t, "int", cs.Columns[0].TypeName)
}

func TestParseDrop(t *testing.T) {
	stmt := parseOK(t, "DROP s")
	assert.Equal(t, "s", stmt.(*DropStmt).Name)
}

func TestParseDescribe(t *testing.T) {
	stmt := parseOK(t, "DESCRIBE s")
	assert.Equal(t, "s", stmt.(*DescribeStmt).Name)
}

func TestParseShowStreams(t *testing.T) {
	stmt := parseOK(t, "SHOW STREAMS")
	_, ok := stmt.(*ShowStmt)
	assert.True(t, ok)
}

func TestParseExplain(t *testing.T) {
	stmt := parseOK(t, "EXPLAIN SELECT a FROM s")
	ex := stmt.(*ExplainStmt)
	_, ok := ex.Child.(*SelectStmt)
	assert.True(t, ok)
}

func TestParseSyntaxErrorReportsAndReturnsNil(t *testing.T) {
	var errBuf bytes.Buffer
	stmt := Generate("SELEKT 1", &errBuf)
	assert.Nil(t, stmt)
	assert.NotEmpty(t, errBuf.String())
}

func TestParseUnaryNotAndNegate(t *testing.T) {
	stmt := parseOK(t, "SELECT a FROM s WHERE NOT(a = 1) AND -a > 0")
	sel := stmt.(*SelectStmt)
	and := sel.Where.(*BinaryExpr)
	assert.Equal(t, OpAnd, and.Op)
	not := and.Left.(*UnaryExpr)
	assert.Equal(t, OpNot, not.Op)
}

func TestParseIsNullIsNotNull(t *testing.T) {
	stmt := parseOK(t, "SELECT a FROM s WHERE a IS NULL AND a IS NOT NULL")
	sel := stmt.(*SelectStmt)
	and := sel.Where.(*BinaryExpr)
	left := and.Left.(*UnaryExpr)
	right := and.Right.(*UnaryExpr)
	assert.Equal(t, OpIsNull, left.Op)
	assert.Equal(t, OpIsNotNull, right.Op)
}

func TestFormatRoundTripsReadably(t *testing.T) {
	stmt := parseOK(t, "EXPLAIN SELECT a FROM s WHERE a > 1")
	out := stmt.Format(0)
	assert.Contains(t, out, "EXPLAIN")
	assert.Contains(t, out, "SELECT")
	assert.Contains(t, out, "WHERE")
}
