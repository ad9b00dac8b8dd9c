package exec

import (
	"bytes"
	"testing"

	"github.com/radhaisme/flumebase/lang"
	"github.com/radhaisme/flumebase/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declareStream(root *SymbolTable, name string, fields map[string]lang.Type) {
	ft := NewSymbolTable(nil)
	for n, t := range fields {
		ft.Define(&Symbol{Name: n, Kind: SymField, Type: t})
	}
	root.Define(&Symbol{Name: name, Kind: SymStream, Fields: ft})
}

func parseSelect(t *testing.T, src string) *sql.SelectStmt {
	var errBuf bytes.Buffer
	stmt := sql.Generate(src, &errBuf)
	require.Empty(t, errBuf.String())
	require.NotNil(t, stmt)
	sel, ok := stmt.(*sql.SelectStmt)
	require.True(t, ok)
	return sel
}

func TestElaborateAssignsLabelsAndTypes(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT a AS x, a FROM s")
	_, err := Elaborate(sel, root)
	require.NoError(t, err)

	assert.Equal(t, "x", sel.Projection[0].Label)
	assert.Equal(t, "a", sel.Projection[1].Label)
	assert.True(t, lang.Equal(sel.Projection[1].Expr.ExprType(), lang.Primitive(lang.INT)))
}

func TestElaborateLabelCollisionSuffixes(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT a, a FROM s")
	_, err := Elaborate(sel, root)
	require.NoError(t, err)

	assert.Equal(t, "a", sel.Projection[0].Label)
	assert.Equal(t, "a_2", sel.Projection[1].Label)
}

func TestElaborateUnresolvedFieldFails(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT missing FROM s")
	_, err := Elaborate(sel, root)
	require.Error(t, err)
	_, ok := err.(*TypeError)
	assert.True(t, ok)
}

func TestElaborateWhereMustBeBoolean(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT a FROM s WHERE a")
	_, err := Elaborate(sel, root)
	require.Error(t, err)
}

func TestElaborateJoinKeysResolved(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s1", map[string]lang.Type{"k": lang.Primitive(lang.INT)})
	declareStream(root, "s2", map[string]lang.Type{"k": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT s1.k FROM s1 JOIN s2 ON s1.k = s2.k")
	elaborated, err := Elaborate(sel, root)
	require.NoError(t, err)

	keys := elaborated.JoinKeys[sel.Source.Joins[0]]
	require.Len(t, keys, 1)
}

func TestElaborateJoinConditionMustBeEquality(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s1", map[string]lang.Type{"k": lang.Primitive(lang.INT)})
	declareStream(root, "s2", map[string]lang.Type{"k": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT s1.k FROM s1 JOIN s2 ON s1.k > s2.k")
	_, err := Elaborate(sel, root)
	assert.Error(t, err)
}

func TestElaborateAggFunctionInstantiatesUniversal(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"a": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT sum(a) FROM s")
	_, err := Elaborate(sel, root)
	require.NoError(t, err)
	assert.True(t, lang.Equal(sel.Projection[0].Expr.ExprType(), lang.Primitive(lang.INT)))
}

func TestNotOfBooleanScenario(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"flag": lang.Primitive(lang.BOOLEAN)})

	sel := parseSelect(t, "SELECT NOT(flag) FROM s")
	_, err := Elaborate(sel, root)
	require.NoError(t, err)
	assert.True(t, lang.Equal(sel.Projection[0].Expr.ExprType(), lang.Primitive(lang.BOOLEAN)))
}

func TestNotOfIntFailsTypeChecking(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"n": lang.Primitive(lang.INT)})

	sel := parseSelect(t, "SELECT NOT(n) FROM s")
	_, err := Elaborate(sel, root)
	assert.Error(t, err)
}

func TestIsNullOnNullableField(t *testing.T) {
	root := BuiltInSymbolTable()
	declareStream(root, "s", map[string]lang.Type{"n": lang.Nullable(lang.Primitive(lang.INT))})

	sel := parseSelect(t, "SELECT n IS NULL FROM s")
	_, err := Elaborate(sel, root)
	require.NoError(t, err)
	assert.True(t, lang.Equal(sel.Projection[0].Expr.ExprType(), lang.Primitive(lang.BOOLEAN)))
}
