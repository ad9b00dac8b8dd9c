package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniversalResolveSingleActualSatisfiesConstraint(t *testing.T) {
	u := NewUniversal("'a", Numeric)
	got, err := u.Resolve([]Type{Primitive(INT)})
	require.NoError(t, err)
	assert.True(t, Equal(got, Primitive(INT)))
}

func TestUniversalResolveMeetsMultipleActuals(t *testing.T) {
	u := NewUniversal("'a", Numeric)
	got, err := u.Resolve([]Type{Primitive(INT), Primitive(BIGINT), Primitive(FLOAT)})
	require.NoError(t, err)
	assert.True(t, Equal(got, Primitive(FLOAT)))
}

func TestUniversalResolveViolatedConstraint(t *testing.T) {
	u := NewUniversal("'a", Numeric)
	_, err := u.Resolve([]Type{Primitive(STRING)})
	require.Error(t, err)
	tce, ok := err.(*TypeCheckError)
	require.True(t, ok)
	assert.Equal(t, Numeric, tce.Violated)
}

func TestUniversalResolveNoActualsErrors(t *testing.T) {
	u := NewUniversal("'a", Any)
	_, err := u.Resolve(nil)
	assert.Error(t, err)
}

func TestUniversalResolveNullActualBecomesNullable(t *testing.T) {
	u := NewUniversal("'a", Any)
	got, err := u.Resolve([]Type{Primitive(NULL)})
	require.NoError(t, err)
	_, ok := got.(*NullableType)
	assert.True(t, ok)
}

func TestUniversalEqualByAliasAndConstraints(t *testing.T) {
	a := NewUniversal("'a", Numeric)
	b := NewUniversal("'a", Numeric)
	c := NewUniversal("'b", Numeric)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestSubstitutionBindAndReplace(t *testing.T) {
	s := NewSubstitution()
	u := NewUniversal("'a", Numeric)
	require.NoError(t, s.Bind(u, Primitive(INT)))

	got, err := s.ReplaceUniversal(u)
	require.NoError(t, err)
	assert.True(t, Equal(got, Primitive(INT)))
}

func TestSubstitutionRebindSameValueOK(t *testing.T) {
	s := NewSubstitution()
	u := NewUniversal("'a", Numeric)
	require.NoError(t, s.Bind(u, Primitive(INT)))
	require.NoError(t, s.Bind(u, Primitive(INT)))
}

func TestSubstitutionConflictingRebindErrors(t *testing.T) {
	s := NewSubstitution()
	u := NewUniversal("'a", Numeric)
	require.NoError(t, s.Bind(u, Primitive(INT)))
	err := s.Bind(u, Primitive(DOUBLE))
	assert.Error(t, err)
}

func TestSubstitutionReplaceUnboundErrors(t *testing.T) {
	s := NewSubstitution()
	u := NewUniversal("'a", Any)
	_, err := s.ReplaceUniversal(u)
	assert.Error(t, err)
}
