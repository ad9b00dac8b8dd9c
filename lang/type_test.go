package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromotesToReflexive(t *testing.T) {
	prims := []Type{
		Primitive(BOOLEAN), Primitive(INT), Primitive(BIGINT),
		Primitive(FLOAT), Primitive(DOUBLE), Primitive(STRING),
		Primitive(TIMESTAMP), Primitive(TIMESPAN),
	}
	for _, p := range prims {
		assert.True(t, p.PromotesTo(p), "%s should promote to itself", p)
	}
}

func TestPromotesToNumericChain(t *testing.T) {
	assert.True(t, Primitive(INT).PromotesTo(Primitive(BIGINT)))
	assert.True(t, Primitive(BIGINT).PromotesTo(Primitive(FLOAT)))
	assert.True(t, Primitive(FLOAT).PromotesTo(Primitive(DOUBLE)))
	assert.True(t, Primitive(INT).PromotesTo(Primitive(DOUBLE)))
	assert.False(t, Primitive(DOUBLE).PromotesTo(Primitive(INT)))
	assert.False(t, Primitive(STRING).PromotesTo(Primitive(INT)))
}

func TestPromotesToNullable(t *testing.T) {
	assert.True(t, Primitive(INT).PromotesTo(Nullable(Primitive(INT))))
	assert.True(t, Primitive(NULL).PromotesTo(Nullable(Primitive(STRING))))
	assert.False(t, Nullable(Primitive(INT)).PromotesTo(Primitive(INT)))
	assert.True(t, Nullable(Primitive(INT)).PromotesTo(Nullable(Primitive(BIGINT))))
}

func TestPromotesToTypeclasses(t *testing.T) {
	assert.True(t, Primitive(STRING).PromotesTo(Any))
	assert.True(t, Primitive(INT).PromotesTo(Numeric))
	assert.False(t, Primitive(STRING).PromotesTo(Numeric))
	assert.True(t, Primitive(STRING).PromotesTo(Comparable))
}

func TestMeetCommutative(t *testing.T) {
	pairs := [][2]Type{
		{Primitive(INT), Primitive(DOUBLE)},
		{Primitive(NULL), Primitive(STRING)},
		{Primitive(BIGINT), Primitive(BIGINT)},
	}
	for _, p := range pairs {
		ab, err := Meet(p[0], p[1])
		require.NoError(t, err)
		ba, err := Meet(p[1], p[0])
		require.NoError(t, err)
		assert.True(t, Equal(ab, ba), "meet(%s,%s) should equal meet(%s,%s)", p[0], p[1], p[1], p[0])
	}
}

func TestMeetAssociative(t *testing.T) {
	a, b, c := Primitive(INT), Primitive(BIGINT), Primitive(DOUBLE)

	ab, err := Meet(a, b)
	require.NoError(t, err)
	abc1, err := Meet(ab, c)
	require.NoError(t, err)

	bc, err := Meet(b, c)
	require.NoError(t, err)
	abc2, err := Meet(a, bc)
	require.NoError(t, err)

	assert.True(t, Equal(abc1, abc2))
}

func TestMeetNullWithConcreteYieldsNullable(t *testing.T) {
	m, err := Meet(Primitive(NULL), Primitive(STRING))
	require.NoError(t, err)
	nt, ok := m.(*NullableType)
	require.True(t, ok)
	assert.True(t, Equal(nt.Inner(), Primitive(STRING)))
}

func TestMeetIncompatibleErrors(t *testing.T) {
	_, err := Meet(Primitive(STRING), Primitive(INT))
	assert.Error(t, err)
}

func TestMeetAllFoldsLeftToRight(t *testing.T) {
	m, err := MeetAll([]Type{Primitive(INT), Primitive(BIGINT), Primitive(FLOAT)})
	require.NoError(t, err)
	assert.True(t, Equal(m, Primitive(FLOAT)))
}

func TestMeetAllEmptyErrors(t *testing.T) {
	_, err := MeetAll(nil)
	assert.Error(t, err)
}

func TestNullableIdempotent(t *testing.T) {
	n := Nullable(Primitive(INT))
	nn := Nullable(n)
	assert.Same(t, n, nn)
}

func TestEqualStructural(t *testing.T) {
	assert.True(t, Equal(Primitive(INT), Primitive(INT)))
	assert.False(t, Equal(Primitive(INT), Primitive(BIGINT)))
	assert.True(t, Equal(Nullable(Primitive(INT)), Nullable(Primitive(INT))))
	assert.False(t, Equal(Nullable(Primitive(INT)), Primitive(INT)))
}
