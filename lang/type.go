// Package lang implements the engine's type system: the closed lattice of
// primitive types, the NULLABLE wrapper, the typeclass constraints used only
// on universal (variable) types, and the promotion/meet algebra that the
// elaboration visitors and the plan builder rely on.
package lang

import "fmt"

// TypeName enumerates every primitive, the nullable wrapper tag, the
// typeclasses, and the universal-type tag. It plays the role that
// com.odiago.flumebase.lang.Type.TypeName plays in the original.
type TypeName int

const (
	BOOLEAN TypeName = iota
	INT
	BIGINT
	FLOAT
	DOUBLE
	STRING
	TIMESTAMP
	TIMESPAN
	NULL

	NULLABLE_TAG // internal: marks a Type as the NULLABLE(T) wrapper

	TYPECLASS_NUMERIC
	TYPECLASS_COMPARABLE
	TYPECLASS_ANY

	UNIVERSAL_TAG // internal: marks a Type as a UniversalType
)

func (t TypeName) String() string {
	switch t {
	case BOOLEAN:
		return "BOOLEAN"
	case INT:
		return "INT"
	case BIGINT:
		return "BIGINT"
	case FLOAT:
		return "FLOAT"
	case DOUBLE:
		return "DOUBLE"
	case STRING:
		return "STRING"
	case TIMESTAMP:
		return "TIMESTAMP"
	case TIMESPAN:
		return "TIMESPAN"
	case NULL:
		return "NULL"
	case NULLABLE_TAG:
		return "NULLABLE"
	case TYPECLASS_NUMERIC:
		return "TYPECLASS_NUMERIC"
	case TYPECLASS_COMPARABLE:
		return "TYPECLASS_COMPARABLE"
	case TYPECLASS_ANY:
		return "TYPECLASS_ANY"
	case UNIVERSAL_TAG:
		return "UNIVERSAL"
	default:
		return "UNKNOWN"
	}
}

// Type is the common interface implemented by primitive types, the
// NULLABLE(T) wrapper, the typeclasses, and UniversalType.
type Type interface {
	Name() TypeName
	IsPrimitive() bool
	IsNumeric() bool
	IsNullable() bool
	IsConcrete() bool
	IsTypeclass() bool
	PromotesTo(other Type) bool
	String() string
}

// promotionRank gives every concrete primitive a rank in the promotion
// lattice; a lower rank promotes to every higher rank in the same "branch".
// NULL is rank -1: it promotes to NULLABLE(T) for every T but is not itself
// numeric.
var promotionRank = map[TypeName]int{
	NULL:      -1,
	BOOLEAN:   0,
	STRING:    0,
	TIMESTAMP: 0,
	TIMESPAN:  0,
	INT:       1,
	BIGINT:    2,
	FLOAT:     3,
	DOUBLE:    4,
}

// numericBranch reports whether a primitive belongs to the numeric
// promotion chain INT -> BIGINT -> FLOAT -> DOUBLE.
func numericBranch(t TypeName) bool {
	switch t {
	case INT, BIGINT, FLOAT, DOUBLE:
		return true
	default:
		return false
	}
}

// PrimitiveType is a concrete, non-nullable, non-typeclass type.
type PrimitiveType struct {
	name TypeName
}

func Primitive(name TypeName) *PrimitiveType { return &PrimitiveType{name: name} }

func (p *PrimitiveType) Name() TypeName    { return p.name }
func (p *PrimitiveType) IsPrimitive() bool { return true }
func (p *PrimitiveType) IsNumeric() bool   { return numericBranch(p.name) }
func (p *PrimitiveType) IsNullable() bool  { return false }
func (p *PrimitiveType) IsConcrete() bool  { return true }
func (p *PrimitiveType) IsTypeclass() bool { return false }
func (p *PrimitiveType) String() string    { return p.name.String() }

func (p *PrimitiveType) PromotesTo(other Type) bool {
	return promotesTo(p, other)
}

// NullableType wraps another type, marking it as admitting NULL at runtime.
type NullableType struct {
	inner Type
}

// Nullable wraps t in NULLABLE(t). Wrapping an already-nullable type is a
// no-op (NULLABLE is idempotent, not a tower).
func Nullable(t Type) Type {
	if nt, ok := t.(*NullableType); ok {
		return nt
	}
	return &NullableType{inner: t}
}

func (n *NullableType) Name() TypeName    { return NULLABLE_TAG }
func (n *NullableType) Inner() Type       { return n.inner }
func (n *NullableType) IsPrimitive() bool { return n.inner.IsPrimitive() }
func (n *NullableType) IsNumeric() bool   { return n.inner.IsNumeric() }
func (n *NullableType) IsNullable() bool  { return true }
func (n *NullableType) IsConcrete() bool  { return n.inner.IsConcrete() }
func (n *NullableType) IsTypeclass() bool { return false }
func (n *NullableType) String() string    { return fmt.Sprintf("NULLABLE(%s)", n.inner) }

func (n *NullableType) PromotesTo(other Type) bool {
	return promotesTo(n, other)
}

// TypeclassType is one of the abstract constraints; it is never
// instantiated as a concrete runtime type, only used to constrain
// UniversalType resolution.
type TypeclassType struct {
	name TypeName
}

var (
	Numeric    Type = &TypeclassType{name: TYPECLASS_NUMERIC}
	Comparable Type = &TypeclassType{name: TYPECLASS_COMPARABLE}
	Any        Type = &TypeclassType{name: TYPECLASS_ANY}
)

func (t *TypeclassType) Name() TypeName    { return t.name }
func (t *TypeclassType) IsPrimitive() bool { return false }
func (t *TypeclassType) IsNumeric() bool   { return t.name == TYPECLASS_NUMERIC }
func (t *TypeclassType) IsNullable() bool  { return false }
func (t *TypeclassType) IsConcrete() bool  { return false }
func (t *TypeclassType) IsTypeclass() bool { return true }
func (t *TypeclassType) String() string    { return t.name.String() }

func (t *TypeclassType) PromotesTo(other Type) bool {
	// Typeclasses are sinks: nothing promotes to another typeclass except
	// itself, and a typeclass never promotes to anything (it's never an
	// actual runtime value).
	if o, ok := other.(*TypeclassType); ok {
		return o.name == t.name
	}
	return false
}

// underlyingPrimitive strips a NULLABLE wrapper, if any, and reports the
// bare primitive TypeName; ok is false for typeclasses and universals.
func underlyingPrimitive(t Type) (TypeName, bool) {
	switch v := t.(type) {
	case *PrimitiveType:
		return v.name, true
	case *NullableType:
		return underlyingPrimitive(v.inner)
	default:
		return 0, false
	}
}

// promotesTo implements the partial order described in spec.md §4.1:
// reflexive, antisymmetric, transitive across primitives; NULL promotes to
// NULLABLE(T) for every T; every T promotes to NULLABLE(T).
func promotesTo(from, to Type) bool {
	if Equal(from, to) {
		return true
	}

	// T promotes to NULLABLE(T) for every T (including T already nullable,
	// handled by Equal above when the inner types match).
	if toNullable, ok := to.(*NullableType); ok {
		if fromNullable, ok := from.(*NullableType); ok {
			return promotesTo(fromNullable.inner, toNullable.inner)
		}
		if _, ok := from.(*PrimitiveType); ok && from.Name() == NULL {
			return true
		}
		return promotesTo(from, toNullable.inner)
	}

	// A nullable type only promotes to a non-nullable concrete target if
	// it is NULL itself promoting nowhere concrete; nullability cannot be
	// stripped implicitly otherwise. A typeclass constraint is the
	// exception: it is never an actual runtime value, so the typeclass
	// test below consults from's underlying primitive regardless of
	// nullability (a nullable numeric still satisfies TYPECLASS_NUMERIC).
	if _, ok := from.(*NullableType); ok {
		if _, ok := to.(*TypeclassType); !ok {
			return false
		}
	}

	fromPrim, fromOK := underlyingPrimitive(from)
	if !fromOK {
		return false
	}

	switch toT := to.(type) {
	case *TypeclassType:
		switch toT.name {
		case TYPECLASS_ANY:
			return true
		case TYPECLASS_NUMERIC:
			return numericBranch(fromPrim)
		case TYPECLASS_COMPARABLE:
			// Every primitive we support has a total order, including
			// strings and timestamps.
			return true
		default:
			return false
		}
	case *PrimitiveType:
		if fromPrim == NULL {
			// NULL only promotes to NULLABLE(T), handled above; a bare
			// NULL never promotes to a non-nullable concrete type.
			return false
		}
		toPrim := toT.name
		if fromPrim == toPrim {
			return true
		}
		if !numericBranch(fromPrim) || !numericBranch(toPrim) {
			return false
		}
		return promotionRank[fromPrim] < promotionRank[toPrim]
	default:
		return false
	}
}

// Equal reports structural equality: same TypeName, same nullability, and
// (for NULLABLE) equal inner types.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	an, aNullable := a.(*NullableType)
	bn, bNullable := b.(*NullableType)
	if aNullable != bNullable {
		return false
	}
	if aNullable {
		return Equal(an.inner, bn.inner)
	}
	ap, aok := a.(*PrimitiveType)
	bp, bok := b.(*PrimitiveType)
	if aok && bok {
		return ap.name == bp.name
	}
	at, aok := a.(*TypeclassType)
	bt, bok := b.(*TypeclassType)
	if aok && bok {
		return at.name == bt.name
	}
	return false
}

// Meet computes the least upper bound of two concrete types in the
// promotion lattice: the narrowest type both promote to. Meet is
// commutative and associative over concrete primitives (spec.md §8).
func Meet(a, b Type) (Type, error) {
	if Equal(a, b) {
		return a, nil
	}

	aNull, aIsNull := a.(*NullableType)
	bNull, bIsNull := b.(*NullableType)
	if aIsNull || bIsNull {
		aInner, bInner := a, b
		if aIsNull {
			aInner = aNull.inner
		}
		if bIsNull {
			bInner = bNull.inner
		}
		m, err := Meet(aInner, bInner)
		if err != nil {
			return nil, err
		}
		return Nullable(m), nil
	}

	aPrim, aOK := underlyingPrimitive(a)
	bPrim, bOK := underlyingPrimitive(b)
	if !aOK || !bOK {
		return nil, fmt.Errorf("lang: meet requires concrete types, got %s and %s", a, b)
	}

	if aPrim == NULL && bPrim == NULL {
		return Primitive(NULL), nil
	}
	if aPrim == NULL {
		return Nullable(Primitive(bPrim)), nil
	}
	if bPrim == NULL {
		return Nullable(Primitive(aPrim)), nil
	}

	if aPrim == bPrim {
		return Primitive(aPrim), nil
	}

	if !numericBranch(aPrim) || !numericBranch(bPrim) {
		return nil, fmt.Errorf("lang: no meet for incompatible types %s and %s", a, b)
	}

	if promotionRank[aPrim] > promotionRank[bPrim] {
		return Primitive(aPrim), nil
	}
	return Primitive(bPrim), nil
}

// MeetAll folds Meet across a non-empty list of types.
func MeetAll(ts []Type) (Type, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("lang: meet of empty type list")
	}
	candidate := ts[0]
	for _, t := range ts[1:] {
		m, err := Meet(candidate, t)
		if err != nil {
			return nil, err
		}
		candidate = m
	}
	return candidate, nil
}
