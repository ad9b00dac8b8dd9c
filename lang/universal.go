package lang

import (
	"fmt"
	"strings"
)

// UniversalType is a named type variable carrying an alias (e.g. "'a") and a
// list of constraint types, unified against actual argument types at a call
// site. Grounded on com.odiago.flumebase.lang.UniversalType: two universals
// with the same alias and the same constraint list are Equal; different
// aliases are independent even if their constraints coincide.
type UniversalType struct {
	alias       string
	constraints []Type
}

func NewUniversal(alias string, constraints ...Type) *UniversalType {
	return &UniversalType{alias: alias, constraints: append([]Type{}, constraints...)}
}

func (u *UniversalType) Alias() string       { return u.alias }
func (u *UniversalType) Constraints() []Type { return u.constraints }

func (u *UniversalType) AddConstraint(t Type) {
	u.constraints = append(u.constraints, t)
}

func (u *UniversalType) Name() TypeName { return UNIVERSAL_TAG }

// IsPrimitive/IsNumeric/IsNullable mirror the Java original: a universal
// carries these properties only if one of its declared constraints forces
// it to.
func (u *UniversalType) IsPrimitive() bool {
	for _, c := range u.constraints {
		if c.IsPrimitive() {
			return true
		}
	}
	return false
}

func (u *UniversalType) IsNumeric() bool {
	for _, c := range u.constraints {
		if c.IsNumeric() {
			return true
		}
	}
	return false
}

func (u *UniversalType) IsNullable() bool {
	for _, c := range u.constraints {
		if c.IsNullable() {
			return true
		}
	}
	return false
}

func (u *UniversalType) IsConcrete() bool  { return false }
func (u *UniversalType) IsTypeclass() bool { return false }

func (u *UniversalType) PromotesTo(other Type) bool {
	// A bare universal has no runtime value; it promotes to nothing until
	// resolved. Callers should always resolve before asking this.
	return false
}

func (u *UniversalType) String() string {
	if len(u.constraints) == 0 {
		return fmt.Sprintf("var(%s)", u.alias)
	}
	parts := make([]string, len(u.constraints))
	for i, c := range u.constraints {
		parts[i] = c.String()
	}
	return fmt.Sprintf("var(%s, constraints={%s})", u.alias, strings.Join(parts, ", "))
}

// Equal reports whether two universals share an alias and an identical,
// order-sensitive constraint list.
func (u *UniversalType) Equal(other *UniversalType) bool {
	if u.alias != other.alias {
		return false
	}
	if len(u.constraints) != len(other.constraints) {
		return false
	}
	for i := range u.constraints {
		if !Equal(u.constraints[i], other.constraints[i]) {
			return false
		}
	}
	return true
}

// TypeCheckError is raised by Resolve and by the TypeChecker visitor; it
// names the universal, the candidate type it tried, and the constraint (if
// any) that candidate failed, per spec.md §4.1.
type TypeCheckError struct {
	Universal *UniversalType
	Candidate Type
	Violated  Type
	Reason    string
}

func (e *TypeCheckError) Error() string {
	if e.Violated != nil {
		return fmt.Sprintf("type error: candidate type %s for %s cannot satisfy constraint %s",
			e.Candidate, e.Universal, e.Violated)
	}
	return fmt.Sprintf("type error: %s (universal %s)", e.Reason, e.Universal)
}

// Resolve computes candidate = meet(actuals...) for a universal bound by a
// specific call site, per spec.md §4.1: the meet of the actual argument
// types, coerced to NULLABLE(NULL) if it is a bare NULL, then checked for
// concreteness and for satisfying every declared constraint via PromotesTo.
func (u *UniversalType) Resolve(actuals []Type) (Type, error) {
	if len(actuals) == 0 {
		return nil, &TypeCheckError{
			Universal: u,
			Reason:    "cannot make a concrete type from a type variable without a binding constraint",
		}
	}

	candidate, err := MeetAll(actuals)
	if err != nil {
		return nil, &TypeCheckError{Universal: u, Reason: err.Error()}
	}

	if candidate.Name() == NULL {
		candidate = Nullable(candidate)
	}

	if !candidate.IsConcrete() {
		return nil, &TypeCheckError{
			Universal: u,
			Candidate: candidate,
			Reason:    "actual constraints are incompatible",
		}
	}

	for _, constraint := range u.constraints {
		if !candidate.PromotesTo(constraint) {
			return nil, &TypeCheckError{
				Universal: u,
				Candidate: candidate,
				Violated:  constraint,
			}
		}
	}

	return candidate, nil
}

// Substitution threads a per-expression mapping from UniversalType to the
// concrete Type it resolved to during type checking. It never mutates a
// UniversalType in place (per spec.md §9's design note); instead a fresh
// Substitution is populated per call site and consulted by ReplaceUniversal.
type Substitution struct {
	bindings map[string]Type
}

func NewSubstitution() *Substitution {
	return &Substitution{bindings: make(map[string]Type)}
}

// Bind records the candidate resolved for a given universal's alias.
// Two universals with the same alias appearing in the same call must
// resolve identically (spec.md §4.1); Bind enforces that by erroring on a
// conflicting rebind.
func (s *Substitution) Bind(u *UniversalType, candidate Type) error {
	if existing, ok := s.bindings[u.alias]; ok {
		if !Equal(existing, candidate) {
			return &TypeCheckError{
				Universal: u,
				Candidate: candidate,
				Reason: fmt.Sprintf(
					"alias %q already resolved to %s in this call, cannot rebind to %s",
					u.alias, existing, candidate),
			}
		}
		return nil
	}
	s.bindings[u.alias] = candidate
	return nil
}

// ReplaceUniversal substitutes u for its bound concrete type, erroring if
// the alias has no binding in this substitution (spec.md §4.1).
func (s *Substitution) ReplaceUniversal(u *UniversalType) (Type, error) {
	t, ok := s.bindings[u.alias]
	if !ok {
		return nil, &TypeCheckError{Universal: u, Reason: "no runtime binding for universal type"}
	}
	return t, nil
}
