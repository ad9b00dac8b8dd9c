package exec

import (
	"fmt"

	"github.com/radhaisme/flumebase/lang"
)

// SymbolKind tags what a Symbol names.
type SymbolKind int

const (
	SymStream SymbolKind = iota
	SymField
	SymFunction
)

// FuncSignature describes a built-in function: one universal per
// parameter position sharing aliases across positions that must unify
// together, and a return type expressed either as a concrete lang.Type or
// as a reference to one of the parameter universals (for "returns its
// argument's type" functions like min/max).
type FuncSignature struct {
	Params  []*lang.UniversalType
	Return  lang.Type            // nil if ReturnsParam is set
	ReturnsParam int             // index into Params whose resolved type is the return type, used when Return == nil
	IsAgg   bool
}

// Symbol is one entry in a SymbolTable: a declared stream, one of its
// fields, or a built-in function.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type lang.Type      // for SymField: the field's type
	Fields *SymbolTable  // for SymStream: the stream's nested field table
	Func *FuncSignature  // for SymFunction
}

// SymbolTable is a nested identifier->Symbol map; lookups walk outward to
// Parent, per spec.md §3 ("the built-in table holds SQL functions and is
// the bottommost parent").
type SymbolTable struct {
	Parent  *SymbolTable
	symbols map[string]*Symbol
}

func NewSymbolTable(parent *SymbolTable) *SymbolTable {
	return &SymbolTable{Parent: parent, symbols: make(map[string]*Symbol)}
}

func (t *SymbolTable) Define(sym *Symbol) {
	t.symbols[sym.Name] = sym
}

// Undefine removes a symbol defined directly in this table, used by DROP.
func (t *SymbolTable) Undefine(name string) {
	delete(t.symbols, name)
}

// Resolve looks up name in this table, then walks outward through Parent.
func (t *SymbolTable) Resolve(name string) (*Symbol, bool) {
	for cur := t; cur != nil; cur = cur.Parent {
		if s, ok := cur.symbols[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// Names returns every symbol name defined directly in this table (not its
// ancestors), used by SHOW STREAMS.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for n := range t.symbols {
		names = append(names, n)
	}
	return names
}

func numeric(alias string) *lang.UniversalType { return lang.NewUniversal(alias, lang.Numeric) }
func any_(alias string) *lang.UniversalType    { return lang.NewUniversal(alias, lang.Any) }

// BuiltInSymbolTable constructs the root table holding the engine's
// aggregate and scalar built-in functions, the bottommost parent of every
// other SymbolTable, per spec.md §3.
func BuiltInSymbolTable() *SymbolTable {
	t := NewSymbolTable(nil)

	def := func(name string, sig *FuncSignature) {
		t.Define(&Symbol{Name: name, Kind: SymFunction, Func: sig})
	}

	def("count", &FuncSignature{
		Params: []*lang.UniversalType{any_("'a")},
		Return: lang.Primitive(lang.BIGINT),
		IsAgg:  true,
	})
	def("sum", &FuncSignature{
		Params:       []*lang.UniversalType{numeric("'a")},
		ReturnsParam: 0,
		IsAgg:        true,
	})
	def("avg", &FuncSignature{
		Params: []*lang.UniversalType{numeric("'a")},
		Return: lang.Primitive(lang.DOUBLE),
		IsAgg:  true,
	})
	def("min", &FuncSignature{
		Params:       []*lang.UniversalType{any_("'a")},
		ReturnsParam: 0,
		IsAgg:        true,
	})
	def("max", &FuncSignature{
		Params:       []*lang.UniversalType{any_("'a")},
		ReturnsParam: 0,
		IsAgg:        true,
	})
	return t
}

func (s *Symbol) String() string {
	switch s.Kind {
	case SymStream:
		return fmt.Sprintf("stream(%s)", s.Name)
	case SymField:
		return fmt.Sprintf("field(%s: %s)", s.Name, s.Type)
	default:
		return fmt.Sprintf("function(%s)", s.Name)
	}
}
