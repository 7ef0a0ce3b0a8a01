package semantic

import (
	"github.com/codeassociates/huec/ast"
	"github.com/codeassociates/huec/text"
)

// TargetKind tags the variants of a resolved name.
type TargetKind int

const (
	// ScopedValue is a local or global binding: Node and Scope are set.
	ScopedValue TargetKind = iota
	// StructValue is a field reached through a path expression: Type holds
	// the member type and Parent the target it was reached through.
	StructValue
	// StructTypeTarget is a member that is itself a named struct type.
	StructTypeTarget
)

// Target is a tagged, non-owning reference to a named entity from which a
// result type can be queried.
type Target struct {
	Kind   TargetKind
	Node   ast.Node
	Scope  *Scope
	Type   ast.Type
	Parent *Target
}

// ResultType reports the type of the referenced entity. For scoped values
// it delegates to the bound node; for struct members and struct types it is
// the stored type.
func (t *Target) ResultType() ast.Type {
	switch t.Kind {
	case ScopedValue:
		switch n := t.Node.(type) {
		case ast.Expression:
			return n.ResultType()
		case *ast.Variable:
			return n.ResultType()
		default:
			return ast.UnknownType
		}
	default:
		if t.Type == nil {
			return ast.UnknownType
		}
		return t.Type
	}
}

// Callable reports the callable node behind the target, if any.
func (t *Target) Callable() (ast.Callable, bool) {
	c, ok := t.Node.(ast.Callable)
	return c, ok
}

// Scope is one frame of (name → Target) bindings. Overload sets live
// beside the value bindings as name → candidate lists; both views of a
// name can coexist, mirroring the separation between value symbols and
// function symbols.
type Scope struct {
	values    map[string]*Target
	functions map[string][]ast.Callable
}

func NewScope() *Scope {
	return &Scope{
		values:    make(map[string]*Target),
		functions: make(map[string][]ast.Callable),
	}
}

// Define binds name to node in this scope, replacing any previous binding.
func (s *Scope) Define(name text.Text, node ast.Node) {
	s.values[name.String()] = &Target{Kind: ScopedValue, Node: node, Scope: s}
}

// DefineFunction appends a callable to the name's overload set.
func (s *Scope) DefineFunction(name text.Text, fn ast.Callable) {
	key := name.String()
	s.functions[key] = append(s.functions[key], fn)
}

// Lookup finds a value binding in this scope only.
func (s *Scope) Lookup(name text.Text) *Target {
	return s.values[name.String()]
}

// Functions returns this scope's overload set for name.
func (s *Scope) Functions(name text.Text) []ast.Callable {
	return s.functions[name.String()]
}

// lookupValue scans a scope stack from the innermost frame outward.
func lookupValue(scopes []*Scope, name text.Text) *Target {
	for i := len(scopes) - 1; i >= 0; i-- {
		if t := scopes[i].Lookup(name); t != nil {
			return t
		}
	}
	return nil
}

// lookupFunctions gathers every candidate for name across the stack,
// innermost scopes first. Order within one scope is declaration order, so
// resolution stays deterministic.
func lookupFunctions(scopes []*Scope, name text.Text) []ast.Callable {
	var candidates []ast.Callable
	for i := len(scopes) - 1; i >= 0; i-- {
		candidates = append(candidates, scopes[i].Functions(name)...)
	}
	return candidates
}

// lookupPath resolves a possibly nested symbol: the first component through
// the scope stack, each following component against the type found so far.
// The second result is an error message when the path is invalid, empty
// when the whole path resolved or merely isn't visible yet.
func lookupPath(scopes []*Scope, sym *ast.Symbol) (*Target, string) {
	target := lookupValue(scopes, sym.Pathname[0])
	if target == nil {
		return nil, ""
	}

	for _, name := range sym.Pathname[1:] {
		t := target.ResultType()
		switch {
		case t.ID() == ast.Struct:
			st := t.(*ast.StructType)
			memberType := st.TypeOf(name)
			if memberType == nil {
				return nil, "Unknown symbol \"" + name.String() + "\" in structure " + st.String()
			}
			kind := StructValue
			if memberType.ID() == ast.Struct {
				kind = StructTypeTarget
			}
			target = &Target{Kind: kind, Type: memberType, Parent: target}

		case t.ID() == ast.Func:
			// Function-returned structs may carry field names resolved at
			// the call site; the label stays opaque here.
			target = &Target{Kind: StructValue, Type: ast.UnknownType, Parent: target}

		case ast.IsUnknown(t):
			return nil, ""

		default:
			return nil, "Cannot resolve \"" + name.String() + "\" in value of type " + t.String()
		}
	}

	return target, ""
}
