package ast

import (
	"strings"

	"github.com/codeassociates/huec/text"
)

// TypeID enumerates the closed set of Hue types.
type TypeID int

const (
	Unknown TypeID = iota
	Nil
	Named
	Float
	Int
	Char
	Byte
	Bool
	Func
	Array
	Struct
)

// Type is the interface over the tagged type union. Values referenced from
// multiple nodes are either the interned primitive singletons below or
// shared through back-references; none of them is mutated after
// construction (FunctionType's lazily inferred result slot excepted).
type Type interface {
	ID() TypeID
	Equal(other Type) bool
	String() string
}

// BasicType covers Unknown, Nil, the primitive types, and Named types.
type BasicType struct {
	id   TypeID
	name text.Text // set iff id == Named
}

// Interned primitive singletons.
var (
	UnknownType = &BasicType{id: Unknown}
	NilType     = &BasicType{id: Nil}
	FloatType   = &BasicType{id: Float}
	IntType     = &BasicType{id: Int}
	CharType    = &BasicType{id: Char}
	ByteType    = &BasicType{id: Byte}
	BoolType    = &BasicType{id: Bool}
)

func NewNamedType(name text.Text) *BasicType {
	return &BasicType{id: Named, name: name}
}

func (t *BasicType) ID() TypeID      { return t.id }
func (t *BasicType) Name() text.Text { return t.name }

func (t *BasicType) Equal(other Type) bool {
	if other == nil || other.ID() != t.id {
		return false
	}
	if t.id != Named {
		return true
	}
	return t.name.Equal(other.(*BasicType).name)
}

func (t *BasicType) String() string {
	switch t.id {
	case Unknown:
		return "?"
	case Nil:
		return "Nil"
	case Named:
		return t.name.String()
	case Float:
		return "Float"
	case Int:
		return "Int"
	case Char:
		return "Char"
	case Byte:
		return "Byte"
	case Bool:
		return "Bool"
	default:
		return "?"
	}
}

// IsUnknown reports whether t is absent or the Unknown type.
func IsUnknown(t Type) bool {
	return t == nil || t.ID() == Unknown
}

// ArrayType is a homogeneous sequence type [T].
type ArrayType struct {
	Elem Type
}

func NewArrayType(elem Type) *ArrayType { return &ArrayType{Elem: elem} }

func (t *ArrayType) ID() TypeID { return Array }

func (t *ArrayType) Equal(other Type) bool {
	o, ok := other.(*ArrayType)
	return ok && t.Elem.Equal(o.Elem)
}

func (t *ArrayType) String() string {
	return "[" + t.Elem.String() + "]"
}

// FunctionType captures a function's argument variables, result type and
// linkage visibility. The result slot starts Unknown for functions whose
// result is inferred from the body.
type FunctionType struct {
	Args     []*Variable
	Result   Type
	IsPublic bool
}

func NewFunctionType(args []*Variable, result Type) *FunctionType {
	if result == nil {
		result = UnknownType
	}
	return &FunctionType{Args: args, Result: result}
}

func (t *FunctionType) ID() TypeID { return Func }

// Function types compare equal by tag alone; overload resolution compares
// signatures itself, argument by argument.
func (t *FunctionType) Equal(other Type) bool {
	return other != nil && other.ID() == Func
}

func (t *FunctionType) ResultTypeIsUnknown() bool { return IsUnknown(t.Result) }

func (t *FunctionType) String() string {
	var b strings.Builder
	b.WriteString("func (")
	for i, arg := range t.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name.String())
		if !IsUnknown(arg.Type) {
			b.WriteByte(' ')
			b.WriteString(arg.Type.String())
		}
	}
	b.WriteByte(')')
	if !IsUnknown(t.Result) {
		b.WriteByte(' ')
		b.WriteString(t.Result.String())
	}
	return b.String()
}

// StructMember is one named, typed slot of a StructType.
type StructMember struct {
	Name text.Text
	Type Type
}

// StructType is an ordered member list with a name → index map. Instances
// are immutable after construction and interned by canonical name within a
// compilation unit (see StructTypeSet).
type StructType struct {
	members   []StructMember
	index     map[string]int
	canonical string
}

func NewStructType(members []StructMember) *StructType {
	st := &StructType{
		members: members,
		index:   make(map[string]int, len(members)),
	}
	for i, m := range members {
		st.index[m.Name.String()] = i
	}
	var b strings.Builder
	b.WriteString("type.")
	for _, m := range members {
		b.WriteString(Mangle(m.Type))
	}
	st.canonical = b.String()
	return st
}

func (t *StructType) ID() TypeID { return Struct }

// Struct layout is always packed.
func (t *StructType) IsPacked() bool { return true }

func (t *StructType) Len() int                { return len(t.members) }
func (t *StructType) Member(i int) StructMember { return t.members[i] }
func (t *StructType) Members() []StructMember { return t.members }

// CanonicalName is the stable mangled identity of the struct layout:
// "type." followed by the member type manglings.
func (t *StructType) CanonicalName() string { return t.canonical }

// IndexOf reports the member offset for name.
func (t *StructType) IndexOf(name text.Text) (int, bool) {
	i, ok := t.index[name.String()]
	return i, ok
}

// TypeOf returns the member type for name, or nil if not found.
func (t *StructType) TypeOf(name text.Text) Type {
	if i, ok := t.index[name.String()]; ok {
		return t.members[i].Type
	}
	return nil
}

func (t *StructType) Equal(other Type) bool {
	o, ok := other.(*StructType)
	return ok && o.canonical == t.canonical
}

func (t *StructType) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, m := range t.members {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(m.Name.String())
		b.WriteByte(':')
		b.WriteString(m.Type.String())
	}
	b.WriteByte('}')
	return b.String()
}

// StructTypeSet interns StructTypes by canonical name so that two
// syntactically identical struct literals share one type.
type StructTypeSet map[string]*StructType

func (s StructTypeSet) Intern(st *StructType) *StructType {
	if existing, ok := s[st.CanonicalName()]; ok {
		return existing
	}
	s[st.CanonicalName()] = st
	return st
}

// HighestFidelity merges two types for a block result, a conditional branch
// merge or a binary operator: equal types stay, Int widens to Float, and
// anything else is incompatible (nil).
func HighestFidelity(t1, t2 Type) Type {
	switch {
	case t1 == nil || t2 == nil:
		return nil
	case t1 == t2 || t1.Equal(t2):
		return t1
	case t1.ID() == Int && t2.ID() == Float:
		return t2
	case t2.ID() == Int && t1.ID() == Float:
		return t1
	default:
		return nil
	}
}
