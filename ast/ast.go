package ast

import (
	"strconv"
	"strings"

	"github.com/codeassociates/huec/text"
)

// Node is the base interface for all AST nodes.
type Node interface {
	String() string
}

// Expression is a node carrying a result type, which may be Unknown until
// the semantic pass fills it in.
type Expression interface {
	Node
	ResultType() Type
	SetResultType(Type)
	expressionNode()
}

// Callable is implemented by the nodes a Call can resolve to.
type Callable interface {
	Node
	FunctionType() *FunctionType
	// CallResultType is the type a call to this callable produces.
	CallResultType() Type
}

// expr carries the lazily assigned result type shared by most expressions.
type expr struct {
	resultType Type
}

func (e *expr) expressionNode() {}

func (e *expr) ResultType() Type {
	if e.resultType == nil {
		return UnknownType
	}
	return e.resultType
}

func (e *expr) SetResultType(t Type) { e.resultType = t }

// IntLit is an integer literal, kept as source digits plus radix.
type IntLit struct {
	expr
	Text  text.Text
	Radix int // 2, 8, 10 or 16
}

func (n *IntLit) ResultType() Type { return IntType }
func (n *IntLit) String() string   { return n.Text.String() }

// Value parses the literal. The second result is false when the digits
// overflow a signed 64-bit integer.
func (n *IntLit) Value() (int64, bool) {
	v, err := strconv.ParseInt(n.Text.String(), n.Radix, 64)
	return v, err == nil
}

// FloatLit is a floating point literal, kept as source text.
type FloatLit struct {
	expr
	Text text.Text
}

func (n *FloatLit) ResultType() Type { return FloatType }
func (n *FloatLit) String() string   { return n.Text.String() }

func (n *FloatLit) Value() float64 {
	v, _ := strconv.ParseFloat(n.Text.String(), 64)
	return v
}

// BoolLit is true or false.
type BoolLit struct {
	expr
	Value bool
}

func (n *BoolLit) ResultType() Type { return BoolType }

func (n *BoolLit) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}

// NilLit is the nil literal.
type NilLit struct {
	expr
}

func (n *NilLit) ResultType() Type { return NilType }
func (n *NilLit) String() string   { return "nil" }

// DataLit is a '…' literal: a byte sequence of type [Byte].
type DataLit struct {
	expr
	Bytes []byte
}

func (n *DataLit) ResultType() Type { return NewArrayType(ByteType) }

func (n *DataLit) String() string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, c := range n.Bytes {
		if c >= 0x20 && c < 0x7f && c != '\'' && c != '\\' {
			b.WriteByte(c)
		} else {
			b.WriteString("\\x")
			const hex = "0123456789abcdef"
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// TextLit is a "…" literal: a scalar-value sequence of type [Char].
type TextLit struct {
	expr
	Text text.Text
}

func (n *TextLit) ResultType() Type { return NewArrayType(CharType) }

func (n *TextLit) String() string {
	return strconv.Quote(n.Text.String())
}

// ListLit is [e, …] of type [T] where T is the element type.
type ListLit struct {
	expr
	Elements []Expression
}

func (n *ListLit) ResultType() Type {
	if n.resultType != nil && n.resultType.ID() != Unknown {
		return n.resultType
	}
	if len(n.Elements) > 0 {
		if et := n.Elements[0].ResultType(); !IsUnknown(et) {
			return NewArrayType(et)
		}
	}
	return UnknownType
}

func (n *ListLit) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range n.Elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Symbol references a named entity, possibly through a path like a:b:c.
type Symbol struct {
	expr
	Pathname   text.List
	Namespaced bool
}

func NewSymbol(name text.Text, isPath bool) *Symbol {
	s := &Symbol{}
	if isPath {
		s.Pathname = name.Split(':')
	} else {
		s.Pathname = text.List{name}
	}
	return s
}

func (n *Symbol) IsPath() bool { return len(n.Pathname) > 1 }

// Name is the joined source form of the pathname.
func (n *Symbol) Name() text.Text { return n.Pathname.Join(text.FromString(":")) }

func (n *Symbol) String() string { return n.Pathname.String() }

// Variable is a named binding slot: function argument or assignment target.
// TypeDeclared distinguishes a type written in the source from one filled
// in by inference.
type Variable struct {
	Name         text.Text
	Mutable      bool
	Type         Type
	TypeDeclared bool
}

func (v *Variable) HasUnknownType() bool { return IsUnknown(v.Type) }

func (v *Variable) ResultType() Type {
	if v.Type == nil {
		return UnknownType
	}
	return v.Type
}

func (v *Variable) String() string { return v.Name.String() }

// Assignment binds the value of RHS to a variable.
type Assignment struct {
	expr
	Variable *Variable
	RHS      Expression
}

func (n *Assignment) ResultType() Type { return n.RHS.ResultType() }

func (n *Assignment) SetResultType(t Type) {
	if IsUnknown(n.RHS.ResultType()) {
		n.RHS.SetResultType(t)
	}
}

func (n *Assignment) String() string {
	return "(" + n.Variable.Name.String() + " = " + n.RHS.String() + ")"
}

// BinaryOpKind distinguishes single-byte operators from the two-byte
// equality family.
type BinaryOpKind int

const (
	SimpleLTR   BinaryOpKind = iota // '+', '-', '*', '/', '<', '>'
	EqualityLTR                     // '==', '!=', '<=', '>=' (Op holds the first byte)
)

// BinaryOp applies an infix operator.
type BinaryOp struct {
	expr
	Op   rune
	Kind BinaryOpKind
	LHS  Expression
	RHS  Expression
}

func (n *BinaryOp) IsComparison() bool {
	return n.Kind == EqualityLTR || n.Op == '<' || n.Op == '>'
}

// OperatorName is the source spelling of the operator.
func (n *BinaryOp) OperatorName() string {
	if n.Kind == EqualityLTR {
		return string(n.Op) + "="
	}
	return string(n.Op)
}

func (n *BinaryOp) ResultType() Type {
	if n.IsComparison() {
		return BoolType
	}
	if lt := n.LHS.ResultType(); !IsUnknown(lt) {
		return lt
	}
	return n.RHS.ResultType()
}

func (n *BinaryOp) SetResultType(t Type) {
	if n.LHS != nil && IsUnknown(n.LHS.ResultType()) {
		n.LHS.SetResultType(t)
	}
	if n.RHS != nil && IsUnknown(n.RHS.ResultType()) {
		n.RHS.SetResultType(t)
	}
}

func (n *BinaryOp) String() string {
	return "(" + n.LHS.String() + " " + n.OperatorName() + " " + n.RHS.String() + ")"
}

// Call invokes a named function with juxtaposed arguments. ResolvedCallee
// is a weak back-reference filled in by overload resolution.
type Call struct {
	expr
	Callee         *Symbol
	Args           []Expression
	ResolvedCallee Callable
}

func (n *Call) ResultType() Type {
	if n.ResolvedCallee != nil {
		if t := n.ResolvedCallee.CallResultType(); !IsUnknown(t) {
			return t
		}
	}
	if n.resultType == nil {
		return UnknownType
	}
	return n.resultType
}

func (n *Call) SetResultType(t Type) {
	if n.ResolvedCallee != nil {
		ft := n.ResolvedCallee.FunctionType()
		if ft != nil && ft.ResultTypeIsUnknown() {
			ft.Result = t
			return
		}
	}
	n.resultType = t
}

func (n *Call) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(n.Callee.String())
	for _, a := range n.Args {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Branch is one (test, block) arm of a conditional.
type Branch struct {
	Test  Expression
	Block *Block
}

// Conditional is an if/else-if/else chain with a required default block.
type Conditional struct {
	expr
	Branches     []Branch
	DefaultBlock *Block
}

// ResultType merges the branch block types under numeric widening. It is
// Unknown until every branch has a known type and the types merge.
func (n *Conditional) ResultType() Type {
	if n.resultType != nil && n.resultType.ID() != Unknown {
		return n.resultType
	}
	if n.DefaultBlock == nil {
		return UnknownType
	}
	merged := n.DefaultBlock.ResultType()
	if IsUnknown(merged) {
		return UnknownType
	}
	for _, br := range n.Branches {
		bt := br.Block.ResultType()
		if IsUnknown(bt) {
			return UnknownType
		}
		m := HighestFidelity(merged, bt)
		if m == nil {
			return UnknownType
		}
		merged = m
	}
	return merged
}

func (n *Conditional) String() string {
	var b strings.Builder
	b.WriteString("(if ")
	for i, br := range n.Branches {
		if i > 0 {
			b.WriteString(" else if ")
		}
		b.WriteString(br.Test.String())
		b.WriteByte(' ')
		b.WriteString(br.Block.String())
	}
	b.WriteString(" else ")
	if n.DefaultBlock != nil {
		b.WriteString(n.DefaultBlock.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Block is an expression sequence; its result type is the result type of
// its last expression, or Unknown when empty.
type Block struct {
	expr
	Expressions []Expression
}

func NewBlock(exprs ...Expression) *Block { return &Block{Expressions: exprs} }

func (n *Block) Add(e Expression) { n.Expressions = append(n.Expressions, e) }

func (n *Block) ResultType() Type {
	if len(n.Expressions) != 0 {
		return n.Expressions[len(n.Expressions)-1].ResultType()
	}
	return UnknownType
}

func (n *Block) SetResultType(t Type) {
	if len(n.Expressions) != 0 {
		n.Expressions[len(n.Expressions)-1].SetResultType(t)
	}
}

func (n *Block) String() string {
	parts := make([]string, len(n.Expressions))
	for i, e := range n.Expressions {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// Function is a function definition. Its own result type is the function
// type; the type produced by calling it is the function type's result.
type Function struct {
	expr
	FT   *FunctionType
	Body *Block
}

func NewFunction(ft *FunctionType, body *Block) *Function {
	return &Function{FT: ft, Body: body}
}

func (n *Function) FunctionType() *FunctionType { return n.FT }

func (n *Function) ResultType() Type { return n.FT }

// Function and Structure result types are structural; the inference pass
// writes through the function type instead.
func (n *Function) SetResultType(Type) {}

func (n *Function) CallResultType() Type {
	if n.FT == nil {
		return UnknownType
	}
	return n.FT.Result
}

func (n *Function) String() string {
	return "(" + n.FT.String() + " (" + n.Body.String() + "))"
}

// ExternalFunction declares a function provided by the host.
type ExternalFunction struct {
	expr
	Name text.Text
	FT   *FunctionType
}

func (n *ExternalFunction) FunctionType() *FunctionType { return n.FT }

func (n *ExternalFunction) ResultType() Type { return n.FT }

func (n *ExternalFunction) SetResultType(t Type) {
	if n.FT != nil && n.FT.ResultTypeIsUnknown() {
		n.FT.Result = t
	}
}

func (n *ExternalFunction) CallResultType() Type {
	if n.FT == nil {
		return UnknownType
	}
	return n.FT.Result
}

func (n *ExternalFunction) String() string {
	return "(extern " + n.Name.String() + " " + n.FT.String() + ")"
}

// StructureMember records where a member's value lives inside the block.
type StructureMember struct {
	Index int
	Value Expression
}

// Structure is a struct literal. Its block holds one assignment per member;
// the cached StructType is re-materialised by Update whenever the block's
// member types change.
type Structure struct {
	expr
	Block      *Block
	structType *StructType
	members    map[string]StructureMember
}

func NewStructure(block *Block) *Structure {
	return &Structure{Block: block}
}

func (n *Structure) StructType() *StructType { return n.structType }

func (n *Structure) ResultType() Type {
	if n.structType == nil {
		return UnknownType
	}
	return n.structType
}

func (n *Structure) SetResultType(Type) {}

// Member returns the named member, if present.
func (n *Structure) Member(name text.Text) (StructureMember, bool) {
	m, ok := n.members[name.String()]
	return m, ok
}

// Update re-materialises the cached StructType from the block's
// assignments, interning the result in set.
func (n *Structure) Update(set StructTypeSet) {
	members := make([]StructMember, 0, len(n.Block.Expressions))
	n.members = make(map[string]StructureMember, len(n.Block.Expressions))

	for _, e := range n.Block.Expressions {
		ass, ok := e.(*Assignment)
		if !ok {
			continue
		}
		name := ass.Variable.Name
		n.members[name.String()] = StructureMember{Index: len(members), Value: ass.RHS}
		members = append(members, StructMember{Name: name, Type: ass.ResultType()})
	}

	st := NewStructType(members)
	if set != nil {
		st = set.Intern(st)
	}
	n.structType = st
}

func (n *Structure) String() string {
	return "(struct " + n.Block.String() + ")"
}
