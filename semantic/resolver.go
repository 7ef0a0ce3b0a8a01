package semantic

import (
	"fmt"

	"github.com/codeassociates/huec/ast"
	"github.com/codeassociates/huec/text"
)

// floatIntegerLimit is the largest magnitude an Int constant can take and
// still convert to Float without losing precision (2^53).
const floatIntegerLimit = int64(1) << 53

// Resolver walks a parsed module once in program order, binding names,
// resolving overloaded calls and inferring lazy function result types as a
// fixed point over an explicit deferred-work queue.
type Resolver struct {
	scopes      []*Scope
	structTypes ast.StructTypeSet

	deferred       []deferredCall
	deferredSyms   []deferredSym
	pendingFuncs   []pendingFunc
	pendingAssigns []*ast.Assignment
	structures     []*ast.Structure

	errors   []string
	warnings []string
}

type deferredCall struct {
	call     *ast.Call
	expected ast.Type
	scopes   []*Scope // snapshot of the stack at the call site
}

type deferredSym struct {
	sym    *ast.Symbol
	scopes []*Scope
}

type pendingFunc struct {
	name text.Text
	fn   *ast.Function
}

// Analyze runs the semantic pass over a module function. It returns the
// collected errors and warnings; the AST has been annotated in place.
func Analyze(module *ast.Function) (errors, warnings []string) {
	r := &Resolver{structTypes: make(ast.StructTypeSet)}
	r.visitFunction(module, text.FromString("__module"))
	r.fixpoint()
	return r.errors, r.warnings
}

func (r *Resolver) errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *Resolver) warnf(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *Resolver) push() *Scope {
	s := NewScope()
	r.scopes = append(r.scopes, s)
	return s
}

func (r *Resolver) pop() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) define(name text.Text, node ast.Node) {
	r.scopes[len(r.scopes)-1].Define(name, node)
}

func (r *Resolver) defineFunction(name text.Text, fn ast.Callable) {
	r.scopes[len(r.scopes)-1].DefineFunction(name, fn)
}

func (r *Resolver) snapshot() []*Scope {
	return append([]*Scope(nil), r.scopes...)
}

// visit dispatches on the node kind. expected carries an expected result
// type into call resolution, nil when the context expects nothing
// particular.
func (r *Resolver) visit(node ast.Expression, expected ast.Type) {
	switch n := node.(type) {
	case *ast.Function:
		r.visitFunction(n, text.FromString("__func"))
	case *ast.ExternalFunction:
		r.define(n.Name, n)
		r.defineFunction(n.Name, n)
	case *ast.Block:
		r.visitBlock(n)
	case *ast.Symbol:
		r.visitSymbol(n)
	case *ast.Assignment:
		r.visitAssignment(n)
	case *ast.BinaryOp:
		r.visitBinaryOp(n)
	case *ast.Call:
		r.visitCall(n, expected)
	case *ast.Conditional:
		r.visitConditional(n)
	case *ast.Structure:
		r.visitStructure(n)
	case *ast.ListLit:
		r.visitList(n)
	}
	// Literals carry their own types; nothing to do.
}

func (r *Resolver) visitFunction(fn *ast.Function, name text.Text) {
	r.push()
	defer r.pop()

	// The function can refer to itself, and to its arguments.
	r.define(name, fn)
	for _, arg := range fn.FT.Args {
		r.define(arg.Name, arg)
	}

	r.visitBlock(fn.Body)

	// Materialise the lazily inferred result type if the body is typed now.
	if fn.FT.ResultTypeIsUnknown() {
		if bt := fn.Body.ResultType(); !ast.IsUnknown(bt) {
			fn.FT.Result = bt
		} else if len(fn.Body.Expressions) > 0 {
			r.pendingFuncs = append(r.pendingFuncs, pendingFunc{name: name, fn: fn})
		}
	}
}

func (r *Resolver) visitBlock(block *ast.Block) {
	r.push()
	defer r.pop()
	for _, e := range block.Expressions {
		r.visit(e, nil)
	}
}

func (r *Resolver) visitAssignment(a *ast.Assignment) {
	name := a.Variable.Name

	// The binding is visible before the RHS is visited, so a function can
	// recurse into itself through its own name.
	r.define(name, a.RHS)

	switch rhs := a.RHS.(type) {
	case *ast.Function:
		r.defineFunction(name, rhs)
		r.visitFunction(rhs, name)
	case *ast.ExternalFunction:
		r.defineFunction(name, rhs)
	default:
		var expected ast.Type
		if !a.Variable.HasUnknownType() {
			expected = a.Variable.Type
		}
		r.visit(a.RHS, expected)
	}

	r.checkAssignmentTypes(a)
}

func (r *Resolver) checkAssignmentTypes(a *ast.Assignment) {
	rhsType := a.RHS.ResultType()

	if a.Variable.HasUnknownType() {
		// The variable inherits its type from the RHS.
		if !ast.IsUnknown(rhsType) {
			a.Variable.Type = rhsType
		} else {
			r.pendingAssigns = append(r.pendingAssigns, a)
		}
		return
	}

	if ast.IsUnknown(rhsType) {
		// The RHS is a deferred call; check again once it resolves.
		r.pendingAssigns = append(r.pendingAssigns, a)
		return
	}

	declared := a.Variable.Type
	switch {
	case declared.Equal(rhsType):
		if a.Variable.TypeDeclared && isLiteral(a.RHS) {
			r.warnf("Redundant type annotation on \"%s\"", a.Variable.Name)
		}
	case declared.ID() == ast.Float && rhsType.ID() == ast.Int:
		// Implicit Int → Float widening.
		if lit, ok := a.RHS.(*ast.IntLit); ok {
			warnOnPrecisionLoss(r, lit)
		}
	case declared.ID() == ast.Int && rhsType.ID() == ast.Float:
		r.errorf("Cannot assign Float value to \"%s\" declared Int (implicit truncation)", a.Variable.Name)
	default:
		r.errorf("Type mismatch: \"%s\" declared %s but assigned %s",
			a.Variable.Name, declared, rhsType)
	}
}

func isLiteral(e ast.Expression) bool {
	switch e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit, *ast.TextLit, *ast.DataLit:
		return true
	}
	return false
}

func warnOnPrecisionLoss(r *Resolver, lit *ast.IntLit) {
	if v, ok := lit.Value(); ok && (v > floatIntegerLimit || v < -floatIntegerLimit) {
		r.warnf("Integer constant %s exceeds Float precision when widened", lit.Text)
	}
}

func (r *Resolver) visitSymbol(sym *ast.Symbol) {
	d := deferredSym{sym: sym, scopes: r.snapshot()}
	if !r.trySymbol(d, false) {
		r.deferredSyms = append(r.deferredSyms, d)
	}
}

// trySymbol resolves a symbol against its scope snapshot. Unresolvable
// symbols wait for the fixed point; at report time they become errors.
func (r *Resolver) trySymbol(d deferredSym, report bool) bool {
	target, pathErr := lookupPath(d.scopes, d.sym)
	if pathErr != "" {
		if report {
			r.errorf("%s", pathErr)
		}
		return report
	}
	if target == nil {
		if report {
			r.errorf("Unknown symbol \"%s\"", d.sym.Name())
		}
		return report
	}
	if t := target.ResultType(); !ast.IsUnknown(t) {
		d.sym.SetResultType(t)
		return true
	}
	// Resolved to a target whose type is still unknown: if it never
	// materialises, the defining site reports it.
	return report
}

func (r *Resolver) visitBinaryOp(op *ast.BinaryOp) {
	r.visit(op.LHS, nil)
	r.visit(op.RHS, nil)

	lt, rt := op.LHS.ResultType(), op.RHS.ResultType()
	if ast.IsUnknown(lt) || ast.IsUnknown(rt) {
		return
	}
	merged := ast.HighestFidelity(lt, rt)
	if merged == nil {
		r.errorf("Incompatible operand types %s and %s for operator '%s'",
			lt, rt, op.OperatorName())
		return
	}
	if merged.ID() == ast.Float {
		if lit, ok := op.LHS.(*ast.IntLit); ok {
			warnOnPrecisionLoss(r, lit)
		}
		if lit, ok := op.RHS.(*ast.IntLit); ok {
			warnOnPrecisionLoss(r, lit)
		}
	}
}

func (r *Resolver) visitConditional(cond *ast.Conditional) {
	for _, br := range cond.Branches {
		r.visit(br.Test, nil)
		r.visitBlock(br.Block)
	}
	if cond.DefaultBlock == nil {
		r.errorf("Missing default block in conditional")
		return
	}
	r.visitBlock(cond.DefaultBlock)

	// Merge the branch result types under numeric widening.
	merged := cond.DefaultBlock.ResultType()
	known := !ast.IsUnknown(merged)
	for _, br := range cond.Branches {
		bt := br.Block.ResultType()
		if ast.IsUnknown(bt) {
			known = false
			break
		}
		if !known {
			continue
		}
		m := ast.HighestFidelity(merged, bt)
		if m == nil {
			r.errorf("Incompatible result types %s and %s in conditional branches", merged, bt)
			return
		}
		merged = m
	}
	if known {
		cond.SetResultType(merged)
	}
}

func (r *Resolver) visitStructure(st *ast.Structure) {
	hadUnknown := ast.IsUnknown(st.Block.ResultType())

	r.visitBlock(st.Block)

	if hadUnknown && ast.IsUnknown(st.Block.ResultType()) {
		r.errorf("Failed to infer result type of block in struct")
	}

	// Dependants might have been updated, so refresh unconditionally.
	st.Update(r.structTypes)
	r.structures = append(r.structures, st)
}

func (r *Resolver) visitList(list *ast.ListLit) {
	var elemType ast.Type
	for _, e := range list.Elements {
		r.visit(e, nil)
		et := e.ResultType()
		if ast.IsUnknown(et) {
			continue
		}
		if elemType == nil {
			elemType = et
			continue
		}
		m := ast.HighestFidelity(elemType, et)
		if m == nil {
			r.errorf("Mixed element types %s and %s in list literal", elemType, et)
			return
		}
		elemType = m
	}
	if elemType != nil {
		list.SetResultType(ast.NewArrayType(elemType))
	}
}

func (r *Resolver) visitCall(call *ast.Call, expected ast.Type) {
	for _, arg := range call.Args {
		r.visit(arg, nil)
	}

	// Overload selection always goes through the deferred queue so that it
	// sees every declaration in scope, not just those before the call:
	// forward references resolve and selection stays independent of
	// declaration order.
	r.deferred = append(r.deferred,
		deferredCall{call: call, expected: expected, scopes: r.snapshot()})
}

// fixpoint alternates between retrying deferred calls and propagating
// inferred function result types until a full round resolves nothing new,
// then reports whatever is still unresolved.
func (r *Resolver) fixpoint() {
	for {
		progress := false

		var remaining []deferredCall
		for _, d := range r.deferred {
			if r.tryResolveCall(d, false) {
				progress = true
			} else {
				remaining = append(remaining, d)
			}
		}
		r.deferred = remaining

		var remainingSyms []deferredSym
		for _, d := range r.deferredSyms {
			if r.trySymbol(d, false) {
				progress = true
			} else {
				remainingSyms = append(remainingSyms, d)
			}
		}
		r.deferredSyms = remainingSyms

		var remainingAssigns []*ast.Assignment
		for _, a := range r.pendingAssigns {
			if ast.IsUnknown(a.RHS.ResultType()) {
				remainingAssigns = append(remainingAssigns, a)
				continue
			}
			r.checkAssignmentTypes(a)
			progress = true
		}
		r.pendingAssigns = remainingAssigns

		var pending []pendingFunc
		for _, pf := range r.pendingFuncs {
			if pf.fn.FT.ResultTypeIsUnknown() {
				if bt := pf.fn.Body.ResultType(); !ast.IsUnknown(bt) {
					pf.fn.FT.Result = bt
					progress = true
					continue
				}
				pending = append(pending, pf)
			}
		}
		r.pendingFuncs = pending

		// Struct types may gain member types as calls resolve.
		for _, st := range r.structures {
			if structHasUnknownMember(st) {
				before := st.StructType()
				st.Update(r.structTypes)
				if !structHasUnknownMember(st) || !sameStructType(before, st.StructType()) {
					progress = true
				}
			}
		}

		if !progress {
			break
		}
	}

	// Quiescent: everything left is an error.
	for _, d := range r.deferred {
		r.tryResolveCall(d, true)
	}
	for _, d := range r.deferredSyms {
		r.trySymbol(d, true)
	}
	for _, pf := range r.pendingFuncs {
		r.errorf("Cannot infer result type of \"%s\"", pf.name)
	}
}

func structHasUnknownMember(st *ast.Structure) bool {
	t := st.StructType()
	if t == nil {
		return true
	}
	for _, m := range t.Members() {
		if ast.IsUnknown(m.Type) {
			return true
		}
	}
	return false
}

func sameStructType(a, b *ast.StructType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.CanonicalName() == b.CanonicalName()
}
