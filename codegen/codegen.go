package codegen

import (
	"fmt"
	"strings"

	"github.com/codeassociates/huec/ast"
	"github.com/codeassociates/huec/text"
)

// Generator emits textual LLVM IR for an analysed module. It covers the
// executable subset the driver can hand to an external JIT: literals,
// arithmetic and comparisons, bindings, resolved calls, conditionals and
// function definitions. Anything else aborts emission with a diagnostic;
// parsing and analysis have already run by then.
type Generator struct {
	moduleName string
	entryName  string

	body    *strings.Builder // current function body
	defs    strings.Builder // finished function definitions
	globals strings.Builder // private constant globals
	decls   strings.Builder // extern declarations

	errors   []string
	tmp      int
	globalID int
	funcID   int
	curLabel string
	declared map[string]bool
}

// value is an SSA register or immediate together with its Hue type.
type value struct {
	ref string
	typ ast.Type
}

// env binds names to emitted values within one function.
type env struct {
	parent *env
	names  map[string]value
	funcs  map[string]string // callable name → emitted IR symbol
}

func newEnv(parent *env) *env {
	return &env{parent: parent, names: map[string]value{}, funcs: map[string]string{}}
}

func (e *env) lookup(name string) (value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.names[name]; ok {
			return v, true
		}
	}
	return value{}, false
}

func (e *env) lookupFunc(name string) (string, bool) {
	for s := e; s != nil; s = s.parent {
		if sym, ok := s.funcs[name]; ok {
			return sym, true
		}
	}
	return "", false
}

func New(moduleName, entryName string) *Generator {
	if entryName == "" {
		entryName = "main"
	}
	return &Generator{
		moduleName: moduleName,
		entryName:  entryName,
		body:       &strings.Builder{},
		declared:   map[string]bool{},
	}
}

func (g *Generator) Errors() []string { return g.errors }

func (g *Generator) errorf(format string, args ...interface{}) value {
	g.errors = append(g.errors, fmt.Sprintf(format, args...))
	return value{}
}

func (g *Generator) emit(format string, args ...interface{}) {
	fmt.Fprintf(g.body, "  "+format+"\n", args...)
}

func (g *Generator) temp() string {
	g.tmp++
	return fmt.Sprintf("%%t%d", g.tmp)
}

func (g *Generator) label(prefix string) string {
	g.tmp++
	return fmt.Sprintf("%s%d", prefix, g.tmp)
}

// Generate lowers the module function to IR text. The module's own body
// becomes the entry function.
func (g *Generator) Generate(module *ast.Function) (string, error) {
	var out strings.Builder
	fmt.Fprintf(&out, "; ModuleID = '%s'\n", g.moduleName)
	fmt.Fprintf(&out, "source_filename = \"%s\"\n\n", g.moduleName)

	g.genEntryFunction(module)

	if len(g.errors) > 0 {
		return "", fmt.Errorf("%s", strings.Join(g.errors, "\n"))
	}

	if g.globals.Len() > 0 {
		out.WriteString(g.globals.String())
		out.WriteByte('\n')
	}
	if g.decls.Len() > 0 {
		out.WriteString(g.decls.String())
		out.WriteByte('\n')
	}
	out.WriteString(g.defs.String())
	return out.String(), nil
}

func (g *Generator) genEntryFunction(module *ast.Function) {
	scope := newEnv(nil)
	saved := g.body
	g.body = &strings.Builder{}
	g.curLabel = "entry"

	last := value{ref: "0", typ: ast.IntType}
	for _, e := range module.Body.Expressions {
		v, ok := g.genExpression(e, scope)
		if !ok {
			return
		}
		if v.ref != "" {
			last = v
		}
	}

	result := last
	if result.typ.ID() != ast.Int {
		// The process exit status is an integer; non-integer module results
		// are dropped.
		result = value{ref: "0", typ: ast.IntType}
	}

	body := g.body.String()
	g.body = saved
	fmt.Fprintf(&g.defs, "define i64 @%s() {\nentry:\n%s  ret i64 %s\n}\n\n",
		g.entryName, body, result.ref)
}

// genExpression dispatches on the node kind. The boolean result is false
// when emission failed.
func (g *Generator) genExpression(e ast.Expression, scope *env) (value, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		v, ok := n.Value()
		if !ok {
			g.errorf("Integer literal %s overflows 64 bits", n.Text)
			return value{}, false
		}
		return value{ref: fmt.Sprintf("%d", v), typ: ast.IntType}, true

	case *ast.FloatLit:
		return value{ref: fmt.Sprintf("%e", n.Value()), typ: ast.FloatType}, true

	case *ast.BoolLit:
		if n.Value {
			return value{ref: "true", typ: ast.BoolType}, true
		}
		return value{ref: "false", typ: ast.BoolType}, true

	case *ast.TextLit:
		return g.genTextLiteral(n), true

	case *ast.DataLit:
		return g.genDataLiteral(n), true

	case *ast.Symbol:
		return g.genSymbol(n, scope)

	case *ast.Assignment:
		return g.genAssignment(n, scope)

	case *ast.BinaryOp:
		return g.genBinaryOp(n, scope)

	case *ast.Call:
		return g.genCall(n, scope)

	case *ast.Conditional:
		return g.genConditional(n, scope)

	case *ast.ExternalFunction:
		g.genExternalFunction(n, scope)
		return value{}, true

	case *ast.Function:
		sym := g.genFunction(n, "__anon", scope)
		if sym == "" {
			return value{}, false
		}
		return value{ref: "@" + sym, typ: n.FT}, true

	default:
		g.errorf("Unable to generate code for node %s", e.String())
		return value{}, false
	}
}

func irType(t ast.Type) string {
	switch t.ID() {
	case ast.Int:
		return "i64"
	case ast.Float:
		return "double"
	case ast.Bool:
		return "i1"
	case ast.Byte:
		return "i8"
	case ast.Char:
		return "i32"
	case ast.Array:
		return irType(t.(*ast.ArrayType).Elem) + "*"
	case ast.Func:
		return "i8*"
	default:
		return ""
	}
}

func (g *Generator) genTextLiteral(n *ast.TextLit) value {
	g.globalID++
	name := fmt.Sprintf("@.text%d", g.globalID)
	var elems []string
	for _, c := range n.Text {
		elems = append(elems, fmt.Sprintf("i32 %d", c))
	}
	fmt.Fprintf(&g.globals, "%s = private unnamed_addr constant [%d x i32] [%s]\n",
		name, len(n.Text), strings.Join(elems, ", "))
	ref := g.temp()
	g.emit("%s = getelementptr [%d x i32], [%d x i32]* %s, i64 0, i64 0",
		ref, len(n.Text), len(n.Text), name)
	return value{ref: ref, typ: ast.NewArrayType(ast.CharType)}
}

func (g *Generator) genDataLiteral(n *ast.DataLit) value {
	g.globalID++
	name := fmt.Sprintf("@.data%d", g.globalID)
	var elems []string
	for _, c := range n.Bytes {
		elems = append(elems, fmt.Sprintf("i8 %d", c))
	}
	fmt.Fprintf(&g.globals, "%s = private unnamed_addr constant [%d x i8] [%s]\n",
		name, len(n.Bytes), strings.Join(elems, ", "))
	ref := g.temp()
	g.emit("%s = getelementptr [%d x i8], [%d x i8]* %s, i64 0, i64 0",
		ref, len(n.Bytes), len(n.Bytes), name)
	return value{ref: ref, typ: ast.NewArrayType(ast.ByteType)}
}

func (g *Generator) genSymbol(n *ast.Symbol, scope *env) (value, bool) {
	if n.IsPath() {
		g.errorf("Unable to generate code for path symbol \"%s\"", n.Name())
		return value{}, false
	}
	if v, ok := scope.lookup(n.Name().String()); ok {
		return v, true
	}
	g.errorf("Unknown symbol \"%s\"", n.Name())
	return value{}, false
}

func (g *Generator) genAssignment(n *ast.Assignment, scope *env) (value, bool) {
	name := n.Variable.Name.String()

	switch rhs := n.RHS.(type) {
	case *ast.Function:
		sym := g.genFunction(rhs, name, scope)
		if sym == "" {
			return value{}, false
		}
		scope.funcs[name] = sym
		v := value{ref: "@" + sym, typ: rhs.FT}
		scope.names[name] = v
		return v, true
	case *ast.ExternalFunction:
		g.genExternalFunction(rhs, scope)
		return value{}, true
	}

	v, ok := g.genExpression(n.RHS, scope)
	if !ok {
		return value{}, false
	}
	scope.names[name] = v
	return v, true
}

func (g *Generator) genBinaryOp(n *ast.BinaryOp, scope *env) (value, bool) {
	lhs, ok := g.genExpression(n.LHS, scope)
	if !ok {
		return value{}, false
	}
	rhs, ok := g.genExpression(n.RHS, scope)
	if !ok {
		return value{}, false
	}

	operandType := ast.HighestFidelity(lhs.typ, rhs.typ)
	if operandType == nil {
		g.errorf("Incompatible operand types %s and %s for operator '%s'",
			lhs.typ, rhs.typ, n.OperatorName())
		return value{}, false
	}
	lhs = g.widen(lhs, operandType)
	rhs = g.widen(rhs, operandType)

	isFloat := operandType.ID() == ast.Float
	var instr string
	resultType := operandType

	switch n.OperatorName() {
	case "+":
		instr = pick(isFloat, "fadd", "add")
	case "-":
		instr = pick(isFloat, "fsub", "sub")
	case "*":
		instr = pick(isFloat, "fmul", "mul")
	case "/":
		instr = pick(isFloat, "fdiv", "sdiv")
	case "<":
		instr = pick(isFloat, "fcmp olt", "icmp slt")
		resultType = ast.BoolType
	case ">":
		instr = pick(isFloat, "fcmp ogt", "icmp sgt")
		resultType = ast.BoolType
	case "<=":
		instr = pick(isFloat, "fcmp ole", "icmp sle")
		resultType = ast.BoolType
	case ">=":
		instr = pick(isFloat, "fcmp oge", "icmp sge")
		resultType = ast.BoolType
	case "==":
		instr = pick(isFloat, "fcmp oeq", "icmp eq")
		resultType = ast.BoolType
	case "!=":
		instr = pick(isFloat, "fcmp one", "icmp ne")
		resultType = ast.BoolType
	default:
		g.errorf("Unsupported binary operator '%s'", n.OperatorName())
		return value{}, false
	}

	ref := g.temp()
	g.emit("%s = %s %s %s, %s", ref, instr, irType(operandType), lhs.ref, rhs.ref)
	return value{ref: ref, typ: resultType}, true
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// widen converts an Int value to Float when the merged operand type asks
// for it.
func (g *Generator) widen(v value, to ast.Type) value {
	if v.typ != nil && v.typ.ID() == ast.Int && to.ID() == ast.Float {
		ref := g.temp()
		g.emit("%s = sitofp i64 %s to double", ref, v.ref)
		return value{ref: ref, typ: ast.FloatType}
	}
	return v
}

func (g *Generator) genCall(n *ast.Call, scope *env) (value, bool) {
	if n.ResolvedCallee == nil {
		g.errorf("Unresolved call to \"%s\"", n.Callee.Name())
		return value{}, false
	}
	ft := n.ResolvedCallee.FunctionType()

	var args []string
	for i, a := range n.Args {
		v, ok := g.genExpression(a, scope)
		if !ok {
			return value{}, false
		}
		args = append(args, irType(ft.Args[i].Type)+" "+v.ref)
	}

	sym := g.callSymbol(n, ft, scope)
	retType := ft.Result
	ref := g.temp()
	g.emit("%s = call %s @%s(%s)", ref, irType(retType), sym, strings.Join(args, ", "))
	return value{ref: ref, typ: retType}, true
}

// callSymbol picks the IR symbol for a resolved callee: externs link by
// their bare name, everything else by its mangled name.
func (g *Generator) callSymbol(n *ast.Call, ft *ast.FunctionType, scope *env) string {
	if ext, ok := n.ResolvedCallee.(*ast.ExternalFunction); ok {
		return ext.Name.String()
	}
	name := n.Callee.Name()
	if sym := ast.MangleFunctionSymbol(name, ft); g.declared[sym] {
		return sym
	}
	if sym, ok := scope.lookupFunc(name.String()); ok {
		return sym
	}
	return ast.MangleFunctionSymbol(name, ft)
}

func (g *Generator) genConditional(n *ast.Conditional, scope *env) (value, bool) {
	resultType := n.ResultType()
	if ast.IsUnknown(resultType) {
		g.errorf("Cannot generate conditional with unknown result type")
		return value{}, false
	}

	mergeLabel := g.label("ifend")
	type incoming struct{ ref, label string }
	var phis []incoming

	for _, br := range n.Branches {
		test, ok := g.genExpression(br.Test, scope)
		if !ok {
			return value{}, false
		}
		thenLabel := g.label("then")
		elseLabel := g.label("else")
		g.emit("br i1 %s, label %%%s, label %%%s", test.ref, thenLabel, elseLabel)

		g.startBlock(thenLabel)
		v, ok := g.genBlock(br.Block, scope)
		if !ok {
			return value{}, false
		}
		v = g.widen(v, resultType)
		g.emit("br label %%%s", mergeLabel)
		phis = append(phis, incoming{ref: v.ref, label: g.curLabel})

		g.startBlock(elseLabel)
	}

	v, ok := g.genBlock(n.DefaultBlock, scope)
	if !ok {
		return value{}, false
	}
	v = g.widen(v, resultType)
	g.emit("br label %%%s", mergeLabel)
	phis = append(phis, incoming{ref: v.ref, label: g.curLabel})

	g.startBlock(mergeLabel)
	ref := g.temp()
	var edges []string
	for _, in := range phis {
		edges = append(edges, fmt.Sprintf("[ %s, %%%s ]", in.ref, in.label))
	}
	g.emit("%s = phi %s %s", ref, irType(resultType), strings.Join(edges, ", "))
	return value{ref: ref, typ: resultType}, true
}

// startBlock opens a new basic block and tracks it as the current one, so
// phi edges name the block a value actually arrives from.
func (g *Generator) startBlock(label string) {
	fmt.Fprintf(g.body, "%s:\n", label)
	g.curLabel = label
}

func (g *Generator) genBlock(b *ast.Block, scope *env) (value, bool) {
	inner := newEnv(scope)
	var last value
	for _, e := range b.Expressions {
		v, ok := g.genExpression(e, inner)
		if !ok {
			return value{}, false
		}
		last = v
	}
	return last, true
}

func (g *Generator) genExternalFunction(n *ast.ExternalFunction, scope *env) {
	name := n.Name.String()
	if g.declared[name] {
		return
	}
	g.declared[name] = true
	scope.funcs[name] = name

	var params []string
	for _, arg := range n.FT.Args {
		params = append(params, irType(arg.Type))
	}
	fmt.Fprintf(&g.decls, "declare %s @%s(%s)\n",
		irType(n.FT.Result), name, strings.Join(params, ", "))
}

// genFunction emits a full function definition and returns its IR symbol
// name, or "" on failure.
func (g *Generator) genFunction(n *ast.Function, name string, scope *env) string {
	ft := n.FT
	if ft.ResultTypeIsUnknown() {
		g.errorf("Cannot generate function \"%s\" with unknown result type", name)
		return ""
	}
	for _, arg := range ft.Args {
		if ast.IsUnknown(arg.Type) {
			g.errorf("Cannot generate function \"%s\": argument \"%s\" has unknown type",
				name, arg.Name)
			return ""
		}
	}

	g.funcID++
	sym := ast.MangleFunctionSymbol(text.FromString(name), ft)
	if g.declared[sym] {
		sym = fmt.Sprintf("%s.%d", sym, g.funcID)
	}
	g.declared[sym] = true

	inner := newEnv(scope)
	inner.funcs[name] = sym // recursion through the function's own name

	var params []string
	for i, arg := range ft.Args {
		ref := fmt.Sprintf("%%arg%d", i)
		params = append(params, irType(arg.Type)+" "+ref)
		inner.names[arg.Name.String()] = value{ref: ref, typ: arg.Type}
	}

	savedBody, savedTmp, savedLabel := g.body, g.tmp, g.curLabel
	g.body = &strings.Builder{}
	g.tmp = 0
	g.curLabel = "entry"

	result, ok := g.genBlock(n.Body, inner)
	body := g.body.String()
	g.body, g.tmp, g.curLabel = savedBody, savedTmp, savedLabel
	if !ok {
		return ""
	}
	result = g.widenInto(&body, result, ft.Result)

	fmt.Fprintf(&g.defs, "define %s @%s(%s) {\nentry:\n%s  ret %s %s\n}\n\n",
		irType(ft.Result), sym, strings.Join(params, ", "), body,
		irType(ft.Result), result.ref)
	return sym
}

// widenInto appends an Int → Float conversion to a detached body when the
// declared result type requires it.
func (g *Generator) widenInto(body *string, v value, to ast.Type) value {
	if v.typ != nil && v.typ.ID() == ast.Int && to.ID() == ast.Float {
		ref := "%ret.widen"
		*body += fmt.Sprintf("  %s = sitofp i64 %s to double\n", ref, v.ref)
		return value{ref: ref, typ: ast.FloatType}
	}
	return v
}
