package parser

import (
	"testing"

	"github.com/codeassociates/huec/ast"
	"github.com/codeassociates/huec/lexer"
	"github.com/codeassociates/huec/text"
)

func parse(t *testing.T, input string) *ast.Function {
	t.Helper()
	p := New(lexer.New(text.FromString(input)))
	module := p.ParseModule()
	checkParserErrors(t, p)
	return module
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("parser error: %s", e)
		}
		t.FailNow()
	}
}

func TestIntLiteralModule(t *testing.T) {
	module := parse(t, "42")
	if len(module.Body.Expressions) != 1 {
		t.Fatalf("expected 1 expression, got %d", len(module.Body.Expressions))
	}
	lit, ok := module.Body.Expressions[0].(*ast.IntLit)
	if !ok {
		t.Fatalf("expected IntLit, got %T", module.Body.Expressions[0])
	}
	if lit.Text.String() != "42" || lit.Radix != 10 {
		t.Errorf("expected 42 radix 10, got %s radix %d", lit.Text, lit.Radix)
	}
}

func TestHexLiteralExpression(t *testing.T) {
	module := parse(t, "0xff")
	lit := module.Body.Expressions[0].(*ast.IntLit)
	if lit.Radix != 16 || lit.Text.String() != "ff" {
		t.Errorf("expected ff radix 16, got %s radix %d", lit.Text, lit.Radix)
	}
}

func TestSimpleAssignment(t *testing.T) {
	module := parse(t, "x = 5\n")
	assign, ok := module.Body.Expressions[0].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected Assignment, got %T", module.Body.Expressions[0])
	}
	if assign.Variable.Name.String() != "x" {
		t.Errorf("expected x, got %s", assign.Variable.Name)
	}
	if assign.Variable.Type.ID() != ast.Int {
		t.Errorf("literal RHS infers Int at parse time, got %s", assign.Variable.Type)
	}
	if assign.Variable.TypeDeclared {
		t.Error("no annotation was written")
	}
}

func TestTypedAssignment(t *testing.T) {
	module := parse(t, "x Float = 5\n")
	assign := module.Body.Expressions[0].(*ast.Assignment)
	if !assign.Variable.TypeDeclared || assign.Variable.Type.ID() != ast.Float {
		t.Errorf("expected declared Float, got %s (declared=%v)",
			assign.Variable.Type, assign.Variable.TypeDeclared)
	}
}

func TestMutableAssignment(t *testing.T) {
	module := parse(t, "x MUTABLE Int = 5\n")
	assign := module.Body.Expressions[0].(*ast.Assignment)
	if !assign.Variable.Mutable {
		t.Error("expected mutable variable")
	}
	if assign.Variable.Type.ID() != ast.Int {
		t.Errorf("expected Int, got %s", assign.Variable.Type)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	module := parse(t, "x = 1 + 2 * 3\n")
	assign := module.Body.Expressions[0].(*ast.Assignment)
	add, ok := assign.RHS.(*ast.BinaryOp)
	if !ok {
		t.Fatalf("expected BinaryOp, got %T", assign.RHS)
	}
	if add.Op != '+' {
		t.Fatalf("expected + at the top, got %c", add.Op)
	}
	mul, ok := add.RHS.(*ast.BinaryOp)
	if !ok || mul.Op != '*' {
		t.Fatalf("expected * on the right, got %v", add.RHS)
	}
}

func TestComparisonOperators(t *testing.T) {
	module := parse(t, "x = 1 <= 2\n")
	assign := module.Body.Expressions[0].(*ast.Assignment)
	cmp := assign.RHS.(*ast.BinaryOp)
	if cmp.Kind != ast.EqualityLTR || cmp.Op != '<' {
		t.Errorf("expected EqualityLTR '<', got kind %d op %c", cmp.Kind, cmp.Op)
	}
	if cmp.OperatorName() != "<=" {
		t.Errorf("expected <=, got %s", cmp.OperatorName())
	}
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	module := parse(t, "x = (1 + 2) * 3\n")
	assign := module.Body.Expressions[0].(*ast.Assignment)
	mul := assign.RHS.(*ast.BinaryOp)
	if mul.Op != '*' {
		t.Fatalf("expected * at the top, got %c", mul.Op)
	}
	if add, ok := mul.LHS.(*ast.BinaryOp); !ok || add.Op != '+' {
		t.Fatalf("expected parenthesised + on the left")
	}
}

func TestFunctionDefinition(t *testing.T) {
	module := parse(t, "f = func (x Int, y Float) Float -> y\n")
	assign := module.Body.Expressions[0].(*ast.Assignment)
	fn, ok := assign.RHS.(*ast.Function)
	if !ok {
		t.Fatalf("expected Function, got %T", assign.RHS)
	}
	if len(fn.FT.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(fn.FT.Args))
	}
	if fn.FT.Args[0].Name.String() != "x" || fn.FT.Args[0].Type.ID() != ast.Int {
		t.Errorf("arg 0: got %s %s", fn.FT.Args[0].Name, fn.FT.Args[0].Type)
	}
	if fn.FT.Result.ID() != ast.Float {
		t.Errorf("expected Float result, got %s", fn.FT.Result)
	}
	if assign.Variable.Type != ast.Type(fn.FT) {
		t.Error("variable type is the function type")
	}
}

func TestFunctionWithoutResultType(t *testing.T) {
	module := parse(t, "g = func (n Int) -> n * 2\n")
	fn := module.Body.Expressions[0].(*ast.Assignment).RHS.(*ast.Function)
	if !fn.FT.ResultTypeIsUnknown() {
		t.Errorf("result type should be unknown until inference, got %s", fn.FT.Result)
	}
}

func TestFunctionIndentedBody(t *testing.T) {
	module := parse(t, "f = func (x Int) Int ->\n  y = x * 2\n  y\n")
	fn := module.Body.Expressions[0].(*ast.Assignment).RHS.(*ast.Function)
	if len(fn.Body.Expressions) != 2 {
		t.Fatalf("expected 2 body expressions, got %d", len(fn.Body.Expressions))
	}
	if _, ok := fn.Body.Expressions[1].(*ast.Symbol); !ok {
		t.Errorf("expected trailing symbol, got %T", fn.Body.Expressions[1])
	}
}

func TestExternalFunction(t *testing.T) {
	module := parse(t, "extern atan2 (x Float, y Float) Float\n")
	ext, ok := module.Body.Expressions[0].(*ast.ExternalFunction)
	if !ok {
		t.Fatalf("expected ExternalFunction, got %T", module.Body.Expressions[0])
	}
	if ext.Name.String() != "atan2" {
		t.Errorf("expected atan2, got %s", ext.Name)
	}
	if len(ext.FT.Args) != 2 || ext.FT.Result.ID() != ast.Float {
		t.Errorf("signature wrong: %s", ext.FT)
	}
}

func TestCallJuxtaposedArguments(t *testing.T) {
	module := parse(t, "f = func (a Int, b Int) Int -> a\nf 1 2\n")
	call, ok := module.Body.Expressions[1].(*ast.Call)
	if !ok {
		t.Fatalf("expected Call, got %T", module.Body.Expressions[1])
	}
	if call.Callee.Name().String() != "f" {
		t.Errorf("expected callee f, got %s", call.Callee.Name())
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
}

func TestCallArgumentSymbolsDoNotNest(t *testing.T) {
	// Inside call arguments a bare identifier is a symbol, not a nested
	// call; nesting requires parentheses.
	module := parse(t, "f 10 x (g 20 y)\n")
	call := module.Body.Expressions[0].(*ast.Call)
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(call.Args))
	}
	if _, ok := call.Args[1].(*ast.Symbol); !ok {
		t.Errorf("arg 1: expected Symbol, got %T", call.Args[1])
	}
	inner, ok := call.Args[2].(*ast.Call)
	if !ok {
		t.Fatalf("arg 2: expected nested Call, got %T", call.Args[2])
	}
	if len(inner.Args) != 2 {
		t.Errorf("nested call: expected 2 args, got %d", len(inner.Args))
	}
}

func TestCallTerminatedBySameIndentLine(t *testing.T) {
	module := parse(t, "f 1\ng 2\n")
	if len(module.Body.Expressions) != 2 {
		t.Fatalf("expected two independent calls, got %d expressions", len(module.Body.Expressions))
	}
	for i, e := range module.Body.Expressions {
		call, ok := e.(*ast.Call)
		if !ok {
			t.Fatalf("expression %d: expected Call, got %T", i, e)
		}
		if len(call.Args) != 1 {
			t.Errorf("expression %d: expected 1 arg, got %d", i, len(call.Args))
		}
	}
}

func TestCallContinuationByDeeperIndent(t *testing.T) {
	module := parse(t, "f 1\n  g 2\n")
	if len(module.Body.Expressions) != 1 {
		t.Fatalf("expected one call, got %d expressions", len(module.Body.Expressions))
	}
	call := module.Body.Expressions[0].(*ast.Call)
	if len(call.Args) != 2 {
		t.Fatalf("expected f to take 2 args, got %d", len(call.Args))
	}
	inner, ok := call.Args[1].(*ast.Call)
	if !ok {
		t.Fatalf("expected the continuation to parse as a nested call, got %T", call.Args[1])
	}
	if inner.Callee.Name().String() != "g" || len(inner.Args) != 1 {
		t.Errorf("expected (g 2), got %s", inner)
	}
}

func TestConditionalSingleLine(t *testing.T) {
	module := parse(t, "if true 1 else 2.5\n")
	cond, ok := module.Body.Expressions[0].(*ast.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %T", module.Body.Expressions[0])
	}
	if len(cond.Branches) != 1 {
		t.Fatalf("expected 1 branch, got %d", len(cond.Branches))
	}
	if _, ok := cond.Branches[0].Test.(*ast.BoolLit); !ok {
		t.Errorf("expected bool test, got %T", cond.Branches[0].Test)
	}
	if cond.DefaultBlock == nil || len(cond.DefaultBlock.Expressions) != 1 {
		t.Fatal("expected default block with 1 expression")
	}
}

func TestConditionalElseIfChain(t *testing.T) {
	module := parse(t, "x = if a > 1 1 else if a > 2 2 else 3\n")
	cond := module.Body.Expressions[0].(*ast.Assignment).RHS.(*ast.Conditional)
	if len(cond.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(cond.Branches))
	}
	if cond.DefaultBlock == nil {
		t.Fatal("expected default block")
	}
}

func TestConditionalIndentedBlocks(t *testing.T) {
	input := "x = if a > 1\n  b = 2\n  b\nelse\n  3\n"
	module := parse(t, input)
	cond := module.Body.Expressions[0].(*ast.Assignment).RHS.(*ast.Conditional)
	if len(cond.Branches[0].Block.Expressions) != 2 {
		t.Fatalf("expected 2 expressions in branch block, got %d",
			len(cond.Branches[0].Block.Expressions))
	}
	if len(cond.DefaultBlock.Expressions) != 1 {
		t.Fatalf("expected 1 expression in default block, got %d",
			len(cond.DefaultBlock.Expressions))
	}
}

func TestMissingElseIsError(t *testing.T) {
	p := New(lexer.New(text.FromString("if true 1\n")))
	p.ParseModule()
	if len(p.Errors()) == 0 {
		t.Fatal("expected an error for conditional without else")
	}
}

func TestStructure(t *testing.T) {
	module := parse(t, "p = struct { x = 1, y = 2.5 }\n")
	st, ok := module.Body.Expressions[0].(*ast.Assignment).RHS.(*ast.Structure)
	if !ok {
		t.Fatalf("expected Structure, got %T", module.Body.Expressions[0].(*ast.Assignment).RHS)
	}
	if len(st.Block.Expressions) != 2 {
		t.Fatalf("expected 2 members, got %d", len(st.Block.Expressions))
	}
}

func TestPathSymbol(t *testing.T) {
	module := parse(t, "p:y\n")
	sym, ok := module.Body.Expressions[0].(*ast.Symbol)
	if !ok {
		t.Fatalf("expected Symbol, got %T", module.Body.Expressions[0])
	}
	if !sym.IsPath() || len(sym.Pathname) != 2 {
		t.Fatalf("expected 2-component path, got %v", sym.Pathname)
	}
	if sym.Pathname[0].String() != "p" || sym.Pathname[1].String() != "y" {
		t.Errorf("expected p:y, got %s", sym.Pathname)
	}
}

func TestListLiteral(t *testing.T) {
	module := parse(t, "xs = [1, 2, 3]\n")
	list, ok := module.Body.Expressions[0].(*ast.Assignment).RHS.(*ast.ListLit)
	if !ok {
		t.Fatalf("expected ListLit")
	}
	if len(list.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(list.Elements))
	}
}

func TestTextAndDataLiterals(t *testing.T) {
	module := parse(t, "s = \"hi\"\nd = 'hi'\n")
	if _, ok := module.Body.Expressions[0].(*ast.Assignment).RHS.(*ast.TextLit); !ok {
		t.Error("expected TextLit")
	}
	if _, ok := module.Body.Expressions[1].(*ast.Assignment).RHS.(*ast.DataLit); !ok {
		t.Error("expected DataLit")
	}
}

func TestSemicolonSeparatesExpressions(t *testing.T) {
	module := parse(t, "f = func (x Int) Int -> x ; f 3\n")
	if len(module.Body.Expressions) != 2 {
		t.Fatalf("expected 2 expressions, got %d", len(module.Body.Expressions))
	}
	if _, ok := module.Body.Expressions[1].(*ast.Call); !ok {
		t.Errorf("expected trailing call, got %T", module.Body.Expressions[1])
	}
}

func TestCommentsAreDiscarded(t *testing.T) {
	module := parse(t, "# leading comment\nx = 1 # trailing\n")
	if len(module.Body.Expressions) != 1 {
		t.Fatalf("expected 1 expression, got %d", len(module.Body.Expressions))
	}
}

func TestParseErrorsAreCollectedAndRecovered(t *testing.T) {
	p := New(lexer.New(text.FromString("x = &\ny = 2\n")))
	module := p.ParseModule()
	if len(p.Errors()) == 0 {
		t.Fatal("expected at least one error")
	}
	// The parser resynchronises and still sees the second assignment.
	found := false
	for _, e := range module.Body.Expressions {
		if a, ok := e.(*ast.Assignment); ok && a.Variable.Name.String() == "y" {
			found = true
		}
	}
	if !found {
		t.Error("expected parser to recover and parse the second line")
	}
}

func TestNilLiteral(t *testing.T) {
	module := parse(t, "nil\n")
	if _, ok := module.Body.Expressions[0].(*ast.NilLit); !ok {
		t.Fatalf("expected NilLit, got %T", module.Body.Expressions[0])
	}
}

// Round-trip property: printing a parsed AST and re-parsing the print
// reaches a fixed point.
func TestSourceRoundTrip(t *testing.T) {
	inputs := []string{
		"42",
		"x = 5",
		"x Float = 5",
		"f = func (x Int, y Float) Float -> y",
		"g = func (n Int) -> n * 2",
		"if true 1 else 2.5",
		"x = if a > 1 1 else if a > 2 2 else 3",
		"p = struct { x = 1, y = 2.5 }\np:y",
		"xs = [1, 2, 3]",
		"f 10 x (g 20 y)",
		"extern atan2 (x Float, y Float) Float\natan2 1.0 2.0",
		"s = \"hi\\n\"",
	}
	for _, input := range inputs {
		first := parse(t, input+"\n")
		printed := ast.Source(first.Body)

		second := parse(t, printed+"\n")
		reprinted := ast.Source(second.Body)

		if printed != reprinted {
			t.Errorf("round trip diverged for %q:\n first: %s\nsecond: %s",
				input, printed, reprinted)
		}
	}
}
