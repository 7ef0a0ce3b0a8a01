package parser

import (
	"fmt"

	"github.com/codeassociates/huec/ast"
	"github.com/codeassociates/huec/lexer"
	"github.com/codeassociates/huec/text"
)

// Operator precedence levels; higher binds tighter.
const (
	lowest       = -1
	lessGreater  = 10 // < > <= >= == !=
	sum          = 20 // + -
	product      = 40 // * /
)

func precedenceOf(tok lexer.Token) int {
	switch tok.Type {
	case lexer.BinaryComparisonOperator:
		return lessGreater
	case lexer.BinaryOperator:
		switch tok.Text[0] {
		case '*', '/':
			return product
		case '+', '-':
			return sum
		case '<', '>':
			return lessGreater
		}
	}
	return lowest
}

// Parser is a recursive-descent parser with a Pratt operator-precedence
// tail. It keeps one token of future lookahead, a stackable
// call-argument-mode flag and the indentation of the current and previous
// lines (fed by NewLine token lengths).
type Parser struct {
	buf    *lexer.TokenBuffer
	token  lexer.Token
	future lexer.Token

	parsingCallArgs bool
	prevLineIndent  int
	curLineIndent   int

	errors []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{buf: lexer.NewTokenBuffer(l)}
	// Read two tokens to initialise token and future. The first is the
	// lexer's synthetic NewLine priming the indentation state.
	p.token = p.buf.Next()
	p.future = p.buf.Next()
	if p.token.Type == lexer.NewLine {
		p.curLineIndent = p.token.Length
	}
	return p
}

func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", p.token.Line, msg))
}

func (p *Parser) next() lexer.Token {
	p.token = p.future
	p.future = p.buf.Next()
	if p.token.Type == lexer.NewLine {
		p.prevLineIndent = p.curLineIndent
		p.curLineIndent = p.token.Length
	}
	return p.token
}

// setCallArgs flips call-argument mode and returns a restore func, so that
// parenthesised sub-expressions can suspend it.
func (p *Parser) setCallArgs(v bool) func() {
	old := p.parsingCallArgs
	p.parsingCallArgs = v
	return func() { p.parsingCallArgs = old }
}

// terminatesCall decides whether tok ends the argument list of a call. Any
// token that cannot begin an argument terminates; a NewLine terminates
// unless the next line is indented deeper than the line that began the
// call.
func (p *Parser) terminatesCall(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.Identifier, lexer.IntLiteral, lexer.FloatLiteral, lexer.BoolLiteral,
		lexer.DataLiteral, lexer.TextLiteral, lexer.LeftParen, lexer.LeftSqBracket,
		lexer.Func, lexer.Nil, lexer.If:
		return false
	case lexer.NewLine:
		return tok.Length <= p.prevLineIndent
	default:
		return true
	}
}

func isTypeToken(tok lexer.Token) bool {
	switch tok.Type {
	case lexer.IntSymbol, lexer.FloatSymbol, lexer.Byte, lexer.Char, lexer.Bool,
		lexer.Func, lexer.Identifier, lexer.LeftSqBracket:
		return true
	}
	return false
}

// ParseModule collects the module's expressions into the body of one
// implicit function whose result type is inferred later.
func (p *Parser) ParseModule() *ast.Function {
	block := ast.NewBlock()

	for p.token.Type != lexer.End {
		switch p.token.Type {
		case lexer.NewLine, lexer.Comment, lexer.Semicolon:
			p.next()
		case lexer.Error:
			p.addError(p.token.Text.String())
			p.next()
		default:
			if expr := p.parseExpression(); expr != nil {
				block.Add(expr)
			} else {
				p.next() // skip one token for error recovery
			}
		}
	}

	return ast.NewFunction(ast.NewFunctionType(nil, ast.UnknownType), block)
}

/// expression ::= primary binop_rhs?
func (p *Parser) parseExpression() ast.Expression {
	lhs := p.parsePrimary()
	if lhs == nil {
		return nil
	}
	if precedenceOf(p.token) != lowest {
		return p.parseBinOpRHS(0, lhs)
	}
	if p.token.Type == lexer.Assignment {
		p.addError("Cannot assign to an expression")
		p.next()
		return nil
	}
	return lhs
}

/// binop_rhs ::= (op primary)*
func (p *Parser) parseBinOpRHS(minPrecedence int, lhs ast.Expression) ast.Expression {
	for {
		precedence := precedenceOf(p.token)
		if precedence < minPrecedence {
			return lhs
		}

		op := p.token.Text[0]
		kind := ast.SimpleLTR
		if p.token.Type == lexer.BinaryComparisonOperator {
			kind = ast.EqualityLTR
		}
		p.next() // eat operator

		rhs := p.parsePrimary()
		if rhs == nil {
			return nil
		}

		// If the pending operator binds tighter, let it take rhs first.
		if precedence < precedenceOf(p.token) {
			rhs = p.parseBinOpRHS(precedence+1, rhs)
			if rhs == nil {
				return nil
			}
		}

		lhs = &ast.BinaryOp{Op: op, Kind: kind, LHS: lhs, RHS: rhs}
	}
}

/// primary
///   ::= identifier | literal | list | paren | func | extern | if | struct
func (p *Parser) parsePrimary() ast.Expression {
	for {
		tok := p.token
		switch tok.Type {
		case lexer.Identifier:
			return p.parseIdentifierExpr()

		case lexer.IntLiteral:
			p.next()
			return &ast.IntLit{Text: tok.Text, Radix: int(tok.Int)}

		case lexer.FloatLiteral:
			p.next()
			return &ast.FloatLit{Text: tok.Text}

		case lexer.BoolLiteral:
			p.next()
			return &ast.BoolLit{Value: tok.Int != 0}

		case lexer.Nil:
			p.next()
			return &ast.NilLit{}

		case lexer.TextLiteral:
			p.next()
			return &ast.TextLit{Text: tok.Text}

		case lexer.DataLiteral:
			p.next()
			return &ast.DataLit{Bytes: tok.Text.RawBytes()}

		case lexer.LeftSqBracket:
			return p.parseListLiteral()

		case lexer.LeftParen:
			restore := p.setCallArgs(false)
			p.next() // eat '('
			expr := p.parseExpression()
			restore()
			if expr == nil {
				return nil
			}
			if p.token.Type != lexer.RightParen {
				p.addError("Expected ')' after subexpression")
				return nil
			}
			p.next() // eat ')'
			return expr

		case lexer.Func:
			return p.parseFunction()

		case lexer.External:
			return p.parseExternalFunction()

		case lexer.If:
			return p.parseConditional()

		case lexer.Structure:
			return p.parseStructure()

		case lexer.Comment, lexer.NewLine:
			p.next()

		case lexer.Error:
			p.addError(tok.Text.String())
			p.next()
			return nil

		default:
			p.addError(fmt.Sprintf("Unexpected token %s when expecting an expression", tok.Type))
			p.next()
			return nil
		}
	}
}

/// identifierexpr
///   ::= symbol | assignment_expr | callexpr
func (p *Parser) parseIdentifierExpr() ast.Expression {
	tok := p.token
	p.next() // eat identifier

	// One extra token of lookahead picks assignments out of call syntax:
	// 'x = v', 'x Int = v' and 'x MUTABLE Int = v' all declare x.
	if !p.parsingCallArgs && !tok.IsPath() &&
		(p.token.Type == lexer.Assignment || p.token.Type == lexer.Mutable ||
			p.future.Type == lexer.Assignment) {
		return p.parseAssignment(tok.Text)
	}

	sym := ast.NewSymbol(tok.Text, tok.IsPath())
	sym.Namespaced = tok.IsNamespaced()

	if p.parsingCallArgs || p.terminatesCall(p.token) {
		return sym
	}
	return p.parseCall(sym)
}

/// assignment_expr ::= var '=' expr
func (p *Parser) parseAssignment(name text.Text) ast.Expression {
	variable := p.parseVariable(name)
	if variable == nil {
		return nil
	}

	if p.token.Type != lexer.Assignment {
		p.addError("Expected assignment operator")
		p.next()
		return nil
	}
	p.next() // eat '='

	rhs := p.parseExpression()
	if rhs == nil {
		return nil
	}

	// Early inference for literal and function values; everything else
	// waits for the semantic pass.
	if variable.HasUnknownType() {
		switch rhs := rhs.(type) {
		case *ast.Function:
			variable.Type = rhs.FT
		case *ast.ExternalFunction:
			variable.Type = rhs.FT
		case *ast.IntLit:
			variable.Type = ast.IntType
		case *ast.FloatLit:
			variable.Type = ast.FloatType
		case *ast.BoolLit:
			variable.Type = ast.BoolType
		}
	}

	return &ast.Assignment{Variable: variable, RHS: rhs}
}

/// var ::= id 'MUTABLE'? typedecl?
// The identifier itself has already been consumed.
func (p *Parser) parseVariable(name text.Text) *ast.Variable {
	variable := &ast.Variable{Name: name, Type: ast.UnknownType}

	if p.token.Type == lexer.Mutable {
		variable.Mutable = true
		p.next()
	}
	if isTypeToken(p.token) {
		t := p.parseType()
		if t == nil {
			return nil
		}
		variable.Type = t
		variable.TypeDeclared = true
	}
	return variable
}

/// typedecl ::= 'Int' | 'Float' | 'Byte' | 'Char' | 'Bool' | 'func'
///            | id | '[' typedecl ']'
func (p *Parser) parseType() ast.Type {
	tok := p.token
	switch tok.Type {
	case lexer.IntSymbol:
		p.next()
		return ast.IntType
	case lexer.FloatSymbol:
		p.next()
		return ast.FloatType
	case lexer.Byte:
		p.next()
		return ast.ByteType
	case lexer.Char:
		p.next()
		return ast.CharType
	case lexer.Bool:
		p.next()
		return ast.BoolType
	case lexer.Func:
		p.next()
		return ast.NewFunctionType(nil, ast.UnknownType)
	case lexer.Identifier:
		p.next()
		return ast.NewNamedType(tok.Text)
	case lexer.LeftSqBracket:
		p.next() // eat '['
		elem := p.parseType()
		if elem == nil {
			return nil
		}
		if p.token.Type != lexer.RightSqBracket {
			p.addError("Expected ']' in array type")
			return nil
		}
		p.next() // eat ']'
		return ast.NewArrayType(elem)
	default:
		p.addError("Unexpected token while expecting type identifier")
		p.next()
		return nil
	}
}

/// callexpr ::= symbol expr*
// Arguments are juxtaposed; collection stops at a terminating token
// (see terminatesCall).
func (p *Parser) parseCall(callee *ast.Symbol) ast.Expression {
	restore := p.setCallArgs(true)
	defer restore()

	var args []ast.Expression
	for {
		var arg ast.Expression

		if p.token.Type == lexer.LeftParen {
			// A parenthesised subexpression suspends call-argument mode.
			inner := p.setCallArgs(false)
			p.next() // eat '('
			arg = p.parseExpression()
			inner()
			if arg == nil {
				return nil
			}
			if p.token.Type != lexer.RightParen {
				p.addError("Expected ')' after subexpression")
				return nil
			}
			p.next() // eat ')'
		} else if p.token.Type == lexer.NewLine {
			// A continuation line (indented deeper than the line that began
			// the call) binds as one argument: f 1 ⏎ g 2 is f 1 (g 2).
			inner := p.setCallArgs(false)
			arg = p.parseExpression()
			inner()
			if arg == nil {
				return nil
			}
		} else {
			arg = p.parseExpression()
			if arg == nil {
				return nil
			}
		}

		args = append(args, arg)

		if p.token.Type != lexer.LeftParen && p.terminatesCall(p.token) {
			break
		}
	}

	return &ast.Call{Callee: callee, Args: args}
}

/// func_definition
///   ::= 'func' func_interface '->' body
///   ::= 'func' func_interface '{' block '}'
func (p *Parser) parseFunction() ast.Expression {
	base := p.curLineIndent
	p.next() // eat 'func'

	ft := p.parseFunctionSignature()
	if ft == nil {
		return nil
	}

	var body *ast.Block
	switch {
	case p.token.Type == lexer.RightArrow:
		p.next() // eat '->'
		body = p.parseBlockBody(base)
	case p.token.Type == lexer.MapLiteral && p.token.Text[0] == '{':
		body = p.parseBracedBlock()
	default:
		p.addError("Expected '->' after function interface")
		return nil
	}
	if body == nil {
		return nil
	}

	return ast.NewFunction(ft, body)
}

/// func_interface ::= arglist? typedecl?
///   arglist ::= '(' (var ',')* var ')'
func (p *Parser) parseFunctionSignature() *ast.FunctionType {
	var args []*ast.Variable

	if p.token.Type == lexer.LeftParen {
		restore := p.setCallArgs(false)
		p.next() // eat '('
		for p.token.Type != lexer.RightParen {
			if p.token.Type != lexer.Identifier {
				p.addError("Expected variable identifier")
				restore()
				p.next()
				return nil
			}
			name := p.token.Text
			p.next() // eat id
			variable := p.parseVariable(name)
			if variable == nil {
				restore()
				return nil
			}
			args = append(args, variable)
			if p.token.Type != lexer.Comma {
				break
			}
			p.next() // eat ','
		}
		restore()
		if p.token.Type != lexer.RightParen {
			p.addError("Expected ')' in function definition")
			return nil
		}
		p.next() // eat ')'
	}

	result := ast.Type(ast.UnknownType)
	if isTypeToken(p.token) {
		result = p.parseType()
		if result == nil {
			return nil
		}
	}

	return ast.NewFunctionType(args, result)
}

/// external ::= 'extern' id func_interface linebreak
func (p *Parser) parseExternalFunction() ast.Expression {
	p.next() // eat 'extern'

	if p.token.Type != lexer.Identifier {
		p.addError("Expected name after 'extern'")
		return nil
	}
	name := p.token.Text
	p.next() // eat id

	ft := p.parseFunctionSignature()
	if ft == nil {
		return nil
	}

	if p.token.Type != lexer.NewLine && p.token.Type != lexer.End {
		p.addError("Expected linebreak after external declaration")
		return nil
	}

	return &ast.ExternalFunction{Name: name, FT: ft}
}

/// conditional ::= 'if' expr body ('else' 'if' expr body)* 'else' body
func (p *Parser) parseConditional() ast.Expression {
	base := p.curLineIndent
	cond := &ast.Conditional{}

	for {
		p.next() // eat 'if'

		test := p.parseExpression()
		if test == nil {
			return nil
		}

		block := p.parseBlockBody(base)
		if block == nil {
			return nil
		}
		cond.Branches = append(cond.Branches, ast.Branch{Test: test, Block: block})

		for p.token.Type == lexer.NewLine || p.token.Type == lexer.Comment {
			p.next()
		}
		if p.token.Type != lexer.Else {
			p.addError("Expected 'else' in conditional")
			return nil
		}
		p.next() // eat 'else'

		if p.token.Type == lexer.If {
			continue // else-if extends the branch list
		}

		cond.DefaultBlock = p.parseBlockBody(base)
		if cond.DefaultBlock == nil {
			return nil
		}
		return cond
	}
}

/// struct ::= 'struct' '{' (assignment (',' | linebreak))* '}'
func (p *Parser) parseStructure() ast.Expression {
	p.next() // eat 'struct'

	if p.token.Type != lexer.MapLiteral || p.token.Text[0] != '{' {
		p.addError("Expected '{' after 'struct'")
		return nil
	}

	block := p.parseBracedBlock()
	if block == nil {
		return nil
	}
	for _, e := range block.Expressions {
		if _, ok := e.(*ast.Assignment); !ok {
			p.addError("Expected assignment in struct block")
		}
	}

	return ast.NewStructure(block)
}

// parseBracedBlock reads '{' expr* '}' with commas, semicolons and
// linebreaks as separators. Call-argument mode is suspended inside.
func (p *Parser) parseBracedBlock() *ast.Block {
	restore := p.setCallArgs(false)
	defer restore()

	p.next() // eat '{'
	block := ast.NewBlock()

	for {
		switch {
		case p.token.Type == lexer.End:
			p.addError("Expected '}' at end of block")
			return nil
		case p.token.Type == lexer.MapLiteral && p.token.Text[0] == '}':
			p.next() // eat '}'
			return block
		case p.token.Type == lexer.NewLine || p.token.Type == lexer.Comment ||
			p.token.Type == lexer.Comma || p.token.Type == lexer.Semicolon:
			p.next()
		default:
			if expr := p.parseExpression(); expr != nil {
				block.Add(expr)
			} else {
				p.next()
			}
		}
	}
}

/// listexpr ::= '[' (expr ',')* expr? ']'
func (p *Parser) parseListLiteral() ast.Expression {
	restore := p.setCallArgs(false)
	defer restore()

	p.next() // eat '['
	list := &ast.ListLit{}

	for {
		for p.token.Type == lexer.NewLine || p.token.Type == lexer.Comment {
			p.next()
		}
		if p.token.Type == lexer.RightSqBracket {
			break
		}
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		list.Elements = append(list.Elements, expr)

		for p.token.Type == lexer.NewLine || p.token.Type == lexer.Comment {
			p.next()
		}
		if p.token.Type == lexer.Comma {
			p.next()
			continue
		}
		break
	}

	if p.token.Type != lexer.RightSqBracket {
		p.addError("Expected ']' at end of list")
		return nil
	}
	p.next() // eat ']'
	return list
}

// parseBlockBody parses a branch or function body: either a single
// expression on the same line, or a newline-delimited block indented
// deeper than the line that opened the construct.
func (p *Parser) parseBlockBody(base int) *ast.Block {
	if p.token.Type == lexer.NewLine && p.token.Length > base {
		return p.parseIndentedBlock(base)
	}
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	return ast.NewBlock(expr)
}

func (p *Parser) parseIndentedBlock(base int) *ast.Block {
	block := ast.NewBlock()

	for {
		switch p.token.Type {
		case lexer.NewLine:
			if p.token.Length <= base {
				return block // dedent ends the block
			}
			p.next()
		case lexer.Comment, lexer.Semicolon:
			p.next()
		case lexer.End, lexer.Else:
			return block
		default:
			if expr := p.parseExpression(); expr != nil {
				block.Add(expr)
			} else {
				p.next()
			}
		}
	}
}
