package ast

import (
	"fmt"
	"strings"
)

// Source renders a node back to parsable Hue source. Re-parsing the output
// of Source yields a structurally equal AST, which --parse-only and the
// round-trip tests rely on.
func Source(n Node) string {
	var p printer
	p.node(n, 0)
	return p.b.String()
}

type printer struct {
	b strings.Builder
}

func (p *printer) node(n Node, indent int) {
	switch n := n.(type) {
	case *IntLit:
		if n.Radix == 16 {
			p.b.WriteString("0x")
		}
		p.b.WriteString(n.Text.String())
	case *FloatLit:
		p.b.WriteString(n.Text.String())
	case *BoolLit:
		p.b.WriteString(n.String())
	case *NilLit:
		p.b.WriteString("nil")
	case *TextLit:
		p.textLit(n)
	case *DataLit:
		p.b.WriteString(n.String())
	case *ListLit:
		p.b.WriteByte('[')
		for i, e := range n.Elements {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.operand(e, indent)
		}
		p.b.WriteByte(']')
	case *Symbol:
		p.b.WriteString(n.Pathname.String())
	case *Variable:
		p.variable(n)
	case *Assignment:
		p.variable(n.Variable)
		p.b.WriteString(" = ")
		p.node(n.RHS, indent)
	case *BinaryOp:
		p.operand(n.LHS, indent)
		p.b.WriteByte(' ')
		p.b.WriteString(n.OperatorName())
		p.b.WriteByte(' ')
		p.operand(n.RHS, indent)
	case *Call:
		p.b.WriteString(n.Callee.Pathname.String())
		for _, a := range n.Args {
			p.b.WriteByte(' ')
			p.operand(a, indent)
		}
	case *Conditional:
		for i, br := range n.Branches {
			if i > 0 {
				p.b.WriteByte(' ')
			}
			p.b.WriteString("if ")
			p.operand(br.Test, indent)
			if p.block(br.Block, indent) {
				p.b.WriteString(" else")
			} else {
				// The branch printed as an indented block; 'else' opens a
				// fresh line at the construct's own indentation.
				p.b.WriteByte('\n')
				p.b.WriteString(strings.Repeat(" ", indent))
				p.b.WriteString("else")
			}
		}
		p.block(n.DefaultBlock, indent)
	case *Function:
		p.b.WriteString("func")
		p.signature(n.FT)
		p.b.WriteString(" ->")
		p.block(n.Body, indent)
	case *ExternalFunction:
		p.b.WriteString("extern ")
		p.b.WriteString(n.Name.String())
		p.signature(n.FT)
		p.b.WriteByte('\n')
	case *Structure:
		p.b.WriteString("struct { ")
		for i, e := range n.Block.Expressions {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.node(e, indent)
		}
		p.b.WriteString(" }")
	case *Block:
		// Top level: one expression per line.
		for i, e := range n.Expressions {
			if i > 0 {
				p.b.WriteByte('\n')
			}
			p.node(e, indent)
		}
	default:
		fmt.Fprintf(&p.b, "%v", n)
	}
}

// operand prints a sub-expression, parenthesising the forms that would
// otherwise fuse with surrounding juxtaposition.
func (p *printer) operand(e Expression, indent int) {
	switch e.(type) {
	case *Call, *BinaryOp, *Assignment, *Conditional, *Function:
		p.b.WriteByte('(')
		p.node(e, indent)
		p.b.WriteByte(')')
	default:
		p.node(e, indent)
	}
}

// block prints a branch or function body: inline when it holds a single
// expression, as an indented block otherwise. It reports whether the block
// was printed inline.
func (p *printer) block(b *Block, indent int) bool {
	if b == nil {
		return true
	}
	if len(b.Expressions) == 1 {
		p.b.WriteByte(' ')
		p.operand(b.Expressions[0], indent)
		return true
	}
	inner := indent + 2
	for _, e := range b.Expressions {
		p.b.WriteByte('\n')
		p.b.WriteString(strings.Repeat(" ", inner))
		p.node(e, inner)
	}
	return false
}

func (p *printer) variable(v *Variable) {
	p.b.WriteString(v.Name.String())
	if v.Mutable {
		p.b.WriteString(" MUTABLE")
	}
	if v.TypeDeclared && v.Type != nil && v.Type.ID() != Unknown {
		p.b.WriteByte(' ')
		p.b.WriteString(p.typeSource(v.Type))
	}
}

// signature prints the argument list and the result type, each preceded by
// a space. The caller writes the leading 'func' or 'extern name'.
func (p *printer) signature(ft *FunctionType) {
	if len(ft.Args) > 0 {
		p.b.WriteString(" (")
		for i, arg := range ft.Args {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.variable(arg)
		}
		p.b.WriteByte(')')
	}
	if ft.Result != nil && ft.Result.ID() != Unknown {
		p.b.WriteByte(' ')
		p.b.WriteString(p.typeSource(ft.Result))
	}
}

func (p *printer) typeSource(t Type) string {
	switch t.ID() {
	case Array:
		return "[" + p.typeSource(t.(*ArrayType).Elem) + "]"
	case Func:
		return "func"
	default:
		return t.String()
	}
}

func (p *printer) textLit(n *TextLit) {
	p.b.WriteByte('"')
	for _, c := range n.Text {
		switch c {
		case '\t':
			p.b.WriteString("\\t")
		case '\n':
			p.b.WriteString("\\n")
		case '\r':
			p.b.WriteString("\\r")
		case '\\':
			p.b.WriteString("\\\\")
		case '"':
			p.b.WriteString("\\\"")
		case 0:
			p.b.WriteString("\\0")
		default:
			if c < 0x20 {
				fmt.Fprintf(&p.b, "\\u%x", c)
			} else {
				p.b.WriteRune(c)
			}
		}
	}
	p.b.WriteByte('"')
}
