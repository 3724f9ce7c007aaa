package ast

import (
	"fmt"
	"io"
	"strings"
)

const indentUnit = "    "

// Printer renders declarations back into kiln script. Implicit conversions
// are transparent, run-time lookups print as plain names, so the output
// parses back into an equivalent declaration.
type Printer struct {
	b      *Builder
	sb     strings.Builder
	indent int
}

func NewPrinter(b *Builder) *Printer {
	return &Printer{b: b}
}

// DeclString renders one declaration.
func (b *Builder) DeclString(id DeclID) string {
	p := NewPrinter(b)
	p.decl(id)
	return p.sb.String()
}

// ExprString renders one expression.
func (b *Builder) ExprString(id ExprID) string {
	p := NewPrinter(b)
	p.expr(id)
	return p.sb.String()
}

// FprintGroup writes every declaration of g, one per paragraph.
func (b *Builder) FprintGroup(w io.Writer, g *Group) error {
	for _, id := range g.Decls {
		if _, err := fmt.Fprintln(w, b.DeclString(id)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) write(s string) {
	p.sb.WriteString(s)
}

func (p *Printer) newline() {
	p.sb.WriteByte('\n')
	p.sb.WriteString(strings.Repeat(indentUnit, p.indent))
}

func (p *Printer) decl(id DeclID) {
	decl := p.b.Decls.Get(id)
	if decl == nil {
		p.write("<nil decl>")
		return
	}
	switch decl.Kind {
	case DeclVar:
		p.varDecl(id)
		p.write(";")
	case DeclFunc, DeclWrapper:
		fn, _ := p.b.Decls.Func(id)
		p.write(fn.Result.String())
		p.write(" ")
		p.write(decl.Name)
		p.write("(")
		for i, param := range fn.Params {
			if i > 0 {
				p.write(", ")
			}
			pd := p.b.Decls.Get(param)
			pv, _ := p.b.Decls.Var(param)
			p.write(pv.Type.String())
			if pd.Name != "" {
				p.write(" ")
				p.write(pd.Name)
			}
		}
		p.write(")")
		if !fn.Body.IsValid() {
			p.write(";")
			return
		}
		p.write(" ")
		p.stmt(fn.Body)
	}
}

func (p *Printer) varDecl(id DeclID) {
	decl := p.b.Decls.Get(id)
	data, _ := p.b.Decls.Var(id)
	p.write(data.Type.String())
	p.write(" ")
	p.write(decl.Name)
	init := data.Init
	if !init.IsValid() {
		init = data.Hoisted
	}
	if init.IsValid() {
		p.write(" = ")
		p.expr(init)
	}
}

func (p *Printer) stmt(id StmtID) {
	st := p.b.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case StmtBlock:
		data, _ := p.b.Stmts.Block(id)
		p.write("{")
		p.indent++
		for _, s := range data.Stmts {
			p.newline()
			p.stmt(s)
		}
		p.indent--
		p.newline()
		p.write("}")
	case StmtVar:
		data, _ := p.b.Stmts.Var(id)
		for i, d := range data.Decls {
			if i > 0 {
				p.newline()
			}
			p.varDecl(d)
			p.write(";")
		}
	case StmtExpr:
		data, _ := p.b.Stmts.Expr(id)
		p.expr(data.Expr)
		if !data.NoSemi {
			p.write(";")
		}
	case StmtValuePrint:
		data, _ := p.b.Stmts.ValuePrint(id)
		p.expr(data.Expr)
	case StmtIf:
		data, _ := p.b.Stmts.If(id)
		p.write("if (")
		p.expr(data.Cond)
		p.write(") ")
		p.stmt(data.Then)
		if data.Else.IsValid() {
			p.write(" else ")
			p.stmt(data.Else)
		}
	case StmtWhile:
		data, _ := p.b.Stmts.While(id)
		p.write("while (")
		p.expr(data.Cond)
		p.write(") ")
		p.stmt(data.Body)
	case StmtReturn:
		data, _ := p.b.Stmts.Return(id)
		p.write("return")
		if data.Value.IsValid() {
			p.write(" ")
			p.expr(data.Value)
		}
		p.write(";")
	case StmtBreak:
		p.write("break;")
	case StmtContinue:
		p.write("continue;")
	case StmtEmpty:
		p.write(";")
	}
}

func (p *Printer) expr(id ExprID) {
	expr := p.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ExprIdent:
		data, _ := p.b.Exprs.Ident(id)
		p.write(data.Name)
	case ExprDynamic:
		data, _ := p.b.Exprs.Dynamic(id)
		p.write(data.Name)
	case ExprLit:
		data, _ := p.b.Exprs.Literal(id)
		p.write(data.Raw)
	case ExprUnary:
		data, _ := p.b.Exprs.Unary(id)
		p.write(data.Op.String())
		p.expr(data.Operand)
	case ExprBinary:
		data, _ := p.b.Exprs.Binary(id)
		p.expr(data.Left)
		p.write(" " + data.Op.String() + " ")
		p.expr(data.Right)
	case ExprAssign:
		data, _ := p.b.Exprs.Assign(id)
		p.expr(data.Target)
		p.write(" = ")
		p.expr(data.Value)
	case ExprCall:
		data, _ := p.b.Exprs.Call(id)
		p.expr(data.Callee)
		p.write("(")
		for i, arg := range data.Args {
			if i > 0 {
				p.write(", ")
			}
			p.expr(arg)
		}
		p.write(")")
	case ExprGroup:
		data, _ := p.b.Exprs.Group(id)
		p.write("(")
		p.expr(data.Inner)
		p.write(")")
	case ExprConvert:
		data, _ := p.b.Exprs.Convert(id)
		p.expr(data.Value)
	}
}
