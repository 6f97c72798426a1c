// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package expr

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// node is one operator-precedence-respecting AST node. eval returns NaN to
// signal "undefined"; the public entry points convert that to ok == false.
type node interface {
	eval(env *env) float64
}

type env struct {
	x      float64
	params map[string]float64
	deps   map[string]float64
}

type numberNode struct{ val float64 }

func (n numberNode) eval(*env) float64 { return n.val }

type identNode struct{ name string }

// eval resolves an identifier: the variable x, a constant, a dependency
// value, then a free parameter. Dependencies shadow parameters (labels are
// substituted before parameters). An identifier that resolves as a whole
// nothing is retried as a product of known names, so "ax" means a*x the way
// it does when written on paper.
func (n identNode) eval(e *env) float64 {
	if v, ok := lookupIdent(n.name, e); ok {
		return v
	}
	return splitProduct(n.name, e)
}

// lookupIdent resolves a complete identifier name.
func lookupIdent(name string, e *env) (float64, bool) {
	if name == "x" {
		return e.x, true
	}
	if v, ok := constants[name]; ok {
		return v, true
	}
	if v, ok := e.deps[name]; ok {
		return v, true
	}
	if v, ok := e.params[name]; ok {
		return v, true
	}
	return 0, false
}

// splitProduct decomposes a run of adjacent names into a product, taking
// the longest known prefix first so "y10x" reads as y10*x rather than
// y1*0*x. An undecomposable remainder makes the whole identifier undefined.
func splitProduct(name string, e *env) float64 {
	if name == "" {
		return math.NaN()
	}
	for cut := len(name); cut > 0; cut-- {
		head, ok := lookupIdent(name[:cut], e)
		if !ok {
			continue
		}
		if cut == len(name) {
			return head
		}
		if tail := splitProduct(name[cut:], e); !math.IsNaN(tail) {
			return head * tail
		}
	}
	return math.NaN()
}

type callNode struct {
	name string
	arg  node
}

func (n callNode) eval(e *env) float64 {
	fn, ok := builtins[n.name]
	if !ok {
		return math.NaN()
	}
	return fn(n.arg.eval(e))
}

type unaryNode struct{ operand node }

func (n unaryNode) eval(e *env) float64 { return -n.operand.eval(e) }

type binaryNode struct {
	op          byte // one of + - * / ^
	left, right node
}

func (n binaryNode) eval(e *env) float64 {
	l, r := n.left.eval(e), n.right.eval(e)
	switch n.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	default:
		return math.Pow(l, r)
	}
}

// Expr is a parsed expression ready for repeated evaluation.
type Expr struct {
	text string
	root node
}

// Parse lower-cases and trims text, tokenizes it, and builds the AST.
// Implicit multiplication ("2x", "3(x+1)") is a grammar production at the
// same precedence as explicit *.
func Parse(text string) (*Expr, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, errors.New("empty expression")
	}
	toks, err := lex(cleaned)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errors.Errorf("unexpected %q at position %d", p.peek().text, p.peek().pos)
	}
	return &Expr{text: cleaned, root: root}, nil
}

// Text returns the normalized expression text.
func (e *Expr) Text() string { return e.text }

// Eval evaluates the expression at x with the given parameters and
// dependency values. ok is false when the result is undefined: a missing
// identifier, a domain error, or any non-finite intermediate.
func (e *Expr) Eval(x float64, params, deps map[string]float64) (float64, bool) {
	v := e.root.eval(&env{x: x, params: params, deps: deps})
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Identifiers returns the free identifiers of the expression: every
// identifier that is not x, not a builtin function, and not a constant.
// These are label references or parameters, to be classified by the caller.
func (e *Expr) Identifiers() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(node)
	walk = func(n node) {
		switch v := n.(type) {
		case identNode:
			if v.name != "x" && !IsBuiltin(v.name) && !seen[v.name] {
				seen[v.name] = true
				out = append(out, v.name)
			}
		case callNode:
			walk(v.arg)
		case unaryNode:
			walk(v.operand)
		case binaryNode:
			walk(v.left)
			walk(v.right)
		}
	}
	walk(e.root)
	return out
}

// Evaluate parses and evaluates text in one call. Parse failures fold into
// "undefined" so plotting loops need a single code path per sample point.
func Evaluate(text string, x float64, params, deps map[string]float64) (float64, bool) {
	e, err := Parse(text)
	if err != nil {
		return 0, false
	}
	return e.Eval(x, params, deps)
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// parseExpr := term (('+'|'-') term)*
func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: '+', left: left, right: right}
		case tokMinus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: '-', left: left, right: right}
		default:
			return left, nil
		}
	}
}

// startsPrimary reports whether the token can begin a primary expression,
// which is what makes adjacency mean multiplication.
func startsPrimary(t token) bool {
	return t.kind == tokNumber || t.kind == tokIdent || t.kind == tokLParen
}

// parseTerm := unary (('*'|'/') unary | unary)*
// The bare-unary branch is implicit multiplication.
func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.peek().kind == tokStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: '*', left: left, right: right}
		case p.peek().kind == tokSlash:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: '/', left: left, right: right}
		case startsPrimary(p.peek()):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: '*', left: left, right: right}
		default:
			return left, nil
		}
	}
}

// parseUnary := '-' unary | power
func (p *parser) parseUnary() (node, error) {
	if p.peek().kind == tokMinus {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{operand: operand}, nil
	}
	return p.parsePower()
}

// parsePower := primary ('^' unary)?   (right-associative)
func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokCaret {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: '^', left: base, right: exp}, nil
	}
	return base, nil
}

// parsePrimary := number | ident | ident '(' expr ')' | '(' expr ')'
func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode{val: t.val}, nil
	case tokIdent:
		if p.peek().kind == tokLParen && builtins[t.text] != nil {
			p.next() // consume '('
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.peek().kind != tokRParen {
				return nil, errors.Errorf("missing ) for %s(", t.text)
			}
			p.next()
			return callNode{name: t.text, arg: arg}, nil
		}
		return identNode{name: t.text}, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, errors.Errorf("missing ) at position %d", p.peek().pos)
		}
		p.next()
		return inner, nil
	default:
		return nil, errors.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
}
