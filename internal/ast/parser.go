package ast

import (
	"fmt"
	"strconv"

	"github.com/meridianpay/switchyard/internal/dir"
)

/*
 * Textual rule notation.
 *
 * Grammar:
 *   rule    := name ':' '[' choice (',' choice)* ']' '{' expr '}'
 *   expr    := and ('|' and)*
 *   and     := unary ('&' unary)*
 *   unary   := 'not' unary | '(' expr ')' | pred
 *   pred    := key op operand
 *            | key 'in' '(' operand (',' operand)* ')'
 *            | key 'not' 'in' '(' operand (',' operand)* ')'
 *   op      := '=' | '/=' | '>' | '<' | '>=' | '<='
 *   operand := ident | number | string
 *   choice  := ident (':' ident)?
 *
 * Identifiers are [A-Za-z0-9_]; a single dot selects a metadata sub-key
 * (metadata.plan). Strings are double-quoted with backslash escapes in
 * Go literal syntax. An empty braces pair is the always-true guard.
 *
 * The parser is the inverse of SerializeRule: parsing serialized output
 * reproduces the rule exactly.
 */

// ParseError reports a syntax error with its byte offset in the input.
type ParseError struct {
	Pos int
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokColon
	tokComma
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokAmp
	tokPipe
	tokEq
	tokNeq
	tokGt
	tokLt
	tokGte
	tokLte
)

type token struct {
	kind tokenKind
	text string
	num  int64
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) errorf(pos int, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		break
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]
	switch c {
	case ':':
		l.pos++
		return token{kind: tokColon, pos: start}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, pos: start}, nil
	case '[':
		l.pos++
		return token{kind: tokLBracket, pos: start}, nil
	case ']':
		l.pos++
		return token{kind: tokRBracket, pos: start}, nil
	case '{':
		l.pos++
		return token{kind: tokLBrace, pos: start}, nil
	case '}':
		l.pos++
		return token{kind: tokRBrace, pos: start}, nil
	case '(':
		l.pos++
		return token{kind: tokLParen, pos: start}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, pos: start}, nil
	case '&':
		l.pos++
		return token{kind: tokAmp, pos: start}, nil
	case '|':
		l.pos++
		return token{kind: tokPipe, pos: start}, nil
	case '=':
		l.pos++
		return token{kind: tokEq, pos: start}, nil
	case '/':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token{kind: tokNeq, pos: start}, nil
		}
		return token{}, l.errorf(start, "unexpected character %q", c)
	case '>':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token{kind: tokGte, pos: start}, nil
		}
		l.pos++
		return token{kind: tokGt, pos: start}, nil
	case '<':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token{kind: tokLte, pos: start}, nil
		}
		l.pos++
		return token{kind: tokLt, pos: start}, nil
	case '"':
		l.pos++
		for l.pos < len(l.input) && l.input[l.pos] != '"' {
			// a backslash escapes the next byte, including '"'
			if l.input[l.pos] == '\\' && l.pos+1 < len(l.input) {
				l.pos++
			}
			l.pos++
		}
		if l.pos >= len(l.input) {
			return token{}, l.errorf(start, "unterminated string")
		}
		l.pos++
		text, err := strconv.Unquote(l.input[start:l.pos])
		if err != nil {
			return token{}, l.errorf(start, "invalid string literal")
		}
		return token{kind: tokString, text: text, pos: start}, nil
	}

	if c >= '0' && c <= '9' {
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			l.pos++
		}
		// an identifier may start with digits only if it continues with
		// identifier characters (country codes never do, amounts never do)
		if l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
				l.pos++
			}
			return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
		}
		n, err := strconv.ParseInt(l.input[start:l.pos], 10, 64)
		if err != nil {
			return token{}, l.errorf(start, "invalid number %q", l.input[start:l.pos])
		}
		return token{kind: tokNumber, num: n, pos: start}, nil
	}

	if isIdentChar(c) {
		for l.pos < len(l.input) && (isIdentChar(l.input[l.pos]) || l.input[l.pos] == '.') {
			l.pos++
		}
		return token{kind: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	}

	return token{}, l.errorf(start, "unexpected character %q", c)
}

type parser struct {
	lex  lexer
	tok  token
	peek *token
}

func newParser(input string) (*parser, error) {
	p := &parser{lex: lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return nil
	}
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) peekToken() (token, error) {
	if p.peek == nil {
		tok, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.peek = &tok
	}
	return *p.peek, nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, &ParseError{Pos: p.tok.pos, Msg: fmt.Sprintf("expected %s", what)}
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return tok, nil
}

// ParseRule parses the textual notation into a rule with a priority
// connector selection. Connector names are validated during lowering, not
// here; parsing is purely syntactic.
func ParseRule(input string) (Rule[ConnectorSelection], error) {
	p, err := newParser(input)
	if err != nil {
		return Rule[ConnectorSelection]{}, err
	}

	name, err := p.expect(tokIdent, "rule name")
	if err != nil {
		return Rule[ConnectorSelection]{}, err
	}
	if _, err := p.expect(tokColon, "':' after rule name"); err != nil {
		return Rule[ConnectorSelection]{}, err
	}

	selection, err := p.parseSelection()
	if err != nil {
		return Rule[ConnectorSelection]{}, err
	}

	if _, err := p.expect(tokLBrace, "'{' before guard"); err != nil {
		return Rule[ConnectorSelection]{}, err
	}

	rule := Rule[ConnectorSelection]{Name: name.text, Output: selection}
	if p.tok.kind != tokRBrace {
		expr, err := p.parseExpr()
		if err != nil {
			return Rule[ConnectorSelection]{}, err
		}
		rule.Guard = &expr
	}
	if _, err := p.expect(tokRBrace, "'}' after guard"); err != nil {
		return Rule[ConnectorSelection]{}, err
	}
	if p.tok.kind != tokEOF {
		return Rule[ConnectorSelection]{}, &ParseError{Pos: p.tok.pos, Msg: "trailing input after rule"}
	}
	return rule, nil
}

// ParseExpr parses a bare guard expression (used by the YAML program codec).
func ParseExpr(input string) (Expr, error) {
	p, err := newParser(input)
	if err != nil {
		return Expr{}, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return Expr{}, err
	}
	if p.tok.kind != tokEOF {
		return Expr{}, &ParseError{Pos: p.tok.pos, Msg: "trailing input after expression"}
	}
	return expr, nil
}

// parseSelection parses the `[choice, choice, ...]` priority list.
func (p *parser) parseSelection() (ConnectorSelection, error) {
	if _, err := p.expect(tokLBracket, "'[' before connector list"); err != nil {
		return ConnectorSelection{}, err
	}

	var selection ConnectorSelection
	for {
		name, err := p.expect(tokIdent, "connector name")
		if err != nil {
			return ConnectorSelection{}, err
		}
		conn, err := dir.ParseConnector(name.text)
		if err != nil {
			return ConnectorSelection{}, &ParseError{Pos: name.pos, Msg: err.Error(), Err: err}
		}
		choice := dir.ConnectorChoice{Connector: conn}
		if p.tok.kind == tokColon {
			if err := p.advance(); err != nil {
				return ConnectorSelection{}, err
			}
			label, err := p.expect(tokIdent, "sub-label after ':'")
			if err != nil {
				return ConnectorSelection{}, err
			}
			choice.SubLabel = label.text
		}
		selection.Priority = append(selection.Priority, choice)

		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return ConnectorSelection{}, err
			}
			continue
		}
		break
	}

	if _, err := p.expect(tokRBracket, "']' after connector list"); err != nil {
		return ConnectorSelection{}, err
	}
	return selection, nil
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return Expr{}, err
	}
	if p.tok.kind != tokPipe {
		return left, nil
	}

	args := []Expr{left}
	for p.tok.kind == tokPipe {
		if err := p.advance(); err != nil {
			return Expr{}, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return Expr{}, err
		}
		args = append(args, right)
	}
	return Or(args...), nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Expr{}, err
	}
	if p.tok.kind != tokAmp {
		return left, nil
	}

	args := []Expr{left}
	for p.tok.kind == tokAmp {
		if err := p.advance(); err != nil {
			return Expr{}, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return Expr{}, err
		}
		args = append(args, right)
	}
	return And(args...), nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tokIdent && p.tok.text == "not" {
		// `not in` belongs to the predicate; `not <unary>` is negation
		next, err := p.peekToken()
		if err != nil {
			return Expr{}, err
		}
		if next.kind == tokLParen || next.kind == tokIdent {
			if err := p.advance(); err != nil {
				return Expr{}, err
			}
			arg, err := p.parseUnary()
			if err != nil {
				return Expr{}, err
			}
			return Not(arg), nil
		}
	}

	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return Expr{}, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return Expr{}, err
		}
		return expr, nil
	}

	return p.parsePredicate()
}

func (p *parser) parsePredicate() (Expr, error) {
	keyTok, err := p.expect(tokIdent, "directory key")
	if err != nil {
		return Expr{}, err
	}
	key, metaKey := splitMetaKey(keyTok.text)

	var op CompareOp
	switch p.tok.kind {
	case tokEq:
		op = OpEqual
	case tokNeq:
		op = OpNotEqual
	case tokGt:
		op = OpGreaterThan
	case tokLt:
		op = OpLessThan
	case tokGte:
		op = OpGreaterEqual
	case tokLte:
		op = OpLessEqual
	case tokIdent:
		switch p.tok.text {
		case "in":
			op = OpIn
		case "not":
			if err := p.advance(); err != nil {
				return Expr{}, err
			}
			if p.tok.kind != tokIdent || p.tok.text != "in" {
				return Expr{}, &ParseError{Pos: p.tok.pos, Msg: "expected 'in' after 'not'"}
			}
			op = OpNotIn
		default:
			return Expr{}, &ParseError{Pos: p.tok.pos, Msg: "expected comparison operator"}
		}
	default:
		return Expr{}, &ParseError{Pos: p.tok.pos, Msg: "expected comparison operator"}
	}
	if err := p.advance(); err != nil {
		return Expr{}, err
	}

	pred := Predicate{Key: key, MetaKey: metaKey, Op: op}

	if op == OpIn || op == OpNotIn {
		if _, err := p.expect(tokLParen, "'(' before value list"); err != nil {
			return Expr{}, err
		}
		for {
			lit, err := p.parseOperand()
			if err != nil {
				return Expr{}, err
			}
			pred.Values = append(pred.Values, lit)
			if p.tok.kind == tokComma {
				if err := p.advance(); err != nil {
					return Expr{}, err
				}
				continue
			}
			break
		}
		if _, err := p.expect(tokRParen, "')' after value list"); err != nil {
			return Expr{}, err
		}
	} else {
		lit, err := p.parseOperand()
		if err != nil {
			return Expr{}, err
		}
		pred.Values = []Literal{lit}
	}

	return Expr{Kind: ExprPredicate, Pred: pred}, nil
}

func (p *parser) parseOperand() (Literal, error) {
	switch p.tok.kind {
	case tokIdent, tokString:
		lit := TextLit(p.tok.text)
		if err := p.advance(); err != nil {
			return Literal{}, err
		}
		return lit, nil
	case tokNumber:
		lit := NumberLit(p.tok.num)
		if err := p.advance(); err != nil {
			return Literal{}, err
		}
		return lit, nil
	default:
		return Literal{}, &ParseError{Pos: p.tok.pos, Msg: "expected value literal"}
	}
}

// splitMetaKey separates `metadata.plan` into key and sub-key.
func splitMetaKey(s string) (key, metaKey string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

