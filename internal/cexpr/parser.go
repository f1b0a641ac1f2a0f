package cexpr

import (
	"fmt"

	"naggy/internal/source"
	"naggy/internal/token"
)

type parser struct {
	toks []token.Token
	pos  int
	env  Env
	opts Options
	at   source.Span
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token.Token {
	if p.eof() {
		end := p.at
		if n := len(p.toks); n > 0 {
			end = p.toks[n-1].Span
			end.Start = end.End
		}
		return token.Token{Kind: token.EOF, Span: end}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token.Token {
	t := p.peek()
	if !p.eof() {
		p.pos++
	}
	return t
}

func (p *parser) accept(k token.Kind) bool {
	if p.peek().Kind == k {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(at token.Token, format string, args ...any) *Error {
	return &Error{Span: at.Span, Msg: fmt.Sprintf(format, args...)}
}

// parseComma: cond (',' cond)*
func (p *parser) parseComma(eval bool) (Value, error) {
	v, err := p.parseCond(eval)
	if err != nil {
		return v, err
	}
	for p.accept(token.Comma) {
		if v, err = p.parseCond(eval); err != nil {
			return v, err
		}
	}
	return v, nil
}

// parseCond: lor ('?' comma ':' cond)?
func (p *parser) parseCond(eval bool) (Value, error) {
	c, err := p.parseBinary(precLogicalOr, eval)
	if err != nil {
		return c, err
	}
	if !p.accept(token.Question) {
		return c, nil
	}
	takeThen := c.IsTrue()
	then, err := p.parseComma(eval && takeThen)
	if err != nil {
		return then, err
	}
	if colon := p.peek(); !p.accept(token.Colon) {
		return Value{}, p.errorf(colon, "expected ':'")
	}
	els, err := p.parseCond(eval && !takeThen)
	if err != nil {
		return els, err
	}
	unsigned := then.Unsigned || els.Unsigned
	res := els
	if takeThen {
		res = then
	}
	res.Unsigned = unsigned
	return res, nil
}

const (
	precNone = iota
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
)

func binaryPrec(k token.Kind) int {
	switch k {
	case token.OrOr:
		return precLogicalOr
	case token.AndAnd:
		return precLogicalAnd
	case token.Pipe:
		return precBitOr
	case token.Caret:
		return precBitXor
	case token.Amp:
		return precBitAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return precRelational
	case token.Shl, token.Shr:
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	}
	return precNone
}

func (p *parser) parseBinary(minPrec int, eval bool) (Value, error) {
	lhs, err := p.parseUnary(eval)
	if err != nil {
		return lhs, err
	}
	for {
		op := p.peek()
		prec := binaryPrec(op.Kind)
		if prec == precNone || prec < minPrec {
			return lhs, nil
		}
		p.pos++

		rhsEval := eval
		switch op.Kind {
		case token.AndAnd:
			rhsEval = eval && lhs.IsTrue()
		case token.OrOr:
			rhsEval = eval && !lhs.IsTrue()
		}
		rhs, err := p.parseBinary(prec+1, rhsEval)
		if err != nil {
			return rhs, err
		}
		if lhs, err = apply(op, lhs, rhs, rhsEval); err != nil {
			return lhs, err
		}
	}
}

func apply(op token.Token, l, r Value, eval bool) (Value, error) {
	switch op.Kind {
	case token.AndAnd:
		return boolValue(l.IsTrue() && r.IsTrue()), nil
	case token.OrOr:
		return boolValue(l.IsTrue() || r.IsTrue()), nil
	case token.Shl, token.Shr:
		// result has the type of the left operand
		n := r.bits
		if (!r.Unsigned && r.Signed() < 0) || n >= 64 {
			return Value{Unsigned: l.Unsigned}, nil
		}
		if op.Kind == token.Shl {
			return Value{bits: l.bits << n, Unsigned: l.Unsigned}, nil
		}
		if l.Unsigned {
			return Uint(l.bits >> n), nil
		}
		return Int(l.Signed() >> n), nil
	}

	unsigned := l.Unsigned || r.Unsigned
	switch op.Kind {
	case token.EqEq:
		return boolValue(l.bits == r.bits), nil
	case token.BangEq:
		return boolValue(l.bits != r.bits), nil
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return boolValue(compare(op.Kind, l, r, unsigned)), nil
	}

	var bits uint64
	switch op.Kind {
	case token.Pipe:
		bits = l.bits | r.bits
	case token.Caret:
		bits = l.bits ^ r.bits
	case token.Amp:
		bits = l.bits & r.bits
	case token.Plus:
		bits = l.bits + r.bits
	case token.Minus:
		bits = l.bits - r.bits
	case token.Star:
		bits = l.bits * r.bits
	case token.Slash, token.Percent:
		if r.bits == 0 {
			if !eval {
				return Value{Unsigned: unsigned}, nil
			}
			what := "division"
			if op.Kind == token.Percent {
				what = "remainder"
			}
			return Value{}, &Error{Span: op.Span, Msg: what + " by zero in preprocessor expression"}
		}
		switch {
		case unsigned && op.Kind == token.Slash:
			bits = l.bits / r.bits
		case unsigned:
			bits = l.bits % r.bits
		case op.Kind == token.Slash:
			bits = uint64(l.Signed() / r.Signed())
		default:
			bits = uint64(l.Signed() % r.Signed())
		}
	}
	return Value{bits: bits, Unsigned: unsigned}, nil
}

func compare(k token.Kind, l, r Value, unsigned bool) bool {
	if unsigned {
		a, b := l.bits, r.bits
		switch k {
		case token.Lt:
			return a < b
		case token.Gt:
			return a > b
		case token.LtEq:
			return a <= b
		default:
			return a >= b
		}
	}
	a, b := l.Signed(), r.Signed()
	switch k {
	case token.Lt:
		return a < b
	case token.Gt:
		return a > b
	case token.LtEq:
		return a <= b
	default:
		return a >= b
	}
}

// parseUnary: ('+'|'-'|'!'|'~') unary | primary
func (p *parser) parseUnary(eval bool) (Value, error) {
	t := p.peek()
	switch t.Kind {
	case token.Plus, token.Minus, token.Bang, token.Tilde:
		p.pos++
		v, err := p.parseUnary(eval)
		if err != nil {
			return v, err
		}
		switch t.Kind {
		case token.Minus:
			v.bits = -v.bits
		case token.Bang:
			v = boolValue(!v.IsTrue())
		case token.Tilde:
			v.bits = ^v.bits
		}
		return v, nil
	}
	return p.parsePrimary(eval)
}

func (p *parser) parsePrimary(eval bool) (Value, error) {
	t := p.next()
	switch t.Kind {
	case token.Number:
		return parseNumber(t)
	case token.CharLit:
		return parseChar(t)
	case token.LParen:
		v, err := p.parseComma(eval)
		if err != nil {
			return v, err
		}
		if closing := p.peek(); !p.accept(token.RParen) {
			return Value{}, p.errorf(closing, "missing ')' in expression")
		}
		return v, nil
	case token.Ident:
		if t.Text == "defined" {
			// produced by expansion; resolve like the unexpanded form
			name := ""
			switch {
			case p.peek().Kind == token.Ident:
				name = p.next().Text
			case p.accept(token.LParen):
				if p.peek().Kind != token.Ident {
					return Value{}, p.errorf(p.peek(), "macro name must be an identifier")
				}
				name = p.next().Text
				if !p.accept(token.RParen) {
					return Value{}, p.errorf(p.peek(), "missing ')' after 'defined'")
				}
			default:
				return Value{}, p.errorf(t, "macro name must be an identifier")
			}
			return boolValue(p.env != nil && p.env.Defined(name)), nil
		}
		if p.opts.CPlusPlus && t.Text == "true" {
			return Int(1), nil
		}
		return Int(0), nil
	case token.EOF:
		return Value{}, p.errorf(t, "expected value in expression")
	}
	return Value{}, p.errorf(t, "invalid token at start of a preprocessor expression")
}
