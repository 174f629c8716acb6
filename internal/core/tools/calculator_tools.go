package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	calcAllowedChars = "0123456789+-*/().% "
	maxExponent      = 1000
	maxResultDigits  = 10000
)

var (
	errDivisionByZero = errors.New("division by zero")
	errResultTooLarge = fmt.Errorf("result too large (max %d digits)", maxResultDigits)
)

func calculatorTool() *Tool {
	return &Tool{
		Name: "calculator",
		Description: "Evaluate an arithmetic expression exactly. Supports + - * / // % ** and parentheses. " +
			`Examples: "10 + 20 / 2", "5 * (4 + 3)", "2 ** 8".`,
		Parameters: objectSchema(map[string]any{
			"expression": stringParam("The arithmetic expression to evaluate"),
		}, "expression"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			expr, err := requiredString(inv.Args, "expression")
			if err != nil {
				return "", err
			}
			if strings.ContainsFunc(expr, func(r rune) bool {
				return !strings.ContainsRune(calcAllowedChars, r)
			}) {
				return "Invalid characters in expression", nil
			}
			v, err := Evaluate(ctx, expr)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if err != nil {
				return fmt.Sprintf("Calculation error: %v", err), nil
			}
			return v.String(), nil
		},
	}
}

// Evaluate computes an arithmetic expression with decimal precision.
// ** binds tighter than unary minus and is right-associative; % and // follow
// floor semantics. Evaluation stops once ctx is done.
func Evaluate(ctx context.Context, expr string) (decimal.Decimal, error) {
	p := &calcParser{ctx: ctx, src: expr}
	v, err := p.expr()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return decimal.Zero, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

type calcParser struct {
	ctx context.Context
	src string
	pos int
}

func (p *calcParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *calcParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

// expr = term { ("+" | "-") term }
func (p *calcParser) expr() (decimal.Decimal, error) {
	left, err := p.term()
	if err != nil {
		return left, err
	}
	for {
		if err := p.ctx.Err(); err != nil {
			return decimal.Zero, err
		}
		switch {
		case p.accept("+"):
			right, err := p.term()
			if err != nil {
				return right, err
			}
			left = left.Add(right)
		case p.accept("-"):
			right, err := p.term()
			if err != nil {
				return right, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

// term = unary { ("*" | "//" | "/" | "%") unary }
func (p *calcParser) term() (decimal.Decimal, error) {
	left, err := p.unary()
	if err != nil {
		return left, err
	}
	for {
		if err := p.ctx.Err(); err != nil {
			return decimal.Zero, err
		}
		var op string
		switch {
		case p.accept("*"):
			op = "*"
		case p.accept("//"):
			op = "//"
		case p.accept("/"):
			op = "/"
		case p.accept("%"):
			op = "%"
		default:
			return left, nil
		}

		right, err := p.unary()
		if err != nil {
			return right, err
		}
		if op != "*" && right.IsZero() {
			return decimal.Zero, errDivisionByZero
		}
		switch op {
		case "*":
			if left.NumDigits()+right.NumDigits() > maxResultDigits {
				return decimal.Zero, errResultTooLarge
			}
			left = left.Mul(right)
		case "/":
			left = left.Div(right)
		case "//":
			left = left.Div(right).Floor()
		case "%":
			r := left.Mod(right)
			if !r.IsZero() && r.Sign() != right.Sign() {
				r = r.Add(right)
			}
			left = r
		}
	}
}

// unary = ("-" | "+") unary | power
func (p *calcParser) unary() (decimal.Decimal, error) {
	if p.accept("-") {
		v, err := p.unary()
		return v.Neg(), err
	}
	if p.accept("+") {
		return p.unary()
	}
	return p.power()
}

// power = primary [ "**" unary ]
func (p *calcParser) power() (decimal.Decimal, error) {
	base, err := p.primary()
	if err != nil {
		return base, err
	}
	if !p.accept("**") {
		return base, nil
	}
	exp, err := p.unary()
	if err != nil {
		return exp, err
	}
	if err := p.ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return pow(base, exp)
}

// primary = number | "(" expr ")"
func (p *calcParser) primary() (decimal.Decimal, error) {
	p.skipSpace()
	if p.accept("(") {
		v, err := p.expr()
		if err != nil {
			return v, err
		}
		if !p.accept(")") {
			return decimal.Zero, errors.New("missing closing parenthesis")
		}
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	if start == p.pos {
		if p.pos >= len(p.src) {
			return decimal.Zero, errors.New("unexpected end of expression")
		}
		return decimal.Zero, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	v, err := decimal.NewFromString(p.src[start:p.pos])
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", p.src[start:p.pos])
	}
	return v, nil
}

func pow(base, exp decimal.Decimal) (decimal.Decimal, error) {
	if !exp.IsInteger() {
		if base.IsNegative() {
			return decimal.Zero, errors.New("fractional power of a negative number")
		}
		f := math.Pow(base.InexactFloat64(), exp.InexactFloat64())
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return decimal.Zero, errors.New("result out of range")
		}
		return decimal.NewFromFloat(f), nil
	}
	if exp.Abs().GreaterThan(decimal.NewFromInt(maxExponent)) {
		return decimal.Zero, fmt.Errorf("exponent too large (max %d)", maxExponent)
	}
	// The coefficient of base**n has at most n times as many digits as base.
	if int64(base.NumDigits())*exp.Abs().IntPart() > maxResultDigits {
		return decimal.Zero, errResultTooLarge
	}
	if exp.IsNegative() {
		if base.IsZero() {
			return decimal.Zero, errDivisionByZero
		}
		return decimal.NewFromInt(1).Div(base.Pow(exp.Neg())), nil
	}
	return base.Pow(exp), nil
}
