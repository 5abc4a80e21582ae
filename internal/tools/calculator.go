package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var validExprChars = regexp.MustCompile(`^[0-9+\-*/%().]+$`)

var errDivisionByZero = errors.New("division by zero")

func calculatorTool() *Tool {
	return &Tool{
		Name:        "calculator",
		Description: "Perform basic arithmetic calculations. Supports +, -, *, /, ** (power), % (modulo), and parentheses.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "A mathematical expression to evaluate (e.g., '3 + 5', '10 * 2', '15 / 3')",
				},
			},
			"required": []string{"expression"},
		},
		Handler: handleCalculator,
	}
}

func handleCalculator(ctx context.Context, args map[string]any) (string, error) {
	expression, _ := args["expression"].(string)

	// Strip all whitespace before validation.
	sanitized := strings.Join(strings.Fields(expression), "")

	if sanitized == "" {
		return "Empty expression provided", nil
	}

	if !validExprChars.MatchString(sanitized) {
		return fmt.Sprintf("Invalid expression: '%s'. Only numbers and basic operators (+, -, *, /, %%, **) are allowed.", expression), nil
	}

	result, err := evaluate(sanitized)
	switch {
	case errors.Is(err, errDivisionByZero):
		return "Error: Division by zero", nil
	case err != nil:
		return fmt.Sprintf("Invalid expression syntax: '%s'", expression), nil
	}

	if math.IsInf(result, 0) || math.IsNaN(result) {
		return fmt.Sprintf("Calculation error: result of '%s' is not a finite number", expression), nil
	}

	return fmt.Sprintf("%s = %s", expression, formatResult(result)), nil
}

// formatResult renders integral values without a fractional part and
// rounds everything else to at most 10 decimal places.
func formatResult(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	rounded := math.Round(v*1e10) / 1e10
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// evaluate parses and evaluates an arithmetic expression with standard
// precedence: ** (right-associative), unary minus, then * / %, then + -.
func evaluate(expr string) (float64, error) {
	p := &exprParser{input: expr}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

// parseExpr handles + and - (lowest precedence).
func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// parseTerm handles *, / and %. A "**" sequence belongs to the power
// operator and is left for parseFactor.
func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.peek() == '*' && p.pos+1 < len(p.input) && p.input[p.pos+1] == '*':
			return left, nil // "**" is not ours
		case p.peek() == '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.peek() == '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, errDivisionByZero
			}
			left /= right
		case p.peek() == '%':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, errDivisionByZero
			}
			left = floorMod(left, right)
		default:
			return left, nil
		}
	}
}

// parseUnary handles leading signs. The power operator binds tighter,
// so -2**2 evaluates as -(2**2).
func (p *exprParser) parseUnary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parseFactor()
}

// parseFactor handles ** (right-associative) above primaries.
func (p *exprParser) parseFactor() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek() == '*' && p.pos+1 < len(p.input) && p.input[p.pos+1] == '*' {
		p.pos += 2
		// The exponent may itself carry a sign: 2**-1 is valid.
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return v, nil
	}
	return p.parseNumber()
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed number %q", p.input[start:p.pos])
	}
	return v, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// floorMod implements floored modulo, where the result takes the sign
// of the divisor: -7 % 3 is 2, not -1.
func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}
