package suite

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leca/ci-smoke/internal/probe"
)

// ArithmeticCase is one "expr == want" assertion, e.g. {"2 + 2", 4}.
type ArithmeticCase struct {
	Expr string `yaml:"expr"`
	Want int64  `yaml:"want"`
}

// ArithmeticCheck evaluates integer expressions of the form "a op b".
// It needs no network and always runs, which makes it a canary for the
// runner itself.
type ArithmeticCheck struct {
	Base
	Cases []ArithmeticCase
}

func (a *ArithmeticCheck) Run(ctx context.Context, _ *probe.Client) error {
	for _, tc := range a.Cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, err := Eval(tc.Expr)
		if err != nil {
			return err
		}
		if got != tc.Want {
			return failf("%s: expected %d, got %d", tc.Expr, tc.Want, got)
		}
	}
	return nil
}

var ErrDivisionByZero = errors.New("division by zero")

// Eval computes "a op b" for op in + - * / %. Whitespace is optional and
// either operand may carry a sign.
func Eval(expr string) (int64, error) {
	s := strings.TrimSpace(expr)
	a, rest, err := parseOperand(s)
	if err != nil {
		return 0, fmt.Errorf("eval %q: %w", expr, err)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return 0, fmt.Errorf("eval %q: missing operator", expr)
	}
	op := rest[0]
	b, tail, err := parseOperand(strings.TrimSpace(rest[1:]))
	if err != nil {
		return 0, fmt.Errorf("eval %q: %w", expr, err)
	}
	if strings.TrimSpace(tail) != "" {
		return 0, fmt.Errorf("eval %q: unexpected %q", expr, strings.TrimSpace(tail))
	}

	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/', '%':
		if b == 0 {
			return 0, fmt.Errorf("eval %q: %w", expr, ErrDivisionByZero)
		}
		if op == '/' {
			return a / b, nil
		}
		return a % b, nil
	default:
		return 0, fmt.Errorf("eval %q: unknown operator %q", expr, op)
	}
}

// parseOperand reads a signed integer from the start of s.
func parseOperand(s string) (int64, string, error) {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, s, fmt.Errorf("expected number at %q", s)
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, s, err
	}
	return n, s[i:], nil
}
