// Package suite defines smoke checks and runs them against a target.
//
// Every check is independent: it issues its own requests (or none, for
// arithmetic checks) and reports a single outcome. A check returning an
// *AssertionError failed; any other error means the check could not be
// evaluated at all and is reported as an error.
package suite

import (
	"context"
	"fmt"
	"slices"

	"github.com/leca/ci-smoke/internal/probe"
)

// Check is one named smoke test.
type Check interface {
	Name() string
	Tags() []string
	Run(ctx context.Context, c *probe.Client) error
}

// Suite is an ordered list of checks.
type Suite struct {
	Name   string
	Checks []Check
}

// AssertionError means the target responded but not as expected.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

func failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// Base carries the name and tags shared by every check kind.
type Base struct {
	CheckName string
	CheckTags []string
}

func (b Base) Name() string { return b.CheckName }

func (b Base) Tags() []string { return slices.Clone(b.CheckTags) }

// Names lists the check names of s in order.
func (s Suite) Names() []string {
	names := make([]string, len(s.Checks))
	for i, c := range s.Checks {
		names[i] = c.Name()
	}
	return names
}
