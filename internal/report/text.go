// Package report renders runs for people and for CI systems.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leca/ci-smoke/internal/model"
)

const lineWidth = 72

// Progress returns one console line for res, pytest -v style:
// "test_api_status_check PASSED [ 25%]".
func Progress(res model.Result, index, total int) string {
	pct := 100
	if total > 0 {
		pct = (index + 1) * 100 / total
	}
	return fmt.Sprintf("%s %s [%3d%%]", res.Name, strings.ToUpper(string(res.Status)), pct)
}

// Text writes a console report. In verbose mode every result gets its own
// line; otherwise only failures and the summary are shown.
func Text(w io.Writer, run *model.Run, verbose bool) error {
	var b strings.Builder

	b.WriteString(banner(" smoke session starts ", '='))
	fmt.Fprintf(&b, "suite: %s\ntarget: %s\nrun: %s\ncollected %d checks\n\n", run.Suite, run.Target, run.ID, len(run.Results))

	if verbose {
		for i, res := range run.Results {
			b.WriteString(Progress(res, i, len(run.Results)))
			b.WriteByte('\n')
		}
	} else {
		for _, res := range run.Results {
			b.WriteByte(statusChar(res.Status))
		}
	}
	b.WriteString("\n\n")

	var failures []model.Result
	for _, res := range run.Results {
		if res.Status == model.StatusFailed || res.Status == model.StatusError {
			failures = append(failures, res)
		}
	}
	if len(failures) > 0 {
		b.WriteString(banner(" FAILURES ", '='))
		for _, res := range failures {
			b.WriteString(banner(" "+res.Name+" ", '_'))
			fmt.Fprintf(&b, "%s: %s\n\n", strings.ToUpper(string(res.Status)), res.Message)
		}
	}

	b.WriteString(banner(" "+SummaryLine(run)+" ", '='))

	_, err := io.WriteString(w, b.String())
	return err
}

// SummaryLine renders "3 passed, 1 failed in 0.42s".
func SummaryLine(run *model.Run) string {
	s := run.Summary()
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(s.Failed, "failed")
	add(s.Passed, "passed")
	add(s.Skipped, "skipped")
	if s.Errors == 1 {
		parts = append(parts, "1 error")
	} else {
		add(s.Errors, "errors")
	}
	if len(parts) == 0 {
		parts = append(parts, "no checks ran")
	}
	line := strings.Join(parts, ", ")
	if run.Interrupted {
		line = "interrupted: " + line
	}
	return fmt.Sprintf("%s in %.2fs", line, run.Duration().Round(time.Millisecond).Seconds())
}

func statusChar(s model.Status) byte {
	switch s {
	case model.StatusPassed:
		return '.'
	case model.StatusFailed:
		return 'F'
	case model.StatusError:
		return 'E'
	default:
		return 's'
	}
}

func banner(title string, fill byte) string {
	pad := lineWidth - len(title)
	if pad < 2 {
		return title + "\n"
	}
	left := pad / 2
	return strings.Repeat(string(fill), left) + title + strings.Repeat(string(fill), pad-left) + "\n"
}
