package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leca/ci-smoke/internal/model"
	"github.com/leca/ci-smoke/internal/probe"
)

const DefaultCheckTimeout = 30 * time.Second

// Selector narrows which checks run. Tags work like pytest markers and
// Names like -k substrings; both must match when both are given.
type Selector struct {
	Include []string
	Exclude []string
	Names   []string
}

// Match reports whether c should run.
func (s Selector) Match(c Check) bool {
	tags := c.Tags()
	for _, t := range s.Exclude {
		if slices.Contains(tags, t) {
			return false
		}
	}
	if len(s.Include) > 0 && !slices.ContainsFunc(s.Include, func(t string) bool { return slices.Contains(tags, t) }) {
		return false
	}
	if len(s.Names) > 0 && !slices.ContainsFunc(s.Names, func(n string) bool { return strings.Contains(c.Name(), n) }) {
		return false
	}
	return true
}

// Runner executes suites sequentially.
type Runner struct {
	client    *probe.Client
	timeout   time.Duration
	logger    *slog.Logger
	selector  Selector
	failFast  bool
	observers []func(model.Result)
}

type RunnerOption func(*Runner)

func WithCheckTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithSelector(s Selector) RunnerOption {
	return func(r *Runner) { r.selector = s }
}

// WithFailFast skips every check after the first one that does not pass.
func WithFailFast(on bool) RunnerOption {
	return func(r *Runner) { r.failFast = on }
}

// WithObserver registers fn to receive each result as soon as it is known.
func WithObserver(fn func(model.Result)) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.observers = append(r.observers, fn)
		}
	}
}

func NewRunner(client *probe.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:  client,
		timeout: DefaultCheckTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every check in s in order and returns the completed run.
// Cancelling ctx skips the checks that have not started yet.
func (r *Runner) Run(ctx context.Context, s Suite) *model.Run {
	run := &model.Run{
		ID:      uuid.NewString(),
		Suite:   s.Name,
		Target:  r.client.BaseURL(),
		Started: time.Now().UTC(),
		Results: make([]model.Result, 0, len(s.Checks)),
	}
	log := r.logger.With("run_id", run.ID, "suite", s.Name)
	log.Info("run started", "target", run.Target, "checks", len(s.Checks))

	halted := false
	for _, c := range s.Checks {
		var res model.Result
		switch {
		case !r.selector.Match(c):
			res = skipped(c, "deselected")
		case ctx.Err() != nil:
			run.Interrupted = true
			res = skipped(c, "interrupted")
		case halted:
			res = skipped(c, "stopped after first failure")
		default:
			res = r.runOne(ctx, c)
			if ctx.Err() != nil && res.Status != model.StatusPassed {
				run.Interrupted = true
				res.Status = model.StatusSkipped
				res.Message = "interrupted"
			}
			if r.failFast && (res.Status == model.StatusFailed || res.Status == model.StatusError) {
				halted = true
			}
		}

		log.Debug("check finished", "check", res.Name, "status", res.Status, "duration", res.Duration, "message", res.Message)
		run.Results = append(run.Results, res)
		for _, fn := range r.observers {
			fn(res)
		}
	}

	run.Finished = time.Now().UTC()
	sum := run.Summary()
	log.Info("run finished",
		"passed", sum.Passed, "failed", sum.Failed, "errors", sum.Errors, "skipped", sum.Skipped,
		"duration", run.Duration(), "interrupted", run.Interrupted)
	return run
}

func (r *Runner) runOne(ctx context.Context, c Check) (res model.Result) {
	res = model.Result{Name: c.Name(), Tags: c.Tags()}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Status = model.StatusError
			res.Message = fmt.Sprintf("panic: %v", p)
			res.Duration = time.Since(start)
		}
	}()

	err := c.Run(cctx, r.client)
	res.Duration = time.Since(start)
	res.Status, res.Message = classify(err)
	return res
}

func classify(err error) (model.Status, string) {
	if err == nil {
		return model.StatusPassed, ""
	}
	var ae *AssertionError
	if errors.As(err, &ae) {
		return model.StatusFailed, ae.Message
	}
	return model.StatusError, err.Error()
}

func skipped(c Check, why string) model.Result {
	return model.Result{Name: c.Name(), Status: model.StatusSkipped, Message: why, Tags: c.Tags()}
}
