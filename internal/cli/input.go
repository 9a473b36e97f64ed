// Package cli turns command-line arguments into a smoke run.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/leca/ci-smoke/internal/config"
	"github.com/leca/ci-smoke/internal/model"
	"github.com/leca/ci-smoke/internal/suite"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

type Command string

const (
	CommandRun     Command = "run"
	CommandList    Command = "list"
	CommandHistory Command = "history"
	CommandVersion Command = "version"
)

// Invocation is the fully resolved description of what to do.
type Invocation struct {
	Command Command

	Target    string
	SuitePath string
	Extended  bool

	Verbose bool
	Quiet   bool

	HTMLPath    string
	JUnitPath   string
	JSONPath    string
	ReportDir   string
	MetricsFile string

	Selector     suite.Selector
	FailFast     bool
	Timeout      time.Duration
	CheckTimeout time.Duration
	RateLimit    float64

	DBPath       string
	Keep         int
	HistoryLimit int

	LogLevel slog.Level
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func usageErrorf(format string, args ...any) error {
	return &InvocationError{ExitCode: model.ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// listFlag collects repeated (or comma-separated) flag values.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

const usageHeader = `usage: smoke [run] [flags]
       smoke list [-suite FILE | -extended]
       smoke history [-db PATH] [-n N]
       smoke version

flags:
`

// ParseInvocation parses args (without the program name). Defaults come
// from cfg, so environment variables apply unless a flag overrides them.
func ParseInvocation(args []string, cfg *config.Config) (Invocation, error) {
	inv := Invocation{Command: CommandRun}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		switch Command(args[0]) {
		case CommandRun, CommandList, CommandHistory, CommandVersion:
			inv.Command = Command(args[0])
			args = args[1:]
		default:
			return Invocation{}, usageErrorf("unknown command %q", args[0])
		}
	}

	fs := flag.NewFlagSet("smoke", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var include, exclude, names listFlag
	var logLevel string

	fs.StringVar(&inv.Target, "target", cfg.Target, "Base URL of the echo service.")
	fs.StringVar(&inv.SuitePath, "suite", "", "YAML suite file (default: built-in suite).")
	fs.BoolVar(&inv.Extended, "extended", false, "Use the built-in extended suite.")
	fs.BoolVar(&inv.Verbose, "v", false, "Print one line per check.")
	fs.BoolVar(&inv.Quiet, "q", false, "Print only the summary line.")
	fs.StringVar(&inv.HTMLPath, "html", "", "Write an HTML report to this file.")
	fs.StringVar(&inv.JUnitPath, "junit", "", "Write a JUnit XML report to this file.")
	fs.StringVar(&inv.JSONPath, "json", "", "Write a JSON report to this file.")
	fs.StringVar(&inv.ReportDir, "report-dir", cfg.ReportDir, "Directory for relative report paths.")
	fs.StringVar(&inv.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this file.")
	fs.Var(&include, "m", "Only run checks with this tag (repeatable).")
	fs.Var(&exclude, "skip-tag", "Skip checks with this tag (repeatable).")
	fs.Var(&names, "k", "Only run checks whose name contains this (repeatable).")
	fs.BoolVar(&inv.FailFast, "x", false, "Stop after the first failed check.")
	fs.DurationVar(&inv.Timeout, "timeout", cfg.Timeout, "HTTP client timeout.")
	fs.DurationVar(&inv.CheckTimeout, "check-timeout", suite.DefaultCheckTimeout, "Upper bound for a single check.")
	fs.Float64Var(&inv.RateLimit, "rate", cfg.RateLimit, "Max requests per second (0 = unlimited).")
	fs.StringVar(&inv.DBPath, "db", cfg.DBPath, "SQLite run history (empty disables).")
	fs.IntVar(&inv.Keep, "keep", 100, "Runs to keep in history.")
	fs.IntVar(&inv.HistoryLimit, "n", 10, "Runs to show in history.")
	fs.StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default from SMOKE_LOG_LEVEL).")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Invocation{}, &InvocationError{ExitCode: model.ExitOK, Message: Usage(fs)}
		}
		return Invocation{}, usageErrorf("%v", err)
	}
	if fs.NArg() != 0 {
		return Invocation{}, usageErrorf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	inv.Selector = suite.Selector{Include: include, Exclude: exclude, Names: names}
	inv.LogLevel = cfg.LogLevel
	if logLevel != "" {
		lvl, err := parseLevel(logLevel)
		if err != nil {
			return Invocation{}, err
		}
		inv.LogLevel = lvl
	}

	switch {
	case inv.SuitePath != "" && inv.Extended:
		return Invocation{}, usageErrorf("-suite and -extended are mutually exclusive")
	case inv.Verbose && inv.Quiet:
		return Invocation{}, usageErrorf("-v and -q are mutually exclusive")
	case inv.Command == CommandRun && inv.Target == "":
		return Invocation{}, usageErrorf("-target is required")
	case inv.Timeout <= 0 || inv.CheckTimeout <= 0:
		return Invocation{}, usageErrorf("timeouts must be positive")
	case inv.RateLimit < 0:
		return Invocation{}, usageErrorf("-rate must not be negative")
	case inv.Keep < 1 || inv.HistoryLimit < 1:
		return Invocation{}, usageErrorf("-keep and -n must be at least 1")
	case inv.Command == CommandHistory && inv.DBPath == "":
		return Invocation{}, usageErrorf("history needs -db or SMOKE_DB_PATH")
	}
	return inv, nil
}

// Usage renders the help text for fs.
func Usage(fs *flag.FlagSet) string {
	var b strings.Builder
	b.WriteString(usageHeader)
	fs.SetOutput(&b)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	return b.String()
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, usageErrorf("invalid -log-level %q", s)
	}
	return lvl, nil
}
