package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/leca/ci-smoke/internal/database"
	"github.com/leca/ci-smoke/internal/metrics"
	"github.com/leca/ci-smoke/internal/model"
	"github.com/leca/ci-smoke/internal/probe"
	"github.com/leca/ci-smoke/internal/report"
	"github.com/leca/ci-smoke/internal/suite"
)

// Execute carries out inv and returns the process exit code.
func Execute(ctx context.Context, inv Invocation, stdout, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: inv.LogLevel}))

	switch inv.Command {
	case CommandVersion:
		fmt.Fprintf(stdout, "smoke %s\n", Version)
		return model.ExitOK
	case CommandList:
		return list(inv, stdout, stderr)
	case CommandHistory:
		return history(inv, stdout, stderr)
	default:
		return run(ctx, inv, stdout, stderr, logger)
	}
}

func selectSuite(inv Invocation) (suite.Suite, error) {
	switch {
	case inv.SuitePath != "":
		return suite.Load(inv.SuitePath)
	case inv.Extended:
		return suite.Extended(), nil
	default:
		return suite.Default(), nil
	}
}

func list(inv Invocation, stdout, stderr io.Writer) int {
	s, err := selectSuite(inv)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return model.ExitUsage
	}
	n := 0
	for _, c := range s.Checks {
		if !inv.Selector.Match(c) {
			continue
		}
		n++
		if tags := c.Tags(); len(tags) > 0 {
			fmt.Fprintf(stdout, "%s [%s]\n", c.Name(), strings.Join(tags, ", "))
		} else {
			fmt.Fprintln(stdout, c.Name())
		}
	}
	fmt.Fprintf(stdout, "\n%d/%d checks selected in %s\n", n, len(s.Checks), s.Name)
	if n == 0 {
		return model.ExitNoChecks
	}
	return model.ExitOK
}

func history(inv Invocation, stdout, stderr io.Writer) int {
	db, err := database.NewSQLiteDB(inv.DBPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return model.ExitInternal
	}
	defer db.Close()

	runs, err := db.ListRuns(inv.HistoryLimit)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return model.ExitInternal
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs recorded")
		return model.ExitOK
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSUITE\tEXIT\tRESULT\tRUN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			r.Started.Local().Format("2006-01-02 15:04:05"), r.Suite, r.ExitCode(), report.SummaryLine(r), r.ID)
	}
	if err := tw.Flush(); err != nil {
		return model.ExitInternal
	}
	return model.ExitOK
}

func run(ctx context.Context, inv Invocation, stdout, stderr io.Writer, logger *slog.Logger) int {
	s, err := selectSuite(inv)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return model.ExitUsage
	}

	client, err := probe.New(inv.Target,
		probe.WithTimeout(inv.Timeout),
		probe.WithRateLimit(inv.RateLimit, 1),
		probe.WithUserAgent("ci-smoke/"+Version),
	)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return model.ExitUsage
	}

	var selected int
	for _, c := range s.Checks {
		if inv.Selector.Match(c) {
			selected++
		}
	}
	if selected == 0 {
		fmt.Fprintf(stdout, "no checks selected (%d deselected)\n", len(s.Checks))
		return model.ExitNoChecks
	}

	rm := metrics.NewRunMetrics()
	runner := suite.NewRunner(client,
		suite.WithLogger(logger),
		suite.WithCheckTimeout(inv.CheckTimeout),
		suite.WithSelector(inv.Selector),
		suite.WithFailFast(inv.FailFast),
		suite.WithObserver(rm.Observer(s.Name)),
	)
	result := runner.Run(ctx, s)
	rm.ObserveRun(result)

	if inv.Quiet {
		fmt.Fprintln(stdout, report.SummaryLine(result))
	} else if err := report.Text(stdout, result, inv.Verbose); err != nil {
		logger.Error("failed to write console report", "error", err)
	}

	code := result.ExitCode()
	if !writeArtifacts(inv, result, rm, stdout, logger) && code == model.ExitOK {
		code = model.ExitInternal
	}
	if inv.DBPath != "" {
		recordHistory(inv, result, logger)
	}
	return code
}

// writeArtifacts writes every requested report file. It reports false if
// any of them could not be written.
func writeArtifacts(inv Invocation, run *model.Run, rm *metrics.RunMetrics, stdout io.Writer, logger *slog.Logger) bool {
	w := report.NewWriter(inv.ReportDir)
	outputs := []struct {
		name   string
		render report.Render
	}{
		{inv.HTMLPath, report.HTML},
		{inv.JUnitPath, report.JUnit},
		{inv.JSONPath, report.JSON},
	}

	ok := true
	for _, out := range outputs {
		if out.name == "" {
			continue
		}
		path, err := w.Write(out.name, run, out.render)
		if err != nil {
			logger.Error("failed to write report", "path", out.name, "error", err)
			ok = false
			continue
		}
		if !inv.Quiet {
			fmt.Fprintf(stdout, "report written to %s\n", path)
		}
	}

	if inv.MetricsFile != "" {
		path, err := w.Ensure(inv.MetricsFile)
		if err == nil {
			err = rm.WriteTextfile(path)
		}
		if err != nil {
			logger.Error("failed to write metrics textfile", "path", inv.MetricsFile, "error", err)
			ok = false
		}
	}
	return ok
}

// recordHistory stores run in the history database. Failures are logged
// but never change the exit code.
func recordHistory(inv Invocation, run *model.Run, logger *slog.Logger) {
	db, err := database.NewSQLiteDB(inv.DBPath)
	if err != nil {
		logger.Warn("history disabled", "db", inv.DBPath, "error", err)
		return
	}
	defer db.Close()

	if err := db.CreateRun(run); err != nil {
		logger.Warn("failed to record run", "run_id", run.ID, "error", err)
		return
	}
	pruned, err := db.PruneRuns(inv.Keep)
	if err != nil {
		logger.Warn("failed to prune history", "error", err)
		return
	}
	if pruned > 0 {
		logger.Debug("pruned old runs", "count", pruned)
	}
}
