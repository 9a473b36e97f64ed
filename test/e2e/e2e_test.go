//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leca/ci-smoke/internal/cli"
	"github.com/leca/ci-smoke/internal/config"
	"github.com/leca/ci-smoke/internal/model"
	"github.com/leca/ci-smoke/internal/router"
)

// setupTestServer starts echod in-process and returns its URL.
func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{MaxDelay: 2}
	srv := router.New(cfg, router.Options{Quiet: true})
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return ts
}

func baseConfig(target string) *config.Config {
	return &config.Config{
		Target:    target,
		Timeout:   5 * time.Second,
		ReportDir: "",
	}
}

// smoke runs the CLI the way CI does and returns the exit code and stdout.
func smoke(t *testing.T, ctx context.Context, target string, args ...string) (int, string) {
	t.Helper()
	inv, err := cli.ParseInvocation(args, baseConfig(target))
	require.NoError(t, err)
	var stdout, stderr bytes.Buffer
	code := cli.Execute(ctx, inv, &stdout, &stderr)
	return code, stdout.String()
}

type junitDoc struct {
	Tests    int `xml:"tests,attr"`
	Failures int `xml:"failures,attr"`
	Errors   int `xml:"errors,attr"`
	Skipped  int `xml:"skipped,attr"`
	Suites   []struct {
		Name  string `xml:"name,attr"`
		Cases []struct {
			Name    string    `xml:"name,attr"`
			Failure *struct{} `xml:"failure"`
		} `xml:"testcase"`
	} `xml:"testsuite"`
}

func TestPipeline_DefaultSuiteProducesCIArtifacts(t *testing.T) {
	ts := setupTestServer(t)
	dir := t.TempDir()

	code, out := smoke(t, context.Background(), ts.URL, "-v",
		"-html", filepath.Join(dir, "report.html"),
		"-junit", filepath.Join(dir, "junit.xml"),
		"-db", filepath.Join(dir, "history.db"))
	require.Equal(t, model.ExitOK, code, out)
	assert.Contains(t, out, "4 passed")

	html, err := os.ReadFile(filepath.Join(dir, "report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "test_api_json_response")

	data, err := os.ReadFile(filepath.Join(dir, "junit.xml"))
	require.NoError(t, err)
	var doc junitDoc
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Equal(t, 4, doc.Tests)
	assert.Zero(t, doc.Failures)
	require.Len(t, doc.Suites, 1)
	assert.Equal(t, "api-smoke", doc.Suites[0].Name)
	assert.Equal(t, "test_simple_math", doc.Suites[0].Cases[3].Name)
}

func TestPipeline_ExtendedSuite(t *testing.T) {
	ts := setupTestServer(t)
	dir := t.TempDir()

	code, out := smoke(t, context.Background(), ts.URL, "-extended", "-json", filepath.Join(dir, "run.json"))
	require.Equal(t, model.ExitOK, code, out)

	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	require.NoError(t, err)
	var decoded struct {
		Suite    string `json:"suite"`
		ExitCode int    `json:"exit_code"`
		Summary  struct {
			Passed int `json:"passed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "api-smoke-extended", decoded.Suite)
	assert.Equal(t, 9, decoded.Summary.Passed)
	assert.Zero(t, decoded.ExitCode)
}

func TestPipeline_SkipSlowMatchesDefault(t *testing.T) {
	ts := setupTestServer(t)

	code, out := smoke(t, context.Background(), ts.URL, "-extended", "-skip-tag", "slow", "-q")
	assert.Equal(t, model.ExitOK, code)
	assert.True(t, strings.HasPrefix(out, "4 passed, 5 skipped"), out)
}

func TestPipeline_BrokenTargetFailsTheBuild(t *testing.T) {
	// Every JSON endpoint answers with HTML, so json and header checks fail.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	t.Cleanup(broken.Close)
	dir := t.TempDir()

	code, out := smoke(t, context.Background(), broken.URL, "-junit", filepath.Join(dir, "junit.xml"))
	assert.Equal(t, model.ExitFailed, code)
	assert.Contains(t, out, "2 failed, 2 passed")

	data, err := os.ReadFile(filepath.Join(dir, "junit.xml"))
	require.NoError(t, err)
	var doc junitDoc
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.Failures)
}

func TestPipeline_InterruptSkipsRemaining(t *testing.T) {
	var hits atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first request cancels the run, as a SIGINT would.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			cancel()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"slideshow":{}}`))
	}))
	t.Cleanup(ts.Close)

	code, out := smoke(t, ctx, ts.URL, "-q")
	assert.Equal(t, model.ExitInterrupted, code)
	assert.Contains(t, out, "interrupted:")
}
