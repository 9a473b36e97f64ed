package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/leca/ci-smoke/internal/model"
)

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Errors   int          `xml:"errors,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Hostname  string          `xml:"hostname,attr,omitempty"`
	Props     []junitProperty `xml:"properties>property,omitempty"`
	Cases     []junitCase     `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitMessage `xml:"failure,omitempty"`
	Error     *junitMessage `xml:"error,omitempty"`
	Skipped   *junitMessage `xml:"skipped,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// JUnit writes the run as JUnit XML, the format most CI test reporters read.
func JUnit(w io.Writer, run *model.Run) error {
	sum := run.Summary()
	suite := junitSuite{
		Name:      run.Suite,
		Tests:     sum.Total(),
		Failures:  sum.Failed,
		Errors:    sum.Errors,
		Skipped:   sum.Skipped,
		Time:      seconds(run.Duration()),
		Timestamp: run.Started.UTC().Format("2006-01-02T15:04:05"),
		Props: []junitProperty{
			{Name: "run_id", Value: run.ID},
			{Name: "target", Value: run.Target},
		},
	}
	for _, res := range run.Results {
		c := junitCase{Name: res.Name, Classname: run.Suite, Time: seconds(res.Duration)}
		msg := &junitMessage{Message: res.Message, Body: res.Message}
		switch res.Status {
		case model.StatusFailed:
			c.Failure = msg
		case model.StatusError:
			c.Error = msg
		case model.StatusSkipped:
			c.Skipped = &junitMessage{Message: res.Message}
		}
		suite.Cases = append(suite.Cases, c)
	}

	doc := junitSuites{
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Errors:   suite.Errors,
		Skipped:  suite.Skipped,
		Time:     suite.Time,
		Suites:   []junitSuite{suite},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode junit: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// JSON writes the run and its summary as indented JSON.
func JSON(w io.Writer, run *model.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*model.Run
		Summary  model.Summary `json:"summary"`
		ExitCode int           `json:"exit_code"`
	}{run, run.Summary(), run.ExitCode()})
}
