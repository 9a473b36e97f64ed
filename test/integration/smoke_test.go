package integration

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/leca/ci-smoke/internal/model"
	"github.com/leca/ci-smoke/internal/probe"
	"github.com/leca/ci-smoke/internal/suite"
)

var _ = Describe("smoke suites against echod", func() {
	var runner *suite.Runner

	BeforeEach(func() {
		client, err := probe.New(server.URL, probe.WithTimeout(5*time.Second))
		Expect(err).NotTo(HaveOccurred())
		runner = suite.NewRunner(client, suite.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	})

	DescribeTable("every check passes",
		func(s suite.Suite, want int) {
			run := runner.Run(context.Background(), s)
			for _, res := range run.Results {
				Expect(res.Status).To(Equal(model.StatusPassed), "%s: %s", res.Name, res.Message)
			}
			Expect(run.Summary().Passed).To(Equal(want))
			Expect(run.ExitCode()).To(Equal(model.ExitOK))
		},
		Entry("default", suite.Default(), 4),
		Entry("extended", suite.Extended(), 9),
	)

	It("catches a wrong expectation as a failure, not an error", func() {
		s, err := suite.Parse([]byte(`
name: wrong
checks:
  - {name: teapot, kind: status, path: /status/418}
  - {name: missing_key, kind: json_key, path: /json, key: slideshow.nope}
  - {name: small, kind: image, path: "/image/png?width=5&height=5", width: 6}
`))
		Expect(err).NotTo(HaveOccurred())

		run := runner.Run(context.Background(), s)
		Expect(run.Summary()).To(Equal(model.Summary{Failed: 3}))
		Expect(run.ExitCode()).To(Equal(model.ExitFailed))
	})
})
