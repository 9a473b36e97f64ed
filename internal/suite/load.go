package suite

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leca/ci-smoke/internal/imageproc"
)

// Check kinds accepted in suite files.
const (
	KindStatus     = "status"
	KindJSONKey    = "json_key"
	KindHeader     = "header_contains"
	KindArithmetic = "arithmetic"
	KindForm       = "form_post"
	KindEchoURL    = "echo_url"
	KindLatency    = "latency"
	KindImage      = "image"
)

type fileSuite struct {
	Name   string      `yaml:"name"`
	Checks []fileCheck `yaml:"checks"`
}

type fileCheck struct {
	Name string   `yaml:"name"`
	Kind string   `yaml:"kind"`
	Tags []string `yaml:"tags"`
	Path string   `yaml:"path"`

	ExpectStatus int `yaml:"expect_status"`

	Key    string `yaml:"key"`
	Equals any    `yaml:"equals"`

	Header   string `yaml:"header"`
	Contains string `yaml:"contains"`

	Cases []ArithmeticCase `yaml:"cases"`

	Form map[string]string `yaml:"form"`

	Paths []string      `yaml:"paths"`
	Max   time.Duration `yaml:"max"`

	Format string `yaml:"format"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Load reads a YAML suite file.
func Load(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Suite{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML suite document.
func Parse(data []byte) (Suite, error) {
	var fs fileSuite
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return Suite{}, fmt.Errorf("parse suite: %w", err)
	}
	if len(fs.Checks) == 0 {
		return Suite{}, fmt.Errorf("suite %q has no checks", fs.Name)
	}

	s := Suite{Name: fs.Name, Checks: make([]Check, 0, len(fs.Checks))}
	if s.Name == "" {
		s.Name = "suite"
	}
	seen := make(map[string]bool, len(fs.Checks))
	for i, fc := range fs.Checks {
		if fc.Name == "" {
			return Suite{}, fmt.Errorf("checks[%d]: name is required", i)
		}
		if seen[fc.Name] {
			return Suite{}, fmt.Errorf("checks[%d] %s: duplicate name", i, fc.Name)
		}
		seen[fc.Name] = true

		c, err := fc.build()
		if err != nil {
			return Suite{}, fmt.Errorf("checks[%d] %s: %w", i, fc.Name, err)
		}
		s.Checks = append(s.Checks, c)
	}
	return s, nil
}

func (fc fileCheck) build() (Check, error) {
	base := Base{CheckName: fc.Name, CheckTags: fc.Tags}
	needPath := func() error {
		if fc.Path == "" {
			return fmt.Errorf("%s check requires path", fc.Kind)
		}
		return nil
	}

	switch fc.Kind {
	case KindStatus:
		if err := needPath(); err != nil {
			return nil, err
		}
		if fc.ExpectStatus != 0 && (fc.ExpectStatus < 100 || fc.ExpectStatus > 599) {
			return nil, fmt.Errorf("expect_status %d is not an HTTP status", fc.ExpectStatus)
		}
		return &StatusCheck{Base: base, Path: fc.Path, Want: fc.ExpectStatus}, nil

	case KindJSONKey:
		if err := needPath(); err != nil {
			return nil, err
		}
		if fc.Key == "" {
			return nil, fmt.Errorf("json_key check requires key")
		}
		return &JSONKeyCheck{Base: base, Path: fc.Path, Key: fc.Key, Equals: fc.Equals}, nil

	case KindHeader:
		if err := needPath(); err != nil {
			return nil, err
		}
		if fc.Header == "" || fc.Contains == "" {
			return nil, fmt.Errorf("header_contains check requires header and contains")
		}
		return &HeaderCheck{Base: base, Path: fc.Path, Header: fc.Header, Contains: fc.Contains}, nil

	case KindArithmetic:
		if len(fc.Cases) == 0 {
			return nil, fmt.Errorf("arithmetic check requires cases")
		}
		return &ArithmeticCheck{Base: base, Cases: fc.Cases}, nil

	case KindForm:
		if err := needPath(); err != nil {
			return nil, err
		}
		if len(fc.Form) == 0 {
			return nil, fmt.Errorf("form_post check requires form")
		}
		return &FormCheck{Base: base, Path: fc.Path, Fields: fc.Form}, nil

	case KindEchoURL:
		if err := needPath(); err != nil {
			return nil, err
		}
		return &EchoURLCheck{Base: base, Path: fc.Path}, nil

	case KindLatency:
		paths := fc.Paths
		if len(paths) == 0 && fc.Path != "" {
			paths = []string{fc.Path}
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("latency check requires path or paths")
		}
		if fc.Max <= 0 {
			return nil, fmt.Errorf("latency check requires a positive max")
		}
		return &LatencyCheck{Base: base, Paths: paths, Max: fc.Max}, nil

	case KindImage:
		if err := needPath(); err != nil {
			return nil, err
		}
		if fc.Width < 0 || fc.Height < 0 {
			return nil, fmt.Errorf("image dimensions must not be negative")
		}
		format := fc.Format
		if format != "" {
			var ok bool
			if format, ok = imageproc.NormalizeFormat(format); !ok {
				return nil, fmt.Errorf("unsupported image format %q (want png, jpeg or gif)", fc.Format)
			}
		}
		return &ImageCheck{Base: base, Path: fc.Path, Format: format, Width: fc.Width, Height: fc.Height}, nil

	case "":
		return nil, fmt.Errorf("kind is required")
	default:
		return nil, fmt.Errorf("unknown kind %q", fc.Kind)
	}
}
