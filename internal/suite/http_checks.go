package suite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/leca/ci-smoke/internal/imageproc"
	"github.com/leca/ci-smoke/internal/probe"
)

const snippetLen = 200

func expectStatus(resp *probe.Response, want int) error {
	if resp.StatusCode != want {
		return failf("GET %s: expected status %d, got %d", resp.URL, want, resp.StatusCode)
	}
	return nil
}

// StatusCheck asserts that GET Path answers with Want (200 when zero).
type StatusCheck struct {
	Base
	Path string
	Want int
}

func (s *StatusCheck) Run(ctx context.Context, c *probe.Client) error {
	want := s.Want
	if want == 0 {
		want = http.StatusOK
	}
	resp, err := c.Get(ctx, s.Path)
	if err != nil {
		return err
	}
	return expectStatus(resp, want)
}

// JSONKeyCheck asserts that GET Path returns a JSON object holding Key.
// Key may be dotted to reach into nested objects. When Equals is set the
// value found must also match it.
type JSONKeyCheck struct {
	Base
	Path   string
	Key    string
	Equals any
}

func (j *JSONKeyCheck) Run(ctx context.Context, c *probe.Client) error {
	resp, err := c.Get(ctx, j.Path)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	data, err := resp.JSONMap()
	if err != nil {
		return failf("response is not a JSON object: %v (body: %s)", err, resp.Snippet(snippetLen))
	}

	val, ok := lookup(data, j.Key)
	if !ok {
		return failf("response should contain %q key (keys: %s)", j.Key, strings.Join(sortedKeys(data), ", "))
	}
	if j.Equals != nil && !sameValue(val, j.Equals) {
		return failf("%q: expected %v, got %v", j.Key, j.Equals, val)
	}
	return nil
}

func lookup(data map[string]any, key string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(key, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// sameValue compares a decoded JSON value with a literal from Go or YAML,
// where numbers may arrive as int while JSON always yields float64.
func sameValue(got, want any) bool {
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HeaderCheck asserts that a response header contains a substring,
// compared case-insensitively.
type HeaderCheck struct {
	Base
	Path     string
	Header   string
	Contains string
}

func (h *HeaderCheck) Run(ctx context.Context, c *probe.Client) error {
	resp, err := c.Get(ctx, h.Path)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	got := resp.Header.Get(h.Header)
	if !strings.Contains(strings.ToLower(got), strings.ToLower(h.Contains)) {
		return failf("header %s: expected to contain %q, got %q", h.Header, h.Contains, got)
	}
	return nil
}

// FormCheck posts Fields as a url-encoded form and asserts the echo
// service reflects every field back in its "form" object.
type FormCheck struct {
	Base
	Path   string
	Fields map[string]string
}

func (f *FormCheck) Run(ctx context.Context, c *probe.Client) error {
	values := url.Values{}
	for k, v := range f.Fields {
		values.Set(k, v)
	}
	resp, err := c.PostForm(ctx, f.Path, values)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return failf("POST %s: expected status 200, got %d", resp.URL, resp.StatusCode)
	}

	var echoed struct {
		Form map[string]any `json:"form"`
	}
	if err := resp.JSON(&echoed); err != nil {
		return failf("response is not JSON: %v", err)
	}

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		got, ok := echoed.Form[k]
		if !ok {
			return failf("form field %q was not echoed back", k)
		}
		if !sameValue(got, f.Fields[k]) {
			return failf("form field %q: expected %q, got %v", k, f.Fields[k], got)
		}
	}
	return nil
}

// EchoURLCheck asserts the echo service saw the request we sent: the "url"
// it reports must point at the same host and path.
type EchoURLCheck struct {
	Base
	Path string
}

func (e *EchoURLCheck) Run(ctx context.Context, c *probe.Client) error {
	resp, err := c.Get(ctx, e.Path)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	var echoed struct {
		URL string `json:"url"`
	}
	if err := resp.JSON(&echoed); err != nil {
		return failf("response is not JSON: %v", err)
	}
	if echoed.URL == "" {
		return failf("response has no \"url\" field")
	}

	sent, err := url.Parse(resp.URL)
	if err != nil {
		return fmt.Errorf("parse request url: %w", err)
	}
	got, err := url.Parse(echoed.URL)
	if err != nil {
		return failf("echoed url %q is not a URL: %v", echoed.URL, err)
	}
	// Proxies in front of the echo service may rewrite the port.
	if !strings.EqualFold(got.Hostname(), sent.Hostname()) {
		return failf("echoed host %q, sent %q", got.Hostname(), sent.Hostname())
	}
	if got.Path != sent.Path {
		return failf("echoed path %q, sent %q", got.Path, sent.Path)
	}
	return nil
}

// LatencyCheck fetches Paths one after another; each must succeed with a
// 2xx status and together they must finish within Max.
type LatencyCheck struct {
	Base
	Paths []string
	Max   time.Duration
}

func (l *LatencyCheck) Run(ctx context.Context, c *probe.Client) error {
	start := time.Now()
	for _, p := range l.Paths {
		resp, err := c.Get(ctx, p)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return failf("GET %s: expected 2xx, got %d", resp.URL, resp.StatusCode)
		}
	}
	if total := time.Since(start); l.Max > 0 && total > l.Max {
		return failf("%d request(s) took %s, limit %s", len(l.Paths), total.Round(time.Millisecond), l.Max)
	}
	return nil
}

// ImageCheck downloads an image and asserts its format and, when non-zero,
// its dimensions.
type ImageCheck struct {
	Base
	Path   string
	Format string
	Width  int
	Height int
}

func (i *ImageCheck) Run(ctx context.Context, c *probe.Client) error {
	resp, err := c.Get(ctx, i.Path)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}
	info, err := imageproc.Inspect(resp.Body)
	if err != nil {
		return failf("GET %s: %v", resp.URL, err)
	}
	if i.Format != "" {
		want, _ := imageproc.NormalizeFormat(i.Format)
		if info.Format != want {
			return failf("expected %s image, got %s", want, info.Format)
		}
	}
	if i.Width > 0 && info.Width != i.Width {
		return failf("expected width %d, got %d", i.Width, info.Width)
	}
	if i.Height > 0 && info.Height != i.Height {
		return failf("expected height %d, got %d", i.Height, info.Height)
	}
	return nil
}
