//go:build conformance

package conformance

import (
	"bytes"
	"image"
	_ "image/png"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestFormSubmission(t *testing.T) {
	form := url.Values{
		"custname":  {"Test User"},
		"custtel":   {"1234567890"},
		"custemail": {"test@example.com"},
		"size":      {"medium"},
		"topping":   {"bacon"},
	}
	status, raw := postForm(t, "/post", form)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	echoed := assertField[map[string]any](t, raw, "form")
	for k := range form {
		if got, _ := echoed[k].(string); got != form.Get(k) {
			t.Errorf("form[%q]: expected %q, got %v", k, form.Get(k), echoed[k])
		}
	}
}

func TestRequestCapture(t *testing.T) {
	status, raw := getJSON(t, "/get?probe=1")
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	args := assertField[map[string]any](t, raw, "args")
	if args["probe"] != "1" {
		t.Errorf("args.probe: expected \"1\", got %v", args["probe"])
	}
	assertField[map[string]any](t, raw, "headers")
	assertField[string](t, raw, "origin")
	if u := assertField[string](t, raw, "url"); !strings.HasSuffix(u, "/get?probe=1") {
		t.Errorf("url should end with /get?probe=1, got %q", u)
	}
}

func TestPageLoadPerformance(t *testing.T) {
	start := time.Now()
	resp, _ := get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("page load took %s, limit 5s", elapsed)
	}
}

func TestMultipleRequestsPerformance(t *testing.T) {
	start := time.Now()
	for _, p := range []string{"/status/200", "/get", "/headers"} {
		resp, _ := get(t, p)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", p, resp.StatusCode)
		}
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("requests took %s, limit 10s", elapsed)
	}
}

func TestImageDownload(t *testing.T) {
	resp, data := get(t, "/image/png")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: expected image/png, got %q", ct)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png, got %s", format)
	}
}

func TestImageDimensions(t *testing.T) {
	skipIfRealAPI(t, "httpbin ignores width and height")

	resp, data := get(t, "/image/png?width=32&height=16")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 16 {
		t.Errorf("expected 32x16, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestAnythingReportsMethod(t *testing.T) {
	req, err := http.NewRequest(http.MethodPatch, targetURL("/anything/x"), strings.NewReader(`{"a":1}`))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, data := doRequest(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	raw := decodeObject(t, data)
	if m := assertField[string](t, raw, "method"); m != http.MethodPatch {
		t.Errorf("method: expected PATCH, got %q", m)
	}
	body := assertField[map[string]any](t, raw, "json")
	if body["a"] != float64(1) {
		t.Errorf("json.a: expected 1, got %v", body["a"])
	}
}

func TestUUID(t *testing.T) {
	status, raw := getJSON(t, "/uuid")
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if id := assertField[string](t, raw, "uuid"); len(id) != 36 {
		t.Errorf("uuid should be 36 characters, got %q", id)
	}
}

func TestBasicAuth(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, targetURL("/basic-auth/alice/s3cret"), nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp, _ := doRequest(t, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("without credentials: expected 401, got %d", resp.StatusCode)
	}

	req.SetBasicAuth("alice", "s3cret")
	resp, data := doRequest(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("with credentials: expected 200, got %d", resp.StatusCode)
	}
	raw := decodeObject(t, data)
	if !assertField[bool](t, raw, "authenticated") {
		t.Error("authenticated should be true")
	}
	if u := assertField[string](t, raw, "user"); u != "alice" {
		t.Errorf("user: expected alice, got %q", u)
	}
}

func TestBearer(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, targetURL("/bearer"), nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp, _ := doRequest(t, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("without token: expected 401, got %d", resp.StatusCode)
	}
}

func TestDelay(t *testing.T) {
	start := time.Now()
	status, raw := getJSON(t, "/delay/1")
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("response came back after %s, expected at least 1s", elapsed)
	}
	assertField[string](t, raw, "url")
}
