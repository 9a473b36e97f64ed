package handler

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/leca/ci-smoke/internal/config"
)

// maxBodyBytes limits how much of a request body is read and echoed.
const maxBodyBytes = 10 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Config *config.Config
}

// echo is the common response shape of the request-inspection endpoints.
type echo struct {
	Args    map[string]any    `json:"args"`
	Data    *string           `json:"data,omitempty"`
	Files   map[string]any    `json:"files,omitempty"`
	Form    map[string]any    `json:"form,omitempty"`
	Headers map[string]string `json:"headers"`
	JSON    any               `json:"json,omitempty"`
	Method  string            `json:"method,omitempty"`
	Origin  string            `json:"origin"`
	URL     string            `json:"url"`
}

func newEcho(r *http.Request) *echo {
	return &echo{
		Args:    flatten(r.URL.Query()),
		Headers: requestHeaders(r),
		Origin:  origin(r),
		URL:     fullURL(r),
	}
}

// withBody fills data, form, files and json from the request body.
func (e *echo) withBody(r *http.Request) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	e.Form = map[string]any{}
	e.Files = map[string]any{}
	data := ""

	ct := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return err
		}
		e.Form = flatten(r.PostForm)
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return err
		}
		e.Form = flatten(r.MultipartForm.Value)
		for name, fhs := range r.MultipartForm.File {
			if len(fhs) == 0 {
				continue
			}
			f, err := fhs[0].Open()
			if err != nil {
				return err
			}
			content, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return err
			}
			e.Files[name] = string(content)
		}
	default:
		data = string(raw)
		e.JSON = decodeJSON(raw)
	}
	e.Data = &data
	return nil
}

// flatten turns single-valued entries into strings, as httpbin does.
func flatten(v url.Values) map[string]any {
	out := make(map[string]any, len(v))
	for k, vals := range v {
		if len(vals) == 1 {
			out[k] = vals[0]
		} else {
			out[k] = slices.Clone(vals)
		}
	}
	return out
}

func requestHeaders(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.Header)+1)
	for k, vals := range r.Header {
		out[http.CanonicalHeaderKey(k)] = strings.Join(vals, ",")
	}
	if r.Host != "" {
		out["Host"] = r.Host
	}
	return out
}

func origin(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func fullURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
