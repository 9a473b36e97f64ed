package probe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
	URL        string
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode json from %s: %w", r.URL, err)
	}
	return nil
}

// JSONMap decodes the body as a JSON object.
func (r *Response) JSONMap() (map[string]any, error) {
	var m map[string]any
	if err := r.JSON(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("decode json from %s: body is not an object", r.URL)
	}
	return m, nil
}

// ContentType returns the lower-cased Content-Type header, or "".
func (r *Response) ContentType() string {
	return strings.ToLower(r.Header.Get("Content-Type"))
}

// Snippet returns the start of the body for use in failure messages.
func (r *Response) Snippet(n int) string {
	if len(r.Body) <= n {
		return string(r.Body)
	}
	for n > 0 && !utf8.RuneStart(r.Body[n]) {
		n--
	}
	return string(r.Body[:n]) + "..."
}
