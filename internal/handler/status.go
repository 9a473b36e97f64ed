package handler

import (
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leca/ci-smoke/internal/api"
)

// Status handles /status/{codes} for any method. A comma-separated list
// answers with one of the codes chosen at random.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	codes, err := parseCodes(chi.URLParam(r, "codes"))
	if err != nil {
		api.BadRequest(w, "invalid status code")
		return
	}
	code := codes[0]
	if len(codes) > 1 {
		code = codes[rand.IntN(len(codes))]
	}

	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		w.Header().Set("Location", "/get")
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", `Basic realm="Fake Realm"`)
	case http.StatusTeapot:
		w.Header().Set("X-More-Info", "http://tools.ietf.org/html/rfc2324")
		w.WriteHeader(code)
		_, _ = w.Write([]byte("I'm a teapot\n"))
		return
	}
	w.WriteHeader(code)
}

func parseCodes(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	codes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		// 1xx is informational only; net/http would finalise the response as 200.
		if n < 200 || n > 599 {
			return nil, strconv.ErrRange
		}
		codes = append(codes, n)
	}
	return codes, nil
}

// Delay handles GET /delay/{n}: waits n seconds (capped by config) and then
// answers like /get. The wait ends early if the client goes away.
func (h *Handler) Delay(w http.ResponseWriter, r *http.Request) {
	secs, err := strconv.ParseFloat(chi.URLParam(r, "n"), 64)
	if err != nil || math.IsNaN(secs) || secs < 0 {
		api.BadRequest(w, "invalid delay")
		return
	}
	if limit := float64(h.maxDelay()); secs > limit {
		secs = limit
	}

	timer := time.NewTimer(time.Duration(secs * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-r.Context().Done():
		return
	case <-timer.C:
	}
	api.WriteJSON(w, http.StatusOK, newEcho(r))
}

func (h *Handler) maxDelay() int {
	if h.Config == nil || h.Config.MaxDelay <= 0 {
		return 10
	}
	return h.Config.MaxDelay
}
