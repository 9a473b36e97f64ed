package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leca/ci-smoke/internal/api"
)

// Get handles GET /get -- echoes query args, headers, origin and URL.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, newEcho(r))
}

// WithBody handles POST /post, PUT /put, PATCH /patch and DELETE /delete.
func (h *Handler) WithBody(w http.ResponseWriter, r *http.Request) {
	e := newEcho(r)
	if err := e.withBody(r); err != nil {
		api.BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, e)
}

// Anything handles /anything for any method, reporting the method too.
func (h *Handler) Anything(w http.ResponseWriter, r *http.Request) {
	e := newEcho(r)
	e.Method = r.Method
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		if err := e.withBody(r); err != nil {
			api.BadRequest(w, "invalid request body: "+err.Error())
			return
		}
	}
	api.WriteJSON(w, http.StatusOK, e)
}

// Headers handles GET /headers.
func (h *Handler) Headers(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"headers": requestHeaders(r)})
}

// IP handles GET /ip.
func (h *Handler) IP(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"origin": origin(r)})
}

// UserAgent handles GET /user-agent.
func (h *Handler) UserAgent(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"user-agent": r.UserAgent()})
}

// UUID handles GET /uuid.
func (h *Handler) UUID(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"uuid": uuid.NewString()})
}

// Bearer handles GET /bearer behind api.BearerMiddleware.
func (h *Handler) Bearer(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"token":         api.GetToken(r.Context()),
	})
}

// BasicAuth handles GET /basic-auth/{user}/{passwd} behind api.BasicAuthMiddleware.
func (h *Handler) BasicAuth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          api.GetUser(r.Context()),
	})
}

// Health returns a simple health-check response.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func decodeJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
