package api

import "net/http"

// Error writes msg as a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

// Unauthorized writes a 401 error response with a challenge for scheme.
func Unauthorized(w http.ResponseWriter, scheme string) {
	if scheme != "" {
		w.Header().Set("WWW-Authenticate", scheme)
	}
	Error(w, http.StatusUnauthorized, "Authentication required")
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, msg)
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
