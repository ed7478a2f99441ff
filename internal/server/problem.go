package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound   = "https://storefront.dev/problems/not-found"
	ProblemTypeBadRequest = "https://storefront.dev/problems/bad-request"
	ProblemTypeValidation = "https://storefront.dev/problems/validation"
	ProblemTypeUpstream   = "https://storefront.dev/problems/upstream-unavailable"
	ProblemTypeRateLimit  = "https://storefront.dev/problems/rate-limited"
	ProblemTypeInternal   = "https://storefront.dev/problems/internal-error"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extension members.
	Key       string `json:"key,omitempty"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: instance,
	})
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeBadRequest,
		Title:    "Bad Request",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: instance,
	})
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	})
}

// Unprocessable writes a 422 problem for a value that was understood but
// rejected. key names the offending parameter.
func Unprocessable(w http.ResponseWriter, key, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeValidation,
		Title:    "Unprocessable Entity",
		Status:   http.StatusUnprocessableEntity,
		Detail:   detail,
		Instance: instance,
		Key:      key,
	})
}

// BadGateway writes a 502 problem for a failed backend call.
func BadGateway(w http.ResponseWriter, detail, instance string, retryable bool) {
	WriteProblem(w, Problem{
		Type:      ProblemTypeUpstream,
		Title:     "Bad Gateway",
		Status:    http.StatusBadGateway,
		Detail:    detail,
		Instance:  instance,
		Retryable: &retryable,
	})
}

// TooManyRequests writes a 429 problem response.
func TooManyRequests(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeRateLimit,
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Detail:   detail,
		Instance: instance,
	})
}
