// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// problemTypePrefix namespaces machine-readable problem identifiers.
const problemTypePrefix = "https://bizpulse.dev/problems/"

// maxBodyBytes caps request bodies; bill payloads are small.
const maxBodyBytes = 1 << 20

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response. The type URI is
// derived from the title so clients can branch without string-matching
// human-readable text.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Type:   problemTypePrefix + slugify(title),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func slugify(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// DecodeJSON decodes a JSON request body into the target struct,
// rejecting unknown fields and oversized bodies.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
