package idempotency

import "net/http"

// HeaderPair is one response header occurrence. Multi-value headers are
// stored as repeated pairs so the replayed response is byte-identical to
// the original, ordering included.
type HeaderPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CapturedResponse is the serialized form of the HTTP response produced by
// the first successful processing of an idempotency key. Replays of the same
// key observe this response instead of re-running the handler.
type CapturedResponse struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}

// SeeOther builds a captured redirect response, the publish handler's
// success shape.
func SeeOther(location string) *CapturedResponse {
	return &CapturedResponse{
		StatusCode: http.StatusSeeOther,
		Headers:    []HeaderPair{{Name: "Location", Value: location}},
	}
}

// Write replays the captured response onto w.
func (r *CapturedResponse) Write(w http.ResponseWriter) {
	for _, h := range r.Headers {
		w.Header().Add(h.Name, h.Value)
	}
	w.WriteHeader(r.StatusCode)
	if len(r.Body) > 0 {
		w.Write(r.Body) //nolint:errcheck
	}
}
