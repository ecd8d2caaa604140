package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-learn-admin/internal/apierrors"
)

const (
	contentTypeJSON = "application/json"
	headerRequestID = "X-Request-ID"
)

// Request is a pending API call. It is built per call and discarded afterwards.
type Request struct {
	Method string      // HTTP method, defaults to GET
	Path   string      // Path relative to the API base URL, or an absolute URL
	Body   any         // nil, []byte / json.RawMessage sent verbatim, or a value to JSON encode
	Header http.Header // Extra headers, merged under the gateway's own
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err converts a non-2xx response into an *apierrors.APIError.
func (r *Response) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return apierrors.ParseAPIError(r.StatusCode, r.Body)
}

// DecodeJSON unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[Response.DecodeJSON] %w", err)
	}
	return nil
}

// encodeBody serialises the body once so a retried request resends the same bytes.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[encodeBody] %w", err)
	}
	return encoded, nil
}
