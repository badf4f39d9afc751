package httpclient

import "fmt"

// UpstreamError is a non-2xx reply from a remote API. Body is kept so
// callers can decode an API specific error payload.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d from %s", e.StatusCode, e.URL)
}
