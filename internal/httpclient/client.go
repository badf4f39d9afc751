package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient is satisfied by *http.Client and by test doubles.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns a plain client with an overall request timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is encoded as JSON when non-nil.
	Body interface{}
	// Secret is masked out of the URL in returned errors (tokens embedded in paths).
	Secret string
}

func (r Request) safeURL() string {
	if r.Secret == "" {
		return r.URL
	}
	return strings.ReplaceAll(r.URL, r.Secret, "***")
}

// Send performs r, rejects non-2xx statuses with an *UpstreamError and
// decodes the reply into response when it is non-nil.
func Send(ctx context.Context, client HTTPClient, r Request, response interface{}) error {
	var bodyReader io.Reader
	if r.Body != nil {
		jsonBody, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", r.safeURL(), err)
	}

	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		// url.Error repeats the full URL
		return fmt.Errorf("request to %s failed: %s", r.safeURL(), strings.ReplaceAll(err.Error(), r.URL, r.safeURL()))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			URL:        r.safeURL(),
		}
	}

	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", r.safeURL(), err)
		}
	}

	return nil
}
