package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_PostsJSONAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := Send(context.Background(), New(time.Second), Request{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"X-Test": "yes"},
		Body:    map[string]string{"msg": "hello"},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "hello", out["echo"])
}

func TestSend_UpstreamErrorHidesSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	err := Send(context.Background(), srv.Client(), Request{
		URL:    srv.URL + "/botSECRET/getUpdates",
		Secret: "SECRET",
	}, nil)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.Contains(t, string(upstream.Body), "Unauthorized")
	assert.NotContains(t, upstream.Error(), "SECRET")
	assert.Contains(t, upstream.URL, "/bot***/getUpdates")
}

func TestSend_TransportErrorHidesSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL + "/botSECRET/getUpdates"
	srv.Close()

	err := Send(context.Background(), New(time.Second), Request{URL: url, Secret: "SECRET"}, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
}
