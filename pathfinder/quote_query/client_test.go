package quotequery_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zeebo/assert"

	quotequery "github.com/Cogwheel-Validator/spectra-swap/pathfinder/quote_query"
)

func testConfig() quotequery.FailoverConfig {
	cfg := quotequery.DefaultFailoverConfig()
	cfg.HealthCheckInterval = 0
	cfg.RetryDelay = time.Millisecond
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestGet_PassesQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/swap/v1/quote")
		assert.Equal(t, r.URL.Query().Get("sellToken"), "0xabc")
		assert.Equal(t, r.Header.Get("0x-api-key"), "secret")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := quotequery.NewQuoteQueryClientWithFailover(srv.URL, nil, testConfig())
	assert.NoError(t, err)
	defer client.Close()
	client.SetHeader("0x-api-key", "secret")

	body, err := client.Get(context.Background(), "/swap/v1/quote", url.Values{"sellToken": {"0xabc"}})
	assert.NoError(t, err)
	assert.Equal(t, string(body), `{"ok":true}`)
}

func TestGet_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 3
	client, err := quotequery.NewQuoteQueryClientWithFailover(srv.URL, nil, cfg)
	assert.NoError(t, err)

	_, err = client.Get(context.Background(), "/quote", nil)
	var httpErr *quotequery.HTTPError
	assert.True(t, errors.As(err, &httpErr))
	assert.Equal(t, httpErr.StatusCode, http.StatusBadRequest)
	assert.Equal(t, calls.Load(), int32(1))
}

func TestGet_FailsOverToBackup(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer primary.Close()
	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"backup":true}`))
	}))
	defer backup.Close()

	client, err := quotequery.NewQuoteQueryClientWithFailover(primary.URL, []string{backup.URL}, testConfig())
	assert.NoError(t, err)
	defer client.Close()

	body, err := client.Get(context.Background(), "/quote", nil)
	assert.NoError(t, err)
	assert.Equal(t, string(body), `{"backup":true}`)
	assert.Equal(t, client.CurrentURL(), backup.URL)
}

func TestNewClient_RejectsInvalidURL(t *testing.T) {
	_, err := quotequery.NewQuoteQueryClient("not a url")
	assert.Error(t, err)
}
