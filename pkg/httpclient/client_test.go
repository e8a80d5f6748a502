// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryDelay:   time.Millisecond,
		RetryBackoff: false,
	}
}

func TestClientGet(t *testing.T) {
	assertion := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertion.Equal("application/json", r.Header.Get("Accept"))
		assertion.Equal("token-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig())

	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"Authorization": "token-1"})
	assertion.NoError(err)
	assertion.Equal(http.StatusOK, resp.StatusCode)
	assertion.JSONEq(`{"ok":true}`, string(resp.Body))
}

func TestClientRetriesServerErrors(t *testing.T) {
	assertion := assert.New(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testConfig())

	resp, err := client.Get(context.Background(), srv.URL, nil)
	assertion.NoError(err)
	assertion.Equal(http.StatusOK, resp.StatusCode)
	assertion.Equal(int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	assertion := assert.New(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad filter value"))
	}))
	defer srv.Close()

	client := NewClient(testConfig())

	_, err := client.Get(context.Background(), srv.URL, nil)
	assertion.Error(err)
	assertion.Equal(int32(1), calls.Load())

	retryable, ok := err.(*RetryableError)
	assertion.True(ok)
	assertion.Equal(http.StatusBadRequest, retryable.StatusCode)
}

func TestClientHonorsContextCancellation(t *testing.T) {
	assertion := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{
		Timeout:    time.Second,
		MaxRetries: 5,
		RetryDelay: 200 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, srv.URL, nil)
	assertion.Error(err)
}
