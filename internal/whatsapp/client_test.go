package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(serverURL string) *Client {
	c := NewClient("test-token", "12345")
	c.BaseURL = serverURL
	c.backoff = time.Millisecond
	return c
}

func TestSendTextPostsMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody textMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.SendText(context.Background(), "5511988887777", "What is a slice?"); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	if gotPath != "/12345/messages" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody.MessagingProduct != "whatsapp" || gotBody.To != "5511988887777" || gotBody.Text.Body != "What is a slice?" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestSendTextRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.SendText(context.Background(), "5511988887777", "retry me"); err != nil {
		t.Fatalf("SendText after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("server called %d times, want 3", calls.Load())
	}
}

func TestSendTextGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.SendText(context.Background(), "5511988887777", "doomed")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("SendText error = %v, want ErrUpstream", err)
	}
	if calls.Load() != int64(c.maxAttempts) {
		t.Fatalf("server called %d times, want %d", calls.Load(), c.maxAttempts)
	}
}

func TestSendTextDoesNotRetryRejections(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.SendText(context.Background(), "not-a-number", "bad request")
	if err == nil {
		t.Fatal("SendText succeeded on 400")
	}
	if errors.Is(err, ErrUpstream) {
		t.Fatalf("400 classified as upstream failure: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("server called %d times for permanent rejection, want 1", calls.Load())
	}
}
