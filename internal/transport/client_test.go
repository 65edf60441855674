package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ossi-voice/ossi/internal/model"
)

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func okResponse(text string) model.MessageResponse {
	return model.MessageResponse{
		Content: []model.ContentBlock{{Type: "text", Text: text}},
		Usage:   model.Usage{InputTokens: 12, OutputTokens: 8},
	}
}

func testRequest() model.MessageRequest {
	return model.MessageRequest{
		Model:       "test-model",
		MaxTokens:   100,
		Messages:    []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}},
		Temperature: 0.7,
	}
}

func TestSend_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, okResponse("hello"))

	c := NewClient(srv.URL, "test-key", "", client)
	got, err := c.Send(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Content) != 1 || got.Content[0].Text != "hello" {
		t.Errorf("Content = %+v", got.Content)
	}
	if got.Usage.Total() != 20 {
		t.Errorf("Usage.Total() = %d, want 20", got.Usage.Total())
	}
}

func TestSend_SetsHeadersAndBody(t *testing.T) {
	var gotHeaders http.Header
	var gotPath string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(okResponse("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "my-secret-key", "2023-06-01", srv.Client())
	if _, err := c.Send(context.Background(), testRequest()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/v1/messages" {
		t.Errorf("path = %q, want /v1/messages", gotPath)
	}
	if gotHeaders.Get("x-api-key") != "my-secret-key" {
		t.Errorf("x-api-key = %q", gotHeaders.Get("x-api-key"))
	}
	if gotHeaders.Get("anthropic-version") != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotHeaders.Get("anthropic-version"))
	}
	if gotHeaders.Get("content-type") != "application/json" {
		t.Errorf("content-type = %q", gotHeaders.Get("content-type"))
	}
	if gotReq["model"] != "test-model" || gotReq["max_tokens"] != float64(100) {
		t.Errorf("body = %v", gotReq)
	}
	if _, ok := gotReq["system"]; ok {
		t.Error("system must be omitted when empty")
	}
}

func TestSend_HTTPErrorCarriesStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv, client := makeTestServer(t, status, map[string]string{"error": "nope"})

		c := NewClient(srv.URL, "key", "", client)
		_, err := c.Send(context.Background(), testRequest())

		var httpErr *model.HTTPError
		if !errors.As(err, &httpErr) {
			t.Fatalf("status %d: expected *model.HTTPError, got %v", status, err)
		}
		if httpErr.StatusCode != status {
			t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, status)
		}
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "key", "", &http.Client{Timeout: time.Second})
	_, err := c.Send(context.Background(), testRequest())

	var connErr *model.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *model.ConnectionError, got %v", err)
	}
}

func TestSend_ClientTimeoutIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "", &http.Client{Timeout: 20 * time.Millisecond})
	_, err := c.Send(context.Background(), testRequest())

	var connErr *model.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *model.ConnectionError, got %v", err)
	}
}

func TestSend_CancelledContext(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, okResponse("late"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "key", "", client)
	_, err := c.Send(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var connErr *model.ConnectionError
	if errors.As(err, &connErr) {
		t.Error("cancellation must not be reported as a connection error")
	}
}

func TestSend_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "", srv.Client())
	if _, err := c.Send(context.Background(), testRequest()); err == nil {
		t.Fatal("expected decode error")
	}
}
