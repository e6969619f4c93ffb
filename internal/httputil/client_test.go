package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kanban/internal/errors"
)

func TestRetryableClient_DoWithRetry_Success(t *testing.T) {
	// Create a test server that returns OK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewRetryableClient(5*time.Second, 2)
	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	ctx := context.Background()
	resp, err := client.DoWithRetry(ctx, req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestRetryableClient_DoWithRetry_Timeout(t *testing.T) {
	// Create a test server that delays response beyond timeout
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second) // Longer than timeout
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRetryableClient(500*time.Millisecond, 0) // Short timeout, no retries
	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	ctx := context.Background()
	_, err = client.DoWithRetry(ctx, req)
	if err == nil {
		t.Error("Expected timeout error, but got none")
	}
}

func TestRetryableClient_DoWithRetry_RetryOn500(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewRetryableClient(5*time.Second, 3)
	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	ctx := context.Background()
	resp, err := client.DoWithRetry(ctx, req)
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryableClient_DoWithRetry_NoRetryOn400(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest) // 400 should not be retried
	}))
	defer server.Close()

	client := NewRetryableClient(5*time.Second, 3)
	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	ctx := context.Background()
	resp, err := client.DoWithRetry(ctx, req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retries), got %d", attempts)
	}
}

func TestRetryableClient_DoJSONRequest(t *testing.T) {
	// Create a test server that returns JSON
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "hello", "count": 42}`))
	}))
	defer server.Close()

	client := NewDefaultClient()
	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	ctx := context.Background()
	var result struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}

	err = client.DoJSONRequest(ctx, req, &result)
	if err != nil {
		t.Fatalf("JSON request failed: %v", err)
	}

	if result.Message != "hello" {
		t.Errorf("Expected message 'hello', got '%s'", result.Message)
	}

	if result.Count != 42 {
		t.Errorf("Expected count 42, got %d", result.Count)
	}
}
func TestRetryableClient_DoJSONRequest_AcceptsAny2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 7, "title": "New List"}`))
	}))
	defer server.Close()

	client := NewDefaultClient()
	var col struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	if err := client.DoJSON(context.Background(), http.MethodPost, server.URL, map[string]string{"title": "New List"}, &col); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if col.ID != 7 || col.Title != "New List" {
		t.Errorf("unexpected result: %+v", col)
	}
}

func TestRetryableClient_DoJSONRequest_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "task not found"}`))
	}))
	defer server.Close()

	client := NewDefaultClient()
	err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if got := errors.StatusOf(err); got != http.StatusNotFound {
		t.Errorf("StatusOf = %d, want 404", got)
	}
	if !strings.Contains(err.Error(), "task not found") {
		t.Errorf("expected server message in error, got %v", err)
	}
}

func TestRetryableClient_NoRetryForPost(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRetryableClient(5*time.Second, 3)
	err := client.DoJSON(context.Background(), http.MethodPost, server.URL, map[string]string{"text": "x"}, nil)
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if attempts != 1 {
		t.Errorf("POST should be sent once, got %d attempts", attempts)
	}
}

func TestRetryableClient_RetryResendsBody(t *testing.T) {
	var bodies []string
	var ids []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		ids = append(ids, r.Header.Get(HeaderRequestID))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewRetryableClient(5*time.Second, 1)
	if err := client.DoJSON(context.Background(), http.MethodPut, server.URL, map[string]int64{"columnId": 2}, nil); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(bodies))
	}
	if bodies[0] != bodies[1] || !strings.Contains(bodies[1], `"columnId":2`) {
		t.Errorf("body not resent intact: %q", bodies)
	}
	if ids[0] == "" || ids[0] != ids[1] {
		t.Errorf("request id should be set once per logical request: %q", ids)
	}
}

func TestRetryableClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewRetryableClient(time.Second, 0)
	err := client.DoJSON(context.Background(), http.MethodGet, url, nil, nil)
	if err == nil {
		t.Fatal("expected error when server is down")
	}
	if !strings.Contains(err.Error(), "Board Server Unreachable") {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestRetryDelay_Linear(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 1500 * time.Millisecond},
		{3, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := retryDelay(tt.attempt); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestNewDefaultClient(t *testing.T) {
	client := NewDefaultClient()
	if client.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.timeout, DefaultTimeout)
	}
	if client.retries != 2 {
		t.Errorf("retries = %d, want 2", client.retries)
	}
}
