package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"studypile/internal/config"
)

func newTestReader(baseURL, apiKey string) *URLReader {
	return NewURLReader(&config.Config{Reader: config.ReaderConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
	}})
}

func TestURLReaderFetchesRenderedText(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("# Lecture Notes\n\nThe cell is the basic unit of life."))
	}))
	defer srv.Close()

	// Trailing slash on the base must not double up in the request path.
	reader := newTestReader(srv.URL+"/", "reader-key")
	text, err := reader.Read(context.Background(), "https://example.com/lecture")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if gotPath != "/https://example.com/lecture" {
		t.Fatalf("unexpected gateway path %q", gotPath)
	}
	if gotAuth != "Bearer reader-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if !strings.Contains(text, "basic unit of life") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestURLReaderOmitsAuthWithoutKey(t *testing.T) {
	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth.Store(r.Header.Get("Authorization") != "")
		w.Write([]byte("content"))
	}))
	defer srv.Close()

	reader := newTestReader(srv.URL, "")
	if _, err := reader.Read(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if sawAuth.Load() {
		t.Fatal("auth header sent without a configured key")
	}
}

func TestURLReaderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/https://example.com/missing":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.Write([]byte("   \n"))
		}
	}))
	defer srv.Close()
	reader := newTestReader(srv.URL, "")

	_, err := reader.Read(context.Background(), "https://example.com/missing")
	if err == nil || !strings.Contains(err.Error(), "status 503") {
		t.Fatalf("expected gateway status error, got %v", err)
	}

	_, err = reader.Read(context.Background(), "https://example.com/blank")
	if err == nil || !strings.Contains(err.Error(), "no readable text") {
		t.Fatalf("expected empty-body error, got %v", err)
	}

	if _, err := reader.Read(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank url")
	}
}
