package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studypile/internal/config"
)

// defaultReaderBase is the public reader gateway; GET <base>/<url> returns
// the page rendered as plain text.
const defaultReaderBase = "https://r.jina.ai"

const defaultReaderTimeout = 60 * time.Second

// URLReader fetches readable text for a URL submission through the reader
// gateway.
type URLReader struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewURLReader(cfg *config.Config) *URLReader {
	base := strings.TrimRight(cfg.Reader.BaseURL, "/")
	if base == "" {
		base = defaultReaderBase
	}
	timeout := time.Duration(cfg.Reader.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultReaderTimeout
	}
	return &URLReader{
		baseURL: base,
		apiKey:  cfg.Reader.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *URLReader) Read(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build reader request: %w", err)
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch url content: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read reader response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader returned status %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", errors.New("url produced no readable text")
	}
	return string(body), nil
}
