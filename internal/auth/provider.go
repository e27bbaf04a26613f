package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"studypile/internal/config"
)

const defaultVerifyTimeout = 10 * time.Second

// ProviderVerifier verifies bearer tokens against the identity provider's
// verify endpoint. One client is built at startup and reused per call.
type ProviderVerifier struct {
	verifyURL string
	apiKey    string
	client    *http.Client
}

func NewProviderVerifier(cfg *config.Config) (*ProviderVerifier, error) {
	if cfg.Auth.VerifyURL == "" {
		return nil, errors.New("auth verify_url must be configured")
	}
	timeout := time.Duration(cfg.Auth.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	return &ProviderVerifier{
		verifyURL: cfg.Auth.VerifyURL,
		apiKey:    cfg.Auth.APIKey,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Verify posts the token to the provider and decodes the identity it binds.
// Any rejection, and a verified response without a uid, map to
// ErrInvalidToken so the HTTP layer answers 401 uniformly.
func (v *ProviderVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return Identity{}, fmt.Errorf("encode verify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(payload))
	if err != nil {
		return Identity{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		req.Header.Set("X-API-Key", v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: provider returned status %d", ErrInvalidToken, resp.StatusCode)
	}

	var body struct {
		UID   string `json:"uid"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("decode verify response: %w", err)
	}
	if body.UID == "" {
		return Identity{}, fmt.Errorf("%w: response carried no uid", ErrInvalidToken)
	}
	return Identity{UID: body.UID, Email: body.Email}, nil
}
