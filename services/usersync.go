package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenExpirySkew refreshes the cached token this long before it actually
// expires, so an in-flight request never carries a token about to die.
const tokenExpirySkew = 10 * time.Second

// TokenProvider acquires and caches a client-credentials OAuth2 token.
// Constructed once at startup and injected into collaborators; there is no
// process-wide singleton.
type TokenProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenProvider(tokenURL, clientID, clientSecret string) *TokenProvider {
	return &TokenProvider{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Token returns the cached access token, refreshing it transparently when it
// is missing or within the expiry skew.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Add(tokenExpirySkew).Before(p.expiresAt) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	p.token = tokenResp.AccessToken
	p.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return p.token, nil
}

// CounterUpdate carries the derived counters mirrored to the user-service.
// Field names are part of the inter-service contract.
type CounterUpdate struct {
	ValidStamps       *int `json:"validStamps,omitempty"`
	ValidCoupons      *int `json:"validCoupons,omitempty"`
	TotalStampsDelta  *int `json:"totalStampsDelta,omitempty"`
	TotalCouponsDelta *int `json:"totalCouponsDelta,omitempty"`
}

// UserServiceClient pushes membership counters to the external user-service.
// The caller decides what a failure means; for the stamp engine it is
// best-effort only.
type UserServiceClient struct {
	baseURL string
	tokens  *TokenProvider
	client  *http.Client
}

func NewUserServiceClient(baseURL string, tokens *TokenProvider) *UserServiceClient {
	return &UserServiceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SyncCounters POSTs the counter update for (userID, businessID). Non-2xx
// responses are errors; the response body is otherwise ignored.
func (c *UserServiceClient) SyncCounters(ctx context.Context, userID, businessID string, update CounterUpdate) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire service token: %w", err)
	}

	payload := struct {
		BusinessID string `json:"businessId"`
		CounterUpdate
	}{BusinessID: businessID, CounterUpdate: update}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal counter update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/internal/v1/users/%s/memberships/counters", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create counters request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push counters: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("counters endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// DisabledSyncer is used when no user-service is configured. It drops every
// update.
type DisabledSyncer struct{}

func (DisabledSyncer) SyncCounters(ctx context.Context, userID, businessID string, update CounterUpdate) error {
	return nil
}
