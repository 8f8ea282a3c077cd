// Package directory implements domain.AccountDirectory by calling the
// account-management service's internal REST API.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/campo-social/notification/internal/domain"
)

// Client resolves accounts over HTTP with a short in-memory response cache
// so fan-out bursts do not hammer the directory.
type Client struct {
	baseURL      string // e.g. "http://accounts:8080"
	serviceToken string

	httpClient *http.Client

	mu        sync.RWMutex
	cacheTTL  time.Duration
	cacheData map[string]cacheEntry // key: account id
}

type cacheEntry struct {
	account   *domain.Account
	expiresAt time.Time
}

// New creates a directory Client with a 30-second cache TTL.
func New(baseURL, serviceToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL:     30 * time.Second,
		cacheData:    make(map[string]cacheEntry),
	}
}

// GetAccount fetches one account. A 404 maps to CodeNotFound so callers
// can distinguish "no such user" from directory outages.
func (c *Client) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if cached, ok := c.fromCache(id); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/internal/accounts/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory get account %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.E(domain.CodeNotFound, "account %s not found", id)
	default:
		return nil, fmt.Errorf("directory get account %s: status %d", id, resp.StatusCode)
	}

	var acct domain.Account
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		return nil, fmt.Errorf("directory decode account %s: %w", id, err)
	}
	if acct.ID == "" {
		acct.ID = id
	}

	c.toCache(id, &acct)
	return &acct, nil
}

func (c *Client) fromCache(id string) (*domain.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cacheData[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.account, true
}

func (c *Client) toCache(id string, acct *domain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheData[id] = cacheEntry{account: acct, expiresAt: time.Now().Add(c.cacheTTL)}
}
