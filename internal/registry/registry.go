// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry loads the COVID-19 treatment registry and the drug alias
// dictionary, and derives the inputs the mention counter and the clinical
// classifier need from them.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pdiddy/cord-engine/internal/httputil"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// DefaultURL is the public treatment registry endpoint.
const DefaultURL = "https://coviddashboard.eugenectang.com/api/treatments"

// response is the registry payload: {"data": {"raw": [...]}}.
type response struct {
	Data struct {
		Raw []types.Treatment `json:"raw"`
	} `json:"data"`
}

// Client fetches the treatment registry over HTTP.
type Client struct {
	HTTP *http.Client

	// URL defaults to DefaultURL.
	URL string

	UserAgent  string
	Token      string
	MaxRetries int
}

// NewClient returns a Client configured from cfg. token may be empty.
func NewClient(cfg types.RegistryConfig, token string) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		URL:        cfg.URL,
		UserAgent:  cfg.UserAgent,
		Token:      token,
		MaxRetries: cfg.MaxRetries,
	}
}

// Fetch downloads the registry. 429 and 503 responses are retried.
func (c *Client) Fetch(ctx context.Context) ([]types.Treatment, error) {
	u := c.URL
	if u == "" {
		u = DefaultURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, hc, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned HTTP %d", resp.StatusCode)
	}
	return decode(resp.Body)
}

// LoadFile reads a saved registry response from path.
func LoadFile(path string) ([]types.Treatment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening registry file: %w", err)
	}
	defer f.Close()

	t, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func decode(r io.Reader) ([]types.Treatment, error) {
	var resp response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("parsing registry response: %w", err)
	}
	return resp.Data.Raw, nil
}
