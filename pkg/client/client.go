// Package client is a thin convenience wrapper for CLI tools to call the
// hostd daemon's JSON API over a Unix-domain socket. It re-exports the
// DTOs from pkg/api so callers get strongly-typed results instead of
// generic maps.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/lc/hostd/pkg/api"
)

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // dummy scheme+host for Request.URL (http://unix)
}

// New returns a Client that dials the given Unix-domain socket path.
func New(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return (&net.Dialer{}).DialContext(ctx, "unix", socketPath)
	}
	tr := &http.Transport{DialContext: dial}
	return &Client{hc: &http.Client{Transport: tr}, base: "http://unix"}
}

// --------------------------- commands ------------------------------

// Resolve asks the daemon to resolve a hostname or address literal to a
// full host entry.
func (c *Client) Resolve(ctx context.Context, host string) (api.HostResponse, error) {
	var out api.HostResponse
	err := c.post(ctx, "/v1/resolve", api.ResolveRequest{Host: host}, &out)
	return out, err
}

// ResolveOne asks the daemon for just the first resolved address.
func (c *Client) ResolveOne(ctx context.Context, host string) (api.AddressResponse, error) {
	var out api.AddressResponse
	err := c.post(ctx, "/v1/resolve/one", api.ResolveRequest{Host: host}, &out)
	return out, err
}

// Self resolves the daemon host's own name.
func (c *Client) Self(ctx context.Context) (api.HostResponse, error) {
	var out api.HostResponse
	err := c.get(ctx, "/v1/self", &out)
	return out, err
}

// Flush empties the daemon's resolution cache.
func (c *Client) Flush(ctx context.Context) error {
	return c.post(ctx, "/v1/flush", nil, nil)
}

// Status retrieves the current status of the daemon: cache size, hit and
// miss counts, uptime, and version.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.get(ctx, "/v1/status", &out)
	return out, err
}

// Cache retrieves the daemon's cached entries.
func (c *Client) Cache(ctx context.Context) ([]api.CacheEntry, error) {
	var out []api.CacheEntry
	err := c.get(ctx, "/v1/cache", &out)
	return out, err
}

// --------------------------- HTTP helpers --------------------------

func (c *Client) post(ctx context.Context, path string, payload, v any) error {
	var body *bytes.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError turns a non-2xx response into an error, preferring the typed
// body the daemon sends for resolution failures.
func apiError(resp *http.Response) error {
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("daemon: %s", body.Error)
	}
	return fmt.Errorf("daemon returned %s", resp.Status)
}
