// Package remote talks to the purchase ledger and the profile store over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// ErrUnexpectedStatus is wrapped into errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ClientConfig configures an HTTP client.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	RetryMax int
	Timeout  time.Duration
	Log      logrus.FieldLogger
}

type client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
}

func newClient(cfg ClientConfig) client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.RetryMax
	hc.RetryWaitMin = 200 * time.Millisecond
	hc.RetryWaitMax = 2 * time.Second
	if cfg.Timeout > 0 {
		hc.HTTPClient.Timeout = cfg.Timeout
	}
	// A nil logger silences the default stderr output.
	hc.Logger = nil
	if cfg.Log != nil {
		hc.Logger = cfg.Log
	}

	return client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    hc,
	}
}

// do sends a request and returns the body of a 2xx response.
func (c client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, error) {
	var payload interface{}
	if body != nil {
		payload = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s %s: %w %d", method, path, ErrUnexpectedStatus, resp.StatusCode)
	}
	return data, nil
}
