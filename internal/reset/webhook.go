// Package reset fires the external device reset, a webhook call to a home
// automation controller that power-cycles the router.
package reset

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// ErrRequestFailed wraps transport-level failures (DNS, connect, TLS, timeout).
var ErrRequestFailed = errors.New("reset webhook request failed")

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reset webhook returned %s", e.Status)
}

type Config struct {
	URL                string
	Timeout            time.Duration
	InsecureSkipVerify bool
	EnableHTTP2        bool
}

// Webhook implements monitor.ResetTrigger with a single POST per Fire.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(cfg Config) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, errors.New("reset webhook: url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, // controllers on the LAN usually have self-signed certs
		},
		TLSHandshakeTimeout: cfg.Timeout,
	}
	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("configure http2 transport: %w", err)
		}
	}

	return &Webhook{
		URL: cfg.URL,
		Client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}, nil
}

// Fire posts an empty body to the webhook. Only a 2xx response counts as success.
func (w *Webhook) Fire(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build reset request: %w", err)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode/100 != 2 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
