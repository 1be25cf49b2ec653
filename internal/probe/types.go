package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CheckResult holds the outcome of a single probe
type CheckResult struct {
	Name       string  `json:"name"`
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	StatusCode int     `json:"status_code,omitempty"` // HTTP only; 0 on transport errors
	LatencyMS  float64 `json:"latency_ms,omitempty"`
}

// Checker is implemented by any reachability check (TCP, HTTP, DNS)
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}

var ErrUnknownMode = errors.New("unknown probe mode")

// NewChecker builds the checker for mode: "tcp", "http" or "dns".
func NewChecker(mode string, timeout time.Duration) (Checker, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "tcp":
		return NewTCPChecker(timeout), nil
	case "http":
		return NewHTTPChecker(timeout), nil
	case "dns":
		return NewDNSChecker(timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func sinceMS(start time.Time) float64 {
	return time.Since(start).Seconds() * 1000
}
