package probe

import (
	"context"
	"net"
	"time"
)

// TCPChecker opens and closes a TCP connection to host:port.
type TCPChecker struct {
	Dialer *net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{Dialer: &net.Dialer{Timeout: timeout}}
}

func (c *TCPChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	conn, err := c.Dialer.DialContext(ctx, "tcp", target)
	latency := sinceMS(start)
	if err != nil {
		return CheckResult{Name: "TCP", Success: false, Message: err.Error(), LatencyMS: latency}
	}
	_ = conn.Close()
	return CheckResult{Name: "TCP", Success: true, Message: "connected", LatencyMS: latency}
}
