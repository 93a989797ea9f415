package singleinstance

import (
	"context"
	"time"
)

const (
	pingTimeout    = 300 * time.Millisecond
	requestTimeout = 2 * time.Second
)

// DetectResidentPort scans the port range and returns (port, true) for the
// first port whose listener answers PING.
func DetectResidentPort(ctx context.Context) (int, bool) {
	timeout := timeoutFrom(ctx, pingTimeout)
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if resp, err := exchange(port, cmdPing, timeout); err == nil && resp == respPong {
			return port, true
		}
	}
	return 0, false
}

// timeoutFrom uses the time left on ctx, or def when ctx has no deadline.
func timeoutFrom(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return def
}
