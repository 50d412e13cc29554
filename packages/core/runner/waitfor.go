package runner

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultWaitTimeout  = 30 * time.Second
	DefaultWaitInterval = 500 * time.Millisecond
)

// WaitFor describes a readiness probe polled before a test runs.
type WaitFor struct {
	URL      string
	Status   int
	Timeout  time.Duration
	Interval time.Duration
}

// WaitForService polls cfg.URL until it answers with the expected status,
// the timeout elapses or ctx is done.
func (r *Runner) WaitForService(ctx context.Context, cfg *WaitFor) error {
	if cfg == nil || cfg.URL == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	expectedStatus := cfg.Status
	if expectedStatus == 0 {
		expectedStatus = 200
	}

	r.logf("waiting for %s to return %d (timeout: %v, interval: %v)", cfg.URL, expectedStatus, timeout, interval)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	var lastStatus int
	for {
		resp, err := r.client.Get(ctx, cfg.URL, nil)
		if err != nil {
			lastErr = err
		} else {
			lastStatus = resp.StatusCode
			if resp.StatusCode == expectedStatus {
				r.logf("service %s is ready (status: %d)", cfg.URL, resp.StatusCode)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if lastErr != nil && lastStatus == 0 {
				return fmt.Errorf("service %s not ready after %v: %w", cfg.URL, timeout, lastErr)
			}
			return fmt.Errorf("service %s not ready after %v: got status %d, expected %d",
				cfg.URL, timeout, lastStatus, expectedStatus)
		case <-ticker.C:
		}
	}
}
