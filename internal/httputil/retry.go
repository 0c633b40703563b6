// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/logger"
)

// RetryPolicy controls how DoWithRetry backs off on HTTP 429.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero uses DefaultRetryPolicy.MaxRetries.
	MaxRetries int

	// BaseDelay is the wait before the first retry. Zero uses
	// DefaultRetryPolicy.BaseDelay.
	BaseDelay time.Duration

	// Exponential doubles the delay after each retry; otherwise every
	// retry waits BaseDelay.
	Exponential bool
}

// DefaultRetryPolicy matches the arXiv API guidance of a few seconds between
// requests after being rate limited.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BaseDelay: 3 * time.Second}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultRetryPolicy.MaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	return p
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if !p.Exponential {
		return p.BaseDelay
	}
	return p.BaseDelay << attempt
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) according to policy.
//
// On each 429 the response body is drained and closed before sleeping. If the
// context is cancelled during a backoff wait the function returns ctx.Err().
// After exhausting retries the last 429 response is returned so the caller can
// inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	policy = policy.normalized()

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		if attempt >= policy.MaxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := policy.delay(attempt)
		logger.Warn(ctx, "rate limited, retrying",
			zap.String("url", req.URL.String()),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", policy.MaxRetries),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
