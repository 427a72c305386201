// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retry policy shared by the registry client
// and the search index publisher.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps the wait honoured from a Retry-After header.
var MaxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 5

// RetryStatuses are the response codes worth retrying: 429 Too Many
// Requests and 503 Service Unavailable.
var RetryStatuses = []int{http.StatusTooManyRequests, http.StatusServiceUnavailable}

// Retryable reports whether a response status is in RetryStatuses.
func Retryable(status int) bool {
	return slices.Contains(RetryStatuses, status)
}

// backoff returns the wait before retry number attempt (0-based). A
// Retry-After header in seconds takes precedence over the exponential
// schedule RetryBaseDelay, 2x, 4x, and so on.
func backoff(resp *http.Response, attempt int) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			return min(time.Duration(secs)*time.Second, MaxRetryAfter)
		}
	}
	return Exponential(attempt)
}

// Exponential returns RetryBaseDelay doubled attempt times (0-based).
func Exponential(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}

// DoWithRetry executes an HTTP request and retries on 429 and 503
// responses with exponential backoff.
//
// When maxRetries is 0 the default (5) is used. On each retryable response
// the body is drained and closed before sleeping. If the context is
// cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last response is returned so the caller can
// inspect it. Requests with a body must set GetBody so it can be replayed.
// Retries are logged to the zerolog logger carried by ctx, if any.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := zerolog.Ctx(ctx)

	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := backoff(resp, attempt)
		log.Warn().
			Int("status", resp.StatusCode).
			Str("url", req.URL.Redacted()).
			Dur("backoff", wait).
			Msgf("retrying request (attempt %d/%d)", attempt+1, maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
