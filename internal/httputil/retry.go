// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil holds the retry loop used for NCBI E-utilities requests.
package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay is the first backoff interval; each further attempt doubles
// it. Tests shrink it.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After may make us wait.
var MaxRetryAfter = time.Minute

const defaultMaxRetries = 3

// Retryable reports whether a status code means "try again later". E-utilities
// answers 429 when the per-second quota is exceeded and 503 under load.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry sends req and retries while the response status is Retryable.
// The wait is the Retry-After header when the server sends one (seconds or an
// HTTP date, capped at MaxRetryAfter), otherwise RetryBaseDelay << attempt.
//
// Transport errors and log lines carry the URL with SecretParams masked.
// maxRetries <= 0 selects the default of 3. Bodies of discarded responses are
// drained and closed. Cancelling ctx during a wait returns ctx.Err(). Once the
// retries are used up the last response is returned unchanged for the caller
// to inspect.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, logger *zap.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, RedactError(err)
		}
		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(resp.Header.Get("Retry-After"), attempt, time.Now())
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.Warn("throttled, retrying",
			zap.String("url", Redact(req.URL)),
			zap.Int("status", resp.StatusCode),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// SecretParams are the query parameters Redact masks.
var SecretParams = []string{"api_key"}

// Redact returns u as a string with the values of SecretParams and any
// userinfo password replaced. u is not modified.
func Redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	q := c.Query()
	masked := false
	for _, name := range SecretParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			masked = true
		}
	}
	if masked {
		c.RawQuery = q.Encode()
	}
	return c.Redacted()
}

// RedactError strips secrets from the URL carried by a *url.Error, as
// returned by http.Client.Do. Other errors are returned unchanged.
func RedactError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		return &url.Error{Op: ue.Op, URL: "[unparseable url]", Err: ue.Err}
	}
	return &url.Error{Op: ue.Op, URL: Redact(u), Err: ue.Err}
}

func backoff(retryAfter string, attempt int, now time.Time) time.Duration {
	if d, ok := parseRetryAfter(retryAfter, now); ok {
		return min(d, MaxRetryAfter)
	}
	return RetryBaseDelay << attempt
}

// parseRetryAfter accepts both forms allowed by RFC 9110: delay-seconds and
// an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	at, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	d := at.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}
