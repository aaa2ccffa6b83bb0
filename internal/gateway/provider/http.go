package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sqlchat/internal/logger"
)

const (
	retryBase = 800 * time.Millisecond
	retryCap  = 8 * time.Second
)

// httpCaller posts JSON and retries 429/5xx with Retry-After or exponential backoff.
type httpCaller struct {
	client     *http.Client
	maxRetries int
	headers    map[string]string
	sleep      func(ctx context.Context, d time.Duration) error
}

func newHTTPCaller(timeout time.Duration, maxRetries int, headers map[string]string) *httpCaller {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &httpCaller{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		headers:    headers,
		sleep:      sleepCtx,
	}
}

func (h *httpCaller) post(ctx context.Context, url string, body []byte, errorPath string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt == 0 {
			logger.Debugf("[llm] POST %s headers=%v bytes=%d", url, maskHeaders(h.headers), len(body))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range h.headers {
			req.Header.Set(k, v)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("post %s: %w", url, err)
		}
		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read response: %w", readErr)
		}
		if resp.StatusCode/100 == 2 {
			return raw, nil
		}

		msg := strings.TrimSpace(gjson.GetBytes(raw, errorPath).String())
		if msg == "" {
			msg = resp.Status
		}
		lastErr = fmt.Errorf("status=%d: %s", resp.StatusCode, msg)
		if !retryable(resp.StatusCode) || attempt == h.maxRetries {
			break
		}
		wait := retryAfter(resp.Header.Get("Retry-After"))
		if wait == 0 {
			wait = backoff(attempt)
		}
		logger.Warnf("[llm] %s, retry %d/%d in %s", lastErr, attempt+1, h.maxRetries, wait)
		if err := h.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func backoff(attempt int) time.Duration {
	wait := retryBase << attempt
	if wait > retryCap || wait <= 0 {
		wait = retryCap
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// maskHeaders keeps the last four characters of anything that looks secret.
func maskHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "key") || strings.Contains(lk, "token") || strings.Contains(lk, "auth") {
			if len(v) > 4 {
				v = "****" + v[len(v)-4:]
			} else {
				v = "****"
			}
		}
		out[k] = v
	}
	return out
}
