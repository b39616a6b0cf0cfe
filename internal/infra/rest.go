package infra

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"profit_go/internal/domain"

	"github.com/go-resty/resty/v2"
)

// NewRestClient returns a resty client for one upstream API.
// Retries are left to the supervisor so that order submission is never replayed.
func NewRestClient(baseURL string, timeout time.Duration) *resty.Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", DefaultUserAgent)
}

// CheckResponse maps a resty result to the domain error taxonomy.
// Transport failures, 429 and 5xx are unavailable. Other 4xx are rejections when
// rejectClientErrors is set (order endpoints) and unavailable otherwise.
func CheckResponse(op string, resp *resty.Response, err error, rejectClientErrors bool) error {
	if err != nil {
		return domain.NewNetworkError(op, err)
	}
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return domain.NewNetworkError(op, fmt.Errorf("status %d: %s", code, truncateBody(resp.Body())))
	case rejectClientErrors:
		return domain.NewRejectedError(op, fmt.Sprintf("status %d: %s", code, truncateBody(resp.Body())))
	default:
		return domain.NewFatalNetworkError(op, fmt.Errorf("status %d: %s", code, truncateBody(resp.Body())))
	}
}

func truncateBody(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
