package probe

import (
	"context"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

// Check issues a GET and reports online iff the status code is in [200,300).
func (h *HTTPChecker) Check(ctx context.Context, target string) Outcome {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Online: false, Reason: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return Outcome{Online: false, Reason: err.Error(), LatencyMS: latency}
	}
	defer resp.Body.Close()

	online := resp.StatusCode >= 200 && resp.StatusCode < 300
	return Outcome{
		Online:    online,
		LatencyMS: latency,
		Reason:    resp.Status,
	}
}
