package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnhealthy is returned when the API answered but did not report itself alive.
var ErrUnhealthy = errors.New("api unhealthy")

// Result is one probe of GET /health.
type Result struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Code    int           `json:"-"`
	Latency time.Duration `json:"-"`
	Raw     []byte        `json:"-"`
}

// Probe calls GET <baseURL>/health. Transport failures are returned as-is; a non-200
// answer, a body that is not JSON, or a status other than "OK" returns the result
// together with ErrUnhealthy.
func Probe(ctx context.Context, client *http.Client, baseURL string) (Result, error) {
	url := strings.TrimRight(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	res := Result{Code: resp.StatusCode, Latency: time.Since(start), Raw: raw}
	decodeErr := json.Unmarshal(raw, &res)

	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("%w: HTTP %d", ErrUnhealthy, resp.StatusCode)
	}
	if decodeErr != nil {
		return res, fmt.Errorf("%w: decode response: %v", ErrUnhealthy, decodeErr)
	}
	if res.Status != "OK" {
		return res, fmt.Errorf("%w: status %q", ErrUnhealthy, res.Status)
	}
	return res, nil
}
