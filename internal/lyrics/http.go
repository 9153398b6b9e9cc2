package lyrics

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"karolbroda.com/lyrhaze/internal/config"
)

const maxBodyBytes = 4 << 20

// getBody performs a GET and returns the body of a 200 response. A 404
// maps to ErrNotFound, deadline errors to ErrTimeout.
func getBody(parent context.Context, client *http.Client, requestURL string) ([]byte, error) {
	if client == nil {
		client = HTTPClient()
	}

	ctx, cancel := context.WithTimeout(parent, config.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if isTimeoutError(err) && parent.Err() == nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
