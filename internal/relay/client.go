package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls a relay endpoint. It satisfies the loader's Relay interface.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for the relay at endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 45 * time.Second},
	}
}

// Fetch asks the relay for the image at imageURL and returns the data URI.
// Any relay-side error is returned as an error, which callers treat the
// same as a direct load failure.
func (c *Client) Fetch(ctx context.Context, imageURL string) (string, error) {
	body, err := json.Marshal(relayRequest{ImageURL: imageURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode relay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || decoded.Error != "" {
		if decoded.Error == "" {
			decoded.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return "", fmt.Errorf("relay error: %s", decoded.Error)
	}

	return decoded.DataURL, nil
}
