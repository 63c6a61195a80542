// Package purpleair implements the read-only client for the PurpleAir v1
// sensor API.
package purpleair

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FetchErrorKind distinguishes the two ways a fetch can fail.
type FetchErrorKind int

const (
	// BadStatus marks a response outside the 2xx range.
	BadStatus FetchErrorKind = iota
	// BadBody marks a 2xx response whose body could not be decoded.
	BadBody
)

// FetchError is returned by Fetch when the API response cannot be trusted.
// The poll loop reacts to either kind by clearing all exported metrics.
type FetchError struct {
	Kind   FetchErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == BadStatus {
		return fmt.Sprintf("unexpected status %d from purpleair", e.Status)
	}
	return fmt.Sprintf("decode purpleair payload: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches sensor records from the PurpleAir API.
type Client struct {
	baseURL    string
	readAPIKey string
	http       *http.Client
}

// NewClient builds a client for the given API base URL and read key.
func NewClient(baseURL, readAPIKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		readAPIKey: readAPIKey,
		http:       &http.Client{Timeout: timeout},
	}
}

// Fetch performs one request/response cycle for a parent sensor. A non-empty
// privateKey selects the read-key-qualified request variant used for private
// sensors.
func (c *Client) Fetch(ctx context.Context, parentSensorID, privateKey string) ([]RawSensorRecord, error) {
	endpoint := fmt.Sprintf("%s/sensors/%s", c.baseURL, url.PathEscape(parentSensorID))
	if privateKey != "" {
		endpoint += "?read_key=" + url.QueryEscape(privateKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.readAPIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request sensor %s: %w", parentSensorID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: BadStatus, Status: resp.StatusCode}
	}

	var payload SensorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Kind: BadBody, Err: err}
	}

	return payload.Sensors, nil
}
