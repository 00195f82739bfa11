package fallback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("fallback form endpoint not configured")

const (
	FormBooking = "consultation-booking"
	FormContact = "contact-form"
)

// Client posts a submission to the static form-processing endpoint when the
// primary store cannot take it.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
	}
}

// Submit sends fields URL-encoded with form-name set. Any 2xx is success.
func (c *Client) Submit(ctx context.Context, formName string, fields map[string]string) error {
	if c == nil || c.endpoint == "" {
		return ErrNotConfigured
	}

	values := url.Values{}
	values.Set("form-name", formName)
	for k, v := range fields {
		values.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("fallback: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fallback: post %s: %w", formName, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fallback: post %s: unexpected status %d", formName, resp.StatusCode)
	}
	return nil
}
