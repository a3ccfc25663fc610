package inventory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls an HTTP inventory service.
type Client struct {
	http *resty.Client
}

// NewClient builds a Client against the given base URL. The timeout here
// is a transport-level guard; the per-attempt budget is enforced by the
// caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

func (c *Client) Check(ctx context.Context, req Request) (Result, error) {
	var result Result

	// The verdict body is decoded into result on success and error
	// statuses alike: a 409 carries the out-of-stock reason the customer
	// notification needs.
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/reservations")
	if err != nil {
		return Result{}, fmt.Errorf("inventory request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusConflict:
		// The service reports exhausted stock as 409 with the verdict in
		// the body. Not retryable.
		if result.Status == "" {
			result.Status = StatusOutOfStock
		}
		return result, nil
	case resp.IsError():
		return Result{}, fmt.Errorf("inventory service returned %s", resp.Status())
	}

	if result.Status == "" {
		return Result{}, fmt.Errorf("inventory service returned no availability status")
	}
	return result, nil
}
