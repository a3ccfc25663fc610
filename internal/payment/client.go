package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls an HTTP payment service.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

func (c *Client) Authorize(ctx context.Context, req Request) (Result, error) {
	var result Result

	// The verdict body is decoded into result on success and error
	// statuses alike: a 402 carries the decline code and message the
	// customer notification needs.
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/authorizations")
	if err != nil {
		return Result{}, fmt.Errorf("payment request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusPaymentRequired:
		// Declines arrive as 402 with the verdict in the body. Not retryable.
		if result.Status == "" {
			result.Status = StatusDeclined
		}
		return result, nil
	case resp.IsError():
		return Result{}, fmt.Errorf("payment service returned %s", resp.Status())
	}

	if result.Status == "" {
		return Result{}, fmt.Errorf("payment service returned no status")
	}
	return result, nil
}
