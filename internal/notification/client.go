package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls an HTTP notification service.
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

func (c *Client) Send(ctx context.Context, req Request) (Result, error) {
	var result Result
	var apiErr map[string]any

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post("/notifications")
	if err != nil {
		return Result{}, fmt.Errorf("notification request: %w", err)
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("notification service returned %s", resp.Status())
	}

	if result.Type == "" {
		result.Type = req.Type
	}
	if result.Status == "" {
		result.Status = StatusSent
	}
	return result, nil
}
