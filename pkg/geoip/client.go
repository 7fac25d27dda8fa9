// Package geoip resolves an IP address to a country via an external
// ip-api.com style lookup service.
package geoip

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"
)

type Resolver interface {
	Lookup(ctx context.Context, ip string) (string, error)
}

type Client struct {
	http    *req.Client
	baseURL string
}

type lookupResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	Message string `json:"message"`
}

// NewClient builds a lookup client. The timeout bounds the whole call so a
// slow third party never stalls click recording.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	httpClient := req.C().
		SetTimeout(timeout).
		SetUserAgent("shortlink")
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
	}
}

// Lookup returns the country for ip, or "Unknown" when the response carries
// no country. Network errors, timeouts and non-success statuses are returned
// as errors; the caller decides how to degrade.
func (c *Client) Lookup(ctx context.Context, ip string) (string, error) {
	var body lookupResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetSuccessResult(&body).
		Get(c.baseURL + "/" + ip)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccessState() {
		return "", fmt.Errorf("geo lookup: unexpected status %d", resp.StatusCode)
	}
	if body.Status == "fail" {
		return "", fmt.Errorf("geo lookup: %s", body.Message)
	}
	if body.Country == "" {
		return "Unknown", nil
	}
	return body.Country, nil
}
