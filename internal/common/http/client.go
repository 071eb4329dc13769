// internal/common/http/client.go
package http

import (
	"net"
	"net/http"
	"time"
)

// Client is the outbound HTTP client shared by the language-model providers.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Standard exposes the underlying *http.Client for SDKs that take one.
func (c *Client) Standard() *http.Client {
	return c.httpClient
}
