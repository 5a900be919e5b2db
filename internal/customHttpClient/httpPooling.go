package customHttpClient

import (
	"net"
	"net/http"
	"time"

	"github.com/akolanti/vellum/internal/config"
)

// one transport for every outbound http dependency so keep-alive pools are shared
var customTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewPooledClient returns a client on the shared transport. A zero timeout
// leaves the deadline to the request context.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
