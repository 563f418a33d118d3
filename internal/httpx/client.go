// Package httpx builds the HTTP client shared by all API calls: proxy
// support, TLS floor, connection pooling, and HTTP/2.
package httpx

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/filehaven/filehaven/internal/config"
)

// Transport timeouts. Tuned for file transfers over slow links: the overall
// client timeout stays unset so long uploads are bounded by context, not a
// wall clock.
const (
	dialTimeout           = 30 * time.Second
	dialKeepAlive         = 30 * time.Second
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 30 * time.Second
	expectContinueTimeout = 5 * time.Second
)

// newBaseTransport returns the transport all proxy modes start from.
func newBaseTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: dialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
	}
}

// ConfigureHTTPClient builds an HTTP client honoring the proxy settings in
// cfg. HTTP/2 is enabled where the transport allows it (NTLM mode wraps the
// transport, so the upgrade is skipped there).
func ConfigureHTTPClient(cfg *config.Config) (*http.Client, error) {
	client, err := configureProxy(cfg)
	if err != nil {
		return nil, err
	}

	if tr, ok := client.Transport.(*http.Transport); ok {
		// Ignore failure: the client still works over HTTP/1.1.
		_ = http2.ConfigureTransport(tr)
	}

	return client, nil
}
