package httpx

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/filehaven/filehaven/internal/config"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty bypass list
// always routes through the proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "")

	req, _ := http.NewRequest("GET", "https://files.example.com/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_WildcardDomain verifies *.example.com bypasses
// files.example.com.
func TestProxyFuncWithBypass_WildcardDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com")

	req, _ := http.NewRequest("GET", "https://files.example.com/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for files.example.com, got %v", result)
	}
}

// TestProxyFuncWithBypass_CIDR verifies IP/CIDR range matching.
func TestProxyFuncWithBypass_CIDR(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "10.0.0.0/8")

	req, _ := http.NewRequest("GET", "http://10.1.2.3:9000/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for 10.1.2.3, got %v", result)
	}
}

// TestProxyFuncWithBypass_NonMatchingHost verifies non-matching hosts route
// through the proxy.
func TestProxyFuncWithBypass_NonMatchingHost(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.internal.corp,10.0.0.0/8")

	req, _ := http.NewRequest("GET", "https://files.example.com/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL for files.example.com, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestBuildProxyURL verifies credentials are embedded only when both user
// and password are set.
func TestBuildProxyURL(t *testing.T) {
	cfg := &config.Config{ProxyHost: "proxy.corp", ProxyPort: 3128, ProxyUser: "svc"}
	u := buildProxyURL(cfg)
	if u.Host != "proxy.corp:3128" {
		t.Errorf("Host = %s, want proxy.corp:3128", u.Host)
	}
	if u.User != nil {
		t.Errorf("credentials embedded without password: %v", u.User)
	}

	cfg.ProxyPassword = "pw"
	u = buildProxyURL(cfg)
	if u.User == nil {
		t.Fatal("credentials not embedded with user and password set")
	}
	if name := u.User.Username(); name != "svc" {
		t.Errorf("proxy user = %s, want svc", name)
	}
}

// TestBuildProxyURLDefaultPort verifies a zero port falls back to 8080.
func TestBuildProxyURLDefaultPort(t *testing.T) {
	cfg := &config.Config{ProxyHost: "proxy.corp"}
	if u := buildProxyURL(cfg); u.Host != "proxy.corp:8080" {
		t.Errorf("Host = %s, want proxy.corp:8080", u.Host)
	}
}

// TestNeedsProxyPassword verifies prompting is only required for basic/ntlm
// modes with a user but no password.
func TestNeedsProxyPassword(t *testing.T) {
	tests := []struct {
		mode     string
		user     string
		password string
		want     bool
	}{
		{"no-proxy", "svc", "", false},
		{"system", "svc", "", false},
		{"basic", "", "", false},
		{"basic", "svc", "", true},
		{"basic", "svc", "pw", false},
		{"ntlm", "svc", "", true},
		{"NTLM", "svc", "", true},
	}

	for _, tt := range tests {
		cfg := &config.Config{ProxyMode: tt.mode, ProxyUser: tt.user, ProxyPassword: tt.password}
		if got := NeedsProxyPassword(cfg); got != tt.want {
			t.Errorf("NeedsProxyPassword(%s, user=%q, pw=%q) = %v, want %v", tt.mode, tt.user, tt.password, got, tt.want)
		}
	}
}

// TestConfigureHTTPClientRejectsBadMode verifies an unknown mode fails
// loudly rather than silently running direct.
func TestConfigureHTTPClientRejectsBadMode(t *testing.T) {
	cfg := &config.Config{ServerURL: "https://files.example.com", ProxyMode: "socks5"}
	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Fatal("ConfigureHTTPClient() accepted unsupported proxy mode")
	}
}
