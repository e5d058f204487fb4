package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carrier-gateway/internal/core/logger"
	"carrier-gateway/internal/core/proxy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggingRoundTripper verifies that requests are logged.
func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	logger.Init("development", "debug")

	client := NewClient(1 * time.Second)
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestLoggingRoundTripper_Error verifies that failed requests are logged.
func TestLoggingRoundTripper_Error(t *testing.T) {
	logger.Init("development", "debug")

	client := NewClient(1 * time.Second)
	_, err := client.Get("http://invalid-url-that-does-not-exist.local")
	require.Error(t, err)
}

// TestNewClientWithProxy_Disabled verifies the direct-client fallback.
func TestNewClientWithProxy_Disabled(t *testing.T) {
	client := NewClientWithProxy(1*time.Second, proxy.Settings{})
	require.NotNil(t, client)

	lrt, ok := client.Transport.(*LoggingRoundTripper)
	require.True(t, ok)
	assert.Equal(t, http.DefaultTransport, lrt.Proxied)
}

// TestNewClientWithProxy_Enabled verifies the proxy is wired into the transport.
func TestNewClientWithProxy_Enabled(t *testing.T) {
	settings := proxy.Settings{
		Enabled:  true,
		Hostname: "egress.internal",
		Port:     3128,
	}

	client := NewClientWithProxy(1*time.Second, settings)
	require.NotNil(t, client)

	lrt, ok := client.Transport.(*LoggingRoundTripper)
	require.True(t, ok)

	transport, ok := lrt.Proxied.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.Proxy)

	req := httptest.NewRequest(http.MethodGet, "http://provider.test/orders", nil)
	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "egress.internal:3128", proxyURL.Host)
}
