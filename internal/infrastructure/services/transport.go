package services

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"k8s.io/klog/v2"
)

const defaultRequestTimeout = 60 * time.Second

// ClientOptions configures the HTTP client talking to the photo server
type ClientOptions struct {
	APIKey      string
	AccessToken string
	Timeout     time.Duration
	RetryMax    int
}

// Transport adds the photo server's API key and JSON headers to every request,
// retries replayable requests a bounded number of times on transport errors
// and traces requests at klog verbosity 2.
type Transport struct {
	Base http.RoundTripper

	APIKey string

	// RetryMax is the number of retries after the first attempt; 0 disables retrying
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Only bodiless GET/HEAD requests are replayed
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if t.APIKey != "" {
			r.Header.Set("x-api-key", t.APIKey)
		}
		if r.Header.Get("accept") == "" {
			r.Header.Set("accept", "application/json")
		}

		start := time.Now()
		klog.V(2).Infof("🔵 %s %s", r.Method, r.URL.RequestURI())

		resp, err := base.RoundTrip(r)
		if err == nil {
			klog.V(2).Infof("%s %s %s - %d - %v", statusEmoji(resp.StatusCode), r.Method, r.URL.Path, resp.StatusCode, time.Since(start))
			return resp, nil
		}

		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
		if attempt < max {
			klog.V(1).Infof("🔄 retrying %s %s after error: %v", r.Method, r.URL.Path, err)
		}
	}
	return nil, lastErr
}

func statusEmoji(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "✅"
	case statusCode >= 300 && statusCode < 400:
		return "🔄"
	case statusCode >= 400 && statusCode < 500:
		return "⚠️"
	default:
		return "❌"
	}
}

// NewHTTPClient builds the client used by the Immich adapter. A bearer access
// token, when set, is attached through an oauth2 transport on top of the API key.
func NewHTTPClient(opts ClientOptions) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConnsPerHost:   4,
	}

	var rt http.RoundTripper = &Transport{Base: base, APIKey: opts.APIKey, RetryMax: opts.RetryMax}

	if opts.AccessToken != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"}),
			Base:   rt,
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{Transport: rt, Timeout: timeout}
}
