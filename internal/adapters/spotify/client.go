// Package spotify resolves track display metadata through the Spotify Web API.
package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
)

const (
	DefaultBaseURL  = "https://api.spotify.com/v1"
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	// maxBatchSize is the Spotify limit for GET /tracks?ids=.
	maxBatchSize = 50
)

// Client is an HTTP client for the Spotify adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      retryPolicy
}

// compile-time interface assertion
var _ ports.MetadataProvider = (*Client)(nil)

// Options configures a Client.
type Options struct {
	BaseURL string
	// RequestsPerSecond caps outgoing calls; zero means unlimited.
	RequestsPerSecond float64
	// MaxRetries is the total number of attempts per request; zero uses DefaultMaxRetries.
	MaxRetries int
	// BaseBackoff is the first retry delay; zero uses DefaultBackoff.
	BaseBackoff time.Duration
}

// NewClient constructs a new Spotify client. httpClient is expected to
// attach authorization; nil falls back to http.DefaultClient.
func NewClient(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limiter:    limiter,
		retry:      newRetryPolicy(opts.MaxRetries, opts.BaseBackoff),
	}
}

// NewClientCredentialsClient authenticates with the client-credentials flow.
// The token is fetched lazily and refreshed by the returned client.
func NewClientCredentialsClient(clientID, clientSecret, tokenURL string, timeout time.Duration, opts Options) *Client {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := cfg.Client(context.Background())
	httpClient.Timeout = timeout
	return NewClient(httpClient, opts)
}
