package dexscreener

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ossy/internal/adapters/config"
	"ossy/internal/adapters/ratelimit"
	"ossy/internal/domain/token"
	"ossy/internal/metrics"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

const (
	boostsPath = "/token-boosts/top/v1"
	pairsPath  = "/latest/dex/tokens/"

	// Endpoint families, used as limiter keys and metric labels
	EndpointBoosts = "boosts"
	EndpointPairs  = "pairs"

	maxBodyBytes = 4 << 20
)

// pairsResponse is the envelope of the pair detail endpoint
type pairsResponse struct {
	SchemaVersion string            `json:"schemaVersion"`
	Pairs         []token.TokenPair `json:"pairs"`
}

// Client calls the public DexScreener API. It holds no business logic and
// never retries.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiters   *ratelimit.MultiLimiter
	log        *logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the client logger
func WithLogger(l *logger.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// NewClient creates a DexScreener client with one limiter per endpoint family
func NewClient(cfg config.DexScreenerConfig, opts ...Option) *Client {
	limiters := ratelimit.NewMultiLimiter()
	limiters.AddLimiter(EndpointBoosts, ratelimit.NewLimiter("dexscreener-boosts", cfg.BoostsRPM))
	limiters.AddLimiter(EndpointPairs, ratelimit.NewLimiter("dexscreener-pairs", cfg.PairsRPM))

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiters:   limiters,
		log:        logger.Get().With("component", "dexscreener"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListBoosted returns the current "top boosted" token list
func (c *Client) ListBoosted(ctx context.Context) ([]token.BoostedCandidate, error) {
	var candidates []token.BoostedCandidate
	if err := c.get(ctx, EndpointBoosts, c.baseURL+boostsPath, &candidates); err != nil {
		return nil, errors.Wrap(err, "list boosted tokens")
	}

	c.log.Debugw("Fetched boosted tokens", "count", len(candidates))
	return candidates, nil
}

// GetPairDetail returns the first trading pair listed for a token address.
// A token without pairs yields (nil, nil).
func (c *Client) GetPairDetail(ctx context.Context, tokenAddress string) (*token.TokenPair, error) {
	tokenAddress = strings.TrimSpace(tokenAddress)
	if tokenAddress == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty token address")
	}

	var resp pairsResponse
	if err := c.get(ctx, EndpointPairs, c.baseURL+pairsPath+url.PathEscape(tokenAddress), &resp); err != nil {
		return nil, errors.Wrapf(err, "get pair detail for %s", tokenAddress)
	}

	if len(resp.Pairs) == 0 {
		return nil, nil
	}

	pair := resp.Pairs[0]
	return &pair, nil
}

func (c *Client) get(ctx context.Context, endpoint, rawURL string, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordDexScreenerCall(endpoint, status, time.Since(start))
	}()

	if err := c.limiters.Wait(ctx, endpoint); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(errors.Mark(err, errors.ErrUnavailable), "request %s", endpoint)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		status = "rate_limited"
		return errors.Wrapf(errors.ErrRateLimitExceeded, "%s: status %d", endpoint, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(body, 256))
		return errors.Wrapf(errors.ErrUnavailable, "%s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return errors.Wrapf(errors.Mark(err, errors.ErrExternal), "decode %s response", endpoint)
	}

	status = "success"
	return nil
}
