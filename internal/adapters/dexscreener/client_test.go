package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ossy/internal/adapters/config"
	"ossy/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.DexScreenerConfig{
		BaseURL:        srv.URL + "/",
		UserAgent:      "ossy-test",
		RequestTimeout: 2 * time.Second,
		BoostsRPM:      6000,
		PairsRPM:       6000,
	})
}

func TestListBoosted(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-boosts/top/v1", r.URL.Path)
		assert.Equal(t, "ossy-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"url":"https://dexscreener.com/solana/a","chainId":"solana","tokenAddress":"A","amount":100,"totalAmount":500,"description":"first"},
			{"url":"https://dexscreener.com/base/b","chainId":"base","tokenAddress":"B","amount":10,"totalAmount":10}
		]`))
	}))

	got, err := c.ListBoosted(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "solana", got[0].ChainID)
	assert.Equal(t, "A", got[0].TokenAddress)
	assert.Equal(t, 100.0, got[0].Amount)
	assert.Equal(t, 500.0, got[0].TotalAmount)
	assert.Equal(t, "first", got[0].Description)
	assert.Equal(t, "B", got[1].TokenAddress)
}

func TestListBoosted_ServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))

	_, err := c.ListBoosted(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Contains(t, err.Error(), "status 500")
}

func TestListBoosted_RateLimited(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.ListBoosted(context.Background())
	assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)
}

func TestListBoosted_MalformedBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))

	_, err := c.ListBoosted(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExternal)
}

func TestGetPairDetail_FirstPair(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/So1aNa", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"schemaVersion":"1.0.0",
			"pairs":[
				{
					"chainId":"solana","dexId":"raydium","url":"https://dexscreener.com/solana/pair1","pairAddress":"pair1",
					"baseToken":{"address":"So1aNa","name":"Ossy","symbol":"OSY"},
					"priceUsd":"0.0421",
					"liquidity":{"usd":250000.5,"base":1,"quote":2},
					"volume":{"h24":1234567.5,"h6":100},
					"priceChange":{"h24":-4.2},
					"marketCap":4500000,
					"pairCreatedAt":1699000000000,
					"info":{"websites":[{"label":"Website","url":"https://ossy.example"}],"socials":[{"type":"twitter","url":"https://x.com/ossy"}]}
				},
				{"chainId":"solana","dexId":"orca","pairAddress":"pair2","baseToken":{"symbol":"OSY"}}
			]
		}`))
	}))

	pair, err := c.GetPairDetail(context.Background(), "So1aNa")
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.Equal(t, "pair1", pair.PairAddress)
	assert.Equal(t, "raydium", pair.DexID)
	liq, ok := pair.LiquidityUSD()
	assert.True(t, ok)
	assert.Equal(t, 250000.5, liq)
	vol, ok := pair.Volume24h()
	assert.True(t, ok)
	assert.Equal(t, 1234567.5, vol)
	created, ok := pair.CreatedAtMs()
	assert.True(t, ok)
	assert.Equal(t, int64(1699000000000), created)
	require.NotNil(t, pair.Info)
	assert.Equal(t, "twitter", pair.Info.Socials[0].Kind())
}

func TestGetPairDetail_NoPairs(t *testing.T) {
	for _, body := range []string{`{"schemaVersion":"1.0.0","pairs":null}`, `{"schemaVersion":"1.0.0","pairs":[]}`} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		pair, err := c.GetPairDetail(context.Background(), "nothing")
		require.NoError(t, err)
		assert.Nil(t, pair)
	}
}

func TestGetPairDetail_EmptyAddress(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := c.GetPairDetail(context.Background(), "  ")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestGetPairDetail_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetPairDetail(ctx, "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}
