package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"buypulse/internal/model"
)

// Client answers buyer holding-duration questions against the Uniswap V3
// subgraph.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
}

// NewClient builds a subgraph client. url is the fully-keyed subgraph
// endpoint.
func NewClient(url string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Subgraph",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
		now:        time.Now,
	}
}

// Stats classifies the buyer's holding history for one token/pool pair.
// Returns nil when the subgraph has no swap history for the buyer.
func (c *Client) Stats(ctx context.Context, buyer, token, pool string, isBaseToken0 bool) (*model.HoldingStats, error) {
	lastSale, err := c.firstSwap(ctx, lastSaleQuery(isBaseToken0), buyer, token, pool, 0)
	if err != nil {
		return nil, err
	}
	if lastSale != nil {
		rebuy, err := c.firstSwap(ctx, buyAfterLastSaleQuery(isBaseToken0), buyer, token, pool, lastSale.timestamp)
		if err != nil {
			return nil, err
		}
		if rebuy != nil {
			return &model.HoldingStats{HeldForDays: c.daysSince(lastSale.timestamp), HasSold: true}, nil
		}
	}

	firstBuy, err := c.firstSwap(ctx, firstBuyQuery(isBaseToken0), buyer, token, pool, 0)
	if err != nil {
		return nil, err
	}
	if firstBuy == nil {
		return nil, nil
	}
	return &model.HoldingStats{HeldForDays: c.daysSince(firstBuy.timestamp)}, nil
}

func (c *Client) daysSince(timestamp int64) int {
	elapsed := c.now().Unix() - timestamp
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (60 * 60 * 24))
}

// querySides returns the subgraph fields naming the tracked-token side of
// the pool. When base is token0 the tracked token is token1, and vice versa.
func querySides(isBaseToken0 bool) (tokenField, amountField string) {
	if isBaseToken0 {
		return "token1", "amount1"
	}
	return "token0", "amount0"
}

func lastSaleQuery(isBaseToken0 bool) string {
	tokenField, amountField := querySides(isBaseToken0)
	return fmt.Sprintf(`query GetLatestSell($address: String!, $token: String!, $pool: String!) {
  swaps(
    where: {origin: $address, %s: $token, pool: $pool, %s_gt: "0"}
    orderBy: timestamp
    orderDirection: desc
    first: 1
  ) { timestamp }
}`, tokenField, amountField)
}

func firstBuyQuery(isBaseToken0 bool) string {
	tokenField, amountField := querySides(isBaseToken0)
	return fmt.Sprintf(`query GetLatestBuy($address: String!, $token: String!, $pool: String!) {
  swaps(
    where: {origin: $address, %s: $token, pool: $pool, %s_lt: "0"}
    orderBy: timestamp
    orderDirection: asc
    first: 1
  ) { timestamp }
}`, tokenField, amountField)
}

func buyAfterLastSaleQuery(isBaseToken0 bool) string {
	tokenField, amountField := querySides(isBaseToken0)
	return fmt.Sprintf(`query GetBuyAfterLastSale($address: String!, $token: String!, $pool: String!, $timestamp: BigInt!) {
  swaps(
    where: {origin: $address, %s: $token, pool: $pool, %s_lt: "0", timestamp_gt: $timestamp}
    orderBy: timestamp
    orderDirection: asc
    first: 1
  ) { timestamp }
}`, tokenField, amountField)
}

type swapRow struct {
	timestamp int64
}

type graphResponse struct {
	Data struct {
		Swaps []struct {
			Timestamp string `json:"timestamp"`
		} `json:"swaps"`
	} `json:"data"`
}

func (c *Client) firstSwap(ctx context.Context, query, buyer, token, pool string, timestamp int64) (*swapRow, error) {
	variables := map[string]interface{}{
		"address": strings.ToLower(buyer),
		"token":   strings.ToLower(token),
		"pool":    strings.ToLower(pool),
	}
	if timestamp > 0 {
		variables["timestamp"] = strconv.FormatInt(timestamp, 10)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("query swaps: %w", err)
	}

	var decoded graphResponse
	if err := json.Unmarshal(body.([]byte), &decoded); err != nil {
		return nil, fmt.Errorf("decode swaps: %w", err)
	}
	if len(decoded.Data.Swaps) == 0 {
		return nil, nil
	}

	ts, err := strconv.ParseInt(decoded.Data.Swaps[0].Timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	return &swapRow{timestamp: ts}, nil
}

func (c *Client) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return body, nil
}
