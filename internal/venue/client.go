// Package venue wraps the Jupiter v6 swap aggregator: price quotes for
// a token pair and construction of ready-to-sign swap transactions.
package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solana-rebalancer/internal/observability"
)

// Endpoints and defaults for the Jupiter v6 API.
const (
	DefaultBaseURL     = "https://quote-api.jup.ag/v6"
	DefaultSlippageBps = 50
	DefaultTimeout     = 30 * time.Second
)

var (
	// ErrQuoteUnavailable is returned when no route exists for a pair
	// or the quote endpoint cannot be reached.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrSubmissionFailed is returned when the venue cannot build a
	// swap transaction for a quote.
	ErrSubmissionFailed = errors.New("swap construction failed")
)

// Quote is a priced route for swapping an exact input amount.
type Quote struct {
	InputMint  string
	OutputMint string
	// InAmount and OutAmount are base-unit amounts.
	InAmount  uint64
	OutAmount uint64
	// raw is the venue's quote payload, passed back verbatim when
	// requesting the swap transaction.
	raw json.RawMessage
}

// Client requests quotes and swap transactions from the venue.
type Client struct {
	baseURL     string
	client      *http.Client
	slippageBps int
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the venue API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithSlippageBps sets the slippage tolerance in basis points.
func WithSlippageBps(bps int) Option {
	return func(c *Client) {
		c.slippageBps = bps
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new venue client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		slippageBps: DefaultSlippageBps,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// quotePayload is the subset of the venue's quote response we read.
// The full payload is retained for the swap request.
type quotePayload struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// GetQuote requests a route quote for swapping amount base units of
// inputMint into outputMint.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64) (*Quote, error) {
	started := time.Now()
	defer func() {
		observability.RecordVenueCall("quote", time.Since(started).Seconds())
	}()

	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(c.slippageBps))

	reqURL := c.baseURL + "/quote?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrQuoteUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s -> %s: status %d: %s",
			ErrQuoteUnavailable, inputMint, outputMint, resp.StatusCode, string(body))
	}

	var payload quotePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: unmarshal quote: %v", ErrQuoteUnavailable, err)
	}

	inAmount, err := strconv.ParseUint(payload.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad inAmount %q", ErrQuoteUnavailable, payload.InAmount)
	}
	outAmount, err := strconv.ParseUint(payload.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad outAmount %q", ErrQuoteUnavailable, payload.OutAmount)
	}

	return &Quote{
		InputMint:  payload.InputMint,
		OutputMint: payload.OutputMint,
		InAmount:   inAmount,
		OutAmount:  outAmount,
		raw:        json.RawMessage(body),
	}, nil
}

// swapRequest is the venue's swap construction request.
type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

// swapResponse is the venue's swap construction response.
type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// BuildSwapTransaction asks the venue to assemble an unsigned swap
// transaction for the quote, payable by userPublicKey. The result is a
// base64-encoded serialized transaction awaiting the user's signature.
func (c *Client) BuildSwapTransaction(ctx context.Context, quote *Quote, userPublicKey string) (string, error) {
	started := time.Now()
	defer func() {
		observability.RecordVenueCall("swap", time.Since(started).Seconds())
	}()

	reqBody, err := json.Marshal(swapRequest{
		QuoteResponse:    quote.raw,
		UserPublicKey:    userPublicKey,
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrSubmissionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrSubmissionFailed, resp.StatusCode, string(body))
	}

	var payload swapResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: unmarshal swap: %v", ErrSubmissionFailed, err)
	}

	if payload.SwapTransaction == "" {
		return "", fmt.Errorf("%w: empty swap transaction", ErrSubmissionFailed)
	}

	return payload.SwapTransaction, nil
}
