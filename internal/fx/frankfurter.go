package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/money"
)

// DefaultFrankfurterURL is the public Frankfurter API (no auth required).
const DefaultFrankfurterURL = "https://api.frankfurter.app"

// Frankfurter fetches latest rates from a Frankfurter-compatible API.
type Frankfurter struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewFrankfurter creates a client. An empty baseURL means DefaultFrankfurterURL.
func NewFrankfurter(baseURL string, timeout time.Duration) *Frankfurter {
	if baseURL == "" {
		baseURL = DefaultFrankfurterURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Frankfurter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate implements RateFunc.
func (f *Frankfurter) Rate(base, quote money.Currency) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	return f.fetch(ctx, base, quote)
}

func (f *Frankfurter) fetch(ctx context.Context, base, quote money.Currency) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("from", string(base))
	q.Set("to", string(quote))
	endpoint := f.baseURL + "/latest?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("FX request failed", "base", base, "quote", quote, "error", err)
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: %s->%s: status %d", ErrRateUnavailable, base, quote, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid response: %v", ErrRateUnavailable, err)
	}
	r, ok := body.Rates[string(quote)]
	if !ok || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s not found in response", ErrRateUnavailable, quote)
	}
	slog.Debug("FX rate fetched", "base", base, "quote", quote, "rate", r.String(), "date", body.Date)
	return r, nil
}
