package fx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/clawback/internal/money"
)

func TestStatic(t *testing.T) {
	s, err := NewStatic(map[string]string{"EUR/ILS": "4"})
	require.NoError(t, err)

	r, err := s.Rate(money.EUR, money.ILS)
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(4)))

	inv, err := s.Rate(money.ILS, money.EUR)
	require.NoError(t, err)
	assert.True(t, inv.Equal(decimal.RequireFromString("0.25")))

	one, err := s.Rate(money.GBP, money.GBP)
	require.NoError(t, err)
	assert.True(t, one.Equal(decimal.NewFromInt(1)))

	_, err = s.Rate(money.USD, money.JPY)
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestStaticRejectsBadTable(t *testing.T) {
	_, err := NewStatic(map[string]string{"EURILS": "4"})
	assert.Error(t, err)
	_, err = NewStatic(map[string]string{"EUR/XXX": "4"})
	assert.Error(t, err)
	_, err = NewStatic(map[string]string{"EUR/ILS": "-1"})
	assert.Error(t, err)
}

func TestFrankfurter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "EUR", r.URL.Query().Get("from"))
		to := r.URL.Query().Get("to")
		if to == "GBP" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"amount":1.0,"base":"EUR","date":"2026-10-13","rates":{"%s":3.9555}}`, to)
	}))
	defer srv.Close()

	f := NewFrankfurter(srv.URL, time.Second)
	r, err := f.Rate(money.EUR, money.ILS)
	require.NoError(t, err)
	assert.Equal(t, "3.9555", r.String())

	_, err = f.Rate(money.EUR, money.GBP)
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestCached(t *testing.T) {
	var calls atomic.Int32
	next := func(base, quote money.Currency) (decimal.Decimal, error) {
		calls.Add(1)
		if quote == money.JPY {
			return decimal.Zero, errors.New("boom")
		}
		return decimal.RequireFromString("1.1"), nil
	}
	c := NewCached(next, time.Hour)

	for i := 0; i < 3; i++ {
		r, err := c.Rate(money.EUR, money.USD)
		require.NoError(t, err)
		assert.Equal(t, "1.1", r.String())
	}
	assert.Equal(t, int32(1), calls.Load())

	// Failures are retried, not cached.
	_, err := c.Rate(money.EUR, money.JPY)
	assert.Error(t, err)
	_, err = c.Rate(money.EUR, money.JPY)
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	c.Flush()
	_, _ = c.Rate(money.EUR, money.USD)
	assert.Equal(t, int32(4), calls.Load())
}
