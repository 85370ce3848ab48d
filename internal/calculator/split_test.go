package calculator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEqualShares(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		n       int
		want    []int64
		wantErr bool
	}{
		{name: "even split", total: 12000, n: 3, want: []int64{4000, 4000, 4000}},
		{name: "remainder to first participants", total: 1000, n: 3, want: []int64{334, 333, 333}},
		{name: "two units of remainder", total: 1001, n: 3, want: []int64{334, 334, 333}},
		{name: "single participant", total: 999, n: 1, want: []int64{999}},
		{name: "fewer units than people", total: 2, n: 4, want: []int64{1, 1, 0, 0}},
		{name: "no participants should error", total: 100, n: 0, wantErr: true},
		{name: "negative total should error", total: -1, n: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EqualShares(tt.total, tt.n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EqualShares() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EqualShares(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
			}
		})
	}
}

func TestEqualSharesProperties(t *testing.T) {
	for total := int64(0); total < 500; total += 7 {
		for n := 1; n <= 9; n++ {
			shares, err := EqualShares(total, n)
			if err != nil {
				t.Fatalf("EqualShares(%d, %d): %v", total, n, err)
			}
			var sum, lo, hi int64
			lo, hi = shares[0], shares[0]
			for _, s := range shares {
				sum += s
				lo = min(lo, s)
				hi = max(hi, s)
			}
			if sum != total {
				t.Errorf("EqualShares(%d, %d) sums to %d", total, n, sum)
			}
			if hi-lo > 1 {
				t.Errorf("EqualShares(%d, %d) spread %d > 1", total, n, hi-lo)
			}
		}
	}
}

func TestCheckShares(t *testing.T) {
	if err := CheckShares(100, []int64{50, 30, 20}); err != nil {
		t.Errorf("CheckShares exact: %v", err)
	}
	if err := CheckShares(100, []int64{50, 30}); !errors.Is(err, ErrSumMismatch) {
		t.Errorf("CheckShares under = %v, want ErrSumMismatch", err)
	}
	if err := CheckShares(100, []int64{80, 30}); !errors.Is(err, ErrSumMismatch) {
		t.Errorf("CheckShares over = %v, want ErrSumMismatch", err)
	}
	if err := CheckShares(100, nil); !errors.Is(err, ErrNoParticipants) {
		t.Errorf("CheckShares empty = %v, want ErrNoParticipants", err)
	}
}

func TestRoundPreservingSum(t *testing.T) {
	// 40 EUR credit, two 20 EUR debts at an awkward rate.
	rate := decimal.RequireFromString("3.7777")
	values := []decimal.Decimal{
		decimal.NewFromInt(40).Mul(rate),
		decimal.NewFromInt(-20).Mul(rate),
		decimal.NewFromInt(-20).Mul(rate),
	}
	got := RoundPreservingSum(values, 2, []int{0, 1, 2})

	var sum int64
	for _, u := range got {
		sum += u
	}
	if sum != 0 {
		t.Errorf("RoundPreservingSum = %v, sum %d, want 0", got, sum)
	}
	// 151.108 -> 15110 or 15111, each debt within one unit of -7555.54
	if got[0] < 15110 || got[0] > 15111 {
		t.Errorf("credit rounded to %d", got[0])
	}
	for _, u := range got[1:] {
		if u < -7556 || u > -7555 {
			t.Errorf("debt rounded to %d", u)
		}
	}
}
