// Package calculator holds the integer minor-unit arithmetic behind splits
// and balances. It knows nothing about trips or currencies.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoParticipants is returned when a split has nobody to split among.
	ErrNoParticipants = errors.New("must have at least one participant")
	// ErrSumMismatch is returned when custom shares do not add up to the total.
	ErrSumMismatch = errors.New("shares do not sum to total")
)

// EqualShares computes each person's share of total minor units.
// Every share is floor(total/n); the remainder is handed out one unit at a
// time to the first participants, so shares differ by at most one unit and
// the result depends only on order.
//
// Example: 1000 among 3 -> [334, 333, 333]
func EqualShares(total int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, ErrNoParticipants
	}
	if total < 0 {
		return nil, fmt.Errorf("total cannot be negative: %d", total)
	}

	base := total / int64(n)
	remainder := total - base*int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}

// CheckShares verifies that custom shares sum exactly to total.
func CheckShares(total int64, shares []int64) error {
	if len(shares) == 0 {
		return ErrNoParticipants
	}
	var sum int64
	for _, s := range shares {
		if s < 0 {
			return fmt.Errorf("share cannot be negative: %d", s)
		}
		sum += s
	}
	if sum != total {
		return fmt.Errorf("%w: shares %d, total %d", ErrSumMismatch, sum, total)
	}
	return nil
}

// RoundPreservingSum rounds exact values to integer minor units (10^-exp)
// with the largest-remainder method: every value is floored, then the units
// lost to flooring are given back to the values with the largest fractional
// parts (ties to the lower rank). The rounded sum equals the rounded exact sum,
// so values that sum to zero still sum to zero after rounding.
func RoundPreservingSum(values []decimal.Decimal, exp int32, ranks []int) []int64 {
	units := make([]int64, len(values))
	fracs := make([]decimal.Decimal, len(values))
	total := decimal.Zero
	var floored int64

	for i, v := range values {
		scaled := v.Shift(exp)
		f := scaled.Floor()
		units[i] = f.IntPart()
		fracs[i] = scaled.Sub(f)
		floored += units[i]
		total = total.Add(scaled)
	}

	residual := total.Round(0).IntPart() - floored
	if residual <= 0 {
		return units
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if c := fracs[ia].Cmp(fracs[ib]); c != 0 {
			return c > 0
		}
		return rankOf(ranks, ia) < rankOf(ranks, ib)
	})
	for k := 0; int64(k) < residual && k < len(order); k++ {
		units[order[k]]++
	}
	return units
}

func rankOf(ranks []int, i int) int {
	if i < len(ranks) {
		return ranks[i]
	}
	return i
}
