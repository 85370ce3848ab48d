package calculator

import (
	"reflect"
	"testing"
)

func TestSuggestTransfers(t *testing.T) {
	tests := []struct {
		name      string
		positions []Position
		want      []Transfer
	}{
		{
			name: "one creditor two debtors",
			positions: []Position{
				{Name: "Dan", Rank: 0, Units: 8000},
				{Name: "Sara", Rank: 1, Units: -4000},
				{Name: "Avi", Rank: 2, Units: -4000},
			},
			want: []Transfer{
				{From: "Sara", To: "Dan", Units: 4000},
				{From: "Avi", To: "Dan", Units: 4000},
			},
		},
		{
			name: "largest debtor first",
			positions: []Position{
				{Name: "Dan", Rank: 0, Units: 100},
				{Name: "Sara", Rank: 1, Units: -30},
				{Name: "Avi", Rank: 2, Units: -70},
			},
			want: []Transfer{
				{From: "Avi", To: "Dan", Units: 70},
				{From: "Sara", To: "Dan", Units: 30},
			},
		},
		{
			name: "ties broken by registration rank",
			positions: []Position{
				{Name: "Avi", Rank: 2, Units: -50},
				{Name: "Sara", Rank: 1, Units: -50},
				{Name: "Dan", Rank: 0, Units: 50},
				{Name: "Eli", Rank: 3, Units: 50},
			},
			want: []Transfer{
				{From: "Sara", To: "Dan", Units: 50},
				{From: "Avi", To: "Eli", Units: 50},
			},
		},
		{
			name: "partial matches",
			positions: []Position{
				{Name: "A", Rank: 0, Units: 60},
				{Name: "B", Rank: 1, Units: 40},
				{Name: "C", Rank: 2, Units: -75},
				{Name: "D", Rank: 3, Units: -25},
			},
			want: []Transfer{
				{From: "C", To: "A", Units: 60},
				{From: "D", To: "B", Units: 25},
				{From: "C", To: "B", Units: 15},
			},
		},
		{
			name:      "all settled",
			positions: []Position{{Name: "A", Units: 0}, {Name: "B", Rank: 1, Units: 0}},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestTransfers(tt.positions)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SuggestTransfers() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSuggestTransfersClearsBalances(t *testing.T) {
	positions := []Position{
		{Name: "A", Rank: 0, Units: 1234},
		{Name: "B", Rank: 1, Units: -333},
		{Name: "C", Rank: 2, Units: 99},
		{Name: "D", Rank: 3, Units: -1000},
	}
	net := map[string]int64{}
	for _, p := range positions {
		net[p.Name] = p.Units
	}
	for _, tr := range SuggestTransfers(positions) {
		if tr.Units <= 0 {
			t.Errorf("non-positive transfer %+v", tr)
		}
		net[tr.From] += tr.Units
		net[tr.To] -= tr.Units
	}
	for name, units := range net {
		if units != 0 {
			t.Errorf("%s left with %d", name, units)
		}
	}
}
