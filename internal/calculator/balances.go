package calculator

// Position is one participant's net balance in minor units.
// Positive = owed money, negative = owes money.
type Position struct {
	Name  string
	Rank  int // registration order, used to break ties
	Units int64
}

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From  string // Person who owes
	To    string // Person who is owed
	Units int64
}

// SuggestTransfers matches debtors with creditors to clear all balances.
//
// Algorithm (greedy, not a minimal-count solver):
//   - pick the largest remaining debtor and the largest remaining creditor,
//     ties broken by registration rank
//   - transfer min(|debt|, credit)
//   - repeat until one side is exhausted
//
// With balances that sum to zero both sides are exhausted together.
func SuggestTransfers(positions []Position) []Transfer {
	debts := make([]Position, 0, len(positions))
	credits := make([]Position, 0, len(positions))
	for _, p := range positions {
		switch {
		case p.Units < 0:
			debts = append(debts, Position{Name: p.Name, Rank: p.Rank, Units: -p.Units})
		case p.Units > 0:
			credits = append(credits, p)
		}
	}

	var transfers []Transfer
	for {
		i := largest(debts)
		j := largest(credits)
		if i < 0 || j < 0 {
			break
		}

		amount := debts[i].Units
		if credits[j].Units < amount {
			amount = credits[j].Units
		}
		transfers = append(transfers, Transfer{
			From:  debts[i].Name,
			To:    credits[j].Name,
			Units: amount,
		})
		debts[i].Units -= amount
		credits[j].Units -= amount
	}
	return transfers
}

// largest returns the index of the biggest positive position, -1 if none.
func largest(ps []Position) int {
	best := -1
	for i, p := range ps {
		if p.Units <= 0 {
			continue
		}
		if best < 0 || p.Units > ps[best].Units ||
			(p.Units == ps[best].Units && p.Rank < ps[best].Rank) {
			best = i
		}
	}
	return best
}
