package ledger

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/calculator"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// Share is an explicit per-person amount in the expense currency.
type Share struct {
	Name  string
	Value decimal.Decimal
}

// ExpenseInput describes an expense before it is split.
type ExpenseInput struct {
	Description string
	Amount      money.Amount
	PaidBy      string
	Mode        models.SplitMode

	// Among lists the split targets for SplitOnly. For SplitEqual it is
	// ignored and every participant plus the payer shares the cost.
	Among []string

	// Custom holds the shares for SplitCustom.
	Custom []Share
}

// Entry is a removed or removable ledger entry. Exactly one field is set.
type Entry struct {
	Expense    *models.Expense
	Settlement *models.Settlement
}

// Kind reports which list the entry belongs to.
func (e Entry) Kind() models.EntryKind {
	if e.Settlement != nil {
		return models.EntrySettlement
	}
	return models.EntryExpense
}

func newID() string {
	return ulid.Make().String()
}

// AddExpense splits and appends an expense. Payer and split targets are
// registered as participants if new. On error the trip is left untouched.
func AddExpense(trip *models.Trip, in ExpenseInput, now time.Time) (models.Expense, error) {
	work := trip.Clone()
	exp, err := buildExpense(work, in, now)
	if err != nil {
		return models.Expense{}, err
	}
	work.Expenses = append(work.Expenses, exp)
	work.LastEntry = &models.EntryRef{Kind: models.EntryExpense, ID: exp.ID}
	*trip = *work
	return exp, nil
}

// PlanExpense computes the expense AddExpense would append, without
// changing the trip. Used for confirmation previews.
func PlanExpense(trip *models.Trip, in ExpenseInput, now time.Time) (models.Expense, error) {
	return buildExpense(trip.Clone(), in, now)
}

func buildExpense(trip *models.Trip, in ExpenseInput, now time.Time) (models.Expense, error) {
	total, err := checkAmount(in.Amount)
	if err != nil {
		return models.Expense{}, err
	}

	payer, ok := trip.Register(in.PaidBy)
	if !ok {
		return models.Expense{}, reject(ErrUnknownParticipant, "payer is required")
	}

	var splits []models.Split
	switch in.Mode {
	case models.SplitCustom:
		splits, err = customSplits(trip, in, total)
	case models.SplitOnly:
		splits, err = equalSplits(trip, in.Among, in.Amount.Currency, total)
	case models.SplitEqual, "":
		in.Mode = models.SplitEqual
		splits, err = equalSplits(trip, trip.Participants, in.Amount.Currency, total)
	default:
		err = reject(ErrInvalidSplit, "unknown split mode %q", in.Mode)
	}
	if err != nil {
		return models.Expense{}, err
	}

	return models.Expense{
		ID:          newID(),
		CreatedAt:   now,
		Description: in.Description,
		Amount:      in.Amount,
		PaidBy:      payer,
		Mode:        in.Mode,
		Splits:      splits,
	}, nil
}

func checkAmount(a money.Amount) (int64, error) {
	if !a.Currency.Valid() {
		return 0, reject(ErrInvalidAmount, "unsupported currency %q", a.Currency)
	}
	if !a.Value.IsPositive() {
		return 0, reject(ErrInvalidAmount, "amount must be positive, got %s", a.Value)
	}
	if a.TooLarge() {
		return 0, reject(ErrInvalidAmount, "%s is larger than %s allows", a.Value, a.Currency)
	}
	units, ok := a.Minor()
	if !ok {
		return 0, reject(ErrInvalidAmount, "%s has more decimals than %s allows", a.Value, a.Currency)
	}
	return units, nil
}

// targets registers names in order and drops duplicates.
func targets(trip *models.Trip, names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		p, ok := trip.Register(n)
		if !ok {
			return nil, reject(ErrInvalidSplit, "split target name is empty")
		}
		key := models.NameKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, reject(ErrInvalidSplit, "nobody to split among")
	}
	return out, nil
}

func equalSplits(trip *models.Trip, names []string, c money.Currency, total int64) ([]models.Split, error) {
	people, err := targets(trip, names)
	if err != nil {
		return nil, err
	}
	shares, err := calculator.EqualShares(total, len(people))
	if err != nil {
		return nil, reject(ErrInvalidSplit, "%v", err)
	}
	splits := make([]models.Split, len(people))
	for i, p := range people {
		splits[i] = models.Split{Participant: p, Amount: money.FromMinor(shares[i], c)}
	}
	return splits, nil
}

func customSplits(trip *models.Trip, in ExpenseInput, total int64) ([]models.Split, error) {
	if len(in.Custom) == 0 {
		return nil, reject(ErrInvalidSplit, "custom split has no shares")
	}
	c := in.Amount.Currency
	seen := make(map[string]bool, len(in.Custom))
	splits := make([]models.Split, 0, len(in.Custom))
	units := make([]int64, 0, len(in.Custom))
	for _, s := range in.Custom {
		p, ok := trip.Register(s.Name)
		if !ok {
			return nil, reject(ErrInvalidSplit, "split target name is empty")
		}
		key := models.NameKey(p)
		if seen[key] {
			return nil, reject(ErrInvalidSplit, "%s appears twice", p)
		}
		seen[key] = true

		amt := money.New(s.Value, c)
		u, ok := amt.Minor()
		if !ok || s.Value.IsNegative() || amt.TooLarge() {
			return nil, reject(ErrInvalidSplit, "bad share %s for %s", s.Value, p)
		}
		units = append(units, u)
		splits = append(splits, models.Split{Participant: p, Amount: money.FromMinor(u, c)})
	}
	if err := calculator.CheckShares(total, units); err != nil {
		return nil, reject(ErrInvalidSplit, "%v", err)
	}
	return splits, nil
}

// AddSettlement appends a payment from one participant to another.
// Both parties are registered if new.
func AddSettlement(trip *models.Trip, from, to string, amount money.Amount, notes string, now time.Time) (models.Settlement, error) {
	if _, err := checkAmount(amount); err != nil {
		return models.Settlement{}, err
	}
	if models.NameKey(from) == "" || models.NameKey(to) == "" {
		return models.Settlement{}, reject(ErrUnknownParticipant, "both parties are required")
	}
	if models.NameKey(from) == models.NameKey(to) {
		return models.Settlement{}, reject(ErrInvalidSettlement, "%s cannot settle with themselves", from)
	}

	work := trip.Clone()
	fromName, _ := work.Register(from)
	toName, _ := work.Register(to)
	s := models.Settlement{
		ID:        newID(),
		CreatedAt: now,
		From:      fromName,
		To:        toName,
		Amount:    amount,
		Notes:     notes,
	}
	work.Settlements = append(work.Settlements, s)
	work.LastEntry = &models.EntryRef{Kind: models.EntrySettlement, ID: s.ID}
	*trip = *work
	return s, nil
}

// LastEntry returns the entry Undo would remove.
func LastEntry(trip *models.Trip) (Entry, error) {
	ref := trip.LastEntry
	if ref == nil {
		return Entry{}, ErrNothingToUndo
	}
	switch ref.Kind {
	case models.EntryExpense:
		for i := len(trip.Expenses) - 1; i >= 0; i-- {
			if trip.Expenses[i].ID == ref.ID {
				e := trip.Expenses[i]
				return Entry{Expense: &e}, nil
			}
		}
	case models.EntrySettlement:
		for i := len(trip.Settlements) - 1; i >= 0; i-- {
			if trip.Settlements[i].ID == ref.ID {
				s := trip.Settlements[i]
				return Entry{Settlement: &s}, nil
			}
		}
	}
	return Entry{}, reject(ErrNothingToUndo, "entry %s no longer exists", ref.ID)
}

// Undo removes the most recent mutation. Only one step is kept: a second
// Undo without a new mutation in between fails with ErrNothingToUndo.
func Undo(trip *models.Trip) (Entry, error) {
	entry, err := LastEntry(trip)
	if err != nil {
		return Entry{}, err
	}
	work := trip.Clone()
	if entry.Expense != nil {
		work.Expenses = removeExpense(work.Expenses, entry.Expense.ID)
	} else {
		work.Settlements = removeSettlement(work.Settlements, entry.Settlement.ID)
	}
	work.LastEntry = nil
	*trip = *work
	return entry, nil
}

func removeExpense(list []models.Expense, id string) []models.Expense {
	out := list[:0:0]
	for _, e := range list {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func removeSettlement(list []models.Settlement, id string) []models.Settlement {
	out := list[:0:0]
	for _, s := range list {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
