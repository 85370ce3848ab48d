package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/parser"
	"github.com/mmynk/clawback/internal/service"
)

func eur(s string) money.Amount { return money.MustParse(s, money.EUR) }

func dinner() *models.Expense {
	return &models.Expense{
		ID:          "01J",
		Description: "dinner",
		Amount:      eur("120"),
		PaidBy:      "Dan",
		Mode:        models.SplitEqual,
		Splits: []models.Split{
			{Participant: "Dan", Amount: eur("40")},
			{Participant: "Sara", Amount: eur("40")},
			{Participant: "Avi", Amount: eur("40")},
		},
	}
}

func report() *service.Report {
	sheet := &ledger.Sheet{
		Currency: money.EUR,
		Balances: []ledger.Balance{
			{Participant: "Dan", Net: eur("80")},
			{Participant: "Sara", Net: eur("-40")},
			{Participant: "Avi", Net: eur("-40")},
		},
	}
	return &service.Report{Trip: "Lisbon", Balances: sheet, Suggestions: ledger.Suggestions(sheet)}
}

func TestRenderProposed(t *testing.T) {
	got := Render(&service.Event{
		Kind:   service.EventProposed,
		Change: &service.Change{Kind: parser.KindAdd, Expense: dinner()},
		TTL:    5 * time.Minute,
	})
	assert.Equal(t,
		"Add dinner €120.00 paid by Dan, split Dan €40.00, Sara €40.00, Avi €40.00?\nReply yes or no within 5 minutes.",
		got)
}

func TestRenderCommitted(t *testing.T) {
	got := Render(&service.Event{
		Kind:   service.EventCommitted,
		Change: &service.Change{Kind: parser.KindAdd, Expense: dinner()},
		Report: report(),
	})
	assert.Equal(t, "Done: added dinner €120.00 paid by Dan.\nSara owes Dan €40.00\nAvi owes Dan €40.00", got)
}

func TestRenderTripAndUndo(t *testing.T) {
	tests := []struct {
		name   string
		change *service.Change
		want   string
	}{
		{"new trip", &service.Change{Kind: parser.KindTrip, Trip: "Lisbon", Base: money.EUR, NewTrip: true}, "Create trip Lisbon (EUR)?"},
		{"switch", &service.Change{Kind: parser.KindTrip, Trip: "Lisbon", Base: money.EUR}, "Switch to trip Lisbon?"},
		{"undo settlement", &service.Change{Kind: parser.KindUndo, Settlement: &models.Settlement{From: "Sara", To: "Dan", Amount: eur("40")}},
			"Undo settlement Sara paid Dan €40.00?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(&service.Event{Kind: service.EventProposed, Change: tt.change, TTL: time.Minute})
			assert.True(t, strings.HasPrefix(got, tt.want), "got %q", got)
		})
	}
}

func TestRenderBalances(t *testing.T) {
	got := Render(&service.Event{Kind: service.EventBalances, Report: report()})
	assert.Contains(t, got, "Dan: +€80.00")
	assert.Contains(t, got, "Sara: -€40.00")
	assert.Contains(t, got, "Sara owes Dan €40.00")

	settled := &service.Report{Trip: "Lisbon", Balances: &ledger.Sheet{Currency: money.EUR}}
	assert.Contains(t, Balances(settled), "All settled up.")

	fallback := &service.Report{Trip: "Lisbon", ByCurrency: []ledger.Sheet{{Currency: money.ILS}, {Currency: money.EUR}}}
	out := Balances(fallback)
	assert.Contains(t, out, "no exchange rate")
	assert.Contains(t, out, "ILS (ILS)")
}

func TestRenderRejectedAndParse(t *testing.T) {
	got := Render(&service.Event{
		Kind:   service.EventRejected,
		Code:   ledger.ErrInvalidSplit.Code,
		Detail: "invalid-split: shares sum to 50.00, expected 60.00",
	})
	assert.Equal(t, "That split doesn't add up. (shares sum to 50.00, expected 60.00)", got)

	got = Render(&service.Event{Kind: service.EventRejected, Code: ledger.ErrConfirmationExpired.Code, Detail: "confirmation-expired"})
	assert.Equal(t, "That confirmation expired. Send the command again.", got)

	assert.Contains(t, Render(&service.Event{Kind: service.EventParseFailed, Reason: parser.ReasonMissingPayer}), "Who paid?")
	assert.Contains(t, Render(&service.Event{Kind: service.EventParseFailed, Reason: parser.ReasonUnrecognized}), "Commands:")
}

func TestRenderWhoAndSummary(t *testing.T) {
	assert.Equal(t, "Participants: Dan, Sara", Render(&service.Event{Kind: service.EventWho, Participants: []string{"Dan", "Sara"}}))
	assert.Equal(t, "No participants yet.", Render(&service.Event{Kind: service.EventWho}))

	total := eur("120")
	sum := &ledger.Summary{
		Trip:         "Lisbon",
		BaseCurrency: money.EUR,
		Participants: []string{"Dan", "Sara"},
		Expenses:     1,
		Spent:        []money.Amount{eur("120")},
		Total:        &total,
		People: []ledger.PersonTotal{
			{Participant: "Dan", Paid: []money.Amount{eur("120")}, Share: []money.Amount{eur("60")}},
			{Participant: "Sara", Share: []money.Amount{eur("60")}},
		},
	}
	out := Render(&service.Event{Kind: service.EventSummary, Summary: sum, Report: &service.Report{}})
	assert.Contains(t, out, "Total spent: €120.00")
	assert.Contains(t, out, "Sara paid nothing, share €60.00")
	assert.True(t, strings.HasSuffix(out, "All settled up."), "got %q", out)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "5 minutes", Duration(5*time.Minute))
	assert.Equal(t, "0 seconds", Duration(0))
}
