package parser

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

func mustParse(t *testing.T, text string) Command {
	t.Helper()
	cmd, err := Parse(text)
	require.NoError(t, err, "parse %q", text)
	require.NotNil(t, cmd)
	return cmd
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseSimpleCommands(t *testing.T) {
	tests := []struct {
		text string
		want Kind
	}{
		{"kai help", KindHelp},
		{"help", KindHelp},
		{"KAI HELP", KindHelp},
		{"help me please", KindHelp},
		{"עזרה", KindHelp},
		{"kai who", KindWho},
		{"who?", KindWho},
		{"מי", KindWho},
		{"kai summary", KindSummary},
		{"סיכום", KindSummary},
		{"kai undo", KindUndo},
		{"Undo!", KindUndo},
		{"בטל", KindUndo},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := mustParse(t, tt.text)
			assert.Equal(t, tt.want, cmd.Kind())
			assert.Equal(t, tt.text, cmd.Input())
		})
	}
}

func TestParseBalances(t *testing.T) {
	tests := []struct {
		text string
		want money.Currency
	}{
		{"kai balances", ""},
		{"balance", ""},
		{"status", ""},
		{"debts", ""},
		{"יתרות", ""},
		{"kai balances in EUR", money.EUR},
		{"balances in ₪", money.ILS},
		{"balances in dollars", money.USD},
		{"kai balances in ש\"ח", money.ILS},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := mustParse(t, tt.text)
			b, ok := cmd.(*Balances)
			require.True(t, ok, "got %T", cmd)
			assert.Equal(t, tt.want, b.In)
			assert.False(t, b.Mutates())
		})
	}
}

func TestParseTrip(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantBase money.Currency
	}{
		{"kai trip Beach Vacation", "Beach Vacation", ""},
		{"kai trip Euro Trip base EUR", "Euro Trip", money.EUR},
		{"trip tokyo-2026 base ¥", "tokyo-2026", money.JPY},
		{"טיול אילת", "אילת", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := mustParse(t, tt.text)
			trip, ok := cmd.(*Trip)
			require.True(t, ok, "got %T", cmd)
			assert.Equal(t, tt.wantName, trip.Name)
			assert.Equal(t, tt.wantBase, trip.Base)
			assert.True(t, trip.Mutates())
		})
	}
}

func TestParseSettle(t *testing.T) {
	tests := []struct {
		text     string
		from, to string
		amount   string
		currency money.Currency
	}{
		{"kai settle Dan paid Sara ₪100", "Dan", "Sara", "100", money.ILS},
		{"Dan paid Sara $50", "Dan", "Sara", "50", money.USD},
		{"settle Sara paid Dan 40", "Sara", "Dan", "40", ""},
		{"settle Avi paid to Dan 12.50 eur", "Avi", "Dan", "12.5", money.EUR},
		{"דן שילם שרה ₪1 200", "דן", "שרה", "1200", money.ILS},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := mustParse(t, tt.text)
			s, ok := cmd.(*Settle)
			require.True(t, ok, "got %T", cmd)
			assert.Equal(t, tt.from, s.From)
			assert.Equal(t, tt.to, s.To)
			assert.True(t, dec(tt.amount).Equal(s.Amount), "amount %s", s.Amount)
			assert.Equal(t, tt.currency, s.Currency)
		})
	}
}

func TestParseAddExpense(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, a *AddExpense)
	}{
		{
			name: "equal split with symbol",
			text: "kai add Dinner ₪340 paid by Yonatan",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, "Dinner", a.Description)
				assert.True(t, dec("340").Equal(a.Amount))
				assert.Equal(t, money.ILS, a.Currency)
				assert.Equal(t, "Yonatan", a.PaidBy)
				assert.Equal(t, models.SplitEqual, a.Mode)
				assert.Empty(t, a.Among)
			},
		},
		{
			name: "only list",
			text: "kai add dinner ₪340 paid by Dan only Dan & Sara",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, models.SplitOnly, a.Mode)
				assert.Equal(t, []string{"Dan", "Sara"}, a.Among)
			},
		},
		{
			name: "custom split",
			text: "kai add wine €60 paid by Avi custom Dan:30, Sara 20 and Avi=10",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, models.SplitCustom, a.Mode)
				assert.Equal(t, money.EUR, a.Currency)
				require.Len(t, a.Custom, 3)
				assert.Equal(t, "Dan", a.Custom[0].Name)
				assert.True(t, dec("30").Equal(a.Custom[0].Amount))
				assert.Equal(t, "Sara", a.Custom[1].Name)
				assert.True(t, dec("20").Equal(a.Custom[1].Amount))
				assert.Equal(t, "Avi", a.Custom[2].Name)
				assert.True(t, dec("10").Equal(a.Custom[2].Amount))
			},
		},
		{
			name: "custom split takes currency from shares",
			text: "add dinner 50 paid by Dan custom Dan:€30, Sara 20",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, money.EUR, a.Currency)
				require.Len(t, a.Custom, 2)
				assert.True(t, dec("20").Equal(a.Custom[1].Amount))
			},
		},
		{
			name: "custom split without any currency",
			text: "add dinner 50 paid by Dan custom Dan:30, Sara:20",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, money.Currency(""), a.Currency)
				require.Len(t, a.Custom, 2)
			},
		},
		{
			name: "custom split with space thousands",
			text: "add hotel ₪2 000 paid by Dan custom Dan 1 200, Sara ₪800",
			check: func(t *testing.T, a *AddExpense) {
				assert.True(t, dec("2000").Equal(a.Amount))
				require.Len(t, a.Custom, 2)
				assert.Equal(t, "Dan", a.Custom[0].Name)
				assert.True(t, dec("1200").Equal(a.Custom[0].Amount), "share %s", a.Custom[0].Amount)
				assert.True(t, dec("800").Equal(a.Custom[1].Amount))
			},
		},
		{
			name: "between",
			text: "kai add Gas ₪150 paid by Sara between Dan, Sara, Avi",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, models.SplitOnly, a.Mode)
				assert.Equal(t, []string{"Dan", "Sara", "Avi"}, a.Among)
			},
		},
		{
			name: "split equally between",
			text: "kai add Lunch ₪200 paid by Dan split equally between Dan and Sara",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, models.SplitOnly, a.Mode)
				assert.Equal(t, []string{"Dan", "Sara"}, a.Among)
			},
		},
		{
			name: "split equally with no list",
			text: "add lunch ₪200 paid by Dan split equally",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, models.SplitEqual, a.Mode)
			},
		},
		{
			name: "space thousands before symbol",
			text: "add hotel 1 200 ₪ paid by Dan",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, "hotel", a.Description)
				assert.True(t, dec("1200").Equal(a.Amount), "amount %s", a.Amount)
				assert.Equal(t, money.ILS, a.Currency)
			},
		},
		{
			name: "comma thousands with code",
			text: "add flight 2,500.50 USD paid by Sara",
			check: func(t *testing.T, a *AddExpense) {
				assert.True(t, dec("2500.50").Equal(a.Amount))
				assert.Equal(t, money.USD, a.Currency)
			},
		},
		{
			name: "bare number",
			text: "add snacks 12.5 paid by Avi",
			check: func(t *testing.T, a *AddExpense) {
				assert.True(t, dec("12.5").Equal(a.Amount))
				assert.Equal(t, money.Currency(""), a.Currency)
			},
		},
		{
			name: "currency word",
			text: "kai add taxi 50 shekels paid by Dan",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, money.ILS, a.Currency)
			},
		},
		{
			name: "amount before description",
			text: "add ₪80 pizza night paid by Dan",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, "pizza night", a.Description)
				assert.True(t, dec("80").Equal(a.Amount))
			},
		},
		{
			name: "hebrew",
			text: "קאי הוסף ארוחה 340 ₪ שילם דן",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, "ארוחה", a.Description)
				assert.True(t, dec("340").Equal(a.Amount))
				assert.Equal(t, money.ILS, a.Currency)
				assert.Equal(t, "דן", a.PaidBy)
			},
		},
		{
			name: "hebrew only list",
			text: "הוסף מונית ₪60 שילם דן רק דן, שרה",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, models.SplitOnly, a.Mode)
				assert.Equal(t, []string{"דן", "שרה"}, a.Among)
			},
		},
		{
			name: "mixed scripts",
			text: "kai add falafel ₪45 paid by נועה only Dan, נועה",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, "נועה", a.PaidBy)
				assert.Equal(t, []string{"Dan", "נועה"}, a.Among)
			},
		},
		{
			name: "bidi marks and extra spaces",
			text: "  Kai,  add   coffee \u200f€5   paid by Dan ",
			check: func(t *testing.T, a *AddExpense) {
				assert.Equal(t, "coffee", a.Description)
				assert.Equal(t, money.EUR, a.Currency)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := mustParse(t, tt.text)
			a, ok := cmd.(*AddExpense)
			require.True(t, ok, "got %T", cmd)
			assert.True(t, a.Mutates())
			tt.check(t, a)
		})
	}
}

func TestParseSymbolAndCodeAreEquivalent(t *testing.T) {
	bySymbol := mustParse(t, "kai add dinner ₪340 paid by Dan").(*AddExpense)
	byCode := mustParse(t, "kai add dinner 340 ILS paid by Dan").(*AddExpense)
	bySuffix := mustParse(t, "kai add dinner 340₪ paid by Dan").(*AddExpense)

	byCode.Text = bySymbol.Text
	bySuffix.Text = bySymbol.Text
	assert.Equal(t, bySymbol, byCode)
	assert.Equal(t, bySymbol, bySuffix)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Reason
	}{
		{"gibberish", "asdfghjkl qwerty", ReasonUnrecognized},
		{"empty", "   ", ReasonUnrecognized},
		{"wake word only", "kai", ReasonUnrecognized},
		{"add without amount", "kai add dinner", ReasonUnrecognized},
		{"add without payer", "add dinner ₪100", ReasonMissingPayer},
		{"decimal comma", "add dinner 12,50 paid by Dan", ReasonAmbiguousNumber},
		{"dotted thousands", "add dinner 1.000.000 paid by Dan", ReasonAmbiguousNumber},
		{"bad space grouping", "add rent 12 34 paid by Dan", ReasonAmbiguousNumber},
		{"too many decimals", "settle Dan paid Sara 10.555", ReasonAmbiguousNumber},
		{"sql injection in description", "kai add dinner'; DROP TABLE trips;-- ₪100 paid by Dan", ReasonUnrecognized},
		{"comment injection", "add x /* y */ 5 paid by Dan", ReasonUnrecognized},
		{"injection as amount", "add dinner 1; DELETE FROM expenses paid by Dan", ReasonUnrecognized},
		{"unknown currency", "balances in CHF", ReasonUnrecognized},
		{"custom gibberish", "add wine €60 paid by Avi custom gibberish", ReasonUnrecognized},
		{"custom currency mismatch", "add wine €60 paid by Avi custom Dan:$30, Sara:€30", ReasonUnrecognized},
		{"custom shares disagree under bare total", "add dinner 50 paid by Dan custom Dan:€30, Sara:$20", ReasonUnrecognized},
		{"custom share grouping", "add hotel 2000 paid by Dan custom Dan 1 2000, Sara 800", ReasonUnrecognized},
		{"custom trailing junk", "add wine €60 paid by Avi custom Dan:30, Sara:30 ;DROP", ReasonUnrecognized},
		{"trip injection", "trip x; DROP TABLE trips", ReasonUnrecognized},
		{"only without list", "add dinner ₪100 paid by Dan only", ReasonUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.text)
			require.Error(t, err)
			assert.Nil(t, cmd)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %T", err)
			assert.Equal(t, tt.want, pe.Reason, "detail: %s", pe.Detail)
			assert.Equal(t, tt.text, pe.Text)
		})
	}
}

func TestCustomWakeWords(t *testing.T) {
	p := New("clawback", "bot")
	cmd, err := p.Parse("bot: who")
	require.NoError(t, err)
	assert.Equal(t, KindWho, cmd.Kind())

	_, err = p.Parse("kai who")
	assert.Error(t, err)
	assert.Equal(t, []string{"clawback", "bot"}, p.WakeWords())
}

func TestParseShape(t *testing.T) {
	shape, _, err := New().ParseShape("add x ₪5 paid by Dan only Dan")
	require.NoError(t, err)
	assert.Equal(t, "add-only", shape)

	shape, _, err = New().ParseShape("nonsense")
	assert.Error(t, err)
	assert.Empty(t, shape)
}

func TestReply(t *testing.T) {
	tests := []struct {
		text string
		want Reply
	}{
		{"yes", ReplyYes},
		{"YES", ReplyYes},
		{" y ", ReplyYes},
		{"kai yes", ReplyYes},
		{"yes!", ReplyYes},
		{"כן", ReplyYes},
		{"no", ReplyNo},
		{"No.", ReplyNo},
		{"לא", ReplyNo},
		{"cancel", ReplyNo},
		{"yes please", ReplyNone},
		{"no way", ReplyNone},
		{"add x 5 paid by Dan", ReplyNone},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReply(tt.text))
		})
	}
}
