// Package render turns service events into chat replies. It only formats:
// every amount it prints was computed by the ledger.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/hako/durafmt"

	"github.com/mmynk/clawback/internal/ledger"
	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/parser"
	"github.com/mmynk/clawback/internal/service"
)

// Help is the command reference shown for help and unparsed input.
const Help = `Commands:
  add <what> <amount> paid by <name> [only <names> | custom <name:amount, ...>]
  settle <name> paid <name> <amount>
  balances [in <currency>]
  summary
  who
  undo
  trip <name> [base <currency>]
Write commands wait for yes or no.`

var rejections = map[string]string{
	ledger.ErrInvalidAmount.Code:       "That amount doesn't work.",
	ledger.ErrInvalidSplit.Code:        "That split doesn't add up.",
	ledger.ErrInvalidSettlement.Code:   "That settlement doesn't work.",
	ledger.ErrNothingToUndo.Code:       "Nothing to undo.",
	ledger.ErrNoActiveTrip.Code:        "No active trip. Start one with: trip <name> [base <currency>]",
	ledger.ErrConfirmationExpired.Code: "That confirmation expired. Send the command again.",
	ledger.ErrUnknownParticipant.Code:  "I don't know who that is.",
}

// Render formats ev as plain text.
func Render(ev *service.Event) string {
	switch ev.Kind {
	case service.EventProposed:
		return fmt.Sprintf("%s\nReply yes or no within %s.", preview(ev.Change), Duration(ev.TTL))
	case service.EventCommitted:
		var b strings.Builder
		fmt.Fprintf(&b, "Done: %s.", done(ev.Change))
		if ev.Report != nil {
			b.WriteString("\n")
			b.WriteString(debts(ev.Report))
		}
		return b.String()
	case service.EventCancelled:
		return "Cancelled."
	case service.EventNoPending:
		return "Nothing to confirm."
	case service.EventRejected:
		return rejection(ev)
	case service.EventParseFailed:
		return parseFailure(ev.Reason)
	case service.EventBalances:
		return Balances(ev.Report)
	case service.EventSummary:
		return Summary(ev.Summary, ev.Report)
	case service.EventWho:
		if len(ev.Participants) == 0 {
			return "No participants yet."
		}
		return "Participants: " + strings.Join(ev.Participants, ", ")
	case service.EventHelp:
		return Help
	}
	return ""
}

// Duration formats a confirmation window, e.g. "5 minutes".
func Duration(d time.Duration) string {
	if d <= 0 {
		return "0 seconds"
	}
	return durafmt.Parse(d.Round(time.Second)).LimitFirstN(2).String()
}

func preview(c *service.Change) string {
	if c == nil {
		return "Confirm?"
	}
	switch c.Kind {
	case parser.KindAdd:
		return fmt.Sprintf("Add %s?", expense(c.Expense, true))
	case parser.KindSettle:
		return fmt.Sprintf("Record %s?", settlement(c.Settlement))
	case parser.KindUndo:
		return fmt.Sprintf("Undo %s?", entry(c))
	case parser.KindTrip:
		if c.NewTrip {
			return fmt.Sprintf("Create trip %s (%s)?", c.Trip, c.Base)
		}
		return fmt.Sprintf("Switch to trip %s?", c.Trip)
	}
	return "Confirm?"
}

func done(c *service.Change) string {
	if c == nil {
		return "saved"
	}
	switch c.Kind {
	case parser.KindAdd:
		return "added " + expense(c.Expense, false)
	case parser.KindSettle:
		return "recorded " + settlement(c.Settlement)
	case parser.KindUndo:
		return "removed " + entry(c)
	case parser.KindTrip:
		if c.NewTrip {
			return fmt.Sprintf("created trip %s (%s)", c.Trip, c.Base)
		}
		return "switched to trip " + c.Trip
	}
	return "saved"
}

func entry(c *service.Change) string {
	if c.Expense != nil {
		return "expense " + expense(c.Expense, false)
	}
	return "settlement " + settlement(c.Settlement)
}

func expense(e *models.Expense, withSplits bool) string {
	if e == nil {
		return "expense"
	}
	s := fmt.Sprintf("%s %s paid by %s", e.Description, e.Amount, e.PaidBy)
	if !withSplits || len(e.Splits) == 0 {
		return s
	}
	parts := make([]string, len(e.Splits))
	for i, sp := range e.Splits {
		parts[i] = fmt.Sprintf("%s %s", sp.Participant, sp.Amount)
	}
	return s + ", split " + strings.Join(parts, ", ")
}

func settlement(s *models.Settlement) string {
	if s == nil {
		return "settlement"
	}
	return fmt.Sprintf("%s paid %s %s", s.From, s.To, s.Amount)
}

func rejection(ev *service.Event) string {
	msg, ok := rejections[ev.Code]
	if !ok {
		msg = "That didn't work."
	}
	// The wrapped detail follows the code, e.g. "invalid-split: shares sum to ..."
	if _, detail, found := strings.Cut(ev.Detail, ": "); found && ev.Code != ledger.ErrNoActiveTrip.Code {
		msg += " (" + detail + ")"
	}
	return msg
}

func parseFailure(reason parser.Reason) string {
	switch reason {
	case parser.ReasonMissingPayer:
		return "Who paid? Try: add dinner ₪340 paid by Dan"
	case parser.ReasonAmbiguousNumber:
		return "I couldn't read that amount. Use digits like 1200, 1,200 or 1 200.50"
	}
	return "Sorry, I didn't get that.\n" + Help
}

// Balances formats a report: one line per participant, then who pays whom.
func Balances(r *service.Report) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	if r.Balances != nil {
		sheet(&b, r.Trip, r.Balances)
	} else {
		fmt.Fprintf(&b, "%s balances (no exchange rate, per currency):\n", r.Trip)
		for i := range r.ByCurrency {
			sheet(&b, string(r.ByCurrency[i].Currency), &r.ByCurrency[i])
		}
	}
	b.WriteString(debts(r))
	return b.String()
}

func sheet(b *strings.Builder, title string, s *ledger.Sheet) {
	fmt.Fprintf(b, "%s (%s):\n", title, s.Currency)
	if len(s.Balances) == 0 {
		b.WriteString("  no entries\n")
		return
	}
	for _, bal := range s.Balances {
		fmt.Fprintf(b, "  %s: %s\n", bal.Participant, signed(bal.Net))
	}
}

func signed(a money.Amount) string {
	if a.IsPositive() {
		return "+" + a.String()
	}
	return a.String()
}

func debts(r *service.Report) string {
	if len(r.Suggestions) == 0 {
		return "All settled up."
	}
	lines := make([]string, len(r.Suggestions))
	for i, s := range r.Suggestions {
		lines[i] = fmt.Sprintf("%s owes %s %s", s.From, s.To, s.Amount)
	}
	return strings.Join(lines, "\n")
}

// Summary formats a trip overview followed by the suggested transfers.
func Summary(sum *ledger.Summary, r *service.Report) string {
	if sum == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", sum.Trip, sum.BaseCurrency)
	fmt.Fprintf(&b, "Participants: %s\n", strings.Join(sum.Participants, ", "))
	fmt.Fprintf(&b, "Expenses: %d, settlements: %d\n", sum.Expenses, sum.Settlements)
	if sum.Total != nil {
		fmt.Fprintf(&b, "Total spent: %s\n", sum.Total)
	} else {
		fmt.Fprintf(&b, "Total spent: %s\n", list(sum.Spent))
	}
	for _, p := range sum.People {
		fmt.Fprintf(&b, "  %s paid %s, share %s\n", p.Participant, list(p.Paid), list(p.Share))
	}
	if r != nil {
		b.WriteString(debts(r))
	}
	return strings.TrimRight(b.String(), "\n")
}

func list(as []money.Amount) string {
	if len(as) == 0 {
		return "nothing"
	}
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = a.String()
	}
	return strings.Join(parts, " + ")
}
