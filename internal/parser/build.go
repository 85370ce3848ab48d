package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// errNoMatch makes Parse move on to the next shape.
var errNoMatch = errors.New("no match")

var (
	amountRe      = regexp.MustCompile(`(?i)^(?:(` + currencyAlt + `)\s?(` + numberPat + `)|(` + numberPat + `)(?:\s?(` + currencyAlt + `))?)$`)
	descAmountRe  = regexp.MustCompile(`(?i)^(.+?)\s+(` + amountPat + `)$`)
	amountDescRe  = regexp.MustCompile(`(?i)^(` + amountPat + `)\s+(.+)$`)
	plainNumRe    = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)
	commaGroupRe  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?$`)
	spaceGroupRe  = regexp.MustCompile(`^\d{1,3}(?: \d{3})+(?:\.\d{1,2})?$`)
	descCharsRe   = regexp.MustCompile(`^[\p{L}\p{M}\p{N} '"\-_.,&()!#+@/:%]+$`)
	descContentRe = regexp.MustCompile(`[\p{L}\p{N}]`)
)

// reserved words that cannot be a settle payer.
var reserved = map[string]bool{"add": true, "הוסף": true, "settle": true, "סגור": true}

func buildSimple(k Kind) func(string, []string) (Command, error) {
	return func(text string, _ []string) (Command, error) {
		switch k {
		case KindHelp:
			return &Help{Text: text}, nil
		case KindWho:
			return &Who{Text: text}, nil
		case KindSummary:
			return &Summary{Text: text}, nil
		case KindUndo:
			return &Undo{Text: text}, nil
		}
		return nil, errNoMatch
	}
}

func buildBalances(text string, m []string) (Command, error) {
	cmd := &Balances{Text: text}
	if m[1] != "" {
		c, err := money.ParseCurrency(m[1])
		if err != nil {
			return nil, errNoMatch
		}
		cmd.In = c
	}
	return cmd, nil
}

func buildTrip(text string, m []string) (Command, error) {
	name := strings.TrimSpace(m[1])
	if !descContentRe.MatchString(name) {
		return nil, errNoMatch
	}
	cmd := &Trip{Text: text, Name: name}
	if m[2] != "" {
		c, err := money.ParseCurrency(m[2])
		if err != nil {
			return nil, errNoMatch
		}
		cmd.Base = c
	}
	return cmd, nil
}

func buildSettle(text string, m []string) (Command, error) {
	if reserved[strings.ToLower(m[1])] {
		return nil, errNoMatch
	}
	value, c, err := parseAmount(text, m[3])
	if err != nil {
		return nil, err
	}
	return &Settle{Text: text, From: m[1], To: m[2], Amount: value, Currency: c}, nil
}

// buildAddCustom handles `... custom Dan:50, Sara 30`.
func buildAddCustom(text string, m []string) (Command, error) {
	cmd, err := buildAdd(text, m)
	if err != nil {
		return nil, err
	}
	shares, c, err := parseShares(text, m[3], cmd.Currency)
	if err != nil {
		return nil, err
	}
	cmd.Currency = c
	cmd.Mode = models.SplitCustom
	cmd.Custom = shares
	return cmd, nil
}

// buildAddList handles `only <list>` and `[split equally] between <list>`.
func buildAddList(text string, m []string) (Command, error) {
	cmd, err := buildAdd(text, m)
	if err != nil {
		return nil, err
	}
	cmd.Mode = models.SplitOnly
	cmd.Among = parseList(m[3])
	return cmd, nil
}

func buildAddEqual(text string, m []string) (Command, error) {
	cmd, err := buildAdd(text, m)
	if err != nil {
		return nil, err
	}
	cmd.Mode = models.SplitEqual
	return cmd, nil
}

// buildAdd splits the head into description and amount. The amount may
// come last ("dinner ₪340") or first ("₪340 dinner").
func buildAdd(text string, m []string) (*AddExpense, error) {
	head, payer := m[1], m[2]

	var desc, amount string
	if dm := descAmountRe.FindStringSubmatch(head); dm != nil {
		desc, amount = dm[1], dm[2]
	} else if am := amountDescRe.FindStringSubmatch(head); am != nil {
		amount, desc = am[1], am[2]
	} else {
		return nil, errNoMatch
	}

	desc = strings.TrimSpace(desc)
	if !validDescription(desc) {
		return nil, &ParseError{Text: text, Reason: ReasonUnrecognized, Detail: "description contains unsupported characters"}
	}

	value, c, err := parseAmount(text, amount)
	if err != nil {
		return nil, err
	}
	return &AddExpense{
		Text:        text,
		Description: desc,
		Amount:      value,
		Currency:    c,
		PaidBy:      payer,
	}, nil
}

func validDescription(desc string) bool {
	if !descCharsRe.MatchString(desc) || !descContentRe.MatchString(desc) {
		return false
	}
	return !strings.Contains(desc, "--") && !strings.Contains(desc, "/*")
}

// parseAmount reads "₪1 200", "50.5 usd" or a bare "30". An empty currency
// means the caller's default.
func parseAmount(text, expr string) (decimal.Decimal, money.Currency, error) {
	m := amountRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return decimal.Zero, "", errNoMatch
	}
	sym, num := m[1], m[2]
	if num == "" {
		num, sym = m[3], m[4]
	}

	value, err := parseNumber(text, num)
	if err != nil {
		return decimal.Zero, "", err
	}
	if sym == "" {
		return value, "", nil
	}
	c, err := money.ParseCurrency(sym)
	if err != nil {
		return decimal.Zero, "", errNoMatch
	}
	return value, c, nil
}

// parseNumber accepts plain decimals and consistent thousands groups
// separated by commas or single spaces. Anything else is ambiguous.
func parseNumber(text, s string) (decimal.Decimal, error) {
	if !plainNumRe.MatchString(s) && !commaGroupRe.MatchString(s) && !spaceGroupRe.MatchString(s) {
		return decimal.Zero, &ParseError{Text: text, Reason: ReasonAmbiguousNumber, Detail: "cannot read " + s + " as a number"}
	}
	clean := strings.NewReplacer(",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, &ParseError{Text: text, Reason: ReasonAmbiguousNumber, Detail: err.Error()}
	}
	return d, nil
}

func parseList(s string) []string {
	var names []string
	for _, n := range listSplitRe.Split(s, -1) {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// parseShares reads "Dan:50, Sara 30 & Avi=20". Every character must belong
// to a share or a separator. Symbols on shares must agree with each other
// and with c; a bare total takes the currency the shares name.
func parseShares(text, s string, c money.Currency) ([]Share, money.Currency, error) {
	matches := shareRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return nil, "", &ParseError{Text: text, Reason: ReasonUnrecognized, Detail: "no custom shares found"}
	}

	shares := make([]Share, 0, len(matches))
	prev := 0
	for _, idx := range matches {
		if !shareSepRe.MatchString(s[prev:idx[0]]) {
			return nil, "", &ParseError{Text: text, Reason: ReasonUnrecognized, Detail: "unexpected text in custom split"}
		}
		prev = idx[1]

		name := s[idx[2]:idx[3]]
		for _, g := range []int{4, 8} {
			if idx[g] < 0 {
				continue
			}
			sc, err := money.ParseCurrency(s[idx[g]:idx[g+1]])
			if err != nil {
				return nil, "", &ParseError{Text: text, Reason: ReasonUnrecognized, Detail: "unknown currency in custom split"}
			}
			if c == "" {
				c = sc
			} else if sc != c {
				return nil, "", &ParseError{Text: text, Reason: ReasonUnrecognized, Detail: "custom shares disagree on currency"}
			}
		}
		value, err := parseNumber(text, s[idx[6]:idx[7]])
		if err != nil {
			return nil, "", err
		}
		shares = append(shares, Share{Name: name, Amount: value})
	}
	if !shareSepRe.MatchString(s[prev:]) {
		return nil, "", &ParseError{Text: text, Reason: ReasonUnrecognized, Detail: "unexpected text in custom split"}
	}
	return shares, c, nil
}
