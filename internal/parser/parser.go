// Package parser turns one chat message into a typed Command.
//
// Parsing is deterministic and regex based. Each command shape is a
// full-text pattern; shapes are tried in a fixed priority order and the
// first match wins. Extracted text is only ever matched against patterns
// and converted to names or decimals, never evaluated.
package parser

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultWakeWords are stripped from the start of a message.
var DefaultWakeWords = []string{"kai", "קאי"}

// Reason tags a ParseError.
type Reason string

const (
	ReasonUnrecognized    Reason = "unrecognized"
	ReasonAmbiguousNumber Reason = "ambiguous-number"
	ReasonMissingPayer    Reason = "missing-payer"
)

// ParseError is returned for input that matches no command shape.
// It is an expected outcome, rendered as guidance.
type ParseError struct {
	Text   string
	Reason Reason
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return "parse " + string(e.Reason) + ": " + e.Detail
	}
	return "parse " + string(e.Reason) + ": " + e.Text
}

// Pattern fragments.
const (
	symbolClass = `[₪€$£¥]`
	currencyAlt = `(?:` + symbolClass + `|ils|nis|usd|eur|gbp|jpy|shekels|shekel|euros|euro|dollars|dollar|pounds|pound|yen|ש"ח|ש״ח|שקלים|שקל|שח)`
	numberPat   = `\d[\d,.]*(?: \d[\d,.]*)*`
	shareNumPat = `\d+(?:[.,]\d+)*(?: \d{3}(?:[.,]\d+)*)*`
	amountPat   = `(?:` + currencyAlt + `\s?` + numberPat + `|` + numberPat + `(?:\s?` + currencyAlt + `)?)`
	namePat     = `\p{L}[\p{L}\p{M}'\-]*`
	listSep     = `(?:\s*[,&]\s*|\s+and\s+)`
	listPat     = namePat + `(?:` + listSep + namePat + `)*`
	addKw       = `(?:add|הוסף)`
	paidByKw    = `(?:paid\s+by|paid|שילם|שילמה)`
	addPrefix   = `(?i)^` + addKw + `\s+(.+?)\s+` + paidByKw + `\s+(` + namePat + `)`
	equalKw     = `(?:split\s+)?equal(?:ly)?`
)

var (
	helpRe     = regexp.MustCompile(`(?i)^(?:help|עזרה)(?:\s.*)?$`)
	whoRe      = regexp.MustCompile(`(?i)^(?:who|מי)$`)
	summaryRe  = regexp.MustCompile(`(?i)^(?:summary|סיכום)$`)
	undoRe     = regexp.MustCompile(`(?i)^(?:undo|בטל)$`)
	balancesRe = regexp.MustCompile(`(?i)^(?:balances|balance|status|debts|debt|יתרות|חובות)(?:\s+in\s+(` + currencyAlt + `))?$`)
	tripRe     = regexp.MustCompile(`(?i)^(?:trip|טיול)\s+([\p{L}\p{N}_\- ]+?)(?:\s+(?:base|בסיס)\s+(` + currencyAlt + `))?$`)
	settleRe   = regexp.MustCompile(`(?i)^(?:(?:settle|סגור)\s+)?(` + namePat + `)\s+(?:paid|שילם|שילמה)\s+(?:to\s+)?(` + namePat + `)\s+(` + amountPat + `)$`)

	addCustomRe  = regexp.MustCompile(addPrefix + `\s+custom\s+(.+)$`)
	addOnlyRe    = regexp.MustCompile(addPrefix + `\s+(?:only|רק)\s+(` + listPat + `)$`)
	addBetweenRe = regexp.MustCompile(addPrefix + `\s+(?:` + equalKw + `\s+)?(?:between|among|בין)\s+(` + listPat + `)$`)
	addEqualRe   = regexp.MustCompile(addPrefix + `(?:\s+` + equalKw + `)?$`)

	addStartRe = regexp.MustCompile(`(?i)^` + addKw + `(?:\s|$)`)
	paidWordRe = regexp.MustCompile(`(?i)(?:^|\s)` + paidByKw + `(?:\s|$)`)
	digitRe    = regexp.MustCompile(`\d`)

	listSplitRe = regexp.MustCompile(`(?i)` + listSep)
	shareRe     = regexp.MustCompile(`(?i)(` + namePat + `)\s*[:=]?\s*(` + symbolClass + `)?\s*(` + shareNumPat + `)\s*(` + symbolClass + `)?`)
	shareSepRe  = regexp.MustCompile(`(?i)^(?:[\s,;&]|\band\b)*$`)
)

// shape is one full-text command pattern.
type shape struct {
	name  string
	re    *regexp.Regexp
	build func(text string, m []string) (Command, error)
}

// Parser parses messages. The zero value is not usable; use New.
type Parser struct {
	wakeWords []string
	shapes    []shape
}

// New creates a Parser that strips the given wake words (DefaultWakeWords when empty).
func New(wakeWords ...string) *Parser {
	if len(wakeWords) == 0 {
		wakeWords = DefaultWakeWords
	}
	p := &Parser{}
	for _, w := range wakeWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			p.wakeWords = append(p.wakeWords, w)
		}
	}
	// Order matters: specific shapes before the generic equal split.
	p.shapes = []shape{
		{"help", helpRe, buildSimple(KindHelp)},
		{"who", whoRe, buildSimple(KindWho)},
		{"summary", summaryRe, buildSimple(KindSummary)},
		{"undo", undoRe, buildSimple(KindUndo)},
		{"balances", balancesRe, buildBalances},
		{"trip", tripRe, buildTrip},
		{"settle", settleRe, buildSettle},
		{"add-custom", addCustomRe, buildAddCustom},
		{"add-only", addOnlyRe, buildAddList},
		{"add-between", addBetweenRe, buildAddList},
		{"add-equal", addEqualRe, buildAddEqual},
	}
	return p
}

var std = New()

// Parse parses text with the default wake words.
func Parse(text string) (Command, error) {
	return std.Parse(text)
}

// Parse returns a Command or a *ParseError. It never panics on input.
func (p *Parser) Parse(text string) (Command, error) {
	_, cmd, err := p.ParseShape(text)
	return cmd, err
}

// ParseShape is Parse that also reports which shape matched. Useful for
// debugging tools; the shape is empty when no pattern matched.
func (p *Parser) ParseShape(text string) (string, Command, error) {
	norm := p.normalize(text)
	if norm == "" {
		return "", nil, &ParseError{Text: text, Reason: ReasonUnrecognized}
	}

	for _, s := range p.shapes {
		m := s.re.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		cmd, err := s.build(text, m)
		if err == errNoMatch {
			continue
		}
		if err != nil {
			return s.name, nil, err
		}
		return s.name, cmd, nil
	}

	return "", nil, classify(text, norm)
}

// classify picks the most helpful reason for input no shape accepted.
func classify(text, norm string) *ParseError {
	if addStartRe.MatchString(norm) && !paidWordRe.MatchString(norm) && digitRe.MatchString(norm) {
		return &ParseError{Text: text, Reason: ReasonMissingPayer}
	}
	return &ParseError{Text: text, Reason: ReasonUnrecognized}
}

// normalize strips bidi marks, collapses whitespace, removes a leading
// wake word and trailing question or exclamation marks.
func (p *Parser) normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\u200e' || r == '\u200f' || r == '\u061c':
			return -1
		case r >= '\u202a' && r <= '\u202e', r >= '\u2066' && r <= '\u2069':
			return -1
		}
		return r
	}, text)
	text = strings.Join(strings.Fields(text), " ")
	text = p.stripWakeWord(text)
	text = strings.TrimRight(text, "?! ")
	return text
}

func (p *Parser) stripWakeWord(text string) string {
	runes := []rune(text)
	for _, w := range p.wakeWords {
		n := len([]rune(w))
		if len(runes) < n || !strings.EqualFold(string(runes[:n]), w) {
			continue
		}
		if len(runes) == n {
			return ""
		}
		if r := runes[n]; unicode.IsSpace(r) || r == ',' || r == ':' {
			return strings.TrimLeft(string(runes[n:]), ",: ")
		}
	}
	return text
}

// WakeWords returns the configured wake words.
func (p *Parser) WakeWords() []string {
	return append([]string(nil), p.wakeWords...)
}
