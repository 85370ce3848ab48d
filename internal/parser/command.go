package parser

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/models"
	"github.com/mmynk/clawback/internal/money"
)

// Kind identifies a command shape.
type Kind string

const (
	KindAdd      Kind = "add"
	KindSettle   Kind = "settle"
	KindBalances Kind = "balances"
	KindSummary  Kind = "summary"
	KindWho      Kind = "who"
	KindUndo     Kind = "undo"
	KindTrip     Kind = "trip"
	KindHelp     Kind = "help"
)

// Command is one parsed message. The concrete type is one of the structs
// below; switch on it or on Kind().
type Command interface {
	Kind() Kind
	// Input is the original message text.
	Input() string
	// Mutates reports whether the command writes and needs confirmation.
	Mutates() bool
}

// Share is one entry of a custom split.
type Share struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// AddExpense is `add <desc> <amount> paid by <name> [only ... | custom ...]`.
type AddExpense struct {
	Text        string          `json:"text"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	// Currency is empty when the message gave a bare number.
	Currency money.Currency   `json:"currency,omitempty"`
	PaidBy   string           `json:"paid_by"`
	Mode     models.SplitMode `json:"mode"`
	Among    []string         `json:"among,omitempty"`
	Custom   []Share          `json:"custom,omitempty"`
}

// Settle is `settle <from> paid <to> <amount>`.
type Settle struct {
	Text     string          `json:"text"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Currency money.Currency  `json:"currency,omitempty"`
}

// Balances is `balances [in <currency>]`.
type Balances struct {
	Text string         `json:"text"`
	In   money.Currency `json:"in,omitempty"`
}

// Summary is `summary`.
type Summary struct {
	Text string `json:"text"`
}

// Who is `who`.
type Who struct {
	Text string `json:"text"`
}

// Undo is `undo`.
type Undo struct {
	Text string `json:"text"`
}

// Trip is `trip <name> [base <currency>]`.
type Trip struct {
	Text string         `json:"text"`
	Name string         `json:"name"`
	Base money.Currency `json:"base,omitempty"`
}

// Help is `help`.
type Help struct {
	Text string `json:"text"`
}

func (c *AddExpense) Kind() Kind { return KindAdd }
func (c *Settle) Kind() Kind     { return KindSettle }
func (c *Balances) Kind() Kind   { return KindBalances }
func (c *Summary) Kind() Kind    { return KindSummary }
func (c *Who) Kind() Kind        { return KindWho }
func (c *Undo) Kind() Kind       { return KindUndo }
func (c *Trip) Kind() Kind       { return KindTrip }
func (c *Help) Kind() Kind       { return KindHelp }

func (c *AddExpense) Input() string { return c.Text }
func (c *Settle) Input() string     { return c.Text }
func (c *Balances) Input() string   { return c.Text }
func (c *Summary) Input() string    { return c.Text }
func (c *Who) Input() string        { return c.Text }
func (c *Undo) Input() string       { return c.Text }
func (c *Trip) Input() string       { return c.Text }
func (c *Help) Input() string       { return c.Text }

func (c *AddExpense) Mutates() bool { return true }
func (c *Settle) Mutates() bool     { return true }
func (c *Balances) Mutates() bool   { return false }
func (c *Summary) Mutates() bool    { return false }
func (c *Who) Mutates() bool        { return false }
func (c *Undo) Mutates() bool       { return true }
func (c *Trip) Mutates() bool       { return true }
func (c *Help) Mutates() bool       { return false }

type envelope struct {
	Kind    Kind            `json:"kind"`
	Command json.RawMessage `json:"command"`
}

// Marshal encodes a command with its kind so it can be stored and restored.
func Marshal(c Command) ([]byte, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s command: %w", c.Kind(), err)
	}
	return json.Marshal(envelope{Kind: c.Kind(), Command: body})
}

// Unmarshal decodes a command written by Marshal.
func Unmarshal(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode command envelope: %w", err)
	}

	var c Command
	switch env.Kind {
	case KindAdd:
		c = &AddExpense{}
	case KindSettle:
		c = &Settle{}
	case KindBalances:
		c = &Balances{}
	case KindSummary:
		c = &Summary{}
	case KindWho:
		c = &Who{}
	case KindUndo:
		c = &Undo{}
	case KindTrip:
		c = &Trip{}
	case KindHelp:
		c = &Help{}
	default:
		return nil, fmt.Errorf("unknown command kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Command, c); err != nil {
		return nil, fmt.Errorf("failed to decode %s command: %w", env.Kind, err)
	}
	return c, nil
}
