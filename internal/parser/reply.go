package parser

import "strings"

// Reply classifies a message as a confirmation answer.
type Reply int

const (
	ReplyNone Reply = iota
	ReplyYes
	ReplyNo
)

var replies = map[string]Reply{
	"yes":     ReplyYes,
	"y":       ReplyYes,
	"yep":     ReplyYes,
	"yeah":    ReplyYes,
	"confirm": ReplyYes,
	"ok":      ReplyYes,
	"כן":      ReplyYes,
	"👍":       ReplyYes,
	"✅":       ReplyYes,
	"no":      ReplyNo,
	"n":       ReplyNo,
	"nope":    ReplyNo,
	"cancel":  ReplyNo,
	"לא":      ReplyNo,
	"👎":       ReplyNo,
	"❌":       ReplyNo,
}

// Reply reports whether text is a yes or no answer, after wake word and
// punctuation stripping. Matching is case-insensitive and whole-message.
func (p *Parser) Reply(text string) Reply {
	norm := strings.ToLower(strings.TrimRight(p.normalize(text), "."))
	return replies[norm]
}

// ParseReply classifies text with the default wake words.
func ParseReply(text string) Reply {
	return std.Reply(text)
}

func (r Reply) String() string {
	switch r {
	case ReplyYes:
		return "yes"
	case ReplyNo:
		return "no"
	}
	return "none"
}
