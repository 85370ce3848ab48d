package parser

import (
	"errors"
	"testing"
)

func FuzzParse(f *testing.F) {
	for _, s := range []string{
		"kai add dinner ₪340 paid by Dan",
		"kai add wine €60 paid by Avi custom Dan:30, Sara:20, Avi:10",
		"add hotel 1 200 ₪ paid by Dan only Dan & Sara",
		"settle Dan paid Sara 10.5",
		"balances in EUR",
		"trip Euro Trip base EUR",
		"הוסף ארוחה 340 ₪ שילם דן",
		"add x'; DROP TABLE trips;-- 1 paid by a",
	} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		cmd, err := Parse(s)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) returned %T, want *ParseError", s, err)
			}
			if cmd != nil {
				t.Fatalf("Parse(%q) returned both a command and an error", s)
			}
			return
		}
		if cmd == nil {
			t.Fatalf("Parse(%q) returned neither command nor error", s)
		}

		switch c := cmd.(type) {
		case *AddExpense:
			if c.Amount.IsNegative() {
				t.Errorf("negative amount %s from %q", c.Amount, s)
			}
		case *Settle:
			if c.Amount.IsNegative() {
				t.Errorf("negative amount %s from %q", c.Amount, s)
			}
		}

		data, err := Marshal(cmd)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		back, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if back.Kind() != cmd.Kind() {
			t.Errorf("kind %s after round trip, want %s", back.Kind(), cmd.Kind())
		}
	})
}
