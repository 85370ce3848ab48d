package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mmynk/clawback/internal/parser"
)

func newParseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <message...>",
		Short: "Show how a message parses, without touching any trip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := parser.New(a.cfg.Parser.WakeWords...)
			return runParse(cmd, p, strings.Join(args, " "))
		},
	}
}

func runParse(cmd *cobra.Command, p *parser.Parser, text string) error {
	out := cmd.OutOrStdout()

	if r := p.Reply(text); r != parser.ReplyNone {
		fmt.Fprintf(out, "%s reply %s\n", color.GreenString("✓"), color.CyanString(r.String()))
		return nil
	}

	shape, c, err := p.ParseShape(text)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintf(out, "%s %s\n", color.RedString("✗"), color.YellowString(string(pe.Reason)))
			if shape != "" {
				fmt.Fprintf(out, "  %s %s\n", color.HiBlackString("shape"), shape)
			}
		}
		return err
	}

	data, err := parser.Marshal(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s %s\n", color.GreenString("✓"), color.CyanString(string(c.Kind())), color.HiBlackString(shape))
	fmt.Fprintf(out, "  %s\n", data)
	if c.Mutates() {
		fmt.Fprintf(out, "  %s\n", color.HiBlackString("needs confirmation"))
	}
	return nil
}
