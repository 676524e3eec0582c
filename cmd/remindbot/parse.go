package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/hrygo/remindbot/plugin/timeparse"
	"github.com/hrygo/remindbot/server/timezone"
)

var parseFlags struct {
	kind string
	now  string
}

var parseCmd = &cobra.Command{
	Use:   "parse TEXT",
	Short: "Show how the bot reads a reminder phrase",
	Example: `  remindbot parse "через 5 минут купить молоко"
  remindbot parse --kind reschedule "в 18:30"
  remindbot parse --now 2025-03-10T17:00:00+05:00 "завтра в 10:00 встреча"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clock := clockwork.NewRealClock()
		if parseFlags.now != "" {
			now, err := time.Parse(time.RFC3339, parseFlags.now)
			if err != nil {
				return fmt.Errorf("invalid --now: %w", err)
			}
			clock = clockwork.NewFakeClockAt(now)
		}
		svc := timeparse.NewService(timezone.Yekaterinburg, clock)
		text := strings.Join(args, " ")
		out := cmd.OutOrStdout()

		switch parseFlags.kind {
		case "create":
			at, payload, ok := svc.ParseWithPayload(text)
			if !ok {
				return fmt.Errorf("no reminder found in %q", text)
			}
			fmt.Fprintf(out, "time: %s\ntext: %s\n", svc.Format(at), payload)
		case "reschedule":
			at, ok := svc.ParseInstantOnly(text)
			if !ok {
				return fmt.Errorf("no time found in %q", text)
			}
			fmt.Fprintf(out, "time: %s\n", svc.Format(at))
		default:
			return fmt.Errorf("unknown kind %q: use create or reschedule", parseFlags.kind)
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFlags.kind, "kind", "create", "create or reschedule")
	parseCmd.Flags().StringVar(&parseFlags.now, "now", "", "reference instant in RFC3339, defaults to the current time")
}
