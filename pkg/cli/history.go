package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/pollbus/pkg/client"
)

type historyFlags struct {
	count   int
	reverse bool
	start   string
	end     string
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	f := &historyFlags{}
	cmd := &cobra.Command{
		Use:   "history <channel>",
		Short: "Print stored messages for a channel as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, g, f, args[0])
		},
	}
	cmd.Flags().IntVar(&f.count, "count", 100, "maximum number of messages")
	cmd.Flags().BoolVar(&f.reverse, "reverse", false, "return the oldest messages first")
	cmd.Flags().StringVar(&f.start, "start", "", "exclusive lower time-token bound")
	cmd.Flags().StringVar(&f.end, "end", "", "inclusive upper time-token bound")
	return cmd
}

func runHistory(cmd *cobra.Command, g *globalFlags, f *historyFlags, channel string) error {
	c, err := newClient(cmd, g)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.History(cmd.Context(), channel, client.HistoryOptions{
		Count:   f.count,
		Reverse: f.reverse,
		Start:   f.start,
		End:     f.end,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, m := range res.Messages {
		if err := enc.Encode(messageLine{Channel: channel, Payload: m}); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d messages (%s..%s)\n", len(res.Messages), res.Start, res.End)
	return nil
}

func newTimeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "time",
		Short: "Print the bus's current time-token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd, g)
			if err != nil {
				return err
			}
			defer c.Close()

			tt, err := c.Time(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tt)
			return nil
		},
	}
}
