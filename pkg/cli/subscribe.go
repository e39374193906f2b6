package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/pollbus/pkg/client"
	"github.com/DeBrosOfficial/pollbus/pkg/dispatch"
)

type subscribeFlags struct {
	count     int
	timetoken string
}

// messageLine is one line of subscribe and history output.
type messageLine struct {
	Channel   string          `json:"channel,omitempty"`
	TimeToken string          `json:"timetoken,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

func newSubscribeCmd(g *globalFlags) *cobra.Command {
	f := &subscribeFlags{}
	cmd := &cobra.Command{
		Use:   "subscribe <channel>[,<channel>...]",
		Short: "Print messages from one or more channels as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscribe(cmd, g, f, args[0])
		},
	}
	cmd.Flags().IntVar(&f.count, "count", 0, "stop after this many messages (0 runs until interrupted)")
	cmd.Flags().StringVar(&f.timetoken, "timetoken", "", "resume from this time-token instead of now")
	return cmd
}

func runSubscribe(cmd *cobra.Command, g *globalFlags, f *subscribeFlags, channels string) error {
	if f.count < 0 {
		return fmt.Errorf("--count must not be negative")
	}

	c, err := newClient(cmd, g)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())
	seen := 0
	done := func() bool { return f.count > 0 && seen >= f.count }
	handler := func(payloads []json.RawMessage, timetoken, channel string) bool {
		// Later channels of the same batch still reach the handler.
		if done() {
			return false
		}
		for _, p := range payloads {
			if err := enc.Encode(messageLine{Channel: channel, TimeToken: timetoken, Payload: p}); err != nil {
				return false
			}
			seen++
			if done() {
				return false
			}
		}
		return true
	}

	var resume client.TimeToken
	if f.timetoken != "" {
		resume = client.TimeToken{Token: f.timetoken}
	}

	list := splitList(channels)
	err = c.SubscribeMultiFrom(ctx, list, dispatch.Routes(nil, dispatch.WithDefault(handler)), resume)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
