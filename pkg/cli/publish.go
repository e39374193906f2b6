package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/pollbus/pkg/client"
)

type publishFlags struct {
	meta string
	ear  bool
	seqn int64
}

func newPublishCmd(g *globalFlags) *cobra.Command {
	f := &publishFlags{}
	cmd := &cobra.Command{
		Use:   "publish <channel> <message> [message...]",
		Short: "Publish one or more messages to a channel",
		Long: `Publish each argument as one message. Arguments that parse as JSON are sent
as-is; anything else is sent as a JSON string.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, g, f, args[0], args[1:])
		},
	}
	cmd.Flags().StringVar(&f.meta, "meta", "", "JSON metadata attached to every message")
	cmd.Flags().BoolVar(&f.ear, "ear", false, "mark messages read-once (excluded from history)")
	cmd.Flags().Int64Var(&f.seqn, "seqn", 0, "sequence number sent with every message")
	return cmd
}

func runPublish(cmd *cobra.Command, g *globalFlags, f *publishFlags, channel string, raw []string) error {
	var params client.PublishParams
	if f.meta != "" {
		if !json.Valid([]byte(f.meta)) {
			return fmt.Errorf("--meta must be valid JSON")
		}
		params.Meta = json.RawMessage(f.meta)
	}
	if cmd.Flags().Changed("ear") {
		ear := f.ear
		params.ReadOnce = &ear
	}
	if cmd.Flags().Changed("seqn") {
		seqn := f.seqn
		params.Sequence = &seqn
	}

	c, err := newClient(cmd, g)
	if err != nil {
		return err
	}
	defer c.Close()

	msgs := make([]*client.Message, len(raw))
	for i, arg := range raw {
		msgs[i] = &client.Message{Payload: parsePayload(arg)}
	}

	out := cmd.OutOrStdout()
	failed := 0
	err = c.Publish(cmd.Context(), msgs, channel, params, func(res *client.PublishResult, err error, msg *client.Message) {
		if err != nil {
			failed++
			fmt.Fprintf(out, "❌ %s: %v\n", payloadString(msg.Payload), err)
			return
		}
		if !res.OK() {
			failed++
			fmt.Fprintf(out, "❌ %s: %s\n", payloadString(msg.Payload), res.Description)
			return
		}
		fmt.Fprintf(out, "✅ %s sent at %s\n", payloadString(msg.Payload), res.TimeToken)
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, len(msgs))
	}
	return nil
}

// parsePayload keeps JSON arguments verbatim and quotes everything else.
func parsePayload(arg string) any {
	if json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	return arg
}

func payloadString(p any) string {
	switch v := p.(type) {
	case json.RawMessage:
		return string(v)
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprint(v)
	}
}
