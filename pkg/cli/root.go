// Package cli implements the pollbus command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/pollbus/pkg/client"
	"github.com/DeBrosOfficial/pollbus/pkg/config"
	"github.com/DeBrosOfficial/pollbus/pkg/logging"
)

// BuildInfo is version metadata populated via -ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type globalFlags struct {
	configPath   string
	host         string
	port         int
	ssl          bool
	publishKey   string
	subscribeKey string
	quiet        bool
	logLevel     string
}

// NewRootCmd builds the pollbus command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "pollbus",
		Short:         "Publish to and subscribe from a long-polling message bus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default $POLLBUS_CONFIG or ~/.pollbus/config.yaml)")
	pf.StringVar(&g.host, "host", "", "bus host name or origin, e.g. http://127.0.0.1:8090")
	pf.IntVar(&g.port, "port", 0, "bus port (0 for the scheme default)")
	pf.BoolVar(&g.ssl, "ssl", false, "use https")
	pf.StringVar(&g.publishKey, "publish-key", "", "publish key")
	pf.StringVar(&g.subscribeKey, "subscribe-key", "", "subscribe key")
	pf.BoolVar(&g.quiet, "quiet", false, "only log warnings and errors")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newPublishCmd(g),
		newSubscribeCmd(g),
		newHistoryCmd(g),
		newTimeCmd(g),
		newVersionCmd(info),
	)
	return root
}

// loadConfig resolves configuration. Priority: flags > env > file > defaults.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	path, exists, err := config.DefaultPath(g.configPath)
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if exists {
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Client.Host = g.host
	}
	if flags.Changed("port") {
		cfg.Client.Port = g.port
	}
	if flags.Changed("ssl") {
		cfg.Client.SSL = g.ssl
	}
	if flags.Changed("publish-key") {
		cfg.Client.PublishKey = g.publishKey
	}
	if flags.Changed("subscribe-key") {
		cfg.Client.SubscribeKey = g.subscribeKey
	}
	if flags.Changed("quiet") {
		cfg.Client.QuietMode = g.quiet
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if cfg.Client.QuietMode {
		cfg.Logging.Level = "warn"
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// newClient builds a client whose logs go to the command's error stream.
func newClient(cmd *cobra.Command, g *globalFlags) (*client.Client, error) {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(logging.Options{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		OutputFile:   cfg.Logging.OutputFile,
		EnableColors: cfg.Logging.Colors,
		Output:       cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	return client.NewClient(cfg.Client, client.WithLogger(logger.For(logging.ComponentClient)))
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout(), info)
		},
	}
}

func printVersion(w io.Writer, info BuildInfo) {
	version := info.Version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "pollbus %s", version)
	if info.Commit != "" {
		fmt.Fprintf(w, " (commit %s)", info.Commit)
	}
	if info.Date != "" {
		fmt.Fprintf(w, " built %s", info.Date)
	}
	fmt.Fprintln(w)
}
