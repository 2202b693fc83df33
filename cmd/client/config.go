package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	serverURL string
	nick      string
	join      string
	token     string
	heartbeat time.Duration
	bind      string
	port      int
	verbose   bool
}

func (c *Config) validate() error {
	if c.serverURL == "" {
		return errors.New("--server is required")
	}
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url must be ws:// or wss://, got %q", u.Scheme)
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.heartbeat <= 0 {
		return errors.New("--heartbeat must be positive")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CARDS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "cards-client",
		Short:         "Headless client for the card game server, exposing reconciled view state over a local HTTP endpoint.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.serverURL, "server", "s", "", "websocket url of the game server (env: CARDS_SERVER)")
	fs.StringVarP(&cfg.nick, "nick", "n", "", "nickname to claim on connect (env: CARDS_NICK)")
	fs.StringVarP(&cfg.join, "join", "j", "", "game to join once the nickname is confirmed (env: CARDS_JOIN)")
	fs.StringVar(&cfg.token, "token", "", "initial location token, e.g. games or games/<name> (env: CARDS_TOKEN)")
	fs.DurationVar(&cfg.heartbeat, "heartbeat", 10*time.Second, "outbound heartbeat period (env: CARDS_HEARTBEAT)")
	fs.StringVarP(&cfg.bind, "bind", "b", "127.0.0.1", "address for the local view endpoint (env: CARDS_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port for the local view endpoint (env: CARDS_PORT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log at debug level (env: CARDS_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("cards-client v{{.Version}}\n")

	return cmd
}
