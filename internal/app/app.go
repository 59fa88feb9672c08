package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/polkadot-util/internal/config"
	"github.com/eigerco/polkadot-util/pkg/log"
)

// Version of the binary, set at build time.
var Version = "dev"

// env carries the loaded configuration from the Before hook to the commands.
type env struct {
	cfg config.Config
}

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "polkadot-util\nVersion: %s\nGoVersion: %s\n",
		Version,
		runtime.Version(),
	)
}

// New creates the polkadot-util instance of [cli.App] with all commands included.
func New() *cli.App {
	e := &env{cfg: config.Default()}

	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "polkadot-util"
	ctl.Version = Version
	ctl.Usage = "Hex, big integer and SCALE compact helpers for Substrate nodes"
	ctl.Writer = os.Stdout
	ctl.ErrWriter = os.Stderr
	ctl.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a yaml configuration file",
			EnvVars: []string{"POLKADOT_UTIL_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (trace, debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format (console or json)",
		},
	}
	ctl.Before = e.before

	ctl.Commands = append(ctl.Commands, newConvertCommands()...)
	ctl.Commands = append(ctl.Commands, newCompactCommands()...)
	ctl.Commands = append(ctl.Commands, newSubscribeCommands(e)...)
	ctl.Commands = append(ctl.Commands, newHeadsCommands(e)...)
	return ctl
}

func (e *env) before(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	if ctx.IsSet("log-level") {
		cfg.Log.Level = ctx.String("log-level")
	}
	if ctx.IsSet("log-format") {
		cfg.Log.Format = ctx.String("log-format")
	}

	opts, err := cfg.Log.Options()
	if err != nil {
		return err
	}
	opts.Output = ctx.App.ErrWriter
	log.Init(opts)

	e.cfg = cfg
	log.Root.Debug().Str("config", ctx.String("config")).Msg("configuration loaded")
	return nil
}
