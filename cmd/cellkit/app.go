package main

import (
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/tonkit/cellkit/config"
	"github.com/tonkit/cellkit/tvm/cell"
)

// Version is set at build time.
var Version = "dev"

const (
	metaConfig = "config"
	metaLogger = "logger"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "path to yaml config file",
	},
	cli.BoolFlag{
		Name:  "debug, d",
		Usage: "enable debug logging, overrides configured level",
	},
}

func newApp() *cli.App {
	ctl := cli.NewApp()
	ctl.Name = "cellkit"
	ctl.Version = Version
	ctl.Usage = "Inspect and convert cells, bags of cells, dictionaries and addresses"
	ctl.ErrWriter = os.Stderr
	ctl.Metadata = map[string]interface{}{}
	ctl.Flags = globalFlags

	ctl.Before = func(ctx *cli.Context) error {
		cfg, err := getConfig(ctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		log, err := handleLoggingParams(ctx.Bool("debug"), cfg.Logger)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		sugar := log.Sugar()
		cell.Logger = func(v ...any) {
			sugar.Debug(v...)
		}

		ctx.App.Metadata[metaConfig] = cfg
		ctx.App.Metadata[metaLogger] = log
		return nil
	}

	ctl.After = func(ctx *cli.Context) error {
		if log, ok := ctx.App.Metadata[metaLogger].(*zap.Logger); ok {
			// stderr can't be synced on some platforms
			_ = log.Sync()
		}
		return nil
	}

	ctl.Commands = append(ctl.Commands, newBOCCommands()...)
	ctl.Commands = append(ctl.Commands, newAddrCommands()...)
	ctl.Commands = append(ctl.Commands, newDictCommands()...)
	return ctl
}

func configFromContext(ctx *cli.Context) config.Config {
	if cfg, ok := ctx.App.Metadata[metaConfig].(config.Config); ok {
		return cfg
	}
	return config.Default()
}

func loggerFromContext(ctx *cli.Context) *zap.Logger {
	if log, ok := ctx.App.Metadata[metaLogger].(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}
