package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tonkit/cellkit/config"
	"github.com/tonkit/cellkit/tvm/boc"
	"github.com/tonkit/cellkit/tvm/cell"
)

var errNoInput = errors.New("no input given, pass data as argument or use --in")

var inputFlag = cli.StringFlag{
	Name:  "in, i",
	Usage: "read bag of cells from file, raw or hex/base64 text",
}

func getConfig(ctx *cli.Context) (config.Config, error) {
	path := ctx.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

// handleLoggingParams builds console logger on stderr, debug flag wins over configured level.
func handleLoggingParams(debug bool, cfg config.Logger) (*zap.Logger, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	if cfg.LogEncoding != "" {
		cc.Encoding = cfg.LogEncoding
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	return cc.Build()
}

// decodeInput accepts hex, standard or url-safe base64 text.
func decodeInput(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errNoInput
	}

	if data, err := hex.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return nil, fmt.Errorf("input is neither hex nor base64")
}

func readInput(ctx *cli.Context) ([]byte, error) {
	if path := ctx.String("in"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}

		if bytes.HasPrefix(data, boc.Magic) {
			return data, nil
		}
		return decodeInput(string(data))
	}

	return decodeInput(ctx.Args().First())
}

func readRoots(ctx *cli.Context) ([]*cell.Cell, error) {
	data, err := readInput(ctx)
	if err != nil {
		return nil, err
	}

	roots, err := cell.FromBOCMultiRoot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse boc: %w", err)
	}

	loggerFromContext(ctx).Debug("boc parsed", zap.Int("size", len(data)), zap.Int("roots", len(roots)))
	return roots, nil
}
