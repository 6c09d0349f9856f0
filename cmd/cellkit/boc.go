package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli"

	"github.com/tonkit/cellkit/tvm/cell"
)

func newBOCCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "boc",
			Usage: "Bag of cells operations",
			Subcommands: []cli.Command{
				{
					Name:      "decode",
					Usage:     "Print cells tree of every root",
					ArgsUsage: "<hex|base64>",
					Action:    decodeBOC,
					Flags: []cli.Flag{
						inputFlag,
						cli.BoolFlag{
							Name:  "bits",
							Usage: "dump data as bits instead of hex",
						},
					},
				},
				{
					Name:      "encode",
					Usage:     "Re-encode bag of cells with configured options",
					ArgsUsage: "<hex|base64>",
					Action:    encodeBOC,
					Flags: []cli.Flag{
						inputFlag,
						cli.BoolFlag{Name: "index", Usage: "write cells index"},
						cli.BoolFlag{Name: "cache-bits", Usage: "write cache bits, implies index"},
						cli.BoolFlag{Name: "no-crc", Usage: "omit crc32c checksum"},
						cli.BoolFlag{Name: "base64", Usage: "print result in base64 instead of hex"},
					},
				},
			},
		},
		{
			Name:      "hash",
			Usage:     "Print hashes and depths of every root for each level",
			ArgsUsage: "<hex|base64>",
			Action:    hashBOC,
			Flags:     []cli.Flag{inputFlag},
		},
	}
}

func decodeBOC(ctx *cli.Context) error {
	roots, err := readRoots(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	for i, root := range roots {
		fmt.Fprintf(ctx.App.Writer, "root %d: %s, hash %X, depth %d\n", i, root.GetType(), root.Hash(), root.Depth())
		if ctx.Bool("bits") {
			fmt.Fprintln(ctx.App.Writer, root.DumpBits())
		} else {
			fmt.Fprintln(ctx.App.Writer, root.Dump())
		}
	}
	return nil
}

func encodeBOC(ctx *cli.Context) error {
	roots, err := readRoots(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	opts := configFromContext(ctx).BOCOptions()
	if ctx.Bool("index") {
		opts.WithIndex = true
	}
	if ctx.Bool("cache-bits") {
		opts.WithIndex = true
		opts.WithCacheBits = true
	}
	if ctx.Bool("no-crc") {
		opts.WithCRC32C = false
	}

	data := cell.ToBOCWithOptions(roots, opts)
	if ctx.Bool("base64") {
		fmt.Fprintln(ctx.App.Writer, base64.StdEncoding.EncodeToString(data))
	} else {
		fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(data))
	}
	return nil
}

func hashBOC(ctx *cli.Context) error {
	roots, err := readRoots(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	for i, root := range roots {
		for lvl := 0; lvl <= root.Level(); lvl++ {
			fmt.Fprintf(ctx.App.Writer, "root %d level %d: %X depth %d\n", i, lvl, root.Hash(lvl), root.Depth(lvl))
		}
	}
	return nil
}
