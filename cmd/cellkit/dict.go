package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
)

var errNoKeyBits = errors.New("key size should be set with --key-bits")

func newDictCommands() []cli.Command {
	return []cli.Command{
		{
			Name:      "dict",
			Usage:     "List dictionary keys stored in the first root",
			ArgsUsage: "<hex|base64>",
			Action:    listDict,
			Flags: []cli.Flag{
				inputFlag,
				cli.UintFlag{
					Name:  "key-bits, k",
					Usage: "dictionary key size in bits",
				},
				cli.BoolFlag{
					Name:  "inline",
					Usage: "dictionary root is the cell itself, not a maybe ref",
				},
			},
		},
	}
}

func listDict(ctx *cli.Context) error {
	keySz := ctx.Uint("key-bits")
	if keySz == 0 {
		return cli.NewExitError(errNoKeyBits, 1)
	}

	roots, err := readRoots(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	loader := roots[0].BeginParse()
	load := loader.LoadDict
	if ctx.Bool("inline") {
		load = loader.ToDict
	}

	dict, err := load(keySz)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to load dictionary: %w", err), 1)
	}

	for _, kv := range dict.All() {
		key, err := kv.Key.BeginParse().LoadSlice(keySz)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("failed to read key: %w", err), 1)
		}
		fmt.Fprintf(ctx.App.Writer, "%X: %d bits, %d refs\n", key, kv.Value.BitsSize(), kv.Value.RefsNum())
	}
	fmt.Fprintf(ctx.App.Writer, "total: %d\n", dict.Size())
	return nil
}
