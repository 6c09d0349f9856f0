package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/tonkit/cellkit/address"
)

func newAddrCommands() []cli.Command {
	return []cli.Command{
		{
			Name:      "addr",
			Usage:     "Print all forms of the address",
			ArgsUsage: "<address>",
			Action:    convertAddr,
		},
	}
}

func parseAnyAddr(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errNoInput
	}
	if strings.Contains(s, ":") {
		return address.ParseRawAddr(s)
	}
	return address.ParseAddr(s)
}

func convertAddr(ctx *cli.Context) error {
	addr, err := parseAnyAddr(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "raw:            %s\n", addr.StringRaw())
	if addr.Type() != address.StdAddress {
		return nil
	}

	form := func(bounce, testnet bool) string {
		a := addr.Copy()
		a.SetBounce(bounce)
		a.SetTestnetOnly(testnet)
		return a.String()
	}
	fmt.Fprintf(w, "bounceable:     %s\n", form(true, false))
	fmt.Fprintf(w, "non-bounceable: %s\n", form(false, false))
	fmt.Fprintf(w, "testnet:        %s\n", form(true, true))
	fmt.Fprintf(w, "testnet non-b.: %s\n", form(false, true))
	return nil
}
