package main

import (
	"github.com/topsell/tams/core/verification"
)

type verifyArgs struct {
	list     bool
	mode     verification.Mode
	pair     *string
	outlet   *string
	division *string
}

// verify applies the given changes to the persisted verification context and prints the result.
func (cli *commandLine) verify(args verifyArgs) error {
	if args.list {
		for _, opt := range cli.tables.Options() {
			cli.printf("%-6s %s\n", opt.Value, opt.Label)
		}
		return nil
	}

	r := verification.NewResolver(cli.tables, cli.store)
	if args.mode != "" {
		if _, err := r.SetMode(args.mode); err != nil {
			return err
		}
	}
	if args.pair != nil {
		r.SelectPair(*args.pair)
	}
	if args.outlet != nil {
		r.SetManualOutlet(*args.outlet)
	}
	if args.division != nil {
		r.SetManualDivision(*args.division)
	}
	cli.printResult(r.State().Mode, r.Result())
	return nil
}

func (cli *commandLine) printResult(mode verification.Mode, res verification.Result) {
	cli.printf("Mode:     %s\n", mode)
	if res.Outlet != nil {
		cli.printf("Outlet:   %s %s (%s)\n", res.Outlet.ID, res.Outlet.Name, res.Outlet.Code)
	} else {
		cli.printf("Outlet:   -\n")
	}
	if res.Division != nil {
		cli.printf("Division: %s %s\n", res.Division.ID, res.Division.Name)
	} else {
		cli.printf("Division: -\n")
	}
	if res.ID == "" {
		cli.printf("Verification ID: (incomplete)\n")
		return
	}
	cli.printf("Verification ID: %s\n", res.ID)
}
