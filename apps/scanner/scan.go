package main

import (
	"bufio"
	"context"
	"strings"

	"github.com/topsell/tams/core/scan"
	"github.com/topsell/tams/core/verification"
)

// scan reads one decoded barcode per line. An empty line re-arms the scanner after a failed lookup.
// It returns after the first asset found.
func (cli *commandLine) scan(ctx context.Context) error {
	r := verification.NewResolver(cli.tables, cli.store)
	scanner := scan.New(cli.api, r.Result)

	if id := r.Result().ID; id != "" {
		cli.printf("Verification ID: %s\n", id)
	} else {
		cli.printf("warning: no verification context, run \"verify\" first\n")
	}
	cli.printf("Scan a barcode (Ctrl-D to stop).\n")

	lines := bufio.NewScanner(cli.in)
	for lines.Scan() {
		code := strings.TrimSpace(lines.Text())
		if code == "" {
			if scanner.LastError() != "" {
				scanner.Retry()
				cli.printf("Ready.\n")
			}
			continue
		}

		out, handled := scanner.HandleDecode(ctx, code)
		if !handled {
			cli.printf("ignored %s: press Enter to scan again\n", code)
			continue
		}
		if !out.Found() {
			cli.printf("%s Press Enter to scan again.\n", out.Message)
			continue
		}

		cli.printf("Found %s: %s\n", out.Asset.Code, out.Asset.Name)
		if out.Verification.ID != "" {
			cli.printf("Verification ID: %s\n", out.Verification.ID)
		}
		return cli.printDetail(ctx, out.Asset.ID)
	}
	return lines.Err()
}
