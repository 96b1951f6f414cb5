package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/topsell/tams/client"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/verification"
)

func (cli *commandLine) showAsset(ctx context.Context, code string) error {
	a, err := cli.api.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	return cli.printDetail(ctx, a.ID)
}

func (cli *commandLine) lookupTAMS(ctx context.Context, code string) error {
	a, err := cli.api.LookupTAMS(ctx, code)
	if err != nil {
		if errors.Cause(err) == asset.ErrNotFound {
			cli.printf("Asset %s not found in TAMS system.\n", code)
		}
		return err
	}
	cli.printf("%s  %s\n", a.Code, a.Name)
	cli.printf("  category: %s\n  location: %s\n  status:   %s\n", a.Category, a.Location, a.Status)
	if a.PurchaseDate != nil {
		cli.printf("  purchased: %s\n", *a.PurchaseDate)
	}
	return nil
}

func (cli *commandLine) printDetail(ctx context.Context, id string) error {
	detail, err := cli.api.GetDetail(ctx, id)
	if err != nil {
		return err
	}

	cli.printf("%s  %s\n", detail.Code, detail.Name)
	cli.printf("  category: %s\n  location: %s\n  status:   %s\n", detail.Category, detail.Location, detail.Status)
	if detail.PurchaseDate != nil {
		cli.printf("  purchased: %s\n", *detail.PurchaseDate)
	}
	for k, v := range detail.Specification {
		cli.printf("  %s: %v\n", k, v)
	}
	if len(detail.History) == 0 {
		cli.printf("No maintenance history.\n")
		return nil
	}
	cli.printf("History:\n")
	for _, rec := range detail.History {
		tech := "-"
		if rec.Technician != nil {
			tech = rec.Technician.Name
		}
		cli.printf("  %s  %-10s %-11s %s (%s)\n", rec.MaintenanceDate, rec.MaintenanceType, rec.Status, rec.Description, tech)
	}
	return nil
}

// record posts maintenance on the asset with code, tagged with the current verification ID.
func (cli *commandLine) record(ctx context.Context, code string, nm asset.NewMaintenance, photoPaths []string) error {
	a, err := cli.api.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	nm.VerificationID = verification.NewResolver(cli.tables, cli.store).Result().ID

	photos := make([]client.Photo, 0, len(photoPaths))
	for _, path := range photoPaths {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "opening photo")
		}
		defer f.Close()
		photos = append(photos, client.Photo{Name: filepath.Base(path), Reader: f})
	}

	res, err := cli.api.RecordMaintenance(ctx, a.ID, nm, photos...)
	if err != nil {
		return err
	}
	cli.printf("Recorded maintenance %s on %s (%d photos).\n", res.Record.ID, a.Code, len(res.Photos))
	if nm.VerificationID == "" {
		cli.printf("warning: recorded without a verification ID\n")
	}
	return nil
}
