package asset

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const historySheet = "History"

var historyHeader = []interface{}{
	"Date", "Asset Code", "Asset Name", "Type", "Status", "Description", "Technician", "Verification ID", "Completed",
}

// ExportHistory writes the filtered maintenance history as an XLSX workbook.
func (svc *service) ExportHistory(ctx context.Context, filter HistoryFilter, w io.Writer) error {
	records, err := svc.History(ctx, filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying history")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, rec := range records {
		row := []interface{}{rec.MaintenanceDate, "", "", string(rec.MaintenanceType), string(rec.Status), rec.Description, "", rec.VerificationID, ""}
		if rec.Asset != nil {
			row[1] = rec.Asset.Code
			row[2] = rec.Asset.Name
		}
		if rec.Technician != nil {
			row[6] = rec.Technician.Name
		}
		if rec.CompletionDate != nil {
			row[8] = *rec.CompletionDate
		}
		if err := f.SetSheetRow(historySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}

	if err := f.SetColWidth(historySheet, "A", "I", 18); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}
