// Package sheets appends report snapshots to a Google spreadsheet. It
// backs the admin /export command; a failure here degrades that command
// only and never affects record keeping.
package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/m3rciful/ledgerbot/internal/report"
)

// Exporter writes report rows through the Sheets API.
type Exporter struct {
	svc           *gsheets.Service
	spreadsheetID string
	writeRange    string
}

// New builds an exporter authenticated with a service-account
// credentials file.
func New(ctx context.Context, credentialsFile, spreadsheetID, writeRange string) (*Exporter, error) {
	svc, err := gsheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	if writeRange == "" {
		writeRange = "A1"
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, writeRange: writeRange}, nil
}

// Export appends one row per object plus a grand-total row, all stamped
// with the export time.
func (e *Exporter) Export(ctx context.Context, s report.Summary) error {
	stamp := time.Now().UTC().Format(time.RFC3339)

	rows := make([][]interface{}, 0, len(s.Lines)+1)
	for _, l := range s.Lines {
		rows = append(rows, []interface{}{
			stamp, l.Label,
			l.Salary.StringFixed(2),
			l.Materials.StringFixed(2),
			l.Total.StringFixed(2),
		})
	}
	rows = append(rows, []interface{}{
		stamp, "TOTAL",
		s.SalaryTotal.StringFixed(2),
		s.MaterialsTotal.StringFixed(2),
		s.GrandTotal.StringFixed(2),
	})

	_, err := e.svc.Spreadsheets.Values.
		Append(e.spreadsheetID, e.writeRange, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append values: %w", err)
	}
	return nil
}
