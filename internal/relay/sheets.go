package relay

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads the first sheet of a Google spreadsheet with a service
// account.
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsSource(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*SheetsSource, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("relay: sheets client: %w", err)
	}
	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *SheetsSource) Rows(ctx context.Context) ([]Row, error) {
	// Sheet titles can be renamed between polls, so resolve the first one
	// each time.
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("relay: load spreadsheet: %w", err)
	}
	if len(doc.Sheets) == 0 || doc.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("relay: spreadsheet %s has no sheets", s.spreadsheetID)
	}

	title := doc.Sheets[0].Properties.Title
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(title)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("relay: read sheet %q: %w", title, err)
	}
	return rowsFromValues(resp.Values)
}

// quoteSheet turns a sheet title into an A1 range covering the whole sheet.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
