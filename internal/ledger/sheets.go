package ledger

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

const (
	valueInputOption = "USER_ENTERED"
	insertDataOption = "INSERT_ROWS"
)

// SheetsSink appends rows to a Google Sheets range.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	writeRange    string
}

// NewSheetsSink authenticates with a service-account JSON key file.
func NewSheetsSink(ctx context.Context, credentialsFile, spreadsheetID, writeRange string, opts ...option.ClientOption) (*SheetsSink, error) {
	opts = append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ledger/sheets: new service: %w", err)
	}
	return NewSheetsSinkWithService(svc, spreadsheetID, writeRange), nil
}

// NewSheetsSinkWithService wraps an already constructed Sheets client.
func NewSheetsSinkWithService(svc *sheets.Service, spreadsheetID, writeRange string) *SheetsSink {
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, writeRange: writeRange}
}

func (*SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Append(ctx context.Context, row models.LedgerRow) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row.Values()}}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.writeRange, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("ledger/sheets: append to %s: %w", s.writeRange, err)
	}
	return nil
}

var _ Sink = (*SheetsSink)(nil)
