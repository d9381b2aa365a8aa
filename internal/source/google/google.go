// Package google provides a trade record source and sink backed by a Google
// Sheets spreadsheet. Authentication uses Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"tradeflow/internal/core"
	ports "tradeflow/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var (
	_ ports.RecordReader = (*Client)(nil)
	_ ports.RecordWriter = (*Client)(nil)
	_ ports.Identifier   = (*Client)(nil)
)

// recordHeader is the expected header row of the records sheet, in column
// order. AppendRecords writes the same layout.
var recordHeader = []string{"country", "hs_section", "hs_code", "commodity", "year", "trade_type", "value_usd"}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_SHEET_NAME (default "TradeRecords"),
// GOOGLE_SERVICE_ACCOUNT_JSON / GOOGLE_SERVICE_ACCOUNT_FILE /
// GOOGLE_APPLICATION_CREDENTIALS for auth.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "TradeRecords"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return New(svc, spreadsheetID, sheetName), nil
}

// New creates a client over an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("no Service Account credentials: set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// LoadRecords implements source.RecordReader. It reads the records sheet and
// parses each row against the expected header, skipping malformed rows.
func (c *Client) LoadRecords(ctx context.Context, limit int) ([]core.TradeRecord, error) {
	readRange := fmt.Sprintf("%s!A1:G", c.sheetName)
	if limit > 0 {
		// +1 for the header row
		readRange = fmt.Sprintf("%s!A1:G%d", c.sheetName, limit+1)
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}

	records, skipped, err := parseRecords(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", c.sheetName, err)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped malformed sheet rows",
			"sheet", c.sheetName, "skipped", skipped, "loaded", len(records))
	}
	return records, nil
}

// AppendRecords implements source.RecordWriter.
func (c *Client) AppendRecords(ctx context.Context, records []core.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}
	values := make([][]interface{}, 0, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		values = append(values, []interface{}{
			r.Country, r.HSSection, r.HSCode, r.Commodity, r.Year, string(r.TradeType), r.ValueUSD,
		})
	}

	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, fmt.Sprintf("%s!A:G", c.sheetName), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Appended records to sheet",
		"sheet", c.sheetName, "count", len(records))
	return nil
}

// SourceID implements source.Identifier.
func (c *Client) SourceID() string {
	return "sheets:" + c.spreadsheetID + "/" + c.sheetName
}
