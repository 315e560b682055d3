// Package google mirrors expenses into a Google Sheet through the Sheets v4
// API, authenticated with a service account or a stored OAuth user token.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Credentials selects how to authenticate. An OAuth client plus token file
// wins; otherwise the service account key is used, JSON before File, and
// with neither GOOGLE_APPLICATION_CREDENTIALS.
type Credentials struct {
	JSON string
	File string

	OAuthClientFile string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// sheetID is cached once a lookup succeeds.
	mu         sync.Mutex
	sheetID    int64
	hasSheetID bool
}

var _ sheets.ExpenseMirror = (*Client)(nil)

func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
	return c, nil
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	if creds.OAuthClientFile != "" && creds.OAuthTokenFile != "" {
		httpClient, err := oauthHTTPClient(ctx, creds.OAuthClientFile, creds.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return svc, nil
	}

	var credentialsJSON []byte
	file := strings.TrimSpace(creds.File)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		credentialsJSON = []byte(creds.JSON)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) idColumn() string { return fmt.Sprintf("%s!A:A", c.sheetName) }

func (c *Client) readIDs(ctx context.Context) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.idColumn()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.idColumn(), err)
	}
	return resp.Values, nil
}

// AppendExpense adds a row for e unless one already exists.
func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}
	if i := sheets.FindRow(ids, e.ID); i >= 0 {
		c.logger.DebugContext(ctx, "Expense already mirrored", log.FieldRecordID, e.ID, "row", i+1)
		return fmt.Sprintf("%s!A%d", c.sheetName, i+1), nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{sheets.ExpenseRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A:E", c.sheetName), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Expense mirrored", log.FieldRecordID, e.ID, "range", ref)
	return ref, nil
}

// DeleteExpense removes the row whose first cell is id.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	i := sheets.FindRow(ids, id)
	if i < 0 {
		c.logger.DebugContext(ctx, "Expense row already absent", log.FieldRecordID, id)
		return nil
	}
	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(i),
			EndIndex:   int64(i + 1),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", i+1, c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Expense row deleted", log.FieldRecordID, id, "row", i+1)
	return nil
}

// lookupSheetID resolves the numeric id of the mirror tab. Failures are
// not remembered, the next call asks again.
func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasSheetID {
		return c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	id, ok := sheetIDByTitle(ss.Sheets, c.sheetName)
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", c.sheetName)
	}
	c.sheetID, c.hasSheetID = id, true
	return id, nil
}

func sheetIDByTitle(tabs []*gsheet.Sheet, title string) (int64, bool) {
	for _, s := range tabs {
		if s != nil && s.Properties != nil && strings.EqualFold(s.Properties.Title, title) {
			return s.Properties.SheetId, true
		}
	}
	return 0, false
}
