package records

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	sheets.DriveScope,
}

// GoogleSheet is a Table backed by the first worksheet of a Google spreadsheet.
type GoogleSheet struct {
	service       *sheets.Service
	spreadsheetID string
	title         string
}

// OpenGoogleSheet authenticates with service-account credentials and resolves
// the title of the spreadsheet's first worksheet.
func OpenGoogleSheet(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*GoogleSheet, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	spreadsheet, err := service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", spreadsheetID)
	}

	return &GoogleSheet{
		service:       service,
		spreadsheetID: spreadsheetID,
		title:         spreadsheet.Sheets[0].Properties.Title,
	}, nil
}

func (g *GoogleSheet) Title() string {
	return g.title
}

func (g *GoogleSheet) Rows(ctx context.Context) ([][]string, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, quoteTitle(g.title)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}
	return rows, nil
}

func (g *GoogleSheet) UpdateRow(ctx context.Context, row int, values []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(values)}}
	_, err := g.service.Spreadsheets.Values.Update(g.spreadsheetID, rowRange(g.title, row), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (g *GoogleSheet) AppendRow(ctx context.Context, values []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(values)}}
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, quoteTitle(g.title), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// rowRange builds the A1 range for the five editable columns of a row.
func rowRange(title string, row int) string {
	return fmt.Sprintf("%s!B%d:F%d", quoteTitle(title), row, row)
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
