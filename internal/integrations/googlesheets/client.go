package googlesheets

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetWriter replaces the content of a spreadsheet range.
type SheetWriter interface {
	WriteRange(ctx context.Context, spreadsheetID, writeRange string, rows [][]interface{}) error
}

type Client struct {
	sheetsService *sheets.Service
	logger        *zap.Logger
}

// LoadCredentials returns the service account JSON from the environment
// value when set, or from credentialsFile otherwise.
func LoadCredentials(credentialsJSON, credentialsFile string) ([]byte, error) {
	if credentialsJSON != "" {
		return []byte(credentialsJSON), nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read Google credentials file: %w", err)
	}
	return b, nil
}

func NewClient(ctx context.Context, credentialsJSON []byte, logger *zap.Logger) (*Client, error) {
	credentials, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to load Google credentials: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, credentials.TokenSource)
	return NewClientWithOptions(ctx, logger, option.WithHTTPClient(httpClient))
}

func NewClientWithOptions(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Google Sheets client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{sheetsService: sheetsService, logger: logger}, nil
}

// WriteRange clears writeRange and writes rows into it as raw values.
func (c *Client) WriteRange(ctx context.Context, spreadsheetID, writeRange string, rows [][]interface{}) error {
	_, err := c.sheetsService.Spreadsheets.Values.
		Clear(spreadsheetID, writeRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to clear sheet range %s: %w", writeRange, err)
	}

	resp, err := c.sheetsService.Spreadsheets.Values.
		Update(spreadsheetID, writeRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to write sheet range %s: %w", writeRange, err)
	}

	c.logger.Info("Sheet range written",
		zap.String("range", resp.UpdatedRange),
		zap.Int64("rows", resp.UpdatedRows),
	)
	return nil
}

func (c *Client) ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := c.sheetsService.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet range %s: %w", readRange, err)
	}

	return resp.Values, nil
}
