// Package report exports the merged inventory projection to a spreadsheet.
package report

import (
	"context"
	"errors"
	"strings"

	"equiphouse/internal/integrations/googlesheets"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

const DefaultRange = "Inventory!A1"

var ErrNotConfigured = errors.New("report spreadsheet is not configured")

var header = []interface{}{
	"Name", "Foreign name", "Source", "Category", "Quantity", "Available",
	"Unit", "Types", "Subtypes", "Serial codes",
}

type Loader interface {
	LoadAll(ctx context.Context, useCache bool) []models.EquipmentDisplay
}

type Exporter struct {
	loader        Loader
	writer        googlesheets.SheetWriter
	spreadsheetID string
	logger        *zap.Logger
}

func NewExporter(loader Loader, writer googlesheets.SheetWriter, spreadsheetID string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		loader:        loader,
		writer:        writer,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}
}

// Export writes a fresh snapshot of the inventory to sheetRange and returns
// the number of item rows written.
func (e *Exporter) Export(ctx context.Context, sheetRange string) (int, error) {
	if e.writer == nil || e.spreadsheetID == "" {
		return 0, ErrNotConfigured
	}
	if sheetRange == "" {
		sheetRange = DefaultRange
	}

	items := e.loader.LoadAll(ctx, false)
	if err := e.writer.WriteRange(ctx, e.spreadsheetID, sheetRange, BuildRows(items)); err != nil {
		return 0, err
	}

	e.logger.Info("Inventory report exported", zap.Int("items", len(items)), zap.String("range", sheetRange))
	return len(items), nil
}

// BuildRows renders one header row and one row per display item. Serial
// codes are listed for assets only.
func BuildRows(items []models.EquipmentDisplay) [][]interface{} {
	rows := make([][]interface{}, 0, len(items)+1)
	rows = append(rows, header)

	for _, item := range items {
		serials := make([]string, 0, len(item.Instances))
		for _, instance := range item.Instances {
			serials = append(serials, instance.SerialCode)
		}

		rows = append(rows, []interface{}{
			item.Name,
			item.NameForeign,
			string(item.Source),
			string(item.Category),
			item.Quantity,
			item.Available,
			item.Unit,
			strings.Join(item.EquipmentTypes, ", "),
			strings.Join(item.EquipmentSubTypes, ", "),
			strings.Join(serials, ", "),
		})
	}

	return rows
}
