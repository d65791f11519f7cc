package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"stockwatch/pkg/contracts/domain"
)

const (
	closingSheet  = "Closing"
	holdingsSheet = "Holdings"
)

// MA20 status labels shown in the closing report.
const (
	ma20Above   = "站上 MA20"
	ma20Below   = "跌破 MA20"
	ma20Unknown = "---"
)

// ClosingRow is one instrument in the daily closing report.
type ClosingRow struct {
	Name  string
	Stats domain.DailyStats
}

// Reporter renders closing reports and holdings exports.
type Reporter struct {
	csv        *CSVWriter
	reportsDir string
	logger     *slog.Logger
}

// NewReporter creates a reporter writing under reportsDir.
func NewReporter(reportsDir string, logger *slog.Logger) *Reporter {
	return &Reporter{
		csv:        NewCSVWriter(reportsDir),
		reportsDir: reportsDir,
		logger:     logger.With(slog.String("component", "exporter")),
	}
}

// WriteClosingReport writes the daily closing summary as an Excel
// workbook and returns its path. Rising closes are styled red and falling
// closes green, following Taiwan market convention. A non-empty holdings
// snapshot is written to a second sheet.
func (r *Reporter) WriteClosingReport(date string, rows []ClosingRow, holdings []domain.HoldingRecord) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), closingSheet); err != nil {
		return "", fmt.Errorf("name sheet: %w", err)
	}

	headers := []string{"名稱", "代號", "開盤", "收盤", "最高", "最低", "漲跌幅 (%)", "MA20 狀態", "成交量"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(closingSheet, cell, h); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
	}

	upStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "CC0000", Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create up style: %w", err)
	}
	downStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "008800", Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create down style: %w", err)
	}

	for i, row := range rows {
		rowIdx := i + 2
		stats := row.Stats
		change := stats.ChangePercent()

		values := []interface{}{
			row.Name,
			stats.Symbol,
			stats.Open,
			stats.Close,
			stats.High,
			stats.Low,
			fmt.Sprintf("%+.2f", change),
			ma20Status(stats),
			stats.Volume,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return "", fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(closingSheet, cell, v); err != nil {
				return "", fmt.Errorf("write row %d: %w", rowIdx, err)
			}
		}

		changeCell, _ := excelize.CoordinatesToCellName(7, rowIdx)
		if change > 0 {
			f.SetCellStyle(closingSheet, changeCell, changeCell, upStyle)
		} else if change < 0 {
			f.SetCellStyle(closingSheet, changeCell, changeCell, downStyle)
		}
	}

	if len(holdings) > 0 {
		if err := writeHoldingsSheet(f, holdings, upStyle, downStyle); err != nil {
			return "", err
		}
	}

	path := filepath.Join(r.reportsDir, fmt.Sprintf("closing_%s.xlsx", date))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save closing report: %w", err)
	}

	r.logger.Info("closing report written",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Int("holdings", len(holdings)))
	return path, nil
}

// writeHoldingsSheet appends the holdings snapshot as a second sheet, with
// profit cells styled by sign.
func writeHoldingsSheet(f *excelize.File, holdings []domain.HoldingRecord, upStyle, downStyle int) error {
	if _, err := f.NewSheet(holdingsSheet); err != nil {
		return fmt.Errorf("create holdings sheet: %w", err)
	}

	headers := []string{"代號", "名稱", "股數", "均價", "損益"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("holdings header cell: %w", err)
		}
		if err := f.SetCellValue(holdingsSheet, cell, h); err != nil {
			return fmt.Errorf("write holdings header: %w", err)
		}
	}

	for i, rec := range holdings {
		rowIdx := i + 2
		values := []interface{}{rec.Symbol, rec.Name, rec.Quantity, rec.AvgPrice, rec.Profit}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return fmt.Errorf("holdings cell: %w", err)
			}
			if err := f.SetCellValue(holdingsSheet, cell, v); err != nil {
				return fmt.Errorf("write holdings row %d: %w", rowIdx, err)
			}
		}

		profitCell, _ := excelize.CoordinatesToCellName(5, rowIdx)
		if rec.Profit > 0 {
			f.SetCellStyle(holdingsSheet, profitCell, profitCell, upStyle)
		} else if rec.Profit < 0 {
			f.SetCellStyle(holdingsSheet, profitCell, profitCell, downStyle)
		}
	}

	return nil
}

// WriteClosingCSV writes the same closing summary as CSV, mainly for
// downstream tooling.
func (r *Reporter) WriteClosingCSV(date string, rows []ClosingRow) (string, error) {
	headers := []string{"name", "symbol", "open", "close", "high", "low", "change_pct", "ma20_status", "volume"}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		stats := row.Stats
		records = append(records, []string{
			row.Name,
			stats.Symbol,
			formatFloat(stats.Open),
			formatFloat(stats.Close),
			formatFloat(stats.High),
			formatFloat(stats.Low),
			fmt.Sprintf("%+.2f", stats.ChangePercent()),
			ma20Status(stats),
			strconv.FormatInt(stats.Volume, 10),
		})
	}

	fileName := fmt.Sprintf("closing_%s.csv", date)
	if err := r.csv.WriteSimpleCSV(fileName, headers, records); err != nil {
		return "", err
	}
	return filepath.Join(r.reportsDir, fileName), nil
}

// ExportHoldingsCSV writes the current holdings snapshot.
func (r *Reporter) ExportHoldingsCSV(fileName string, records []domain.HoldingRecord) (string, error) {
	headers := []string{"symbol", "name", "quantity", "avg_price", "profit"}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Symbol,
			rec.Name,
			strconv.FormatInt(rec.Quantity, 10),
			formatFloat(rec.AvgPrice),
			strconv.FormatInt(rec.Profit, 10),
		})
	}

	if err := r.csv.WriteSimpleCSV(fileName, headers, rows); err != nil {
		return "", err
	}
	return filepath.Join(r.reportsDir, fileName), nil
}

func ma20Status(stats domain.DailyStats) string {
	if stats.MA20 == 0 {
		return ma20Unknown
	}
	if stats.AboveMA20() {
		return ma20Above
	}
	return ma20Below
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
