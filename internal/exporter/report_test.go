package exporter

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockwatch/pkg/contracts/domain"
)

func newTestReporter(t *testing.T) (*Reporter, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewReporter(dir, logger), dir
}

func sampleRows() []ClosingRow {
	return []ClosingRow{
		{Name: "台積電", Stats: domain.DailyStats{
			Symbol: "2330", Date: "2026-08-28",
			Open: 570, Close: 580, High: 582, Low: 568, Volume: 20000, MA20: 560,
		}},
		{Name: "鴻海", Stats: domain.DailyStats{
			Symbol: "2317", Date: "2026-08-28",
			Open: 110, Close: 108, High: 111, Low: 107, Volume: 50000, MA20: 112,
		}},
		{Name: "新股", Stats: domain.DailyStats{
			Symbol: "9999", Date: "2026-08-28",
			Open: 50, Close: 50, High: 51, Low: 49, Volume: 100,
		}},
	}
}

func TestWriteClosingReport(t *testing.T) {
	r, dir := newTestReporter(t)

	path, err := r.WriteClosingReport("2026-08-28", sampleRows(), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "closing_2026-08-28.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(closingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "名稱", rows[0][0])
	assert.Equal(t, "成交量", rows[0][8])
	assert.Equal(t, "台積電", rows[1][0])
	assert.Equal(t, "2330", rows[1][1])
	assert.Equal(t, "+1.75", rows[1][6])
	assert.Equal(t, ma20Above, rows[1][7])
	assert.Equal(t, "20000", rows[1][8])

	assert.Equal(t, "2317", rows[2][1])
	assert.Equal(t, "-1.82", rows[2][6])
	assert.Equal(t, ma20Below, rows[2][7])
	assert.Equal(t, "50000", rows[2][8])

	// No MA20 history renders the placeholder.
	assert.Equal(t, ma20Unknown, rows[3][7])

	// No holdings, no second sheet.
	_, err = f.GetRows(holdingsSheet)
	assert.Error(t, err)
}

func TestWriteClosingReport_HoldingsSheet(t *testing.T) {
	r, _ := newTestReporter(t)

	holdings := []domain.HoldingRecord{
		{Symbol: "2330", Name: "台積電", Quantity: 1000, AvgPrice: 605.5, Profit: 2500},
		{Symbol: "056303", Name: domain.UnknownName, Quantity: 5000, AvgPrice: 1.2, Profit: -150},
	}

	path, err := r.WriteClosingReport("2026-08-28", sampleRows(), holdings)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(holdingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"代號", "名稱", "股數", "均價", "損益"}, rows[0])
	assert.Equal(t, "2330", rows[1][0])
	assert.Equal(t, "台積電", rows[1][1])
	assert.Equal(t, "1000", rows[1][2])
	assert.Equal(t, "605.5", rows[1][3])
	assert.Equal(t, "2500", rows[1][4])
	assert.Equal(t, "-150", rows[2][4])
}

func TestWriteClosingReport_Empty(t *testing.T) {
	r, _ := newTestReporter(t)
	path, err := r.WriteClosingReport("2026-08-28", nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(closingSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only the header row")
}

func TestWriteClosingCSV(t *testing.T) {
	r, dir := newTestReporter(t)

	path, err := r.WriteClosingCSV("2026-08-28", sampleRows())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "closing_2026-08-28.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)

	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"), "UTF-8 BOM expected")
	assert.Contains(t, body, "name,symbol,open,close,high,low,change_pct,ma20_status,volume")
	assert.Contains(t, body, "台積電,2330,570,580,582,568,+1.75,站上 MA20,20000")
	assert.Contains(t, body, "鴻海,2317,110,108,111,107,-1.82,跌破 MA20,50000")
}

func TestExportHoldingsCSV(t *testing.T) {
	r, dir := newTestReporter(t)

	records := []domain.HoldingRecord{
		{Symbol: "2330", Name: "台積電", Quantity: 100, AvgPrice: 550.5, Profit: 1000},
		{Symbol: "056303", Name: domain.UnknownName, Quantity: 5000, AvgPrice: 1.2, Profit: -150},
	}

	path, err := r.ExportHoldingsCSV("holdings.csv", records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "holdings.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, "2330,台積電,100,550.5,1000")
	assert.Contains(t, body, "056303,"+domain.UnknownName+",5000,1.2,-150")
}

func TestCSVWriter_Append(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV("log.csv", []string{"a", "b"}, [][]string{{"1", "2"}}))
	require.NoError(t, w.AppendToCSV("log.csv", [][]string{{"3", "4"}}))

	data, err := os.ReadFile(filepath.Join(dir, "log.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1,2")
	assert.Contains(t, string(data), "3,4")
}

func TestCSVWriter_CreatesNestedDir(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)

	require.NoError(t, w.WriteSimpleCSV(filepath.Join("sub", "out.csv"), []string{"x"}, nil))
	_, err := os.Stat(filepath.Join(dir, "sub", "out.csv"))
	assert.NoError(t, err)
}

func TestMA20Status(t *testing.T) {
	assert.Equal(t, ma20Above, ma20Status(domain.DailyStats{Close: 100, MA20: 90}))
	assert.Equal(t, ma20Below, ma20Status(domain.DailyStats{Close: 80, MA20: 90}))
	assert.Equal(t, ma20Unknown, ma20Status(domain.DailyStats{Close: 100}))
}
