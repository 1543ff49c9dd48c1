package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockinfo/internal/aggregate"
	"stockinfo/internal/attribute"
	"stockinfo/internal/market"
	"stockinfo/internal/provider"
)

func ptr(v float64) *float64 { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleBatch() (aggregate.Batch, aggregate.Request) {
	jst := time.FixedZone("JST", 9*3600)
	req := aggregate.Request{Price: true, EPS: true, BPS: true, Dividends: true, Yield: true}
	return aggregate.Batch{
		{
			Code: "7203", Market: market.Domestic, Ticker: "7203.T", Request: req,
			Price: ptr(2500), EPS: ptr(120.5), BPS: ptr(3000),
			Dividends: &provider.DividendSeries{Location: jst, Events: []provider.Dividend{
				{PayDate: time.Date(2024, 3, 27, 15, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(30)},
				{PayDate: time.Date(2024, 9, 26, 15, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("45.5")},
			}},
			Yield:   dec("3"),
			Sources: map[attribute.Name]string{attribute.EPS: "epsTrailingTwelveMonths"},
		},
		{
			Code: "AAPL", Market: market.Foreign, Ticker: "AAPL", Request: req,
			Price:     ptr(190.25),
			Dividends: &provider.DividendSeries{},
			Issues:    []error{&attribute.UnavailableError{Attribute: attribute.EPS, Ticker: "AAPL", Err: attribute.ErrNoData}},
		},
		{
			Code: "ZZZZ", Market: market.Foreign, Ticker: "ZZZZ", Request: req,
			Err: &aggregate.ResolutionError{Code: "ZZZZ", Err: errors.New("boom")},
		},
	}, req
}

func TestConsole_OneBlockPerRecord(t *testing.T) {
	batch, _ := sampleBatch()
	var buf bytes.Buffer
	require.NoError(t, Console(&buf, batch))
	out := buf.String()

	require.Equal(t, 3, strings.Count(out, "=== "))
	i1 := strings.Index(out, "=== 7203 (domestic) ===")
	i2 := strings.Index(out, "=== AAPL (foreign) ===")
	i3 := strings.Index(out, "=== ZZZZ (foreign) ===")
	require.True(t, i1 >= 0 && i1 < i2 && i2 < i3, out)

	require.Contains(t, out, "  Price: 2500\n")
	require.Contains(t, out, "  EPS: 120.5\n")
	require.Contains(t, out, "  Yield: 3.00%\n")
	// Pay dates are shown in the series timezone.
	require.Contains(t, out, "    2024-03-28  30\n")
	require.Contains(t, out, "    2024-09-27  45.5\n")

	aapl := out[i2:i3]
	require.Contains(t, aapl, "  EPS: unavailable\n")
	require.Contains(t, aapl, "  Dividends:\n    <no data>\n")
	require.Contains(t, aapl, "  Yield: unavailable\n")

	zzzz := out[i3:]
	require.Contains(t, zzzz, "  Dividends: unavailable\n")
	require.Contains(t, zzzz, "  Error: resolve ZZZZ: boom\n")
}

func TestConsole_OnlyRequestedLines(t *testing.T) {
	batch := aggregate.Batch{{Code: "7203", Market: market.Domestic, Request: aggregate.Request{EPS: true}, EPS: ptr(1)}}
	var buf bytes.Buffer
	require.NoError(t, Console(&buf, batch))
	require.Equal(t, "\n=== 7203 (domestic) ===\n  EPS: 1\n", buf.String())
}

func TestWriteCSV_ColumnsAndNoDividends(t *testing.T) {
	batch, req := sampleBatch()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, batch, req))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Code", "Market", "Price", "EPS", "BPS", "Yield"}, rows[0])
	require.Equal(t, []string{"7203", "domestic", "2500", "120.5", "3000", "3.00"}, rows[1])
	require.Equal(t, []string{"AAPL", "foreign", "190.25", "", "", ""}, rows[2])
	require.Equal(t, []string{"ZZZZ", "foreign", "", "", "", ""}, rows[3])
}

func TestColumns_RequestedOrder(t *testing.T) {
	require.Equal(t, []string{"Code", "Market", "BPS", "Yield"}, Columns(aggregate.Request{Yield: true, BPS: true, Dividends: true}))
	require.Equal(t, []string{"Code", "Market"}, Columns(aggregate.Request{Dividends: true}))
}

func TestWriteJSON_NullForUnavailableOmittedWhenNotRequested(t *testing.T) {
	batch, _ := sampleBatch()
	batch = append(batch, aggregate.Record{Code: "6758", Market: market.Domestic, Request: aggregate.Request{Price: true}, Price: ptr(13000)})

	var buf bytes.Buffer
	at := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, WriteJSON(&buf, batch, at))
	// Decimals are written as JSON numbers, not strings.
	require.Contains(t, buf.String(), `"yield": 3.00`)
	require.Contains(t, buf.String(), `"amount": 45.5`)

	var doc struct {
		GeneratedAt time.Time        `json:"generated_at"`
		Records     []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.True(t, at.Equal(doc.GeneratedAt))
	require.Len(t, doc.Records, 4)

	toyota := doc.Records[0]
	require.Equal(t, 2500.0, toyota["price"])
	require.Equal(t, "epsTrailingTwelveMonths", toyota["sources"].(map[string]any)["EPS"])
	divs := toyota["dividends"].([]any)
	require.Len(t, divs, 2)
	require.Equal(t, "2024-03-28", divs[0].(map[string]any)["pay_date"])
	require.Equal(t, 3.0, toyota["yield"])

	aapl := doc.Records[1]
	require.Contains(t, aapl, "eps")
	require.Nil(t, aapl["eps"])
	require.Equal(t, []any{}, aapl["dividends"])
	require.Len(t, aapl["issues"], 1)

	require.Equal(t, "resolve ZZZZ: boom", doc.Records[2]["error"])
	require.Nil(t, doc.Records[2]["dividends"])

	sony := doc.Records[3]
	require.NotContains(t, sony, "eps")
	require.NotContains(t, sony, "dividends")
}

func TestSaveCSV(t *testing.T) {
	batch, req := sampleBatch()
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveCSV(path, batch, req))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(b), "Code,Market,Price,EPS,BPS,Yield\n"))
	require.NotContains(t, string(b), "Dividends")
}

func TestSave_ReportsExportError(t *testing.T) {
	batch, req := sampleBatch()
	path := filepath.Join(t.TempDir(), "missing", "out.csv")

	err := SaveCSV(path, batch, req)
	var ee *ExportError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, path, ee.Path)
	require.ErrorIs(t, err, os.ErrNotExist)

	err = SaveJSON(path, batch, time.Now())
	require.ErrorAs(t, err, &ee)
}

func TestWriteCSV_YieldKeepsTwoDecimals(t *testing.T) {
	req := aggregate.Request{Yield: true}
	batch := aggregate.Batch{
		{Code: "7203", Market: market.Domestic, Request: req, Yield: dec("2.5")},
		{Code: "8306", Market: market.Domestic, Request: req, Yield: dec("0")},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, batch, req))
	require.Equal(t, "Code,Market,Yield\n7203,domestic,2.50\n8306,domestic,0.00\n", buf.String())

	buf.Reset()
	require.NoError(t, Console(&buf, batch))
	require.Contains(t, buf.String(), "  Yield: 2.50%\n")
	require.Contains(t, buf.String(), "  Yield: 0.00%\n")
}
