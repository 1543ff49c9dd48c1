// Package report renders aggregated records to the console, CSV and JSON.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"stockinfo/internal/aggregate"
	"stockinfo/internal/attribute"
	"stockinfo/internal/provider"
)

const (
	unavailable = "unavailable"
	noData      = "<no data>"
	dateLayout  = "2006-01-02"
)

// ExportError reports an export file that could not be written.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Console writes one block per record, in batch order. Each requested attribute
// gets one line; unavailable values are marked explicitly.
func Console(w io.Writer, batch aggregate.Batch) error {
	bw := bufio.NewWriter(w)
	for i := range batch {
		rec := &batch[i]
		fmt.Fprintf(bw, "\n=== %s (%s) ===\n", rec.Code, rec.Market)
		req := rec.Request
		if req.Price {
			fmt.Fprintf(bw, "  Price: %s\n", scalar(rec.Price))
		}
		if req.EPS {
			fmt.Fprintf(bw, "  EPS: %s\n", scalar(rec.EPS))
		}
		if req.BPS {
			fmt.Fprintf(bw, "  BPS: %s\n", scalar(rec.BPS))
		}
		if req.Dividends {
			writeDividends(bw, rec.Dividends)
		}
		if req.Yield {
			if rec.Yield == nil {
				fmt.Fprintf(bw, "  Yield: %s\n", unavailable)
			} else {
				fmt.Fprintf(bw, "  Yield: %s%%\n", rec.Yield.StringFixed(2))
			}
		}
		if rec.Err != nil {
			fmt.Fprintf(bw, "  Error: %v\n", rec.Err)
		}
	}
	return bw.Flush()
}

func writeDividends(w io.Writer, s *provider.DividendSeries) {
	if s == nil {
		fmt.Fprintf(w, "  Dividends: %s\n", unavailable)
		return
	}
	fmt.Fprintln(w, "  Dividends:")
	if s.Len() == 0 {
		fmt.Fprintf(w, "    %s\n", noData)
		return
	}
	fmt.Fprintf(w, "    %-10s  %s\n", "PayDate", "Dividend")
	for _, d := range s.Events {
		fmt.Fprintf(w, "    %-10s  %s\n", d.PayDate.In(location(s)).Format(dateLayout), d.Amount.String())
	}
}

func location(s *provider.DividendSeries) *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func scalar(v *float64) string {
	if v == nil {
		return unavailable
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Columns returns the CSV header for req: Code, Market, then the requested
// scalar attributes in Price, EPS, BPS, Yield order. Dividends never appear.
func Columns(req aggregate.Request) []string {
	cols := []string{"Code", "Market"}
	for _, n := range req.Scalars() {
		cols = append(cols, columnName(n))
	}
	return cols
}

func columnName(n attribute.Name) string {
	switch n {
	case attribute.Price:
		return "Price"
	case attribute.EPS:
		return "EPS"
	case attribute.BPS:
		return "BPS"
	case attribute.Yield:
		return "Yield"
	}
	return string(n)
}

// WriteCSV writes one row per record. Unavailable values are empty cells.
func WriteCSV(w io.Writer, batch aggregate.Batch, req aggregate.Request) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(req)); err != nil {
		return err
	}
	scalars := req.Scalars()
	for i := range batch {
		rec := &batch[i]
		row := make([]string, 0, 2+len(scalars))
		row = append(row, rec.Code, rec.Market.String())
		for _, n := range scalars {
			row = append(row, cell(rec, n))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cell renders one CSV value; Yield keeps its 2 decimals.
func cell(rec *aggregate.Record, n attribute.Name) string {
	if n == attribute.Yield {
		if rec.Yield == nil {
			return ""
		}
		return rec.Yield.StringFixed(2)
	}
	if v := rec.Value(n); v != nil {
		return formatFloat(*v)
	}
	return ""
}

// Entry is the JSON shape of one record. Attributes that were not requested
// are omitted; requested but unavailable ones are null.
type Entry map[string]any

// Document is the JSON export and the HTTP API response body.
type Document struct {
	GeneratedAt time.Time `json:"generated_at"`
	Records     []Entry   `json:"records"`
}

// NewDocument converts a batch into its JSON shape.
func NewDocument(batch aggregate.Batch, at time.Time) Document {
	doc := Document{GeneratedAt: at, Records: make([]Entry, 0, len(batch))}
	for i := range batch {
		doc.Records = append(doc.Records, entry(&batch[i]))
	}
	return doc
}

func entry(rec *aggregate.Record) Entry {
	e := Entry{
		"code":   rec.Code,
		"market": rec.Market.String(),
		"ticker": rec.Ticker,
	}
	req := rec.Request
	if req.Price {
		e["price"] = rec.Price
	}
	if req.EPS {
		e["eps"] = rec.EPS
	}
	if req.BPS {
		e["bps"] = rec.BPS
	}
	if req.Dividends {
		if rec.Dividends == nil {
			e["dividends"] = nil
		} else {
			events := make([]dividendJSON, 0, rec.Dividends.Len())
			loc := location(rec.Dividends)
			for _, d := range rec.Dividends.Events {
				events = append(events, dividendJSON{PayDate: d.PayDate.In(loc).Format(dateLayout), Amount: json.Number(d.Amount.String())})
			}
			e["dividends"] = events
		}
	}
	if req.Yield {
		if rec.Yield == nil {
			e["yield"] = nil
		} else {
			e["yield"] = json.Number(rec.Yield.StringFixed(2))
		}
	}
	if len(rec.Sources) > 0 {
		e["sources"] = rec.Sources
	}
	if len(rec.Issues) > 0 {
		issues := make([]string, 0, len(rec.Issues))
		for _, err := range rec.Issues {
			issues = append(issues, err.Error())
		}
		e["issues"] = issues
	}
	if rec.Err != nil {
		e["error"] = rec.Err.Error()
	}
	return e
}

type dividendJSON struct {
	PayDate string      `json:"pay_date"`
	Amount  json.Number `json:"amount"`
}

// WriteJSON writes the full document including dividend history.
func WriteJSON(w io.Writer, batch aggregate.Batch, at time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(batch, at))
}

// SaveCSV writes the CSV export to path.
func SaveCSV(path string, batch aggregate.Batch, req aggregate.Request) error {
	return save(path, func(w io.Writer) error { return WriteCSV(w, batch, req) })
}

// SaveJSON writes the JSON export to path.
func SaveJSON(path string, batch aggregate.Batch, at time.Time) error {
	return save(path, func(w io.Writer) error { return WriteJSON(w, batch, at) })
}

func save(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &ExportError{Path: path, Err: cerr}
		}
	}()
	if err := write(f); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}
