package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/abhisek/cogdistort/internal/inference"
)

var csvHeader = []string{"text", "label", "confidence"}

// FormatConfidence renders a confidence with two decimals, or "" when absent.
func FormatConfidence(c *float64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatFloat(*c, 'f', 2, 64)
}

// WriteCSV writes results with a text,label,confidence header.
func WriteCSV(w io.Writer, results []inference.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range results {
		if err := cw.Write([]string{r.Text, r.Label, FormatConfidence(r.Confidence)}); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes results to path, replacing any existing file.
func WriteCSVFile(path string, results []inference.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return WriteCSV(f, results)
}

// WriteJSON writes results as an indented JSON array. Absent confidence is
// null.
func WriteJSON(w io.Writer, results []inference.Result) error {
	if results == nil {
		results = []inference.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}
