// Package report summarizes the computed values of a spreadsheet.
package report

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// Summary describes a spreadsheet's values. the statistics cover numeric
// values only and are zero when there are none.
type Summary struct {
	Cells   int `json:"cells"`
	Numbers int `json:"numbers"`
	Text    int `json:"text"`
	Errors  int `json:"errors"`

	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`

	// ErrorCells lists the cells holding an evaluation error, sorted
	ErrorCells []string `json:"error_cells,omitempty"`
}

// Summarize walks every non-empty cell of s
func Summarize(s *spreadsheet.Spreadsheet) (Summary, error) {
	var (
		summary Summary
		data    stats.Float64Data
	)

	for _, name := range s.GetNonemptyCellNames() {
		value, err := s.GetCellValue(name)
		if err != nil {
			return summary, err
		}
		summary.Cells++

		switch v := value.(type) {
		case float64:
			summary.Numbers++
			data = append(data, v)
		case *spreadsheet.EvaluationError:
			summary.Errors++
			summary.ErrorCells = append(summary.ErrorCells, name)
		default:
			summary.Text++
		}
	}

	if len(data) == 0 {
		return summary, nil
	}

	var err error
	if summary.Sum, err = stats.Sum(data); err != nil {
		return summary, err
	}
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, err
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, err
	}
	if summary.StdDev, err = stats.StandardDeviation(data); err != nil {
		return summary, err
	}
	return summary, nil
}

// WriteText renders the summary for people, with numbers formatted for
// tag (e.g. language.English groups thousands with commas)
func (s Summary) WriteText(w io.Writer, tag language.Tag) error {
	p := message.NewPrinter(tag)

	lines := []string{
		p.Sprintf("cells:   %d (%d numbers, %d text, %d errors)", s.Cells, s.Numbers, s.Text, s.Errors),
	}
	if s.Numbers > 0 {
		lines = append(lines,
			p.Sprintf("sum:     %v", s.Sum),
			p.Sprintf("mean:    %v", s.Mean),
			p.Sprintf("median:  %v", s.Median),
			p.Sprintf("min:     %v", s.Min),
			p.Sprintf("max:     %v", s.Max),
			p.Sprintf("stddev:  %.4f", s.StdDev),
		)
	}
	for _, name := range s.ErrorCells {
		lines = append(lines, "error:   "+name)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
