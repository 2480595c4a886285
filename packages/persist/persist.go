// Package persist stores spreadsheets as XML documents or XLSX workbooks.
package persist

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

var (
	// ErrRead means the stored document is not a consistent spreadsheet
	// under its own name pattern: malformed file, invalid pattern, invalid
	// name or formula, duplicate cell, or a circular dependency.
	ErrRead = errors.New("spreadsheet read error")

	// ErrVersion means the document is consistent but some name or formula
	// is not acceptable to the name policy it is being opened with.
	ErrVersion = errors.New("spreadsheet version error")
)

// Record is one stored cell. Value is the computed value at save time and
// is written for human readers only; it is ignored when reading.
type Record struct {
	Name     string
	Contents string
	Value    string
}

// Document is the storage form of a spreadsheet: the textual name pattern
// it was validated with and its non-empty cells.
type Document struct {
	IsValid string
	Cells   []Record
}

// Codec encodes and decodes documents in one storage format
type Codec interface {
	Encode(w io.Writer, doc *Document) error
	Decode(r io.Reader) (*Document, error)
}

// FromSpreadsheet captures the cells of s, sorted by name
func FromSpreadsheet(s *spreadsheet.Spreadsheet) *Document {
	exported := s.Export()
	doc := &Document{
		IsValid: s.ValidatorDescription(),
		Cells:   make([]Record, 0, len(exported)),
	}
	for _, record := range exported {
		value, _ := s.GetCellValue(record.Name)
		doc.Cells = append(doc.Cells, Record{
			Name:     record.Name,
			Contents: record.Contents,
			Value:    spreadsheet.FormatPrimitive(value),
		})
	}
	return doc
}

// Read rebuilds a spreadsheet from doc. the cells are first loaded under
// the document's own IsValid pattern; any failure there is ErrRead. they
// are then loaded again under policy, and a failure there is ErrVersion.
// opts configure both loads (normalizer, logger); the returned
// spreadsheet uses policy and is not marked changed.
func Read(doc *Document, policy spreadsheet.NamePolicy, opts ...spreadsheet.Option) (*spreadsheet.Spreadsheet, error) {
	stored, err := spreadsheet.PatternPolicy(doc.IsValid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	records := make([]spreadsheet.CellRecord, 0, len(doc.Cells))
	for _, cell := range doc.Cells {
		records = append(records, spreadsheet.CellRecord{Name: cell.Name, Contents: cell.Contents})
	}

	old := spreadsheet.NewSpreadsheet(slices.Concat(opts, []spreadsheet.Option{spreadsheet.WithNamePolicy(stored)})...)
	if err := old.Load(records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	s := spreadsheet.NewSpreadsheet(slices.Concat(opts, []spreadsheet.Option{spreadsheet.WithNamePolicy(policy)})...)
	if err := s.Load(records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVersion, err)
	}
	s.MarkSaved()
	return s, nil
}

// Write encodes s with codec
func Write(w io.Writer, codec Codec, s *spreadsheet.Spreadsheet) error {
	return codec.Encode(w, FromSpreadsheet(s))
}
