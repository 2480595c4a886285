package persist

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	cellsSheet = "Cells"
	metaSheet  = "Meta"
	isValidKey = "IsValid"
)

var xlsxHeader = []interface{}{"Name", "Contents", "Value"}

// XLSXCodec stores a document as a workbook. the Cells sheet has one row
// per cell (name, contents, value) under a header row; the Meta sheet
// holds the IsValid pattern in B1. contents are always written as text so
// formulas stay in this package's syntax.
type XLSXCodec struct{}

func (XLSXCodec) Encode(w io.Writer, doc *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", cellsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if err := f.SetSheetRow(cellsSheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, cell := range doc.Cells {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{cell.Name, cell.Contents, cell.Value}
		if err := f.SetSheetRow(cellsSheet, addr, &row); err != nil {
			return fmt.Errorf("writing cell %s: %w", cell.Name, err)
		}
	}
	if err := f.SetColWidth(cellsSheet, "B", "C", 24); err != nil {
		return err
	}

	if _, err := f.NewSheet(metaSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", metaSheet, err)
	}
	if err := f.SetCellStr(metaSheet, "A1", isValidKey); err != nil {
		return err
	}
	if err := f.SetCellStr(metaSheet, "B1", doc.IsValid); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (XLSXCodec) Decode(r io.Reader) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %w", ErrRead, err)
	}
	defer f.Close()

	key, err := f.GetCellValue(metaSheet, "A1")
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s sheet: %w", ErrRead, metaSheet, err)
	}
	if key != isValidKey {
		return nil, fmt.Errorf("%w: %s sheet has no %s entry", ErrRead, metaSheet, isValidKey)
	}
	isValid, err := f.GetCellValue(metaSheet, "B1")
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s sheet: %w", ErrRead, metaSheet, err)
	}

	rows, err := f.GetRows(cellsSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s sheet: %w", ErrRead, cellsSheet, err)
	}

	doc := &Document{IsValid: isValid}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // header, blank rows
		}
		record := Record{Name: row[0]}
		if len(row) > 1 {
			record.Contents = row[1]
		}
		if len(row) > 2 {
			record.Value = row[2]
		}
		doc.Cells = append(doc.Cells, record)
	}
	return doc, nil
}
