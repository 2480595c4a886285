package persist

import (
	"encoding/xml"
	"fmt"
	"io"
)

// XMLCodec reads and writes the native document format:
//
//	<spreadsheet IsValid="pattern">
//	  <cell name="A1" contents="=B1*2"/>
//	</spreadsheet>
type XMLCodec struct{}

type xmlSpreadsheet struct {
	XMLName xml.Name  `xml:"spreadsheet"`
	IsValid string    `xml:"IsValid,attr"`
	Cells   []xmlCell `xml:"cell"`
}

type xmlCell struct {
	Name     string `xml:"name,attr"`
	Contents string `xml:"contents,attr"`
}

func (XMLCodec) Encode(w io.Writer, doc *Document) error {
	x := xmlSpreadsheet{
		IsValid: doc.IsValid,
		Cells:   make([]xmlCell, 0, len(doc.Cells)),
	}
	for _, cell := range doc.Cells {
		x.Cells = append(x.Cells, xmlCell{Name: cell.Name, Contents: cell.Contents})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return fmt.Errorf("encoding spreadsheet: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding spreadsheet: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (XMLCodec) Decode(r io.Reader) (*Document, error) {
	var x xmlSpreadsheet
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, fmt.Errorf("%w: decoding xml: %w", ErrRead, err)
	}

	doc := &Document{
		IsValid: x.IsValid,
		Cells:   make([]Record, 0, len(x.Cells)),
	}
	for _, cell := range x.Cells {
		doc.Cells = append(doc.Cells, Record{Name: cell.Name, Contents: cell.Contents})
	}
	return doc, nil
}
