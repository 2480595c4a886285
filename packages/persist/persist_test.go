package persist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func newTestSpreadsheet(t *testing.T) *spreadsheet.Spreadsheet {
	t.Helper()
	s := spreadsheet.NewSpreadsheet()
	require.NoError(t, s.Load([]spreadsheet.CellRecord{
		{Name: "A1", Contents: "2"},
		{Name: "B1", Contents: "=A1*3"},
		{Name: "C1", Contents: "total"},
		{Name: "D1", Contents: "=Z1+1"},
	}))
	return s
}

func TestFromSpreadsheet(t *testing.T) {
	doc := FromSpreadsheet(newTestSpreadsheet(t))
	assert.Equal(t, spreadsheet.CellNamePattern, doc.IsValid)
	assert.Equal(t, []Record{
		{Name: "A1", Contents: "2", Value: "2"},
		{Name: "B1", Contents: "=A1*3", Value: "6"},
		{Name: "C1", Contents: "total", Value: "total"},
		{Name: "D1", Contents: "=Z1+1", Value: "#NAME?"},
	}, doc.Cells)
}

func TestReadErrors(t *testing.T) {
	policy := spreadsheet.DefaultNamePolicy()

	tests := []struct {
		name string
		doc  *Document
		want error
	}{
		{
			name: "bad pattern",
			doc:  &Document{IsValid: "[", Cells: []Record{{Name: "A1", Contents: "1"}}},
			want: ErrRead,
		},
		{
			name: "name rejected by stored pattern",
			doc:  &Document{IsValid: "^A", Cells: []Record{{Name: "B1", Contents: "1"}}},
			want: ErrRead,
		},
		{
			name: "duplicate",
			doc:  &Document{Cells: []Record{{Name: "A1", Contents: "1"}, {Name: "A1", Contents: "2"}}},
			want: ErrRead,
		},
		{
			name: "bad formula",
			doc:  &Document{Cells: []Record{{Name: "A1", Contents: "=1+"}}},
			want: ErrRead,
		},
		{
			name: "cycle",
			doc:  &Document{Cells: []Record{{Name: "A1", Contents: "=B1"}, {Name: "B1", Contents: "=A1"}}},
			want: ErrRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.doc, policy)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadVersion(t *testing.T) {
	doc := &Document{
		IsValid: "",
		Cells:   []Record{{Name: "A1", Contents: "1"}, {Name: "Q1", Contents: "=A1"}},
	}

	narrow, err := spreadsheet.PatternPolicy("^[A-C]")
	require.NoError(t, err)

	_, err = Read(doc, narrow)
	assert.ErrorIs(t, err, ErrVersion)
	assert.NotErrorIs(t, err, ErrRead)

	s, err := Read(doc, spreadsheet.DefaultNamePolicy())
	require.NoError(t, err)
	assert.False(t, s.Changed())
	assert.Equal(t, spreadsheet.CellNamePattern, s.ValidatorDescription())
	v, err := s.GetCellValue("Q1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestReadNormalizes(t *testing.T) {
	doc := &Document{Cells: []Record{{Name: "a1", Contents: "4"}, {Name: "b1", Contents: "=a1/2"}}}
	s, err := Read(doc, spreadsheet.DefaultNamePolicy(), spreadsheet.WithNormalizer(spreadsheet.Upper))
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, s.GetNonemptyCellNames())

	doc.Cells = append(doc.Cells, Record{Name: "A1", Contents: "5"})
	_, err = Read(doc, spreadsheet.DefaultNamePolicy(), spreadsheet.WithNormalizer(spreadsheet.Upper))
	assert.ErrorIs(t, err, ErrRead)
}

func TestCodecRoundTrip(t *testing.T) {
	codecs := map[string]Codec{
		"xml":  XMLCodec{},
		"xlsx": XLSXCodec{},
	}
	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			original := newTestSpreadsheet(t)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, codec, original))

			doc, err := codec.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, spreadsheet.CellNamePattern, doc.IsValid)

			s, err := Read(doc, spreadsheet.DefaultNamePolicy())
			require.NoError(t, err)
			assert.Equal(t, original.Export(), s.Export())

			v, err := s.GetCellValue("B1")
			require.NoError(t, err)
			assert.Equal(t, 6.0, v)
		})
	}
}

func TestXMLFormat(t *testing.T) {
	var buf bytes.Buffer
	err := XMLCodec{}.Encode(&buf, &Document{
		IsValid: "^.*$",
		Cells:   []Record{{Name: "A1", Contents: `say "hi" & <bye>`}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<spreadsheet IsValid="^.*$">`)
	assert.Contains(t, buf.String(), `<cell name="A1" contents="say &#34;hi&#34; &amp; &lt;bye&gt;"></cell>`)

	doc, err := XMLCodec{}.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, `say "hi" & <bye>`, doc.Cells[0].Contents)

	_, err = XMLCodec{}.Decode(strings.NewReader("<spreadsheet"))
	assert.ErrorIs(t, err, ErrRead)
}

func TestXMLDecodeDeclaredDocument(t *testing.T) {
	input := `<?xml version="1.0" encoding="utf-8"?>
<spreadsheet IsValid="^[a-zA-Z]*[1-9][0-9]*$">
  <cell name="A1" contents="5" />
  <cell name="B2" contents="=A1 + 2" />
</spreadsheet>`

	doc, err := XMLCodec{}.Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "^[a-zA-Z]*[1-9][0-9]*$", doc.IsValid)

	s, err := Read(doc, spreadsheet.DefaultNamePolicy())
	require.NoError(t, err)
	v, err := s.GetCellValue("B2")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestXLSXDecodeErrors(t *testing.T) {
	_, err := XLSXCodec{}.Decode(strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, ErrRead)
}
