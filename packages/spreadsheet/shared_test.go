package spreadsheet

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedSpreadsheetVersion(t *testing.T) {
	ss := NewSharedSpreadsheet(NewSpreadsheet())

	affected, version, err := ss.SetCell("A1", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, affected)
	assert.Equal(t, uint64(1), version)

	_, version, err = ss.SetCell("A1", "=A1")
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.Equal(t, uint64(1), version)

	version, err = ss.Write(func(s *Spreadsheet) error {
		_, err := s.SetCell("B1", "=A1+1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)
	assert.Equal(t, uint64(2), ss.Version())

	sentinel := errors.New("abort")
	version, err = ss.Write(func(*Spreadsheet) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, uint64(2), version)

	err = ss.Read(func(s *Spreadsheet, version uint64) error {
		v, err := s.GetCellValue("B1")
		assert.Equal(t, 2.0, v)
		assert.Equal(t, uint64(2), version)
		return err
	})
	require.NoError(t, err)
}

func TestSharedSpreadsheetConcurrentWriters(t *testing.T) {
	ss := NewSharedSpreadsheet(NewSpreadsheet())
	_, _, err := ss.SetCell("A1", "0")
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= 25; i++ {
				name := fmt.Sprintf("W%d", w*100+i)
				if _, _, err := ss.SetCell(name, "=A1+1"); err != nil {
					t.Error(err)
				}
				_ = ss.Read(func(s *Spreadsheet, _ uint64) error {
					_, err := s.GetCellValue(name)
					return err
				})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, uint64(1+writers*25), ss.Version())
	err = ss.Read(func(s *Spreadsheet, _ uint64) error {
		deps, err := s.GetDirectDependents("A1")
		assert.Len(t, deps, writers*25)
		return err
	})
	require.NoError(t, err)
}
