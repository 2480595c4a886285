package spreadsheet

import "sync"

// SharedSpreadsheet guards a spreadsheet for concurrent use. a change
// touches the cell store, the graph, and an unknown set of recalculated
// cells, so the whole workbook is the unit of locking: readers share it,
// writers hold it exclusively.
type SharedSpreadsheet struct {
	mu      sync.RWMutex
	sheet   *Spreadsheet
	version uint64
}

// NewSharedSpreadsheet takes ownership of s. s must not be used directly
// afterwards.
func NewSharedSpreadsheet(s *Spreadsheet) *SharedSpreadsheet {
	return &SharedSpreadsheet{sheet: s}
}

// SetCell is Spreadsheet.SetCell under the write lock. the version is
// bumped only when the change is applied.
func (ss *SharedSpreadsheet) SetCell(name, contents string) ([]string, uint64, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	affected, err := ss.sheet.SetCell(name, contents)
	if err != nil {
		return nil, ss.version, err
	}
	ss.version++
	return affected, ss.version, nil
}

// Version returns the number of changes applied so far
func (ss *SharedSpreadsheet) Version() uint64 {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.version
}

// Read runs fn with shared access. fn must not retain s or mutate it.
func (ss *SharedSpreadsheet) Read(fn func(s *Spreadsheet, version uint64) error) error {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return fn(ss.sheet, ss.version)
}

// Write runs fn with exclusive access and bumps the version when fn
// succeeds. it returns the version after fn.
func (ss *SharedSpreadsheet) Write(fn func(s *Spreadsheet) error) (uint64, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if err := fn(ss.sheet); err != nil {
		return ss.version, err
	}
	ss.version++
	return ss.version, nil
}
