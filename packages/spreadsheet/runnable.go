package spreadsheet

import (
	"fmt"
	"slices"
)

// RunnableSpreadsheet provides a chainable interface for
// spreadsheet operations. wraps the standard Spreadsheet and tracks
// errors internally
type RunnableSpreadsheet struct {
	spreadsheet *Spreadsheet
	err         error
	printLn     func(string)
	affected    []string
}

// NewRunnableSpreadsheet creates a new RunnableSpreadsheet. printLn is
// required and will be used for all logging operations (Log, CheckError)
func NewRunnableSpreadsheet(printLn func(string), opts ...Option) *RunnableSpreadsheet {
	return WrapSpreadsheet(NewSpreadsheet(opts...), printLn)
}

// WrapSpreadsheet makes an existing spreadsheet chainable
func WrapSpreadsheet(s *Spreadsheet, printLn func(string)) *RunnableSpreadsheet {
	return &RunnableSpreadsheet{
		spreadsheet: s,
		err:         nil,
		printLn:     printLn,
	}
}

// Set sets a cell's contents (chainable)
func (r *RunnableSpreadsheet) Set(name string, contents Primitive) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.affected, r.err = r.spreadsheet.Set(name, contents)
	return r
}

// Get retrieves a cell value (chainable)
func (r *RunnableSpreadsheet) Get(name string) (*RunnableSpreadsheet, Primitive) {
	if r.err != nil {
		return r, nil // no-op if there's already an error
	}
	val, err := r.spreadsheet.GetCellValue(name)
	if err != nil {
		r.err = err
	}
	return r, val
}

// Affected returns the cells recalculated by the last successful Set
func (r *RunnableSpreadsheet) Affected() []string {
	return slices.Clone(r.affected)
}

// Run returns the spreadsheet and any error. typically the last method in
// the chain
func (r *RunnableSpreadsheet) Run() (*Spreadsheet, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.spreadsheet, nil
}

// Error returns the current error state
func (r *RunnableSpreadsheet) Error() error {
	return r.err
}

// CheckError logs the current error using the PrintLn function (chainable)
func (r *RunnableSpreadsheet) CheckError() *RunnableSpreadsheet {
	if r.err != nil {
		r.printLn(fmt.Sprintf("ERROR: %v", r.err))
	} else {
		r.printLn("No errors")
	}
	return r
}

// Reset clears the error state (chainable)
func (r *RunnableSpreadsheet) Reset() *RunnableSpreadsheet {
	r.err = nil
	return r
}

// Then allows conditional execution based on current error state
func (r *RunnableSpreadsheet) Then(fn func(*RunnableSpreadsheet) *RunnableSpreadsheet) *RunnableSpreadsheet {
	if r.err != nil {
		return r // skip if there's an error
	}
	return fn(r)
}

// OnError allows error handling in the chain
func (r *RunnableSpreadsheet) OnError(fn func(error) error) *RunnableSpreadsheet {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// SetBatch sets multiple cells in name order (chainable)
func (r *RunnableSpreadsheet) SetBatch(cells map[string]Primitive) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if r.Set(name, cells[name]); r.err != nil {
			return r
		}
	}
	return r
}

// Value is a helper to get a single value from the chain.
// example: val := NewRunnableSpreadsheet(log).Set("A1", 10).Set("A2", "=A1*2").Value("A2")
func (r *RunnableSpreadsheet) Value(name string) Primitive {
	_, val := r.Get(name)
	return val
}

// Log logs the value of a cell using the provided PrintLn function (chainable)
func (r *RunnableSpreadsheet) Log(name string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	val, err := r.spreadsheet.GetCellValue(name)
	if err != nil {
		r.err = err
		return r
	}

	// fmt the output
	var output string
	if val == "" {
		output = fmt.Sprintf("%s: <empty>", name)
	} else {
		output = fmt.Sprintf("%s: %s", name, FormatPrimitive(val))
	}

	r.printLn(output)
	return r
}
