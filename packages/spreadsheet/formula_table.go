package spreadsheet

// FormulaKey is the normalized rendering of a formula. two formulas with
// the same tokens (ignoring whitespace) share a key.
type FormulaKey string

// FormulaTable interns parsed formulas so cells with identical formulas
// share one immutable *Formula, and tracks which cells use each one.
type FormulaTable struct {
	formulas          map[FormulaKey]*Formula
	cellsUsingFormula map[FormulaKey]map[string]struct{} // formula -> cells using it
	formulaAtCell     map[string]FormulaKey              // cell -> formula (reverse index)
}

// NewFormulaTable creates a new formula table
func NewFormulaTable() *FormulaTable {
	return &FormulaTable{
		formulas:          make(map[FormulaKey]*Formula),
		cellsUsingFormula: make(map[FormulaKey]map[string]struct{}),
		formulaAtCell:     make(map[string]FormulaKey),
	}
}

// Intern records that cell uses f and returns the shared instance for f's
// key, replacing whatever formula the cell used before
func (ft *FormulaTable) Intern(f *Formula, cell string) *Formula {
	key := FormulaKey(f.String())

	ft.Release(cell)

	shared, exists := ft.formulas[key]
	if !exists {
		shared = f
		ft.formulas[key] = f
	}

	if ft.cellsUsingFormula[key] == nil {
		ft.cellsUsingFormula[key] = make(map[string]struct{})
	}
	ft.cellsUsingFormula[key][cell] = struct{}{}
	ft.formulaAtCell[cell] = key

	return shared
}

// Release forgets the formula used by cell, dropping the formula once no
// cell uses it. returns true if the formula was removed.
func (ft *FormulaTable) Release(cell string) bool {
	key, exists := ft.formulaAtCell[cell]
	if !exists {
		return false
	}
	delete(ft.formulaAtCell, cell)

	cells := ft.cellsUsingFormula[key]
	delete(cells, cell)
	if len(cells) > 0 {
		return false
	}

	delete(ft.cellsUsingFormula, key)
	delete(ft.formulas, key)
	return true
}

// GetCellsUsingFormula returns the sorted cells using the formula with key
func (ft *FormulaTable) GetCellsUsingFormula(key FormulaKey) []string {
	return sortedKeys(ft.cellsUsingFormula[key])
}

// GetReferenceCount returns how many cells use the formula with key
func (ft *FormulaTable) GetReferenceCount(key FormulaKey) int {
	return len(ft.cellsUsingFormula[key])
}

// Count returns the number of unique formulas
func (ft *FormulaTable) Count() int {
	return len(ft.formulas)
}

// Clear removes all formulas from the table
func (ft *FormulaTable) Clear() {
	ft.formulas = make(map[FormulaKey]*Formula)
	ft.cellsUsingFormula = make(map[FormulaKey]map[string]struct{})
	ft.formulaAtCell = make(map[string]FormulaKey)
}
