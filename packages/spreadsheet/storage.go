package spreadsheet

// Storage holds the three structures a mutation changes together: the
// cell store, the formula table, and the dependency graph
type Storage struct {
	cells           map[string]*cell
	formulas        *FormulaTable
	dependencyGraph *DependencyGraph
}

func newStorage() *Storage {
	return &Storage{
		cells:           make(map[string]*cell),
		formulas:        NewFormulaTable(),
		dependencyGraph: NewDependencyGraph(),
	}
}

// put stores contents and value for name. empty text removes the cell.
func (st *Storage) put(name string, contents, value Primitive) {
	f, isFormula := contents.(*Formula)
	if !isFormula {
		st.formulas.Release(name)
	} else {
		contents = st.formulas.Intern(f, name)
	}

	if text, ok := contents.(string); ok && text == "" {
		delete(st.cells, name)
		return
	}
	st.cells[name] = &cell{contents: contents, value: value}
}

func (st *Storage) get(name string) (*cell, bool) {
	c, exists := st.cells[name]
	return c, exists
}

func (st *Storage) clear() {
	st.cells = make(map[string]*cell)
	st.formulas.Clear()
	st.dependencyGraph.Clear()
}
