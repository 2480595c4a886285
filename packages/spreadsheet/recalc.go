package spreadsheet

// calculationFrame is one cell on the traversal stack together with the
// dependents it has not descended into yet
type calculationFrame struct {
	name    string
	pending []string
}

// CalculationStack drives the depth-first walk over dependents that
// orders a recalculation. it uses an explicit stack so long dependency
// chains cannot exhaust the goroutine stack.
type CalculationStack struct {
	items      []calculationFrame  // stack of cells being expanded
	processing map[string]struct{} // on the stack (cycle detection)
	completed  map[string]struct{} // fully expanded
	order      []string            // post-order
}

// NewCalculationStack creates a new calculation stack
func NewCalculationStack() *CalculationStack {
	return &CalculationStack{
		items:      make([]calculationFrame, 0),
		processing: make(map[string]struct{}),
		completed:  make(map[string]struct{}),
	}
}

// push adds a cell to the stack
func (cs *CalculationStack) push(name string, dependents []string) {
	cs.items = append(cs.items, calculationFrame{name: name, pending: dependents})
	cs.processing[name] = struct{}{}
}

// pop removes the top cell from the stack and marks it completed
func (cs *CalculationStack) pop() {
	frame := cs.items[len(cs.items)-1]
	cs.items = cs.items[:len(cs.items)-1]
	delete(cs.processing, frame.name)
	cs.completed[frame.name] = struct{}{}
	cs.order = append(cs.order, frame.name)
}

// isProcessing checks if a cell is currently on the stack
func (cs *CalculationStack) isProcessing(name string) bool {
	_, exists := cs.processing[name]
	return exists
}

// isCompleted checks if a cell has been fully expanded
func (cs *CalculationStack) isCompleted(name string) bool {
	_, exists := cs.completed[name]
	return exists
}

// reset clears the stack
func (cs *CalculationStack) reset() {
	cs.items = cs.items[:0]
	cs.processing = make(map[string]struct{})
	cs.completed = make(map[string]struct{})
	cs.order = cs.order[:0]
}

// Order walks every cell that transitively reads name and returns them in
// evaluation order: name first, and every cell after all the cells it
// reads. reaching a cell that is still on the stack means the graph has a
// cycle through name; the walk stops and ErrCircularDependency is
// returned with no partial order.
func (cs *CalculationStack) Order(dg *DependencyGraph, name string) ([]string, error) {
	cs.reset()
	cs.push(name, dg.GetDependents(name))

	for len(cs.items) > 0 {
		top := &cs.items[len(cs.items)-1]
		if len(top.pending) == 0 {
			cs.pop()
			continue
		}

		next := top.pending[0]
		top.pending = top.pending[1:]

		if cs.isProcessing(next) {
			return nil, circular(next)
		}
		if cs.isCompleted(next) {
			continue
		}
		cs.push(next, dg.GetDependents(next))
	}

	// post-order lists readers before what they read; reverse it
	result := make([]string, len(cs.order))
	for i, n := range cs.order {
		result[len(cs.order)-1-i] = n
	}
	return result, nil
}

// CellsToRecalculate returns the evaluation order for a change to name,
// see CalculationStack.Order
func CellsToRecalculate(dg *DependencyGraph, name string) ([]string, error) {
	return NewCalculationStack().Order(dg, name)
}
