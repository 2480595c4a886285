package spreadsheet

import (
	"maps"
	"slices"
)

// DependencyGraph records which cells read which. a pair (dependent,
// dependee) means the dependent's formula references the dependee.
//
// pairs are kept in two mirrored adjacency maps so both directions can be
// answered without scanning: dependees maps a dependent to what it reads,
// dependents maps a dependee to what reads it. a key is deleted as soon as
// its set becomes empty.
type DependencyGraph struct {
	dependees  map[string]map[string]struct{} // dependent -> cells it reads
	dependents map[string]map[string]struct{} // dependee -> cells reading it
	size       int                            // distinct pairs
}

// NewDependencyGraph creates a new, empty dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		dependees:  make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

// Size returns the number of distinct (dependent, dependee) pairs
func (dg *DependencyGraph) Size() int {
	return dg.size
}

// AddDependency records that dependent reads dependee. adding a pair that
// already exists changes nothing.
func (dg *DependencyGraph) AddDependency(dependent, dependee string) error {
	if dependent == "" || dependee == "" {
		return NewApplicationError(InvalidArgument, ErrInvalidArgument, "dependency names must not be empty")
	}
	dg.add(dependent, dependee)
	return nil
}

func (dg *DependencyGraph) add(dependent, dependee string) {
	reads, exists := dg.dependees[dependent]
	if !exists {
		reads = make(map[string]struct{})
		dg.dependees[dependent] = reads
	}
	if _, exists := reads[dependee]; exists {
		return
	}
	reads[dependee] = struct{}{}

	readers, exists := dg.dependents[dependee]
	if !exists {
		readers = make(map[string]struct{})
		dg.dependents[dependee] = readers
	}
	readers[dependent] = struct{}{}

	dg.size++
}

// RemoveDependency removes the pair if present
func (dg *DependencyGraph) RemoveDependency(dependent, dependee string) {
	reads, exists := dg.dependees[dependent]
	if !exists {
		return
	}
	if _, exists := reads[dependee]; !exists {
		return
	}

	delete(reads, dependee)
	if len(reads) == 0 {
		delete(dg.dependees, dependent)
	}

	readers := dg.dependents[dependee]
	delete(readers, dependent)
	if len(readers) == 0 {
		delete(dg.dependents, dependee)
	}

	dg.size--
}

// GetDependents returns a sorted snapshot of the cells that read name
func (dg *DependencyGraph) GetDependents(name string) []string {
	return sortedKeys(dg.dependents[name])
}

// GetDependees returns a sorted snapshot of the cells name reads
func (dg *DependencyGraph) GetDependees(name string) []string {
	return sortedKeys(dg.dependees[name])
}

// HasDependents reports whether any cell reads name
func (dg *DependencyGraph) HasDependents(name string) bool {
	return len(dg.dependents[name]) > 0
}

// HasDependees reports whether name reads any cell
func (dg *DependencyGraph) HasDependees(name string) bool {
	return len(dg.dependees[name]) > 0
}

// ReplaceDependents makes newDependents the exact set of cells reading s.
// nothing changes when any name is empty.
func (dg *DependencyGraph) ReplaceDependents(s string, newDependents []string) error {
	if err := checkNames(s, newDependents); err != nil {
		return err
	}
	for reader := range dg.dependents[s] {
		dg.RemoveDependency(reader, s)
	}
	for _, reader := range newDependents {
		dg.add(reader, s)
	}
	return nil
}

// ReplaceDependees makes newDependees the exact set of cells t reads.
// nothing changes when any name is empty.
func (dg *DependencyGraph) ReplaceDependees(t string, newDependees []string) error {
	if err := checkNames(t, newDependees); err != nil {
		return err
	}
	for read := range dg.dependees[t] {
		dg.RemoveDependency(t, read)
	}
	for _, read := range newDependees {
		dg.add(t, read)
	}
	return nil
}

// Clone returns an independent copy of the graph
func (dg *DependencyGraph) Clone() *DependencyGraph {
	clone := &DependencyGraph{
		dependees:  make(map[string]map[string]struct{}, len(dg.dependees)),
		dependents: make(map[string]map[string]struct{}, len(dg.dependents)),
		size:       dg.size,
	}
	for k, set := range dg.dependees {
		clone.dependees[k] = maps.Clone(set)
	}
	for k, set := range dg.dependents {
		clone.dependents[k] = maps.Clone(set)
	}
	return clone
}

// Clear removes every pair from the graph
func (dg *DependencyGraph) Clear() {
	dg.dependees = make(map[string]map[string]struct{})
	dg.dependents = make(map[string]map[string]struct{})
	dg.size = 0
}

func checkNames(name string, others []string) error {
	if name == "" {
		return NewApplicationError(InvalidArgument, ErrInvalidArgument, "dependency names must not be empty")
	}
	for _, other := range others {
		if other == "" {
			return NewApplicationError(InvalidArgument, ErrInvalidArgument, "dependency names must not be empty")
		}
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	slices.Sort(result)
	return result
}
