package spreadsheet

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

// FormulaPrefix marks cell contents that should be parsed as a formula
const FormulaPrefix = "="

// CellRecord is a cell's name and its raw contents as a user would type
// them. it is the unit of persistence.
type CellRecord struct {
	Name     string
	Contents string
}

// Spreadsheet is the workbook: it owns the cells, the dependency graph and
// the formula table, parses contents, and keeps every computed value
// consistent after each change
type Spreadsheet struct {
	storage          *Storage
	calculationStack *CalculationStack
	policy           NamePolicy
	normalize        Normalizer
	logger           *slog.Logger
	changed          bool
}

// Option configures a Spreadsheet
type Option func(*Spreadsheet)

// WithNamePolicy sets which cell names are acceptable
func WithNamePolicy(policy NamePolicy) Option {
	return func(s *Spreadsheet) {
		s.policy = policy
	}
}

// WithValidator sets a bare name predicate. the persisted description of
// such a workbook is the default cell name pattern.
func WithValidator(isValid Validator) Option {
	return func(s *Spreadsheet) {
		s.policy = NamePolicy{Description: CellNamePattern, IsValid: isValid}
	}
}

// WithNormalizer sets the normalizer applied to cell names and formula
// variables, e.g. Upper
func WithNormalizer(normalize Normalizer) Option {
	return func(s *Spreadsheet) {
		s.normalize = normalize
	}
}

// WithLogger sets the logger used for rejected mutations
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spreadsheet) {
		s.logger = logger
	}
}

// NewSpreadsheet creates a new, empty spreadsheet. by default names must
// match CellNamePattern and are not normalized.
func NewSpreadsheet(opts ...Option) *Spreadsheet {
	s := &Spreadsheet{
		storage:          newStorage(),
		calculationStack: NewCalculationStack(),
		policy:           DefaultNamePolicy(),
		normalize:        Identity,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalize == nil {
		s.normalize = Identity
	}
	if s.policy.IsValid == nil {
		s.policy = DefaultNamePolicy()
	}
	return s
}

type SpreadsheetInterface interface {
	// cell methods

	SetCell(name string, contents string) ([]string, error)
	Set(name string, contents Primitive) ([]string, error)
	GetCellContents(name string) (Primitive, error)
	GetCellValue(name string) (Primitive, error)
	GetDirectDependents(name string) ([]string, error)
	GetDirectDependees(name string) ([]string, error)
	GetNonemptyCellNames() []string

	// persistence helpers

	Export() []CellRecord
	Load(records []CellRecord) error
	ValidatorDescription() string
	Changed() bool
	MarkSaved()
}

// Implementation of SpreadsheetInterface

var _ SpreadsheetInterface = (*Spreadsheet)(nil)

// resolveName normalizes name and checks it against the name policy
func (s *Spreadsheet) resolveName(name string) (string, error) {
	if name == "" {
		return "", invalidName(name)
	}
	normalized := s.normalize(name)
	if normalized == "" || !s.policy.IsValid(normalized) {
		return "", invalidName(name)
	}
	return normalized, nil
}

// CanonicalName returns name as the workbook stores it, normalized and
// checked against the name policy
func (s *Spreadsheet) CanonicalName(name string) (string, error) {
	return s.resolveName(name)
}

// parseContents classifies raw contents: empty text, a number, a formula
// (leading =), or verbatim text
func (s *Spreadsheet) parseContents(contents string) (Primitive, error) {
	if contents == "" {
		return "", nil
	}
	if n, ok := parseNumber(contents); ok {
		return n, nil
	}
	if expr, ok := strings.CutPrefix(contents, FormulaPrefix); ok {
		f, err := NewFormula(expr, s.normalize, s.policy.IsValid)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return contents, nil
}

// parseNumber accepts finite decimal numbers. hex floats, and the
// underscores only they allow, stay text.
func parseNumber(contents string) (float64, bool) {
	digits := strings.TrimLeft(contents, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	n, err := strconv.ParseFloat(contents, 64)
	if err != nil || !isFinite(n) {
		return 0, false
	}
	return n, true
}

func isFinite(n float64) bool {
	return !math.IsInf(n, 0) && !math.IsNaN(n)
}

// SetCell sets the contents of the named cell and recalculates every cell
// that depends on it. it returns the recalculated cells in evaluation
// order, starting with name itself.
//
// an invalid name or malformed formula is rejected with no side effects.
// a change that would create a circular dependency is rejected and the
// dependency graph is restored exactly. formulas that cannot be computed
// (undefined variables, division by zero) are not failures: the affected
// cells hold an *EvaluationError value.
func (s *Spreadsheet) SetCell(name string, contents string) ([]string, error) {
	normalized, err := s.resolveName(name)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parseContents(contents)
	if err != nil {
		return nil, err
	}

	return s.commit(normalized, parsed)
}

// Set sets the contents of the named cell from a typed value: float64 or
// int for numbers, string for raw contents (parsed as in SetCell), or a
// *Formula. nil and other types are rejected as invalid arguments.
func (s *Spreadsheet) Set(name string, contents Primitive) ([]string, error) {
	switch v := contents.(type) {
	case nil:
		return nil, NewApplicationError(InvalidArgument, ErrInvalidArgument, "contents must not be nil")
	case string:
		return s.SetCell(name, v)
	case float64:
		if !isFinite(v) {
			return nil, NewApplicationError(InvalidArgument, ErrInvalidArgument, fmt.Sprintf("number %v is not finite", v))
		}
		normalized, err := s.resolveName(name)
		if err != nil {
			return nil, err
		}
		return s.commit(normalized, v)
	case int:
		return s.Set(name, float64(v))
	case *Formula:
		if v == nil {
			return nil, NewApplicationError(InvalidArgument, ErrInvalidArgument, "formula must not be nil")
		}
		// re-parse so the variables go through this workbook's name policy
		return s.SetCell(name, FormatPrimitive(v))
	default:
		return nil, NewApplicationError(InvalidArgument, ErrInvalidArgument, fmt.Sprintf("unsupported contents type %T", contents))
	}
}

// commit updates the graph, checks for cycles, and evaluates
func (s *Spreadsheet) commit(name string, contents Primitive) ([]string, error) {
	graph := s.storage.dependencyGraph

	var variables []string
	if f, ok := contents.(*Formula); ok {
		variables = f.Variables()
	}

	previous := graph.GetDependees(name)
	if err := graph.ReplaceDependees(name, variables); err != nil {
		return nil, err
	}

	order, err := s.calculationStack.Order(graph, name)
	if err != nil {
		if restoreErr := graph.ReplaceDependees(name, previous); restoreErr != nil {
			return nil, NewApplicationError(Internal, restoreErr, "restore dependencies of "+name+": "+restoreErr.Error())
		}
		s.logger.Debug("rejected circular change", "cell", name, "contents", FormatPrimitive(contents), "error", err)
		return nil, err
	}

	s.storage.put(name, contents, s.evaluate(contents))
	for _, dependent := range order[1:] {
		s.recalculate(dependent)
	}

	s.changed = true
	s.logger.Debug("cell updated", "cell", name, "recalculated", len(order))
	return order, nil
}

// evaluate computes the value of contents against the current cell values
func (s *Spreadsheet) evaluate(contents Primitive) Primitive {
	f, ok := contents.(*Formula)
	if !ok {
		return contents
	}
	v, evalErr := f.Evaluate(s.lookup)
	if evalErr != nil {
		return evalErr
	}
	return v
}

func (s *Spreadsheet) recalculate(name string) {
	c, exists := s.storage.get(name)
	if !exists {
		return
	}
	c.value = s.evaluate(c.contents)
}

// lookup reads a cell's cached value. only numeric values resolve; empty,
// text, and error cells make the variable undefined.
func (s *Spreadsheet) lookup(name string) (float64, bool) {
	c, exists := s.storage.get(name)
	if !exists {
		return 0, false
	}
	v, ok := c.value.(float64)
	return v, ok
}

// GetCellContents returns the contents of the named cell: a float64, a
// string, or a *Formula. empty cells return "".
func (s *Spreadsheet) GetCellContents(name string) (Primitive, error) {
	normalized, err := s.resolveName(name)
	if err != nil {
		return nil, err
	}
	c, exists := s.storage.get(normalized)
	if !exists {
		return "", nil
	}
	return c.contents, nil
}

// GetCellValue returns the value of the named cell: a float64, a string,
// or an *EvaluationError. empty cells return "".
func (s *Spreadsheet) GetCellValue(name string) (Primitive, error) {
	normalized, err := s.resolveName(name)
	if err != nil {
		return nil, err
	}
	c, exists := s.storage.get(normalized)
	if !exists {
		return "", nil
	}
	return c.value, nil
}

// GetDirectDependents returns the cells whose formulas mention name
func (s *Spreadsheet) GetDirectDependents(name string) ([]string, error) {
	normalized, err := s.resolveName(name)
	if err != nil {
		return nil, err
	}
	return s.storage.dependencyGraph.GetDependents(normalized), nil
}

// GetDirectDependees returns the cells the formula in name mentions
func (s *Spreadsheet) GetDirectDependees(name string) ([]string, error) {
	normalized, err := s.resolveName(name)
	if err != nil {
		return nil, err
	}
	return s.storage.dependencyGraph.GetDependees(normalized), nil
}

// GetNonemptyCellNames returns the sorted names of all non-empty cells
func (s *Spreadsheet) GetNonemptyCellNames() []string {
	names := make([]string, 0, len(s.storage.cells))
	for name := range s.storage.cells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Export returns every non-empty cell as a record, sorted by name
func (s *Spreadsheet) Export() []CellRecord {
	names := s.GetNonemptyCellNames()
	records := make([]CellRecord, 0, len(names))
	for _, name := range names {
		records = append(records, CellRecord{
			Name:     name,
			Contents: FormatPrimitive(s.storage.cells[name].contents),
		})
	}
	return records
}

// Load sets every record in order. names that collide after
// normalization are rejected. loading stops at the first failing record
// and reports which one failed.
func (s *Spreadsheet) Load(records []CellRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		normalized, err := s.resolveName(record.Name)
		if err != nil {
			return err
		}
		if _, dup := seen[normalized]; dup {
			return NewApplicationError(InvalidArgument, errDuplicateCellRecord, "duplicate cell "+strconv.Quote(record.Name))
		}
		seen[normalized] = struct{}{}

		if _, err := s.SetCell(record.Name, record.Contents); err != nil {
			return fmt.Errorf("cell %s: %w", record.Name, err)
		}
	}
	return nil
}

// ValidatorDescription returns the persisted description of the name
// policy, e.g. its regular expression
func (s *Spreadsheet) ValidatorDescription() string {
	return s.policy.Description
}

// Changed reports whether the spreadsheet was modified since it was
// created or last saved
func (s *Spreadsheet) Changed() bool {
	return s.changed
}

// MarkSaved clears the changed flag
func (s *Spreadsheet) MarkSaved() {
	s.changed = false
}

// Clear removes every cell
func (s *Spreadsheet) Clear() {
	s.storage.clear()
	s.changed = true
}

// GetDependencyGraph exposes the graph for inspection
func (s *Spreadsheet) GetDependencyGraph() *DependencyGraph {
	return s.storage.dependencyGraph
}

// FormulaCount returns the number of distinct formulas in use
func (s *Spreadsheet) FormulaCount() int {
	return s.storage.formulas.Count()
}
