package spreadsheet

import (
	"errors"
	"strconv"
)

// Primitive represents basic spreadsheet content and value types.
// contents:
//   - float64: numeric literals
//   - string: text (the empty string means an empty cell)
//   - *Formula: parsed formulas
//
// values:
//   - float64: numeric results
//   - string: text values
//   - *EvaluationError: a formula that could not be computed
type Primitive any

// ErrorKind represents the ways a formula evaluation can fail
type ErrorKind uint8

const (
	UndefinedVariable ErrorKind = 1 // #NAME? - variable has no numeric value
	DivideByZero      ErrorKind = 2 // #DIV/0! - division by zero
)

// ErrorMapper maps error kinds to their display strings
var ErrorMapper = map[ErrorKind]string{
	UndefinedVariable: "#NAME?",
	DivideByZero:      "#DIV/0!",
}

// EvaluationError is stored as a cell value when a formula fails to
// evaluate. it is a value, not a failure of the mutation that produced it.
type EvaluationError struct {
	Kind    ErrorKind
	Message string
}

func (e *EvaluationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.Kind]
}

// String returns the display form, e.g. #DIV/0!
func (e *EvaluationError) String() string {
	return ErrorMapper[e.Kind]
}

func NewEvaluationError(kind ErrorKind, message string) *EvaluationError {
	if message == "" {
		message = ErrorMapper[kind]
	}
	return &EvaluationError{
		Kind:    kind,
		Message: message,
	}
}

// AppErrorCode represents gRPC-style error codes for application-level errors.
// only the codes that make sense for a single in-memory workbook are kept.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// Unknown error.
	Unknown AppErrorCode = 2

	// InvalidArgument indicates client specified an invalid argument: a bad
	// cell name, missing content, or a malformed formula.
	InvalidArgument AppErrorCode = 3

	// NotFound means some requested entity was not found.
	NotFound AppErrorCode = 5

	// FailedPrecondition indicates operation was rejected because the
	// workbook is not in a state required for the operation's execution,
	// e.g. the change would introduce a circular reference.
	FailedPrecondition AppErrorCode = 9

	// Internal errors. Means some invariants expected by underlying
	// system has been broken.
	Internal AppErrorCode = 13
)

func (c AppErrorCode) String() string {
	switch c {
	case OK:
		return "OK"
	case InvalidArgument:
		return "InvalidArgument"
	case NotFound:
		return "NotFound"
	case FailedPrecondition:
		return "FailedPrecondition"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

var (
	ErrInvalidName         = errors.New("invalid cell name")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrFormulaFormat       = errors.New("formula format error")
	ErrCircularDependency  = errors.New("circular dependency")
	errDuplicateCellRecord = errors.New("duplicate cell")
)

// AppError represents errors at the application level (not
// formula evaluation errors, which live in cells as values)
type AppError struct {
	Code    AppErrorCode
	Message string
	kind    error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the taxonomy sentinel so callers can use errors.Is
func (e *AppError) Unwrap() error {
	return e.kind
}

// NewApplicationError creates a new application error of the given kind
func NewApplicationError(code AppErrorCode, kind error, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		kind:    kind,
	}
}

func invalidName(name string) *AppError {
	return NewApplicationError(InvalidArgument, ErrInvalidName, "invalid cell name: "+strconv.Quote(name))
}

func formulaFormat(reason string) *AppError {
	return NewApplicationError(InvalidArgument, ErrFormulaFormat, "formula format error: "+reason)
}

func circular(name string) *AppError {
	return NewApplicationError(FailedPrecondition, ErrCircularDependency, "circular dependency through "+name)
}

// CodeOf returns the application code of err, Unknown for foreign errors
// and OK for nil
func CodeOf(err error) AppErrorCode {
	if err == nil {
		return OK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}

// FormatPrimitive renders contents or values the way they are written back
// to storage: numbers in shortest form, formulas with a leading =
func FormatPrimitive(p Primitive) string {
	switch v := p.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	case *Formula:
		return "=" + v.String()
	case *EvaluationError:
		return v.String()
	default:
		return ""
	}
}

// cell holds a single non-empty cell's contents and last computed value
type cell struct {
	contents Primitive
	value    Primitive
}
