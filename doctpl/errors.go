package doctpl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched with errors.Is.
var (
	ErrInvalidTemplate  = errors.New("doctpl: invalid template")
	ErrMissingVariables = errors.New("doctpl: missing variables")
	ErrTypeMismatch     = errors.New("doctpl: type mismatch")
	ErrCondition        = errors.New("doctpl: section condition failed")
)

// ParseError reports malformed placeholder syntax.
type ParseError struct {
	Input  string
	Offset int // byte offset of the offending "{{"
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("doctpl: parsing %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

func (e *ParseError) Is(target error) bool { return target == ErrInvalidTemplate }

// TemplateError lists every well-formedness problem found in a template.
type TemplateError struct {
	TemplateID string
	Problems   []string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("doctpl: template %q: %s", e.TemplateID, strings.Join(e.Problems, "; "))
}

func (e *TemplateError) Is(target error) bool { return target == ErrInvalidTemplate }

// MissingVariablesError lists the required variables absent from the
// binding context, sorted.
type MissingVariablesError struct {
	TemplateID string
	Names      []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("doctpl: template %q: missing variables [%s]", e.TemplateID, strings.Join(e.Names, ", "))
}

func (e *MissingVariablesError) Is(target error) bool { return target == ErrMissingVariables }

// TypeMismatchError reports a context value whose shape does not fit where it
// is used, e.g. a scalar bound to a table data source.
type TypeMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("doctpl: %s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// ConditionError wraps a failure to compile or evaluate a section's When
// expression.
type ConditionError struct {
	Section int
	Expr    string
	Err     error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("doctpl: section %d: condition %q: %v", e.Section, e.Expr, e.Err)
}

func (e *ConditionError) Is(target error) bool { return target == ErrCondition }

func (e *ConditionError) Unwrap() error { return e.Err }
