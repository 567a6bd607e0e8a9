package procuredocs

import (
	"fmt"

	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/registry"
	"github.com/alqadi/procuredocs/render"
)

// Sentinel errors for render failures, shared with the packages that raise
// them so errors.Is works across package boundaries.
var (
	ErrTemplateNotFound  = registry.ErrTemplateNotFound
	ErrNoDefaultTemplate = registry.ErrNoDefaultTemplate
	ErrInvalidTemplate   = doctpl.ErrInvalidTemplate
	ErrMissingVariables  = doctpl.ErrMissingVariables
	ErrTypeMismatch      = doctpl.ErrTypeMismatch
	ErrCondition         = doctpl.ErrCondition
	ErrSectionRender     = render.ErrSectionRender
	ErrTooTall           = render.ErrTooTall
)

// Typed errors callers inspect with errors.As.
type (
	MissingVariablesError = doctpl.MissingVariablesError
	TypeMismatchError     = doctpl.TypeMismatchError
	ConditionError        = doctpl.ConditionError
	TemplateError         = doctpl.TemplateError
	SectionRenderError    = render.SectionRenderError
)

// RenderError represents an error that occurred during a specific engine
// operation. It wraps an underlying error and names the template involved.
type RenderError struct {
	Op         string // operation name, e.g. "Render", "Layout"
	TemplateID string
	Err        error
}

func (e *RenderError) Error() string {
	if e.TemplateID == "" {
		return fmt.Sprintf("procuredocs.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("procuredocs.%s %q: %v", e.Op, e.TemplateID, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func newRenderError(op, templateID string, err error) *RenderError {
	return &RenderError{Op: op, TemplateID: templateID, Err: err}
}
