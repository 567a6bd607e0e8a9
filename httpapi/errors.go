package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/binding"
)

// Message is a user-facing message in both document languages.
type Message struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    string  `json:"code"`
	Message Message `json:"message"`
	Details any     `json:"details,omitempty"`
}

type apiError struct {
	status int
	code   string
	msg    Message
}

var (
	errTemplateNotFound = apiError{http.StatusNotFound, "template_not_found",
		Message{EN: "no matching template", AR: "لا يوجد قالب مطابق"}}
	errNoDefault = apiError{http.StatusConflict, "no_default_template",
		Message{EN: "the category has no usable template", AR: "لا يوجد قالب افتراضي لهذه الفئة"}}
	errMissing = apiError{http.StatusUnprocessableEntity, "missing_variables",
		Message{EN: "required variables are missing", AR: "بعض المتغيرات المطلوبة مفقودة"}}
	errMismatch = apiError{http.StatusUnprocessableEntity, "type_mismatch",
		Message{EN: "a variable has the wrong type", AR: "نوع أحد المتغيرات غير صحيح"}}
	errInvalidEntity = apiError{http.StatusUnprocessableEntity, "invalid_entity",
		Message{EN: "the document data is not valid", AR: "بيانات المستند غير صالحة"}}
	errMalformed = apiError{http.StatusBadRequest, "invalid_request",
		Message{EN: "request body is not valid", AR: "محتوى الطلب غير صالح"}}
	errCondition = apiError{http.StatusUnprocessableEntity, "condition_failed",
		Message{EN: "a section condition could not be evaluated", AR: "تعذر تقييم شرط أحد الأقسام"}}
	errInvalidTemplate = apiError{http.StatusUnprocessableEntity, "invalid_template",
		Message{EN: "the template is not valid", AR: "القالب غير صالح"}}
	errRender = apiError{http.StatusInternalServerError, "render_failed",
		Message{EN: "the document could not be rendered", AR: "تعذر إنشاء المستند"}}
	errInternal = apiError{http.StatusInternalServerError, "internal_error",
		Message{EN: "internal error", AR: "خطأ داخلي"}}
)

// classify maps an engine error to its response and the details worth
// returning to the caller.
func classify(err error) (apiError, any) {
	var (
		missing  *procuredocs.MissingVariablesError
		mismatch *procuredocs.TypeMismatchError
		invalid  *binding.ValidationError
		section  *procuredocs.SectionRenderError
		tmpl     *procuredocs.TemplateError
	)
	switch {
	case errors.As(err, &missing):
		return errMissing, gin.H{"variables": missing.Names}
	case errors.As(err, &mismatch):
		return errMismatch, gin.H{"field": mismatch.Field, "expected": mismatch.Expected, "actual": mismatch.Actual}
	case errors.As(err, &invalid):
		return errInvalidEntity, gin.H{"fields": invalid.Fields}
	case errors.Is(err, binding.ErrMalformedEntity):
		return errMalformed, err.Error()
	case errors.Is(err, procuredocs.ErrTemplateNotFound):
		return errTemplateNotFound, nil
	case errors.Is(err, procuredocs.ErrNoDefaultTemplate):
		return errNoDefault, nil
	case errors.Is(err, procuredocs.ErrCondition):
		return errCondition, err.Error()
	case errors.As(err, &tmpl):
		return errInvalidTemplate, gin.H{"problems": tmpl.Problems}
	case errors.As(err, &section):
		return errRender, gin.H{"section": section.Index, "type": section.Type}
	}
	return errInternal, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	e, details := classify(err)
	if e.status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("request_id", c.GetString("request_id")).Error("document request failed")
	}
	c.AbortWithStatusJSON(e.status, ErrorBody{Code: e.code, Message: e.msg, Details: details})
}
