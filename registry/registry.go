// Package registry holds the set of document templates a process renders
// with and answers which template to use for a category.
//
// A Registry is built once from an immutable Config and is safe for
// concurrent use. Templates it returns are shared and must be treated as
// read-only.
package registry

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/alqadi/procuredocs/doctpl"
)

// Sentinel errors matched with errors.Is.
var (
	ErrTemplateNotFound  = errors.New("registry: template not found")
	ErrNoDefaultTemplate = errors.New("registry: no default template")
	ErrDuplicateTemplate = errors.New("registry: duplicate template id")
	// ErrAmbiguousDefault is only reported by Lint. Lookups resolve the
	// ambiguity by picking the lowest id.
	ErrAmbiguousDefault = errors.New("registry: several default templates")
)

// Config is the template set of a registry.
type Config struct {
	Templates []doctpl.Template
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	log    logrus.FieldLogger
	strict bool
}

// WithLogger sets the logger that receives default fallback warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithStrictDefaults makes a category without an active default template an
// error instead of falling back to its lowest id.
func WithStrictDefaults() Option {
	return func(o *options) { o.strict = true }
}

// Registry is an immutable set of validated templates.
type Registry struct {
	byID       map[string]*doctpl.Template
	byCategory map[doctpl.Category][]*doctpl.Template // sorted by id
	log        logrus.FieldLogger
	strict     bool
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// New validates every template of cfg and builds a registry. All invalid
// templates are reported together.
func New(cfg Config, opts ...Option) (*Registry, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = discardLogger()
	}

	r := &Registry{
		byID:       make(map[string]*doctpl.Template, len(cfg.Templates)),
		byCategory: make(map[doctpl.Category][]*doctpl.Template),
		log:        o.log,
		strict:     o.strict,
	}
	var errs []error
	for i := range cfg.Templates {
		t := cfg.Templates[i]
		t.Sections = append([]doctpl.Section(nil), t.Sections...)
		t.Variables = append([]string(nil), t.Variables...)
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.byID[t.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateTemplate, t.ID))
			continue
		}
		r.byID[t.ID] = &t
		r.byCategory[t.Category] = append(r.byCategory[t.Category], &t)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	for _, ts := range r.byCategory {
		sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
	}
	return r, nil
}

// Template returns the template to render category with. A non-empty id
// selects that exact active template. An empty id selects the category's
// active default. Several defaults resolve to the lowest id with a warning.
// No default at all resolves to the lowest active id with a warning, or to
// ErrNoDefaultTemplate under WithStrictDefaults.
func (r *Registry) Template(category doctpl.Category, id string) (*doctpl.Template, error) {
	if id != "" {
		t, ok := r.byID[id]
		if !ok || !t.IsActive || t.Category != category {
			return nil, fmt.Errorf("%w: %q in category %q", ErrTemplateNotFound, id, category)
		}
		return t, nil
	}

	all, ok := r.byCategory[category]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", ErrTemplateNotFound, category)
	}
	active := filter(all, func(t *doctpl.Template) bool { return t.IsActive })
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: category %q has no active template", ErrNoDefaultTemplate, category)
	}
	defaults := filter(active, func(t *doctpl.Template) bool { return t.IsDefault })
	switch {
	case len(defaults) == 1:
		return defaults[0], nil
	case len(defaults) > 1:
		r.log.WithFields(logrus.Fields{
			"category":    category,
			"template_id": defaults[0].ID,
			"candidates":  ids(defaults),
		}).Warn("several default templates, using lowest id")
		return defaults[0], nil
	}
	if r.strict {
		return nil, fmt.Errorf("%w: category %q", ErrNoDefaultTemplate, category)
	}
	r.log.WithFields(logrus.Fields{
		"category":    category,
		"template_id": active[0].ID,
	}).Warn("no default template, using lowest id")
	return active[0], nil
}

// TemplateFor returns the category default when it is written in lang,
// otherwise the lowest id active template of the category in lang. Errors
// from the default lookup, including ErrNoDefaultTemplate under
// WithStrictDefaults, are returned as is.
func (r *Registry) TemplateFor(category doctpl.Category, lang doctpl.Language) (*doctpl.Template, error) {
	t, err := r.Template(category, "")
	if err != nil {
		return nil, err
	}
	if t.Language == lang {
		return t, nil
	}
	for _, t := range r.byCategory[category] {
		if t.IsActive && t.Language == lang {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: category %q in language %q", ErrTemplateNotFound, category, lang)
}

// Categories returns every category with at least one template, sorted.
func (r *Registry) Categories() []doctpl.Category {
	cs := make([]doctpl.Category, 0, len(r.byCategory))
	for c := range r.byCategory {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	return cs
}

// Variables returns the sorted union of the variables of every template in
// category.
func (r *Registry) Variables(category doctpl.Category) ([]string, error) {
	ts, ok := r.byCategory[category]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", ErrTemplateNotFound, category)
	}
	seen := make(map[string]bool)
	var names []string
	for _, t := range ts {
		for _, v := range t.Variables {
			if !seen[v] {
				seen[v] = true
				names = append(names, v)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Templates returns every template sorted by id.
func (r *Registry) Templates() []*doctpl.Template {
	ts := make([]*doctpl.Template, 0, len(r.byID))
	for _, t := range r.byID {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
	return ts
}

// Lint reports configuration defects that lookups tolerate: categories with
// several active defaults or with none.
func (r *Registry) Lint() []error {
	var errs []error
	for _, c := range r.Categories() {
		active := filter(r.byCategory[c], func(t *doctpl.Template) bool { return t.IsActive })
		defaults := filter(active, func(t *doctpl.Template) bool { return t.IsDefault })
		switch {
		case len(defaults) > 1:
			errs = append(errs, fmt.Errorf("%w: category %q: %v", ErrAmbiguousDefault, c, ids(defaults)))
		case len(defaults) == 0:
			errs = append(errs, fmt.Errorf("%w: category %q", ErrNoDefaultTemplate, c))
		}
	}
	return errs
}

func filter(ts []*doctpl.Template, keep func(*doctpl.Template) bool) []*doctpl.Template {
	var out []*doctpl.Template
	for _, t := range ts {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func ids(ts []*doctpl.Template) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}
