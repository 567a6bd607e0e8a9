// Package procuredocs renders bilingual procurement documents (price offers,
// orders, invoices, contracts) from declarative templates into PDF.
//
// An Engine wires the pipeline: the registry picks a template for a
// category, doctpl resolves its placeholders against a flat binding
// context, render lays out every section and assemble paginates the result
// and writes it through a go-pdf/fpdf canvas.
//
//	reg, _ := registry.New(registry.Builtin())
//	eng, _ := procuredocs.New(reg)
//	doc, err := eng.Render(ctx, procuredocs.Request{
//	    Category: doctpl.CategoryPriceOffer,
//	    Context:  data,
//	})
//
// Output is byte-identical for identical input. The document id and
// generation time live only in Metadata.
package procuredocs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/alqadi/procuredocs/assemble"
	"github.com/alqadi/procuredocs/canvas"
	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/registry"
	"github.com/alqadi/procuredocs/render"
)

const tracerName = "github.com/alqadi/procuredocs"

// Request selects a template and supplies the data to bind. An empty
// TemplateID selects the category default; Language, when set, prefers a
// template in that language.
type Request struct {
	Category   doctpl.Category `json:"category"`
	TemplateID string          `json:"templateId,omitempty"`
	Language   doctpl.Language `json:"language,omitempty"`
	Context    doctpl.Context  `json:"context"`
}

// Metadata describes a rendered document.
type Metadata struct {
	ID              string          `json:"id"`
	PageCount       int             `json:"pageCount"`
	ByteSize        int             `json:"byteSize"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	TemplateID      string          `json:"templateId"`
	TemplateVersion int             `json:"templateVersion"`
	Category        doctpl.Category `json:"category"`
	Language        doctpl.Language `json:"language"`
	Checksum        string          `json:"checksum"` // sha256 of Bytes, hex
}

// Document is a rendered PDF with its metadata.
type Document struct {
	Bytes []byte   `json:"bytes"`
	Meta  Metadata `json:"meta"`
}

// Engine renders documents. It is safe for concurrent use.
type Engine struct {
	reg    *registry.Registry
	cfg    engineConfig
	tracer trace.Tracer
}

// New returns an engine rendering templates from reg.
func New(reg *registry.Registry, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, newRenderError("New", "", errors.New("nil registry"))
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.fonts == nil {
		cfg.fonts = canvas.DefaultFonts()
	}
	return &Engine{
		reg:    reg,
		cfg:    cfg,
		tracer: cfg.tracer.Tracer(tracerName),
	}, nil
}

// Registry returns the registry the engine renders from.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Template returns the template req selects.
func (e *Engine) Template(req Request) (*doctpl.Template, error) {
	if req.TemplateID == "" && req.Language != "" {
		return e.reg.TemplateFor(req.Category, req.Language)
	}
	return e.reg.Template(req.Category, req.TemplateID)
}

// Render renders the document req selects.
func (e *Engine) Render(ctx context.Context, req Request) (*Document, error) {
	t, err := e.Template(req)
	if err != nil {
		return nil, newRenderError("Render", req.TemplateID, err)
	}
	return e.RenderTemplate(ctx, t, req.Context)
}

// RenderTemplate renders t with data. Missing variables, type mismatches and
// section failures abort the render before any byte is produced.
func (e *Engine) RenderTemplate(ctx context.Context, t *doctpl.Template, data doctpl.Context) (doc *Document, err error) {
	ctx, span := e.tracer.Start(ctx, "procuredocs.Render", trace.WithAttributes(
		attribute.String("template.id", t.ID),
		attribute.String("template.category", string(t.Category)),
		attribute.String("template.language", string(t.Language)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	res, c, l, err := e.layout(ctx, t, data)
	if err != nil {
		return nil, newRenderError("Render", t.ID, err)
	}
	if err := assemble.Emit(ctx, l, c); err != nil {
		return nil, newRenderError("Render", t.ID, err)
	}
	b, err := c.Bytes()
	if err != nil {
		return nil, newRenderError("Render", t.ID, err)
	}

	sum := sha256.Sum256(b)
	doc = &Document{
		Bytes: b,
		Meta: Metadata{
			ID:              uuid.NewString(),
			PageCount:       l.PageCount(),
			ByteSize:        len(b),
			GeneratedAt:     e.cfg.clock().UTC(),
			TemplateID:      res.TemplateID,
			TemplateVersion: res.Version,
			Category:        res.Category,
			Language:        res.Language,
			Checksum:        hex.EncodeToString(sum[:]),
		},
	}
	span.SetAttributes(attribute.Int("document.pages", doc.Meta.PageCount), attribute.Int("document.bytes", doc.Meta.ByteSize))
	e.cfg.log.WithFields(logrus.Fields{
		"template_id": t.ID,
		"category":    t.Category,
		"document_id": doc.Meta.ID,
		"pages":       doc.Meta.PageCount,
		"bytes":       doc.Meta.ByteSize,
	}).Info("document rendered")
	return doc, nil
}

// Layout runs pagination for req without writing a PDF. Previews use it to
// report page counts.
func (e *Engine) Layout(ctx context.Context, req Request) (*assemble.Layout, error) {
	t, err := e.Template(req)
	if err != nil {
		return nil, newRenderError("Layout", req.TemplateID, err)
	}
	_, _, l, err := e.layout(ctx, t, req.Context)
	if err != nil {
		return nil, newRenderError("Layout", t.ID, err)
	}
	return l, nil
}

func (e *Engine) layout(ctx context.Context, t *doctpl.Template, data doctpl.Context) (*doctpl.Resolved, *canvas.Canvas, *assemble.Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	res, err := doctpl.Resolve(t, data)
	if err != nil {
		return nil, nil, nil, err
	}
	page := render.NewPage(res)
	c, err := canvas.New(page.Geometry, e.cfg.fonts, e.canvasOptions(t, res)...)
	if err != nil {
		return nil, nil, nil, err
	}
	l, err := assemble.Build(ctx, res, c)
	if err != nil {
		return nil, nil, nil, err
	}
	return res, c, l, nil
}

func (e *Engine) canvasOptions(t *doctpl.Template, res *doctpl.Resolved) []canvas.Option {
	title := t.Name
	if title == "" {
		title = t.ID
	}
	opts := []canvas.Option{
		canvas.WithCreationDate(e.cfg.created),
		canvas.WithCompression(e.cfg.compress),
		canvas.WithMetadata(title, e.cfg.author, string(t.Category)),
	}
	if res.Styles.Letterhead != "" {
		opts = append(opts, canvas.WithLetterhead(res.Styles.Letterhead))
	}
	if res.Styles.Watermark != "" {
		opts = append(opts, canvas.WithWatermark(res.Styles.Watermark, res.RTL))
	}
	return opts
}

// RenderBatch renders reqs in parallel, at most WithConcurrency at a time.
// Documents are returned in request order. The first failure cancels the
// remaining renders and is returned.
func (e *Engine) RenderBatch(ctx context.Context, reqs []Request) ([]*Document, error) {
	docs := make([]*Document, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			doc, err := e.Render(ctx, req)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
