// Package httpapi exposes the document engine over HTTP with gin.
//
//	GET  /v1/categories
//	GET  /v1/categories/:category/variables
//	GET  /v1/templates
//	POST /v1/documents/:category          renders, responds with the PDF
//	POST /v1/documents/:category/preview  paginates only, responds with JSON
//
// A render body carries either a flat binding context or a typed entity
// that the binding package turns into one.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/binding"
	"github.com/alqadi/procuredocs/doctpl"
)

// Generator produces documents. *service.Service implements it.
type Generator interface {
	Generate(ctx context.Context, req procuredocs.Request) (*procuredocs.Document, error)
}

type engineGenerator struct{ eng *procuredocs.Engine }

func (g engineGenerator) Generate(ctx context.Context, req procuredocs.Request) (*procuredocs.Document, error) {
	return g.eng.Render(ctx, req)
}

// Option configures a Handler.
type Option func(*Handler)

// WithGenerator renders through g instead of calling the engine directly.
func WithGenerator(g Generator) Option {
	return func(h *Handler) { h.gen = g }
}

// WithLogger sets the request logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Handler) { h.log = l }
}

// WithAllowedOrigins restricts CORS to origins. All origins are allowed
// otherwise.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) { h.origins = origins }
}

// WithPhoneRegion sets the default phone region used when binding entities.
func WithPhoneRegion(region string) Option {
	return func(h *Handler) { h.region = region }
}

// Handler serves the API.
type Handler struct {
	eng     *procuredocs.Engine
	gen     Generator
	log     logrus.FieldLogger
	origins []string
	region  string
}

// New returns a handler over eng.
func New(eng *procuredocs.Engine, opts ...Option) *Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := &Handler{eng: eng, gen: engineGenerator{eng}, log: log, region: "SA"}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the gin engine serving every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(h.requestID(), h.requestLogger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(h.origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = h.origins
	}
	corsConfig.AddAllowHeaders("Authorization", "X-Request-Id")
	corsConfig.AddExposeHeaders("Content-Disposition", "X-Request-Id",
		"X-Document-Id", "X-Document-Pages", "X-Document-Template", "X-Document-Template-Version",
		"X-Document-Language", "X-Document-Checksum")
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	v1 := r.Group("/v1")
	v1.GET("/categories", h.categories)
	v1.GET("/categories/:category/variables", h.variables)
	v1.GET("/templates", h.templates)
	v1.POST("/documents/:category", h.render)
	v1.POST("/documents/:category/preview", h.preview)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorBody{
			Code:    "route_not_found",
			Message: Message{EN: "route not found", AR: "المسار غير موجود"},
		})
	})
	return r
}

func (h *Handler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := h.log.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"latency":    time.Since(start).String(),
			"request_id": c.GetString("request_id"),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request")
			return
		}
		entry.Info("request")
	}
}

type categoryInfo struct {
	Category  doctpl.Category `json:"category"`
	Templates []string        `json:"templates"`
}

func (h *Handler) categories(c *gin.Context) {
	reg := h.eng.Registry()
	byCat := make(map[doctpl.Category][]string)
	for _, t := range reg.Templates() {
		if t.IsActive {
			byCat[t.Category] = append(byCat[t.Category], t.ID)
		}
	}
	out := []categoryInfo{}
	for _, cat := range reg.Categories() {
		out = append(out, categoryInfo{Category: cat, Templates: byCat[cat]})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h *Handler) variables(c *gin.Context) {
	cat := doctpl.Category(c.Param("category"))
	vars, err := h.eng.Registry().Variables(cat)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat, "variables": vars})
}

type templateInfo struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Category  doctpl.Category `json:"category"`
	Language  doctpl.Language `json:"language"`
	Version   int             `json:"version"`
	IsActive  bool            `json:"isActive"`
	IsDefault bool            `json:"isDefault"`
	Sections  int             `json:"sections"`
}

func (h *Handler) templates(c *gin.Context) {
	cat := doctpl.Category(c.Query("category"))
	out := []templateInfo{}
	for _, t := range h.eng.Registry().Templates() {
		if cat != "" && t.Category != cat {
			continue
		}
		out = append(out, templateInfo{
			ID:        t.ID,
			Name:      t.Name,
			Category:  t.Category,
			Language:  t.Language,
			Version:   t.Version,
			IsActive:  t.IsActive,
			IsDefault: t.IsDefault,
			Sections:  len(t.Sections),
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

// DocumentRequest is the body of the render and preview routes. Exactly one
// of Context and Entity is set. Currency and TaxRate apply to entities.
type DocumentRequest struct {
	TemplateID string          `json:"templateId"`
	Language   doctpl.Language `json:"language" binding:"omitempty,oneof=ar en"`
	Context    doctpl.Context  `json:"context"`
	Entity     json.RawMessage `json:"entity"`
	Currency   string          `json:"currency" binding:"omitempty,len=3"`
	TaxRate    decimal.Decimal `json:"taxRate"`
}

func (h *Handler) request(c *gin.Context) (procuredocs.Request, bool) {
	var body DocumentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(errMalformed.status, ErrorBody{Code: errMalformed.code, Message: errMalformed.msg, Details: err.Error()})
		return procuredocs.Request{}, false
	}
	req := procuredocs.Request{
		Category:   doctpl.Category(c.Param("category")),
		TemplateID: body.TemplateID,
		Language:   body.Language,
		Context:    body.Context,
	}
	if (len(body.Entity) == 0) == (body.Context == nil) {
		c.JSON(errMalformed.status, ErrorBody{
			Code:    errMalformed.code,
			Message: Message{EN: "exactly one of context and entity is required", AR: "يجب إرسال السياق أو الكيان وليس كليهما"},
		})
		return req, false
	}
	if len(body.Entity) > 0 {
		t, err := h.eng.Template(req)
		if err != nil {
			h.fail(c, err)
			return req, false
		}
		b := binding.NewBuilder(t.Language, body.Currency, body.TaxRate, h.region)
		if req.Context, err = b.Bind(req.Category, body.Entity); err != nil {
			h.fail(c, err)
			return req, false
		}
		req.TemplateID = t.ID
	}
	return req, true
}

func (h *Handler) render(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	doc, err := h.gen.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	m := doc.Meta
	c.Header("Content-Disposition", `inline; filename="`+m.ID+`.pdf"`)
	c.Header("X-Document-Id", m.ID)
	c.Header("X-Document-Pages", strconv.Itoa(m.PageCount))
	c.Header("X-Document-Template", m.TemplateID)
	c.Header("X-Document-Template-Version", strconv.Itoa(m.TemplateVersion))
	c.Header("X-Document-Language", string(m.Language))
	c.Header("X-Document-Checksum", m.Checksum)
	c.Data(http.StatusOK, "application/pdf", doc.Bytes)
}

func (h *Handler) preview(c *gin.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	l, err := h.eng.Layout(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	pages := make([]int, len(l.Pages))
	for i, p := range l.Pages {
		pages[i] = len(p.Placements)
	}
	c.JSON(http.StatusOK, gin.H{"pageCount": l.PageCount(), "blocksPerPage": pages})
}
