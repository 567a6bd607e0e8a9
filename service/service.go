// Package service puts caching, de-duplication and archiving around the
// render engine.
//
// Identical requests are rendered once: a cache lookup comes first, then
// concurrent callers in the process share a single render, and an optional
// distributed lock keeps other instances from rendering the same document at
// the same time. Fresh documents are written to the cache and the archive.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/doctpl"
)

// Renderer is the part of procuredocs.Engine the service needs.
type Renderer interface {
	Template(req procuredocs.Request) (*doctpl.Template, error)
	RenderTemplate(ctx context.Context, t *doctpl.Template, data doctpl.Context) (*procuredocs.Document, error)
}

// Cache stores rendered documents by key.
type Cache interface {
	Get(ctx context.Context, key string) (*procuredocs.Document, bool, error)
	Set(ctx context.Context, key string, doc *procuredocs.Document, ttl time.Duration) error
}

// Archive keeps a copy of every rendered document.
type Archive interface {
	Put(ctx context.Context, doc *procuredocs.Document) error
}

// Locker takes a lock shared between service instances. The returned
// function releases it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the document cache with entries living for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) { s.cache, s.ttl = c, ttl }
}

// WithArchive enables archiving of freshly rendered documents.
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithLocker enables the cross-instance render lock.
func WithLocker(l Locker, ttl time.Duration) Option {
	return func(s *Service) { s.locker, s.lockTTL = l, ttl }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithTracerProvider sets the provider of the service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("github.com/alqadi/procuredocs/service") }
}

// Service generates documents through an engine.
type Service struct {
	eng     Renderer
	cache   Cache
	ttl     time.Duration
	archive Archive
	locker  Locker
	lockTTL time.Duration
	log     logrus.FieldLogger
	tracer  trace.Tracer
	group   singleflight.Group
}

// New returns a service rendering with eng. Cache, archive and lock are off
// unless enabled with options.
func New(eng Renderer, opts ...Option) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := &Service{
		eng:     eng,
		log:     log,
		lockTTL: 30 * time.Second,
		tracer:  otel.Tracer("github.com/alqadi/procuredocs/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key identifies the document a template renders from data: a sha256 over
// the template id and version and the canonical form of data.
func Key(t *doctpl.Template, data doctpl.Context) (string, error) {
	b, err := data.Canonical()
	if err != nil {
		return "", fmt.Errorf("service: encoding context: %w", err)
	}
	h := sha256.New()
	io.WriteString(h, t.ID)
	h.Write([]byte{0})
	io.WriteString(h, strconv.Itoa(t.Version))
	h.Write([]byte{0})
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Generate returns the document req describes, from the cache when present.
func (s *Service) Generate(ctx context.Context, req procuredocs.Request) (*procuredocs.Document, error) {
	ctx, span := s.tracer.Start(ctx, "service.Generate")
	defer span.End()

	t, err := s.eng.Template(req)
	if err != nil {
		return nil, err
	}
	key, err := Key(t, req.Context)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("template.id", t.ID), attribute.String("document.key", key))
	log := s.log.WithFields(logrus.Fields{"template_id": t.ID, "category": t.Category, "key": key})

	if doc, ok := s.cached(ctx, log, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return doc, nil
	}

	// The shared render outlives any one caller; each waits on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.render(context.WithoutCancel(ctx), log, key, t, req.Context)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		span.SetAttributes(attribute.Bool("singleflight.shared", res.Shared))
		return res.Val.(*procuredocs.Document), nil
	}
}

func (s *Service) cached(ctx context.Context, log logrus.FieldLogger, key string) (*procuredocs.Document, bool) {
	if s.cache == nil {
		return nil, false
	}
	doc, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("cache lookup failed")
		return nil, false
	}
	return doc, ok
}

func (s *Service) render(ctx context.Context, log logrus.FieldLogger, key string, t *doctpl.Template, data doctpl.Context) (*procuredocs.Document, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, key, s.lockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.WithError(err).Warn("releasing render lock failed")
			}
		}()
		// another instance may have finished while we waited
		if doc, ok := s.cached(ctx, log, key); ok {
			return doc, nil
		}
	}

	doc, err := s.eng.RenderTemplate(ctx, t, data)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, doc, s.ttl); err != nil {
			log.WithError(err).Warn("cache store failed")
		}
	}
	if s.archive != nil {
		if err := s.archive.Put(ctx, doc); err != nil {
			log.WithError(err).WithField("document_id", doc.Meta.ID).Error("archiving document failed")
		}
	}
	return doc, nil
}
