package procuredocs

import (
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/alqadi/procuredocs/canvas"
)

// Option is a functional option for configuring an Engine via New.
type Option func(*engineConfig)

type engineConfig struct {
	log         logrus.FieldLogger
	clock       func() time.Time
	concurrency int
	fonts       *canvas.FontSet
	compress    bool
	created     time.Time
	author      string
	tracer      trace.TracerProvider
}

// WithLogger sets the logger. By default only warnings and errors are
// written, to stderr.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *engineConfig) {
		c.log = l
	}
}

// WithClock sets the source of Metadata.GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(c *engineConfig) {
		c.clock = now
	}
}

// WithConcurrency bounds the number of documents RenderBatch renders at
// once. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithFonts sets the font set used for every document. Arabic templates need
// a family with Arabic glyphs, see canvas.LoadFontDir.
func WithFonts(fs *canvas.FontSet) Option {
	return func(c *engineConfig) {
		c.fonts = fs
	}
}

// WithCompression toggles PDF stream compression (default on).
func WithCompression(on bool) Option {
	return func(c *engineConfig) {
		c.compress = on
	}
}

// WithCreationDate sets the creation date written into every PDF. The
// default is canvas.Epoch so output stays byte-identical across runs.
func WithCreationDate(t time.Time) Option {
	return func(c *engineConfig) {
		c.created = t
	}
}

// WithAuthor sets the author entry of the PDF information dictionary.
func WithAuthor(name string) Option {
	return func(c *engineConfig) {
		c.author = name
	}
}

// WithTracerProvider sets the provider of the render spans. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *engineConfig) {
		c.tracer = tp
	}
}

func defaultConfig() engineConfig {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return engineConfig{
		log:         log,
		clock:       time.Now,
		concurrency: 4,
		compress:    true,
		created:     canvas.Epoch,
		tracer:      otel.GetTracerProvider(),
	}
}
