package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/service"
)

type fakeEngine struct {
	renders atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

var offerTemplate = &doctpl.Template{ID: "offer", Category: doctpl.CategoryPriceOffer, Version: 2}

func (e *fakeEngine) Template(req procuredocs.Request) (*doctpl.Template, error) {
	if req.Category != doctpl.CategoryPriceOffer {
		return nil, procuredocs.ErrTemplateNotFound
	}
	return offerTemplate, nil
}

func (e *fakeEngine) RenderTemplate(ctx context.Context, t *doctpl.Template, data doctpl.Context) (*procuredocs.Document, error) {
	if e.renders.Add(1) == 1 && e.started != nil {
		close(e.started)
	}
	if e.release != nil {
		<-e.release
	}
	if e.err != nil {
		return nil, e.err
	}
	return &procuredocs.Document{
		Bytes: []byte("%PDF-1.4"),
		Meta:  procuredocs.Metadata{ID: "doc-1", TemplateID: t.ID, Category: t.Category, PageCount: 1},
	}, nil
}

type memCache struct {
	mu   sync.Mutex
	docs map[string]*procuredocs.Document
	ttl  time.Duration
}

func newMemCache() *memCache { return &memCache{docs: make(map[string]*procuredocs.Document)} }

func (c *memCache) Get(_ context.Context, key string) (*procuredocs.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, doc *procuredocs.Document, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = doc
	c.ttl = ttl
	return nil
}

type memLocker struct {
	locks, releases atomic.Int32
	onLock          func()
}

func (l *memLocker) Lock(context.Context, string, time.Duration) (func(context.Context) error, error) {
	l.locks.Add(1)
	if l.onLock != nil {
		l.onLock()
	}
	return func(context.Context) error { l.releases.Add(1); return nil }, nil
}

type failingArchive struct{ calls int }

func (a *failingArchive) Put(context.Context, *procuredocs.Document) error {
	a.calls++
	return errors.New("bucket unavailable")
}

func request(n string) procuredocs.Request {
	return procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: doctpl.Context{"documentNumber": n}}
}

func TestKey(t *testing.T) {
	a, err := service.Key(offerTemplate, doctpl.Context{"a": 1, "b": "x"})
	require.NoError(t, err)
	b, err := service.Key(offerTemplate, doctpl.Context{"b": "x", "a": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := service.Key(offerTemplate, doctpl.Context{"a": 2, "b": "x"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	v3 := *offerTemplate
	v3.Version = 3
	d, err := service.Key(&v3, doctpl.Context{"a": 1, "b": "x"})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)

	_, err = service.Key(offerTemplate, doctpl.Context{"f": func() {}})
	assert.Error(t, err)
}

type amount struct{ minor int64 }

func (a amount) String() string { return fmt.Sprintf("%d.%02d", a.minor/100, a.minor%100) }

func TestKeyUsesStringForms(t *testing.T) {
	a, err := service.Key(offerTemplate, doctpl.Context{"total": amount{1250}})
	require.NoError(t, err)
	b, err := service.Key(offerTemplate, doctpl.Context{"total": amount{9900}})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	rows := func(v any) doctpl.Context {
		return doctpl.Context{"items": []doctpl.Record{{"price": v, "sku": "A-1"}}}
	}
	c, err := service.Key(offerTemplate, rows(amount{100}))
	require.NoError(t, err)
	d, err := service.Key(offerTemplate, rows(amount{200}))
	require.NoError(t, err)
	assert.NotEqual(t, c, d)

	// a string and a number bind differently in conditions
	e, err := service.Key(offerTemplate, doctpl.Context{"qty": "1"})
	require.NoError(t, err)
	f, err := service.Key(offerTemplate, doctpl.Context{"qty": 1})
	require.NoError(t, err)
	assert.NotEqual(t, e, f)

	var none *amount
	g, err := service.Key(offerTemplate, doctpl.Context{"total": none})
	require.NoError(t, err)
	h, err := service.Key(offerTemplate, doctpl.Context{"total": nil})
	require.NoError(t, err)
	assert.Equal(t, g, h)
}

func TestGenerateUsesCache(t *testing.T) {
	eng := &fakeEngine{}
	cache := newMemCache()
	svc := service.New(eng, service.WithCache(cache, time.Hour))

	first, err := svc.Generate(context.Background(), request("PO-1"))
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), request("PO-1"))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, eng.renders.Load())
	assert.Equal(t, time.Hour, cache.ttl)

	_, err = svc.Generate(context.Background(), request("PO-2"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, eng.renders.Load())
}

func TestGenerateCollapsesConcurrentRequests(t *testing.T) {
	eng := &fakeEngine{started: make(chan struct{}), release: make(chan struct{})}
	svc := service.New(eng)

	var wg sync.WaitGroup
	docs := make([]*procuredocs.Document, 5)
	for i := range docs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := svc.Generate(context.Background(), request("PO-1"))
			assert.NoError(t, err)
			docs[i] = doc
		}()
	}
	<-eng.started
	time.Sleep(50 * time.Millisecond)
	close(eng.release)
	wg.Wait()

	assert.EqualValues(t, 1, eng.renders.Load())
	for _, d := range docs {
		assert.Same(t, docs[0], d)
	}
}

func TestGenerateOutlivesCancelledCaller(t *testing.T) {
	eng := &fakeEngine{started: make(chan struct{}), release: make(chan struct{})}
	svc := service.New(eng)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctx, request("PO-1"))
		firstErr <- err
	}()
	<-eng.started

	second := make(chan *procuredocs.Document, 1)
	go func() {
		doc, err := svc.Generate(context.Background(), request("PO-1"))
		assert.NoError(t, err)
		second <- doc
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(eng.release)
	doc := <-second
	require.NotNil(t, doc)
	assert.Equal(t, "doc-1", doc.Meta.ID)
	assert.EqualValues(t, 1, eng.renders.Load())
}

func TestGenerateLocksAndRechecksCache(t *testing.T) {
	eng := &fakeEngine{}
	cache := newMemCache()
	locker := &memLocker{}
	svc := service.New(eng, service.WithCache(cache, time.Minute), service.WithLocker(locker, time.Second))

	_, err := svc.Generate(context.Background(), request("PO-1"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, locker.locks.Load())
	assert.EqualValues(t, 1, locker.releases.Load())

	// another instance fills the cache while this one waits for the lock
	stored := &procuredocs.Document{Meta: procuredocs.Metadata{ID: "from-peer"}}
	key, err := service.Key(offerTemplate, request("PO-9").Context)
	require.NoError(t, err)
	locker.onLock = func() { _ = cache.Set(context.Background(), key, stored, time.Minute) }

	doc, err := svc.Generate(context.Background(), request("PO-9"))
	require.NoError(t, err)
	assert.Equal(t, "from-peer", doc.Meta.ID)
	assert.EqualValues(t, 1, eng.renders.Load())
}

func TestArchiveFailureIsLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	archive := &failingArchive{}
	svc := service.New(&fakeEngine{}, service.WithArchive(archive), service.WithLogger(log))

	doc, err := svc.Generate(context.Background(), request("PO-1"))
	require.NoError(t, err)
	assert.NotNil(t, doc)
	assert.Equal(t, 1, archive.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "doc-1", hook.LastEntry().Data["document_id"])
}

func TestGenerateErrors(t *testing.T) {
	svc := service.New(&fakeEngine{err: procuredocs.ErrMissingVariables})
	_, err := svc.Generate(context.Background(), request("PO-1"))
	assert.ErrorIs(t, err, procuredocs.ErrMissingVariables)

	_, err = svc.Generate(context.Background(), procuredocs.Request{Category: doctpl.CategoryInvoice})
	assert.ErrorIs(t, err, procuredocs.ErrTemplateNotFound)
}

func TestGCSObjectName(t *testing.T) {
	ctx := context.Background()
	_, err := service.NewGCSArchive(ctx, "", "docs")
	assert.Error(t, err)

	a, err := service.NewGCSArchive(ctx, "procurement", "docs", option.WithoutAuthentication())
	require.NoError(t, err)
	defer a.Close()
	doc := &procuredocs.Document{Meta: procuredocs.Metadata{ID: "8f14e45f", Category: doctpl.CategoryInvoice}}
	assert.Equal(t, "docs/invoice/8f14e45f.pdf", a.ObjectName(doc))
}

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()

	cache := service.NewRedisCache(rdb)
	_, ok, err := cache.Get(ctx, "absent-"+t.Name())
	require.NoError(t, err)
	assert.False(t, ok)

	doc := &procuredocs.Document{Bytes: []byte("%PDF"), Meta: procuredocs.Metadata{ID: "x", PageCount: 2}}
	require.NoError(t, cache.Set(ctx, t.Name(), doc, time.Minute))
	got, ok, err := cache.Get(ctx, t.Name())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc.Bytes, got.Bytes)
	assert.Equal(t, 2, got.Meta.PageCount)

	locker := service.NewRedisLocker(rdb)
	unlock, err := locker.Lock(ctx, t.Name(), time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
