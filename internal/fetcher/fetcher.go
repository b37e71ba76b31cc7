// ABOUTME: Resource Fetcher performing de-duplicated, cached GET requests for list pages
// ABOUTME: Concurrent fetches of one URL share a request; failures never evict cached data

package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/2389/automation-console/internal/api"
	"github.com/2389/automation-console/internal/cache"
)

// Default cache settings.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 256
)

// Getter performs a GET and returns the raw reply body. *api.Client satisfies it.
type Getter interface {
	GetRaw(ctx context.Context, path string) ([]byte, error)
}

// Options configures a Fetcher.
type Options struct {
	TTL        time.Duration // how long a page stays in the cache
	MaxEntries int
	Logger     *slog.Logger
}

// Fetcher loads pages of one item type from one server.
type Fetcher[T any] struct {
	getter   Getter
	envelope api.Envelope
	cache    *cache.Cache[*api.ListResponse[T]]
	group    singleflight.Group
	logger   *slog.Logger

	// ctx bounds shared requests; Close cancels it
	ctx    context.Context
	cancel context.CancelFunc

	prefetches sync.WaitGroup
}

// New creates a Fetcher decoding replies with the given envelope.
func New[T any](getter Getter, envelope api.Envelope, opts Options) *Fetcher[T] {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "fetcher")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Fetcher[T]{
		getter:   getter,
		envelope: envelope,
		cache:    cache.New[*api.ListResponse[T]](opts.TTL, opts.MaxEntries),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Fetch requests the page identified by key. Concurrent calls for the same
// normalized key share one network request. A successful reply replaces the
// cached page; a failed one leaves it in place.
//
// The shared request belongs to the fetcher, not to any caller: a caller
// whose ctx ends stops waiting, and the request keeps running for the others
// until it completes or Close is called. Values of the first caller's ctx
// are kept.
func (f *Fetcher[T]) Fetch(ctx context.Context, key cache.Key) (*api.ListResponse[T], error) {
	id := key.Normalized().URL()

	ch := f.group.DoChan(id, func() (any, error) {
		reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(f.ctx, cancel)
		defer stop()

		body, err := f.getter.GetRaw(reqCtx, key.URL())
		if err != nil {
			return nil, err
		}
		resp, err := api.DecodeList[T](f.envelope, body)
		if err != nil {
			return nil, err
		}
		f.cache.Set(key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, &api.NetworkError{Op: "GET", URL: key.URL(), Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			if !api.IsCanceled(res.Err) {
				f.logger.Debug("fetch failed", "url", key.URL(), "error", res.Err)
			}
			return nil, res.Err
		}
		resp, _ := res.Val.(*api.ListResponse[T])
		return resp, nil
	}
}

// Cached returns the last good page for key, if it has not expired.
func (f *Fetcher[T]) Cached(key cache.Key) (*api.ListResponse[T], bool) {
	return f.cache.Get(key)
}

// Prefetch loads the page behind a next-page link into the cache in the
// background. Links already cached are skipped; errors are only logged.
func (f *Fetcher[T]) Prefetch(ctx context.Context, next string) {
	if next == "" {
		return
	}
	key := cache.ParseKey(api.ServerlessURL(next))
	if _, ok := f.cache.Get(key); ok {
		return
	}

	f.prefetches.Add(1)
	go func() {
		defer f.prefetches.Done()
		if _, err := f.Fetch(ctx, key); err != nil && !api.IsCanceled(err) {
			f.logger.Debug("prefetch failed", "url", key.URL(), "error", err)
		}
	}()
}

// Invalidate drops every cached page of resource.
func (f *Fetcher[T]) Invalidate(resource string) {
	if n := f.cache.Invalidate(resource); n > 0 {
		f.logger.Debug("invalidated cached pages", "resource", resource, "count", n)
	}
}

// Wait blocks until background prefetches have finished.
func (f *Fetcher[T]) Wait() {
	f.prefetches.Wait()
}

// Close aborts shared requests, waits for prefetches and stops the cache's
// cleanup goroutine.
func (f *Fetcher[T]) Close() {
	f.cancel()
	f.prefetches.Wait()
	f.cache.Close()
}
