package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"creditdash/domain/dataset"
	apperrors "creditdash/internal/errors"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Decoder turns source bytes into a typed dataset
type Decoder interface {
	Decode(src dataset.Source, data []byte) (*dataset.Dataset, error)
}

// Recorder receives cache and load outcomes; internal/metrics implements it
type Recorder interface {
	ObserveCacheLookup(hit bool)
	ObserveLoad(result string)
}

// Options bounds the cache's resource use
type Options struct {
	MaxConcurrentLoads int64
	MaxUploadBytes     int64
	MaxUploads         int
}

// DefaultOptions returns the limits used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxConcurrentLoads: 2,
		MaxUploadBytes:     50 << 20,
		MaxUploads:         16,
	}
}

type entry struct {
	ds       *dataset.Dataset
	err      error
	upload   bool
	loadedAt time.Time
}

// Cache loads each distinct source at most once and shares the immutable
// result between requests. Parse failures are cached too; I/O failures are not,
// so a default file that appears later is picked up.
type Cache struct {
	decoder  Decoder
	opts     Options
	recorder Recorder
	logger   *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry

	group singleflight.Group
	sem   *semaphore.Weighted
}

// NewCache creates a cache in front of the decoder. recorder may be nil.
func NewCache(decoder Decoder, opts Options, recorder Recorder) *Cache {
	if opts.MaxConcurrentLoads <= 0 {
		opts.MaxConcurrentLoads = DefaultOptions().MaxConcurrentLoads
	}
	if opts.MaxUploads <= 0 {
		opts.MaxUploads = DefaultOptions().MaxUploads
	}
	return &Cache{
		decoder:  decoder,
		opts:     opts,
		recorder: recorder,
		logger:   slog.Default().With("component", "loader"),
		entries:  make(map[string]*entry),
		sem:      semaphore.NewWeighted(opts.MaxConcurrentLoads),
	}
}

// Load returns the dataset for a source, parsing it only on first use
func (c *Cache) Load(ctx context.Context, src Source) (*dataset.Dataset, error) {
	key := src.Key()

	if e, ok := c.peek(key); ok {
		c.observeLookup(true)
		return e.ds, e.err
	}
	c.observeLookup(false)

	if src.IsUpload() && c.opts.MaxUploadBytes > 0 && int64(len(src.Data)) > c.opts.MaxUploadBytes {
		c.observeLoad("rejected")
		return nil, apperrors.PayloadTooLarge(c.opts.MaxUploadBytes)
	}

	// the flight outlives any one caller; each caller stops waiting on its own ctx
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// a flight that finished between peek and DoChan already stored the entry
		if e, ok := c.peek(key); ok {
			return e, nil
		}
		if err := c.sem.Acquire(flightCtx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)

		return c.load(key, src), nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, apperrors.Wrap(res.Err, "dataset load interrupted")
		}
		e := res.Val.(*entry)
		return e.ds, e.err
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), "dataset load interrupted")
	}
}

// Lookup returns a previously loaded source by key without touching its bytes.
// found is false when the key was never loaded or has been evicted.
func (c *Cache) Lookup(key string) (ds *dataset.Dataset, found bool, err error) {
	e, ok := c.peek(key)
	if !ok {
		return nil, false, nil
	}
	c.observeLookup(true)
	return e.ds, true, e.err
}

// Cached reports whether key holds a stored result and the load error it
// carries. Unlike Lookup it does not count as a cache hit.
func (c *Cache) Cached(key string) (found bool, err error) {
	e, ok := c.peek(key)
	if !ok {
		return false, nil
	}
	return true, e.err
}

// Len returns the number of cached sources
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) peek(key string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) load(key string, src Source) *entry {
	data := src.Data
	if !src.IsUpload() {
		raw, err := os.ReadFile(src.Path)
		if err != nil {
			c.observeLoad("io_error")
			if errors.Is(err, os.ErrNotExist) {
				err = apperrors.NotFound(fmt.Sprintf("data file %s", src.Path))
			}
			c.logger.Error("failed to read data file", "path", src.Path, "error", err)
			// not stored: the file may show up later
			return &entry{err: apperrors.Wrap(err, "failed to load dataset")}
		}
		data = raw
	}

	ds, err := c.decoder.Decode(src.descriptor(int64(len(data))), data)
	e := &entry{ds: ds, err: err, upload: src.IsUpload(), loadedAt: time.Now()}
	if err != nil {
		e.ds = nil
		e.err = apperrors.Wrapf(err, "failed to load %s", src.Name)
		c.observeLoad("parse_error")
		c.logger.Warn("dataset rejected", "source", src.Name, "error", err)
	} else {
		c.observeLoad("ok")
		c.logger.Info("dataset cached", "source", src.Name, "key", key, "rows", ds.NumRows())
	}

	c.store(key, e)
	return e
}

func (c *Cache) store(key string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	if e.upload {
		c.evictUploadsLocked()
	}
}

// evictUploadsLocked drops the oldest uploads beyond MaxUploads. File sources stay.
func (c *Cache) evictUploadsLocked() {
	for {
		var (
			oldestKey string
			oldest    time.Time
			uploads   int
		)
		for k, e := range c.entries {
			if !e.upload {
				continue
			}
			uploads++
			if oldestKey == "" || e.loadedAt.Before(oldest) {
				oldestKey, oldest = k, e.loadedAt
			}
		}
		if uploads <= c.opts.MaxUploads {
			return
		}
		delete(c.entries, oldestKey)
		c.logger.Debug("evicted upload", "key", oldestKey)
	}
}

func (c *Cache) observeLookup(hit bool) {
	if c.recorder != nil {
		c.recorder.ObserveCacheLookup(hit)
	}
}

func (c *Cache) observeLoad(result string) {
	if c.recorder != nil {
		c.recorder.ObserveLoad(result)
	}
}
