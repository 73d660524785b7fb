package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"creditdash/adapters/tabular"
	"creditdash/domain/dataset"
	apperrors "creditdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDecoder struct {
	inner *tabular.Reader
	calls atomic.Int32
}

func (d *countingDecoder) Decode(src dataset.Source, data []byte) (*dataset.Dataset, error) {
	d.calls.Add(1)
	return d.inner.Decode(src, data)
}

type recorder struct {
	mu     sync.Mutex
	hits   int
	misses int
	loads  map[string]int
}

func (r *recorder) ObserveCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recorder) ObserveLoad(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loads == nil {
		r.loads = map[string]int{}
	}
	r.loads[result]++
}

func newTestCache(opts Options) (*Cache, *countingDecoder, *recorder) {
	dec := &countingDecoder{inner: tabular.NewReader(tabular.DefaultCoercionConfig())}
	rec := &recorder{}
	return NewCache(dec, opts, rec), dec, rec
}

func TestCache_LoadsUploadOnce(t *testing.T) {
	cache, dec, rec := newTestCache(DefaultOptions())
	ctx := context.Background()
	body := []byte("age,monthly_inc\n20,1000\n30,2000\n")

	first, err := cache.Load(ctx, UploadSource("a.csv", body))
	require.NoError(t, err)
	second, err := cache.Load(ctx, UploadSource("renamed.csv", append([]byte(nil), body...)))
	require.NoError(t, err)

	assert.Same(t, first, second, "same content is the same source")
	assert.Equal(t, int32(1), dec.calls.Load())
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, dataset.SourceKindUpload, first.Source.Kind)
}

func TestCache_ConcurrentFirstLoadDeduplicated(t *testing.T) {
	cache, dec, _ := newTestCache(DefaultOptions())
	body := []byte("age\n1\n2\n3\n")

	var wg sync.WaitGroup
	results := make([]*dataset.Dataset, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := cache.Load(context.Background(), UploadSource("x.csv", body))
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), dec.calls.Load())
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
}

func TestCache_ParseFailureIsCached(t *testing.T) {
	cache, dec, rec := newTestCache(DefaultOptions())
	bad := UploadSource("bad.csv", []byte("a,b\n1,2,3\n"))

	for i := 0; i < 3; i++ {
		ds, err := cache.Load(context.Background(), bad)
		require.Error(t, err)
		assert.Nil(t, ds)
		assert.Equal(t, apperrors.CodeParseError, apperrors.GetCode(err))
	}
	assert.Equal(t, int32(1), dec.calls.Load())
	assert.Equal(t, 1, rec.loads["parse_error"])

	_, found, err := cache.Lookup(bad.Key())
	assert.True(t, found)
	assert.Error(t, err)
}

func TestCache_MissingFileNotCached(t *testing.T) {
	cache, _, _ := newTestCache(DefaultOptions())
	path := filepath.Join(t.TempDir(), "credit.csv")

	_, err := cache.Load(context.Background(), PathSource(path))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
	assert.Equal(t, 0, cache.Len())

	require.NoError(t, os.WriteFile(path, []byte("age\n42\n"), 0o644))
	ds, err := cache.Load(context.Background(), PathSource(path))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.NumRows())
	assert.Equal(t, dataset.SourceKindPath, ds.Source.Kind)
}

func TestCache_RejectsOversizedUpload(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxUploadBytes = 8
	cache, dec, _ := newTestCache(opts)

	_, err := cache.Load(context.Background(), UploadSource("big.csv", []byte("age\n1\n2\n3\n4\n")))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePayloadTooLarge, apperrors.GetCode(err))
	assert.Equal(t, int32(0), dec.calls.Load())
}

func TestCache_EvictsOldestUploads(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxUploads = 2
	cache, _, _ := newTestCache(opts)

	var keys []string
	for i := 0; i < 3; i++ {
		src := UploadSource("u.csv", []byte(fmt.Sprintf("n\n%d\n", i)))
		keys = append(keys, src.Key())
		_, err := cache.Load(context.Background(), src)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cache.Len())
	_, found, _ := cache.Lookup(keys[0])
	assert.False(t, found)
	_, found, _ = cache.Lookup(keys[2])
	assert.True(t, found)
}

func TestCache_CancelledWhileWaiting(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxConcurrentLoads = 1
	cache, dec, _ := newTestCache(opts)
	require.NoError(t, cache.sem.Acquire(context.Background(), 1))

	src := UploadSource("x.csv", []byte("a\n1\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Load(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, cache.Len())

	// the abandoned flight still finishes once a slot frees up
	cache.sem.Release(1)
	ds, err := cache.Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.NumRows())
	assert.Equal(t, int32(1), dec.calls.Load())
}

func TestCache_CancelledCallerDoesNotFailOtherWaiters(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxConcurrentLoads = 1
	cache, dec, _ := newTestCache(opts)
	require.NoError(t, cache.sem.Acquire(context.Background(), 1))

	src := UploadSource("x.csv", []byte("a\n1\n2\n"))
	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Load(firstCtx, src)
		firstErr <- err
	}()

	type result struct {
		ds  *dataset.Dataset
		err error
	}
	second := make(chan result, 1)
	go func() {
		ds, err := cache.Load(context.Background(), src)
		second <- result{ds, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	cache.sem.Release(1)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 2, res.ds.NumRows())
	assert.Equal(t, int32(1), dec.calls.Load())
}

func TestSource_Key(t *testing.T) {
	a := UploadSource("a.csv", []byte("x\n1\n"))
	b := UploadSource("a.xlsx", []byte("x\n1\n"))
	assert.NotEqual(t, a.Key(), b.Key(), "format is part of upload identity")
	assert.Contains(t, PathSource("credit.csv").Key(), "path:")
	assert.True(t, filepath.IsAbs(PathSource("credit.csv").Key()[len("path:"):]))
}
