package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"creditdash/adapters/tabular"
	"creditdash/internal/errors"
	"creditdash/internal/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-32-bytes-long!!"

func newStore(t *testing.T, opts loader.Options) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "default.csv")
	require.NoError(t, os.WriteFile(path, []byte("age,monthly_inc\n20,1000\n30,2000\n"), 0o644))
	cache := loader.NewCache(tabular.NewReader(tabular.DefaultCoercionConfig()), opts, nil)
	return NewStore([]byte(secret), cache, path), path
}

// roundTrip copies response cookies onto a fresh request
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestResolve_DefaultFile(t *testing.T) {
	store, path := newStore(t, loader.DefaultOptions())
	rec := httptest.NewRecorder()

	sess := store.Resolve(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, sess.Ready())
	assert.False(t, sess.IsUpload)
	assert.Equal(t, path, sess.SourceName)
	assert.Equal(t, 2, sess.Dataset.NumRows())
	assert.NotEmpty(t, sess.ID)
	assert.NotEmpty(t, rec.Result().Cookies(), "new sessions get a cookie")

	again := store.Resolve(context.Background(), httptest.NewRecorder(), roundTrip(rec))
	assert.Equal(t, sess.ID, again.ID)
	assert.Same(t, sess.Dataset, again.Dataset)
}

func TestResolve_MissingDefaultFile(t *testing.T) {
	cache := loader.NewCache(tabular.NewReader(tabular.DefaultCoercionConfig()), loader.DefaultOptions(), nil)
	store := NewStore([]byte(secret), cache, filepath.Join(t.TempDir(), "absent.csv"))

	sess := store.Resolve(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, sess.Ready())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(sess.Err))
}

func TestUpload_SwitchesSourceUntilCleared(t *testing.T) {
	store, _ := newStore(t, loader.DefaultOptions())
	ctx := context.Background()

	rec := httptest.NewRecorder()
	up, err := store.Upload(ctx, rec, httptest.NewRequest(http.MethodPost, "/upload", nil), "mine.csv", []byte("x\n1\n2\n3\n"))
	require.NoError(t, err)
	assert.True(t, up.IsUpload)
	assert.Equal(t, 3, up.Dataset.NumRows())

	sess := store.Resolve(ctx, httptest.NewRecorder(), roundTrip(rec))
	require.True(t, sess.Ready())
	assert.True(t, sess.IsUpload)
	assert.Equal(t, "mine.csv", sess.SourceName)
	assert.Equal(t, []string{"x"}, sess.Dataset.ColumnNames())

	cleared := httptest.NewRecorder()
	store.Clear(cleared, roundTrip(rec))
	sess = store.Resolve(ctx, httptest.NewRecorder(), roundTrip(cleared))
	assert.False(t, sess.IsUpload)
	assert.Equal(t, 2, sess.Dataset.NumRows())
}

func TestUpload_ParseErrorIsSessionState(t *testing.T) {
	store, _ := newStore(t, loader.DefaultOptions())
	rec := httptest.NewRecorder()

	up, err := store.Upload(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/upload", nil), "bad.csv", []byte("a\n1,2\n"))
	require.NoError(t, err)
	assert.False(t, up.Ready())
	assert.Equal(t, errors.CodeParseError, errors.GetCode(up.Err))

	sess := store.Resolve(context.Background(), httptest.NewRecorder(), roundTrip(rec))
	assert.True(t, sess.IsUpload)
	assert.Equal(t, errors.CodeParseError, errors.GetCode(sess.Err))
}

func TestUpload_TooLargeLeavesSession(t *testing.T) {
	opts := loader.DefaultOptions()
	opts.MaxUploadBytes = 4
	store, _ := newStore(t, opts)

	_, err := store.Upload(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil), "big.csv", []byte("x\n1\n2\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodePayloadTooLarge, errors.GetCode(err))
}

func TestResolve_EvictedUploadFallsBack(t *testing.T) {
	opts := loader.DefaultOptions()
	opts.MaxUploads = 1
	store, _ := newStore(t, opts)
	ctx := context.Background()

	first := httptest.NewRecorder()
	_, err := store.Upload(ctx, first, httptest.NewRequest(http.MethodPost, "/upload", nil), "one.csv", []byte("a\n1\n"))
	require.NoError(t, err)
	_, err = store.Upload(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil), "two.csv", []byte("b\n2\n"))
	require.NoError(t, err)

	sess := store.Resolve(ctx, httptest.NewRecorder(), roundTrip(first))
	require.True(t, sess.Ready())
	assert.False(t, sess.IsUpload)
	assert.Equal(t, []string{"age", "monthly_inc"}, sess.Dataset.ColumnNames())
}
