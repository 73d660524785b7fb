package session

import (
	"context"
	"log/slog"
	"net/http"

	"creditdash/domain/core"
	"creditdash/domain/dataset"
	"creditdash/internal/loader"

	"github.com/gorilla/sessions"
)

const (
	cookieName   = "creditdash"
	keyID        = "id"
	keySource    = "source_key"
	keySourceTag = "source_name"
)

// Session is the per-request view of a browser session: which source it is
// looking at and that source's dataset, or the error loading it
type Session struct {
	ID         core.SessionID
	SourceKey  string
	SourceName string
	IsUpload   bool
	Dataset    *dataset.Dataset
	Err        error
}

// Ready reports whether a dataset is available
func (s *Session) Ready() bool {
	return s.Err == nil && s.Dataset != nil
}

// Store binds browser cookies to loader cache entries. The cookie holds only
// the session ID and the current upload's source key; datasets stay in the cache.
type Store struct {
	cookies     sessions.Store
	cache       *loader.Cache
	defaultFile string
	logger      *slog.Logger
}

// NewStore creates a cookie-backed session store
func NewStore(secret []byte, cache *loader.Cache, defaultFile string) *Store {
	cookies := sessions.NewCookieStore(secret)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{
		cookies:     cookies,
		cache:       cache,
		defaultFile: defaultFile,
		logger:      slog.Default().With("component", "session"),
	}
}

// Resolve loads the session's dataset. Without an upload, or when the
// remembered upload is no longer cached, it falls back to the default file.
func (s *Store) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) *Session {
	raw, dirty := s.browserSession(r)
	sess := &Session{ID: sessionID(raw)}

	if key, _ := raw.Values[keySource].(string); key != "" {
		ds, found, err := s.cache.Lookup(key)
		if found {
			name, _ := raw.Values[keySourceTag].(string)
			sess.SourceKey, sess.SourceName, sess.IsUpload = key, name, true
			sess.Dataset, sess.Err = ds, err
		} else {
			s.logger.Info("upload no longer cached, using default file", "session", sess.ID, "key", key)
			delete(raw.Values, keySource)
			delete(raw.Values, keySourceTag)
			dirty = true
		}
	}

	if !sess.IsUpload {
		src := loader.PathSource(s.defaultFile)
		sess.SourceKey, sess.SourceName = src.Key(), s.defaultFile
		sess.Dataset, sess.Err = s.cache.Load(ctx, src)
	}

	if dirty {
		s.save(r, w, raw)
	}
	return sess
}

// Upload loads uploaded bytes and, on success or parse failure, makes them
// the session's source. Rejected uploads (too large) leave the session as is.
func (s *Store) Upload(ctx context.Context, w http.ResponseWriter, r *http.Request, name string, data []byte) (*Session, error) {
	raw, _ := s.browserSession(r)
	src := loader.UploadSource(name, data)

	ds, err := s.cache.Load(ctx, src)
	if _, found, _ := s.cache.Lookup(src.Key()); !found {
		return nil, err
	}

	raw.Values[keySource] = src.Key()
	raw.Values[keySourceTag] = name
	s.save(r, w, raw)
	return &Session{
		ID:         sessionID(raw),
		SourceKey:  src.Key(),
		SourceName: name,
		IsUpload:   true,
		Dataset:    ds,
		Err:        err,
	}, nil
}

// Clear forgets the session's upload
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	raw, _ := s.browserSession(r)
	delete(raw.Values, keySource)
	delete(raw.Values, keySourceTag)
	s.save(r, w, raw)
}

// browserSession returns the cookie session, assigning an ID to new ones.
// A cookie that fails to decode (e.g. after a secret change) starts over.
func (s *Store) browserSession(r *http.Request) (*sessions.Session, bool) {
	raw, err := s.cookies.Get(r, cookieName)
	if err != nil {
		s.logger.Debug("discarding unreadable session cookie", "error", err)
	}
	if _, err := core.ParseSessionID(sessionIDString(raw)); err != nil {
		raw.Values[keyID] = core.NewID().String()
		return raw, true
	}
	return raw, false
}

func (s *Store) save(r *http.Request, w http.ResponseWriter, raw *sessions.Session) {
	if err := raw.Save(r, w); err != nil {
		s.logger.Warn("failed to save session", "error", err)
	}
}

func sessionIDString(raw *sessions.Session) string {
	id, _ := raw.Values[keyID].(string)
	return id
}

func sessionID(raw *sessions.Session) core.SessionID {
	return core.SessionID(sessionIDString(raw))
}
