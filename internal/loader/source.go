package loader

import (
	"path/filepath"

	"creditdash/adapters/tabular"
	"creditdash/domain/core"
	"creditdash/domain/dataset"
)

// Source is either a file on disk or uploaded bytes
type Source struct {
	Path string // set for file sources
	Name string // display name; upload file name
	Data []byte // set for uploads
}

// PathSource names a file on disk
func PathSource(path string) Source {
	return Source{Path: path, Name: path}
}

// UploadSource wraps uploaded bytes and the client's file name
func UploadSource(name string, data []byte) Source {
	return Source{Name: name, Data: data}
}

// IsUpload reports whether the source carries its own bytes
func (s Source) IsUpload() bool {
	return s.Path == ""
}

// Key is the source identity used by the cache: the absolute path for files,
// the content digest (plus format, which depends on the file name) for uploads.
func (s Source) Key() string {
	if !s.IsUpload() {
		if abs, err := filepath.Abs(s.Path); err == nil {
			return "path:" + abs
		}
		return "path:" + s.Path
	}
	return "upload:" + string(tabular.FormatFor(s.Name)) + ":sha256:" + core.NewHash(s.Data).String()
}

// descriptor builds the dataset-level source description
func (s Source) descriptor(size int64) dataset.Source {
	kind := dataset.SourceKindPath
	if s.IsUpload() {
		kind = dataset.SourceKindUpload
	}
	return dataset.Source{Kind: kind, Name: s.Name, Key: s.Key(), Size: size}
}
