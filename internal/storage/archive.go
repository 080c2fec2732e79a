package storage

import (
	"context"
	"io"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/stockpilot/internal/domain"
	"github.com/andresuchdata/stockpilot/internal/pipeline"
)

// Archiver stores raw uploads under <prefix>/<kind>/<YYYYMMDD>/<batch>_<file>.
type Archiver struct {
	store  ObjectStorage
	prefix string
	now    func() time.Time
}

func NewArchiver(store ObjectStorage, prefix string, loc *time.Location) *Archiver {
	if loc == nil {
		loc = time.UTC
	}
	return &Archiver{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// ArchiveKey builds the object key for one upload.
func (a *Archiver) ArchiveKey(kind domain.DatasetKind, batchID, filename string, at time.Time) string {
	name := batchID + "_" + path.Base(strings.ReplaceAll(filename, `\`, "/"))
	parts := []string{string(kind), at.Format("20060102"), name}
	if a.prefix != "" {
		parts = append([]string{a.prefix}, parts...)
	}
	return path.Join(parts...)
}

func (a *Archiver) Archive(ctx context.Context, kind domain.DatasetKind, batchID, filename string, data []byte) (string, error) {
	key := a.ArchiveKey(kind, batchID, filename, a.now())
	if err := a.store.PutObject(ctx, key, data, contentType(filename)); err != nil {
		return "", err
	}
	return key, nil
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// BucketSources lists importable objects under prefix as importer sources,
// sorted by key. The dataset kind of each object is taken from a path
// segment when it names one, otherwise detected from the file name.
func BucketSources(ctx context.Context, store ObjectStorage, prefix string) ([]pipeline.Source, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	sources := make([]pipeline.Source, 0, len(objects))
	for _, obj := range objects {
		switch strings.ToLower(path.Ext(obj.Key)) {
		case ".xlsx", ".xlsm", ".csv":
		default:
			continue
		}
		key := obj.Key
		sources = append(sources, pipeline.Source{
			Name: path.Base(key),
			Kind: kindFromPath(key),
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return store.GetObject(ctx, key)
			},
		})
	}
	return sources, nil
}

func kindFromPath(key string) domain.DatasetKind {
	for _, seg := range strings.Split(path.Dir(key), "/") {
		if kind, err := domain.ParseDatasetKind(seg); err == nil {
			return kind
		}
	}
	return ""
}
