package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/utils/safe"
	"golang.org/x/sync/errgroup"
)

const gcsScheme = "gs://"

// Loader reads catalog files from the local filesystem or Cloud Storage
type Loader struct {
	storage *storage.Client
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithStorageClient enables gs://bucket/object paths
func WithStorageClient(client *storage.Client) LoaderOption {
	return func(l *Loader) {
		l.storage = client
	}
}

// NewLoader creates a new Loader
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and parses every path concurrently and merges the results in
// path order. A local directory stands for the catalog files directly in it.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Catalog, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	parts := make([]*Catalog, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range files {
		eg.Go(func() error {
			data, err := l.read(ctx, p)
			if err != nil {
				return err
			}
			c, err := Parse(p, data)
			if err != nil {
				return err
			}
			parts[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := &Catalog{}
	for _, c := range parts {
		merged.Merge(c)
	}
	return merged, nil
}

func (l *Loader) read(ctx context.Context, p string) ([]byte, error) {
	bucket, object, ok := ParseGCSPath(p)
	if !ok {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V("path", p))
		}
		return data, nil
	}

	if l.storage == nil {
		return nil, goerr.Wrap(ErrStorageNotConfigured, "cannot read catalog object", goerr.V("path", p))
	}
	r, err := l.storage.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open catalog object",
			goerr.V("bucket", bucket),
			goerr.V("object", object))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read catalog object",
			goerr.V("bucket", bucket),
			goerr.V("object", object))
	}
	return data, nil
}

// ParseGCSPath splits gs://bucket/object. ok is false for any other path.
func ParseGCSPath(p string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(p, gcsScheme)
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// IsRemote reports whether p is a Cloud Storage path
func IsRemote(p string) bool {
	return strings.HasPrefix(p, gcsScheme)
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		if IsRemote(p) {
			if _, _, ok := ParseGCSPath(p); !ok {
				return nil, goerr.New("invalid cloud storage path", goerr.V("path", p))
			}
			files = append(files, p)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to stat catalog path", goerr.V("path", p))
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read catalog directory", goerr.V("path", p))
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsCatalogFile(entry.Name()) {
				files = append(files, filepath.Join(p, entry.Name()))
			}
		}
	}
	return files, nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
