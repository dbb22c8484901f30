package dataset

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// ResourceProvider returns the full content of a named resource.
type ResourceProvider interface {
	ReadResource(ctx context.Context, name string) ([]byte, error)
}

// compressedSuffixes are tried, in order, when the plain resource is missing.
var compressedSuffixes = []string{".xz", ".gz"}

// FileProvider reads resources from a directory. A resource stored as
// name.xz or name.gz is decompressed transparently.
type FileProvider struct {
	Root string
}

// NewFileProvider creates a provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Root: dir}
}

// ReadResource implements ResourceProvider.
func (p *FileProvider) ReadResource(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("resource name %q escapes provider root", name)
	}
	return readWithFallback(name, func(n string) ([]byte, error) {
		return os.ReadFile(filepath.Join(p.Root, n))
	})
}

// Path returns the on-disk path for name.
func (p *FileProvider) Path(name string) string {
	return filepath.Join(p.Root, name)
}

// FSProvider reads resources from an fs.FS, e.g. an embedded bundle.
type FSProvider struct {
	FS fs.FS
}

// ReadResource implements ResourceProvider.
func (p *FSProvider) ReadResource(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readWithFallback(name, func(n string) ([]byte, error) {
		return fs.ReadFile(p.FS, n)
	})
}

func readWithFallback(name string, read func(string) ([]byte, error)) ([]byte, error) {
	raw, err := read(name)
	if err == nil {
		return decompress(name, raw)
	}
	if !errors.Is(err, fs.ErrNotExist) || isCompressed(name) {
		return nil, err
	}
	for _, suffix := range compressedSuffixes {
		if raw, cerr := read(name + suffix); cerr == nil {
			return decompress(name+suffix, raw)
		}
	}
	return nil, err
}

func isCompressed(name string) bool {
	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func decompress(name string, raw []byte) ([]byte, error) {
	var r io.Reader
	switch {
	case strings.HasSuffix(name, ".xz"):
		xzr, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		r = xzr
	case strings.HasSuffix(name, ".gz"):
		gzr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	default:
		return raw, nil
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", name, err)
	}
	return out, nil
}
