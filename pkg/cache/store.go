package cache

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Mode controls which representations of a cache entry are written.
type Mode string

const (
	ModeCompressed   Mode = "compressed"
	ModeUncompressed Mode = "uncompressed"
	ModeBoth         Mode = "both"
	ModeNone         Mode = "none"
)

// ParseMode maps a configuration string to a Mode, defaulting to none.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeCompressed, ModeUncompressed, ModeBoth:
		return Mode(s)
	default:
		return ModeNone
	}
}

// Store is a file-backed key/blob cache rooted at a directory. Compressed
// entries are stored gzipped with a .gz suffix alongside or instead of the
// plain file.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Write caches data under name, creating intermediate directories as needed.
// Mode none is a no-op.
func (s *Store) Write(name string, mode Mode, data []byte) error {
	if mode == ModeNone {
		return nil
	}

	fileName := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	if mode == ModeUncompressed || mode == ModeBoth {
		if err := os.WriteFile(fileName, data, 0o644); err != nil {
			return fmt.Errorf("writing cache file %s: %w", name, err)
		}
	}

	if mode == ModeCompressed || mode == ModeBoth {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return fmt.Errorf("compressing cache entry %s: %w", name, err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("compressing cache entry %s: %w", name, err)
		}
		if err := os.WriteFile(fileName+".gz", buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing cache file %s.gz: %w", name, err)
		}
	}

	return nil
}

// Read returns the cached entry, preferring the uncompressed file and
// falling back to gunzipping the compressed one.
func (s *Store) Read(name string) ([]byte, error) {
	fileName := filepath.Join(s.dir, filepath.FromSlash(name))

	if data, err := os.ReadFile(fileName); err == nil {
		return data, nil
	}

	compressed, err := os.ReadFile(fileName + ".gz")
	if err != nil {
		return nil, fmt.Errorf("cache entry %s not found: %w", name, err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("reading compressed cache entry %s: %w", name, err)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompressing cache entry %s: %w", name, err)
	}
	return data, nil
}
