package salesparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

const maxConcurrentReads = 4

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileContent is the decoded content of one mapping. Found is false when no file exists
// for the mapping, which is not an error.
type FileContent struct {
	Mapping entities.FileMapping
	Path    string
	Content string
	Found   bool
}

// FileReader resolves mappings against a data root directory.
type FileReader struct {
	root string
}

func NewFileReader(root string) *FileReader {
	return &FileReader{root: root}
}

// Resolve returns the path a mapping reads from: the subdirectory when the file exists
// there, otherwise the data root. ok is false when neither exists.
func (r *FileReader) Resolve(m entities.FileMapping) (string, bool) {
	candidates := []string{}
	if m.Subdir != "" {
		candidates = append(candidates, filepath.Join(r.root, m.Subdir, m.File))
	}
	candidates = append(candidates, filepath.Join(r.root, m.File))

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Read loads and decodes the file of one mapping.
func (r *FileReader) Read(m entities.FileMapping) (FileContent, error) {
	result := FileContent{Mapping: m}

	path, ok := r.Resolve(m)
	if !ok {
		logging.Debug("Extract not found, skipping", "file", m.File, "subdir", m.Subdir)
		return result, nil
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return result, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content, err := DecodeExtract(raw)
	if err != nil {
		return result, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	result.Path = path
	result.Content = content
	result.Found = true
	return result, nil
}

// ReadAll reads every mapping concurrently. Results keep the order of mappings.
func (r *FileReader) ReadAll(ctx context.Context, mappings []entities.FileMapping) ([]FileContent, error) {
	results := make([]FileContent, len(mappings))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, m := range mappings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := r.Read(m)
			if err != nil {
				return err
			}
			results[i] = content
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DecodeExtract returns the extract as UTF-8. POS exports that are not valid UTF-8 are
// Windows-1252 encoded.
func DecodeExtract(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := io.ReadAll(charmap.Windows1252.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
