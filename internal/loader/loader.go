// Package loader deserializes model files into domain.Model.
//
// Only the parts of each encoding needed to identify and size a model are
// read; validation itself is left to the external checker.
package loader

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

var (
	// ErrUnsupportedFormat is returned for a format with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrInvalidModel is returned when a file does not contain a model.
	ErrInvalidModel = errors.New("invalid model")
)

type Loader interface {
	Load(ctx context.Context, path string, format domain.Format) (*domain.Model, error)
}

type fileLoader struct{}

func NewFileLoader() Loader {
	return &fileLoader{}
}

func (l *fileLoader) Load(ctx context.Context, path string, format domain.Format) (*domain.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	var m *domain.Model
	switch format {
	case domain.FormatSBMLGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: gzip: %w", filepath.Base(path), err)
		}
		defer gz.Close()
		m, err = decodeSBML(gz)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	case domain.FormatSBML:
		m, err = decodeSBML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	case domain.FormatJSON:
		m, err = decodeJSON(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	case domain.FormatMAT:
		m, err = decodeMAT(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	m.Path = path
	m.Format = format
	if m.ID == "" {
		m.ID = stem(path, format)
	}
	return m, nil
}

func stem(path string, format domain.Format) string {
	return strings.TrimSuffix(filepath.Base(path), string(format))
}

// readHeader reads exactly n bytes or reports a truncated file.
func readHeader(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file shorter than %d byte header", ErrInvalidModel, n)
		}
		return nil, err
	}
	return buf, nil
}
