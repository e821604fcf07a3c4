package loader

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

const matHeaderSize = 128

// decodeMAT only validates the MAT-file header (v5 and v7.3 share it); the
// struct array inside is left for the checker to read.
func decodeMAT(r io.Reader) (*domain.Model, error) {
	hdr, err := readHeader(r, matHeaderSize)
	if err != nil {
		return nil, err
	}
	text := string(bytes.TrimRight(hdr[:116], "\x00 "))
	if !strings.HasPrefix(text, "MATLAB ") {
		return nil, fmt.Errorf("%w: not a MAT-file", ErrInvalidModel)
	}
	endian := string(hdr[126:128])
	if endian != "IM" && endian != "MI" {
		return nil, fmt.Errorf("%w: bad MAT-file endian indicator %q", ErrInvalidModel, endian)
	}
	return &domain.Model{}, nil
}
