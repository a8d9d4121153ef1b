// Package content loads the text buffers searched by minigrep. It reads files,
// standard input and request bodies, transparently decompresses gzip and zstd
// payloads and makes sure the result is valid UTF-8.
package content

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Stdin is the file name that selects standard input.
const Stdin = "-"

var (
	// ErrInvalidEncoding is returned when the content is not valid UTF-8.
	ErrInvalidEncoding = errors.New("content is not valid UTF-8")

	// ErrTooLarge is returned when the content exceeds Options.MaxBytes.
	ErrTooLarge = errors.New("content too large")

	// ErrUnsupportedEncoding is returned by Decode for unknown encodings.
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Options bounds how content is read.
type Options struct {
	// MaxBytes is the largest decompressed size accepted. Zero means no limit.
	MaxBytes int64
}

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

// LoadFile reads the named file, or standard input when path is Stdin.
func LoadFile(path string, opts Options) (string, error) {
	if path == Stdin {
		text, err := Read(stdin, opts)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return text, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	text, err := Read(f, opts)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return text, nil
}

// Read consumes r and returns its text. Compressed streams are detected by
// their magic bytes and decompressed before the size and encoding checks.
func Read(r io.Reader, opts Options) (string, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	var src io.Reader = br
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		src = zr
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	return readAll(src, opts.MaxBytes)
}

// Decode wraps r according to an HTTP Content-Encoding value.
func Decode(r io.Reader, encoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return io.NopCloser(r), nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, nil
	case "zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
}

func readAll(r io.Reader, limit int64) (string, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}

	return string(data), nil
}
