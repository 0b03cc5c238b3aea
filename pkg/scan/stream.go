package scan

import (
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Open opens a haystack for reading. Compression is chosen by file
// extension: .gz, .bz2, .bz, .xz and .lzma are decompressed
// transparently, anything else is read as is. The path "-" reads from
// stdin. Set forceGzip to decompress regardless of the extension.
func Open(path string, forceGzip bool) (io.ReadCloser, error) {
	if path == "-" {
		if forceGzip {
			zr, err := gzip.NewReader(os.Stdin)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to open gzip stream from stdin")
			}
			return zr, nil
		}
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open haystack", goerr.V("path", path))
	}

	rc, err := wrapStream(f, path, forceGzip)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return rc, nil
}

func wrapStream(f *os.File, path string, forceGzip bool) (io.ReadCloser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if forceGzip {
		ext = ".gz"
	}

	switch ext {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open gzip stream", goerr.V("path", path))
		}
		return &stream{r: zr, closers: []io.Closer{zr, f}}, nil

	case ".bz2", ".bz":
		return &stream{r: bzip2.NewReader(f), closers: []io.Closer{f}}, nil

	case ".xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open xz stream", goerr.V("path", path))
		}
		return &stream{r: xr, closers: []io.Closer{f}}, nil

	case ".lzma":
		lr, err := lzma.NewReader(f)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open lzma stream", goerr.V("path", path))
		}
		return &stream{r: lr, closers: []io.Closer{f}}, nil

	default:
		return f, nil
	}
}

// stream pairs a decompressing reader with the closers of everything
// underneath it
type stream struct {
	r       io.Reader
	closers []io.Closer
}

func (s *stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *stream) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
