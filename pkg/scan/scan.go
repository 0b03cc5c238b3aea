// Package scan provides needle search over large, optionally
// compressed byte streams. Streams are read in fixed size chunks with
// a small overlap carried between them, so memory stays bounded by the
// buffer size while matches crossing a chunk boundary are still found
// exactly once.
package scan

import (
	"bytes"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultBufferSize is the chunk size used when none is configured
	DefaultBufferSize = 8 << 20

	// DefaultAround is the number of context bytes captured on each
	// side of a match
	DefaultAround = 10
)

// ErrStop can be returned from an emit callback to stop scanning
// without reporting an error
var ErrStop = errors.New("scan stopped")

var errMaxMatches = errors.New("max matches reached")

// Match represents one occurrence of the needle in a stream. All byte
// slices are owned by the match and safe to retain.
type Match struct {
	Position int64  // Byte offset of the first needle byte in the stream
	Needle   []byte // The matched bytes
	Left     []byte // Up to around bytes preceding the match
	Right    []byte // Up to around bytes following the match
}

// Scanner searches streams chunk by chunk
type Scanner struct {
	around     int
	bufferSize int
	maxMatches int
}

// Option is a functional option for Scanner configuration
type Option func(*Scanner)

// WithAround sets the number of context bytes captured on each side of
// a match
func WithAround(n int) Option {
	return func(s *Scanner) {
		if n >= 0 {
			s.around = n
		}
	}
}

// WithBufferSize sets the chunk size in bytes
func WithBufferSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithMaxMatches stops the scan after n matches. Zero means unlimited.
func WithMaxMatches(n int) Option {
	return func(s *Scanner) {
		if n >= 0 {
			s.maxMatches = n
		}
	}
}

// New creates a new Scanner
func New(opts ...Option) *Scanner {
	s := &Scanner{
		around:     DefaultAround,
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan searches the stream for the needle and calls emit for each
// match in stream order. It returns the number of matches emitted.
// Positions are zero-based byte offsets.
func (s *Scanner) Scan(r io.Reader, needle []byte, emit func(Match) error) (int, error) {
	if len(needle) == 0 {
		return 0, goerr.New("needle must not be empty")
	}

	// Bytes past the cut point reappear at the head of the next chunk,
	// so the overlap must cover a needle plus its right context.
	keep := s.around + len(needle)
	buf := make([]byte, s.bufferSize)
	var tail []byte
	var base int64
	count := 0

	// reportUpTo emits matches starting below the cut offset. Matches at
	// or past the cut are deferred to the next chunk, where they are
	// complete together with their context.
	reportUpTo := func(chunk []byte, cut int) error {
		from := 0
		for {
			idx := bytes.Index(chunk[from:], needle)
			if idx < 0 {
				return nil
			}
			idx += from
			if idx >= cut {
				return nil
			}

			m := Match{
				Position: base + int64(idx),
				Needle:   append([]byte(nil), chunk[idx:idx+len(needle)]...),
			}
			left := idx - s.around
			if left < 0 {
				left = 0
			}
			m.Left = append([]byte(nil), chunk[left:idx]...)
			right := idx + len(needle) + s.around
			if right > len(chunk) {
				right = len(chunk)
			}
			m.Right = append([]byte(nil), chunk[idx+len(needle):right]...)

			count++
			if err := emit(m); err != nil {
				return err
			}
			if s.maxMatches > 0 && count >= s.maxMatches {
				return errMaxMatches
			}
			from = idx + 1
		}
	}

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			chunk := append(tail, buf[:n]...)
			cut := len(chunk) - keep
			if cut < 0 {
				cut = 0
			}
			if err := reportUpTo(chunk, cut); err != nil {
				return count, stopReason(err)
			}
			base += int64(cut)
			tail = append(tail[:0:0], chunk[cut:]...)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return count, goerr.Wrap(rerr, "failed to read stream")
		}
	}

	if err := reportUpTo(tail, len(tail)); err != nil {
		return count, stopReason(err)
	}

	return count, nil
}

func stopReason(err error) error {
	if errors.Is(err, errMaxMatches) || errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// PeekAt reads a window of the stream around the given offset without
// searching. The returned match carries length bytes starting at
// offset plus up to around bytes of context on each side, truncated at
// the stream bounds.
func PeekAt(r io.Reader, offset int64, length, around int) (*Match, error) {
	if offset < 0 {
		return nil, goerr.New("offset must not be negative", goerr.V("offset", offset))
	}
	if length <= 0 {
		return nil, goerr.New("length must be positive", goerr.V("length", length))
	}
	if around < 0 {
		around = 0
	}

	skip := offset - int64(around)
	leftLen := around
	if skip < 0 {
		leftLen = int(offset)
		skip = 0
	}
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			if err == io.EOF {
				return nil, goerr.New("offset is beyond end of stream", goerr.V("offset", offset))
			}
			return nil, goerr.Wrap(err, "failed to skip to offset", goerr.V("offset", offset))
		}
	}

	window := make([]byte, leftLen+length+around)
	n, err := io.ReadFull(r, window)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, goerr.Wrap(err, "failed to read window", goerr.V("offset", offset))
	}
	window = window[:n]
	if n <= leftLen {
		return nil, goerr.New("offset is beyond end of stream", goerr.V("offset", offset))
	}

	m := &Match{Position: offset, Left: window[:leftLen]}
	rest := window[leftLen:]
	if len(rest) > length {
		m.Needle = rest[:length]
		m.Right = rest[length:]
	} else {
		m.Needle = rest
	}
	return m, nil
}
