package scan

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ParseByteSize parses a human friendly byte size such as "8M" or
// "512K". Supported suffixes are K, M and G as powers of 1024, in
// either letter case; a bare number is bytes.
func ParseByteSize(s string) (int, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, goerr.New("size must not be empty")
	}

	mult := 1
	switch v[len(v)-1] {
	case 'k', 'K':
		mult = 1 << 10
		v = v[:len(v)-1]
	case 'm', 'M':
		mult = 1 << 20
		v = v[:len(v)-1]
	case 'g', 'G':
		mult = 1 << 30
		v = v[:len(v)-1]
	}

	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, goerr.Wrap(err, "invalid byte size", goerr.V("size", s))
	}
	if n <= 0 {
		return 0, goerr.New("byte size must be positive", goerr.V("size", s))
	}

	return n * mult, nil
}
