package scan

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// HashStream computes the hex encoded digest of the stream. Supported
// algorithms are md5, sha1 and sha256; an empty algorithm means
// sha256.
func HashStream(r io.Reader, algo string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", goerr.Wrap(err, "failed to hash stream")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum reports whether the stream hashes to the expected hex
// digest. The comparison ignores digest letter case.
func VerifyChecksum(r io.Reader, expected, algo string) (bool, error) {
	got, err := HashStream(r, algo)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(got, expected), nil
}

func newHash(algo string) (hash.Hash, error) {
	switch strings.ToLower(algo) {
	case "", "sha256":
		return sha256.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, goerr.New("unsupported hash algorithm", goerr.V("algo", algo))
	}
}
