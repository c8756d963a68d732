// Package checksum computes the CRC32, MD5 and SHA1 digests used to identify ROM payloads
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strings"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// Algorithm represents a supported digest algorithm
type Algorithm string

const (
	// CRC32 is the IEEE CRC-32 used as the DAT match key
	CRC32 Algorithm = "crc32"

	// MD5 algorithm
	MD5 Algorithm = "md5"

	// SHA1 algorithm
	SHA1 Algorithm = "sha1"
)

// Sum holds the digests and size of one payload. Hex strings are uppercase.
type Sum struct {
	Size int64  `json:"size"`
	CRC  string `json:"crc"`
	MD5  string `json:"md5"`
	SHA1 string `json:"sha1"`
}

// Hasher provides an interface for single-algorithm hashing operations
type Hasher interface {
	// Hash hashes the provided data
	Hash(data []byte) string

	// HashReader hashes data from a reader
	HashReader(reader io.Reader) (string, error)

	// Verify checks if the provided hash matches the calculated hash for the data
	Verify(data []byte, expectedHash string) bool
}

// hasherImpl implements the Hasher interface
type hasherImpl struct {
	algorithm Algorithm
	newHash   func() hash.Hash
}

// NewHasher creates a new Hasher for the specified algorithm
func NewHasher(algorithm Algorithm) (Hasher, error) {
	newHashFunc, err := constructor(algorithm)
	if err != nil {
		return nil, err
	}

	return &hasherImpl{
		algorithm: algorithm,
		newHash:   newHashFunc,
	}, nil
}

func constructor(algorithm Algorithm) (func() hash.Hash, error) {
	switch strings.ToLower(string(algorithm)) {
	case string(CRC32):
		return func() hash.Hash { return crc32.NewIEEE() }, nil
	case string(MD5):
		return md5.New, nil
	case string(SHA1):
		return sha1.New, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", errors.ErrUnsupportedHashAlgo, algorithm)
	}
}

// Hash hashes the provided data
func (h *hasherImpl) Hash(data []byte) string {
	hasher := h.newHash()
	hasher.Write(data)
	return Encode(hasher.Sum(nil))
}

// HashReader hashes data from a reader
func (h *hasherImpl) HashReader(reader io.Reader) (string, error) {
	hasher := h.newHash()
	if _, err := io.Copy(hasher, reader); err != nil {
		return "", fmt.Errorf("hash operation failed: %w", err)
	}

	return Encode(hasher.Sum(nil)), nil
}

// Verify checks if the provided hash matches the calculated hash for the data
func (h *hasherImpl) Verify(data []byte, expectedHash string) bool {
	return strings.EqualFold(h.Hash(data), expectedHash)
}

// Encode returns the uppercase hex form of a digest
func Encode(d []byte) string {
	return strings.ToUpper(hex.EncodeToString(d))
}

// Compute returns the CRC32, MD5 and SHA1 of data in a single pass.
func Compute(data []byte) Sum {
	w := NewMultiWriter()
	w.Write(data)
	return w.Sum()
}

// ComputeReader is the streaming form of Compute.
func ComputeReader(r io.Reader) (Sum, error) {
	w := NewMultiWriter()
	if _, err := io.Copy(w, r); err != nil {
		return Sum{}, fmt.Errorf("hash operation failed: %w", err)
	}
	return w.Sum(), nil
}

// FormatCRC renders a numeric CRC-32 the way DAT files store it.
func FormatCRC(crc uint32) string {
	return fmt.Sprintf("%08X", crc)
}
