package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"hash"
	"hash/crc32"
)

// MultiWriter implements io.Writer and feeds every write to the CRC32, MD5 and SHA1 states
type MultiWriter struct {
	crc  hash.Hash32
	md5  hash.Hash
	sha1 hash.Hash
	size int64
}

// NewMultiWriter creates a MultiWriter with fresh hash states
func NewMultiWriter() *MultiWriter {
	return &MultiWriter{
		crc:  crc32.NewIEEE(),
		md5:  md5.New(),
		sha1: sha1.New(),
	}
}

// Write implements io.Writer. Hash writes never fail.
func (w *MultiWriter) Write(p []byte) (int, error) {
	w.crc.Write(p)
	w.md5.Write(p)
	w.sha1.Write(p)
	w.size += int64(len(p))
	return len(p), nil
}

// Sum returns the current digests
func (w *MultiWriter) Sum() Sum {
	return Sum{
		Size: w.size,
		CRC:  FormatCRC(w.crc.Sum32()),
		MD5:  Encode(w.md5.Sum(nil)),
		SHA1: Encode(w.sha1.Sum(nil)),
	}
}

// Reset resets the hash state
func (w *MultiWriter) Reset() {
	w.crc.Reset()
	w.md5.Reset()
	w.sha1.Reset()
	w.size = 0
}
