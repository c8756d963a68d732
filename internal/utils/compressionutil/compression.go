package compression

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// Format names returned by DetectFormat
const (
	FormatZIP   = "zip"
	FormatGZIP  = "gzip"
	FormatBZIP2 = "bzip2"
	FormatXZ    = "xz"
	FormatPlain = "plain"
)

var magicNumbers = map[string][]byte{
	FormatZIP:   {0x50, 0x4B, 0x03, 0x04},
	FormatGZIP:  {0x1F, 0x8B},
	FormatBZIP2: {0x42, 0x5A, 0x68},
	FormatXZ:    {0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00},
}

// DetectFormat determines the container format using magic numbers, falling back
// to the file extension. Unrecognised input is reported as FormatPlain.
func DetectFormat(header []byte, filename string) string {
	for format, magic := range magicNumbers {
		if bytes.HasPrefix(header, magic) {
			return format
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".zip":
		return FormatZIP
	case ".gz", ".tgz":
		return FormatGZIP
	case ".bz2", ".tbz2":
		return FormatBZIP2
	case ".xz", ".txz":
		return FormatXZ
	default:
		return FormatPlain
	}
}

// ReadAllDecompressed reads a file, transparently decompressing gzip, bzip2, xz and
// single-document ZIP containers. match selects the member of a ZIP archive.
func ReadAllDecompressed(path string, match func(name string) bool) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrFileReadError, path, err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	header, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrFileReadError, path, err)
	}

	switch DetectFormat(header, path) {
	case FormatZIP:
		info, err := file.Stat()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errors.ErrFileReadError, path, err)
		}
		return ExtractSingleEntryZIP(file, info.Size(), match)
	case FormatGZIP:
		gzipReader, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrDecompressionFailed, err)
		}
		defer gzipReader.Close()
		return readAll(gzipReader)
	case FormatBZIP2:
		bzip2Reader, err := NewBZIP2Reader(br)
		if err != nil {
			return nil, err
		}
		defer bzip2Reader.Close()
		return readAll(bzip2Reader)
	case FormatXZ:
		xzReader, err := NewXZReader(br)
		if err != nil {
			return nil, err
		}
		return readAll(xzReader)
	default:
		return readAll(br)
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrDecompressionFailed, err)
	}
	return data, nil
}
