package compression

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// maxPrealloc caps the buffer reserved up front from the size an archive declares
const maxPrealloc = 64 << 20

// Entry is the single decompressed member of a set archive
type Entry struct {
	Name     string
	Data     []byte
	CRC32    uint32
	Modified time.Time
}

// ListZIP returns the stored names of every entry in a ZIP archive, directories included
func ListZIP(src string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidArchive, src, err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// ReadSingleEntryZIP opens a ZIP archive that must hold exactly one entry and
// returns that entry fully decompressed. The stored CRC is verified on read.
func ReadSingleEntryZIP(src string) (*Entry, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidArchive, src, err)
	}
	defer r.Close()

	if len(r.File) != 1 {
		return nil, fmt.Errorf("%w: %s has %d entries", errors.ErrEntryCount, src, len(r.File))
	}

	f := r.File[0]
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrDecompressionFailed, f.Name, err)
	}
	defer rc.Close()

	// the declared size is untrusted; never read past it
	declared := f.UncompressedSize64
	buf := bytes.NewBuffer(make([]byte, 0, min(declared, maxPrealloc)))
	limit := int64(math.MaxInt64)
	if declared < math.MaxInt64 {
		limit = int64(declared) + 1
	}
	n, err := io.Copy(buf, io.LimitReader(rc, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrDecompressionFailed, f.Name, err)
	}
	if uint64(n) != declared {
		return nil, fmt.Errorf("%w: %s: %d bytes, header declares %d", errors.ErrDecompressionFailed, f.Name, n, declared)
	}

	return &Entry{
		Name:     f.Name,
		Data:     buf.Bytes(),
		CRC32:    f.CRC32,
		Modified: f.Modified,
	}, nil
}

// WriteSingleEntryZIP writes a deflated ZIP archive holding one entry to w
func WriteSingleEntryZIP(w io.Writer, entry *Entry) error {
	zipWriter := zip.NewWriter(w)

	hdr := &zip.FileHeader{
		Name:     entry.Name,
		Method:   zip.Deflate,
		Modified: entry.Modified,
	}
	if hdr.Modified.IsZero() {
		hdr.Modified = time.Now()
	}

	zipEntry, err := zipWriter.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCompressionFailed, err)
	}
	if _, err := zipEntry.Write(entry.Data); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCompressionFailed, err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCompressionFailed, err)
	}
	return nil
}

// CreateSingleEntryZIP writes a one-entry ZIP archive to dst
func CreateSingleEntryZIP(dst string, entry *Entry) error {
	zipFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create zip file: %w", err)
	}

	if err := WriteSingleEntryZIP(zipFile, entry); err != nil {
		zipFile.Close()
		return err
	}
	if err := zipFile.Sync(); err != nil {
		zipFile.Close()
		return fmt.Errorf("%w: %v", errors.ErrFileWriteError, err)
	}
	return zipFile.Close()
}

// ExtractSingleEntryZIP returns the decompressed payload of the first entry whose
// name satisfies match. Used for DAT files distributed inside ZIP archives.
func ExtractSingleEntryZIP(r io.ReaderAt, size int64, match func(name string) bool) ([]byte, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidArchive, err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !match(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errors.ErrDecompressionFailed, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errors.ErrDecompressionFailed, f.Name, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("%w: no matching entry in archive", errors.ErrFileNotFound)
}
