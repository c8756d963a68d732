package compression

import (
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// NewXZReader wraps r with an XZ decompressor
func NewXZReader(r io.Reader) (io.Reader, error) {
	xzReader, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: xz: %v", errors.ErrDecompressionFailed, err)
	}
	return xzReader, nil
}

// CompressXZ compresses a file using XZ format
func CompressXZ(src, dst string) error {
	inputFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer inputFile.Close()

	outputFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer outputFile.Close()

	xzWriter, err := xz.NewWriter(outputFile)
	if err != nil {
		return err
	}

	if _, err = io.Copy(xzWriter, inputFile); err != nil {
		return fmt.Errorf("failed to compress file: %w", err)
	}

	return xzWriter.Close()
}
