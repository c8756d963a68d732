package compression

import (
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// NewBZIP2Reader wraps r with a BZIP2 decompressor
func NewBZIP2Reader(r io.Reader) (io.ReadCloser, error) {
	bzip2Reader, err := bzip2.NewReader(r, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bzip2: %v", errors.ErrDecompressionFailed, err)
	}
	return bzip2Reader, nil
}

// CompressBZIP2 compresses a file using BZIP2 format
func CompressBZIP2(src, dst string) error {
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

	bzip2Writer, err := bzip2.NewWriter(outputFile, nil)
	if err != nil {
		return err
	}

	if _, err = io.Copy(bzip2Writer, inputFile); err != nil {
		return fmt.Errorf("failed to compress file: %w", err)
	}

	return bzip2Writer.Close()
}
