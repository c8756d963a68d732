package errors

import (
	"errors"
)

var (
	// General Errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnsupportedFile   = errors.New("unsupported file format")
	ErrPathNotAccessible = errors.New("path is not accessible")

	// Archive Errors
	ErrInvalidArchive      = errors.New("archive file is corrupted or unsupported")
	ErrEntryCount          = errors.New("archive must contain exactly one entry")
	ErrDecompressionFailed = errors.New("decompression failed")
	ErrCompressionFailed   = errors.New("compression failed")
	ErrChecksumFailed      = errors.New("checksum mismatch after rewrite")

	// File & Directory Errors
	ErrFileNotFound    = errors.New("file not found")
	ErrFileReadError   = errors.New("error reading file")
	ErrFileWriteError  = errors.New("error writing to file")
	ErrFileDeleteError = errors.New("error deleting file")
	ErrFileRenameError = errors.New("error renaming file")
	ErrTargetExists    = errors.New("target file already exists")
	ErrDirNotFound     = errors.New("directory not found")

	// DAT Errors
	ErrDATNotFound   = errors.New("DAT file not found")
	ErrDATParse      = errors.New("error parsing DAT file")
	ErrDuplicateHash = errors.New("duplicated hash in DAT file")

	// Scanner Errors
	ErrRootNotFound = errors.New("collection root directory not found")

	// Store Errors
	ErrStoreFailure   = errors.New("scan store operation failed")
	ErrStoreCorrupted = errors.New("scan store data corrupted")
	ErrScanNotFound   = errors.New("scan result not found")

	// Configuration Errors
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrConfigParseError    = errors.New("error parsing configuration")
	ErrCollectionNotFound  = errors.New("collection not found in configuration")
	ErrInvalidHeaderRule   = errors.New("invalid header rule")
	ErrUnsupportedExport   = errors.New("unsupported export format")
	ErrUnsupportedHashAlgo = errors.New("unsupported hash algorithm")
)
