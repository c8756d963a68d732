// Package romset classifies single-entry ZIP archives against a DAT index.
package romset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SetStatus is the classification of one archive on disk (or a synthesized missing set)
type SetStatus int

const (
	// SetUnknown is the initial state and the result for content absent from the DAT
	SetUnknown SetStatus = iota
	// SetGood means content and both names match the DAT
	SetGood
	// SetBadName means the content is known but the archive or entry name is wrong
	SetBadName
	// SetMissing marks a DAT entry with no archive on disk
	SetMissing
	// SetError means the file is not a readable single-entry archive
	SetError
)

var setStatusNames = map[SetStatus]string{
	SetUnknown: "Unknown",
	SetGood:    "Good",
	SetBadName: "BadName",
	SetMissing: "Missing",
	SetError:   "Error",
}

func (s SetStatus) String() string {
	if name, ok := setStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SetStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s SetStatus) MarshalText() ([]byte, error) {
	if _, ok := setStatusNames[s]; !ok {
		return nil, fmt.Errorf("invalid set status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *SetStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseSetStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSetStatus parses a status name case-insensitively
func ParseSetStatus(name string) (SetStatus, error) {
	for status, n := range setStatusNames {
		if strings.EqualFold(n, name) {
			return status, nil
		}
	}
	return SetUnknown, fmt.Errorf("unknown set status %q", name)
}

// SetStatuses lists every set status in display order
func SetStatuses() []SetStatus {
	return []SetStatus{SetGood, SetBadName, SetMissing, SetUnknown, SetError}
}

// RomStatus is the classification of one payload
type RomStatus int

const (
	// RomUnknown means the payload CRC is not in the DAT
	RomUnknown RomStatus = iota
	// RomGood means the entry already carries the DAT rom name
	RomGood
	// RomBadName means the payload is known under a different entry name
	RomBadName
	// RomMissing marks the rom of a synthesized missing set
	RomMissing
)

var romStatusNames = map[RomStatus]string{
	RomUnknown: "Unknown",
	RomGood:    "Good",
	RomBadName: "BadName",
	RomMissing: "Missing",
}

func (s RomStatus) String() string {
	if name, ok := romStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RomStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s RomStatus) MarshalText() ([]byte, error) {
	if _, ok := romStatusNames[s]; !ok {
		return nil, fmt.Errorf("invalid rom status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *RomStatus) UnmarshalText(text []byte) error {
	for status, n := range romStatusNames {
		if strings.EqualFold(n, string(text)) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown rom status %q", string(text))
}

// ObservedRom is one payload found in an archive
type ObservedRom struct {
	Name          string    `json:"name"`
	CorrectedName string    `json:"corrected_name"`
	Size          int64     `json:"size"`
	CRC           string    `json:"crc"`
	MD5           string    `json:"md5"`
	SHA1          string    `json:"sha1"`
	Status        RomStatus `json:"status"`
}

// ArchiveSet is one archive on disk, or a synthesized Missing entry
type ArchiveSet struct {
	Path          string        `json:"path"`
	BaseName      string        `json:"base_name"`
	CorrectedPath string        `json:"corrected_path"`
	Status        SetStatus     `json:"status"`
	Roms          []ObservedRom `json:"roms"`
	Reason        string        `json:"reason,omitempty"`
}

// NewArchiveSet returns an unclassified set for path
func NewArchiveSet(path string) ArchiveSet {
	return ArchiveSet{
		Path:          path,
		BaseName:      filepath.Base(path),
		CorrectedPath: path,
		Status:        SetUnknown,
		Roms:          []ObservedRom{},
	}
}

// NeedsRename reports whether the archive file itself must move
func (s *ArchiveSet) NeedsRename() bool {
	return s.Path != s.CorrectedPath
}

// CorrectedArchiveName returns the canonical archive file name for a DAT rom name:
// the rom's base name without extension plus the archive's extension, ".zip" by default.
func CorrectedArchiveName(romName, archivePath string) string {
	// DAT rom names use either separator regardless of host OS
	base := romName
	if i := strings.LastIndexAny(romName, `/\`); i >= 0 {
		base = romName[i+1:]
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	ext := filepath.Ext(archivePath)
	if ext == "" {
		ext = ".zip"
	}
	return stem + ext
}

// CorrectedArchivePath places CorrectedArchiveName in the archive's directory
func CorrectedArchivePath(romName, archivePath string) string {
	return filepath.Join(filepath.Dir(archivePath), CorrectedArchiveName(romName, archivePath))
}
