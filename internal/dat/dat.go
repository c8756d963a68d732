// Package dat loads No-Intro / Logiqx XML reference databases and indexes every ROM
// by CRC32, MD5 and SHA1.
package dat

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// Header is the <header> block of a DAT file
type Header struct {
	Name        string `xml:"name" json:"name,omitempty"`
	Description string `xml:"description" json:"description,omitempty"`
	Version     string `xml:"version" json:"version,omitempty"`
	Author      string `xml:"author" json:"author,omitempty"`
	Homepage    string `xml:"homepage" json:"homepage,omitempty"`
}

// Rom is one canonical payload of an entry. Hashes are uppercase hex.
type Rom struct {
	Name string
	Size int64
	CRC  string
	MD5  string
	SHA1 string
}

// Entry is one canonical set of the DAT
type Entry struct {
	Name        string
	CloneOf     string
	Description string
	Roms        []Rom
}

// Locator addresses a rom inside the index
type Locator struct {
	Entry int
	Rom   int
}

// Match is the result of a hash lookup
type Match struct {
	Entry *Entry
	Rom   *Rom
}

// HashKind names one of the three indexed digests
type HashKind string

const (
	KindCRC  HashKind = "CRC"
	KindMD5  HashKind = "MD5"
	KindSHA1 HashKind = "SHA1"
)

// DuplicateHashError reports two roms of a DAT sharing a digest of the same kind
type DuplicateHashError struct {
	Kind       HashKind
	Hash       string
	Entry      string
	Rom        string
	FirstEntry string
	FirstRom   string
}

func (e *DuplicateHashError) Error() string {
	return fmt.Sprintf("%s: %s %s in set %q rom %q already used by set %q rom %q",
		errors.ErrDuplicateHash, e.Kind, e.Hash, e.Entry, e.Rom, e.FirstEntry, e.FirstRom)
}

func (e *DuplicateHashError) Unwrap() error {
	return errors.ErrDuplicateHash
}

// Index is the immutable reference database. It is safe for concurrent readers.
type Index struct {
	Header  Header
	Digest  string
	entries []Entry

	crc  map[string]Locator
	md5  map[string]Locator
	sha1 map[string]Locator
}

// NewIndex builds the hash indices over entries. It fails on the first digest that
// is already indexed for the same kind; collisions across kinds are not checked.
// Empty MD5 and SHA1 values are not indexed.
func NewIndex(hdr Header, entries []Entry) (*Index, error) {
	numRoms := 0
	for _, e := range entries {
		numRoms += len(e.Roms)
	}

	ix := &Index{
		Header:  hdr,
		entries: entries,
		crc:     make(map[string]Locator, numRoms),
		md5:     make(map[string]Locator, numRoms),
		sha1:    make(map[string]Locator, numRoms),
	}

	for ei := range ix.entries {
		entry := &ix.entries[ei]
		for ri := range entry.Roms {
			rom := &entry.Roms[ri]
			loc := Locator{Entry: ei, Rom: ri}
			if err := ix.insert(ix.crc, KindCRC, rom.CRC, loc); err != nil {
				return nil, err
			}
			if err := ix.insert(ix.md5, KindMD5, rom.MD5, loc); err != nil {
				return nil, err
			}
			if err := ix.insert(ix.sha1, KindSHA1, rom.SHA1, loc); err != nil {
				return nil, err
			}
		}
	}

	return ix, nil
}

func (ix *Index) insert(m map[string]Locator, kind HashKind, hash string, loc Locator) error {
	if hash == "" {
		return nil
	}
	if first, ok := m[hash]; ok {
		return &DuplicateHashError{
			Kind:       kind,
			Hash:       hash,
			Entry:      ix.entries[loc.Entry].Name,
			Rom:        ix.entries[loc.Entry].Roms[loc.Rom].Name,
			FirstEntry: ix.entries[first.Entry].Name,
			FirstRom:   ix.entries[first.Entry].Roms[first.Rom].Name,
		}
	}
	m[hash] = loc
	return nil
}

func (ix *Index) lookup(m map[string]Locator, hash string) (Match, bool) {
	loc, ok := m[strings.ToUpper(hash)]
	if !ok {
		return Match{}, false
	}
	entry := &ix.entries[loc.Entry]
	return Match{Entry: entry, Rom: &entry.Roms[loc.Rom]}, true
}

// ByCRC looks a rom up by CRC32
func (ix *Index) ByCRC(crc string) (Match, bool) { return ix.lookup(ix.crc, crc) }

// ByMD5 looks a rom up by MD5
func (ix *Index) ByMD5(md5 string) (Match, bool) { return ix.lookup(ix.md5, md5) }

// BySHA1 looks a rom up by SHA1
func (ix *Index) BySHA1(sha1 string) (Match, bool) { return ix.lookup(ix.sha1, sha1) }

// Entries returns the DAT entries in document order. Callers must not modify them.
func (ix *Index) Entries() []Entry { return ix.entries }

// NumEntries returns the number of sets in the DAT
func (ix *Index) NumEntries() int { return len(ix.entries) }

// NumRoms returns the number of roms across all sets
func (ix *Index) NumRoms() int {
	n := 0
	for _, e := range ix.entries {
		n += len(e.Roms)
	}
	return n
}
