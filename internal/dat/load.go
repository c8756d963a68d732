package dat

import (
	"bytes"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	compression "github.com/deploymenttheory/go-rom-manager/internal/utils/compressionutil"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

type xmlRom struct {
	Name string `xml:"name,attr"`
	Size string `xml:"size,attr"`
	CRC  string `xml:"crc,attr"`
	MD5  string `xml:"md5,attr"`
	SHA1 string `xml:"sha1,attr"`
}

type xmlEntry struct {
	Name        string   `xml:"name,attr"`
	CloneOf     string   `xml:"cloneof,attr"`
	Description string   `xml:"description"`
	Roms        []xmlRom `xml:"rom"`
}

// Load reads, decompresses and indexes the DAT at path. Any failure is fatal for
// the run: no partial index is returned.
func Load(path string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrDATNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrPathNotAccessible, path, err)
	}

	log.Info("Loading DAT", zap.String("path", path))
	data, err := compression.ReadAllDecompressed(path, isDATMember)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrDATParse, path, err)
	}

	ix, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ix.Digest = digest(data)

	log.Info("DAT loaded",
		zap.String("name", ix.Header.Name),
		zap.Int("sets", ix.NumEntries()),
		zap.Int("roms", ix.NumRoms()),
	)
	return ix, nil
}

func isDATMember(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dat", ".xml":
		return true
	}
	return false
}

func digest(data []byte) string {
	sum := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(sum[:])
}

// Parse decodes a Logiqx XML document and builds its index. Both <game> and
// <machine> elements are accepted as entries.
func Parse(r io.Reader) (*Index, error) {
	decoder := xml.NewDecoder(r)
	// DATs in the wild declare ISO-8859-1 or windows-1252 now and then
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }

	var (
		hdr     Header
		entries []Entry
		sawRoot bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrDATParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "datafile", "mame":
			sawRoot = true
		case "header":
			if err := decoder.DecodeElement(&hdr, &start); err != nil {
				return nil, fmt.Errorf("%w: header: %v", errors.ErrDATParse, err)
			}
		case "game", "machine":
			var raw xmlEntry
			if err := decoder.DecodeElement(&raw, &start); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", errors.ErrDATParse, start.Name.Local, err)
			}
			entry, err := convertEntry(raw)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: missing <datafile> root element", errors.ErrDATParse)
	}

	return NewIndex(hdr, entries)
}

func convertEntry(raw xmlEntry) (Entry, error) {
	if raw.Name == "" {
		return Entry{}, fmt.Errorf("%w: entry without name attribute", errors.ErrDATParse)
	}

	entry := Entry{
		Name:        raw.Name,
		CloneOf:     raw.CloneOf,
		Description: strings.TrimSpace(raw.Description),
		Roms:        make([]Rom, 0, len(raw.Roms)),
	}
	for _, r := range raw.Roms {
		size, err := strconv.ParseInt(strings.TrimSpace(r.Size), 10, 64)
		if err != nil || size < 0 {
			return Entry{}, fmt.Errorf("%w: set %q rom %q has invalid size %q", errors.ErrDATParse, raw.Name, r.Name, r.Size)
		}
		if r.CRC == "" {
			return Entry{}, fmt.Errorf("%w: set %q rom %q has no crc", errors.ErrDATParse, raw.Name, r.Name)
		}
		entry.Roms = append(entry.Roms, Rom{
			Name: r.Name,
			Size: size,
			CRC:  strings.ToUpper(strings.TrimSpace(r.CRC)),
			MD5:  strings.ToUpper(strings.TrimSpace(r.MD5)),
			SHA1: strings.ToUpper(strings.TrimSpace(r.SHA1)),
		})
	}
	return entry, nil
}
