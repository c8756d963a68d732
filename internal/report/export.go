package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"howett.net/plist"

	"github.com/deploymenttheory/go-rom-manager/internal/scanner"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// Format is an export file format
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatPlist Format = "plist"
)

// Formats lists the supported export formats
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatPlist}
}

// ParseFormat parses a format name case-insensitively; "yml" is accepted for YAML
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "plist":
		return FormatPlist, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnsupportedExport, name)
}

type exportRom struct {
	Name          string `json:"name" yaml:"name" plist:"name"`
	CorrectedName string `json:"corrected_name" yaml:"corrected_name" plist:"corrected_name"`
	Size          int64  `json:"size" yaml:"size" plist:"size"`
	CRC           string `json:"crc" yaml:"crc" plist:"crc"`
	MD5           string `json:"md5" yaml:"md5" plist:"md5"`
	SHA1          string `json:"sha1" yaml:"sha1" plist:"sha1"`
	Status        string `json:"status" yaml:"status" plist:"status"`
}

type exportSet struct {
	Path          string      `json:"path" yaml:"path" plist:"path"`
	BaseName      string      `json:"base_name" yaml:"base_name" plist:"base_name"`
	CorrectedPath string      `json:"corrected_path" yaml:"corrected_path" plist:"corrected_path"`
	Status        string      `json:"status" yaml:"status" plist:"status"`
	Reason        string      `json:"reason,omitempty" yaml:"reason,omitempty" plist:"reason,omitempty"`
	Roms          []exportRom `json:"roms" yaml:"roms" plist:"roms"`
}

type exportStats struct {
	DATEntries int `json:"dat_entries" yaml:"dat_entries" plist:"dat_entries"`
	Total      int `json:"total" yaml:"total" plist:"total"`
	Good       int `json:"good" yaml:"good" plist:"good"`
	BadName    int `json:"bad_name" yaml:"bad_name" plist:"bad_name"`
	Missing    int `json:"missing" yaml:"missing" plist:"missing"`
	Unknown    int `json:"unknown" yaml:"unknown" plist:"unknown"`
	Error      int `json:"error" yaml:"error" plist:"error"`
}

type exportDoc struct {
	Name  string      `json:"name" yaml:"name" plist:"name"`
	Stats exportStats `json:"stats" yaml:"stats" plist:"stats"`
	Sets  []exportSet `json:"sets" yaml:"sets" plist:"sets"`
}

// newExportDoc flattens statuses to their names so every encoder sees plain strings
func newExportDoc(c *scanner.Collection) exportDoc {
	st := c.Stats()
	doc := exportDoc{
		Name:  c.Name,
		Stats: exportStats(st),
		Sets:  make([]exportSet, 0, len(c.Sets)),
	}
	for _, set := range c.Sets {
		es := exportSet{
			Path:          set.Path,
			BaseName:      set.BaseName,
			CorrectedPath: set.CorrectedPath,
			Status:        set.Status.String(),
			Reason:        set.Reason,
			Roms:          make([]exportRom, 0, len(set.Roms)),
		}
		for _, rom := range set.Roms {
			es.Roms = append(es.Roms, exportRom{
				Name:          rom.Name,
				CorrectedName: rom.CorrectedName,
				Size:          rom.Size,
				CRC:           rom.CRC,
				MD5:           rom.MD5,
				SHA1:          rom.SHA1,
				Status:        rom.Status.String(),
			})
		}
		doc.Sets = append(doc.Sets, es)
	}
	return doc
}

// Export writes the collection, its counts and every set to w
func Export(w io.Writer, c *scanner.Collection, format Format) error {
	doc := newExportDoc(c)

	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatPlist:
		enc := plist.NewEncoderForFormat(w, plist.XMLFormat)
		enc.Indent("\t")
		err = enc.Encode(doc)
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnsupportedExport, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %s export: %v", errors.ErrFileWriteError, format, err)
	}
	return nil
}
