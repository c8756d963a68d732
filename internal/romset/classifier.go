package romset

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-rom-manager/internal/checksum"
	"github.com/deploymenttheory/go-rom-manager/internal/dat"
	"github.com/deploymenttheory/go-rom-manager/internal/header"
	compression "github.com/deploymenttheory/go-rom-manager/internal/utils/compressionutil"
)

// Classifier assigns a status to archives. It holds no mutable state and may be
// shared across goroutines.
type Classifier struct {
	index  *dat.Index
	header header.Config
	log    *zap.Logger
}

// NewClassifier creates a classifier for one DAT and header configuration
func NewClassifier(index *dat.Index, hdr header.Config, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{index: index, header: hdr, log: log.Named("classifier")}
}

// Header returns the header configuration applied before hashing
func (c *Classifier) Header() header.Config {
	return c.header
}

// Classify opens the archive at path and classifies it. It never fails: unreadable
// archives and archives without exactly one entry are reported as SetError.
func (c *Classifier) Classify(path string) ArchiveSet {
	set := NewArchiveSet(path)
	log := c.log.With(zap.String("set", set.BaseName))

	entry, err := compression.ReadSingleEntryZIP(path)
	if err != nil {
		set.Status = SetError
		set.Reason = err.Error()
		log.Debug("Set is not a valid single-entry archive", zap.Error(err))
		return set
	}

	payload := header.Strip(entry.Data, c.header)
	sum := checksum.Compute(payload)
	log.Debug("Hashed entry",
		zap.String("entry", entry.Name),
		zap.Int64("size", sum.Size),
		zap.String("crc", sum.CRC),
		zap.Int("header_skipped", len(entry.Data)-len(payload)),
	)

	rom := ObservedRom{
		Name:          entry.Name,
		CorrectedName: entry.Name,
		Size:          sum.Size,
		CRC:           sum.CRC,
		MD5:           sum.MD5,
		SHA1:          sum.SHA1,
		Status:        RomUnknown,
	}

	// CRC is the only match key; the MD5 and SHA1 indices exist for duplicate detection
	match, found := c.index.ByCRC(sum.CRC)
	if !found {
		set.Roms = append(set.Roms, rom)
		set.Status = SetUnknown
		log.Debug("ROM not in DAT", zap.String("crc", sum.CRC))
		return set
	}

	correctedPath := CorrectedArchivePath(match.Rom.Name, path)
	if rom.Name == match.Rom.Name {
		rom.Status = RomGood
	} else {
		rom.Status = RomBadName
		rom.CorrectedName = match.Rom.Name
		set.CorrectedPath = correctedPath
	}
	set.Roms = append(set.Roms, rom)

	switch rom.Status {
	case RomBadName:
		set.Status = SetBadName
		log.Debug("ROM has wrong name", zap.String("good_name", match.Rom.Name))
	case RomGood:
		if filepath.Base(path) != filepath.Base(correctedPath) {
			// entry name is right but the archive itself is misnamed
			set.Status = SetBadName
			set.CorrectedPath = correctedPath
			log.Debug("Archive has wrong name", zap.String("good_name", filepath.Base(correctedPath)))
		} else {
			set.Status = SetGood
		}
	}

	return set
}
