// Package repair renames misnamed archives and rewrites misnamed entries so that a
// BadName set becomes Good. Payload bytes are never altered.
package repair

import (
	stderrors "errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	compression "github.com/deploymenttheory/go-rom-manager/internal/utils/compressionutil"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/fsutil"
)

// TempPrefix names the scratch archives written next to the set being repaired
const TempPrefix = ".rom-manager-"

// Action is what a repair call did to one set
type Action string

const (
	ActionSkipped   Action = "skipped"
	ActionUnchanged Action = "unchanged"
	ActionRepaired  Action = "repaired"
	ActionDeleted   Action = "deleted"
)

// Result describes one repair call. With DryRun set, the flags describe what
// would have happened.
type Result struct {
	Path           string `json:"path"`
	Target         string `json:"target"`
	Action         Action `json:"action"`
	ArchiveRenamed bool   `json:"archive_renamed"`
	EntryRenamed   bool   `json:"entry_renamed"`
	DryRun         bool   `json:"dry_run"`
	Reason         string `json:"reason,omitempty"`
}

// Options configures an Executor
type Options struct {
	DryRun bool
}

// Executor applies repairs to the filesystem. It is safe for concurrent use:
// calls touching the same paths are serialized.
type Executor struct {
	opts Options
	log  *zap.Logger
}

// New creates an Executor
func New(opts Options, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{opts: opts, log: log.Named("repair")}
}

// Repair makes a BadName set canonical: the archive is renamed first, then the
// entry is rewritten through a temporary archive when its name is wrong. Sets that
// cannot be repaired are skipped with a logged reason and a nil error.
func (e *Executor) Repair(set romset.ArchiveSet) (Result, error) {
	res := Result{Path: set.Path, Target: set.CorrectedPath, DryRun: e.opts.DryRun}
	if res.Target == "" {
		res.Target = set.Path
	}
	log := e.log.With(zap.String("set", set.BaseName))

	if reason := skipReason(set); reason != "" {
		return e.skip(log, res, reason), nil
	}
	rom := set.Roms[0]

	unlock := fsutil.LockPaths(set.Path, res.Target)
	defer unlock()

	// 1. the archive itself
	if set.Path != res.Target {
		if _, err := os.Stat(res.Target); err == nil && !fsutil.SameFile(set.Path, res.Target) {
			return res, fmt.Errorf("%w: %s", errors.ErrTargetExists, res.Target)
		}

		res.ArchiveRenamed = true
		if e.opts.DryRun {
			log.Info("Would rename archive", zap.String("from", set.Path), zap.String("to", res.Target))
		} else {
			if err := os.Rename(set.Path, res.Target); err != nil {
				return res, fmt.Errorf("%w: %s to %s: %v", errors.ErrFileRenameError, set.Path, res.Target, err)
			}
			log.Info("Renamed archive", zap.String("from", set.Path), zap.String("to", res.Target))
		}
	}

	// 2. the entry inside it
	current := res.Target
	if e.opts.DryRun {
		current = set.Path
	}
	entry, err := compression.ReadSingleEntryZIP(current)
	if err != nil {
		return res, err
	}

	if entry.Name == rom.CorrectedName {
		log.Debug("Entry name already canonical", zap.String("entry", entry.Name))
	} else {
		res.EntryRenamed = true
		if e.opts.DryRun {
			log.Info("Would rename entry", zap.String("from", entry.Name), zap.String("to", rom.CorrectedName))
		} else {
			if err := e.rewriteEntry(res.Target, entry, rom.CorrectedName); err != nil {
				return res, err
			}
			log.Info("Renamed entry", zap.String("from", entry.Name), zap.String("to", rom.CorrectedName))
		}
	}

	res.Action = ActionUnchanged
	if res.ArchiveRenamed || res.EntryRenamed {
		res.Action = ActionRepaired
	}
	return res, nil
}

func skipReason(set romset.ArchiveSet) string {
	switch {
	case set.Status != romset.SetBadName:
		return fmt.Sprintf("status is %s", set.Status)
	case len(set.Roms) == 0:
		return "set has no roms"
	case set.Roms[0].Status == romset.RomUnknown:
		return "rom is not in the DAT"
	}
	return ""
}

func (e *Executor) skip(log *zap.Logger, res Result, reason string) Result {
	res.Action = ActionSkipped
	res.Reason = reason
	log.Info("Skipping repair", zap.String("reason", reason))
	return res
}

// rewriteEntry replaces the archive at path with one whose single entry is named
// name. The original is removed only after the replacement is written, flushed and
// verified.
func (e *Executor) rewriteEntry(path string, entry *compression.Entry, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrFileNotFound, path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), TempPrefix+"*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("%w: create temp archive: %v", errors.ErrFileWriteError, err)
	}
	tmpPath := tmp.Name()
	keepTemp := false
	defer func() {
		if !keepTemp {
			_ = os.Remove(tmpPath)
		}
	}()

	replacement := &compression.Entry{Name: name, Data: entry.Data, Modified: entry.Modified}
	if err := compression.WriteSingleEntryZIP(tmp, replacement); err != nil {
		_ = tmp.Close()
		return err
	}
	// the replacement keeps the permissions of the archive it replaces
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: chmod %s: %v", errors.ErrFileWriteError, tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", errors.ErrFileWriteError, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", errors.ErrFileWriteError, tmpPath, err)
	}

	if err := verify(tmpPath, name, crc32.ChecksumIEEE(entry.Data)); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrFileDeleteError, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// the original is gone; the temp archive is now the only copy
		keepTemp = true
		return fmt.Errorf("%w: %s to %s (content kept in %s): %v", errors.ErrFileRenameError, tmpPath, path, tmpPath, err)
	}
	return nil
}

func verify(path, name string, crc uint32) error {
	written, err := compression.ReadSingleEntryZIP(path)
	if err != nil {
		return fmt.Errorf("%w: re-read %s: %v", errors.ErrChecksumFailed, path, err)
	}
	if written.Name != name {
		return fmt.Errorf("%w: entry written as %q, want %q", errors.ErrChecksumFailed, written.Name, name)
	}
	if got := crc32.ChecksumIEEE(written.Data); got != crc {
		return fmt.Errorf("%w: crc %08X, want %08X", errors.ErrChecksumFailed, got, crc)
	}
	return nil
}

// RemoveUnknown deletes a set whose content is not in the DAT. Any other status
// is skipped.
func (e *Executor) RemoveUnknown(set romset.ArchiveSet) (Result, error) {
	res := Result{Path: set.Path, Target: set.Path, DryRun: e.opts.DryRun}
	log := e.log.With(zap.String("set", set.BaseName))

	if set.Status != romset.SetUnknown {
		return e.skip(log, res, fmt.Sprintf("status is %s", set.Status)), nil
	}

	res.Action = ActionDeleted
	if e.opts.DryRun {
		log.Info("Would delete unknown set", zap.String("path", set.Path))
		return res, nil
	}

	unlock := fsutil.LockPaths(set.Path)
	defer unlock()

	if err := os.Remove(set.Path); err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", errors.ErrFileNotFound, set.Path)
		}
		return res, fmt.Errorf("%w: %s: %v", errors.ErrFileDeleteError, set.Path, err)
	}
	log.Info("Deleted unknown set", zap.String("path", set.Path))
	return res, nil
}
