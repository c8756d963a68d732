// Package scanner walks a ROM directory, classifies every file and reconciles the
// result with the DAT to produce a Collection.
package scanner

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/sourcegraph/conc/pool"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-rom-manager/internal/dat"
	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// Cache stores classifications between runs. Implementations must be safe for
// concurrent use when Options.Workers > 1.
type Cache interface {
	Get(key string) (romset.ArchiveSet, bool)
	Put(key string, set romset.ArchiveSet)
}

// Options tunes a scan
type Options struct {
	// Workers is the number of concurrent classifications; values below 2 scan sequentially
	Workers int
	// Cache is optional
	Cache Cache
}

// Scanner produces Collections for one DAT
type Scanner struct {
	index      *dat.Index
	classifier *romset.Classifier
	opts       Options
	log        *zap.Logger
}

// New creates a scanner. The index must not be mutated while scans run.
func New(index *dat.Index, classifier *romset.Classifier, opts Options, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scanner{
		index:      index,
		classifier: classifier,
		opts:       opts,
		log:        log.Named("scanner"),
	}
}

// Scan classifies every file below root and adds a Missing set for each DAT entry
// without a matching archive name. Only a missing root or cancellation is fatal.
func (s *Scanner) Scan(ctx context.Context, name, root string) (*Collection, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", errors.ErrRootNotFound, root)
	}

	log := s.log.With(zap.String("collection", name), zap.String("root", root))
	log.Info("Scanning collection", zap.Int("workers", s.opts.Workers))

	paths, err := listFiles(root, log)
	if err != nil {
		return nil, err
	}
	log.Debug("Enumerated files", zap.Int("files", len(paths)))

	sets, err := s.classifyAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	coll := &Collection{
		Name:       name,
		DATEntries: s.index.NumEntries(),
		Sets:       sets,
	}
	coll.Reindex()

	missing := 0
	for _, entry := range s.index.Entries() {
		archiveName := entry.Name + ".zip"
		if _, found := coll.byName[archiveName]; found {
			continue
		}
		coll.Sets = append(coll.Sets, missingSet(root, archiveName, entry))
		missing++
	}

	coll.Sort()
	coll.Reindex()

	st := coll.Stats()
	log.Info("Scan complete",
		zap.Int("sets", st.Total),
		zap.Int("good", st.Good),
		zap.Int("bad_name", st.BadName),
		zap.Int("missing", missing),
		zap.Int("unknown", st.Unknown),
		zap.Int("error", st.Error),
	)
	return coll, nil
}

// listFiles returns every regular file below root sorted by full path. Symlinks
// are followed; unreadable directories are skipped.
func listFiles(root string, log *zap.Logger) ([]string, error) {
	var paths []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		FollowSymbolicLinks: true,
		Unsorted:            true,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if de.IsSymlink() {
				fi, err := os.Stat(osPathname)
				if err != nil || !fi.Mode().IsRegular() {
					return nil
				}
			} else if !de.IsRegular() {
				return nil
			}
			paths = append(paths, osPathname)
			return nil
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			log.Warn("Skipping unreadable path", zap.String("path", osPathname), zap.Error(err))
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrDirNotFound, root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// classifyAll keeps the output in path order whatever the worker count
func (s *Scanner) classifyAll(ctx context.Context, paths []string) ([]romset.ArchiveSet, error) {
	sets := make([]romset.ArchiveSet, len(paths))

	if s.opts.Workers < 2 {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sets[i] = s.classify(path)
		}
		return sets, nil
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.opts.Workers).WithCancelOnError()
	for i, path := range paths {
		i, path := i, path
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sets[i] = s.classify(path)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	// a cancel that lands after the last task started is still a cancel
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

func (s *Scanner) classify(path string) romset.ArchiveSet {
	if s.opts.Cache == nil {
		return s.classifier.Classify(path)
	}

	key, ok := s.fingerprint(path)
	if ok {
		if set, hit := s.opts.Cache.Get(key); hit && set.Path == path {
			s.log.Debug("Cache hit", zap.String("path", path))
			return set
		}
	}

	set := s.classifier.Classify(path)
	if ok {
		s.opts.Cache.Put(key, set)
	}
	return set
}

// fingerprint identifies one version of a file under one DAT and header
// configuration. Any change to them yields a new key.
func (s *Scanner) fingerprint(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}

	key := strings.Join([]string{
		path,
		strconv.FormatInt(info.Size(), 10),
		strconv.FormatInt(info.ModTime().UnixNano(), 10),
		s.index.Digest,
		s.classifier.Header().String(),
	}, "\x00")
	sum := xxh3.Hash128([]byte(key)).Bytes()
	return hex.EncodeToString(sum[:]), true
}

func missingSet(root, archiveName string, entry dat.Entry) romset.ArchiveSet {
	set := romset.NewArchiveSet(filepath.Join(root, archiveName))
	set.Status = romset.SetMissing

	rom := romset.ObservedRom{Name: entry.Name, CorrectedName: entry.Name, Status: romset.RomMissing}
	if len(entry.Roms) > 0 {
		ref := entry.Roms[0]
		rom.Name = ref.Name
		rom.CorrectedName = ref.Name
		rom.Size = ref.Size
		rom.CRC = ref.CRC
		rom.MD5 = ref.MD5
		rom.SHA1 = ref.SHA1
	}
	set.Roms = append(set.Roms, rom)
	return set
}
