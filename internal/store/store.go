// Package store persists scan results and the classification cache in a bbolt
// database.
package store

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-rom-manager/internal/romset"
	"github.com/deploymenttheory/go-rom-manager/internal/scanner"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/fsutil"
)

// FileName is the database file created inside the data directory
const FileName = "scans.db"

const (
	collectionsBucket = "collections"
	setsBucketPrefix  = "sets/"
)

// Store is a handle on the scan database
type Store struct {
	db  *bolt.DB
	log *zap.Logger
}

// Summary describes one saved scan without its sets
type Summary struct {
	Name    string        `json:"name"`
	SavedAt time.Time     `json:"saved_at"`
	Stats   scanner.Stats `json:"stats"`
}

type record struct {
	SavedAt    time.Time           `json:"saved_at"`
	Collection *scanner.Collection `json:"collection"`
}

// Open opens or creates the database in dir
func Open(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := fsutil.CreateDirIfNotExists(dir); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", errors.ErrStoreFailure, dir, err)
	}

	path := filepath.Join(dir, FileName)
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", errors.ErrStoreFailure, path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(collectionsBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}

	log.Debug("Opened scan store", zap.String("path", path))
	return &Store{db: db, log: log.Named("store")}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCollection replaces the saved scan of c.Name
func (s *Store) SaveCollection(c *scanner.Collection) error {
	data, err := json.Marshal(record{SavedAt: time.Now().UTC(), Collection: c})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", errors.ErrStoreFailure, c.Name, err)
	}

	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(collectionsBucket)).Put([]byte(c.Name), data)
	}); err != nil {
		return fmt.Errorf("%w: save %s: %v", errors.ErrStoreFailure, c.Name, err)
	}

	s.log.Debug("Saved scan", zap.String("collection", c.Name), zap.Int("sets", len(c.Sets)))
	return nil
}

// LoadCollection returns the saved scan of name
func (s *Store) LoadCollection(name string) (*scanner.Collection, error) {
	rec, err := s.load(name)
	if err != nil {
		return nil, err
	}
	rec.Collection.Reindex()
	return rec.Collection, nil
}

func (s *Store) load(name string) (*record, error) {
	var data []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(collectionsBucket)).Get([]byte(name)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrScanNotFound, name)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Collection == nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrStoreCorrupted, name)
	}
	return &rec, nil
}

// ListCollections summarizes every saved scan in name order
func (s *Store) ListCollections() ([]Summary, error) {
	var out []Summary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(collectionsBucket)).ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil || rec.Collection == nil {
				return fmt.Errorf("%w: %s", errors.ErrStoreCorrupted, k)
			}
			out = append(out, Summary{
				Name:    string(k),
				SavedAt: rec.SavedAt,
				Stats:   rec.Collection.Stats(),
			})
			return nil
		})
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrStoreCorrupted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	return out, nil
}

// DeleteCollection drops the saved scan and the classification cache of name
func (s *Store) DeleteCollection(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(collectionsBucket)).Delete([]byte(name)); err != nil {
			return err
		}
		err := tx.DeleteBucket([]byte(setsBucketPrefix + name))
		if stderrors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// SetCache returns the classification cache of one collection
func (s *Store) SetCache(name string) *SetCache {
	return &SetCache{db: s.db, bucket: []byte(setsBucketPrefix + name), log: s.log.With(zap.String("collection", name))}
}

// SetCache implements scanner.Cache on a bbolt bucket. Failures are logged and
// treated as misses.
type SetCache struct {
	db     *bolt.DB
	bucket []byte
	log    *zap.Logger
}

// Get returns the cached classification for key
func (c *SetCache) Get(key string) (romset.ArchiveSet, bool) {
	var set romset.ArchiveSet
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &set); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		c.log.Warn("Ignoring unreadable cache entry", zap.String("key", key), zap.Error(err))
		return romset.ArchiveSet{}, false
	}
	return set, found
}

// Put stores a classification under key
func (c *SetCache) Put(key string, set romset.ArchiveSet) {
	data, err := json.Marshal(set)
	if err != nil {
		c.log.Warn("Cannot encode cache entry", zap.String("path", set.Path), zap.Error(err))
		return
	}
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(c.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	}); err != nil {
		c.log.Warn("Cannot write cache entry", zap.String("path", set.Path), zap.Error(err))
	}
}

// Len returns the number of cached classifications
func (c *SetCache) Len() int {
	n := 0
	_ = c.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(c.bucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}
