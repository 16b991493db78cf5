// Package store provides a thin bbolt wrapper for ecowise's local activity
// journal.
//
// The journal is an opt-in record of CLI results (carbon estimates and route
// recommendations saved with --save). The HTTP server never writes to it.
//
// Buckets:
//
//	entries   journal entries keyed by <created_at UTC, ns>|<id>, so a
//	          cursor walks them in chronological order
//	by_id     id → entries key
//	_meta     internal: schema version, created_at
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/util"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketEntries  = []byte("entries")
	bucketByID     = []byte("by_id")
	bucketInternal = []byte("_meta")
)

// AllBuckets lists every user-facing bucket for stats and clear operations.
var AllBuckets = []string{"entries", "by_id"}

const keyTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps a bbolt database.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketEntries, bucketByID, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Entries ──────────────────────────────────────────────────────────────────

func entryKey(e model.JournalEntry) []byte {
	return []byte(e.CreatedAt.UTC().Format(keyTimeLayout) + "|" + e.ID)
}

// Append stores e, assigning an ID and CreatedAt when they are unset, and
// returns the stored entry.
func (s *Store) Append(e model.JournalEntry) (model.JournalEntry, error) {
	if e.Kind != model.EntryCarbon && e.Kind != model.EntryRoute {
		return e, fmt.Errorf("invalid journal entry kind %q", e.Kind)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return e, fmt.Errorf("encoding journal entry: %w", err)
	}
	key := entryKey(e)
	err = s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketByID).Get([]byte(e.ID)) != nil {
			return fmt.Errorf("journal entry %s already exists", e.ID)
		}
		if err := tx.Bucket(bucketEntries).Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(bucketByID).Put([]byte(e.ID), key)
	})
	return e, err
}

// Get retrieves an entry by ID.
// Returns (entry, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) Get(id string) (model.JournalEntry, bool, error) {
	var e model.JournalEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketByID).Get([]byte(id))
		if key == nil {
			return nil
		}
		v := tx.Bucket(bucketEntries).Get(key)
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &e)
	})
	if err != nil {
		return e, false, err
	}
	return e, e.ID != "", nil
}

// List returns entries created at or after since, oldest first. A zero since
// lists everything; a non-empty kind filters by entry kind.
func (s *Store) List(since time.Time, kind string) ([]model.JournalEntry, error) {
	var out []model.JournalEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		var k, v []byte
		if since.IsZero() {
			k, v = c.First()
		} else {
			k, v = c.Seek([]byte(since.UTC().Format(keyTimeLayout)))
		}
		for ; k != nil; k, v = c.Next() {
			var e model.JournalEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding entry %s: %w", k, err)
			}
			if kind != "" && e.Kind != kind {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Delete removes an entry by ID and reports whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		byID := tx.Bucket(bucketByID)
		key := byID.Get([]byte(id))
		if key == nil {
			return nil
		}
		found = true
		// key is only valid inside the transaction; copy before deleting.
		key = bytes.Clone(key)
		if err := tx.Bucket(bucketEntries).Delete(key); err != nil {
			return err
		}
		return byID.Delete([]byte(id))
	})
	return found, err
}

// Summarize groups entries created at or after since by UTC day and kind.
// Days are returned oldest first; within a day, kinds are sorted by name.
func (s *Store) Summarize(since time.Time) ([]model.DailySummary, error) {
	entries, err := s.List(since, "")
	if err != nil {
		return nil, err
	}
	type dayKind struct{ day, kind string }
	idx := map[dayKind]int{}
	var out []model.DailySummary
	for _, e := range entries {
		dk := dayKind{util.FormatDate(e.CreatedAt.UTC()), e.Kind}
		i, ok := idx[dk]
		if !ok {
			i = len(out)
			idx[dk] = i
			out = append(out, model.DailySummary{Day: dk.day, Kind: dk.kind})
		}
		out[i].Entries++
		out[i].TotalCO2Kg += e.CO2Kg
	}
	for i := range out {
		out[i].TotalCO2Kg = util.Round(out[i].TotalCO2Kg, 3)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Day != out[b].Day {
			return out[a].Day < out[b].Day
		}
		return out[a].Kind < out[b].Kind
	})
	return out, nil
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all user-facing buckets.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var size int64
			if err := b.ForEach(func(k, v []byte) error {
				count++
				size += int64(len(k) + len(v))
				return nil
			}); err != nil {
				return err
			}
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: size})
		}
		return nil
	})
	return stats, err
}

// Clear deletes every journal entry and returns how many were removed.
func (s *Store) Clear() (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		removed = tx.Bucket(bucketEntries).Stats().KeyN
		for _, name := range AllBuckets {
			bname := []byte(name)
			if err := tx.DeleteBucket(bname); err != nil {
				return fmt.Errorf("clearing bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(bname); err != nil {
				return err
			}
		}
		return nil
	})
	return removed, err
}

// Compact rewrites the database into a fresh file and swaps it in place,
// returning the file size before and after. The Store stays usable.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()
	fi, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	before = fi.Size()

	tmp := path + ".compact"
	_ = os.Remove(tmp)
	dst, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("opening compaction target: %w", err)
	}
	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		os.Remove(tmp)
		return before, 0, fmt.Errorf("compacting: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, err
	}
	if err := s.db.Close(); err != nil {
		return before, 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return before, 0, fmt.Errorf("replacing database: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("reopening db %s: %w", path, err)
	}
	s.db = db

	fi, err = os.Stat(path)
	if err != nil {
		return before, 0, err
	}
	return before, fi.Size(), nil
}
