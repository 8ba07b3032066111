package patient

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Source produces a complete roster. Implementations read a file, the bundled
// dataset, or Postgres.
type Source interface {
	Name() string
	Load(ctx context.Context) (*LoadResult, error)
}

// Snapshot is an immutable view of the roster. Callers must not modify
// Records; a refresh replaces the whole snapshot.
type Snapshot struct {
	Records  []Record
	Issues   []Issue
	Source   string
	LoadedAt time.Time
}

// Store holds the current Snapshot. Reads are lock-free and a reload swaps
// the pointer, so aggregations always see one consistent collection.
type Store struct {
	src     Source
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store bound to src. Call Reload to populate it.
func NewStore(src Source) *Store {
	s := &Store{src: src}
	s.current.Store(&Snapshot{Records: []Record{}, Source: src.Name()})
	return s
}

// Snapshot returns the current roster.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reload reads the source again and swaps in the new roster. On error the
// previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	res, err := s.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s roster: %w", s.src.Name(), err)
	}
	return s.replace(res.Records, res.Issues), nil
}

// replace swaps in a copy of records. A nil issues slice means the records
// have not been checked yet.
func (s *Store) replace(records []Record, issues []Issue) *Snapshot {
	cp := make([]Record, len(records))
	copy(cp, records)
	if issues == nil {
		issues = CheckAll(cp)
	}
	snap := &Snapshot{
		Records:  cp,
		Issues:   issues,
		Source:   s.src.Name(),
		LoadedAt: time.Now().UTC(),
	}
	s.current.Store(snap)
	return snap
}

// Find returns the record with the given id from the current snapshot.
func (s *Store) Find(id string) (*Record, error) {
	snap := s.Snapshot()
	for i := range snap.Records {
		if snap.Records[i].ID == id {
			r := snap.Records[i]
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

// FileSource loads a roster from a JSON file on disk.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return "file" }

func (f FileSource) Load(_ context.Context) (*LoadResult, error) {
	return LoadFile(f.Path)
}
