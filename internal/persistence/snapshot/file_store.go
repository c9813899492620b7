package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const fileSuffix = ".snap.zst"

// FileStore keeps one zstd snapshot file per saved tick under Dir and
// prunes all but the newest Keep files.
type FileStore struct {
	Dir  string
	Keep int
}

func NewFileStore(dir string, keep int) *FileStore {
	if keep <= 0 {
		keep = 5
	}
	return &FileStore{Dir: dir, Keep: keep}
}

func (s *FileStore) SaveSnapshot(ctx context.Context, snap SnapshotV1) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%d%s", snap.Header.Tick, fileSuffix))
	if err := WriteSnapshot(path, snap); err != nil {
		return err
	}
	s.prune()
	return nil
}

// LoadLatest returns the newest snapshot; ok is false when none exist.
func (s *FileStore) LoadLatest(ctx context.Context) (snap SnapshotV1, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return snap, false, err
	}
	ticks := s.ticks()
	if len(ticks) == 0 {
		return snap, false, nil
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%d%s", ticks[len(ticks)-1], fileSuffix))
	snap, err = ReadSnapshot(path)
	if err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

func (s *FileStore) ticks() []uint64 {
	ents, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil
	}
	var out []uint64
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(e.Name(), fileSuffix), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, tick)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *FileStore) prune() {
	ticks := s.ticks()
	for len(ticks) > s.Keep {
		_ = os.Remove(filepath.Join(s.Dir, fmt.Sprintf("%d%s", ticks[0], fileSuffix)))
		ticks = ticks[1:]
	}
}
