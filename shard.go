package chessgen

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// PersistenceError reports a shard write the backing store rejected. The
// episode's data is still in the caller's hands; nothing was persisted.
type PersistenceError struct {
	Index int
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist shard %d: %v", e.Index, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ShardReadError reports a missing or corrupted shard. It is isolated per
// shard during batch loads.
type ShardReadError struct {
	Path string
	Err  error
}

func (e *ShardReadError) Error() string {
	return fmt.Sprintf("read shard %s: %v", e.Path, e.Err)
}

func (e *ShardReadError) Unwrap() error { return e.Err }

// ShardRef addresses one persisted shard without reading its contents.
type ShardRef struct {
	Index int
	Path  string
}

const (
	shardPrefix = "episode_"
	shardExt    = ".shard"
)

func shardName(index int) string {
	return fmt.Sprintf("%s%06d%s", shardPrefix, index, shardExt)
}

// Store keeps one gob-encoded shard file per episode under a directory.
// Writes to distinct indices are independent; readers of one shard are
// never blocked by a writer of another.
type Store struct {
	dir string
}

var _ ShardWriter = (*Store)(nil)

// NewStore opens (creating if needed) a shard directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create shard directory")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// shardFile is the serialized form. gob is self-describing, so each shard
// decodes on its own without consulting any other.
type shardFile struct {
	Index   int
	Samples []Sample
}

// Write persists samples as the shard for the given episode index. The
// write is atomic from a reader's perspective: data goes to a temp file in
// the same directory and is renamed over the final name only after a
// successful flush and fsync. A reader can never observe a partial shard.
func (s *Store) Write(index int, samples []Sample) (string, error) {
	dest := filepath.Join(s.dir, shardName(index))

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", &PersistenceError{Index: index, Err: errors.Wrap(err, "create temp file")}
	}
	tmpPath := tmp.Name()
	discard := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", &PersistenceError{Index: index, Err: err}
	}

	bw := bufio.NewWriter(tmp)
	if err := gob.NewEncoder(bw).Encode(shardFile{Index: index, Samples: samples}); err != nil {
		return discard(errors.Wrap(err, "encode"))
	}
	if err := bw.Flush(); err != nil {
		return discard(errors.Wrap(err, "flush"))
	}
	if err := tmp.Sync(); err != nil {
		return discard(errors.Wrap(err, "sync"))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", &PersistenceError{Index: index, Err: errors.Wrap(err, "close")}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", &PersistenceError{Index: index, Err: errors.Wrap(err, "rename into place")}
	}
	return dest, nil
}

// List enumerates shards in ascending episode order. Ordering comes from
// the parsed index, not from directory enumeration order.
func (s *Store) List() ([]ShardRef, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "list shards")
	}
	refs := make([]ShardRef, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, shardPrefix) || !strings.HasSuffix(name, shardExt) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, shardPrefix), shardExt))
		if err != nil {
			continue
		}
		refs = append(refs, ShardRef{Index: idx, Path: filepath.Join(s.dir, name)})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Index < refs[j].Index })
	return refs, nil
}

// Count reports how many shards exist without deserializing any contents.
func (s *Store) Count() (int, error) {
	refs, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

// Read loads a single shard.
func (s *Store) Read(ref ShardRef) (Episode, error) {
	f, err := os.Open(ref.Path)
	if err != nil {
		return Episode{}, &ShardReadError{Path: ref.Path, Err: err}
	}
	defer f.Close()

	var sf shardFile
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&sf); err != nil {
		return Episode{}, &ShardReadError{Path: ref.Path, Err: errors.Wrap(err, "decode")}
	}
	return Episode{Index: sf.Index, Samples: sf.Samples}, nil
}

// Load reads shards from refs in order until limit episodes are resident.
// limit <= 0 means all. A shard that fails to read is skipped and reported
// in the returned (multierror) error; the rest still load.
func (s *Store) Load(refs []ShardRef, limit int) ([]Episode, error) {
	if limit <= 0 || limit > len(refs) {
		limit = len(refs)
	}
	episodes := make([]Episode, 0, limit)
	var errs *multierror.Error
	for _, ref := range refs {
		if len(episodes) >= limit {
			break
		}
		ep, err := s.Read(ref)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		episodes = append(episodes, ep)
	}
	return episodes, errs.ErrorOrNil()
}
