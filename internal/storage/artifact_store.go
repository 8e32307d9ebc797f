package storage

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

var ErrArtifactNotFound = errors.New("artifact not found")

const artifactIDPrefix = "art1"

// Artifact is a temporary file owned by one requester's workflow.
type Artifact struct {
	ID        string
	Owner     int64
	Name      string
	Path      string
	Size      int64
	Checksum  string
	CreatedAt time.Time
}

// ArtifactStore keeps workflow temp files in a private directory and tracks
// which requester owns each of them.
type ArtifactStore struct {
	mu      sync.RWMutex
	dir     string
	items   map[string]Artifact
	byOwner map[int64]map[string]struct{}
}

// NewArtifactStore prepares dir (or a fresh temp dir when dir is empty).
// Files left over from a previous process are removed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		tmp, err := os.MkdirTemp("", "cardsmith-artifacts-")
		if err != nil {
			return nil, err
		}
		dir = tmp
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return nil, err
	}
	s := &ArtifactStore{
		dir:     dir,
		items:   make(map[string]Artifact),
		byOwner: make(map[int64]map[string]struct{}),
	}
	if err := s.removeStale(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Save streams r into a new artifact owned by owner.
func (s *ArtifactStore) Save(owner int64, name string, r io.Reader) (Artifact, error) {
	if r == nil {
		return Artifact{}, errors.New("artifact reader is nil")
	}
	id, err := newArtifactID()
	if err != nil {
		return Artifact{}, err
	}
	path := s.filePath(id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return Artifact{}, err
	}
	hasher, err := blake2b.New256(nil)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return Artifact{}, err
	}
	size, copyErr := io.Copy(io.MultiWriter(f, hasher), r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return Artifact{}, fmt.Errorf("save artifact %q: %w", name, err)
	}

	art := Artifact{
		ID:        id,
		Owner:     owner,
		Name:      name,
		Path:      path,
		Size:      size,
		Checksum:  hex.EncodeToString(hasher.Sum(nil)),
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.items[id] = art
	owned, ok := s.byOwner[owner]
	if !ok {
		owned = make(map[string]struct{})
		s.byOwner[owner] = owned
	}
	owned[id] = struct{}{}
	s.mu.Unlock()
	return art, nil
}

// Create stores data as a new artifact owned by owner.
func (s *ArtifactStore) Create(owner int64, name string, data []byte) (Artifact, error) {
	return s.Save(owner, name, bytes.NewReader(data))
}

func (s *ArtifactStore) Get(id string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	art, ok := s.items[id]
	if !ok {
		return Artifact{}, ErrArtifactNotFound
	}
	return art, nil
}

// Read returns the artifact content.
func (s *ArtifactStore) Read(id string) ([]byte, error) {
	art, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(art.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return data, nil
}

// Release deletes the artifact. Releasing an unknown id is a no-op.
func (s *ArtifactStore) Release(id string) error {
	s.mu.Lock()
	art, ok := s.items[id]
	if ok {
		delete(s.items, id)
		if owned := s.byOwner[art.Owner]; owned != nil {
			delete(owned, id)
			if len(owned) == 0 {
				delete(s.byOwner, art.Owner)
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(art.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ReleaseOwner deletes every artifact owned by owner. It keeps going after a
// failed delete and returns all failures joined.
func (s *ArtifactStore) ReleaseOwner(owner int64) (int, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.byOwner[owner]))
	for id := range s.byOwner[owner] {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := s.Release(id); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", id, err))
		}
	}
	return len(ids), errors.Join(errs...)
}

// Count reports how many live artifacts owner holds.
func (s *ArtifactStore) Count(owner int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byOwner[owner])
}

// Len reports the number of live artifacts across all owners.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Wipe deletes every tracked artifact and any stray file in the directory.
func (s *ArtifactStore) Wipe() error {
	s.mu.Lock()
	s.items = make(map[string]Artifact)
	s.byOwner = make(map[int64]map[string]struct{})
	s.mu.Unlock()
	return s.removeStale()
}

func (s *ArtifactStore) removeStale() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, artifactIDPrefix+"*.bin"))
	if err != nil {
		return err
	}
	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ArtifactStore) filePath(id string) string {
	return filepath.Join(s.dir, id+".bin")
}

func newArtifactID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return artifactIDPrefix + base58.Encode(buf), nil
}
