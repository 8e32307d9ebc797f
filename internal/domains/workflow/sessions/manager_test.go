package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cardsmith/go-backend/internal/domains/workflow/model"
)

type fakeReleaser struct {
	mu       sync.Mutex
	released []int64
	err      error
}

func (f *fakeReleaser) ReleaseOwner(owner int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, owner)
	return 0, f.err
}

func (f *fakeReleaser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

func TestStartReplacesExistingSession(t *testing.T) {
	rel := &fakeReleaser{}
	m := NewManager(rel, nil)

	first := m.Start(7, model.KindMergeText)
	ctx, cancel := context.WithCancel(context.Background())
	first.BindCancel(cancel)

	second := m.Start(7, model.KindSplit)
	if ctx.Err() == nil {
		t.Fatal("replaced session engine must be cancelled")
	}
	if rel.count() != 2 {
		t.Fatalf("expected release on both starts, got %d", rel.count())
	}
	got, ok := m.Get(7)
	if !ok || got != second || got.State != model.StateAwaitingFile {
		t.Fatalf("unexpected current session %+v", got)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one session, got %d", m.Len())
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	rel := &fakeReleaser{err: errors.New("disk gone")}
	m := NewManager(rel, nil)
	m.Start(3, model.KindFreeform)

	m.Destroy(3)
	m.Destroy(3)
	if _, ok := m.Get(3); ok {
		t.Fatal("session must be gone")
	}
	if m.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", m.Len())
	}
}

func TestDestroyIfSkipsReplacement(t *testing.T) {
	m := NewManager(&fakeReleaser{}, nil)
	old := m.Start(5, model.KindMergeCards)
	current := m.Start(5, model.KindMergeCards)

	if m.DestroyIf(5, old) {
		t.Fatal("stale session must not destroy the replacement")
	}
	if got, ok := m.Get(5); !ok || got != current {
		t.Fatal("replacement session was removed")
	}
	if !m.DestroyIf(5, current) {
		t.Fatal("current session must be destroyed")
	}
}

func TestLockSerializesPerRequester(t *testing.T) {
	m := NewManager(nil, nil)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock(9)
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected serialized access, saw %d concurrent holders", maxSeen)
	}
	if m.trackedLocks() != 0 {
		t.Fatalf("expected idle lock entries to be dropped, got %d", m.trackedLocks())
	}
}

func TestLockDoesNotBlockOtherRequesters(t *testing.T) {
	m := NewManager(nil, nil)
	unlock := m.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := m.Lock(2)
		release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock of another requester blocked")
	}
	unlock()
	unlock()
}
