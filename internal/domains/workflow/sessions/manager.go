package sessions

import (
	"log/slog"
	"sync"
	"time"

	"cardsmith/go-backend/internal/domains/workflow/model"
)

// ArtifactReleaser frees every artifact an owner still holds.
type ArtifactReleaser interface {
	ReleaseOwner(owner int64) (int, error)
}

// Manager maps requester ids to their single live session.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*model.Session

	locksMu sync.Mutex
	locks   map[int64]*keyLock

	artifacts ArtifactReleaser
	logger    *slog.Logger
	now       func() time.Time
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(artifacts ArtifactReleaser, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:  make(map[int64]*model.Session),
		locks:     make(map[int64]*keyLock),
		artifacts: artifacts,
		logger:    logger,
		now:       time.Now,
	}
}

// Start replaces any existing session of requesterID with a fresh one in the
// first state of kind. The old session is torn down first.
func (m *Manager) Start(requesterID int64, kind model.Kind) *model.Session {
	m.Destroy(requesterID)
	s := model.NewSession(requesterID, kind, m.now())
	m.mu.Lock()
	m.sessions[requesterID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(requesterID int64) (*model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[requesterID]
	return s, ok
}

// Destroy cancels the engine of the session, releases every artifact the
// requester owns and forgets the session. Release failures are logged only.
func (m *Manager) Destroy(requesterID int64) {
	m.mu.Lock()
	s := m.sessions[requesterID]
	delete(m.sessions, requesterID)
	m.mu.Unlock()
	m.teardown(requesterID, s)
}

// DestroyIf destroys the session only while s is still the current one, so a
// finishing engine cannot tear down a session that replaced it.
func (m *Manager) DestroyIf(requesterID int64, s *model.Session) bool {
	m.mu.Lock()
	current, ok := m.sessions[requesterID]
	if !ok || current != s {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, requesterID)
	m.mu.Unlock()
	m.teardown(requesterID, s)
	return true
}

func (m *Manager) teardown(requesterID int64, s *model.Session) {
	if s != nil {
		s.Cancel()
	}
	if m.artifacts == nil {
		return
	}
	released, err := m.artifacts.ReleaseOwner(requesterID)
	if err != nil {
		m.logger.Warn("session artifact release failed",
			"component", "workflow.sessions",
			"operation", "destroy",
			"requester_id", requesterID,
			"released", released,
			"error", err.Error(),
		)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Lock serializes work for one requester. The returned func releases the lock;
// idle lock entries are dropped.
func (m *Manager) Lock(requesterID int64) func() {
	m.locksMu.Lock()
	l, ok := m.locks[requesterID]
	if !ok {
		l = &keyLock{}
		m.locks[requesterID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, requesterID)
			}
			m.locksMu.Unlock()
		})
	}
}

func (m *Manager) trackedLocks() int {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	return len(m.locks)
}
