package session

import (
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/rimage"
)

// Manager owns the live sessions of a host, one per frame being edited. Sessions never share
// buffers, so several may be edited at once.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	opts     Options
	logger   logging.Logger
}

// NewManager returns a manager creating sessions with opts. The clock and heartbeat window in opts
// govern expiry.
func NewManager(opts Options, logger logging.Logger) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Manager{
		sessions: map[uuid.UUID]*Session{},
		opts:     opts,
		logger:   logger,
	}
}

// Start creates a session over frame.
func (m *Manager) Start(frame *rimage.Image, frameName string) (*Session, error) {
	s, err := New(frame, frameName, m.opts, m.logger)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.logger.Debugw("session started", "id", s.ID().String(), "frame", frameName)
	return s, nil
}

// Get returns a live session and records a heartbeat for it.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || !s.Active(m.opts.Clock.Now()) {
		return nil, errors.Wrapf(ErrSessionNotFound, "id %s", id)
	}
	s.Heartbeat()
	return s, nil
}

// Close forgets a session.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.Wrapf(ErrSessionNotFound, "id %s", id)
	}
	delete(m.sessions, id)
	return nil
}

// ExpireIdle forgets every session whose heartbeat deadline has passed and returns their IDs.
func (m *Manager) ExpireIdle() []uuid.UUID {
	now := m.opts.Clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	expired := lo.Filter(lo.Values(m.sessions), func(s *Session, _ int) bool {
		return !s.Active(now)
	})
	ids := lo.Map(expired, func(s *Session, _ int) uuid.UUID { return s.ID() })
	for _, id := range ids {
		delete(m.sessions, id)
		m.logger.Infow("session expired", "id", id.String())
	}
	return sortIDs(ids)
}

// List returns the IDs of every tracked session, expired or not.
func (m *Manager) List() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortIDs(lo.Keys(m.sessions))
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
