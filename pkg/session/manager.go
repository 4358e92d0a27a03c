// Package session owns the current chat session: its lifecycle state
// machine and the aggregation of messages into derived metadata.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anshul-jain-devx108/shopmind/pkg/identity"
	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
	"github.com/anshul-jain-devx108/shopmind/pkg/store"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

// localIDPrefix marks session ids minted locally, as opposed to canonical
// ids assigned by the remote service.
const localIDPrefix = "chat_"

// NewSessionID mints a provisional local session id.
func NewSessionID() string {
	return localIDPrefix + uuid.NewString()
}

// IsLocalID reports whether the id was minted locally and has not been
// replaced by a server-assigned one.
func IsLocalID(sessionID string) bool {
	return strings.HasPrefix(sessionID, localIDPrefix)
}

// Manager owns the single current session. Exactly one session is active at
// a time; all operations serialize on the manager's lock so every append
// strictly extends the prior persisted state.
//
// Operations invoked with no current session are silent no-ops (logged): the
// caller may race initialization and that is not an error.
type Manager struct {
	mu      sync.Mutex
	store   *store.Store
	current *types.Session
	now     func() time.Time
}

// NewManager creates a lifecycle manager backed by the given store.
func NewManager(st *store.Store) *Manager {
	return &Manager{
		store: st,
		now:   time.Now,
	}
}

// RestoreOrCreate adopts the user's newest active session from the store,
// or creates and persists a fresh one. The returned session is a snapshot.
func (m *Manager) RestoreOrCreate(id identity.Identity) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessionID, err := m.store.ActiveSession(id.Email); err == nil {
		session, loadErr := m.store.Load(sessionID)
		if loadErr == nil && !session.Ended() {
			logger.Info("Restored active session %s for %s", session.SessionID, id.Email)
			m.current = session
			return session.Clone(), nil
		}
		// Corrupt or ended record: fall through and start fresh.
		if loadErr != nil {
			logger.Warn("Active session %s unreadable, starting fresh: %v", sessionID, loadErr)
		}
	}

	return m.createLocked(id)
}

// createLocked constructs, persists, and adopts a fresh session.
// Caller holds the lock.
func (m *Manager) createLocked(id identity.Identity) (*types.Session, error) {
	session := &types.Session{
		SessionID: NewSessionID(),
		UserID:    id.Email,
		StartTime: m.now(),
		Messages:  []types.Message{},
		Metadata:  types.SessionMetadata{},
	}

	if err := m.store.Save(session); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	logger.Info("Created session %s for %s", session.SessionID, id.Email)
	m.current = session
	return session.Clone(), nil
}

// AddMessage appends a message to the current session, recomputes metadata,
// and persists synchronously. The stored message (with generated id and
// timestamp) is returned; a nil message with nil error means the call was a
// no-op because no session is active.
func (m *Manager) AddMessage(msg types.Message) (*types.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		logger.Warn("AddMessage called with no active session, ignoring")
		return nil, nil
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}

	m.current.Messages = append(m.current.Messages, msg)
	m.current.Metadata = FoldMessage(m.current.Metadata, msg)

	if err := m.store.Save(m.current); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	return &msg, nil
}

// EndSession terminates the current session: EndTime is set once, the
// session is persisted as terminal, and the current pointer is cleared.
// Calling with no active session is a no-op, which also makes the operation
// idempotent. The ended session is returned for mirroring; nil means no-op.
func (m *Manager) EndSession() (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		logger.Info("EndSession called with no active session, ignoring")
		return nil, nil
	}

	endTime := m.now()
	m.current.EndTime = &endTime

	if err := m.store.Save(m.current); err != nil {
		return nil, fmt.Errorf("failed to persist ended session: %w", err)
	}

	logger.Info("Ended session %s (%d messages)", m.current.SessionID, m.current.Metadata.MessageCount)
	ended := m.current.Clone()
	m.current = nil
	return ended, nil
}

// ClearHistory truncates the current session in place: messages and metadata
// reset to zero while the session id and start time are preserved. The
// cleared session is returned for mirroring; nil means no-op.
func (m *Manager) ClearHistory() (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		logger.Info("ClearHistory called with no active session, ignoring")
		return nil, nil
	}

	m.current.Messages = []types.Message{}
	m.current.Metadata = types.SessionMetadata{}

	if err := m.store.Save(m.current); err != nil {
		return nil, fmt.Errorf("failed to persist cleared session: %w", err)
	}

	logger.Info("Cleared history of session %s", m.current.SessionID)
	return m.current.Clone(), nil
}

// Current returns a snapshot of the active session, or nil.
func (m *Manager) Current() *types.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Adopt replaces the current session with one obtained elsewhere (the remote
// mirror, during restore) and persists it locally. Ended sessions cannot be
// adopted.
func (m *Manager) Adopt(session *types.Session) error {
	if session.Ended() {
		return fmt.Errorf("cannot adopt ended session %s", session.SessionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(session); err != nil {
		return fmt.Errorf("failed to persist adopted session: %w", err)
	}

	m.current = session.Clone()
	return nil
}

// Rekey renames the current session to a canonical server-assigned id. The
// record under the provisional id is removed so the index never lists both.
func (m *Manager) Rekey(newID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return fmt.Errorf("no active session to rekey")
	}
	if m.current.SessionID == newID {
		return nil
	}

	oldID := m.current.SessionID
	m.current.SessionID = newID

	if err := m.store.Save(m.current); err != nil {
		m.current.SessionID = oldID
		return fmt.Errorf("failed to persist rekeyed session: %w", err)
	}
	if err := m.store.Delete(oldID); err != nil {
		return fmt.Errorf("failed to remove provisional session record: %w", err)
	}

	logger.Info("Session %s adopted server id %s", oldID, newID)
	return nil
}
