package sync

import (
	"context"
	stdsync "sync"

	"github.com/anshul-jain-devx108/shopmind/pkg/identity"
	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
	"github.com/anshul-jain-devx108/shopmind/pkg/session"
	"github.com/anshul-jain-devx108/shopmind/pkg/store"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

// SyncedManager wraps the local lifecycle manager with best-effort remote
// mirroring. Local state is updated first and is always the return value;
// mirror calls run in the background and their failures are logged and
// swallowed, never rolled back, never surfaced.
type SyncedManager struct {
	local  *session.Manager
	store  *store.Store
	client *Client
	wg     stdsync.WaitGroup
}

// NewSyncedManager creates a synced manager over the local manager and its
// backing store.
func NewSyncedManager(local *session.Manager, st *store.Store, client *Client) *SyncedManager {
	return &SyncedManager{
		local:  local,
		store:  st,
		client: client,
	}
}

// RestoreOrCreate restores the user's session, preferring the remote copy of
// a previously server-assigned session so a session started elsewhere is
// picked up. Every remote failure falls back to the local path.
func (m *SyncedManager) RestoreOrCreate(id identity.Identity) (*types.Session, error) {
	// Remote-first restore only makes sense for ids the server assigned;
	// provisional local ids are unknown to it.
	if sid, err := m.store.ActiveSession(id.Email); err == nil && !session.IsLocalID(sid) {
		switch remote, ferr := m.client.FetchSession(context.Background(), sid); {
		case ferr != nil:
			logger.Warn("Remote restore of %s failed, falling back to local: %v", sid, ferr)
		case remote.Ended() || remote.UserID != id.Email:
			logger.Info("Remote copy of %s is not restorable, falling back to local", sid)
		default:
			if aerr := m.local.Adopt(remote); aerr != nil {
				logger.Warn("Failed to adopt remote session %s locally: %v", remote.SessionID, aerr)
				break
			}
			logger.Info("Restored session %s from remote", remote.SessionID)
			return m.local.Current(), nil
		}
	}

	s, err := m.local.RestoreOrCreate(id)
	if err != nil {
		return nil, err
	}

	// A provisional id means the remote side has never seen this session.
	// Register it now and adopt the server-assigned id as canonical.
	if session.IsLocalID(s.SessionID) {
		resp, cerr := m.client.CreateSession(context.Background(), id.Email)
		if cerr != nil {
			logger.Warn("Remote session create failed, continuing local-only: %v", cerr)
			return s, nil
		}
		if rerr := m.local.Rekey(resp.SessionID); rerr != nil {
			logger.Warn("Failed to adopt server session id %s: %v", resp.SessionID, rerr)
			return s, nil
		}
		s = m.local.Current()
	}

	return s, nil
}

// AddMessage appends locally first, then mirrors the append and the updated
// metadata in the background.
func (m *SyncedManager) AddMessage(msg types.Message) error {
	stored, err := m.local.AddMessage(msg)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil // no active session, nothing to mirror
	}

	snapshot := m.local.Current()
	if snapshot == nil {
		return nil
	}

	m.mirror(func(ctx context.Context) {
		if err := m.client.AppendMessage(ctx, snapshot.SessionID, *stored); err != nil {
			logger.Warn("Failed to mirror message %s: %v", stored.ID, err)
			return
		}
		if err := m.client.UpdateSession(ctx, snapshot); err != nil {
			logger.Warn("Failed to mirror metadata for session %s: %v", snapshot.SessionID, err)
		}
	})

	return nil
}

// EndSession terminates the session locally and mirrors the terminal state.
func (m *SyncedManager) EndSession() error {
	ended, err := m.local.EndSession()
	if err != nil {
		return err
	}
	if ended == nil {
		return nil
	}

	m.mirror(func(ctx context.Context) {
		if err := m.client.UpdateSession(ctx, ended); err != nil {
			logger.Warn("Failed to mirror end of session %s: %v", ended.SessionID, err)
		}
	})

	return nil
}

// ClearHistory resets the session in place locally and mirrors the cleared
// metadata, keeping one session identity across the clear.
func (m *SyncedManager) ClearHistory() error {
	cleared, err := m.local.ClearHistory()
	if err != nil {
		return err
	}
	if cleared == nil {
		return nil
	}

	m.mirror(func(ctx context.Context) {
		if err := m.client.UpdateSession(ctx, cleared); err != nil {
			logger.Warn("Failed to mirror cleared session %s: %v", cleared.SessionID, err)
		}
	})

	return nil
}

// DeleteSession removes a stored session locally and best-effort remotely.
func (m *SyncedManager) DeleteSession(sessionID string) error {
	if err := m.store.Delete(sessionID); err != nil {
		return err
	}

	m.mirror(func(ctx context.Context) {
		if err := m.client.DeleteSession(ctx, sessionID); err != nil {
			logger.Warn("Failed to mirror delete of session %s: %v", sessionID, err)
		}
	})

	return nil
}

// Current returns a snapshot of the active session, or nil.
func (m *SyncedManager) Current() *types.Session {
	return m.local.Current()
}

// Wait drains in-flight mirror calls. Used at shutdown and in tests; normal
// callers never wait on the mirror.
func (m *SyncedManager) Wait() {
	m.wg.Wait()
}

// mirror runs fn in the background without ever blocking the caller.
func (m *SyncedManager) mirror(fn func(ctx context.Context)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn(context.Background())
	}()
}
