package cmd

import (
	"github.com/anshul-jain-devx108/shopmind/pkg/config"
	"github.com/anshul-jain-devx108/shopmind/pkg/identity"
	"github.com/anshul-jain-devx108/shopmind/pkg/session"
	"github.com/anshul-jain-devx108/shopmind/pkg/store"
	syncpkg "github.com/anshul-jain-devx108/shopmind/pkg/sync"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

// lifecycle is the slice of session operations the CLI needs, satisfied by
// both the local-only manager and the remote-synced one.
type lifecycle interface {
	RestoreOrCreate(id identity.Identity) (*types.Session, error)
	EndSession() error
	ClearHistory() error
	// Wait drains background mirror calls before the process exits.
	Wait()
}

// localLifecycle adapts the local manager to the lifecycle interface.
type localLifecycle struct {
	m *session.Manager
}

func (l localLifecycle) RestoreOrCreate(id identity.Identity) (*types.Session, error) {
	return l.m.RestoreOrCreate(id)
}

func (l localLifecycle) EndSession() error {
	_, err := l.m.EndSession()
	return err
}

func (l localLifecycle) ClearHistory() error {
	_, err := l.m.ClearHistory()
	return err
}

func (l localLifecycle) Wait() {}

// newLifecycle builds the lifecycle manager for the store: remote-synced
// when a backend is configured, local-only otherwise.
func newLifecycle(st *store.Store) (lifecycle, error) {
	local := session.NewManager(st)

	cfg, err := config.GetRemoteConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Configured() {
		return localLifecycle{m: local}, nil
	}

	return syncpkg.NewSyncedManager(local, st, syncpkg.NewClient(cfg)), nil
}
