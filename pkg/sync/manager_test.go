package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/anshul-jain-devx108/shopmind/pkg/config"
	"github.com/anshul-jain-devx108/shopmind/pkg/identity"
	"github.com/anshul-jain-devx108/shopmind/pkg/session"
	"github.com/anshul-jain-devx108/shopmind/pkg/store"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

var testIdentity = identity.Identity{Name: "Alice", Email: "alice@example.com"}

func userMsg(content string) types.Message {
	return types.Message{
		ID:        uuid.New().String(),
		Content:   content,
		Sender:    types.SenderUser,
		Timestamp: time.Now().UTC(),
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestSyncedManager(t *testing.T, handler http.Handler) (*SyncedManager, *store.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	st := newTestStore(t)
	client := NewClient(&config.RemoteConfig{
		BackendURL: server.URL,
		APIKey:     "test-key-1234567890",
	})
	return NewSyncedManager(session.NewManager(st), st, client), st
}

// recordingHandler captures mirror traffic so tests can assert on it after
// Wait() has drained the background calls.
type recordingHandler struct {
	mu       stdsync.Mutex
	requests []string // "METHOD path"
	bodies   map[string][]byte
	respond  func(w http.ResponseWriter, r *http.Request)
}

func newRecordingHandler(respond func(w http.ResponseWriter, r *http.Request)) *recordingHandler {
	return &recordingHandler{bodies: make(map[string][]byte), respond: respond}
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)
	h.mu.Lock()
	h.requests = append(h.requests, key)
	h.bodies[key] = body
	h.mu.Unlock()
	h.respond(w, r)
}

func (h *recordingHandler) saw(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, req := range h.requests {
		if req == key {
			return true
		}
	}
	return false
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/chat/sessions":
		fmt.Fprintf(w, `{"session_id":"srv-session-1","start_time":%q}`, time.Now().UTC().Format(time.RFC3339))
	default:
		w.Write([]byte(`{"success":true}`))
	}
}

func TestRestoreOrCreateAdoptsServerID(t *testing.T) {
	mgr, st := newTestSyncedManager(t, http.HandlerFunc(okHandler))

	s, err := mgr.RestoreOrCreate(testIdentity)
	if err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if s.SessionID != "srv-session-1" {
		t.Errorf("SessionID = %q, want server-assigned srv-session-1", s.SessionID)
	}

	// The provisional record must be gone; only the rekeyed one remains.
	count, err := st.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("stored sessions = %d, want 1", count)
	}
	if _, err := st.Load("srv-session-1"); err != nil {
		t.Errorf("rekeyed session not in store: %v", err)
	}
}

func TestRestoreOrCreateContinuesLocalWhenRemoteDown(t *testing.T) {
	mgr, _ := newTestSyncedManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	s, err := mgr.RestoreOrCreate(testIdentity)
	if err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if !session.IsLocalID(s.SessionID) {
		t.Errorf("SessionID = %q, want a provisional local id", s.SessionID)
	}
}

func TestRestoreOrCreatePrefersRemoteCopy(t *testing.T) {
	start := time.Now().UTC().Add(-time.Hour)
	remoteBody := fmt.Sprintf(`{
		"session_id": "srv-session-1",
		"user_id": "alice@example.com",
		"start_time": %q,
		"messages": [
			{"id": "m1", "content": "blue hat", "sender": "user", "timestamp": %q},
			{"id": "m2", "content": "sure", "sender": "bot", "timestamp": %q}
		]
	}`, start.Format(time.RFC3339), start.Format(time.RFC3339), start.Format(time.RFC3339))

	mgr, st := newTestSyncedManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/v1/chat/sessions/srv-session-1" {
			w.Write([]byte(remoteBody))
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))

	// A stale local copy of the server-assigned session, missing a message
	// that was appended from another device.
	stale := &types.Session{
		SessionID: "srv-session-1",
		UserID:    testIdentity.Email,
		StartTime: start,
		Messages:  []types.Message{},
	}
	if err := st.Save(stale); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s, err := mgr.RestoreOrCreate(testIdentity)
	if err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if s.SessionID != "srv-session-1" {
		t.Fatalf("SessionID = %q, want srv-session-1", s.SessionID)
	}
	if len(s.Messages) != 2 {
		t.Errorf("restored %d messages, want 2 from remote copy", len(s.Messages))
	}
	if s.Metadata.MessageCount != 2 || s.Metadata.UserMessageCount != 1 {
		t.Errorf("metadata not refolded: %+v", s.Metadata)
	}
}

func TestRestoreOrCreateFallsBackWhenRemoteCopyEnded(t *testing.T) {
	start := time.Now().UTC().Add(-time.Hour)
	end := start.Add(30 * time.Minute)
	remoteBody := fmt.Sprintf(`{
		"session_id": "srv-session-1",
		"user_id": "alice@example.com",
		"start_time": %q,
		"end_time": %q,
		"messages": []
	}`, start.Format(time.RFC3339), end.Format(time.RFC3339))

	mgr, st := newTestSyncedManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(remoteBody))
			return
		}
		okHandler(w, r)
	}))

	active := &types.Session{
		SessionID: "srv-session-1",
		UserID:    testIdentity.Email,
		StartTime: start,
		Messages:  []types.Message{},
	}
	if err := st.Save(active); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The remote says the session ended elsewhere, so the local copy is
	// restored as-is rather than adopting the terminated remote state.
	s, err := mgr.RestoreOrCreate(testIdentity)
	if err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if s.SessionID != "srv-session-1" {
		t.Errorf("SessionID = %q, want local fallback srv-session-1", s.SessionID)
	}
	if s.Ended() {
		t.Error("restored session should be active")
	}
}

func TestAddMessageSurvivesMirrorFailure(t *testing.T) {
	var calls int
	var mu stdsync.Mutex
	mgr, st := newTestSyncedManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/v1/chat/sessions" {
			okHandler(w, r)
			return
		}
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "mirror down", http.StatusBadGateway)
	}))

	if _, err := mgr.RestoreOrCreate(testIdentity); err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if err := mgr.AddMessage(userMsg("red shoes")); err != nil {
		t.Fatalf("AddMessage must not surface mirror failures: %v", err)
	}
	mgr.Wait()

	mu.Lock()
	attempted := calls
	mu.Unlock()
	if attempted == 0 {
		t.Error("expected at least one mirror attempt")
	}

	// Local state is intact regardless of the mirror outcome.
	s := mgr.Current()
	if s == nil || len(s.Messages) != 1 {
		t.Fatalf("local session missing the message: %+v", s)
	}
	stored, err := st.Load(s.SessionID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stored.Messages) != 1 {
		t.Errorf("persisted %d messages, want 1", len(stored.Messages))
	}
}

func TestAddMessageMirrorsAppendAndMetadata(t *testing.T) {
	handler := newRecordingHandler(okHandler)
	mgr, _ := newTestSyncedManager(t, handler)

	if _, err := mgr.RestoreOrCreate(testIdentity); err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if err := mgr.AddMessage(userMsg("red shoes")); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	mgr.Wait()

	if !handler.saw("POST /api/v1/chat/sessions/srv-session-1/messages") {
		t.Error("append was not mirrored")
	}
	if !handler.saw("PUT /api/v1/chat/sessions/srv-session-1") {
		t.Error("metadata update was not mirrored")
	}
}

func TestEndSessionMirrorsTerminalState(t *testing.T) {
	handler := newRecordingHandler(okHandler)
	mgr, _ := newTestSyncedManager(t, handler)

	if _, err := mgr.RestoreOrCreate(testIdentity); err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if err := mgr.EndSession(); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	mgr.Wait()

	handler.mu.Lock()
	body := handler.bodies["PUT /api/v1/chat/sessions/srv-session-1"]
	handler.mu.Unlock()
	if body == nil {
		t.Fatal("end was not mirrored")
	}

	var req UpdateSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("mirror body is not valid JSON: %v", err)
	}
	if req.EndTime == nil {
		t.Error("mirrored update carries no end time")
	}
}

func TestClearHistoryKeepsSessionIdentity(t *testing.T) {
	mgr, _ := newTestSyncedManager(t, http.HandlerFunc(okHandler))

	if _, err := mgr.RestoreOrCreate(testIdentity); err != nil {
		t.Fatalf("RestoreOrCreate: %v", err)
	}
	if err := mgr.AddMessage(userMsg("red shoes")); err != nil {
		t.Fatalf("AddMessage: %v", err)
	}
	before := mgr.Current()

	if err := mgr.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	mgr.Wait()

	after := mgr.Current()
	if after.SessionID != before.SessionID {
		t.Errorf("clear changed session id %q -> %q", before.SessionID, after.SessionID)
	}
	if len(after.Messages) != 0 || after.Metadata.MessageCount != 0 {
		t.Errorf("history not cleared: %+v", after.Metadata)
	}
}

func TestDeleteSessionRemovesLocallyDespiteRemoteFailure(t *testing.T) {
	st := newTestStore(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	client := NewClient(&config.RemoteConfig{
		BackendURL: server.URL,
		APIKey:     "test-key-1234567890",
	})
	mgr := NewSyncedManager(session.NewManager(st), st, client)

	s := &types.Session{
		SessionID: "srv-session-1",
		UserID:    testIdentity.Email,
		StartTime: time.Now().UTC(),
		Messages:  []types.Message{},
	}
	if err := st.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := mgr.DeleteSession("srv-session-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	mgr.Wait()

	if _, err := st.Load("srv-session-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("session still present locally: %v", err)
	}
}
