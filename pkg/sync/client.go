// Package sync mirrors local session state to the remote session service on
// a best-effort basis. The local store stays the source of truth; nothing
// here is ever allowed to fail a caller's operation.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anshul-jain-devx108/shopmind/pkg/config"
	"github.com/anshul-jain-devx108/shopmind/pkg/httpclient"
	"github.com/anshul-jain-devx108/shopmind/pkg/session"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

// ErrRemoteUnavailable classifies every failure to obtain a usable answer
// from the remote service: network errors, HTTP errors, and responses whose
// shape does not validate. Callers recover by continuing local-only.
var ErrRemoteUnavailable = errors.New("remote session service unavailable")

// Client is the typed API client for the remote session service.
type Client struct {
	httpClient *httpclient.Client
}

// NewClient creates a remote session service client.
func NewClient(cfg *config.RemoteConfig) *Client {
	return &Client{
		httpClient: httpclient.NewClient(cfg, httpclient.DefaultTimeout),
	}
}

// CreateSessionRequest is the request body for POST /api/v1/chat/sessions
type CreateSessionRequest struct {
	UserID string `json:"user_id"`
}

// CreateSessionResponse is the response for POST /api/v1/chat/sessions
type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	StartTime time.Time `json:"start_time"`
}

// AppendMessageRequest is the request body for appending one message.
type AppendMessageRequest struct {
	SessionID string        `json:"session_id"`
	Message   types.Message `json:"message"`
}

// AppendMessageResponse reports whether the append was accepted.
type AppendMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
}

// UpdateSessionRequest mirrors the session's terminal state and metadata.
type UpdateSessionRequest struct {
	SessionID string                `json:"session_id"`
	EndTime   *time.Time            `json:"end_time,omitempty"`
	Metadata  types.SessionMetadata `json:"metadata"`
}

// UpdateSessionResponse reports whether the update was accepted.
type UpdateSessionResponse struct {
	Success bool `json:"success"`
}

// DeleteSessionResponse reports whether the delete was accepted.
type DeleteSessionResponse struct {
	Success bool `json:"success"`
}

// fetchSessionResponse is the loosely-typed wire shape of a fetched session.
// It is validated and converted before anything downstream sees it.
type fetchSessionResponse struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
	Messages  []types.Message `json:"messages"`
}

// CreateSession registers a new session for the user and returns the
// server-assigned canonical id.
func (c *Client) CreateSession(ctx context.Context, userID string) (*CreateSessionResponse, error) {
	req := CreateSessionRequest{UserID: userID}

	var resp CreateSessionResponse
	if err := c.httpClient.Post(ctx, "/api/v1/chat/sessions", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrRemoteUnavailable, err)
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("%w: create session returned empty session id", ErrRemoteUnavailable)
	}

	return &resp, nil
}

// AppendMessage mirrors one message append.
func (c *Client) AppendMessage(ctx context.Context, sessionID string, msg types.Message) error {
	req := AppendMessageRequest{SessionID: sessionID, Message: msg}

	var resp AppendMessageResponse
	path := "/api/v1/chat/sessions/" + sessionID + "/messages"
	if err := c.httpClient.Post(ctx, path, req, &resp); err != nil {
		return fmt.Errorf("%w: append message: %v", ErrRemoteUnavailable, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: append message rejected", ErrRemoteUnavailable)
	}

	return nil
}

// FetchSession retrieves a session by id and validates it into a well-typed
// Session. Metadata is refolded from the fetched messages; the remote is
// never trusted for derived state.
func (c *Client) FetchSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var resp fetchSessionResponse
	if err := c.httpClient.Get(ctx, "/api/v1/chat/sessions/"+sessionID, &resp); err != nil {
		return nil, fmt.Errorf("%w: fetch session: %v", ErrRemoteUnavailable, err)
	}

	return validateRemoteSession(&resp)
}

// UpdateSession mirrors the session's end time and metadata.
func (c *Client) UpdateSession(ctx context.Context, s *types.Session) error {
	req := UpdateSessionRequest{
		SessionID: s.SessionID,
		EndTime:   s.EndTime,
		Metadata:  s.Metadata,
	}

	var resp UpdateSessionResponse
	if err := c.httpClient.Put(ctx, "/api/v1/chat/sessions/"+s.SessionID, req, &resp); err != nil {
		return fmt.Errorf("%w: update session: %v", ErrRemoteUnavailable, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: update session rejected", ErrRemoteUnavailable)
	}

	return nil
}

// DeleteSession removes the session from the remote mirror.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	var resp DeleteSessionResponse
	if err := c.httpClient.Delete(ctx, "/api/v1/chat/sessions/"+sessionID, &resp); err != nil {
		return fmt.Errorf("%w: delete session: %v", ErrRemoteUnavailable, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: delete session rejected", ErrRemoteUnavailable)
	}

	return nil
}

// validateRemoteSession converts a fetched payload into a Session, rejecting
// malformed shapes so they never propagate into the aggregator.
func validateRemoteSession(resp *fetchSessionResponse) (*types.Session, error) {
	if resp.SessionID == "" {
		return nil, fmt.Errorf("%w: fetched session has empty session id", ErrRemoteUnavailable)
	}
	if resp.UserID == "" {
		return nil, fmt.Errorf("%w: fetched session has empty user id", ErrRemoteUnavailable)
	}
	if resp.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: fetched session has no start time", ErrRemoteUnavailable)
	}
	if resp.EndTime != nil && resp.EndTime.Before(resp.StartTime) {
		return nil, fmt.Errorf("%w: fetched session ends before it starts", ErrRemoteUnavailable)
	}

	s := &types.Session{
		SessionID: resp.SessionID,
		UserID:    resp.UserID,
		StartTime: resp.StartTime,
		EndTime:   resp.EndTime,
		Messages:  make([]types.Message, 0, len(resp.Messages)),
		Metadata:  types.SessionMetadata{},
	}

	for i, msg := range resp.Messages {
		if msg.ID == "" {
			return nil, fmt.Errorf("%w: fetched message %d has empty id", ErrRemoteUnavailable, i)
		}
		if !msg.Sender.Valid() {
			return nil, fmt.Errorf("%w: fetched message %d has unknown sender %q", ErrRemoteUnavailable, i, msg.Sender)
		}
		if msg.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: fetched message %d has no timestamp", ErrRemoteUnavailable, i)
		}
		s.Messages = append(s.Messages, msg)
		s.Metadata = session.FoldMessage(s.Metadata, msg)
	}

	return s, nil
}
