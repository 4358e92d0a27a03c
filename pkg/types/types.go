package types

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether the sender is one of the known values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// Product is a catalog item attached to a bot message. Only Category feeds
// the session metadata; the rest of the record round-trips untouched.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Category      string   `json:"category"`
	Image         string   `json:"image,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Reviews       int      `json:"reviews,omitempty"`
	InStock       bool     `json:"inStock"`
	Tags          []string `json:"tags,omitempty"`
}

// Message is a single exchanged chat message.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Products  []Product `json:"products,omitempty"`
}

// SessionMetadata holds the aggregate counters derived from a session's
// message list. It is recomputed incrementally on every append and never
// stored independently of the session it describes.
type SessionMetadata struct {
	MessageCount        int      `json:"messageCount"`
	UserMessageCount    int      `json:"userMessageCount"`
	BotMessageCount     int      `json:"botMessageCount"`
	ProductInteractions int      `json:"productInteractions"`
	SearchQueries       []string `json:"searchQueries"`
	Categories          []string `json:"categories"`
}

// Session is one continuous user interaction from first message to explicit
// termination. EndTime is nil while the session is active and set exactly
// once; a session with EndTime set is immutable.
type Session struct {
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	Messages  []Message       `json:"messages"`
	Metadata  SessionMetadata `json:"metadata"`
}

// Ended reports whether the session has been terminated.
func (s *Session) Ended() bool {
	return s.EndTime != nil
}

// IndexEntry returns the lightweight summary stored in the session index.
func (s *Session) IndexEntry() SessionIndexEntry {
	return SessionIndexEntry{
		SessionID:    s.SessionID,
		UserID:       s.UserID,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		MessageCount: s.Metadata.MessageCount,
	}
}

// Clone returns a deep copy of the session. Callers receive clones so that
// the manager's current session can never be mutated from outside.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m
		if len(m.Products) > 0 {
			out.Messages[i].Products = append([]Product(nil), m.Products...)
		}
	}
	out.Metadata.SearchQueries = append([]string(nil), s.Metadata.SearchQueries...)
	out.Metadata.Categories = append([]string(nil), s.Metadata.Categories...)
	return &out
}

// SessionIndexEntry is a summary row in the session index, used to enumerate
// sessions without loading full message bodies.
type SessionIndexEntry struct {
	SessionID    string     `json:"sessionId"`
	UserID       string     `json:"userId"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	MessageCount int        `json:"messageCount"`
}

// TermCount is one ranked search term.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// CategoryCount is one ranked product category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Engagement summarizes per-session user activity rates.
type Engagement struct {
	AverageMessagesPerSession float64 `json:"averageMessagesPerSession"`
	AverageSessionDuration    float64 `json:"averageSessionDuration"`
	ProductClickRate          float64 `json:"productClickRate"`
}

// Analytics is the derived report over all stored sessions. It is computed
// on demand and never persisted.
type Analytics struct {
	TotalSessions        int             `json:"totalSessions"`
	TotalMessages        int             `json:"totalMessages"`
	AverageSessionLength float64         `json:"averageSessionLength"`
	PopularSearchTerms   []TermCount     `json:"popularSearchTerms"`
	PopularCategories    []CategoryCount `json:"popularCategories"`
	UserEngagement       Engagement      `json:"userEngagement"`
}
