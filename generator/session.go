package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Session holds one generated article and its regeneration history.
type Session struct {
	ID     int64
	Source Source
	Topic  string
	Storm  bool

	mu      sync.Mutex
	draft   Draft
	history []Turn
	agent   *Agent
}

// NewSession creates a session; no draft exists until Propose succeeds.
func NewSession(id int64, src Source, topic string, storm bool, agent *Agent) *Session {
	return &Session{
		ID:     id,
		Source: src,
		Topic:  topic,
		Storm:  storm,
		agent:  agent,
	}
}

// Propose generates the first draft.
func (s *Session) Propose(ctx context.Context) (Draft, error) {
	draft, err := s.agent.Generate(ctx, s.Source, s.Topic, s.Storm)
	if err != nil {
		return Draft{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draft
	return draft, nil
}

// Draft returns the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// History returns the regenerations made so far, oldest first.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

// RegenerateText replaces one text field. old is what the caller currently
// shows, which may differ from the stored draft after local edits.
func (s *Session) RegenerateText(ctx context.Context, field Field, old, currentHeadline string) (string, error) {
	if field == FieldHeadlines {
		return "", fmt.Errorf("use RegenerateHeadlines for %s", field)
	}
	value, err := s.agent.RegenerateText(ctx, s.Source, s.Topic, field, old, currentHeadline)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch field {
	case FieldEngagingText:
		s.draft.EngagingText = value
	case FieldPerex:
		s.draft.Perex = value
	case FieldBody:
		s.draft.Body = value
	}
	s.appendTurn(field, old)
	return value, nil
}

// RegenerateHeadlines replaces the headline candidates.
func (s *Session) RegenerateHeadlines(ctx context.Context, old []string) ([]string, error) {
	headlines, err := s.agent.RegenerateHeadlines(ctx, s.Source, s.Topic, old)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Headlines = headlines
	s.appendTurn(FieldHeadlines, joinLines(old))
	return headlines, nil
}

func (s *Session) appendTurn(field Field, previous string) {
	s.history = append(s.history, Turn{
		Field:     field,
		Previous:  previous,
		CreatedAt: time.Now(),
	})
}

func joinLines(items []string) string {
	return strings.Join(items, "\n")
}
