package store

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"ai_article_studio/gateway"
)

// TopicsGateway is the part of the gateway the topics store needs.
type TopicsGateway interface {
	DiscoverTopics(ctx context.Context, url string) (gateway.TopicsResult, error)
}

// TopicSet is an immutable view of the topics store.
type TopicSet struct {
	URL     string
	Topics  []string
	Loading bool
	Error   bool
}

func (t TopicSet) clone() TopicSet {
	t.Topics = cloneStrings(t.Topics)
	return t
}

// TopicsStore holds the topics discovered for the most recently requested url.
type TopicsStore struct {
	gw     TopicsGateway
	logger *logrus.Logger

	mu     sync.Mutex
	state  TopicSet
	gen    uint64
	cancel context.CancelFunc

	subs observers[TopicSet]
}

// NewTopicsStore creates an empty topics store backed by gw.
func NewTopicsStore(gw TopicsGateway, opts ...Option) *TopicsStore {
	o := buildOptions(opts)
	return &TopicsStore{
		gw:     gw,
		logger: o.logger,
		state:  TopicSet{Topics: []string{}},
	}
}

// Snapshot returns a copy of the current state.
func (s *TopicsStore) Snapshot() TopicSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Topics returns a copy of the discovered topics.
func (s *TopicsStore) Topics() []string { return s.Snapshot().Topics }

// URL returns the url of the latest fetch.
func (s *TopicsStore) URL() string { return s.Snapshot().URL }

// Loading reports whether a fetch is in flight.
func (s *TopicsStore) Loading() bool { return s.Snapshot().Loading }

// Error reports whether the latest fetch failed.
func (s *TopicsStore) Error() bool { return s.Snapshot().Error }

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it.
func (s *TopicsStore) Subscribe(fn func(TopicSet)) func() {
	return s.subs.subscribe(fn)
}

// FetchTopics replaces the topic set with the topics discovered at url. The
// previous topics are dropped as soon as the fetch starts. A newer call
// cancels this one and its result is discarded.
func (s *TopicsStore) FetchTopics(ctx context.Context, url string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.state = TopicSet{URL: url, Topics: []string{}, Loading: true}
	s.subs.publish(s.state.clone(), s.mu.Unlock)

	res, err := s.gw.DiscoverTopics(ctx, url)

	log := s.logger.WithFields(logrus.Fields{
		"action":     "fetch_topics",
		"url":        url,
		"generation": gen,
	})

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		log.Debug("discarding superseded topics result")
		return
	}
	s.cancel = nil
	if err != nil {
		log.WithError(err).Error("fetching topics failed")
		s.state.Error = true
	} else {
		s.state.Topics = cloneStrings(res.Topics)
	}
	s.state.Loading = false
	s.subs.publish(s.state.clone(), s.mu.Unlock)
}
