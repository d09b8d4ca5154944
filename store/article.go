package store

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"ai_article_studio/gateway"
	"ai_article_studio/render"
)

// ErrNoArticle is reported when a regeneration is requested before any
// article has been generated.
var ErrNoArticle = errors.New("no generated article to regenerate")

// ArticleGateway is the part of the gateway the article store needs.
type ArticleGateway interface {
	GenerateArticle(ctx context.Context, params gateway.GenerateParams) (gateway.ArticleResult, error)
	RegenerateEngagingText(ctx context.Context, params gateway.RegenerateParams) (string, error)
	RegeneratePerex(ctx context.Context, params gateway.RegenerateParams) (string, error)
	RegenerateBody(ctx context.Context, params gateway.RegenerateParams) (string, error)
	RegenerateSuggestions(ctx context.Context, params gateway.RegenerateHeadlinesParams) ([]string, error)
}

// GraphSpec is the chart metadata attached to an article. It is only
// meaningful when ArticleDraft.HasGraph is true.
type GraphSpec struct {
	Type       string
	Title      string
	XAxisLabel string
	YAxisLabel string
	Labels     []string
	Values     []float64
}

// ArticleDraft is an immutable view of the article store.
type ArticleDraft struct {
	URL              string
	SelectedTopic    string
	StormEnabled     bool
	Title            string
	TitleSuggestions []string
	EngagingText     string
	Perex            string
	Body             string
	Tags             []string
	ArticleID        int64
	HasGraph         bool
	Graph            GraphSpec
	StormSources     []string
	Loading          bool
	Error            bool
}

func (d ArticleDraft) clone() ArticleDraft {
	d.TitleSuggestions = cloneStrings(d.TitleSuggestions)
	d.Tags = cloneStrings(d.Tags)
	d.StormSources = cloneStrings(d.StormSources)
	d.Graph.Labels = cloneStrings(d.Graph.Labels)
	d.Graph.Values = cloneFloats(d.Graph.Values)
	return d
}

// request slots; a new fetch supersedes all of them, a regeneration only its own.
const (
	slotFetch     = "fetch_article"
	slotEngaging  = "regenerate_engaging_text"
	slotPerex     = "regenerate_perex"
	slotBody      = "regenerate_body"
	slotHeadlines = "regenerate_headlines"
)

type pendingRequest struct {
	gen    uint64
	cancel context.CancelFunc
}

// ArticleStore holds the article being drafted. Failed requests leave the
// previous content in place and raise the error flag.
type ArticleStore struct {
	gw     ArticleGateway
	logger *logrus.Logger

	mu      sync.Mutex
	state   ArticleDraft
	gen     uint64
	pending map[string]pendingRequest

	subs observers[ArticleDraft]
}

// NewArticleStore creates an empty article store backed by gw.
func NewArticleStore(gw ArticleGateway, opts ...Option) *ArticleStore {
	o := buildOptions(opts)
	return &ArticleStore{
		gw:     gw,
		logger: o.logger,
		state: ArticleDraft{
			TitleSuggestions: []string{},
			Tags:             []string{},
			StormSources:     []string{},
		},
		pending: make(map[string]pendingRequest),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *ArticleStore) Snapshot() ArticleDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Title returns the active headline.
func (s *ArticleStore) Title() string { return s.Snapshot().Title }

// TitleSuggestions returns a copy of the headline candidates.
func (s *ArticleStore) TitleSuggestions() []string { return s.Snapshot().TitleSuggestions }

// EngagingText returns the current engaging text.
func (s *ArticleStore) EngagingText() string { return s.Snapshot().EngagingText }

// Perex returns the current perex.
func (s *ArticleStore) Perex() string { return s.Snapshot().Perex }

// Body returns the current markdown body.
func (s *ArticleStore) Body() string { return s.Snapshot().Body }

// Tags returns a copy of the article tags.
func (s *ArticleStore) Tags() []string { return s.Snapshot().Tags }

// ArticleID returns the backend id of the article, or 0 before the first fetch.
func (s *ArticleStore) ArticleID() int64 { return s.Snapshot().ArticleID }

// HasGraph reports whether the article carries chart metadata.
func (s *ArticleStore) HasGraph() bool { return s.Snapshot().HasGraph }

// StormSources returns a copy of the research sources.
func (s *ArticleStore) StormSources() []string { return s.Snapshot().StormSources }

// Loading reports whether any request is in flight.
func (s *ArticleStore) Loading() bool { return s.Snapshot().Loading }

// Error reports whether the latest request failed.
func (s *ArticleStore) Error() bool { return s.Snapshot().Error }

// Graph returns the chart metadata and whether the current article has one.
func (s *ArticleStore) Graph() (GraphSpec, bool) {
	d := s.Snapshot()
	return d.Graph, d.HasGraph
}

// BodyHTML renders the current body as sanitized HTML.
func (s *ArticleStore) BodyHTML() (string, error) {
	return render.BodyHTML(s.Body())
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it.
func (s *ArticleStore) Subscribe(fn func(ArticleDraft)) func() {
	return s.subs.subscribe(fn)
}

// SelectTitle makes title the active headline. It reports false when title is
// not one of the current suggestions.
func (s *ArticleStore) SelectTitle(title string) bool {
	s.mu.Lock()
	for _, candidate := range s.state.TitleSuggestions {
		if candidate == title {
			s.state.Title = title
			s.subs.publish(s.state.clone(), s.mu.Unlock)
			return true
		}
	}
	s.mu.Unlock()
	return false
}

// begin registers a request in slot and applies prepare to the state. Must be
// called with s.mu held; the lock is released before returning.
func (s *ArticleStore) begin(ctx context.Context, slot string, prepare func(*ArticleDraft)) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	if slot == slotFetch {
		for key, p := range s.pending {
			p.cancel()
			delete(s.pending, key)
		}
	} else if p, ok := s.pending[slot]; ok {
		p.cancel()
	}

	s.gen++
	s.pending[slot] = pendingRequest{gen: s.gen, cancel: cancel}
	if prepare != nil {
		prepare(&s.state)
	}
	s.state.Error = false
	s.state.Loading = true
	s.subs.publish(s.state.clone(), s.mu.Unlock)
	return ctx, s.gen
}

// finish applies the outcome of the request gen in slot unless it has been
// superseded in the meantime. A successful fetch replaces the article, so
// regenerations still in flight for the previous one are cancelled and their
// results dropped.
func (s *ArticleStore) finish(slot string, gen uint64, err error, apply func(*ArticleDraft)) {
	log := s.logger.WithFields(logrus.Fields{
		"action":     slot,
		"generation": gen,
	})

	s.mu.Lock()
	p, ok := s.pending[slot]
	if !ok || p.gen != gen {
		s.mu.Unlock()
		log.Debug("discarding superseded article result")
		return
	}
	p.cancel()
	delete(s.pending, slot)

	if err != nil {
		log.WithError(err).Error("article request failed")
		s.state.Error = true
	} else {
		apply(&s.state)
		if slot == slotFetch {
			for key, other := range s.pending {
				other.cancel()
				delete(s.pending, key)
			}
		}
	}
	s.state.Loading = len(s.pending) > 0
	s.subs.publish(s.state.clone(), s.mu.Unlock)
}

// fail raises the error flag without issuing a request. Must be called with
// s.mu held; the lock is released before returning.
func (s *ArticleStore) fail(slot string, err error) {
	s.logger.WithField("action", slot).WithError(err).Error("article request rejected")
	s.state.Error = true
	s.subs.publish(s.state.clone(), s.mu.Unlock)
}

// FetchArticle generates a new article for selectedTopic. Storm sources are
// only taken from the reply when stormEnabled is set, and the chart metadata
// only when the backend flags one.
func (s *ArticleStore) FetchArticle(ctx context.Context, url, selectedTopic string, stormEnabled bool) {
	s.mu.Lock()
	ctx, gen := s.begin(ctx, slotFetch, func(d *ArticleDraft) {
		d.URL = url
		d.SelectedTopic = selectedTopic
		d.StormEnabled = stormEnabled
	})

	res, err := s.gw.GenerateArticle(ctx, gateway.GenerateParams{
		URL:           url,
		SelectedTopic: selectedTopic,
		Storm:         stormEnabled,
	})

	s.finish(slotFetch, gen, err, func(d *ArticleDraft) {
		art := res.Article
		d.ArticleID = res.ID
		d.TitleSuggestions = cloneStrings(art.Headlines)
		d.Title = firstOrEmpty(d.TitleSuggestions)
		d.EngagingText = art.EngagingText
		d.Perex = art.Perex
		d.Body = art.Body
		d.Tags = cloneStrings(art.Tags)
		d.HasGraph = art.GenGraph
		if art.GenGraph {
			d.Graph = GraphSpec{
				Type:       art.GraphType,
				Title:      art.GraphTitle,
				XAxisLabel: art.GraphAxisLabels.X,
				YAxisLabel: art.GraphAxisLabels.Y,
				Labels:     cloneStrings(art.GraphData.Labels),
				Values:     cloneFloats(art.GraphData.Values),
			}
		}
		if stormEnabled {
			d.StormSources = cloneStrings(res.StormURLs)
		} else {
			d.StormSources = []string{}
		}
	})
}

// RegenerateEngagingText replaces the engaging text with a new variant.
func (s *ArticleStore) RegenerateEngagingText(ctx context.Context) {
	s.regenerateText(ctx, slotEngaging, s.gw.RegenerateEngagingText,
		func(d ArticleDraft) string { return d.EngagingText },
		func(d *ArticleDraft, v string) { d.EngagingText = v })
}

// RegeneratePerex replaces the perex with a new variant.
func (s *ArticleStore) RegeneratePerex(ctx context.Context) {
	s.regenerateText(ctx, slotPerex, s.gw.RegeneratePerex,
		func(d ArticleDraft) string { return d.Perex },
		func(d *ArticleDraft, v string) { d.Perex = v })
}

// RegenerateBody replaces the article body with a new variant.
func (s *ArticleStore) RegenerateBody(ctx context.Context) {
	s.regenerateText(ctx, slotBody, s.gw.RegenerateBody,
		func(d ArticleDraft) string { return d.Body },
		func(d *ArticleDraft, v string) { d.Body = v })
}

type regenerateFunc func(context.Context, gateway.RegenerateParams) (string, error)

func (s *ArticleStore) regenerateText(ctx context.Context, slot string, call regenerateFunc, get func(ArticleDraft) string, set func(*ArticleDraft, string)) {
	s.mu.Lock()
	if s.state.ArticleID == 0 {
		s.fail(slot, ErrNoArticle)
		return
	}
	params := gateway.RegenerateParams{
		URL:             s.state.URL,
		ID:              s.state.ArticleID,
		SelectedTopic:   s.state.SelectedTopic,
		OldValue:        get(s.state),
		CurrentHeadline: s.state.Title,
	}
	ctx, gen := s.begin(ctx, slot, nil)

	value, err := call(ctx, params)

	s.finish(slot, gen, err, func(d *ArticleDraft) {
		set(d, value)
	})
}

// RegenerateSuggestions replaces the headline candidates and makes the first
// new one the active title.
func (s *ArticleStore) RegenerateSuggestions(ctx context.Context) {
	s.mu.Lock()
	if s.state.ArticleID == 0 {
		s.fail(slotHeadlines, ErrNoArticle)
		return
	}
	params := gateway.RegenerateHeadlinesParams{
		URL:           s.state.URL,
		ID:            s.state.ArticleID,
		SelectedTopic: s.state.SelectedTopic,
		OldHeadlines:  cloneStrings(s.state.TitleSuggestions),
	}
	ctx, gen := s.begin(ctx, slotHeadlines, nil)

	headlines, err := s.gw.RegenerateSuggestions(ctx, params)

	s.finish(slotHeadlines, gen, err, func(d *ArticleDraft) {
		d.TitleSuggestions = cloneStrings(headlines)
		d.Title = firstOrEmpty(d.TitleSuggestions)
	})
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
