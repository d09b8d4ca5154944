package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ai_article_studio/generator"
)

const generationTimeout = 90 * time.Second

// Server is a local preview backend that speaks the same wire contract as the
// production article service, backed by generator.Agent.
type Server struct {
	genAgent *generator.Agent
	fetcher  *http.Client
	logger   *logrus.Logger
	sources  *sourceCache
	store    *sessionStore
}

// sessionStore keeps every generated article for the life of the process.
// Nothing is evicted; the preview backend is meant for local, short-lived runs.
type sessionStore struct {
	mu       sync.Mutex
	lastID   int64
	sessions map[int64]*generator.Session
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*generator.Session)}
}

func (s *sessionStore) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	return s.lastID
}

func (s *sessionStore) set(sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *sessionStore) get(id int64) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// New creates a Server. fetcher downloads source pages; nil uses a client with
// a 30 second timeout.
func New(genAgent *generator.Agent, fetcher *http.Client, logger *logrus.Logger) (*Server, error) {
	if genAgent == nil {
		return nil, errors.New("generator agent required")
	}
	if fetcher == nil {
		fetcher = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		genAgent: genAgent,
		fetcher:  fetcher,
		logger:   logger,
		sources:  newSourceCache(),
		store:    newStore(),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/article/topics", postOnly(s.handleTopics))
	mux.HandleFunc("/article/generate", postOnly(s.handleGenerate))
	mux.HandleFunc("/regenerate/engaging_text", postOnly(s.handleRegenerateText(generator.FieldEngagingText)))
	mux.HandleFunc("/regenerate/perex", postOnly(s.handleRegenerateText(generator.FieldPerex)))
	mux.HandleFunc("/regenerate/articlebody", postOnly(s.handleRegenerateText(generator.FieldBody)))
	mux.HandleFunc("/regenerate/headlines", postOnly(s.handleRegenerateHeadlines))
	mux.HandleFunc("/check-grammar", postOnly(s.handleCheckGrammar))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logMiddleware(mux)
}

// --- Handlers ---

type topicsReq struct {
	URL string `json:"url"`
}

type topicsResp struct {
	Topics []string `json:"topics"`
}

type generateReq struct {
	URL           string `json:"url"`
	SelectedTopic string `json:"selected_topic"`
	Storm         bool   `json:"storm"`
}

type axisLabels struct {
	X string `json:"x_axis"`
	Y string `json:"y_axis"`
}

type graphData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type articlePayload struct {
	Headlines       []string    `json:"headlines"`
	EngagingText    string      `json:"engaging_text"`
	Perex           string      `json:"perex"`
	Article         string      `json:"article"`
	Tags            []string    `json:"tags"`
	GenGraph        bool        `json:"gen_graph"`
	GraphType       string      `json:"graph_type,omitempty"`
	GraphTitle      string      `json:"graph_title,omitempty"`
	GraphAxisLabels *axisLabels `json:"graph_axis_labels,omitempty"`
	GraphData       *graphData  `json:"graph_data,omitempty"`
}

type generateResp struct {
	ID        int64          `json:"id"`
	Article   articlePayload `json:"article"`
	StormURLs []string       `json:"storm_urls,omitempty"`
}

type regenerateReq struct {
	URL             string   `json:"url"`
	ID              int64    `json:"id"`
	SelectedTopic   string   `json:"selected_topic"`
	OldEngagingText string   `json:"old_engaging_text"`
	OldPerex        string   `json:"old_perex"`
	OldArticleBody  string   `json:"old_article_body"`
	CurrentHeadline string   `json:"current_headline"`
	OldHeadlines    []string `json:"old_headlines"`
}

func (r regenerateReq) old(field generator.Field) string {
	switch field {
	case generator.FieldPerex:
		return r.OldPerex
	case generator.FieldBody:
		return r.OldArticleBody
	default:
		return r.OldEngagingText
	}
}

type grammarReq struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type grammarResp struct {
	Issues []grammarIssue `json:"issues"`
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	var req topicsReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	src, err := s.source(ctx, req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	topics, err := s.genAgent.Topics(ctx, src)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResp{Topics: topics})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	src, err := s.source(ctx, req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := generator.NewSession(s.store.nextID(), src, req.SelectedTopic, req.Storm, s.genAgent)
	draft, err := sess.Propose(ctx)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.store.set(sess)

	resp := generateResp{ID: sess.ID, Article: toPayload(draft)}
	if req.Storm {
		resp.StormURLs = append([]string{src.URL}, src.Links...)
	}
	s.logger.WithFields(logrus.Fields{
		"article_id": sess.ID,
		"topic":      req.SelectedTopic,
		"storm":      req.Storm,
	}).Info("article generated")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegenerateText(field generator.Field) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req regenerateReq
		if !decode(w, r, &req) {
			return
		}
		sess, ok := s.store.get(req.ID)
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("article not found"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
		defer cancel()

		value, err := sess.RegenerateText(ctx, field, req.old(field), req.CurrentHeadline)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{string(field): value})
	}
}

func (s *Server) handleRegenerateHeadlines(w http.ResponseWriter, r *http.Request) {
	var req regenerateReq
	if !decode(w, r, &req) {
		return
	}
	sess, ok := s.store.get(req.ID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("article not found"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()

	headlines, err := sess.RegenerateHeadlines(ctx, req.OldHeadlines)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"headlines": headlines})
}

func (s *Server) handleCheckGrammar(w http.ResponseWriter, r *http.Request) {
	var req grammarReq
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, grammarResp{Issues: checkGrammar(req.Text)})
}

// source returns the cached page for u, scraping it on first use.
func (s *Server) source(ctx context.Context, u string) (generator.Source, error) {
	if src, ok := s.sources.get(u); ok {
		return src, nil
	}
	src, err := fetchSource(ctx, s.fetcher, u)
	if err != nil {
		return generator.Source{}, err
	}
	s.sources.set(u, src)
	return src, nil
}

func toPayload(d generator.Draft) articlePayload {
	p := articlePayload{
		Headlines:    nonNil(d.Headlines),
		EngagingText: d.EngagingText,
		Perex:        d.Perex,
		Article:      d.Body,
		Tags:         nonNil(d.Tags),
	}
	if g := d.Graph; g != nil {
		p.GenGraph = true
		p.GraphType = g.Type
		p.GraphTitle = g.Title
		p.GraphAxisLabels = &axisLabels{X: g.XAxis, Y: g.YAxis}
		p.GraphData = &graphData{Labels: g.Labels, Values: g.Values}
	}
	return p
}

// --- Helpers ---

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		next(w, r)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"request_id":  r.Header.Get("X-Request-ID"),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	})
}
