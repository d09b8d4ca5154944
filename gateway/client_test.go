package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, srv.Client(), quietLogger())
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("article-backend", nil, nil)
	assert.Error(t, err)

	c, err := New("http://localhost:8000/api", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/", c.BaseURL())
}

func TestDiscoverTopics_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/article/topics", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		assert.Equal(t, map[string]any{"url": "https://example.com/a"}, decodeBody(t, r))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"topics":["Economy","Sports"]}`))
	})

	res, err := c.DiscoverTopics(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Economy", "Sports"}, res.Topics)
}

func TestDiscoverTopics_EmptyURLIsSent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, map[string]any{"url": ""}, decodeBody(t, r))
		_, _ = w.Write([]byte(`{"topics":[]}`))
	})

	res, err := c.DiscoverTopics(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, res.Topics)
}

func TestDiscoverTopics_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"scrape failed"}`, http.StatusBadRequest)
	})

	_, err := c.DiscoverTopics(context.Background(), "https://example.com/a")
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Equal(t, topicsEndpoint, te.Endpoint)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "scrape failed")
}

func TestDiscoverTopics_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"topics": [`))
	})

	_, err := c.DiscoverTopics(context.Background(), "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedBody)
	assert.True(t, IsTransportError(err))
}

func TestDiscoverTopics_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url, nil, quietLogger())
	require.NoError(t, err)

	_, err = c.DiscoverTopics(context.Background(), "u")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}

func TestGenerateArticle_FullPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/article/generate", r.URL.Path)
		assert.Equal(t, map[string]any{
			"url":            "u",
			"selected_topic": "Economy",
			"storm":          true,
		}, decodeBody(t, r))

		_, _ = w.Write([]byte(`{
			"id": 7,
			"article": {
				"headlines": ["H1", "H2"],
				"engaging_text": "E",
				"perex": "P",
				"article": "Body",
				"tags": ["t"],
				"gen_graph": true,
				"graph_type": "bar",
				"graph_title": "GDP",
				"graph_axis_labels": {"x_axis": "Year", "y_axis": "Bn"},
				"graph_data": {"labels": ["2023", "2024"], "values": [1.5, 2]}
			},
			"storm_urls": ["https://a.example", "https://b.example"]
		}`))
	})

	res, err := c.GenerateArticle(context.Background(), GenerateParams{URL: "u", SelectedTopic: "Economy", Storm: true})
	require.NoError(t, err)

	assert.Equal(t, int64(7), res.ID)
	assert.Equal(t, []string{"H1", "H2"}, res.Article.Headlines)
	assert.Equal(t, "E", res.Article.EngagingText)
	assert.Equal(t, "P", res.Article.Perex)
	assert.Equal(t, "Body", res.Article.Body)
	assert.Equal(t, []string{"t"}, res.Article.Tags)
	assert.True(t, res.Article.GenGraph)
	assert.Equal(t, "bar", res.Article.GraphType)
	assert.Equal(t, "GDP", res.Article.GraphTitle)
	assert.Equal(t, AxisLabels{X: "Year", Y: "Bn"}, res.Article.GraphAxisLabels)
	assert.Equal(t, []string{"2023", "2024"}, res.Article.GraphData.Labels)
	assert.Equal(t, []float64{1.5, 2}, res.Article.GraphData.Values)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, res.StormURLs)
}

func TestGenerateArticle_MissingFieldsReadAsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 3, "article": {"headlines": ["Only"]}}`))
	})

	res, err := c.GenerateArticle(context.Background(), GenerateParams{URL: "u"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.ID)
	assert.Equal(t, []string{"Only"}, res.Article.Headlines)
	assert.Empty(t, res.Article.Perex)
	assert.Nil(t, res.Article.Tags)
	assert.False(t, res.Article.GenGraph)
	assert.Nil(t, res.StormURLs)
}

func TestRegenerate_FieldEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		oldKey   string
		reply    string
		call     func(*Client, RegenerateParams) (string, error)
		expected string
	}{
		{
			name:     "engaging text",
			path:     "/regenerate/engaging_text",
			oldKey:   "old_engaging_text",
			reply:    `{"engaging_text":"new E"}`,
			call:     func(c *Client, p RegenerateParams) (string, error) { return c.RegenerateEngagingText(context.Background(), p) },
			expected: "new E",
		},
		{
			name:     "perex",
			path:     "/regenerate/perex",
			oldKey:   "old_perex",
			reply:    `{"perex":"new P"}`,
			call:     func(c *Client, p RegenerateParams) (string, error) { return c.RegeneratePerex(context.Background(), p) },
			expected: "new P",
		},
		{
			name:     "body",
			path:     "/regenerate/articlebody",
			oldKey:   "old_article_body",
			reply:    `{"article":"new body"}`,
			call:     func(c *Client, p RegenerateParams) (string, error) { return c.RegenerateBody(context.Background(), p) },
			expected: "new body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				body := decodeBody(t, r)
				assert.Equal(t, "u", body["url"])
				assert.Equal(t, float64(7), body["id"])
				assert.Equal(t, "Economy", body["selected_topic"])
				assert.Equal(t, "old", body[tt.oldKey])
				assert.Equal(t, "H1", body["current_headline"])
				_, _ = w.Write([]byte(tt.reply))
			})

			got, err := tt.call(c, RegenerateParams{
				URL:             "u",
				ID:              7,
				SelectedTopic:   "Economy",
				OldValue:        "old",
				CurrentHeadline: "H1",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRegenerateSuggestions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/regenerate/headlines", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, []any{"H1", "H2"}, body["old_headlines"])
		_, _ = w.Write([]byte(`{"headlines":["N1","N2","N3"]}`))
	})

	got, err := c.RegenerateSuggestions(context.Background(), RegenerateHeadlinesParams{
		URL:          "u",
		ID:           7,
		OldHeadlines: []string{"H1", "H2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"N1", "N2", "N3"}, got)
}

func TestRegenerateSuggestions_NilOldHeadlinesSentAsEmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, []any{}, body["old_headlines"])
		_, _ = w.Write([]byte(`{"headlines":[]}`))
	})

	_, err := c.RegenerateSuggestions(context.Background(), RegenerateHeadlinesParams{URL: "u", ID: 1})
	require.NoError(t, err)
}

func TestCheckGrammar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check-grammar", r.URL.Path)
		assert.Equal(t, map[string]any{"text": "to je je test", "language": "sk"}, decodeBody(t, r))
		_, _ = w.Write([]byte(`{"issues":[{
			"message": "Repeated word",
			"offset": 3,
			"length": 5,
			"replacements": ["je"],
			"rule_id": "WORD_REPEAT_RULE",
			"context": {"text": "to je je test", "offset": 3}
		}]}`))
	})

	issues, err := c.CheckGrammar(context.Background(), "to je je test", "")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, GrammarIssue{
		Message:       "Repeated word",
		Offset:        3,
		Length:        5,
		Replacements:  []string{"je"},
		RuleID:        "WORD_REPEAT_RULE",
		Context:       "to je je test",
		ContextOffset: 3,
	}, issues[0])
}

func TestPost_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.DiscoverTopics(ctx, "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
