package generator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type stubLLM struct {
	reply   string
	err     error
	prompts []Prompt
}

func (s *stubLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

var testSource = Source{
	URL:   "https://example.com/a",
	Title: "Budget approved",
	Text:  "Parliament approved the budget on Monday. The deficit falls to 3 percent. Opposition criticised the plan.",
	Links: []string{"https://example.com/b", "https://example.com/c"},
}

func TestNewAgent_RequiresLLM(t *testing.T) {
	_, err := NewAgent(nil)
	assert.Error(t, err)
}

func TestParseTopics(t *testing.T) {
	topics, err := ParseTopics("```json\n{\"topics\": [\"Economy\", \" \", \"Sports\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"Economy", "Sports"}, topics)

	topics, err = ParseTopics("1. Economy\n- Sports\n\n2024 elections")
	require.NoError(t, err)
	assert.Equal(t, []string{"Economy", "Sports", "2024 elections"}, topics)

	_, err = ParseTopics("  ")
	assert.Error(t, err)
}

func TestParseDraft(t *testing.T) {
	draft, err := ParseDraft(`Sure! {
		"headlines": ["H1", "H2"],
		"engaging_text": "E",
		"perex": "P",
		"article": "Body",
		"tags": ["t"],
		"gen_graph": true,
		"graph_type": "bar",
		"graph_title": "Deficit",
		"graph_axis_labels": {"x_axis": "Year", "y_axis": "%"},
		"graph_data": {"labels": ["2024", "2025"], "values": [4.1, 3]}
	}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"H1", "H2"}, draft.Headlines)
	assert.Equal(t, "Body", draft.Body)
	require.NotNil(t, draft.Graph)
	assert.Equal(t, Graph{
		Type:   "bar",
		Title:  "Deficit",
		XAxis:  "Year",
		YAxis:  "%",
		Labels: []string{"2024", "2025"},
		Values: []float64{4.1, 3},
	}, *draft.Graph)
}

func TestParseDraft_DropsMismatchedGraph(t *testing.T) {
	draft, err := ParseDraft(`{"headlines":["H"],"article":"B","gen_graph":true,"graph_data":{"labels":["a","b"],"values":[1]}}`)
	require.NoError(t, err)
	assert.Nil(t, draft.Graph)
}

func TestParseDraft_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		`{"headlines": [], "article": "B"}`,
		`{"headlines": ["H"]}`,
		`{"headlines": ["H"], "article": `,
	} {
		_, err := ParseDraft(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseField(t *testing.T) {
	v, err := ParseField(`{"perex": " New perex "}`, FieldPerex)
	require.NoError(t, err)
	assert.Equal(t, "New perex", v)

	_, err = ParseField(`{"perex": ""}`, FieldPerex)
	assert.Error(t, err)
}

func TestBuildArticlePrompt_StormListsSources(t *testing.T) {
	p := BuildArticlePrompt(testSource, "Budget", true)
	assert.Equal(t, KindArticle, p.Kind)
	assert.Contains(t, p.User, "Selected topic: Budget")
	assert.Contains(t, p.User, "https://example.com/b")

	p = BuildArticlePrompt(testSource, "Budget", false)
	assert.NotContains(t, p.User, "https://example.com/b")
}

func TestBuildRegeneratePrompt_KeepsOldValueInHistory(t *testing.T) {
	p := BuildRegeneratePrompt(testSource, "Budget", FieldPerex, "old perex", "H1")
	assert.Equal(t, FieldPerex, p.Field)
	assert.Contains(t, p.User, "Current headline: H1")
	require.Len(t, p.History, 1)
	assert.Equal(t, Message{Role: "assistant", Content: "old perex"}, p.History[0])
}

func TestAgent_PropagatesLLMError(t *testing.T) {
	llm := &stubLLM{err: errors.New("rate limited")}
	agent, err := NewAgent(llm)
	require.NoError(t, err)

	_, err = agent.Generate(context.Background(), testSource, "Budget", false)
	assert.EqualError(t, err, "rate limited")
}

func TestMockLLM_EndToEnd(t *testing.T) {
	agent, err := NewAgent(MockLLM{})
	require.NoError(t, err)
	ctx := context.Background()

	topics, err := agent.Topics(ctx, testSource)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Parliament approved the budget on Monday.",
		"The deficit falls to 3 percent.",
		"Opposition criticised the plan.",
	}, topics)

	sess := NewSession(1, testSource, "Budget", false, agent)
	draft, err := sess.Propose(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Budget: what happened", draft.Headlines[0])
	assert.Contains(t, draft.Body, "The deficit falls to 3 percent.")
	assert.Nil(t, draft.Graph)

	perex, err := sess.RegenerateText(ctx, FieldPerex, draft.Perex, draft.Headlines[0])
	require.NoError(t, err)
	assert.Equal(t, perex, sess.Draft().Perex)

	headlines, err := sess.RegenerateHeadlines(ctx, draft.Headlines)
	require.NoError(t, err)
	assert.Equal(t, "Budget, take 4", headlines[0])
	assert.Equal(t, headlines, sess.Draft().Headlines)

	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, FieldPerex, history[0].Field)
	assert.Equal(t, draft.Perex, history[0].Previous)
	assert.Equal(t, FieldHeadlines, history[1].Field)
}

func TestSession_RegenerateTextRejectsHeadlines(t *testing.T) {
	agent, err := NewAgent(MockLLM{})
	require.NoError(t, err)
	sess := NewSession(1, testSource, "Budget", false, agent)

	_, err = sess.RegenerateText(context.Background(), FieldHeadlines, "", "")
	assert.Error(t, err)
}

func TestNewOpenAILLMFromConfig_Validates(t *testing.T) {
	_, err := NewOpenAILLMFromConfig(nil)
	assert.Error(t, err)
	_, err = NewOpenAILLMFromConfig(&LLMSettings{Model: "gpt-4o-mini"})
	assert.Error(t, err)
	_, err = NewOpenAILLMFromConfig(&LLMSettings{APIKey: "k"})
	assert.Error(t, err)
}

func TestOpenAILLM_Complete(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": " {\"perex\": \"New perex\"} "}}]
		}`)
	}))
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	prompt := BuildRegeneratePrompt(testSource, "Budget", FieldPerex, "old perex", "H1")
	reply, err := llm.Complete(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, `{"perex": "New perex"}`, reply)

	assert.Equal(t, "json_object", gjson.Get(body, "response_format.type").String())
	msgs := gjson.Get(body, "messages").Array()
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "assistant", msgs[1].Get("role").String())
	assert.Equal(t, "old perex", msgs[1].Get("content").String())
	assert.Equal(t, "user", msgs[2].Get("role").String())
}
