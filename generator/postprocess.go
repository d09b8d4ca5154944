package generator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	errEmptyReply = errors.New("model returned an empty reply")
	listMarker    = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
)

// extractJSON pulls the outermost JSON object out of a reply, tolerating code
// fences and chatter around it.
func extractJSON(raw string) (gjson.Result, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return gjson.Result{}, errEmptyReply
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return gjson.Result{}, errors.New("model reply contains no JSON object")
	}
	s = s[start : end+1]
	if !gjson.Valid(s) {
		return gjson.Result{}, errors.New("model reply is not valid JSON")
	}
	return gjson.Parse(s), nil
}

// ParseTopics reads {"topics": [...]}. A reply without JSON is split into
// lines, which is how plain chat models tend to answer.
func ParseTopics(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errEmptyReply
	}
	if res, err := extractJSON(raw); err == nil && res.Get("topics").IsArray() {
		return cleanList(res.Get("topics").Array()), nil
	}

	var topics []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			topics = append(topics, line)
		}
	}
	return topics, nil
}

// ParseDraft validates a generated article. Headlines and a body are
// required; everything else may be missing.
func ParseDraft(raw string) (Draft, error) {
	res, err := extractJSON(raw)
	if err != nil {
		return Draft{}, err
	}

	draft := Draft{
		Headlines:    cleanList(res.Get("headlines").Array()),
		EngagingText: strings.TrimSpace(res.Get("engaging_text").String()),
		Perex:        strings.TrimSpace(res.Get("perex").String()),
		Body:         strings.TrimSpace(res.Get("article").String()),
		Tags:         cleanList(res.Get("tags").Array()),
	}
	if len(draft.Headlines) == 0 {
		return Draft{}, errors.New("model reply has no headlines")
	}
	if draft.Body == "" {
		return Draft{}, errors.New("model reply has no article body")
	}

	if res.Get("gen_graph").Bool() {
		g := &Graph{
			Type:   res.Get("graph_type").String(),
			Title:  res.Get("graph_title").String(),
			XAxis:  res.Get("graph_axis_labels.x_axis").String(),
			YAxis:  res.Get("graph_axis_labels.y_axis").String(),
			Labels: cleanList(res.Get("graph_data.labels").Array()),
		}
		for _, v := range res.Get("graph_data.values").Array() {
			g.Values = append(g.Values, v.Float())
		}
		// a chart with mismatched series is dropped rather than half-drawn
		if len(g.Labels) > 0 && len(g.Labels) == len(g.Values) {
			draft.Graph = g
		}
	}
	return draft, nil
}

// ParseField reads a regenerated text field.
func ParseField(raw string, field Field) (string, error) {
	res, err := extractJSON(raw)
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(res.Get(string(field)).String())
	if v == "" {
		return "", errors.New("model reply is missing " + string(field))
	}
	return v, nil
}

// ParseHeadlines reads a regenerated headline list.
func ParseHeadlines(raw string) ([]string, error) {
	res, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	headlines := cleanList(res.Get("headlines").Array())
	if len(headlines) == 0 {
		return nil, errors.New("model reply has no headlines")
	}
	return headlines, nil
}

func cleanList(items []gjson.Result) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
