package gateway

import "context"

// GrammarIssue is a single finding of the grammar checker. Offset and Length
// index into the submitted text.
type GrammarIssue struct {
	Message       string
	Offset        int
	Length        int
	Replacements  []string
	RuleID        string
	Context       string
	ContextOffset int
}

type grammarRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// CheckGrammar submits text to the backend grammar checker. An empty language
// selects Slovak, the backend's default.
func (c *Client) CheckGrammar(ctx context.Context, text, language string) ([]GrammarIssue, error) {
	if language == "" {
		language = defaultGrammarLanguage
	}
	body, err := c.post(ctx, "check_grammar", grammarEndpoint, grammarRequest{Text: text, Language: language})
	if err != nil {
		return nil, err
	}

	items := body.Get("issues").Array()
	issues := make([]GrammarIssue, 0, len(items))
	for _, item := range items {
		issues = append(issues, GrammarIssue{
			Message:       item.Get("message").String(),
			Offset:        int(item.Get("offset").Int()),
			Length:        int(item.Get("length").Int()),
			Replacements:  stringsAt(item, "replacements"),
			RuleID:        item.Get("rule_id").String(),
			Context:       item.Get("context.text").String(),
			ContextOffset: int(item.Get("context.offset").Int()),
		})
	}
	return issues, nil
}
