package gateway

import "context"

// RegenerateParams carry the context the backend needs to produce a variant of
// a single text field. OldValue is the field's current content.
type RegenerateParams struct {
	URL             string
	ID              int64
	SelectedTopic   string
	OldValue        string
	CurrentHeadline string
}

// RegenerateHeadlinesParams carry the context for a new set of headlines.
type RegenerateHeadlinesParams struct {
	URL           string
	ID            int64
	SelectedTopic string
	OldHeadlines  []string
}

func (p RegenerateParams) body(oldKey string) map[string]any {
	return map[string]any{
		"url":              p.URL,
		"id":               p.ID,
		"selected_topic":   p.SelectedTopic,
		oldKey:             p.OldValue,
		"current_headline": p.CurrentHeadline,
	}
}

// RegenerateEngagingText returns a new engaging text for the article.
func (c *Client) RegenerateEngagingText(ctx context.Context, params RegenerateParams) (string, error) {
	body, err := c.post(ctx, "regenerate_engaging_text", regenEngagingEndpoint, params.body("old_engaging_text"))
	if err != nil {
		return "", err
	}
	return body.Get("engaging_text").String(), nil
}

// RegeneratePerex returns a new lead paragraph.
func (c *Client) RegeneratePerex(ctx context.Context, params RegenerateParams) (string, error) {
	body, err := c.post(ctx, "regenerate_perex", regenPerexEndpoint, params.body("old_perex"))
	if err != nil {
		return "", err
	}
	return body.Get("perex").String(), nil
}

// RegenerateBody returns a new article body.
func (c *Client) RegenerateBody(ctx context.Context, params RegenerateParams) (string, error) {
	body, err := c.post(ctx, "regenerate_body", regenBodyEndpoint, params.body("old_article_body"))
	if err != nil {
		return "", err
	}
	return body.Get("article").String(), nil
}

type regenerateHeadlinesRequest struct {
	URL           string   `json:"url"`
	ID            int64    `json:"id"`
	SelectedTopic string   `json:"selected_topic"`
	OldHeadlines  []string `json:"old_headlines"`
}

// RegenerateSuggestions returns a fresh list of headline candidates.
func (c *Client) RegenerateSuggestions(ctx context.Context, params RegenerateHeadlinesParams) ([]string, error) {
	old := params.OldHeadlines
	if old == nil {
		old = []string{}
	}
	body, err := c.post(ctx, "regenerate_headlines", regenHeadlinesEndpoint, regenerateHeadlinesRequest{
		URL:           params.URL,
		ID:            params.ID,
		SelectedTopic: params.SelectedTopic,
		OldHeadlines:  old,
	})
	if err != nil {
		return nil, err
	}
	return stringsAt(body, "headlines"), nil
}
