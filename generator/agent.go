package generator

import (
	"context"
	"errors"
)

// Agent turns sources into topics, drafts and field variants through an LLM.
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// Topics suggests topics for src.
func (a *Agent) Topics(ctx context.Context, src Source) ([]string, error) {
	raw, err := a.llm.Complete(ctx, BuildTopicsPrompt(src))
	if err != nil {
		return nil, err
	}
	return ParseTopics(raw)
}

// Generate writes a first draft on topic.
func (a *Agent) Generate(ctx context.Context, src Source, topic string, storm bool) (Draft, error) {
	raw, err := a.llm.Complete(ctx, BuildArticlePrompt(src, topic, storm))
	if err != nil {
		return Draft{}, err
	}
	return ParseDraft(raw)
}

// RegenerateText produces a new version of a single text field.
func (a *Agent) RegenerateText(ctx context.Context, src Source, topic string, field Field, old, currentHeadline string) (string, error) {
	raw, err := a.llm.Complete(ctx, BuildRegeneratePrompt(src, topic, field, old, currentHeadline))
	if err != nil {
		return "", err
	}
	return ParseField(raw, field)
}

// RegenerateHeadlines produces a new list of headline candidates.
func (a *Agent) RegenerateHeadlines(ctx context.Context, src Source, topic string, old []string) ([]string, error) {
	prompt := BuildRegeneratePrompt(src, topic, FieldHeadlines, joinLines(old), "")
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseHeadlines(raw)
}
