package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
)

// MockLLM answers every prompt with deterministic JSON built from the prompt
// itself. It lets the preview backend run without a model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	topic := promptLine(prompt.User, "- Selected topic: ")
	sentences := splitSentences(promptSource(prompt.User))

	switch prompt.Kind {
	case KindTopics:
		topics := make([]string, 0, 5)
		for _, s := range sentences {
			if len(topics) == 5 {
				break
			}
			topics = append(topics, truncate(s, 60))
		}
		if len(topics) == 0 {
			topics = []string{"Background", "Key figures", "Reactions", "What comes next", "Local impact"}
		}
		return sjson.Set(`{}`, "topics", topics)

	case KindArticle:
		out := `{}`
		var err error
		set := func(path string, v any) {
			if err == nil {
				out, err = sjson.Set(out, path, v)
			}
		}
		set("headlines", []string{
			fmt.Sprintf("%s: what happened", topic),
			fmt.Sprintf("%s explained", topic),
			fmt.Sprintf("Why %s matters", topic),
		})
		set("engaging_text", fmt.Sprintf("Everything you need to know about %s, in one read.", topic))
		set("perex", truncate(fmt.Sprintf("%s. %s", topic, firstOr(sentences, "The story in brief.")), 160))
		set("article", mockBody(topic, sentences))
		set("tags", []string{strings.ToLower(topic), "news"})
		set("gen_graph", false)
		return out, err

	case KindRegenerate:
		previous := ""
		if len(prompt.History) > 0 {
			previous = prompt.History[len(prompt.History)-1].Content
		}
		variant := countLines(previous) + 1
		switch prompt.Field {
		case FieldHeadlines:
			return sjson.Set(`{}`, "headlines", []string{
				fmt.Sprintf("%s, take %d", topic, variant),
				fmt.Sprintf("The %s story, revisited", topic),
				fmt.Sprintf("%s: a fresh angle", topic),
			})
		case FieldBody:
			return sjson.Set(`{}`, string(prompt.Field), mockBody(topic, reverse(sentences)))
		default:
			return sjson.Set(`{}`, string(prompt.Field), fmt.Sprintf("Another look at %s (variant %d).", topic, variant))
		}
	}
	return "", fmt.Errorf("mock llm: unknown prompt kind %q", prompt.Kind)
}

func mockBody(topic string, sentences []string) string {
	var sb strings.Builder
	sb.WriteString("## ")
	sb.WriteString(topic)
	sb.WriteString("\n\n")
	if len(sentences) == 0 {
		sb.WriteString("No source text was available for this article.\n")
		return sb.String()
	}
	for i, s := range sentences {
		if i == 8 {
			break
		}
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

func promptLine(user, prefix string) string {
	for _, line := range strings.Split(user, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}

func promptSource(user string) string {
	start := strings.Index(user, "\"\"\"\n")
	end := strings.LastIndex(user, "\n\"\"\"")
	if start < 0 || end <= start+4 {
		return ""
	}
	return user[start+4 : end]
}

func splitSentences(text string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '\n' || r == '!' || r == '?' }) {
		if s := strings.TrimSpace(part); len(s) > 3 {
			out = append(out, s+".")
		}
	}
	return out
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

func reverse(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[len(items)-1-i] = s
	}
	return out
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
