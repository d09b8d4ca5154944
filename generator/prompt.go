package generator

import (
	"fmt"
	"strings"
)

// Prompt kinds, used by MockLLM to pick a canned answer.
const (
	KindTopics     = "topics"
	KindArticle    = "article"
	KindRegenerate = "regenerate"
)

// maxSourceChars bounds how much scraped text goes into a prompt.
const maxSourceChars = 12000

// Prompt is the set of messages sent to the LLM.
type Prompt struct {
	Kind    string
	Field   Field
	System  string
	User    string
	History []Message
}

// Message is an optional prior exchange.
type Message struct {
	Role    string
	Content string
}

const jsonOnly = "Answer with a single JSON object and nothing else. Write in the same language as the source article."

// BuildTopicsPrompt asks for five topics an article could be written about.
func BuildTopicsPrompt(src Source) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a news editor. Suggest 5 distinct topics a new article could cover, based on the scraped article below.\n")
	sb.WriteString("No numbering, no bullet characters, no introductory text.\n")
	sb.WriteString(`Reply as {"topics": ["..."]}.` + "\n")

	return Prompt{
		Kind:   KindTopics,
		System: jsonOnly,
		User:   sb.String() + sourceBlock(src),
	}
}

// BuildArticlePrompt asks for a full draft on topic. With storm set the model
// is told to draw on every listed source instead of the main page only.
func BuildArticlePrompt(src Source, topic string, storm bool) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a journalist. Write a news article about the selected topic using the scraped article below.\n")
	sb.WriteString(fmt.Sprintf("- Selected topic: %s\n", topic))
	sb.WriteString("- headlines: at least 3 short headlines that interpret the news in a human-readable way.\n")
	sb.WriteString("- engaging_text: one or two sentences that hook the reader.\n")
	sb.WriteString("- perex: 140-160 characters complementing the headlines.\n")
	sb.WriteString("- article: the body in Markdown. Cover who, what, where, when, why and how. Quote people when the source does. No opinions.\n")
	sb.WriteString("- tags: 3 to 6 short labels.\n")
	sb.WriteString("- gen_graph: true only if the source contains numbers worth charting; then fill graph_type (bar, line or pie), graph_title, graph_axis_labels {x_axis, y_axis} and graph_data {labels, values}.\n")
	if storm && len(src.Links) > 0 {
		sb.WriteString("- Research mode: cross-check facts against these related sources and mention where they agree or differ:\n")
		for _, link := range src.Links {
			sb.WriteString(fmt.Sprintf("  * %s\n", link))
		}
	}
	sb.WriteString(`Reply as {"headlines": [], "engaging_text": "", "perex": "", "article": "", "tags": [], "gen_graph": false}.` + "\n")

	return Prompt{
		Kind:   KindArticle,
		System: jsonOnly,
		User:   sb.String() + sourceBlock(src),
	}
}

// BuildRegeneratePrompt asks for an alternative version of one field. The old
// value goes into history so the model avoids repeating it.
func BuildRegeneratePrompt(src Source, topic string, field Field, old, currentHeadline string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an editor. Write a new, clearly different version of one part of an article.\n")
	sb.WriteString(fmt.Sprintf("- Selected topic: %s\n", topic))
	if currentHeadline != "" {
		sb.WriteString(fmt.Sprintf("- Current headline: %s\n", currentHeadline))
	}
	switch field {
	case FieldHeadlines:
		sb.WriteString("- Produce at least 3 new headlines.\n")
		sb.WriteString(`Reply as {"headlines": ["..."]}.` + "\n")
	case FieldPerex:
		sb.WriteString("- Produce a new perex of 140-160 characters.\n")
		sb.WriteString(`Reply as {"perex": "..."}.` + "\n")
	case FieldBody:
		sb.WriteString("- Produce a new article body in Markdown, factual and complete.\n")
		sb.WriteString(`Reply as {"article": "..."}.` + "\n")
	default:
		sb.WriteString("- Produce a new engaging text of one or two sentences.\n")
		sb.WriteString(`Reply as {"engaging_text": "..."}.` + "\n")
	}

	var history []Message
	if old != "" {
		history = append(history, Message{Role: "assistant", Content: old})
	}

	return Prompt{
		Kind:    KindRegenerate,
		Field:   field,
		System:  jsonOnly,
		User:    sb.String() + sourceBlock(src),
		History: history,
	}
}

func sourceBlock(src Source) string {
	text := src.Text
	if len(text) > maxSourceChars {
		text = text[:maxSourceChars]
	}
	var sb strings.Builder
	sb.WriteString("\nSource article")
	if src.Title != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", src.Title))
	}
	sb.WriteString(":\n\"\"\"\n")
	sb.WriteString(text)
	sb.WriteString("\n\"\"\"\n")
	return sb.String()
}
