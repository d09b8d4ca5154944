package generator

import "time"

// Source is the scraped page an article is based on.
type Source struct {
	URL   string
	Title string
	Text  string
	// Links are absolute outbound links found on the page; storm mode cites them.
	Links []string
}

// Graph is optional chart metadata a model may attach to a draft.
type Graph struct {
	Type   string
	Title  string
	XAxis  string
	YAxis  string
	Labels []string
	Values []float64
}

// Draft is one generated article.
type Draft struct {
	Headlines    []string
	EngagingText string
	Perex        string
	Body         string
	Tags         []string
	// Graph is nil when the model decided the article needs no chart.
	Graph *Graph
}

// Field names a regenerable part of a draft.
type Field string

const (
	FieldEngagingText Field = "engaging_text"
	FieldPerex        Field = "perex"
	FieldBody         Field = "article"
	FieldHeadlines    Field = "headlines"
)

// Turn records one regeneration.
type Turn struct {
	Field     Field
	Previous  string
	CreatedAt time.Time
}
