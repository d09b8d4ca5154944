package gateway

import (
	"context"

	"github.com/tidwall/gjson"
)

// TopicsResult is the decoded reply of the topic discovery endpoint.
type TopicsResult struct {
	Topics []string
}

// GenerateParams are the inputs of an article generation request.
type GenerateParams struct {
	URL           string
	SelectedTopic string
	Storm         bool
}

// AxisLabels names the chart axes.
type AxisLabels struct {
	X string
	Y string
}

// GraphData holds parallel label/value series.
type GraphData struct {
	Labels []string
	Values []float64
}

// Article is the nested article payload of a generation reply. Graph fields
// are only populated by the backend when GenGraph is true.
type Article struct {
	Headlines       []string
	EngagingText    string
	Perex           string
	Body            string
	Tags            []string
	GenGraph        bool
	GraphType       string
	GraphTitle      string
	GraphAxisLabels AxisLabels
	GraphData       GraphData
}

// ArticleResult is the decoded reply of the generation endpoint.
type ArticleResult struct {
	ID        int64
	Article   Article
	StormURLs []string
}

type topicsRequest struct {
	URL string `json:"url"`
}

type generateRequest struct {
	URL           string `json:"url"`
	SelectedTopic string `json:"selected_topic"`
	Storm         bool   `json:"storm"`
}

// DiscoverTopics asks the backend for topics found at url. An empty url is
// sent as is; the backend decides what to do with it.
func (c *Client) DiscoverTopics(ctx context.Context, url string) (TopicsResult, error) {
	body, err := c.post(ctx, "discover_topics", topicsEndpoint, topicsRequest{URL: url})
	if err != nil {
		return TopicsResult{}, err
	}
	return TopicsResult{Topics: stringsAt(body, "topics")}, nil
}

// GenerateArticle requests a full article for the selected topic.
func (c *Client) GenerateArticle(ctx context.Context, params GenerateParams) (ArticleResult, error) {
	body, err := c.post(ctx, "generate_article", generateEndpoint, generateRequest{
		URL:           params.URL,
		SelectedTopic: params.SelectedTopic,
		Storm:         params.Storm,
	})
	if err != nil {
		return ArticleResult{}, err
	}
	return decodeArticleResult(body), nil
}

func decodeArticleResult(body gjson.Result) ArticleResult {
	art := body.Get("article")
	return ArticleResult{
		ID: body.Get("id").Int(),
		Article: Article{
			Headlines:    stringsAt(art, "headlines"),
			EngagingText: art.Get("engaging_text").String(),
			Perex:        art.Get("perex").String(),
			Body:         art.Get("article").String(),
			Tags:         stringsAt(art, "tags"),
			GenGraph:     art.Get("gen_graph").Bool(),
			GraphType:    art.Get("graph_type").String(),
			GraphTitle:   art.Get("graph_title").String(),
			GraphAxisLabels: AxisLabels{
				X: art.Get("graph_axis_labels.x_axis").String(),
				Y: art.Get("graph_axis_labels.y_axis").String(),
			},
			GraphData: GraphData{
				Labels: stringsAt(art, "graph_data.labels"),
				Values: floatsAt(art, "graph_data.values"),
			},
		},
		StormURLs: stringsAt(body, "storm_urls"),
	}
}
