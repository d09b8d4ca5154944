package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"ai_article_studio/generator"
)

const (
	maxSourceLinks = 5
	userAgent      = "ai-article-studio-preview/1.0"
)

var errEmptyURL = errors.New("url is required")

// sourceCache keeps scraped pages so topic discovery and generation for the
// same url only fetch once. Entries are never evicted, like sessionStore.
type sourceCache struct {
	mu      sync.Mutex
	sources map[string]generator.Source
}

func newSourceCache() *sourceCache {
	return &sourceCache{sources: make(map[string]generator.Source)}
}

func (c *sourceCache) get(u string) (generator.Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.sources[u]
	return src, ok
}

func (c *sourceCache) set(u string, src generator.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[u] = src
}

// fetchSource downloads pageURL and extracts its title, readable paragraphs
// and outbound links.
func fetchSource(ctx context.Context, client *http.Client, pageURL string) (generator.Source, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return generator.Source{}, errEmptyURL
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return generator.Source{}, fmt.Errorf("invalid url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return generator.Source{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return generator.Source{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return generator.Source{}, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return generator.Source{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return extractSource(doc, base), nil
}

func extractSource(doc *goquery.Document, base *url.URL) generator.Source {
	src := generator.Source{
		URL:   base.String(),
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		src.Title = h1
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()

	scope := doc.Find("article")
	if scope.Length() == 0 {
		scope = doc.Find("main")
	}
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var paragraphs []string
	scope.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	src.Text = strings.Join(paragraphs, "\n")

	seen := map[string]bool{src.URL: true}
	scope.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		link := base.ResolveReference(ref)
		link.Fragment = ""
		if link.Scheme != "http" && link.Scheme != "https" {
			return true
		}
		if abs := link.String(); !seen[abs] {
			seen[abs] = true
			src.Links = append(src.Links, abs)
		}
		return len(src.Links) < maxSourceLinks
	})
	return src
}
