package fetcher

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mmcdole/gofeed"
)

type htmlExtractor struct{}

// Extract collects one snippet per item selector match. Missing titles fall
// back to "Untitled" and missing bodies to the empty string.
func (x *htmlExtractor) Extract(ctx context.Context, src *model.Source, body io.Reader) ([]model.Snippet, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse html")
	}

	sel := src.Selectors.WithDefaults()
	snippets := make([]model.Snippet, 0)
	doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		title := model.DefaultSnippetTitle
		if t := item.Find(sel.Title).First(); t.Length() > 0 {
			title = t.Text()
		}

		var content string
		if c := item.Find(sel.Body).First(); c.Length() > 0 {
			content = c.Text()
		}

		snippets = append(snippets, model.Snippet{Title: title, Body: content})
	})
	return snippets, nil
}

type rssExtractor struct{}

// Extract returns one snippet per feed item, using the description and
// falling back to the full content. gofeed.Parser keeps per-parse state, so
// each call gets its own parser.
func (x *rssExtractor) Extract(ctx context.Context, src *model.Source, body io.Reader) ([]model.Snippet, error) {
	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse feed")
	}

	snippets := make([]model.Snippet, 0, len(feed.Items))
	for _, item := range feed.Items {
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		snippets = append(snippets, model.Snippet{
			Title: item.Title,
			Body:  htmlText(desc),
		})
	}
	return snippets, nil
}

// htmlText returns the text content of an HTML fragment
func htmlText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// Normalize collapses whitespace and truncates s to limit runes
func Normalize(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
