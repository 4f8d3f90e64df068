package article

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/httputil"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// ErrFetchFailed is returned when the source page cannot be retrieved
var ErrFetchFailed = errors.New("fetch article failed")

// maxTitleRunes matches articles.title varchar(500)
const maxTitleRunes = 500

// noise is stripped from the content node before conversion
const noise = "script, style, noscript, nav, footer, header, aside, form, iframe"

// Importer fetches a web page and extracts an article from it
type Importer struct {
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewImporter creates a new importer
func NewImporter(httpClient *httputil.Client, log *logger.Logger) *Importer {
	return &Importer{
		httpClient: httpClient,
		logger:     log.WithField("module", "article_importer"),
	}
}

// Fetch downloads pageURL and extracts its article
func (i *Importer) Fetch(ctx context.Context, pageURL string) (*contracts.Article, error) {
	resp, err := i.httpClient.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse HTML: %v", ErrFetchFailed, err)
	}

	a, err := Extract(doc, pageURL)
	if err != nil {
		return nil, err
	}

	i.logger.WithFields(map[string]interface{}{
		"url":     pageURL,
		"title":   a.Title,
		"content": len(a.Content),
	}).Info("Article extracted")

	return a, nil
}

// Extract builds an article from a parsed page. Relative links resolve against pageURL.
func Extract(doc *goquery.Document, pageURL string) (*contracts.Article, error) {
	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		return nil, fmt.Errorf("%w: page has no title", ErrFetchFailed)
	}

	author := metaContent(doc, `meta[name="author"]`)
	if author == "" {
		author = metaContent(doc, `meta[property="article:author"]`)
	}

	var published *time.Time
	if raw := metaContent(doc, `meta[property="article:published_time"]`); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			published = &t
		}
	}

	content := contentNode(doc)
	content.Find(noise).Remove()

	html, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, fmt.Errorf("%w: read content: %v", ErrFetchFailed, err)
	}

	markdown, err := md.NewConverter(pageURL, true, nil).ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("%w: convert to markdown: %v", ErrFetchFailed, err)
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, fmt.Errorf("%w: page has no content", ErrFetchFailed)
	}

	return &contracts.Article{
		Title:       Summarize(title, maxTitleRunes),
		Content:     markdown,
		Summary:     Summarize(content.Text(), SummaryRunes),
		Author:      author,
		SourceURL:   pageURL,
		PublishedAt: published,
	}, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

// contentNode picks article, then main, then body
func contentNode(doc *goquery.Document) *goquery.Selection {
	for _, sel := range []string{"article", "main"} {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			return node
		}
	}
	return doc.Find("body").First()
}
