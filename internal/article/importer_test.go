package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/pkg/httputil"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

const samplePage = `<!DOCTYPE html>
<html><head>
<title>站点标题 - 博客</title>
<meta property="og:title" content="长期持有的逻辑">
<meta name="author" content="价值老张">
<meta property="article:published_time" content="2024-05-01T08:00:00+08:00">
</head>
<body>
<nav>首页 | 关于</nav>
<article>
  <h2>为什么持有</h2>
  <p>好公司 <a href="/posts/moat">护城河</a> 长期复利。</p>
  <script>track()</script>
</article>
<footer>版权所有</footer>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtract_ArticleNode(t *testing.T) {
	a, err := Extract(parse(t, samplePage), "https://blog.example.com/posts/hold")
	require.NoError(t, err)

	assert.Equal(t, "长期持有的逻辑", a.Title)
	assert.Equal(t, "价值老张", a.Author)
	require.NotNil(t, a.PublishedAt)
	assert.Equal(t, 2024, a.PublishedAt.Year())
	assert.Equal(t, "https://blog.example.com/posts/hold", a.SourceURL)

	assert.Contains(t, a.Content, "## 为什么持有")
	assert.Contains(t, a.Content, "[护城河](")
	assert.Contains(t, a.Content, "/posts/moat)")
	assert.NotContains(t, a.Content, "track()")
	assert.NotContains(t, a.Content, "首页")
	assert.True(t, strings.HasPrefix(a.Summary, "为什么持有 好公司"))
}

func TestExtract_Fallbacks(t *testing.T) {
	page := `<html><head><title> 只有标题 </title></head>
<body><main><p>主体内容</p></main><p>外部</p></body></html>`

	a, err := Extract(parse(t, page), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "只有标题", a.Title)
	assert.Empty(t, a.Author)
	assert.Nil(t, a.PublishedAt)
	assert.Equal(t, "主体内容", a.Content)

	page = `<html><head><title>正文在 body</title></head><body><p>整页</p></body></html>`
	a, err = Extract(parse(t, page), "https://example.com/b")
	require.NoError(t, err)
	assert.Equal(t, "整页", a.Content)
}

func TestExtract_NoTitle(t *testing.T) {
	_, err := Extract(parse(t, `<html><body><p>x</p></body></html>`), "https://example.com")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestImporter_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	log := logger.Nop()
	importer := NewImporter(httputil.New(nil, log).DisableRetry(), log)

	a, err := importer.Fetch(context.Background(), server.URL+"/posts/hold")
	require.NoError(t, err)
	assert.Equal(t, "长期持有的逻辑", a.Title)
	assert.Contains(t, a.Content, "/posts/moat)")

	_, err = importer.Fetch(context.Background(), server.URL+"/missing")
	assert.ErrorIs(t, err, ErrFetchFailed)
}
