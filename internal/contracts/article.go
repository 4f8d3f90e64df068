package contracts

import "time"

// Article is a curated long-form piece. Content is markdown.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ContentHTML string     `json:"content_html,omitempty"`
	Summary     string     `json:"summary"`
	Author      string     `json:"author"`
	SourceURL   string     `json:"source_url"`
	PublishedAt *time.Time `json:"published_at"`
	Series      string     `json:"series"`
	ViewCount   int        `json:"view_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ArticleQuery filters article listings
type ArticleQuery struct {
	Search   string
	Series   string
	Page     int
	PageSize int
}

// Offset returns the row offset of the page
func (q ArticleQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}
