package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescope/backend/internal/article"
)

var articleSeries string

// articleCmd groups article maintenance
var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "아티클 관리",
}

var articleImportCmd = &cobra.Command{
	Use:   "import [url]",
	Short: "웹 페이지를 아티클로 가져오기",
	Long: `페이지를 가져와 제목/저자/본문을 추출하고 Markdown 으로 저장합니다.

Example:
  go run ./cmd/valuescope article import https://example.com/posts/moat --series 天阶功法`,
	Args: cobra.ExactArgs(1),
	RunE: runArticleImport,
}

func init() {
	rootCmd.AddCommand(articleCmd)
	articleCmd.AddCommand(articleImportCmd)
	articleImportCmd.Flags().StringVar(&articleSeries, "series", "", "시리즈")
}

func runArticleImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	saved, err := a.articles().Import(cmd.Context(), article.ImportRequest{URL: args[0], Series: articleSeries})
	if err != nil {
		return err
	}

	printSummary("article imported", [][2]interface{}{
		{"id", saved.ID},
		{"title", saved.Title},
		{"author", saved.Author},
		{"series", saved.Series},
		{"summary", saved.Summary},
	})
	fmt.Println("✅ Done")
	return nil
}
