// -- cmd/comment.go --
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/orbi-cli/internal/worker"
)

var (
	commentArticle string
	commentText    string
	commentCount   int
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Post a comment on an article, optionally multiple times.",
	RunE: func(cmd *cobra.Command, args []string) error {
		action := &worker.CommentAction{
			ArticleID: commentArticle,
			Text:      commentText,
			Count:     commentCount,
		}
		if err := action.Validate(); err != nil {
			return err
		}
		return runWorker(cmd, action)
	},
}

func init() {
	commentCmd.Flags().StringVar(&commentArticle, "article", "", "article number to comment on")
	commentCmd.Flags().StringVar(&commentText, "text", "", "comment text")
	commentCmd.Flags().IntVar(&commentCount, "count", 1, "how many times to post the comment (1-100)")
	_ = commentCmd.MarkFlagRequired("article")
	_ = commentCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(commentCmd)
}
