// -- cmd/posts.go --
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/orbi-cli/internal/worker"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List or delete your own posts.",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all posts owned by the account.",
	Long: `Paginates the my-posts listing and prints every entry as
"<id>\t<title>". The ids feed into "posts delete".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd, &worker.ListPostsAction{})
	},
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <id> [id...]",
	Short: "Delete the posts with the given ids.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := &worker.DeletePostsAction{IDs: args}
		if err := action.Validate(); err != nil {
			return err
		}
		return runWorker(cmd, action)
	},
}

func init() {
	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsDeleteCmd)
	rootCmd.AddCommand(postsCmd)
}
