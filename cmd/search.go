// -- cmd/search.go --
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/orbi-cli/internal/observability"
	"github.com/xkilldash9x/orbi-cli/internal/scraper"
)

var searchOut string

var searchCmd = &cobra.Command{
	Use:   "search <imin>",
	Short: "Collect all post titles of an imin number via the search pages.",
	Long: `Scrapes the public search result pages for the given imin number
over plain HTTP and writes the collected titles to a text file, one per
line. The file is written once at the end; an interrupted run writes
nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imin := args[0]
		dest := searchOut
		if dest == "" {
			dest = fmt.Sprintf("imin_%s_titles.txt", imin)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := scraper.New(scraper.Config{
			BaseURL: appConfig.Site.BaseURL,
			Delay:   appConfig.Pacing.SearchDelay,
		}, observability.GetLogger())
		s.OnProgress = func(msg string) {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		}

		count, err := s.Run(ctx, imin, dest)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d titles to %s\n", count, dest)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchOut, "out", "", "output file (default imin_<n>_titles.txt)")
	rootCmd.AddCommand(searchCmd)
}
