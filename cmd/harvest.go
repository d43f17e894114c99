// -- cmd/harvest.go --
package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/orbi-cli/internal/worker"
)

var (
	harvestMinutes int
	harvestDir     string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Crawl the public post listing and download inline images.",
	Long: `Visits the public post listing for the given number of minutes and
downloads every inline image of every post it has not seen during the run.
Files are saved as {postID}_img{index}.{ext}. No login is needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		destDir := harvestDir
		if destDir == "" {
			home, err := homedir.Dir()
			if err != nil {
				return fmt.Errorf("failed to resolve home directory: %w", err)
			}
			destDir = filepath.Join(home, "Downloads", "orbi_images")
		}

		action := &worker.HarvestAction{
			Budget:  time.Duration(harvestMinutes) * time.Minute,
			DestDir: destDir,
			Timing:  appConfig.Harvest,
		}
		if err := action.Validate(); err != nil {
			return err
		}
		return runWorker(cmd, action)
	},
}

func init() {
	harvestCmd.Flags().IntVar(&harvestMinutes, "minutes", 10, "how long to run, in minutes")
	harvestCmd.Flags().StringVar(&harvestDir, "dir", "", "destination directory (default ~/Downloads/orbi_images)")
	rootCmd.AddCommand(harvestCmd)
}
