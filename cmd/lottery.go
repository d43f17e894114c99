// -- cmd/lottery.go --
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/orbi-cli/internal/worker"
)

var lotteryClicks int

var lotteryCmd = &cobra.Command{
	Use:   "lottery",
	Short: "Play the lottery mini-game by clicking the balloon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		action := &worker.LotteryAction{Clicks: lotteryClicks}
		if err := action.Validate(); err != nil {
			return err
		}
		return runWorker(cmd, action)
	},
}

func init() {
	lotteryCmd.Flags().IntVar(&lotteryClicks, "clicks", 5, "number of balloon clicks (1-100)")
	rootCmd.AddCommand(lotteryCmd)
}
