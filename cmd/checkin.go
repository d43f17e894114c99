// -- cmd/checkin.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/orbi-cli/internal/worker"
)

var (
	checkinMessage string
	checkinAt      string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Perform the daily attendance check-in.",
	Long: `Logs in, opens the attendance page, fills the greeting message and
clicks the submit button at the target time of day. A target already past
today rolls over to the same time tomorrow. Pass --at "" to submit
immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		action := &worker.CheckinAction{Message: checkinMessage}
		if checkinAt != "" {
			target, err := parseTargetTime(checkinAt)
			if err != nil {
				return err
			}
			action.Target = target
		}
		return runWorker(cmd, action)
	},
}

func init() {
	checkinCmd.Flags().StringVar(&checkinMessage, "message", "q", "greeting message to post with the check-in")
	checkinCmd.Flags().StringVar(&checkinAt, "at", "00:00:00", "time of day to submit (HH:MM:SS), empty for now")
	rootCmd.AddCommand(checkinCmd)
}

func parseTargetTime(s string) (*worker.TargetTime, error) {
	var t worker.TargetTime
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &t.Hour, &t.Minute, &t.Second); err != nil {
		return nil, fmt.Errorf("invalid time %q, expected HH:MM:SS", s)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return nil, fmt.Errorf("invalid time %q, expected HH:MM:SS", s)
	}
	return &t, nil
}
