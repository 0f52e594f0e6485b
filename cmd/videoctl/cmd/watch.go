package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

const defaultWatchInterval = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch [job_id]",
	Short: "Follow a job until it finishes",
	Long: `Poll the progress of a job and print every change until it reaches 100 percent.
Interrupting the watcher does not cancel the job.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		interval, _ := cmd.Flags().GetDuration("interval")
		watchJob(cmd, newClientFromConfig(), args[0], interval)
	},
}

func watchJob(cmd *cobra.Command, client *VideoClient, jobID string, interval time.Duration) {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	ctx := cmd.Context()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPercent, lastDetail := -1, ""
	for {
		record, err := client.GetProgress(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			printError(cmd, err)
			return
		}

		if record.Percent != lastPercent || record.StageDetail != lastDetail {
			cmd.Printf("[%3d%%] %s %s\n", record.Percent, record.Stage, record.StageDetail)
			lastPercent, lastDetail = record.Percent, record.StageDetail
		}
		if record.IsTerminal() {
			cmd.Println()
			printProgress(cmd, *record)
			return
		}

		select {
		case <-ctx.Done():
			cmd.Println("Stopped watching, the job keeps running.")
			return
		case <-ticker.C:
		}
	}
}

func init() {
	watchCmd.Flags().Duration("interval", defaultWatchInterval, "Polling interval")
	rootCmd.AddCommand(watchCmd)
}
