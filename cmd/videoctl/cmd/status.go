package cmd

import (
	"avatar-video-api/domain"

	"github.com/spf13/cobra"
)

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get the progress of a job",
	Long:  `Retrieve the current progress record of a job: percent, stage, script and, once finished, the final video url or the error.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, err := newClientFromConfig().GetProgress(cmd.Context(), args[0])
		if err != nil {
			printError(cmd, err)
			return
		}

		printProgress(cmd, *record)
	},
}

func printProgress(cmd *cobra.Command, record domain.ProgressRecord) {
	cmd.Printf("%sJob Progress%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, record.JobID)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(record.Status))
	cmd.Printf("%sProgress:%s    %d%%\n", colorDim, colorReset, record.Percent)
	cmd.Printf("%sStage:%s       %s\n", colorDim, colorReset, record.Stage)
	if record.StageDetail != "" {
		cmd.Printf("%sDetail:%s      %s\n", colorDim, colorReset, record.StageDetail)
	}
	if record.ScriptText != "" {
		cmd.Printf("%sScript:%s      %s\n", colorDim, colorReset, truncate(record.ScriptText, 80))
	}
	if record.FinalArtifactURL != "" {
		cmd.Printf("%sVideo:%s       %s\n", colorDim, colorReset, record.FinalArtifactURL)
	}
	if record.ErrorMessage != "" {
		cmd.Printf("%sError:%s       %s\n", colorDim, colorReset, record.ErrorMessage)
	}
}

func colorizeStatus(status domain.JobStatus) string {
	switch status {
	case domain.SucceededJobStatus:
		return colorGreen + string(status) + colorReset
	case domain.FailedJobStatus:
		return colorRed + string(status) + colorReset
	default:
		return string(status)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
