package cmd

import (
	"avatar-video-api/infrastructure/gin_interface/dto"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new avatar video job",
	Long: `Submit a new avatar video job. Pass --topic to have the script generated or --script
to use your own text. Media flags accept an http(s) url or a local file that is uploaded inline.

Example:
  videoctl submit --topic "tide pools" --voice v1
  videoctl submit --script "Hello world" --voice v1 --voice-character-media ./face.png --watch`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		topic, _ := flags.GetString("topic")
		script, _ := flags.GetString("script")
		voice, _ := flags.GetString("voice")
		avatar, _ := flags.GetString("avatar")
		supporting, _ := flags.GetString("supporting-media")
		voiceCharacter, _ := flags.GetString("voice-character-media")
		highQuality, _ := flags.GetBool("high-quality")
		watch, _ := flags.GetBool("watch")

		if voice == "" {
			cmd.Println("Error: --voice is required")
			return
		}
		if (topic == "") == (script == "") {
			cmd.Println("Error: exactly one of --topic or --script is required")
			return
		}

		req := dto.GenerateVideoRequest{
			ScriptSource: "generated",
			Topic:        topic,
			Script:       script,
			VoiceID:      voice,
			AvatarID:     avatar,
			HighQuality:  highQuality,
		}
		if script != "" {
			req.ScriptSource = "custom"
		}

		var err error
		if req.SupportingMedia, err = mediaFromArg(supporting); err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}
		if req.VoiceCharacterMedia, err = mediaFromArg(voiceCharacter); err != nil {
			cmd.Printf("Error: %v\n", err)
			return
		}

		client := newClientFromConfig()
		result, err := client.SubmitVideo(cmd.Context(), req)
		if err != nil {
			printError(cmd, err)
			return
		}

		cmd.Printf("✓ Job submitted!\nID: %s\n", result.JobID)

		if watch {
			interval, _ := flags.GetDuration("interval")
			watchJob(cmd, client, result.JobID, interval)
		}
	},
}

func mediaFromArg(arg string) (*dto.MediaInput, error) {
	if arg == "" {
		return nil, nil
	}
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &dto.MediaInput{URL: arg}, nil
	}

	content, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}
	return &dto.MediaInput{
		FileName:    filepath.Base(arg),
		ContentType: mime.TypeByExtension(filepath.Ext(arg)),
		Content:     content,
	}, nil
}

func printError(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("Error: %v\n", err)
}

func init() {
	flags := submitCmd.Flags()
	flags.String("topic", "", "Topic of a generated script")
	flags.String("script", "", "Custom script, used verbatim")
	flags.StringP("voice", "v", "", "Voice id (required)")
	flags.StringP("avatar", "a", "", "Avatar id")
	flags.String("supporting-media", "", "Url or local file shown alongside the avatar")
	flags.String("voice-character-media", "", "Url or local file used as the avatar appearance")
	flags.Bool("high-quality", false, "Render in high quality")
	flags.BoolP("watch", "w", false, "Follow the job until it finishes")
	flags.Duration("interval", defaultWatchInterval, "Polling interval used with --watch")

	rootCmd.AddCommand(submitCmd)
}
