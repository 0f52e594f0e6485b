package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "videoctl",
	Short: "videoctl submits avatar video jobs and follows their progress",
	Long: `videoctl is the command-line client of the avatar video API.

Common workflows:

  Generate a script from a topic and follow the job:
    videoctl submit --topic "tide pools" --voice v1 --watch

  Use your own script with a background clip:
    videoctl submit --script "Hello world" --voice v1 --supporting-media ./clip.mp4

  Check a job once:
    videoctl status <job-id>

  Follow a job until it finishes:
    videoctl watch <job-id>

Configuration:
  VIDEOCTL_URL      API endpoint (default: http://localhost:8080)
  VIDEOCTL_TOKEN    Bearer token, when the API requires authentication
  VIDEOCTL_TOKEN_URL, VIDEOCTL_CLIENT_ID, VIDEOCTL_CLIENT_SECRET
                    OAuth2 client credentials used to fetch a token when none is given`,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".videoctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIDEOCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.videoctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "Avatar video API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().String("token-url", "", "OAuth2 token endpoint for client credentials")
	viper.BindPFlag("token_url", rootCmd.PersistentFlags().Lookup("token-url"))

	rootCmd.PersistentFlags().String("client-id", "", "OAuth2 client id")
	viper.BindPFlag("client_id", rootCmd.PersistentFlags().Lookup("client-id"))

	rootCmd.PersistentFlags().String("client-secret", "", "OAuth2 client secret")
	viper.BindPFlag("client_secret", rootCmd.PersistentFlags().Lookup("client-secret"))

	rootCmd.PersistentFlags().String("scope", "", "OAuth2 scope requested with client credentials")
	viper.BindPFlag("scope", rootCmd.PersistentFlags().Lookup("scope"))
}

func newClientFromConfig() *VideoClient {
	client := NewVideoClient(viper.GetString("url"), viper.GetString("token"))
	if viper.GetString("token_url") != "" && viper.GetString("client_id") != "" {
		client.Authorizer = NewClientCredentialsAuthorizer(
			viper.GetString("token_url"),
			viper.GetString("client_id"),
			viper.GetString("client_secret"),
			viper.GetString("scope"),
		)
	}
	return client
}
