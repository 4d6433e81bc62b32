package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"Picture-Story/server/internal/config"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:   "picture-story",
		Short: "Turn a handful of pictures into a narrated short story",
		Long: `picture-story takes between 1 and 10 images and a story style,
asks a multimodal model for a short story about them and narrates it
as MP3 audio. Run "serve" for the web interface or "generate" for a
one-off story from local files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(opts.envFile); err != nil {
				return err
			}
			loaded, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(loaded.Logging.NewLogger(os.Stderr))
			*cfg = *loaded
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "path to a YAML or TOML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	serve := newServeCmd(cfg)
	root.AddCommand(serve, newGenerateCmd(cfg))
	root.RunE = serve.RunE

	return root
}
