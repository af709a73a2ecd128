package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vidscribe/vidscribe/internal/tui"
)

var (
	configPath string
	noColor    bool
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "vidscribe",
	Short:        "Transcribe the speech in online videos",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		tui.ConfigureColor(noColor)
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/vidscribe/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")

	rootCmd.AddCommand(
		transcribeCmd(),
		sendCmd(),
		serveCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
		modelCmd(),
		depsCmd(),
		configCmd(),
	)
}
