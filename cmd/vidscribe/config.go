package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vidscribe/vidscribe/internal/config"
	"github.com/vidscribe/vidscribe/internal/language"
	"github.com/vidscribe/vidscribe/internal/transcriber"
	"github.com/vidscribe/vidscribe/internal/tui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(configInitCmd(), configPathCmd(), configRoutesCmd())
	return cmd
}

func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvedConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func configRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show which engine each language is routed to",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			fmt.Println(tui.StyleHeader.Render("Routing"))
			for _, e := range svc.router.Table() {
				fmt.Printf("  %-24s %s\n", language.DisplayName(e.Language), tui.StyleHighlight.Render(string(e.Kind)))
			}
			fmt.Println(tui.StyleMuted.Render(fmt.Sprintf("  %-24s %s with the %s model", "anything else", transcriber.KindOfflineBatch, transcriber.FallbackLanguage)))
			return nil
		},
	}
}
