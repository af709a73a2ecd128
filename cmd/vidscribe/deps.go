package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vidscribe/vidscribe/internal/command"
	"github.com/vidscribe/vidscribe/internal/deps"
	"github.com/vidscribe/vidscribe/internal/tui"
)

func depsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools vidscribe runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckAll(cmd.Context(), command.Exec{}, deps.Tools(cfg.Tools.YtDlp, cfg.Tools.FFmpeg, cfg.Tools.WhisperCli))
			fmt.Println(tui.RenderDeps(statuses))

			var missing int
			for _, s := range statuses {
				if !s.Installed {
					missing++
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d tool(s) missing", missing)
			}
			return nil
		},
	}
}
