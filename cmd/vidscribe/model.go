package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vidscribe/vidscribe/internal/language"
	"github.com/vidscribe/vidscribe/internal/models/whisper"
	"github.com/vidscribe/vidscribe/internal/transcriber"
	"github.com/vidscribe/vidscribe/internal/tui"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage local speech models",
		Long: `Streaming models are named by language (en, hi, mr).
Whisper models are named by id (base, base.en, small, ...).`,
	}

	cmd.AddCommand(
		modelListCmd(),
		modelDownloadCmd(),
		modelRemoveCmd(),
	)

	return cmd
}

func modelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List streaming and whisper models",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			fmt.Println(tui.RenderModels(modelRows(svc)))
			return nil
		},
	}
}

// modelRows lists the streaming models first, including routed languages
// with no archive, then the whisper catalog.
func modelRows(svc *services) []tui.ModelRow {
	var rows []tui.ModelRow

	seen := make(map[string]bool)
	for _, m := range svc.models.List() {
		seen[m.Language] = true
		row := tui.ModelRow{Kind: "streaming", ID: m.Language, Installed: m.LocalPath != "", Location: m.LocalPath}
		if !row.Installed {
			row.Location = m.SourceArchiveURL
		}
		rows = append(rows, row)
	}
	var missing []string
	for _, e := range svc.router.Table() {
		if e.Kind == transcriber.KindOfflineStreaming && !seen[e.Language] {
			missing = append(missing, e.Language)
		}
	}
	sort.Strings(missing)
	for _, lang := range missing {
		rows = append(rows, tui.ModelRow{Kind: "streaming", ID: lang, Location: "no archive configured"})
	}

	for _, info := range whisper.Catalog() {
		row := tui.ModelRow{Kind: "whisper", ID: info.ID, Installed: svc.whisper.IsInstalled(info.ID), Location: info.Size}
		if row.Installed {
			row.Location, _ = svc.whisper.Path(info.ID)
		}
		rows = append(rows, row)
	}
	return rows
}

func modelDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <language|whisper-id>",
		Short: "Download a model ahead of first use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			return runModelDownload(cmd.Context(), svc, args[0])
		},
	}
}

func runModelDownload(ctx context.Context, svc *services, name string) error {
	if info, ok := whisper.Lookup(name); ok {
		if svc.whisper.IsInstalled(name) {
			path, _ := svc.whisper.Path(name)
			fmt.Printf("model '%s' is already installed at %s\n", name, path)
			return nil
		}
		fmt.Printf("downloading %s (%s)...\n", name, info.Size)
		path, err := svc.whisper.Ensure(ctx, name)
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		fmt.Printf("download complete: %s\n", path)
		return nil
	}

	lang := language.Normalize(name)
	if _, ok := svc.models.Archive(lang); !ok {
		return fmt.Errorf("unknown model: %s", name)
	}
	model, err := svc.models.Locate(ctx, lang)
	if err != nil {
		return err
	}
	if model.Present {
		fmt.Printf("model '%s' is already installed at %s\n", lang, model.LocalPath)
	} else {
		fmt.Printf("download complete: %s\n", model.LocalPath)
	}
	return nil
}

func modelRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <language|whisper-id>",
		Short: "Remove a downloaded model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			name := args[0]
			if !yes && tui.Interactive() {
				ok, err := tui.Confirm(fmt.Sprintf("Remove model '%s'?", name))
				if err != nil || !ok {
					return err
				}
			}
			return runModelRemove(svc, name)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func runModelRemove(svc *services, name string) error {
	var err error
	if _, ok := whisper.Lookup(name); ok {
		err = svc.whisper.Remove(name)
	} else {
		err = svc.models.Remove(language.Normalize(name))
	}
	if err != nil {
		return err
	}
	fmt.Printf("model '%s' removed successfully\n", name)
	return nil
}

func loadServices() (*services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newServices(cfg, os.Stderr)
}
