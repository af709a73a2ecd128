package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vidscribe/vidscribe/internal/bus"
	"github.com/vidscribe/vidscribe/internal/command"
	"github.com/vidscribe/vidscribe/internal/config"
	"github.com/vidscribe/vidscribe/internal/daemon"
	"github.com/vidscribe/vidscribe/internal/notify"
	"github.com/vidscribe/vidscribe/internal/tui"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(os.Stderr)

			mgr, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg := mgr.GetConfig()

			restore, err := setupLogging(cfg, true)
			if err != nil {
				return err
			}
			defer restore()

			svc, err := newServices(cfg, log.Writer())
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}

			ep, err := bus.DefaultEndpoint()
			if err != nil {
				return err
			}
			d := daemon.New(ep, svc.pipeline)
			if err := setNotifier(d, cfg); err != nil {
				return err
			}

			mgr.OnReload(func(cfg *config.Config) {
				next, err := newServices(cfg, log.Writer())
				if err != nil {
					log.Printf("Config reload: keeping previous engines: %v", err)
					return
				}
				d.SetTranscriber(next.pipeline)
				if err := setNotifier(d, cfg); err != nil {
					log.Printf("Config reload: %v", err)
				}
			})
			if err := mgr.StartWatching(d.Context()); err != nil {
				log.Printf("Config manager: not watching %s: %v", mgr.Path(), err)
			}
			defer mgr.Stop()

			return d.Run()
		},
	}
}

func setNotifier(d *daemon.Daemon, cfg *config.Config) error {
	n, err := notify.New(cfg.Notifications.Type, command.Exec{})
	if err != nil {
		return err
	}
	d.SetNotifier(n)
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon is running and how busy it is",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendOp(cmd.Context(), bus.OpStatus)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			fmt.Printf("%s  %s\n", tui.StyleSuccess.Render("running"), tui.StyleMuted.Render(fmt.Sprintf("%d active request(s)", resp.Active)))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get the daemon protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendOp(cmd.Context(), bus.OpVersion)
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Printf("proto=%s\n", resp.Proto)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := sendOp(cmd.Context(), bus.OpQuit); err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Println("daemon stopping")
			return nil
		},
	}
}

func sendOp(ctx context.Context, op string) (bus.Response, error) {
	ep, err := bus.DefaultEndpoint()
	if err != nil {
		return bus.Response{}, err
	}
	resp, err := ep.Send(ctx, bus.Request{Op: op})
	if err != nil {
		return resp, err
	}
	if !resp.OK {
		return resp, fmt.Errorf("%s", resp.Error)
	}
	return resp, nil
}
