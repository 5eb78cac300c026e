package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seotools/core"
	"seotools/logging"
)

// serviceConfig describes the OS service. The installed service re-invokes
// this binary as "service run".
func serviceConfig() *service.Config {
	return &service.Config{
		Name:        "seotools",
		DisplayName: "SEO Tools API",
		Description: "Serves the SEO and text tools HTTP API",
		Arguments:   []string{"service", "run"},
		Option: service.KeyValue{
			"StartType": "automatic",
			"Restart":   "on-failure",
		},
	}
}

// program adapts serve to the service lifecycle. Start must not block, so
// the server runs in a goroutine until Stop cancels it.
type program struct {
	cfg    *core.Config
	logger *logging.Logger

	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		err := serve(ctx, p.cfg, p.logger, false)
		if err != nil {
			p.logger.Error("service stopped with error", zap.Error(err))
		}
		p.done <- err
		// A listener failure ends the process so the service manager can restart it.
		if err != nil && !service.Interactive() {
			s.Stop()
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	timeout := p.cfg.ShutdownTimeout + 5*time.Second
	select {
	case err := <-p.done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for service to stop")
	}
}

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install and control seotools as an OS service",
		Long: `Manages seotools through the platform service manager (systemd, launchd
or the Windows Service Control Manager). The installed service runs
"seotools service run" with the environment of the service account.`,
	}

	control := func(use, short string, action func(service.Service) error, done string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := service.New(&program{}, serviceConfig())
				if err != nil {
					return fmt.Errorf("failed to create service: %w", err)
				}
				if err := action(s); err != nil {
					return fmt.Errorf("service %s: %w", use, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), done)
				return nil
			},
		}
	}

	cmd.AddCommand(
		control("install", "Install the service", service.Service.Install, "Service installed successfully"),
		control("uninstall", "Remove the service", service.Service.Uninstall, "Service uninstalled successfully"),
		control("start", "Start the installed service", service.Service.Start, "Service started successfully"),
		control("stop", "Stop the running service", service.Service.Stop, "Service stopped successfully"),
		control("restart", "Restart the service", service.Service.Restart, "Service restarted successfully"),
		&cobra.Command{
			Use:   "status",
			Short: "Show the service status",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := service.New(&program{}, serviceConfig())
				if err != nil {
					return fmt.Errorf("failed to create service: %w", err)
				}
				status, err := s.Status()
				if err != nil && !errors.Is(err, service.ErrNotInstalled) {
					return fmt.Errorf("failed to get service status: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service is %s\n", statusName(status, err))
				return nil
			},
		},
		&cobra.Command{
			Use:    "run",
			Short:  "Run under the service manager",
			Args:   cobra.NoArgs,
			Hidden: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := core.LoadConfig()
				if err != nil {
					return err
				}
				logger, err := newLogger(cfg)
				if err != nil {
					return err
				}
				defer logger.Sync()

				s, err := service.New(&program{cfg: cfg, logger: logger}, serviceConfig())
				if err != nil {
					return fmt.Errorf("failed to create service: %w", err)
				}
				return s.Run()
			},
		},
	)
	return cmd
}

func statusName(status service.Status, err error) string {
	if errors.Is(err, service.ErrNotInstalled) {
		return "not installed"
	}
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "in an unknown state"
	}
}
