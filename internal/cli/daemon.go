package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/config"
	"github.com/jg-phare/nudge/pkg/daemon"
	"github.com/jg-phare/nudge/pkg/server"
)

var startForeground bool

func init() {
	startCmd.Flags().BoolVar(&startForeground, "foreground", false, "run in the foreground instead of forking")
	rootCmd.AddCommand(startCmd, stopCmd, statusCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the completion daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if daemon.OwnerAlive() {
			fmt.Println("nudge daemon is already running")
			return nil
		}

		if !startForeground {
			if err := daemon.ForkToBackground(); err != nil {
				return err
			}
			fmt.Println("nudge daemon started")
			return nil
		}

		return runDaemon()
	},
}

func runDaemon() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := log.Setup(cfg.Log.Level, cfg.LogDir()); err != nil {
		return err
	}
	defer log.Sync()

	// A broken LLM setup is not fatal here; requests will surface it as
	// an llm_unavailable error.
	if err := cfg.ValidateLLM(); err != nil {
		log.Warn(err.Error())
	}

	lock, err := daemon.AcquirePIDLock()
	if err != nil {
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)

	if err := config.Watch(ctx, srv.Reload); err != nil {
		log.Warn("config watcher unavailable: " + err.Error())
	}

	return srv.Run(ctx)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stopped, err := daemon.Stop()
		if err != nil {
			return err
		}
		if stopped {
			fmt.Println("nudge daemon stopped")
		} else {
			fmt.Println("nudge daemon is not running")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		running, pid := daemon.Status()
		if running {
			fmt.Printf("nudge daemon is running (pid %d)\n", pid)
		} else {
			fmt.Println("nudge daemon is not running")
		}
		return nil
	},
}
