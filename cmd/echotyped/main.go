// echotyped is the EchoType typing journal daemon.
//
// It installs a system-wide keyboard hook and appends everything typed to
// date-partitioned, timestamped log files. Capture is overt and fully
// user-controlled: Ctrl+Shift+P pauses and resumes, Ctrl+Shift+N starts a
// new log segment, and echoctl drives the same controls over the local
// socket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NatureBlueee/EchoType/internal/autostart"
	"github.com/NatureBlueee/EchoType/internal/clipboard"
	"github.com/NatureBlueee/EchoType/internal/config"
	"github.com/NatureBlueee/EchoType/internal/daemon"
	"github.com/NatureBlueee/EchoType/internal/ipc"
	"github.com/NatureBlueee/EchoType/internal/keyboard"
	"github.com/NatureBlueee/EchoType/internal/logging"
	"github.com/NatureBlueee/EchoType/internal/notify"
	"github.com/NatureBlueee/EchoType/internal/stats"
)

const version = "1.0.0"

var (
	configPath  = flag.String("config", "", "path to config file")
	journalDir  = flag.String("journal-dir", "", "override the journal directory")
	startPaused = flag.Bool("paused", false, "start with journaling paused")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("echotyped", version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "echotyped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer loader.Close()

	if *journalDir != "" {
		cfg.Journal.Dir = *journalDir
	}
	if *startPaused {
		cfg.Journal.StartPaused = true
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	format, _ := logging.ParseFormat(cfg.Logging.Format)
	logger, err := logging.New(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		Component: "echotyped",
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	log := logger.Logger
	log.Info("starting", "version", version, "journal_dir", cfg.Journal.Dir)

	// Config hot reload keeps validation but only the log level applies
	// live; everything else takes effect on the next start.
	if err := loader.Watch(); err != nil {
		log.Warn("config watch unavailable", "error", err)
	}
	loader.OnChange(func(newCfg *config.Config) {
		newLevel, perr := logging.ParseLevel(newCfg.Logging.Level)
		if perr == nil {
			logger.SetLevel(newLevel)
		}
		log.Info("config reloaded", "level", newCfg.Logging.Level)
	})

	var st *stats.Store
	if cfg.Stats.Enabled {
		st, err = stats.Open(cfg.Stats.Path)
		if err != nil {
			return fmt.Errorf("open stats: %w", err)
		}
		defer st.Close()
	}

	auto, err := autostart.New("")
	if err != nil {
		log.Warn("autostart unavailable", "error", err)
	}
	if auto != nil && cfg.Autostart.Enabled {
		if err := auto.Enable(); err != nil {
			log.Warn("enable autostart", "error", err)
		}
	}

	var n notify.Notifier = notify.Nop{}
	if cfg.Notify.Enabled {
		n = notify.New()
	}
	defer n.Close()

	d, err := daemon.New(daemon.Options{
		Config: cfg,
		Source: keyboard.NewSource(keyboard.Config{
			DedupWindow: time.Duration(cfg.Capture.DedupWindowMs) * time.Millisecond,
		}),
		Clipboard: clipboard.New(),
		Stats:     st,
		Notifier:  n,
		Autostart: auto,
		Logger:    log,
		Version:   version,
	})
	if err != nil {
		return err
	}

	var server *ipc.Server
	if cfg.IPC.Enabled {
		serverCfg := ipc.DefaultServerConfig(cfg.IPC.SocketPath)
		serverCfg.Version = version
		server = ipc.NewServer(serverCfg, d.Handler())
		if err := server.Start(); err != nil {
			return fmt.Errorf("start ipc server: %w", err)
		}
		defer server.Stop()
		log.Info("ipc listening", "addr", server.Addr())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		if errors.Is(err, keyboard.ErrHookInstall) {
			return fmt.Errorf("keyboard hook could not be installed: %w", err)
		}
		return err
	}
	return nil
}
