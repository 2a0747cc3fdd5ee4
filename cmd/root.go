/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/seckatie/marktube/internal/config"
	"github.com/seckatie/marktube/internal/core/browser"
	"github.com/seckatie/marktube/internal/core/db"
	"github.com/seckatie/marktube/internal/core/overlay"
	"github.com/seckatie/marktube/internal/core/watcher"
	"github.com/seckatie/marktube/internal/core/web"
	"github.com/seckatie/marktube/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marktube",
	Short: "Timestamp bookmarks for YouTube videos",
	Long: `marktube opens a Chrome window and adds a bookmark button to the
player controls of every YouTube video you watch in it. Clicking the button
saves the current position. The manager page lists the bookmarks for the
video in the active tab, jumps to or deletes them, and exports them as an
HTML page.

Bookmarks are kept in a local SQLite database.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file (default ~/.config/marktube/config.toml)")
	rootCmd.PersistentFlags().StringP("db", "d", "", "Path to the SQLite database file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().IntP("port", "p", 0, "Port the manager listens on")
	rootCmd.Flags().String("host", "", "Host the manager listens on")
	rootCmd.Flags().String("chrome-path", "", "Path to Chrome/Chromium executable")
	rootCmd.Flags().Bool("headless", false, "Run Chrome without a window")
	rootCmd.Flags().String("start-url", "", "Page opened in the first tab")
}

// loadConfig reads the config file and applies any flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read --config: %w", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		v, _ := flags.GetString("db")
		if cfg.Database.Path, err = config.ExpandPath(v); err != nil {
			return nil, fmt.Errorf("--db: %w", err)
		}
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("chrome-path") {
		cfg.Browser.ChromePath, _ = flags.GetString("chrome-path")
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("start-url") {
		cfg.Browser.StartURL, _ = flags.GetString("start-url")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	return logging.NewLogger(os.Stderr, cfg.Logging.Level)
}

func initDB(cfg *config.Config, logger *log.Logger) (*db.DB, error) {
	database, err := db.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	database.SetLogger(logger)

	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debug("database migrated", "path", cfg.Database.Path)
	return database, nil
}

func runDaemon(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another marktube instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", "err", err)
		}
	}()

	database, err := initDB(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	database.RegisterEventListener(db.OnBookmarksSavedEvent, func(event db.Event) error {
		ev := event.(db.BookmarksSavedEvent)
		logger.Info("bookmarks saved", "video", ev.VideoID, "count", ev.Count)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := browser.Launch(ctx, database, browser.Options{
		ChromePath:        cfg.Browser.ChromePath,
		Headless:          cfg.Browser.Headless,
		UserDataDir:       cfg.Browser.UserDataDir,
		StartURL:          cfg.Browser.StartURL,
		IgnoreURLPrefixes: []string{cfg.ManagerURL(), "http://" + cfg.Addr()},
		Overlay: overlay.Options{
			Readiness: overlay.ReadinessPolicy{
				Interval:    cfg.Overlay.RetryInterval(),
				MaxAttempts: cfg.Overlay.MaxAttempts,
				Timeout:     cfg.Overlay.ReadyTimeout(),
			},
			NotificationDuration: cfg.Overlay.NotificationDuration(),
			Logger:               logger.With("component", "overlay"),
		},
	})
	if err != nil {
		return err
	}
	defer session.Close()

	// Closing the browser window ends the daemon.
	go func() {
		<-session.Done()
		logger.Info("browser closed, shutting down")
		stop()
	}()

	w := watcher.New(session, logger.With("component", "watcher"))
	go w.Run(ctx, session.Updates())

	logger.Info("bookmark manager available", "url", cfg.ManagerURL())
	return web.StartServer(ctx, cfg.Addr(), database, session, session, web.Options{
		CommandTimeout: cfg.Manager.CommandTimeout(),
		ExportTTL:      cfg.Manager.ExportTTL(),
		Logger:         logger.With("component", "web"),
	})
}
