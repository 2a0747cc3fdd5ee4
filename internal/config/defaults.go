package config

import (
	"time"

	"github.com/seckatie/marktube/internal/core"
)

const (
	envPrefix = "MARKTUBE_"

	defaultConfigPath       = "~/.config/marktube/config.toml"
	defaultDatabasePath     = "~/.local/share/marktube/marktube.db"
	defaultUserDataDir      = "~/.local/share/marktube/chrome"
	defaultHost             = "127.0.0.1"
	defaultPort             = 8787
	defaultStartURL         = "https://www.youtube.com/"
	defaultLogLevel         = "info"
	defaultExportTTLSeconds = int(core.DefaultExportTTL / time.Second)
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Database: Database{
			Path: defaultDatabasePath,
		},
		Server: Server{
			Host: defaultHost,
			Port: defaultPort,
		},
		Browser: Browser{
			UserDataDir: defaultUserDataDir,
			StartURL:    defaultStartURL,
		},
		Overlay: Overlay{
			RetryIntervalMS: int(core.DefaultRetryInterval.Milliseconds()),
			MaxAttempts:     core.DefaultMaxAttempts,
			NotificationMS:  int(core.DefaultNotificationDuration.Milliseconds()),
		},
		Manager: Manager{
			CommandTimeoutMS: int(core.DefaultCommandTimeout.Milliseconds()),
			ExportTTLSeconds: defaultExportTTLSeconds,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
