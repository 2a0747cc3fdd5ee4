package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/seckatie/marktube/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateOverlay(); err != nil {
		return err
	}
	if err := c.validateManager(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateBrowser() error {
	if c.Browser.StartURL == "" {
		return nil
	}
	u, err := url.Parse(c.Browser.StartURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("browser.start_url must be an absolute URL, got %q", c.Browser.StartURL)
	}
	return nil
}

func (c *Config) validateOverlay() error {
	if c.Overlay.RetryIntervalMS <= 0 {
		return errors.New("overlay.retry_interval_ms must be positive")
	}
	if c.Overlay.MaxAttempts < 1 {
		return errors.New("overlay.max_attempts must be at least 1")
	}
	if c.Overlay.ReadyTimeoutMS < 0 {
		return errors.New("overlay.ready_timeout_ms must not be negative")
	}
	if c.Overlay.NotificationMS < 0 {
		return errors.New("overlay.notification_ms must not be negative")
	}
	return nil
}

func (c *Config) validateManager() error {
	if c.Manager.CommandTimeoutMS <= 0 {
		return errors.New("manager.command_timeout_ms must be positive")
	}
	if c.Manager.ExportTTLSeconds <= 0 {
		return errors.New("manager.export_ttl_seconds must be positive")
	}
	return nil
}
