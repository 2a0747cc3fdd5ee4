package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeBrowser()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	if c.Browser.UserDataDir, err = expandPath(strings.TrimSpace(c.Browser.UserDataDir)); err != nil {
		return fmt.Errorf("browser.user_data_dir: %w", err)
	}
	if c.Browser.ChromePath, err = expandPath(strings.TrimSpace(c.Browser.ChromePath)); err != nil {
		return fmt.Errorf("browser.chrome_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
}

func (c *Config) normalizeBrowser() {
	c.Browser.StartURL = strings.TrimSpace(c.Browser.StartURL)
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
