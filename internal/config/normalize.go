package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMoonraker()
	c.normalizeTwitch()
	c.normalizeWorkers()
	c.normalizeStream()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMoonraker() {
	c.Moonraker.URL = strings.TrimRight(strings.TrimSpace(c.Moonraker.URL), "/")
	if c.Moonraker.URL == "" {
		c.Moonraker.URL = defaultMoonrakerURL
	}
	if c.Moonraker.RequestTimeout <= 0 {
		c.Moonraker.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeTwitch() {
	c.Twitch.ClientID = strings.TrimSpace(c.Twitch.ClientID)
	c.Twitch.ClientSecret = strings.TrimSpace(c.Twitch.ClientSecret)
	c.Twitch.BroadcasterLogin = strings.ToLower(strings.TrimSpace(c.Twitch.BroadcasterLogin))
	c.Twitch.TokenURL = strings.TrimRight(strings.TrimSpace(c.Twitch.TokenURL), "/")
	if c.Twitch.TokenURL == "" {
		c.Twitch.TokenURL = defaultTokenURL
	}
	c.Twitch.HelixURL = strings.TrimRight(strings.TrimSpace(c.Twitch.HelixURL), "/")
	if c.Twitch.HelixURL == "" {
		c.Twitch.HelixURL = defaultHelixURL
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.ChatInterval <= 0 {
		c.Workers.ChatInterval = defaultChatInterval
	}
	if c.Workers.TitleInterval <= 0 {
		c.Workers.TitleInterval = defaultTitleInterval
	}
	if c.Workers.TickTimeout <= 0 {
		c.Workers.TickTimeout = defaultTickTimeout
	}
}

func (c *Config) normalizeStream() {
	c.Stream.Device = strings.TrimSpace(c.Stream.Device)
	if c.Stream.Device == "" {
		c.Stream.Device = defaultStreamDevice
	}
	if strings.TrimSpace(c.Stream.VideoSize) == "" {
		c.Stream.VideoSize = defaultVideoSize
	}
	if strings.TrimSpace(c.Stream.InputFormat) == "" {
		c.Stream.InputFormat = defaultInputFormat
	}
	c.Stream.IngestURL = strings.TrimRight(strings.TrimSpace(c.Stream.IngestURL), "/")
	if c.Stream.IngestURL == "" {
		c.Stream.IngestURL = defaultIngestURL
	}
	c.Stream.StreamKey = strings.TrimSpace(c.Stream.StreamKey)
	if c.Stream.StatsPeriod <= 0 {
		c.Stream.StatsPeriod = defaultStatsPeriod
	}
	if c.Stream.MinUptime <= 0 {
		c.Stream.MinUptime = defaultMinUptime
	}
	if c.Stream.MaxRestartWait <= 0 {
		c.Stream.MaxRestartWait = defaultMaxRestartWait
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
