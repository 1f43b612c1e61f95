package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMoonraker(); err != nil {
		return err
	}
	if err := c.validateTwitch(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMoonraker() error {
	parsed, err := url.Parse(c.Moonraker.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("moonraker.url is not a valid URL: %q", c.Moonraker.URL)
	}
	return nil
}

func (c *Config) validateTwitch() error {
	if c.Twitch.ClientID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/printcast/config.toml"
		}
		return fmt.Errorf("twitch.client_id is required. Edit %s (create with 'printcast config init')", defaultPath)
	}
	if c.Twitch.ClientSecret == "" {
		return errors.New("twitch.client_secret is required")
	}
	if c.Twitch.BroadcasterLogin == "" {
		return errors.New("twitch.broadcaster_login is required")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.TickTimeout >= c.Workers.ChatInterval && c.Workers.TickTimeout >= c.Workers.TitleInterval {
		return errors.New("workers.tick_timeout must be shorter than at least one worker interval")
	}
	return nil
}

func (c *Config) validateStream() error {
	if !c.Stream.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Stream.StreamKey) == "" {
		return errors.New("stream.stream_key must be set when stream.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
