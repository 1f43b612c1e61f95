package config

const (
	defaultLogDir         = "~/.local/share/printcast/logs"
	defaultStateDir       = "~/.local/share/printcast"
	defaultMoonrakerURL   = "http://127.0.0.1:7125"
	defaultRequestTimeout = 10
	defaultTokenURL       = "https://id.twitch.tv/oauth2/token"
	defaultHelixURL       = "https://api.twitch.tv/helix"
	defaultChatInterval   = 60
	defaultTitleInterval  = 300
	defaultTickTimeout    = 30
	defaultStreamDevice   = "/dev/video0"
	defaultVideoSize      = "640x480"
	defaultInputFormat    = "h264"
	defaultIngestURL      = "rtmp://live.twitch.tv/app"
	defaultStatsPeriod    = 30
	defaultMinUptime      = 30
	defaultMaxRestartWait = 60
	defaultNtfyTimeout    = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Moonraker: Moonraker{
			URL:            defaultMoonrakerURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Twitch: Twitch{
			TokenURL: defaultTokenURL,
			HelixURL: defaultHelixURL,
		},
		Workers: Workers{
			ChatInterval:  defaultChatInterval,
			TitleInterval: defaultTitleInterval,
			TickTimeout:   defaultTickTimeout,
		},
		Stream: Stream{
			Enabled:        true,
			Device:         defaultStreamDevice,
			VideoSize:      defaultVideoSize,
			InputFormat:    defaultInputFormat,
			IngestURL:      defaultIngestURL,
			StatsPeriod:    defaultStatsPeriod,
			MinUptime:      defaultMinUptime,
			MaxRestartWait: defaultMaxRestartWait,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
