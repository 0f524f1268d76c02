package config

const (
	DefaultChatPrefix   = "[blue][Server][default]"
	DefaultAdInterval   = 60.0
	DefaultChatDriver   = "console"
	DefaultRedisChannel = "advert:chat"
)

// DefaultAds is the rotation used when the Ads key is absent.
func DefaultAds() []string {
	return []string{
		"Use [red]!nominate[default] <mapname> / <workshopid> to nominate maps!",
		"Use [red]!rtv[default] to rock the vote for map change!",
		"Use [red]!ws[default] to change knife or skins!",
	}
}

// Default returns a Config with every default filled in. Parse decodes on top
// of it, so absent keys keep these values.
func Default() Config {
	return Config{
		Main: Main{
			ChatPrefix: DefaultChatPrefix,
			AdInterval: DefaultAdInterval,
			Ads:        DefaultAds(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    LoggingFile{Path: "./advert.log"},
		},
		Chat: ChatConfig{
			Driver: DefaultChatDriver,
			Redis: RedisConfig{
				Addr:    "127.0.0.1:6379",
				Channel: DefaultRedisChannel,
			},
		},
	}
}
