package config

import (
	"sort"
	"strings"

	"advert/pkg/logx"
)

// SummarizeConfigChange returns the list of changed sections and safe
// structured attrs for logging. Secrets (redis password) are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 3)
	attrs := make([]logx.Field, 0, 12)

	if !oldCfg.Main.Equal(newCfg.Main) {
		changed = append(changed, "main")
		attrs = append(attrs,
			logx.String("main.chat_prefix", newCfg.Main.ChatPrefix),
			logx.Float64("main.ad_interval", newCfg.Main.AdInterval),
			logx.Int("main.ads", len(newCfg.Main.Ads)),
		)
	}

	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	oc, nc := oldCfg.Chat, newCfg.Chat
	if oc.Driver != nc.Driver || oc.RatePerSec != nc.RatePerSec || oc.Burst != nc.Burst ||
		oc.Redis.Addr != nc.Redis.Addr || oc.Redis.DB != nc.Redis.DB ||
		oc.Redis.Channel != nc.Redis.Channel || oc.Redis.Timeout != nc.Redis.Timeout ||
		(oc.Redis.Password != "") != (nc.Redis.Password != "") {
		changed = append(changed, "chat")
		attrs = append(attrs,
			logx.String("chat.driver", nc.Driver),
			logx.Int("chat.rate_per_sec", nc.RatePerSec),
			logx.String("chat.redis_addr", nc.Redis.Addr),
			logx.Bool("chat.redis_password_set", nc.Redis.Password != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
