package app

import (
	"fmt"

	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
)

// validateConfig fails fast on invalid enum values and warns on missing
// credentials. An absent signing secret is not fatal at startup; the chat
// endpoints answer "not configured" until one is provisioned.
func validateConfig(cfg *config.Config) error {
	switch cfg.Chat.Directory {
	case "", "slack", "memory":
	default:
		return fmt.Errorf("unknown chat directory %q (want slack or memory)", cfg.Chat.Directory)
	}
	switch cfg.Store.Backend {
	case "", "pebble", "file":
	default:
		return fmt.Errorf("unknown store backend %q (want pebble or file)", cfg.Store.Backend)
	}
	if cfg.Chat.SigningSecret == "" {
		logger.Warn("no signing secret configured; chat relay and poll will return 500")
	}
	if cfg.Chat.Directory != "memory" {
		if cfg.Slack.APIToken == "" {
			logger.Warn("no Slack api token configured; thread directory calls will fail")
		}
		if cfg.Slack.ChannelID == "" {
			logger.Warn("no Slack channel configured; chat relay will return 500")
		}
	}
	return nil
}
