package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddrDefaults(t *testing.T) {
	var c Config
	if got := c.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("Addr() = %q", got)
	}
	c.Server.Address = "127.0.0.1"
	c.Server.Port = 9000
	if got := c.Addr(); got != "127.0.0.1:9000" {
		t.Fatalf("Addr() = %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  address: 127.0.0.1
  port: 9090
slack:
  api_token: xoxb-abc
  channel_id: C123
chat:
  signing_secret: topsecret
  max_message_len: 1500
  directory: slack
store:
  backend: pebble
  path: /var/lib/chatrelay
security:
  cors:
    allowed_origins: ["https://example.com"]
  api_keys:
    admin: ["adm-1"]
retention:
  enabled: true
  cron: "0 3 * * *"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("addr %q", cfg.Addr())
	}
	if cfg.Slack.APIToken != "xoxb-abc" || cfg.Slack.ChannelID != "C123" {
		t.Fatalf("slack %+v", cfg.Slack)
	}
	if cfg.Chat.SigningSecret != "topsecret" || cfg.Chat.MaxMessageLen != 1500 {
		t.Fatalf("chat %+v", cfg.Chat)
	}
	if cfg.Store.Backend != "pebble" {
		t.Fatalf("store %+v", cfg.Store)
	}
	if !cfg.Retention.Enabled || cfg.Retention.Cron != "0 3 * * *" {
		t.Fatalf("retention %+v", cfg.Retention)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATRELAY_ADDR", "0.0.0.0:7070")
	t.Setenv("CHATRELAY_SLACK_TOKEN", "xoxb-env")
	t.Setenv("CHATRELAY_SLACK_CHANNEL", "C999")
	t.Setenv("CHATRELAY_SIGNING_SECRET", "env-secret")
	t.Setenv("CHATRELAY_DIRECTORY", "memory")
	t.Setenv("CHATRELAY_STORE_BACKEND", "file")
	t.Setenv("CHATRELAY_ADMIN_KEYS", "k1, k2 ,")
	t.Setenv("CHATRELAY_RATE_RPS", "25")

	var cfg Config
	if !LoadEnvOverrides(&cfg) {
		t.Fatal("env overrides not detected")
	}
	if cfg.Addr() != "0.0.0.0:7070" {
		t.Fatalf("addr %q", cfg.Addr())
	}
	if cfg.Slack.APIToken != "xoxb-env" || cfg.Chat.SigningSecret != "env-secret" {
		t.Fatalf("cfg %+v", cfg)
	}
	if len(cfg.Security.APIKeys.Admin) != 2 || cfg.Security.APIKeys.Admin[1] != "k2" {
		t.Fatalf("admin keys %v", cfg.Security.APIKeys.Admin)
	}
	if cfg.Security.RateLimit.RPS != 25 {
		t.Fatalf("rps %d", cfg.Security.RateLimit.RPS)
	}
}

func TestResolveConfigPath(t *testing.T) {
	if got := ResolveConfigPath("./flag.yaml", true); got != "./flag.yaml" {
		t.Fatalf("flag set: %q", got)
	}
	t.Setenv("CHATRELAY_CONFIG", "/etc/chatrelay.yaml")
	if got := ResolveConfigPath("./flag.yaml", false); got != "/etc/chatrelay.yaml" {
		t.Fatalf("env: %q", got)
	}
}
