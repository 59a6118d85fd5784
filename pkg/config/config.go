// Package config loads the server configuration from a YAML file, applies
// CHATRELAY_* environment overrides, and resolves command-line flags.
package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Slack struct {
		APIToken  string `yaml:"api_token"`
		ChannelID string `yaml:"channel_id"`
		// APIBase overrides the Web API root; used against fakes in tests.
		APIBase string `yaml:"api_base"`
	} `yaml:"slack"`
	Chat struct {
		SigningSecret string `yaml:"signing_secret"`
		MaxMessageLen int    `yaml:"max_message_len"`
		PollLimit     int    `yaml:"poll_limit"`
		// Directory selects the thread backend: "slack" or "memory".
		Directory string `yaml:"directory"`
	} `yaml:"chat"`
	Store struct {
		// Backend selects the content store: "pebble" or "file".
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"store"`
	Security struct {
		CORS struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   int `yaml:"rps"`
			Burst int `yaml:"burst"`
		} `yaml:"rate_limit"`
		APIKeys struct {
			Admin []string `yaml:"admin"`
		} `yaml:"api_keys"`
	} `yaml:"security"`
	Retention struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"retention"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 8080
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with a map indicating which flags were explicitly set.
func ParseCommandFlags() (addr string, storePath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	storePtr := flag.String("store", "./.content", "content store path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *storePtr, *cfgPtr, setFlags
}

// LoadEnvOverrides applies CHATRELAY_* environment overrides onto cfg and
// reports whether any were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("CHATRELAY_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CHATRELAY_SLACK_TOKEN"); v != "" {
		envUsed = true
		cfg.Slack.APIToken = v
	}
	if v := os.Getenv("CHATRELAY_SLACK_CHANNEL"); v != "" {
		envUsed = true
		cfg.Slack.ChannelID = v
	}
	if v := os.Getenv("CHATRELAY_SLACK_API_BASE"); v != "" {
		envUsed = true
		cfg.Slack.APIBase = v
	}
	if v := os.Getenv("CHATRELAY_SIGNING_SECRET"); v != "" {
		envUsed = true
		cfg.Chat.SigningSecret = v
	}
	if v := os.Getenv("CHATRELAY_MAX_MESSAGE_LEN"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Chat.MaxMessageLen = n
		}
	}
	if v := os.Getenv("CHATRELAY_POLL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Chat.PollLimit = n
		}
	}
	if v := os.Getenv("CHATRELAY_DIRECTORY"); v != "" {
		envUsed = true
		cfg.Chat.Directory = v
	}
	if v := os.Getenv("CHATRELAY_STORE_BACKEND"); v != "" {
		envUsed = true
		cfg.Store.Backend = v
	}
	if v := os.Getenv("CHATRELAY_STORE_PATH"); v != "" {
		envUsed = true
		cfg.Store.Path = v
	}
	if v := os.Getenv("CHATRELAY_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("CHATRELAY_RATE_RPS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = n
		}
	}
	if v := os.Getenv("CHATRELAY_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("CHATRELAY_ADMIN_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Admin = parseList(v)
	}
	if v := os.Getenv("CHATRELAY_RETENTION_CRON"); v != "" {
		envUsed = true
		cfg.Retention.Enabled = true
		cfg.Retention.Cron = v
	}
	if v := os.Getenv("CHATRELAY_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	if c := os.Getenv("CHATRELAY_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("CHATRELAY_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	return envUsed
}

// LoadEffective loads config from path and applies environment overrides. A
// missing file is not fatal; env vars alone can configure the server.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, envUsed, nil
}

// ResolveConfigPath decides the config file path using the flag-provided
// value and CHATRELAY_CONFIG when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CHATRELAY_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
