package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr   = ":8080"
	defaultSessionPath  = "clouddnsconsole.db"
	defaultProvider     = ProviderCloudDNS
	defaultTTL          = 3600
	defaultNSSuffix     = "stabletransit.com"
	defaultPollInterval = time.Second
	defaultTimeout      = 30 * time.Second
	defaultLogLevel     = "info"
	defaultLogEnv       = "prod"
)

const (
	ProviderCloudDNS   = "clouddns"
	ProviderCloudflare = "cloudflare"
)

type Config struct {
	ListenAddr  string `yaml:"listenAddr"`
	SessionPath string `yaml:"sessionPath"`
	Log         Log    `yaml:"log"`
	DNS         DNS    `yaml:"dns"`
}

type DNS struct {
	Provider string `yaml:"provider"`
	// Endpoint is the account-scoped API base, e.g. https://dns.api.rackspacecloud.com/v1.0/123456
	Endpoint                 string        `yaml:"endpoint"`
	Token                    string        `yaml:"token"`
	Account                  string        `yaml:"account"`
	TTL                      int           `yaml:"ttl"`
	ReservedNameserverSuffix string        `yaml:"reservedNameserverSuffix"`
	PollInterval             time.Duration `yaml:"pollInterval"`
	Timeout                  time.Duration `yaml:"timeout"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func Load(path string) (*Config, error) {
	configFile := true
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("fail find config file, proceeding", "path", path)
		configFile = false
	}

	var cfg Config
	if configFile {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			f.Close()
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = defaultSessionPath
	}
	if cfg.DNS.Provider == "" {
		cfg.DNS.Provider = defaultProvider
	}
	if cfg.DNS.TTL == 0 {
		cfg.DNS.TTL = defaultTTL
	}
	if cfg.DNS.ReservedNameserverSuffix == "" {
		cfg.DNS.ReservedNameserverSuffix = defaultNSSuffix
	}
	if cfg.DNS.PollInterval == 0 {
		cfg.DNS.PollInterval = defaultPollInterval
	}
	if cfg.DNS.Timeout == 0 {
		cfg.DNS.Timeout = defaultTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}
}

// Override from environment if set
func applyEnv(cfg *Config) {
	if addr := os.Getenv("CLOUDDNS_CONSOLE_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if sessionPath := os.Getenv("CLOUDDNS_CONSOLE_SESSION_PATH"); sessionPath != "" {
		cfg.SessionPath = sessionPath
	}
	if dnsProvider := os.Getenv("CLOUDDNS_CONSOLE_PROVIDER"); dnsProvider != "" {
		cfg.DNS.Provider = dnsProvider
	}
	if endpoint := os.Getenv("CLOUDDNS_CONSOLE_ENDPOINT"); endpoint != "" {
		cfg.DNS.Endpoint = endpoint
	}
	if token := os.Getenv("CLOUDDNS_CONSOLE_TOKEN"); token != "" {
		cfg.DNS.Token = token
	}
	if account := os.Getenv("CLOUDDNS_CONSOLE_ACCOUNT"); account != "" {
		cfg.DNS.Account = account
	}
	if dnsTtl := os.Getenv("CLOUDDNS_CONSOLE_TTL"); dnsTtl != "" {
		if ttl, err := strconv.Atoi(dnsTtl); err == nil {
			cfg.DNS.TTL = ttl
		} else {
			slog.Default().Warn("fail parse ttl to int from string", "ttl", dnsTtl, "error", err)
		}
	}
	if suffix := os.Getenv("CLOUDDNS_CONSOLE_NS_SUFFIX"); suffix != "" {
		cfg.DNS.ReservedNameserverSuffix = suffix
	}
	if poll := os.Getenv("CLOUDDNS_CONSOLE_POLL_INTERVAL"); poll != "" {
		if interval, err := time.ParseDuration(poll); err == nil {
			cfg.DNS.PollInterval = interval
		} else {
			slog.Default().Warn("fail parse poll interval to duration from string", "interval", poll, "error", err)
		}
	}
	if timeout := os.Getenv("CLOUDDNS_CONSOLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.DNS.Timeout = d
		} else {
			slog.Default().Warn("fail parse timeout to duration from string", "timeout", timeout, "error", err)
		}
	}
	if loglevel := os.Getenv("CLOUDDNS_CONSOLE_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("CLOUDDNS_CONSOLE_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.DNS.Provider) {
	case ProviderCloudDNS:
		if c.DNS.Endpoint == "" {
			return fmt.Errorf("clouddns provider requires dns.endpoint")
		}
	case ProviderCloudflare:
	default:
		return fmt.Errorf("unknown dns provider %q", c.DNS.Provider)
	}
	if c.DNS.Token == "" {
		return fmt.Errorf("dns api token required")
	}
	if c.DNS.TTL <= 0 {
		return fmt.Errorf("dns ttl must be positive, got %d", c.DNS.TTL)
	}
	return nil
}
