package botconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved daemon configuration.
type Config struct {
	ListenAddr     string
	RPCToken       string
	RPCTokenFile   string
	AllowNoToken   bool
	OwnerID        int64
	AdminFile      string
	AdminSecret    string
	WorkDir        string
	RateLimitRPS   float64
	RateLimitBurst int
	LimiterIdleTTL time.Duration
	StreamHistory  int
	MaxUploadBytes int64
	LogLevel       slog.Level
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:     "/ip4/127.0.0.1/tcp/8787",
		RateLimitRPS:   5,
		RateLimitBurst: 20,
		LimiterIdleTTL: 10 * time.Minute,
		StreamHistory:  512,
		MaxUploadBytes: 16 << 20,
		LogLevel:       slog.LevelInfo,
	}
}

// FileConfig mirrors config.yaml. Zero values leave defaults in place.
type FileConfig struct {
	RPC       RPCFileConfig       `yaml:"rpc"`
	Bot       BotFileConfig       `yaml:"bot"`
	RateLimit RateLimitFileConfig `yaml:"rateLimit"`
	LogLevel  string              `yaml:"logLevel"`
}

type RPCFileConfig struct {
	ListenAddr     string `yaml:"listenAddr"`
	Token          string `yaml:"token"`
	TokenFile      string `yaml:"tokenFile"`
	AllowNoToken   *bool  `yaml:"allowNoToken"`
	StreamHistory  int    `yaml:"streamHistory"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

type BotFileConfig struct {
	OwnerID     int64  `yaml:"ownerId"`
	AdminFile   string `yaml:"adminFile"`
	AdminSecret string `yaml:"adminSecret"`
	WorkDir     string `yaml:"workDir"`
}

type RateLimitFileConfig struct {
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	IdleTTL time.Duration `yaml:"idleTTL"`
}

// LoadFromPath reads configPath, or the first default location that exists,
// merges it over the defaults and applies CARDBOT_* overrides. A missing
// file is not an error; a malformed one is.
func LoadFromPath(configPath string) (Config, error) {
	cfg := DefaultConfig()

	candidates := []string{configPath}
	if configPath == "" {
		candidates = []string{"configs/cardbot.yaml", "cardbot.yaml"}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && configPath == "" {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := Merge(&cfg, parsed); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		break
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	cfg.ResolvePaths()
	return cfg, nil
}

func Merge(dst *Config, src FileConfig) error {
	if src.RPC.ListenAddr != "" {
		dst.ListenAddr = src.RPC.ListenAddr
	}
	if src.RPC.Token != "" {
		dst.RPCToken = src.RPC.Token
	}
	if src.RPC.TokenFile != "" {
		dst.RPCTokenFile = src.RPC.TokenFile
	}
	if src.RPC.AllowNoToken != nil {
		dst.AllowNoToken = *src.RPC.AllowNoToken
	}
	if src.RPC.StreamHistory > 0 {
		dst.StreamHistory = src.RPC.StreamHistory
	}
	if src.RPC.MaxUploadBytes > 0 {
		dst.MaxUploadBytes = src.RPC.MaxUploadBytes
	}
	if src.Bot.OwnerID != 0 {
		dst.OwnerID = src.Bot.OwnerID
	}
	if src.Bot.AdminFile != "" {
		dst.AdminFile = src.Bot.AdminFile
	}
	if src.Bot.AdminSecret != "" {
		dst.AdminSecret = src.Bot.AdminSecret
	}
	if src.Bot.WorkDir != "" {
		dst.WorkDir = src.Bot.WorkDir
	}
	if src.RateLimit.RPS > 0 {
		dst.RateLimitRPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst > 0 {
		dst.RateLimitBurst = src.RateLimit.Burst
	}
	if src.RateLimit.IdleTTL > 0 {
		dst.LimiterIdleTTL = src.RateLimit.IdleTTL
	}
	if src.LogLevel != "" {
		level, err := parseLevel(src.LogLevel)
		if err != nil {
			return err
		}
		dst.LogLevel = level
	}
	return nil
}

func ApplyEnvOverrides(cfg *Config) error {
	if v := env("CARDBOT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := env("CARDBOT_RPC_TOKEN"); v != "" {
		cfg.RPCToken = v
	}
	if v := env("CARDBOT_RPC_TOKEN_FILE"); v != "" {
		cfg.RPCTokenFile = v
	}
	if v := env("CARDBOT_ALLOW_NO_TOKEN"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CARDBOT_ALLOW_NO_TOKEN: %w", err)
		}
		cfg.AllowNoToken = parsed
	}
	if v := env("CARDBOT_OWNER_ID"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CARDBOT_OWNER_ID: %w", err)
		}
		cfg.OwnerID = parsed
	}
	if v := env("CARDBOT_ADMIN_FILE"); v != "" {
		cfg.AdminFile = v
	}
	if v := env("CARDBOT_ADMIN_SECRET"); v != "" {
		cfg.AdminSecret = v
	}
	if v := env("CARDBOT_WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}
	if v := env("CARDBOT_RATE_LIMIT_RPS"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("CARDBOT_RATE_LIMIT_RPS: invalid value %q", v)
		}
		cfg.RateLimitRPS = parsed
	}
	if v := env("CARDBOT_RATE_LIMIT_BURST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("CARDBOT_RATE_LIMIT_BURST: invalid value %q", v)
		}
		cfg.RateLimitBurst = parsed
	}
	if v := env("CARDBOT_LOG_LEVEL"); v != "" {
		level, err := parseLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	return nil
}

// ResolvePaths fills the work dir and the files kept under it.
func (c *Config) ResolvePaths() {
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "cardbot")
	}
	if c.AdminFile == "" {
		c.AdminFile = filepath.Join(c.WorkDir, "admins")
	}
	if strings.EqualFold(c.RPCToken, "auto") && c.RPCTokenFile == "" {
		c.RPCTokenFile = filepath.Join(c.WorkDir, "rpc.token")
	}
}

// ArtifactDir is where session temp files live. It is wiped at startup.
func (c Config) ArtifactDir() string {
	return filepath.Join(c.WorkDir, "artifacts")
}

func (c Config) Validate() error {
	if c.OwnerID <= 0 {
		return errors.New("owner id must be a positive user id")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}
	return nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", raw, err)
	}
	return level, nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
