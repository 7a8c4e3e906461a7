package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultServerAddr       = ":8000"
	defaultRateLimitPerSec  = 20.0
	defaultRateLimitBurst   = 40
	defaultStoreBackend     = "sqlite"
	defaultSQLitePath       = "podserver.db"
	defaultRedisAddr        = "localhost:6379"
	defaultIngestGroupID    = "podserver-ingest"
	defaultLivenessMinutes  = 10000
	defaultFrameLookback    = 24 * time.Hour
	defaultPopularityCount  = 25
	defaultScanLimit        = 5000
	defaultTimelineBins     = 48
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultLogFileEnabled   = false
	defaultLogDirectory     = "log"
	defaultLogFilename      = "podserver.log"
	defaultLogMaxSizeMB     = 100
	defaultLogMaxBackups    = 3
	defaultLogMaxAgeDays    = 7
	defaultLogCompress      = false

	// Environment variable prefix
	envPrefix = "PODSERVER"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Ingest IngestConfig `mapstructure:"ingest"`
	Engine EngineConfig `mapstructure:"engine"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string   `mapstructure:"addr"`
	RateLimitPerSec float64  `mapstructure:"rateLimitPerSec"`
	RateLimitBurst  int      `mapstructure:"rateLimitBurst"`
	AllowedOrigins  []string `mapstructure:"allowedOrigins"`
}

type StoreConfig struct {
	Backend    string `mapstructure:"backend"` // "sqlite" or "redis"
	SQLitePath string `mapstructure:"sqlitePath"`
	RedisAddr  string `mapstructure:"redisAddr"`
}

type IngestConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

type EngineConfig struct {
	LivenessThresholdMinutes int           `mapstructure:"livenessThresholdMinutes"`
	FrameLookback            time.Duration `mapstructure:"frameLookback"`
	PopularityMinCount       int           `mapstructure:"popularityMinCount"`
	ScanLimit                int           `mapstructure:"scanLimit"`
	DefaultBins              int           `mapstructure:"defaultBins"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	// Read configuration from file (error if mandatory file is missing)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal the configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", defaultServerAddr)
	v.SetDefault("server.rateLimitPerSec", defaultRateLimitPerSec)
	v.SetDefault("server.rateLimitBurst", defaultRateLimitBurst)
	v.SetDefault("store.backend", defaultStoreBackend)
	v.SetDefault("store.sqlitePath", defaultSQLitePath)
	v.SetDefault("store.redisAddr", defaultRedisAddr)
	v.SetDefault("ingest.enabled", false)
	v.SetDefault("ingest.groupID", defaultIngestGroupID)
	v.SetDefault("engine.livenessThresholdMinutes", defaultLivenessMinutes)
	v.SetDefault("engine.frameLookback", defaultFrameLookback)
	v.SetDefault("engine.popularityMinCount", defaultPopularityCount)
	v.SetDefault("engine.scanLimit", defaultScanLimit)
	v.SetDefault("engine.defaultBins", defaultTimelineBins)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return ErrEmptySQLitePath
		}
	case "redis":
		if cfg.Store.RedisAddr == "" {
			return ErrEmptyRedisAddr
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreBackend, cfg.Store.Backend)
	}

	if cfg.Ingest.Enabled {
		if len(cfg.Ingest.Brokers) == 0 {
			return ErrEmptyIngestBrokers
		}
		if cfg.Ingest.Topic == "" {
			return ErrEmptyIngestTopic
		}
		if cfg.Ingest.GroupID == "" {
			return ErrEmptyIngestGroupID
		}
	}

	if cfg.Engine.LivenessThresholdMinutes <= 0 {
		return ErrInvalidLivenessThreshold
	}
	if cfg.Engine.DefaultBins < 1 {
		return ErrInvalidDefaultBins
	}
	return nil
}
