package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultServerAddr      = ":8000"
	defaultShutdownTimeout = 10 * time.Second
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "testdb"
	defaultConnectTimeout  = 10 * time.Second
	defaultCacheTTL        = 5 * time.Minute
	defaultUploadsDir      = "public/uploads"
	defaultUploadsPrefix   = "/uploads"
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogMaxFiles     = 5
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Mongo   MongoConfig   `toml:"mongo"`
	Redis   RedisConfig   `toml:"redis"`
	Uploads UploadsConfig `toml:"uploads"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type MongoConfig struct {
	URI            string        `toml:"uri"`
	Database       string        `toml:"database"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
}

// RedisConfig enables the record cache when Addr is set.
type RedisConfig struct {
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	TTL      time.Duration `toml:"ttl"`
}

type UploadsConfig struct {
	Dir       string `toml:"dir"`
	URLPrefix string `toml:"url_prefix"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type LoadOptions struct {
	ConfigPath string
	Env        map[string]string
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            defaultServerAddr,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Mongo: MongoConfig{
			URI:            defaultMongoURI,
			Database:       defaultMongoDatabase,
			ConnectTimeout: defaultConnectTimeout,
		},
		Redis: RedisConfig{
			TTL: defaultCacheTTL,
		},
		Uploads: UploadsConfig{
			Dir:       defaultUploadsDir,
			URLPrefix: defaultUploadsPrefix,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file and
// environment overrides, in that order. A config path that was given but
// cannot be read is an error.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	path := opts.ConfigPath
	if path == "" {
		path, _ = lookupEnv(opts, "RECORDS_CONFIG_PATH")
	}
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg, opts); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	Server *struct {
		Addr            *string `toml:"addr"`
		ShutdownTimeout *string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Mongo *struct {
		URI            *string `toml:"uri"`
		Database       *string `toml:"database"`
		ConnectTimeout *string `toml:"connect_timeout"`
	} `toml:"mongo"`
	Redis *struct {
		Addr     *string `toml:"addr"`
		Password *string `toml:"password"`
		DB       *int    `toml:"db"`
		TTL      *string `toml:"ttl"`
	} `toml:"redis"`
	Uploads *struct {
		Dir       *string `toml:"dir"`
		URLPrefix *string `toml:"url_prefix"`
	} `toml:"uploads"`
	Logging *struct {
		Level     *string `toml:"level"`
		File      *string `toml:"file"`
		MaxSizeMB *int    `toml:"max_size_mb"`
		MaxFiles  *int    `toml:"max_files"`
	} `toml:"logging"`
}

func loadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config file %q: %w", ErrInvalidConfig, path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}

	if s := raw.Server; s != nil {
		setString(s.Addr, &cfg.Server.Addr)
		if err := setDuration("server.shutdown_timeout", s.ShutdownTimeout, &cfg.Server.ShutdownTimeout); err != nil {
			return err
		}
	}
	if m := raw.Mongo; m != nil {
		setString(m.URI, &cfg.Mongo.URI)
		setString(m.Database, &cfg.Mongo.Database)
		if err := setDuration("mongo.connect_timeout", m.ConnectTimeout, &cfg.Mongo.ConnectTimeout); err != nil {
			return err
		}
	}
	if r := raw.Redis; r != nil {
		setString(r.Addr, &cfg.Redis.Addr)
		setString(r.Password, &cfg.Redis.Password)
		setInt(r.DB, &cfg.Redis.DB)
		if err := setDuration("redis.ttl", r.TTL, &cfg.Redis.TTL); err != nil {
			return err
		}
	}
	if u := raw.Uploads; u != nil {
		setString(u.Dir, &cfg.Uploads.Dir)
		setString(u.URLPrefix, &cfg.Uploads.URLPrefix)
	}
	if l := raw.Logging; l != nil {
		setString(l.Level, &cfg.Logging.Level)
		setString(l.File, &cfg.Logging.File)
		setInt(l.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(l.MaxFiles, &cfg.Logging.MaxFiles)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, opts LoadOptions) error {
	if value, ok := lookupEnv(opts, "RECORDS_SERVER_ADDR"); ok {
		cfg.Server.Addr = value
	}
	if value, ok := lookupEnv(opts, "MONGODB_URI"); ok {
		cfg.Mongo.URI = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_MONGO_URI"); ok {
		cfg.Mongo.URI = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_MONGO_DATABASE"); ok {
		cfg.Mongo.Database = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_REDIS_ADDR"); ok {
		cfg.Redis.Addr = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_REDIS_PASSWORD"); ok {
		cfg.Redis.Password = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_REDIS_DB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse RECORDS_REDIS_DB: %v", ErrInvalidConfig, err)
		}
		cfg.Redis.DB = parsed
	}
	if value, ok := lookupEnv(opts, "RECORDS_REDIS_TTL"); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: parse RECORDS_REDIS_TTL: %v", ErrInvalidConfig, err)
		}
		cfg.Redis.TTL = d
	}
	if value, ok := lookupEnv(opts, "RECORDS_UPLOADS_DIR"); ok {
		cfg.Uploads.Dir = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_UPLOADS_URL_PREFIX"); ok {
		cfg.Uploads.URLPrefix = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_LOG_LEVEL"); ok {
		cfg.Logging.Level = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_LOG_FILE"); ok {
		cfg.Logging.File = value
	}
	if value, ok := lookupEnv(opts, "RECORDS_LOG_MAX_SIZE_MB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse RECORDS_LOG_MAX_SIZE_MB: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxSizeMB = parsed
	}
	if value, ok := lookupEnv(opts, "RECORDS_LOG_MAX_FILES"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse RECORDS_LOG_MAX_FILES: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxFiles = parsed
	}
	return nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr must not be empty", ErrInvalidConfig)
	}
	if cfg.Mongo.URI == "" || cfg.Mongo.Database == "" {
		return fmt.Errorf("%w: mongo.uri and mongo.database are required", ErrInvalidConfig)
	}
	if cfg.Mongo.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: mongo.connect_timeout must be > 0", ErrInvalidConfig)
	}
	if cfg.Redis.Addr != "" && cfg.Redis.TTL <= 0 {
		return fmt.Errorf("%w: redis.ttl must be > 0 when redis is enabled", ErrInvalidConfig)
	}
	if cfg.Uploads.Dir == "" {
		return fmt.Errorf("%w: uploads.dir must not be empty", ErrInvalidConfig)
	}
	if !strings.HasPrefix(cfg.Uploads.URLPrefix, "/") || strings.Trim(cfg.Uploads.URLPrefix, "/") == "" {
		return fmt.Errorf("%w: uploads.url_prefix must be a path below /", ErrInvalidConfig)
	}
	return nil
}

func setDuration(field string, raw *string, target *time.Duration) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, field, err)
	}
	*target = d
	return nil
}

func setString(raw *string, target *string) {
	if raw != nil {
		*target = *raw
	}
}

func setInt(raw *int, target *int) {
	if raw != nil {
		*target = *raw
	}
}

func lookupEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}
