package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"

	developmentSecret = "estore-development-secret"
)

type Config struct {
	Env  string
	Port string

	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	FrontendURL string
	MaxFileSize int64
	UploadDir   string

	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int

	StoreDriver string
	DataDir     string
	MongoURI    string
	DBName      string
	MySQL       MySQLConfig
	Redis       RedisConfig
	Etcd        EtcdConfig

	AdminEmail    string
	AdminPassword string

	Log LogConfig
}

type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EtcdConfig struct {
	Endpoints   []string
	Prefix      string
	DialTimeout time.Duration
}

type LogConfig struct {
	Level    string
	Encoding string
}

func (c Config) Development() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "test"
}

func defaults(v *viper.Viper) {
	v.SetDefault("node_env", "development")
	v.SetDefault("port", "5000")
	v.SetDefault("jwt_expires_in", "7d")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("max_file_size", 5*1024*1024)
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("rate_limit_window", "15m")
	v.SetDefault("rate_limit_max", 100)
	v.SetDefault("auth_rate_limit_max", 5)
	v.SetDefault("store_driver", DriverFile)
	v.SetDefault("data_dir", "data")
	v.SetDefault("db_name", "estore")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 3306)
	v.SetDefault("db_user", "root")
	v.SetDefault("redis_db", 0)
	v.SetDefault("etcd_prefix", "/services/")
	v.SetDefault("etcd_dial_timeout", "5s")
	v.SetDefault("admin_email", "admin@estore.pk")
	v.SetDefault("admin_password", "admin123")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "json")
}

// Load reads .env files (missing ones are skipped) and then the process
// environment, which wins over the files.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	env := getEnvOrDefault(v, "app_env", v.GetString("node_env"))
	cfg := Config{
		Env:              env,
		Port:             v.GetString("port"),
		JWTSecret:        strings.TrimSpace(v.GetString("jwt_secret")),
		BcryptCost:       v.GetInt("bcrypt_cost"),
		FrontendURL:      v.GetString("frontend_url"),
		MaxFileSize:      v.GetInt64("max_file_size"),
		UploadDir:        v.GetString("upload_dir"),
		RateLimitMax:     v.GetInt("rate_limit_max"),
		AuthRateLimitMax: v.GetInt("auth_rate_limit_max"),
		StoreDriver:      strings.ToLower(v.GetString("store_driver")),
		DataDir:          v.GetString("data_dir"),
		MongoURI:         v.GetString("mongo_uri"),
		DBName:           v.GetString("db_name"),
		MySQL: MySQLConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Etcd: EtcdConfig{
			Endpoints: splitList(v.GetString("etcd_endpoints")),
			Prefix:    v.GetString("etcd_prefix"),
		},
		AdminEmail:    v.GetString("admin_email"),
		AdminPassword: v.GetString("admin_password"),
		Log: LogConfig{
			Level:    v.GetString("log_level"),
			Encoding: v.GetString("log_encoding"),
		},
	}

	var err error
	if cfg.JWTExpiresIn, err = parseDuration(v.GetString("jwt_expires_in")); err != nil {
		return Config{}, fmt.Errorf("config: JWT_EXPIRES_IN: %w", err)
	}
	if cfg.RateLimitWindow, err = parseDuration(v.GetString("rate_limit_window")); err != nil {
		return Config{}, fmt.Errorf("config: RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.Etcd.DialTimeout, err = parseDuration(v.GetString("etcd_dial_timeout")); err != nil {
		return Config{}, fmt.Errorf("config: ETCD_DIAL_TIMEOUT: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if !c.Development() {
			return errors.New("config: JWT_SECRET is required")
		}
		c.JWTSecret = developmentSecret
	}
	switch c.StoreDriver {
	case DriverFile, DriverMemory:
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required for the mongo store")
		}
	case DriverMySQL:
		if c.MySQL.Host == "" {
			return errors.New("config: DB_HOST is required for the mysql store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.RateLimitMax < 1 || c.AuthRateLimitMax < 1 {
		return errors.New("config: rate limits must be positive")
	}
	if c.MaxFileSize < 1 {
		return errors.New("config: MAX_FILE_SIZE must be positive")
	}
	return nil
}
