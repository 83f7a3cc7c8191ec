package config

import (
	"errors"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// PageSize is the number of posts shown on one feed page.
const PageSize = 10

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTL           time.Duration
	RateLimitPerMinute int
	AllowedOrigins     []string
	AdminUsernames     []string
	MediaRoot          string
	MediaURLPrefix     string
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBMigrate   bool
	// Redis for the index feed cache and token blacklist
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Index feed cache
	IndexCacheTTL time.Duration
	// Kafka activity events; empty brokers disables publishing
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaWriteTimeout time.Duration
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// setting binds one config key to its environment variable and default.
type setting struct {
	key string
	env string
	def any
}

var settings = []setting{
	{"app.AppPort", "APP_PORT", "8080"},
	{"app.JWTSecret", "JWT_SECRET", ""},
	{"app.TokenTTLHours", "TOKEN_TTL_HOURS", 72},
	{"app.RateLimitPerMinute", "RATE_LIMIT_PER_MINUTE", 60},
	{"app.AllowedOrigins", "ALLOWED_ORIGINS", []string{"*"}},
	{"app.AdminUsernames", "ADMIN_USERNAMES", []string{}},
	{"app.MediaRoot", "MEDIA_ROOT", "media"},
	{"app.MediaURLPrefix", "MEDIA_URL_PREFIX", "/media"},
	{"database.Driver", "DATABASE_DRIVER", "mysql"},
	{"database.DatabaseURI", "DATABASE_URI", ""},
	{"database.DBHost", "DB_HOST", "127.0.0.1"},
	{"database.DBPort", "DB_PORT", "3306"},
	{"database.DBUser", "DB_USER", "root"},
	{"database.DBPassword", "DB_PASSWORD", ""},
	{"database.DBName", "DB_NAME", "yatube"},
	{"database.Migrate", "DB_MIGRATE", true},
	{"redis.RedisHost", "REDIS_HOST", ""},
	{"redis.RedisPort", "REDIS_PORT", 6379},
	{"redis.RedisDB", "REDIS_DB", 0},
	{"redis.RedisPassword", "REDIS_PASSWORD", ""},
	{"cache.IndexTTLSeconds", "INDEX_CACHE_TTL_SECONDS", 20},
	{"kafka.Brokers", "KAFKA_BROKERS", []string{}},
	{"kafka.Topic", "KAFKA_TOPIC", "yatube-activity"},
	{"kafka.WriteTimeout", "KAFKA_WRITE_TIMEOUT", "10s"},
	{"gin.Mode", "GIN_MODE", "release"},
	{"gin.LogPath", "GIN_LOG_PATH", "logs/go_gin.log"},
	{"log.Level", "LOG_LEVEL", "info"},
	{"log.Path", "LOG_PATH", ""},
	{"log.MaxSizeMB", "LOG_MAX_SIZE_MB", 100},
	{"log.MaxBackups", "LOG_MAX_BACKUPS", 3},
	{"log.MaxAgeDays", "LOG_MAX_AGE_DAYS", 7},
	{"log.Compress", "LOG_COMPRESS", false},
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: .env -> config/config.json -> defaults -> environment variable overrides
	_ = godotenv.Load()

	v := NewViper()
	v.SetConfigFile(filepath.Join("config", "config.json"))
	if err := v.ReadInConfig(); err != nil {
		// missing file is fine, broken JSON is not
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("invalid config file: %v", err)
		}
	}

	cfg = FromViper(v)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// NewViper returns a viper instance with every setting's default and env binding registered.
func NewViper() *viper.Viper {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		_ = v.BindEnv(s.key, s.env)
	}
	return v
}

// FromViper maps the viper key space onto AppConfig.
func FromViper(v *viper.Viper) AppConfig {
	return AppConfig{
		AppPort:            v.GetString("app.AppPort"),
		JWTSecret:          v.GetString("app.JWTSecret"),
		TokenTTL:           time.Duration(v.GetInt("app.TokenTTLHours")) * time.Hour,
		RateLimitPerMinute: v.GetInt("app.RateLimitPerMinute"),
		AllowedOrigins:     getList(v, "app.AllowedOrigins"),
		AdminUsernames:     getList(v, "app.AdminUsernames"),
		MediaRoot:          v.GetString("app.MediaRoot"),
		MediaURLPrefix:     strings.TrimRight(v.GetString("app.MediaURLPrefix"), "/"),
		DBDriver:           strings.ToLower(v.GetString("database.Driver")),
		DatabaseURI:        v.GetString("database.DatabaseURI"),
		DBHost:             v.GetString("database.DBHost"),
		DBPort:             v.GetString("database.DBPort"),
		DBUser:             v.GetString("database.DBUser"),
		DBPassword:         v.GetString("database.DBPassword"),
		DBName:             v.GetString("database.DBName"),
		DBMigrate:          v.GetBool("database.Migrate"),
		RedisHost:          v.GetString("redis.RedisHost"),
		RedisPort:          v.GetInt("redis.RedisPort"),
		RedisDB:            v.GetInt("redis.RedisDB"),
		RedisPassword:      v.GetString("redis.RedisPassword"),
		IndexCacheTTL:      time.Duration(v.GetInt("cache.IndexTTLSeconds")) * time.Second,
		KafkaBrokers:       getList(v, "kafka.Brokers"),
		KafkaTopic:         v.GetString("kafka.Topic"),
		KafkaWriteTimeout:  parseDuration(v.GetString("kafka.WriteTimeout"), 10*time.Second),
		GinMode:            v.GetString("gin.Mode"),
		GinPath:            v.GetString("gin.LogPath"),
		LogLevel:           v.GetString("log.Level"),
		LogPath:            v.GetString("log.Path"),
		LogMaxSizeMB:       v.GetInt("log.MaxSizeMB"),
		LogMaxBackups:      v.GetInt("log.MaxBackups"),
		LogMaxAgeDays:      v.GetInt("log.MaxAgeDays"),
		LogCompress:        v.GetBool("log.Compress"),
	}
}

// Validate reports missing mandatory settings.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in environment variables")
	}
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return errors.New("DATABASE_DRIVER must be mysql or postgres")
	}
	return nil
}

// IsAdmin checks whether given username is configured as an admin (case-insensitive).
func (c AppConfig) IsAdmin(username string) bool {
	uname := strings.TrimSpace(username)
	if uname == "" {
		return false
	}
	for _, u := range c.AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}

// getList accepts both JSON arrays and comma separated env strings.
func getList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		return splitAndTrim(raw)
	}
	return v.GetStringSlice(key)
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}
	return res
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
