// backend-go/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Calendar CalendarConfig
	Forecast ForecastConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MaxConcurrentTx bounds the number of in-flight write transactions.
	MaxConcurrentTx int64
}

type AppConfig struct {
	// StoreBackend selects the persistence implementation: "postgres" or "memory".
	StoreBackend string
	DataDir      string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	HolidayTTLSeconds int
}

type CalendarConfig struct {
	BaseURL        string
	TimeoutMS      int
	RatePerSecond  float64
	LRUSize        int
	LRUTTLSeconds  int
	BreakerTimeout int
}

type ForecastConfig struct {
	TimeoutMS      int
	IntervalWidth  float64
	DefaultHorizon int
	HistoryStart   string
	Workers        int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Timeout returns the calendar lookup timeout.
func (c CalendarConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Timeout returns the model fit deadline.
func (c ForecastConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "venda_certa")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("DB_MAX_CONCURRENT_TX", 10)
		viper.SetDefault("STORE_BACKEND", "postgres")
		viper.SetDefault("APP_DATA_DIR", "./data")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_HOLIDAY_TTL_SECONDS", 7*24*60*60)
		viper.SetDefault("CALENDAR_BASE_URL", "https://brasilapi.com.br")
		viper.SetDefault("CALENDAR_TIMEOUT_MS", 3000)
		viper.SetDefault("CALENDAR_RATE_PER_SECOND", 5.0)
		viper.SetDefault("CALENDAR_LRU_SIZE", 64)
		viper.SetDefault("CALENDAR_LRU_TTL_SECONDS", 24*60*60)
		viper.SetDefault("CALENDAR_BREAKER_TIMEOUT_SECONDS", 60)
		viper.SetDefault("FORECAST_TIMEOUT_MS", 10000)
		viper.SetDefault("FORECAST_INTERVAL_WIDTH", 0.80)
		viper.SetDefault("FORECAST_DEFAULT_HORIZON", 30)
		viper.SetDefault("FORECAST_HISTORY_START", "2021-01-01")
		viper.SetDefault("FORECAST_WORKERS", 4)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				LogLevel:       viper.GetString("LOG_LEVEL"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:            viper.GetString("DB_HOST"),
				Port:            viper.GetString("DB_PORT"),
				User:            viper.GetString("DB_USER"),
				Password:        viper.GetString("DB_PASSWORD"),
				DBName:          viper.GetString("DB_NAME"),
				SSLMode:         viper.GetString("DB_SSLMODE"),
				MaxConcurrentTx: viper.GetInt64("DB_MAX_CONCURRENT_TX"),
			},
			App: AppConfig{
				StoreBackend: viper.GetString("STORE_BACKEND"),
				DataDir:      viper.GetString("APP_DATA_DIR"),
			},
			Cache: CacheConfig{
				Enabled:           viper.GetBool("CACHE_ENABLED"),
				RedisURL:          viper.GetString("REDIS_URL"),
				RedisHost:         viper.GetString("REDIS_HOST"),
				RedisPort:         viper.GetString("REDIS_PORT"),
				RedisPassword:     viper.GetString("REDIS_PASSWORD"),
				RedisDB:           viper.GetInt("REDIS_DB"),
				HolidayTTLSeconds: viper.GetInt("CACHE_HOLIDAY_TTL_SECONDS"),
			},
			Calendar: CalendarConfig{
				BaseURL:        viper.GetString("CALENDAR_BASE_URL"),
				TimeoutMS:      viper.GetInt("CALENDAR_TIMEOUT_MS"),
				RatePerSecond:  viper.GetFloat64("CALENDAR_RATE_PER_SECOND"),
				LRUSize:        viper.GetInt("CALENDAR_LRU_SIZE"),
				LRUTTLSeconds:  viper.GetInt("CALENDAR_LRU_TTL_SECONDS"),
				BreakerTimeout: viper.GetInt("CALENDAR_BREAKER_TIMEOUT_SECONDS"),
			},
			Forecast: ForecastConfig{
				TimeoutMS:      viper.GetInt("FORECAST_TIMEOUT_MS"),
				IntervalWidth:  viper.GetFloat64("FORECAST_INTERVAL_WIDTH"),
				DefaultHorizon: viper.GetInt("FORECAST_DEFAULT_HORIZON"),
				HistoryStart:   viper.GetString("FORECAST_HISTORY_START"),
				Workers:        viper.GetInt("FORECAST_WORKERS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
