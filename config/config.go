package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Data source names.
const (
	DataSourceMock     = "mock"
	DataSourceDatabase = "database"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`

	DBDriver string `json:"dbdriver"`
	DBPath   string `json:"dbpath"`
	DBHost   string `json:"dbhost"`
	DBPort   uint16 `json:"dbport"`
	DBName   string `json:"dbname"`
	DBUSER   string `json:"dbuser"`
	DBPass   string `json:"-"`

	DataSource      string        `json:"data_source"`
	DetectDelay     time.Duration `json:"detect_delay"`
	LookupTimeout   time.Duration `json:"lookup_timeout"`
	SourceLatency   time.Duration `json:"source_latency"`
	MockFailure     string        `json:"mock_failure"`
	FaceSignature   string        `json:"face_signature"`
	PatientCacheTTL time.Duration `json:"patient_cache_ttl"`

	RateLimit  int           `json:"rate_limit"`
	RateWindow time.Duration `json:"rate_window"`
	LogLevel   string        `json:"log_level"`

	RedisEnabled  bool   `json:"redis_enabled"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redis_db"`
}

// IsTest reports whether the app runs with APPENV=test.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file when present, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file loaded, using process environment", "error", err)
		}
		config = FromEnv()
	})
	return config
}

// ResetConfigForTest drops the cached Config so the next LoadConfig reads
// the environment again.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

// FromEnv builds a Config from the process environment, applying defaults
// for unset or malformed values.
func FromEnv() *Config {
	return &Config{
		AppName: envString("APPNAME", "Patient Check-In"),
		AppEnv:  envString("APPENV", "development"),
		AppPort: uint16(envUint("APPPORT", 8080, 16)),
		GinMode: envString("GINMODE", "debug"),

		DBDriver: strings.ToLower(envString("DBDRIVER", DriverSQLite)),
		DBPath:   envString("DBPATH", "checkin.db"),
		DBHost:   envString("DBHOST", "localhost"),
		DBPort:   uint16(envUint("DBPORT", 3306, 16)),
		DBName:   os.Getenv("DBNAME"),
		DBUSER:   os.Getenv("DBUSER"),
		DBPass:   os.Getenv("DBPASS"),

		DataSource:      strings.ToLower(envString("DATA_SOURCE", DataSourceMock)),
		DetectDelay:     envMillis("DETECT_DELAY_MS", 2000*time.Millisecond),
		LookupTimeout:   envMillis("LOOKUP_TIMEOUT_MS", 0),
		SourceLatency:   envMillis("SOURCE_LATENCY_MS", 500*time.Millisecond),
		MockFailure:     os.Getenv("MOCK_FAILURE"),
		FaceSignature:   envString("FACE_SIGNATURE", "face:jane-doe"),
		PatientCacheTTL: time.Duration(envUint("PATIENT_CACHE_TTL_SECONDS", 300, 32)) * time.Second,

		RateLimit:  int(envUint("RATE_LIMIT", 30, 32)),
		RateWindow: time.Duration(envUint("RATE_WINDOW_SECONDS", 60, 32)) * time.Second,
		LogLevel:   envString("LOG_LEVEL", "info"),

		RedisEnabled:  envBool("REDIS_ENABLED", false),
		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       int(envUint("REDIS_DB", 0, 8)),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envUint(key string, def uint64, bits int) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(os.Getenv(key)), 10, bits)
	if err != nil {
		return def
	}
	return v
}

func envMillis(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	ms, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

// ConnectDatabase opens the database named by cfg. APPENV=test always uses
// a private in-memory sqlite database.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case cfg.IsTest():
		// One connection so every query sees the same in-memory database.
		db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case cfg.DBDriver == DriverMySQL:
		// Build the Data Source Name (DSN) using the configuration values.
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	case cfg.DBDriver == DriverSQLite:
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	return db, nil
}
