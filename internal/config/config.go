// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
	Assigner   AssignerConfig   `yaml:"assigner"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Travel     TravelConfig     `yaml:"travel"`
	Geocode    GeocodeConfig    `yaml:"geocode"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis配置（地理编码缓存用）
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Addr 返回Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig API配置
type APIConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// AssignerConfig 分配引擎配置
type AssignerConfig struct {
	MaxCandidates   int     `yaml:"max_candidates"`
	SmartMatchScore float64 `yaml:"smart_match_score"`
}

// SchedulingConfig 时段查找配置
type SchedulingConfig struct {
	HorizonDays       int `yaml:"horizon_days"`        // 自动分配搜索窗口（天）
	PreviewDays       int `yaml:"preview_days"`        // 人工界面时段预览窗口（天）
	MaxVisitsPerDay   int `yaml:"max_visits_per_day"`  // 每人每日访视上限
	SlotBufferMinutes int `yaml:"slot_buffer_minutes"` // 相邻访视间最小间隔
}

// TravelConfig 路上时间估算配置
type TravelConfig struct {
	AverageSpeedKmh   float64 `yaml:"average_speed_kmh"`
	DetourFactor      float64 `yaml:"detour_factor"`
	BufferMinutes     int     `yaml:"buffer_minutes"`
	DefaultZoneMin    int     `yaml:"default_zone_minutes"`
	UnknownPairMin    int     `yaml:"unknown_pair_minutes"`
	StartZone         string  `yaml:"start_zone"`
}

// GeocodeConfig 地理编码配置
type GeocodeConfig struct {
	BaseURL    string        `yaml:"base_url"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	// 地理编码结果必须落在服务城市边界内，越界的结果丢弃
	BoundsMinLat float64 `yaml:"bounds_min_lat"`
	BoundsMaxLat float64 `yaml:"bounds_max_lat"`
	BoundsMinLng float64 `yaml:"bounds_min_lng"`
	BoundsMaxLng float64 `yaml:"bounds_max_lng"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "kotihoito"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7019),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "kotihoito"),
			User:            getEnv("DB_USER", "kotihoito"),
			Password:        getEnv("DB_PASSWORD", "kotihoito123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		API: APIConfig{
			Timeout: getEnvDuration("API_TIMEOUT", 30*time.Second),
		},
		Assigner: AssignerConfig{
			MaxCandidates:   getEnvInt("ASSIGNER_MAX_CANDIDATES", 5),
			SmartMatchScore: getEnvFloat("ASSIGNER_SMART_MATCH_SCORE", 85),
		},
		Scheduling: SchedulingConfig{
			HorizonDays:       getEnvInt("SCHEDULING_HORIZON_DAYS", 14),
			PreviewDays:       getEnvInt("SCHEDULING_PREVIEW_DAYS", 7),
			MaxVisitsPerDay:   getEnvInt("SCHEDULING_MAX_VISITS_PER_DAY", 4),
			SlotBufferMinutes: getEnvInt("SCHEDULING_SLOT_BUFFER_MINUTES", 15),
		},
		Travel: TravelConfig{
			AverageSpeedKmh: getEnvFloat("TRAVEL_AVERAGE_SPEED_KMH", 30),
			DetourFactor:    getEnvFloat("TRAVEL_DETOUR_FACTOR", 1.3),
			BufferMinutes:   getEnvInt("TRAVEL_BUFFER_MINUTES", 5),
			DefaultZoneMin:  getEnvInt("TRAVEL_DEFAULT_ZONE_MINUTES", 15),
			UnknownPairMin:  getEnvInt("TRAVEL_UNKNOWN_PAIR_MINUTES", 20),
			StartZone:       getEnv("TRAVEL_START_ZONE", "Keskusta (City Center)"),
		},
		Geocode: GeocodeConfig{
			BaseURL:    getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:  getEnv("GEOCODE_USER_AGENT", "kotihoito/1.0"),
			Timeout:    getEnvDuration("GEOCODE_TIMEOUT", 10*time.Second),
			RetryCount: getEnvInt("GEOCODE_RETRY_COUNT", 2),
			CacheTTL:   getEnvDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour),
			// 奥卢市及周边
			BoundsMinLat: getEnvFloat("GEOCODE_BOUNDS_MIN_LAT", 64.8),
			BoundsMaxLat: getEnvFloat("GEOCODE_BOUNDS_MAX_LAT", 65.2),
			BoundsMinLng: getEnvFloat("GEOCODE_BOUNDS_MIN_LNG", 25.2),
			BoundsMaxLng: getEnvFloat("GEOCODE_BOUNDS_MAX_LNG", 25.8),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
