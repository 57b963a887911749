package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/testuser-console/internal/constants"
	"github.com/testuser-console/internal/logger"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 TUC_API_TOKEN
const EnvPrefix = "TUC"

// Config 控制台配置结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	API     APIConfig     `mapstructure:"api"`
	Console ConsoleConfig `mapstructure:"console"`
	Redis   RedisConfig   `mapstructure:"redis"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig 视图绑定服务配置（console serve）
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
	// AccessSecret 非空时 /api/console 需要 HS256 Bearer 令牌
	AccessSecret string          `mapstructure:"access_secret"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`

	ReadHeaderTimeoutSeconds int `mapstructure:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int `mapstructure:"read_timeout_seconds"`
	IdleTimeoutSeconds       int `mapstructure:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds   int `mapstructure:"shutdown_timeout_seconds"`
}

// Timeouts HTTP 服务超时，未配置的项取默认值
func (c ServerConfig) Timeouts() ServerTimeouts {
	return ServerTimeouts{
		ReadHeader: secondsOr(c.ReadHeaderTimeoutSeconds, 10),
		Read:       secondsOr(c.ReadTimeoutSeconds, 30),
		Idle:       secondsOr(c.IdleTimeoutSeconds, 120),
		Shutdown:   secondsOr(c.ShutdownTimeoutSeconds, 10),
	}
}

// ServerTimeouts HTTP 服务超时
type ServerTimeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
}

func secondsOr(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

// RateLimitConfig 删除与提交接口的频率限制，依赖 Redis
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// APIConfig 远程测试用户接口配置
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Timeout 请求超时
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ConsoleConfig 列表控制器配置
type ConsoleConfig struct {
	PageSize              int  `mapstructure:"page_size"`
	LoadingFloorMS        int  `mapstructure:"loading_floor_ms"`
	DiscardStaleResponses bool `mapstructure:"discard_stale_responses"`
	Color                 bool `mapstructure:"color"`
	PromptTimeoutSeconds  int  `mapstructure:"prompt_timeout_seconds"`
	AutoRefreshSeconds    int  `mapstructure:"auto_refresh_seconds"`
}

// PromptTimeout 接口确认框等待时长
func (c ConsoleConfig) PromptTimeout() time.Duration {
	if c.PromptTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.PromptTimeoutSeconds) * time.Second
}

// AutoRefresh 定时刷新间隔，0 表示关闭
func (c ConsoleConfig) AutoRefresh() time.Duration {
	if c.AutoRefreshSeconds <= 0 {
		return 0
	}
	return time.Duration(c.AutoRefreshSeconds) * time.Second
}

// LoadingFloor 加载态最短展示时间
func (c ConsoleConfig) LoadingFloor() time.Duration {
	if c.LoadingFloorMS <= 0 {
		return 0
	}
	return time.Duration(c.LoadingFloorMS) * time.Millisecond
}

// RedisConfig 详情缓存配置
type RedisConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Mode             string `mapstructure:"mode"` // remote / memory
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	Prefix           string `mapstructure:"prefix"`
	DetailTTLSeconds int    `mapstructure:"detail_ttl_seconds"`
}

// DetailTTL 详情缓存有效期
func (c RedisConfig) DetailTTL() time.Duration {
	if c.DetailTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.DetailTTLSeconds) * time.Second
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 加载配置；path 为空时按默认路径查找 config.yml，找不到则使用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	path = strings.TrimSpace(path)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./etc")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".testuser-console"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		logger.Debugw("config_file_not_found", "fallback", "env_or_defaults")
	} else {
		logger.Debugw("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("配置解析失败: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8848")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.access_secret", "")
	v.SetDefault("server.rate_limit.window_seconds", 60)
	v.SetDefault("server.rate_limit.max_requests", 30)
	v.SetDefault("server.read_header_timeout_seconds", 10)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 120)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "console.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("api.base_url", "http://127.0.0.1:8000/api/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_ms", 10000)
	v.SetDefault("console.page_size", constants.DefaultPageSize)
	v.SetDefault("console.loading_floor_ms", 500)
	v.SetDefault("console.discard_stale_responses", true)
	v.SetDefault("console.color", true)
	v.SetDefault("console.prompt_timeout_seconds", 300)
	v.SetDefault("console.auto_refresh_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.mode", "remote")
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "tuc")
	v.SetDefault("redis.detail_ttl_seconds", 60)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.API.Token = strings.TrimSpace(c.API.Token)
	c.Server.AccessSecret = strings.TrimSpace(c.Server.AccessSecret)
	if c.Console.PageSize <= 0 {
		c.Console.PageSize = constants.DefaultPageSize
	}
	if c.Console.PageSize > constants.MaxPageSize {
		c.Console.PageSize = constants.MaxPageSize
	}
	c.Redis.Mode = strings.ToLower(strings.TrimSpace(c.Redis.Mode))
	if c.Redis.Mode == "" {
		c.Redis.Mode = "remote"
	}
	if strings.TrimSpace(c.Metrics.Path) == "" {
		c.Metrics.Path = "/metrics"
	}
}
