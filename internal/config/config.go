package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "STRANDED_"

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 1000
	defaultRedisAddr      = "localhost:6379"
	defaultOxygen         = 6
	defaultLogLevel       = "info"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"` // 最大并发连接数
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig Redis 配置，关闭时房间目录镜像为空操作
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	StartingOxygen int `yaml:"starting_oxygen"`
}

// SecurityConfig 连接安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 按 IP 的连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 封禁时长（秒）
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// AuthConfig 身份令牌配置，密钥为空时不校验
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
	File   string `yaml:"file"`   // 为空时输出到 stdout
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           defaultHost,
			Port:           defaultPort,
			MaxConnections: defaultMaxConnections,
		},
		Redis: RedisConfig{
			Addr: defaultRedisAddr,
		},
		Game: GameConfig{
			StartingOxygen: defaultOxygen,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				MaxPerSecond: 10,
				MaxPerMinute: 60,
				BanDuration:  60,
			},
			MessageLimit: MessageLimitConfig{
				MaxPerSecond: 20,
			},
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: "text",
		},
	}
}

// Load 加载配置文件，文件中未出现的字段保留默认值，随后应用环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// LoadDotEnv 加载 .env 文件到进程环境，文件不存在时忽略
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv 用 STRANDED_* 环境变量覆盖配置
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"HOST":           &c.Server.Host,
		"REDIS_ADDR":     &c.Redis.Addr,
		"REDIS_PASSWORD": &c.Redis.Password,
		"JWT_SECRET":     &c.Auth.JWTSecret,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":            &c.Server.Port,
		"MAX_CONNECTIONS": &c.Server.MaxConnections,
		"REDIS_DB":        &c.Redis.DB,
		"STARTING_OXYGEN": &c.Game.StartingOxygen,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		var origins []string
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Security.AllowedOrigins = origins
	}

	if v, ok := os.LookupEnv(EnvPrefix + "REDIS_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_ENABLED=%q: %w", EnvPrefix, v, err)
		}
		c.Redis.Enabled = b
	}
	return nil
}

// fillDefaults 修正被显式置零的字段
func (c *Config) fillDefaults() {
	def := Default()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port <= 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.MaxConnections <= 0 {
		c.Server.MaxConnections = def.Server.MaxConnections
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = def.Redis.Addr
	}
	if c.Game.StartingOxygen <= 0 {
		c.Game.StartingOxygen = def.Game.StartingOxygen
	}
	if c.Security.RateLimit.MaxPerSecond <= 0 {
		c.Security.RateLimit.MaxPerSecond = def.Security.RateLimit.MaxPerSecond
	}
	if c.Security.RateLimit.MaxPerMinute <= 0 {
		c.Security.RateLimit.MaxPerMinute = def.Security.RateLimit.MaxPerMinute
	}
	if c.Security.MessageLimit.MaxPerSecond <= 0 {
		c.Security.MessageLimit.MaxPerSecond = def.Security.MessageLimit.MaxPerSecond
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = def.Security.AllowedOrigins
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
