package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Game       GameConfig       `yaml:"game"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Records    RecordsConfig    `yaml:"records"`
	Redis      RedisConfig      `yaml:"redis"`
	Security   SecurityConfig   `yaml:"security"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig 监听配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`      // HTTP：/ws RPC 与管理接口
	LinePort       int    `yaml:"line_port"` // 行协议 TCP 端口
	MaxConnections int    `yaml:"max_connections"`
}

// GameConfig 游戏配置
type GameConfig struct {
	MinWords         int `yaml:"min_words"`          // 棋盘最少解词数
	MaxBoardAttempts int `yaml:"max_board_attempts"` // 生成棋盘最大尝试次数，0 表示不限
	RoundsPerSession int `yaml:"rounds_per_session"` // 每局回合数
	MaxPlayers       int `yaml:"max_players"`        // 单局最大人数
	BarrierTimeout   int `yaml:"barrier_timeout"`    // 回合同步等待超时（秒）
	SessionTimeout   int `yaml:"session_timeout"`    // 会话空闲超时（分钟）
	RoundSeconds     int `yaml:"round_seconds"`      // 每回合时长（秒），仅供客户端使用
}

// DictionaryConfig 词典配置
type DictionaryConfig struct {
	Path string `yaml:"path"`
}

// RecordsConfig 记录存储配置
type RecordsConfig struct {
	Backend string `yaml:"backend"` // file | redis
	Path    string `yaml:"path"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SecurityConfig 限流配置
type SecurityConfig struct {
	CommandsPerSecond int      `yaml:"commands_per_second"`
	Burst             int      `yaml:"burst"`
	TrustProxy        bool     `yaml:"trust_proxy"` // 是否信任 X-Forwarded-For / X-Real-IP
	AdminAllow        []string `yaml:"admin_allow"` // 允许访问管理接口的对端网段
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// BarrierTimeoutDuration 返回回合同步等待超时时长
func (c *GameConfig) BarrierTimeoutDuration() time.Duration {
	return time.Duration(c.BarrierTimeout) * time.Second
}

// SessionTimeoutDuration 返回会话空闲超时时长
func (c *GameConfig) SessionTimeoutDuration() time.Duration {
	return time.Duration(c.SessionTimeout) * time.Minute
}

// RoundDuration 返回回合时长
func (c *GameConfig) RoundDuration() time.Duration {
	return time.Duration(c.RoundSeconds) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

// LoadDotEnv 加载 .env 文件（不存在时忽略）
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// applyDefaults 设置默认值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 1780
	}
	if c.Server.LinePort == 0 {
		c.Server.LinePort = c.Server.Port + 1
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = 1000
	}
	if c.Game.MinWords == 0 {
		c.Game.MinWords = 15
	}
	if c.Game.RoundsPerSession == 0 {
		c.Game.RoundsPerSession = 3
	}
	if c.Game.MaxPlayers == 0 {
		c.Game.MaxPlayers = 16
	}
	if c.Game.BarrierTimeout == 0 {
		c.Game.BarrierTimeout = 300
	}
	if c.Game.SessionTimeout == 0 {
		c.Game.SessionTimeout = 30
	}
	if c.Game.RoundSeconds == 0 {
		c.Game.RoundSeconds = 60
	}
	if c.Dictionary.Path == "" {
		c.Dictionary.Path = "resources/dictionary.txt"
	}
	if c.Records.Backend == "" {
		c.Records.Backend = "file"
	}
	if c.Records.Path == "" {
		c.Records.Path = "server.records"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Security.CommandsPerSecond == 0 {
		c.Security.CommandsPerSecond = 20
	}
	if len(c.Security.AdminAllow) == 0 {
		c.Security.AdminAllow = []string{"127.0.0.0/8", "::1/128"}
	}
	if c.Security.Burst == 0 {
		c.Security.Burst = 2 * c.Security.CommandsPerSecond
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// applyEnv 环境变量覆盖配置文件
func (c *Config) applyEnv() {
	if v := os.Getenv("BOGGLE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v, ok := envInt("BOGGLE_PORT"); ok {
		c.Server.Port = v
	}
	if v, ok := envInt("BOGGLE_LINE_PORT"); ok {
		c.Server.LinePort = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DICTIONARY_PATH"); v != "" {
		c.Dictionary.Path = v
	}
	if v := os.Getenv("RECORDS_PATH"); v != "" {
		c.Records.Path = v
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
