package config

import (
	"strings"
	"time"

	"github.com/blues/escrow/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Escrow    EscrowConfig    `mapstructure:"escrow"`
	Task      TaskConfig      `mapstructure:"task"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	Mode         string   `mapstructure:"mode"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径，":memory:" 为内存库
}

// ChainConfig 单链配置
type ChainConfig struct {
	ChainId         int64         `mapstructure:"chain_id"`         // 链ID
	RpcUrl          string        `mapstructure:"rpc_url"`          // RPC节点URL
	PrivateKey      string        `mapstructure:"private_key"`      // 托管钱包私钥（十六进制）
	ReceiptContract string        `mapstructure:"receipt_contract"` // 收据 ERC-721 合约地址
	GasLimit        uint64        `mapstructure:"gas_limit"`        // 铸造交易 gas 上限，0 为自动估算
	ReceiptTimeout  time.Duration `mapstructure:"receipt_timeout"`  // 交易发出后等待回执的最长时间
}

// EscrowConfig 托管引擎配置
type EscrowConfig struct {
	DurationUnit         time.Duration `mapstructure:"duration_unit"`           // durationDays 的单位
	RequireMinWithinGoal bool          `mapstructure:"require_min_within_goal"` // 最小贡献额不得超过目标金额
	AllowZeroGoal        bool          `mapstructure:"allow_zero_goal"`         // 允许目标金额为 0
	Collaborators        string        `mapstructure:"collaborators"`           // memory, chain
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
	Workers  int `mapstructure:"workers"`  // 协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// RateLimitConfig 写接口限流
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "escrow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "escrow.db")
	v.SetDefault("chain.chain_id", 1)
	v.SetDefault("chain.gas_limit", 0)
	v.SetDefault("chain.receipt_timeout", "2m")
	v.SetDefault("escrow.duration_unit", "24h")
	v.SetDefault("escrow.require_min_within_goal", true)
	v.SetDefault("escrow.allow_zero_goal", true)
	v.SetDefault("escrow.collaborators", "memory")
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.workers", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("rate_limit.rps", 50)
	v.SetDefault("rate_limit.burst", 100)
}

// Load 从 config.yaml 与环境变量加载配置，如 ESCROW_DATABASE_HOST
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/escrow")

	cfg, err := load(v)
	if err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}
	return cfg
}

func load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// 自动读取环境变量
	v.SetEnvPrefix("escrow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
