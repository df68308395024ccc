package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Game     GameConfig     `mapstructure:"game"`
	Loop     LoopConfig     `mapstructure:"loop"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	WorkerCount   int           `mapstructure:"worker_count"`
	BufferSize    int           `mapstructure:"buffer_size"`
}

// DatabaseConfig 历史战绩库；Driver 为 postgres 或 sqlite
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Path            string        `mapstructure:"path"` // sqlite 文件路径
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type HTTPConfig struct {
	Addr string     `mapstructure:"addr"`
	Mode string     `mapstructure:"mode"` // gin 模式：debug/release/test
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// GameConfig 棋盘与会话配置
type GameConfig struct {
	Cols          int           `mapstructure:"cols"`
	Rows          int           `mapstructure:"rows"`
	MaxBoardSize  int           `mapstructure:"max_board_size"`
	Lives         int           `mapstructure:"lives"`
	MaxGames      int           `mapstructure:"max_games"`
	EvictTimeout  time.Duration `mapstructure:"evict_timeout"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
	RecordTimeout time.Duration `mapstructure:"record_timeout"`
	HighScores    int           `mapstructure:"high_scores"` // 高分榜保留条数
}

// LoopConfig 循环计时时间轮
type LoopConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	SlotCount    int           `mapstructure:"slot_count"`
	WorkerCount  int           `mapstructure:"worker_count"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tetrecs")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.worker_count", 32)
	v.SetDefault("nats.buffer_size", 4096)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "tetrecs.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("http.addr", ":8081")
	v.SetDefault("http.mode", "release")
	v.SetDefault("http.cors.allowed_origins", []string{"*"})
	v.SetDefault("http.cors.allowed_methods", []string{"GET", "OPTIONS"})

	v.SetDefault("game.cols", 5)
	v.SetDefault("game.rows", 5)
	v.SetDefault("game.max_board_size", 32)
	v.SetDefault("game.lives", 3)
	v.SetDefault("game.max_games", 10000)
	v.SetDefault("game.evict_timeout", 10*time.Minute)
	v.SetDefault("game.evict_interval", time.Minute)
	v.SetDefault("game.record_timeout", 5*time.Second)
	v.SetDefault("game.high_scores", 10)

	v.SetDefault("loop.tick_interval", 100*time.Millisecond)
	v.SetDefault("loop.slot_count", 60)
	v.SetDefault("loop.worker_count", 8)
}

// Load 从指定路径加载配置，TETRECS_ 前缀的环境变量覆盖文件，例如 TETRECS_REDIS_HOST
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TETRECS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
