package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Postgres    DBConfig
	Redis       RedisConfig
	S3          S3Config
	Logger      Logger
	Bilibili    BilibiliConfig
	Downloader  DownloaderConfig
	Transcriber TranscriberConfig
	RateLimit   RateLimitConfig
	Retry       RetryConfig
	Batch       BatchConfig
	Worker      WorkerConfig
	Tasks       TasksConfig
}

type ServerConfig struct {
	AppVersion   string
	Port         string
	Mode         string
	JwtSecretKey string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	BatchQueueKey string
}

type S3Config struct {
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	AudioBucket string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// BilibiliConfig carries the session cookies the signed API requires.
type BilibiliConfig struct {
	Sessdata  string
	BiliJct   string
	Buvid3    string
	UserAgent string
}

type DownloaderConfig struct {
	BinaryPath     string
	DownloadDir    string
	RetentionHours int
}

type TranscriberConfig struct {
	BinaryPath string
	Model      string
	OutputDir  string
}

type RateLimitConfig struct {
	QPS float64
	TPM int
}

type RetryConfig struct {
	MaxRetries   int
	DelaySeconds int
}

type BatchConfig struct {
	MinDelaySeconds float64
	MaxDelaySeconds float64
}

type WorkerConfig struct {
	WorkerCount int
	MaxCPUUsage float64
}

type TasksConfig struct {
	TTLSeconds   int
	SweepSeconds int
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.Is(err, configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
