package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	History HistoryConfig
	Redis   RedisConfig
	Weather WeatherConfig
	Engine  EngineConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host                 string
	Port                 int
	ReadTimeout          int
	WriteTimeout         int
	BodyLimit            int
	MaxRequestsPerMinute int
}

type StorageConfig struct {
	KnowledgePath string
}

type HistoryConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type WeatherConfig struct {
	APIKey      string
	BaseURL     string
	Units       string
	Lang        string
	TimeoutSec  int
	CacheTTLMin int
}

type EngineConfig struct {
	ConfidenceThreshold float64
	AutoLearn           bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/nix-ai")

	viper.SetEnvPrefix("NIX_AI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)
	viper.SetDefault("server.maxRequestsPerMinute", 60)

	viper.SetDefault("storage.knowledgePath", "./data/knowledge.json")

	viper.SetDefault("history.path", "./data/history.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("weather.apiKey", "")
	viper.SetDefault("weather.baseURL", "http://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("weather.units", "metric")
	viper.SetDefault("weather.lang", "ru")
	viper.SetDefault("weather.timeoutSec", 10)
	viper.SetDefault("weather.cacheTTLMin", 30)

	viper.SetDefault("engine.confidenceThreshold", 0.3)
	viper.SetDefault("engine.autoLearn", true)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
