package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Gemini   Gemini
	Grading  Grading
	LogLevel string
}

type Server struct {
	Port    string
	GinMode string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Redis is optional. An empty Addr disables the read cache.
type Redis struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type Gemini struct {
	ApiKey string
	Model  string
}

type Grading struct {
	NormalizeAnswers bool
	AITimeout        time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL", "10m")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("GRADING_NORMALIZE_ANSWERS", false)
	viper.SetDefault("AI_GRADING_TIMEOUT", "60s")
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.CacheTTL = viper.GetDuration("CACHE_TTL")

	config.Gemini.ApiKey = viper.GetString("GEMINI_API_KEY")
	config.Gemini.Model = viper.GetString("GEMINI_MODEL")

	config.Grading.NormalizeAnswers = viper.GetBool("GRADING_NORMALIZE_ANSWERS")
	config.Grading.AITimeout = viper.GetDuration("AI_GRADING_TIMEOUT")

	config.LogLevel = viper.GetString("LOG_LEVEL")

	log.Info().
		Str("port", config.Server.Port).
		Str("dbHost", config.Database.Host).
		Str("dbName", config.Database.Name).
		Bool("cacheEnabled", config.Redis.Addr != "").
		Bool("aiGradingEnabled", config.Gemini.ApiKey != "").
		Msg("Config loaded")
	return &config, nil

}
