package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Points   PointsConfig   `mapstructure:"points"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// PublicURL is the browser-facing base URL used in registration links.
	PublicURL          string   `mapstructure:"public_url"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	// Driver selects the store: "mongo" or "memory".
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AuthConfig controls account bootstrap.
type AuthConfig struct {
	// BootstrapCoachEmail registers as a coach instead of a member.
	BootstrapCoachEmail string `mapstructure:"bootstrap_coach_email"`
}

// RedisConfig configures the leaderboard cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// PointsConfig holds the scoring policy.
type PointsConfig struct {
	TrainingPoints int `mapstructure:"training_points"`
	// AllowRepeatAwards lets an item be awarded to the same member more than once.
	AllowRepeatAwards bool `mapstructure:"allow_repeat_awards"`
	// NarrateAttendanceReversals writes a negative ledger entry when attendance is withdrawn.
	NarrateAttendanceReversals bool     `mapstructure:"narrate_attendance_reversals"`
	Timezone                   string   `mapstructure:"timezone"`
	HistoryPageSize            int      `mapstructure:"history_page_size"`
	ProfileHistory             int      `mapstructure:"profile_history"`
	TournamentKeywords         []string `mapstructure:"tournament_keywords"`
}

// Location resolves Timezone, falling back to the process-local zone.
func (p PointsConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(p.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_minute", 120)
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "team_points")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("redis.ttl", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("points.training_points", 10)
	v.SetDefault("points.allow_repeat_awards", true)
	v.SetDefault("points.narrate_attendance_reversals", false)
	v.SetDefault("points.timezone", "Local")
	v.SetDefault("points.history_page_size", 50)
	v.SetDefault("points.profile_history", 20)
	v.SetDefault("points.tournament_keywords", []string{"turnier", "tournament"})
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars: server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Running on defaults and env vars only.
		err = nil
	} else if err != nil {
		return
	}

	// Duration strings ("60m", "1h") decode straight into time.Duration fields.
	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if _, err = config.Points.Location(); err != nil {
		return
	}
	return config, nil
}
