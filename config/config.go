package config

import (
	"time"

	"guardpost/internal/logger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret            string `mapstructure:"JWT_SECRET"`

	// OperationalTimezone is the single IANA zone all scheduling arithmetic
	// runs in. Instants are stored in UTC; this zone is only used for
	// calendar-day math.
	OperationalTimezone string `mapstructure:"OPERATIONAL_TIMEZONE"`

	// ClockInGraceMinutes bounds how far around a shift's scheduled start a
	// guard may clock in.
	ClockInGraceMinutes int `mapstructure:"CLOCK_IN_GRACE_MINUTES"`

	// MissedEventGraceMinutes is how long past a shift's scheduled end the
	// sweep waits before promoting missing clock events into missed-* states.
	MissedEventGraceMinutes int `mapstructure:"MISSED_EVENT_GRACE_MINUTES"`

	SchedulerEnabled bool `mapstructure:"SCHEDULER_ENABLED"`
}

var ConfigInstance Config

func InitConfig() (Config, error) {
	log := logger.New("config").Function("InitConfig")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
		"CORS_ALLOW_ORIGINS", "JWT_SECRET",
		"OPERATIONAL_TIMEZONE", "CLOCK_IN_GRACE_MINUTES", "MISSED_EVENT_GRACE_MINUTES",
		"SCHEDULER_ENABLED",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	viper.SetDefault("OPERATIONAL_TIMEZONE", "Asia/Karachi")
	viper.SetDefault("CLOCK_IN_GRACE_MINUTES", 30)
	viper.SetDefault("MISSED_EVENT_GRACE_MINUTES", 60)
	viper.SetDefault("SCHEDULER_ENABLED", true)

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	ConfigInstance = config
	log.Info("Successfully initialized config",
		"environment", config.Environment,
		"timezone", config.OperationalTimezone,
	)
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if _, err := time.LoadLocation(config.OperationalTimezone); err != nil {
		return log.Err("Fatal error: invalid operational timezone", err,
			"timezone", config.OperationalTimezone,
		)
	}

	if config.ClockInGraceMinutes <= 0 {
		return log.Error(
			"Fatal error: clock-in grace window must be positive",
			"minutes", config.ClockInGraceMinutes,
		)
	}

	if config.MissedEventGraceMinutes <= 0 {
		return log.Error(
			"Fatal error: missed-event grace window must be positive",
			"minutes", config.MissedEventGraceMinutes,
		)
	}

	return nil
}
