package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"` // sqlite or postgres
	Path    string `mapstructure:"path"`   // sqlite file path
	DSN     string `mapstructure:"dsn"`    // postgres connection string
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type NotifyConfig struct {
	EmailEnabled bool   `mapstructure:"email_enabled"`
	FromAddress  string `mapstructure:"from_address"`
}

// JobsConfig holds cron expressions for the scheduled jobs when running the
// scheduler daemon.
type JobsConfig struct {
	LeaseSweepCron   string `mapstructure:"lease_sweep_cron"`
	PaymentGenCron   string `mapstructure:"payment_gen_cron"`
	RentReminderCron string `mapstructure:"rent_reminder_cron"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from the given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in the current working
// directory. Environment variables with the KODISHA_ prefix override file
// values, e.g. KODISHA_DATABASE_DSN.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		v.SetEnvPrefix("KODISHA")
		v.AutomaticEnv()

		v.SetDefault("server.address", "0.0.0.0")
		v.SetDefault("server.port", 8080)
		v.SetDefault("database.driver", "sqlite")
		v.SetDefault("database.path", "data/kodisha.db")
		v.SetDefault("jobs.lease_sweep_cron", "0 6 * * *")
		v.SetDefault("jobs.payment_gen_cron", "0 5 1 * *")
		v.SetDefault("jobs.rent_reminder_cron", "0 7 * * *")

		// a missing config file is fine, defaults and env vars apply
		if readErr := v.ReadInConfig(); readErr != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(readErr, &notFound) && !os.IsNotExist(readErr) {
				err = fmt.Errorf("read config: %w", readErr)
				return
			}
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
