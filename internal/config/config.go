package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	StorageDriver  string   `mapstructure:"STORAGE_DRIVER"`
	DataDir        string   `mapstructure:"DATA_DIR"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	FacilityCode   string   `mapstructure:"FACILITY_CODE"`
	FacilityName   string   `mapstructure:"FACILITY_NAME"`
	UHIDPrefix     string   `mapstructure:"UHID_PREFIX"`
	SessionSecret  string   `mapstructure:"SESSION_SECRET"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RoomRatePerDay float64  `mapstructure:"ROOM_RATE_PER_DAY"`
	NursingCharge  float64  `mapstructure:"NURSING_CHARGE"`
	Consumables    float64  `mapstructure:"CONSUMABLES_CHARGE"`
	SummarizerURL  string   `mapstructure:"SUMMARIZER_URL"`
	SummarizerKey  string   `mapstructure:"SUMMARIZER_KEY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_DRIVER", "leveldb")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("FACILITY_CODE", "GH01")
	v.SetDefault("FACILITY_NAME", "District General Hospital")
	v.SetDefault("UHID_PREFIX", "UH")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("ROOM_RATE_PER_DAY", 2000)
	v.SetDefault("NURSING_CHARGE", 500)
	v.SetDefault("CONSUMABLES_CHARGE", 300)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORAGE_DRIVER")
	v.BindEnv("DATA_DIR")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("FACILITY_CODE")
	v.BindEnv("FACILITY_NAME")
	v.BindEnv("UHID_PREFIX")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("ROOM_RATE_PER_DAY")
	v.BindEnv("NURSING_CHARGE")
	v.BindEnv("CONSUMABLES_CHARGE")
	v.BindEnv("SUMMARIZER_URL")
	v.BindEnv("SUMMARIZER_KEY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. The Postgres driver
// needs a connection string; the default LevelDB driver needs a data
// directory. Production refuses to start without an explicit session secret.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "leveldb":
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when STORAGE_DRIVER is \"leveldb\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is \"postgres\"")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be \"leveldb\" or \"postgres\", got %q", c.StorageDriver)
	}

	if c.FacilityCode == "" {
		return fmt.Errorf("FACILITY_CODE is required")
	}
	for _, r := range c.FacilityCode {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("FACILITY_CODE must be uppercase alphanumeric, got %q", c.FacilityCode)
		}
	}

	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}

	if c.RoomRatePerDay < 0 || c.NursingCharge < 0 || c.Consumables < 0 {
		return fmt.Errorf("charge rates must not be negative")
	}

	return nil
}
