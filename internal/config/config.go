package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	RingTimeout     time.Duration `mapstructure:"ring_timeout"`
	EventRateLimit  int           `mapstructure:"event_rate_limit"`
	EventRateWindow time.Duration `mapstructure:"event_rate_window"`

	Mongo      Mongo       `mapstructure:"mongo"`
	Automation Automation  `mapstructure:"automation"`
	ICEServers []ICEServer `mapstructure:"ice_servers"`
}

type Mongo struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Automation struct {
	Enabled        bool   `mapstructure:"enabled"`
	AutoLogoutSpec string `mapstructure:"auto_logout_spec"`
	AutoAbsentSpec string `mapstructure:"auto_absent_spec"`
	Timezone       string `mapstructure:"timezone"`
}

// ICEServer is handed to clients verbatim so they can build peer
// connections; the relay itself never dials these.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("ring_timeout", "45s")
	v.SetDefault("event_rate_limit", 60)
	v.SetDefault("event_rate_window", "10s")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "hrsync")
	v.SetDefault("mongo.timeout", "10s")
	v.SetDefault("automation.enabled", true)
	v.SetDefault("automation.auto_logout_spec", "0 * * * *")
	v.SetDefault("automation.auto_absent_spec", "50 23 * * *")
	v.SetDefault("automation.timezone", "UTC")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}
