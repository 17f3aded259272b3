package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		LogLevel       string   `yaml:"logLevel"`
		PublicURL      string   `yaml:"publicUrl"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret            string `yaml:"secret"`
		ExpiryMinutes     int    `yaml:"expiryMinutes"`
		RefreshExpiryDays int    `yaml:"refreshExpiryDays"`
	} `yaml:"jwt"`

	Relay struct {
		RPCURL           string        `yaml:"rpcUrl"`
		ChainID          int64         `yaml:"chainId"`
		PrivateKey       string        `yaml:"privateKey"`
		ReferralContract string        `yaml:"referralContract"`
		BadgeContract    string        `yaml:"badgeContract"`
		Interval         time.Duration `yaml:"interval"`
		MaxAttempts      int           `yaml:"maxAttempts"`
	} `yaml:"relay"`

	Discord struct {
		BotToken     string `yaml:"botToken"`
		ClientID     string `yaml:"clientId"`
		ClientSecret string `yaml:"clientSecret"`
		RedirectURL  string `yaml:"redirectUrl"`
	} `yaml:"discord"`

	X struct {
		ClientID     string `yaml:"clientId"`
		ClientSecret string `yaml:"clientSecret"`
		RedirectURL  string `yaml:"redirectUrl"`
	} `yaml:"x"`

	AWS struct {
		Region        string `yaml:"region"`
		Bucket        string `yaml:"bucket"`
		PublicBaseURL string `yaml:"publicBaseUrl"`
	} `yaml:"aws"`

	SMTP struct {
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		SenderEmail string `yaml:"senderEmail"`
		SenderName  string `yaml:"senderName"`
	} `yaml:"smtp"`

	Sentry struct {
		DSN string `yaml:"dsn"`
	} `yaml:"sentry"`

	Metrics struct {
		User string `yaml:"user"`
		Pass string `yaml:"pass"`
	} `yaml:"metrics"`
}

// LoadConfig reads the configuration file, then applies environment
// overrides and defaults. A missing .env file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// Parse decodes yaml without touching the environment
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Database.URI, "MONGODB_URI")
	overrideString(&c.Redis.Addr, "REDIS_ADDR")
	overrideString(&c.Redis.Password, "REDIS_PASSWORD")
	overrideString(&c.JWT.Secret, "JWT_SECRET")
	overrideString(&c.Relay.RPCURL, "RELAY_RPC_URL")
	overrideString(&c.Relay.PrivateKey, "RELAY_PRIVATE_KEY")
	overrideString(&c.Discord.BotToken, "DISCORD_BOT_TOKEN")
	overrideString(&c.Discord.ClientSecret, "DISCORD_CLIENT_SECRET")
	overrideString(&c.X.ClientSecret, "X_CLIENT_SECRET")
	overrideString(&c.SMTP.Password, "SMTP_PASSWORD")
	overrideString(&c.Sentry.DSN, "SENTRY_DSN")
	overrideString(&c.Metrics.Pass, "METRICS_PASS")
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 1313
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.Database.URI == "" {
		c.Database.URI = "memory"
	}
	if c.JWT.ExpiryMinutes == 0 {
		c.JWT.ExpiryMinutes = 24 * 60
	}
	if c.JWT.RefreshExpiryDays == 0 {
		c.JWT.RefreshExpiryDays = 30
	}
	if c.Relay.Interval == 0 {
		c.Relay.Interval = 15 * time.Second
	}
	if c.Relay.MaxAttempts == 0 {
		c.Relay.MaxAttempts = 5
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
