package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	Points       PointsConfig       `yaml:"points"`
	Alipay       AlipayConfig       `yaml:"alipay"`
	Image        ImageConfig        `yaml:"image"`
	Chat         ChatConfig         `yaml:"chat"`
	Verification VerificationConfig `yaml:"verification"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	Env          string        `yaml:"env"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type JWTConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessExpiry  time.Duration `yaml:"access_expiry"`
	RefreshExpiry time.Duration `yaml:"refresh_expiry"`
	// SlidingWindow is how close to expiry a refresh token must be before a
	// refresh call extends its stored lifetime to a full new period.
	SlidingWindow time.Duration `yaml:"sliding_window"`
	Issuer        string        `yaml:"issuer"`
}

type PointsConfig struct {
	RegisterBonus       decimal.Decimal `yaml:"register_bonus"`
	LoginBonus          decimal.Decimal `yaml:"login_bonus"`
	DefaultRate         decimal.Decimal `yaml:"default_rate"` // reward multiplier on paid amount
	ImageGenerationCost decimal.Decimal `yaml:"image_generation_cost"`
	ChatCost            decimal.Decimal `yaml:"chat_cost"`
}

type AlipayConfig struct {
	AppID           string `yaml:"app_id"`
	SellerID        string `yaml:"seller_id"`
	AppPrivateKey   string `yaml:"app_private_key"`
	AlipayPublicKey string `yaml:"alipay_public_key"`
	NotifyURL       string `yaml:"notify_url"`
	GatewayURL      string `yaml:"gateway_url"`
}

type ImageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Service   string `yaml:"service"`
}

type ChatConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type VerificationConfig struct {
	CodeTTL        time.Duration `yaml:"code_ttl"`
	ResendInterval time.Duration `yaml:"resend_interval"`
}

// Load builds the config from defaults, an optional config.yaml, then
// environment variables (.env honored via godotenv). Later sources win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := defaults()
	if data, err := os.ReadFile(envOr("CONFIG_FILE", "config.yaml")); err == nil {
		_ = yaml.Unmarshal(data, cfg)
	}
	applyEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             "root:password@tcp(localhost:3306)/dream?charset=utf8mb4&parseTime=True&loc=Local",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  "change-me-in-production",
			RefreshSecret: "change-me-refresh",
			AccessExpiry:  30 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
			SlidingWindow: 2 * 24 * time.Hour,
			Issuer:        "dream",
		},
		Points: PointsConfig{
			RegisterBonus:       decimal.NewFromInt(100),
			LoginBonus:          decimal.NewFromInt(10),
			DefaultRate:         decimal.NewFromInt(10),
			ImageGenerationCost: decimal.NewFromInt(5),
			ChatCost:            decimal.NewFromInt(1),
		},
		Alipay: AlipayConfig{
			GatewayURL: "https://openapi.alipay.com/gateway.do",
			NotifyURL:  "https://your-domain.com/api/v1/payment/notify",
		},
		Image: ImageConfig{
			Endpoint: "https://visual.volcengineapi.com",
			Region:   "cn-north-1",
			Service:  "cv",
		},
		Chat: ChatConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-chat",
		},
		Verification: VerificationConfig{
			CodeTTL:        5 * time.Minute,
			ResendInterval: time.Minute,
		},
	}
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Server.Port, "PORT")
	setStr(&cfg.Server.Env, "ENV")
	setStr(&cfg.Database.DSN, "DATABASE_DSN")
	setStr(&cfg.JWT.AccessSecret, "JWT_ACCESS_SECRET")
	setStr(&cfg.JWT.RefreshSecret, "JWT_REFRESH_SECRET")
	setStr(&cfg.Alipay.AppID, "ALIPAY_APP_ID")
	setStr(&cfg.Alipay.SellerID, "ALIPAY_SELLER_ID")
	setStr(&cfg.Alipay.AppPrivateKey, "ALIPAY_APP_PRIVATE_KEY")
	setStr(&cfg.Alipay.AlipayPublicKey, "ALIPAY_PUBLIC_KEY")
	setStr(&cfg.Alipay.NotifyURL, "ALIPAY_NOTIFY_URL")
	setStr(&cfg.Image.AccessKey, "VOLCANO_ACCESS_KEY")
	setStr(&cfg.Image.SecretKey, "VOLCANO_SECRET_KEY")
	setStr(&cfg.Chat.APIKey, "DEEPSEEK_API_KEY")
	if v := os.Getenv("IMAGE_GENERATION_COST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Points.ImageGenerationCost = decimal.NewFromInt(n)
		}
	}
	if v := os.Getenv("CHAT_COST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Points.ChatCost = decimal.NewFromInt(n)
		}
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
