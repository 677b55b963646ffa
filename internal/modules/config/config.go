package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"signal_bot/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "values_local.yaml"

	databaseDSNENV     = "DATABASE_DSN"
	sourceURLENV       = "SIGNAL_SOURCE_URL"
	coinexAccessIDENV  = "COINEX_ACCESS_ID"
	coinexSecretKeyENV = "COINEX_SECRET_KEY"
	tokenTelegramENV   = "TELEGRAM_TOKEN"
	chatTelegramENV    = "TELEGRAM_CHAT_ID"
)

// Config ...
type Config struct {
	Service struct {
		Name       string `yaml:"name" default:"signal_bot"`
		LogLevel   string `yaml:"log_level" default:"info" validate:"oneof=debug info warn error"`
		HealthAddr string `yaml:"health_addr" default:":8080"`
	} `yaml:"service"`

	DB struct {
		DSN string `yaml:"dsn" validate:"required"`
		// Сколько ждём блокировку строки, прежде чем вернуть StoreError.
		LockTimeout      time.Duration `yaml:"lock_timeout" default:"15s" validate:"gt=0"`
		StatementTimeout time.Duration `yaml:"statement_timeout" default:"30s" validate:"gt=0"`
	} `yaml:"db"`

	Source struct {
		URL          string        `yaml:"url"`
		Timeout      time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		PollInterval time.Duration `yaml:"poll_interval" default:"10s" validate:"gt=0"`
	} `yaml:"source"`

	Trader struct {
		MarginUSDT     float64           `yaml:"margin_usdt" default:"100" validate:"gt=0"`
		Leverage       int               `yaml:"leverage" default:"10" validate:"gt=0"`
		MarginMode     models.MarginMode `yaml:"margin_mode" default:"cross" validate:"oneof=cross isolated"`
		PollInterval   time.Duration     `yaml:"poll_interval" default:"10s" validate:"gt=0"`
		StaleThreshold time.Duration     `yaml:"stale_threshold" default:"5m" validate:"gt=0"`
		// Пауза после закрытия, чтобы биржа успела его учесть.
		SettleDelay time.Duration `yaml:"settle_delay" default:"5s" validate:"gte=0"`
	} `yaml:"trader"`

	CoinEx struct {
		BaseURL    string        `yaml:"base_url" default:"https://api.coinex.com"`
		AccessID   string        `yaml:"access_id"`
		SecretKey  string        `yaml:"secret_key"`
		MarketType string        `yaml:"market_type" default:"FUTURES"`
		Timeout    time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	} `yaml:"coinex"`

	Telegram struct {
		Token     string `yaml:"token"`
		ChatID    int64  `yaml:"chat_id"`
		QueueSize int    `yaml:"queue_size" default:"64" validate:"gt=0"`
	} `yaml:"telegram"`

	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host" default:"localhost"`
		Port    int    `yaml:"port" default:"6831"`
	} `yaml:"tracing"`

	Policy struct {
		BackoffMax time.Duration `yaml:"backoff_max" default:"5m" validate:"gt=0"`
	} `yaml:"policy"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(configFileName)
}

// Load читает yaml через viper, накладывает дефолты и env, валидирует.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if filepath.IsAbs(file) || filepath.Dir(file) != "." {
		v.SetConfigFile(file)
	} else {
		name := file[:len(file)-len(filepath.Ext(file))]
		v.SetConfigName(name)
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", file)
	}

	config := Config{}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "set defaults")
	}

	bs, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return nil, errors.Wrap(err, "marshal settings to yaml")
	}
	if err = yaml.Unmarshal(bs, &config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err = config.applyEnv(); err != nil {
		return nil, err
	}

	if err = validator.New().Struct(&config); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &config, nil
}

func (c *Config) applyEnv() error {
	if dsn := os.Getenv(databaseDSNENV); dsn != "" {
		c.DB.DSN = dsn
	}
	if url := os.Getenv(sourceURLENV); url != "" {
		c.Source.URL = url
	}
	if id := os.Getenv(coinexAccessIDENV); id != "" {
		c.CoinEx.AccessID = id
	}
	if key := os.Getenv(coinexSecretKeyENV); key != "" {
		c.CoinEx.SecretKey = key
	}
	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	if v := os.Getenv(chatTelegramENV); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parse %s", chatTelegramENV)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

// Notional размер позиции в USDT: маржа * плечо.
func (c *Config) Notional() float64 {
	return c.Trader.MarginUSDT * float64(c.Trader.Leverage)
}
