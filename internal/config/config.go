package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Arbitrage ArbitrageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Telegram  TelegramConfig
	Metrics   MetricsConfig
	CoinList  CoinListConfig `mapstructure:"coinlist"`
	HotList   HotListConfig  `mapstructure:"hotlist"`
	Exchanges map[string]ExchangeConfig
}

// ArbitrageConfig defines the scanner and valuation settings.
type ArbitrageConfig struct {
	MinProfitPercent     float64 `mapstructure:"min_profit_percent"`
	TradeAmountUSD       float64 `mapstructure:"trade_amount_usd"`
	VerifyOrderBook      bool    `mapstructure:"verify_order_book"`
	BookTolerancePercent float64 `mapstructure:"book_tolerance_percent"`
	QuoteCurrency        string  `mapstructure:"quote_currency"`
	ScanIntervalSec      int     `mapstructure:"scan_interval_sec"`
}

// ScanInterval returns the delay between full scan cycles.
func (a ArbitrageConfig) ScanInterval() time.Duration {
	return time.Duration(a.ScanIntervalSec) * time.Second
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
}

// URL builds the postgres connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.DBName)
}

// RedisConfig defines the quote cache connection settings.
type RedisConfig struct {
	Addr        string
	DB          int
	QuoteTTLSec int `mapstructure:"quote_ttl_sec"`
}

// QuoteTTL returns how long a cached quote stays usable.
func (r RedisConfig) QuoteTTL() time.Duration {
	return time.Duration(r.QuoteTTLSec) * time.Second
}

// TelegramConfig defines the alert delivery settings.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// MetricsConfig defines the prometheus listener settings.
type MetricsConfig struct {
	Addr string
}

// CoinListConfig defines the coin universe bootstrap settings. An empty
// APIURL selects the public CoinGecko API.
type CoinListConfig struct {
	APIURL      string `mapstructure:"api_url"`
	TopN        int    `mapstructure:"top_n"`
	CacheTTLMin int    `mapstructure:"cache_ttl_min"`
}

// CacheTTL returns how long a fetched coin universe stays fresh.
func (c CoinListConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMin) * time.Minute
}

// HotListConfig bounds the rotating set of symbols worth scanning.
type HotListConfig struct {
	Size   int
	TTLMin int `mapstructure:"ttl_min"`
}

// TTL returns how long a symbol stays on the hot list without renewal.
func (h HotListConfig) TTL() time.Duration {
	return time.Duration(h.TTLMin) * time.Minute
}

// ExchangeConfig defines settings for a specific exchange.
type ExchangeConfig struct {
	TakerFeePercent      float64            `mapstructure:"taker_fee_percent"`
	RestURL              string             `mapstructure:"rest_url"`
	WsURL                string             `mapstructure:"ws_url"`
	WithdrawalFees       map[string]float64 `mapstructure:"withdrawal_fees"` // base asset -> amount in that asset
	DefaultWithdrawalFee float64            `mapstructure:"default_withdrawal_fee"`
	SuspendedWithdrawals []string           `mapstructure:"suspended_withdrawals"`
	SuspendedDeposits    []string           `mapstructure:"suspended_deposits"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	applyDefaults(&config)
	return
}

func applyDefaults(c *Config) {
	if c.Arbitrage.TradeAmountUSD == 0 {
		c.Arbitrage.TradeAmountUSD = 1000
	}
	if c.Arbitrage.BookTolerancePercent == 0 {
		c.Arbitrage.BookTolerancePercent = 0.1
	}
	if c.Arbitrage.QuoteCurrency == "" {
		c.Arbitrage.QuoteCurrency = "USDT"
	}
	if c.Arbitrage.ScanIntervalSec == 0 {
		c.Arbitrage.ScanIntervalSec = 60
	}
	if c.Redis.QuoteTTLSec == 0 {
		c.Redis.QuoteTTLSec = 30
	}
	if c.CoinList.TopN == 0 {
		c.CoinList.TopN = 1300
	}
	if c.CoinList.CacheTTLMin == 0 {
		c.CoinList.CacheTTLMin = 360
	}
	if c.HotList.Size == 0 {
		c.HotList.Size = 50
	}
	if c.HotList.TTLMin == 0 {
		c.HotList.TTLMin = 240
	}
}
