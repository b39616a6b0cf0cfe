package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"profit_go/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is where Bootstrap looks for the YAML file.
	DefaultConfigPath = "configs/config.yaml"

	// DefaultUserAgent is sent on every outbound HTTP request
	DefaultUserAgent = "profit-go/1.0"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
// 로드 이후에는 읽기 전용으로 취급합니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Wallet struct {
		PublicKey  string `yaml:"public_key"`
		PrivateKey string `yaml:"private_key"` // base58 encoded 64-byte secret key
	} `yaml:"wallet"`

	Solana struct {
		RPCURL         string        `yaml:"rpc_url"`
		WSURL          string        `yaml:"ws_url"`
		ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	} `yaml:"solana"`

	Jupiter struct {
		PriceURL      string        `yaml:"price_url"`
		LimitOrderURL string        `yaml:"limit_order_url"`
		TokenURL      string        `yaml:"token_url"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"jupiter"`

	Trading struct {
		QuoteSymbol      string          `yaml:"quote_symbol"`
		MarginRatio      decimal.Decimal `yaml:"margin_ratio"`
		TradeFraction    decimal.Decimal `yaml:"trade_fraction"`
		PollInterval     time.Duration   `yaml:"poll_interval"`
		RecoveryInterval time.Duration   `yaml:"recovery_interval"`
		MaxParallel      int             `yaml:"max_parallel"`
		DryRun           bool            `yaml:"dry_run"` // paper execution, nothing is signed or sent
	} `yaml:"trading"`

	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`

	Status struct {
		Addr string `yaml:"addr"` // empty disables the status server
	} `yaml:"status"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the built-in settings that the YAML file and environment refine.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "profit-go"
	cfg.App.Version = "1.0.0"

	cfg.Solana.RPCURL = "https://api.mainnet-beta.solana.com"
	cfg.Solana.WSURL = "wss://api.mainnet-beta.solana.com"
	cfg.Solana.ConfirmTimeout = 60 * time.Second

	cfg.Jupiter.PriceURL = "https://price.jup.ag/v4"
	cfg.Jupiter.LimitOrderURL = "https://jup.ag/api/limit/v1"
	cfg.Jupiter.TokenURL = "https://tokens.jup.ag"
	cfg.Jupiter.Timeout = 5 * time.Second

	cfg.Trading.QuoteSymbol = "USDT"
	cfg.Trading.MarginRatio = decimal.RequireFromString("0.5")
	cfg.Trading.TradeFraction = decimal.NewFromInt(1)
	cfg.Trading.PollInterval = 5 * time.Second
	cfg.Trading.RecoveryInterval = 10 * time.Second
	cfg.Trading.MaxParallel = 4

	cfg.Storage.DBPath = "data/profit.db"
	cfg.Status.Addr = "localhost:8080"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// 파일이 없으면 기본값과 환경 변수만 사용합니다.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &domain.ConfigError{Field: path, Err: err}
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	if err := overrideWithEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Wallet.PublicKey == "" {
		return &domain.ConfigError{Field: "wallet.public_key", Err: errors.New("required")}
	}
	if c.Wallet.PrivateKey == "" && !c.Trading.DryRun {
		return &domain.ConfigError{Field: "wallet.private_key", Err: errors.New("required")}
	}

	if !hasPrefix(c.Solana.RPCURL, "http://") && !hasPrefix(c.Solana.RPCURL, "https://") {
		return &domain.ConfigError{Field: "solana.rpc_url", Err: fmt.Errorf("invalid URL %q", c.Solana.RPCURL)}
	}
	if !hasPrefix(c.Solana.WSURL, "ws://") && !hasPrefix(c.Solana.WSURL, "wss://") {
		return &domain.ConfigError{Field: "solana.ws_url", Err: fmt.Errorf("invalid URL %q", c.Solana.WSURL)}
	}
	for field, u := range map[string]string{
		"jupiter.price_url":       c.Jupiter.PriceURL,
		"jupiter.limit_order_url": c.Jupiter.LimitOrderURL,
		"jupiter.token_url":       c.Jupiter.TokenURL,
	} {
		if !hasPrefix(u, "http://") && !hasPrefix(u, "https://") {
			return &domain.ConfigError{Field: field, Err: fmt.Errorf("invalid URL %q", u)}
		}
	}

	// Trading
	if c.Trading.QuoteSymbol == "" {
		return &domain.ConfigError{Field: "trading.quote_symbol", Err: errors.New("required")}
	}
	if c.Trading.MarginRatio.IsNegative() {
		return &domain.ConfigError{Field: "trading.margin_ratio", Err: fmt.Errorf("must be >= 0, got %s", c.Trading.MarginRatio)}
	}
	if !c.Trading.TradeFraction.IsPositive() || c.Trading.TradeFraction.GreaterThan(decimal.NewFromInt(1)) {
		return &domain.ConfigError{Field: "trading.trade_fraction", Err: fmt.Errorf("must be in (0, 1], got %s", c.Trading.TradeFraction)}
	}
	if c.Trading.PollInterval <= 0 {
		return &domain.ConfigError{Field: "trading.poll_interval", Err: errors.New("must be positive")}
	}
	if c.Trading.RecoveryInterval < c.Trading.PollInterval {
		return &domain.ConfigError{Field: "trading.recovery_interval", Err: fmt.Errorf("must be >= poll interval %s", c.Trading.PollInterval)}
	}
	if c.Trading.MaxParallel <= 0 {
		return &domain.ConfigError{Field: "trading.max_parallel", Err: errors.New("must be positive")}
	}

	if c.Storage.DBPath == "" {
		return &domain.ConfigError{Field: "storage.db_path", Err: errors.New("required")}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
// 퍼센트 값(AMOUNT_OF_TOKENS_TO_SWAP, EXPECTED_PERCENTAGE_PROFIT)은 비율로 변환합니다.
func overrideWithEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("WALLET_PUBLIC_KEY", &cfg.Wallet.PublicKey)
	setString("WALLET_PRIVATE_KEY", &cfg.Wallet.PrivateKey)
	setString("RPC_ENDPOINT", &cfg.Solana.RPCURL)
	setString("RPC_WS_ENDPOINT", &cfg.Solana.WSURL)
	setString("JUPITER_PRICE_URL", &cfg.Jupiter.PriceURL)
	setString("JUPITER_LIMIT_ORDER_URL", &cfg.Jupiter.LimitOrderURL)
	setString("JUPITER_TOKEN_URL", &cfg.Jupiter.TokenURL)
	setString("VSTOKENSYMBOL", &cfg.Trading.QuoteSymbol)
	setString("DB_PATH", &cfg.Storage.DBPath)
	setString("STATUS_ADDR", &cfg.Status.Addr)
	setString("LOG_LEVEL", &cfg.Logging.Level)

	if v := os.Getenv("AMOUNT_OF_TOKENS_TO_SWAP"); v != "" {
		pct, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigError{Field: "AMOUNT_OF_TOKENS_TO_SWAP", Err: err}
		}
		cfg.Trading.TradeFraction = pct.Div(decimal.NewFromInt(100))
	}
	if v := os.Getenv("EXPECTED_PERCENTAGE_PROFIT"); v != "" {
		pct, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigError{Field: "EXPECTED_PERCENTAGE_PROFIT", Err: err}
		}
		cfg.Trading.MarginRatio = pct.Div(decimal.NewFromInt(100))
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		dry, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigError{Field: "DRY_RUN", Err: err}
		}
		cfg.Trading.DryRun = dry
	}
	if v := os.Getenv("WAIT_TIME_IN_MS"); v != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigError{Field: "WAIT_TIME_IN_MS", Err: err}
		}
		cfg.Trading.PollInterval = time.Duration(ms) * time.Millisecond
		if cfg.Trading.RecoveryInterval < cfg.Trading.PollInterval {
			cfg.Trading.RecoveryInterval = cfg.Trading.PollInterval
		}
	}
	if v := os.Getenv("RECOVERY_WAIT_TIME_IN_MS"); v != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigError{Field: "RECOVERY_WAIT_TIME_IN_MS", Err: err}
		}
		cfg.Trading.RecoveryInterval = time.Duration(ms) * time.Millisecond
	}
	return nil
}
