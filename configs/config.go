package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		// PublicBaseURL must be an externally reachable HTTPS origin in
		// production: Mercado Pago builds back-urls and the webhook
		// notification URL from it.
		PublicBaseURL string `koanf:"public_base_url"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Webhook struct {
		// DedupTTL bounds how long a (payment id, status) pair is
		// remembered for duplicate-delivery suppression.
		DedupTTL time.Duration `koanf:"dedup_ttl"`
		Secret   string        `koanf:"secret"`
	} `koanf:"webhook"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	MercadoPago struct {
		BaseURL     string        `koanf:"base_url"`
		AccessToken string        `koanf:"access_token"`
		Timeout     time.Duration `koanf:"timeout"`
	} `koanf:"mercadopago"`

	Rabbit struct {
		URL        string `koanf:"url"`
		Exchange   string `koanf:"exchange"`
		RoutingKey string `koanf:"routing_key"`
	} `koanf:"rabbitmq"`

	Outbox struct {
		PollInterval time.Duration `koanf:"poll_interval"`
		BatchSize    int           `koanf:"batch_size"`
	} `koanf:"outbox"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
		GroupID string   `koanf:"group_id"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix FDC_, nested with __)
	// e.g. FDC_MYSQL__DSN, FDC_MERCADOPAGO__ACCESS_TOKEN
	if err := k.Load(env.Provider("FDC_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "FDC_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.App.PublicBaseURL == "" {
		return fmt.Errorf("app.public_base_url required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.MercadoPago.AccessToken == "" {
		return fmt.Errorf("mercadopago.access_token required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required")
	}
	return nil
}
