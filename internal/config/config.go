package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/imrishuroy/go-servientrega-webhook/internal/validation"
)

// Config is built once at startup and handed to every component.
// Nothing below the cmd/ layer reads the environment.
type Config struct {
	Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
	LogLevel string `yaml:"log_level"`
	RunLocal bool   `yaml:"run_local"`

	Odoo    Odoo    `yaml:"odoo"`
	Carrier Carrier `yaml:"carrier"`
	Sender  Sender  `yaml:"sender"`
	AWS     AWS     `yaml:"aws"`

	JaegerEndpoint string `yaml:"jaeger_endpoint"`
}

// Odoo is the upstream record system.
type Odoo struct {
	URL        string        `yaml:"url" validate:"required,url"`
	DB         string        `yaml:"db" validate:"required"`
	User       string        `yaml:"user" validate:"required"`
	Password   string        `yaml:"password" validate:"required"`
	Timeout    time.Duration `yaml:"timeout"`
	Production bool          `yaml:"production"`
}

// Carrier holds the Servientrega endpoint and in-band credentials.
type Carrier struct {
	Production      bool          `yaml:"production"`
	URLProd         string        `yaml:"url_prod"`
	URLQA           string        `yaml:"url_qa"`
	Login           string        `yaml:"login" validate:"required"`
	PasswordEnc     string        `yaml:"password_enc" validate:"required"`
	BillingCode     string        `yaml:"billing_code" validate:"required"`
	LoadName        string        `yaml:"load_name"`
	Timeout         time.Duration `yaml:"timeout"`
	TrackingBaseURL string        `yaml:"tracking_base_url" validate:"required"`
}

// Endpoint is the carrier URL for the active environment.
func (c Carrier) Endpoint() string {
	if c.Production {
		return c.URLProd
	}
	return c.URLQA
}

// Sender is the static remitente block.
type Sender struct {
	Name    string `yaml:"name" validate:"required"`
	Address string `yaml:"address" validate:"required"`
	City    string `yaml:"city" validate:"required"`
	Country string `yaml:"country" validate:"required"`
	Phone   string `yaml:"phone"`
}

// AWS wiring. Empty names disable the matching component.
type AWS struct {
	Region           string `yaml:"region"`
	LedgerTable      string `yaml:"ledger_table"`
	AlertsQueueURL   string `yaml:"alerts_queue_url"`
	MetricsNamespace string `yaml:"metrics_namespace"`
}

// Defaults returns the baseline values used before any file or env override.
func Defaults() Config {
	return Config{
		Port:     5000,
		LogLevel: "info",
		Odoo: Odoo{
			Timeout: 30 * time.Second,
		},
		Carrier: Carrier{
			LoadName:        "Odoo Servientrega",
			Timeout:         35 * time.Second,
			TrackingBaseURL: "https://www.servientrega.com/rastreo/",
		},
		Sender: Sender{
			Name:    "WONDERTECH S.A.S",
			Address: "Cra 00 #00-00",
			City:    "BOGOTA",
			Country: "CO",
			Phone:   "0000000",
		},
		AWS: AWS{
			Region: "us-east-1",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, an optional .env file and finally the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFrom(os.Getenv("CONFIG_FILE"), os.LookupEnv)
}

// LoadFrom is Load with an explicit file path and environment lookup.
func LoadFrom(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var problems []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			*dst = parseBool(v)
		}
	}
	seconds := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be a positive number of seconds", key))
			return
		}
		*dst = time.Duration(n) * time.Second
	}

	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, "PORT must be numeric")
		} else {
			cfg.Port = port
		}
	}
	str("LOG_LEVEL", &cfg.LogLevel)
	flag("RUN_LOCAL", &cfg.RunLocal)
	str("JAEGER_ENDPOINT", &cfg.JaegerEndpoint)

	str("ODOO_URL", &cfg.Odoo.URL)
	str("ODOO_DB", &cfg.Odoo.DB)
	str("ODOO_USER", &cfg.Odoo.User)
	str("ODOO_PASSWORD", &cfg.Odoo.Password)
	seconds("ODOO_TIMEOUT", &cfg.Odoo.Timeout)
	flag("ODOO_USE_PRODUCTION", &cfg.Odoo.Production)

	flag("SERVI_USE_PRODUCTION", &cfg.Carrier.Production)
	str("SERVI_URL_PROD", &cfg.Carrier.URLProd)
	str("SERVI_URL_QA", &cfg.Carrier.URLQA)
	str("SERVI_LOGIN", &cfg.Carrier.Login)
	str("SERVI_PWD_ENC", &cfg.Carrier.PasswordEnc)
	str("SERVI_COD_FACT", &cfg.Carrier.BillingCode)
	str("SERVI_LOAD_NAME", &cfg.Carrier.LoadName)
	seconds("SERVI_TIMEOUT", &cfg.Carrier.Timeout)
	str("SERVI_TRACKING_BASE_URL", &cfg.Carrier.TrackingBaseURL)

	str("SENDER_NAME", &cfg.Sender.Name)
	str("SENDER_ADDRESS", &cfg.Sender.Address)
	str("SENDER_CITY", &cfg.Sender.City)
	str("SENDER_COUNTRY", &cfg.Sender.Country)
	str("SENDER_PHONE", &cfg.Sender.Phone)

	str("AWS_REGION", &cfg.AWS.Region)
	str("LEDGER_TABLE", &cfg.AWS.LedgerTable)
	str("ALERTS_QUEUE_URL", &cfg.AWS.AlertsQueueURL)
	str("METRICS_NAMESPACE", &cfg.AWS.MetricsNamespace)

	if len(problems) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(problems, "; "))
	}
	return nil
}

// validate checks required fields and ranges, reporting every problem at once.
func (c *Config) validate() error {
	var problems []string

	if err := validation.New().Struct(c); err != nil {
		problems = append(problems, validation.Problems(err)...)
	}
	if c.Carrier.Endpoint() == "" {
		if c.Carrier.Production {
			problems = append(problems, "carrier.url_prod is required when SERVI_USE_PRODUCTION is set")
		} else {
			problems = append(problems, "carrier.url_qa is required when SERVI_USE_PRODUCTION is not set")
		}
	}
	if c.Carrier.Timeout <= 0 {
		problems = append(problems, "carrier.timeout must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
