package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names
const (
	EnvRegion          = "REGION"
	EnvCurrency        = "CURRENCY" // overrides the region's currency
	EnvVAT             = "VAT"
	EnvPrecision       = "PRECISION"
	EnvLowPriceCutoff  = "LOW_PRICE_CUTOFF"
	EnvPriceType       = "PRICE_TYPE"
	EnvPriceInCents    = "PRICE_IN_CENTS"
	EnvAdditionalCosts = "ADDITIONAL_COSTS"
	EnvPeriodType      = "PERIOD_TYPE" // fallback when detection is impossible
	EnvTimezone        = "TIMEZONE"
	EnvTickInterval    = "TICK_INTERVAL"
	EnvLogLevel        = "LOG_LEVEL"

	// Provider configuration
	EnvDataProvider   = "DATA_PROVIDER"   // nordpool, epex, csv, mock, static
	EnvProviderURL    = "PROVIDER_URL"    // Base URL for data provider, empty for the provider default
	EnvProviderParams = "PROVIDER_PARAMS" // Additional parameters (JSON format)
	EnvCSVDir         = "CSV_DIR"

	// Publication of tomorrow's prices
	EnvPublishTimezone = "PUBLISH_TIMEZONE"
	EnvPublishHour     = "PUBLISH_HOUR"

	// Outputs
	EnvHTTPAddr     = "HTTP_ADDR"
	EnvKafkaBrokers = "KAFKA_BROKERS" // comma separated, empty disables Kafka
	EnvKafkaTopic   = "KAFKA_TOPIC"
	EnvNodeName     = "NODE_NAME" // empty disables node annotations
)

// Default values
const (
	DefaultRegion          = "SE3"
	DefaultVAT             = true
	DefaultPrecision       = 3
	DefaultLowPriceCutoff  = 1.0
	DefaultPriceType       = "kWh"
	DefaultAdditionalCosts = "0"
	DefaultPeriodType      = "hour"
	DefaultTimezone        = "Europe/Stockholm"
	DefaultTickInterval    = "60"
	DefaultLogLevel        = "info"

	// Provider defaults
	DefaultDataProvider   = "nordpool"
	DefaultProviderURL    = "" // each provider falls back to its own endpoint
	DefaultProviderParams = `{}`
	DefaultCSVDir         = "."

	DefaultPublishTimezone = "Europe/Stockholm"
	DefaultPublishHour     = 13

	DefaultHTTPAddr   = ":8080"
	DefaultKafkaTopic = "spotprice.snapshots"
)

// Config holds the application configuration
type Config struct {
	Region          string
	Currency        string
	VAT             bool
	Precision       int
	LowPriceCutoff  float64
	PriceType       string
	PriceInCents    bool
	AdditionalCosts string
	PeriodType      string
	Timezone        string        // Timezone the days and periods are expressed in
	TickInterval    time.Duration // How often the scheduler checks the clock
	LogLevel        string

	// Provider configuration
	DataProvider   string            // Type of data provider
	ProviderURL    string            // Base URL for provider
	ProviderParams map[string]string // Additional provider parameters
	CSVDir         string

	PublishTimezone string
	PublishHour     int

	HTTPAddr     string
	KafkaBrokers []string
	KafkaTopic   string
	NodeName     string
}

// Load loads configuration from environment variables and, when present,
// a spotprice.yaml file in the working directory or /etc/spotprice.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("spotprice")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/spotprice")

	setDefaults(v)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

var envKeys = []string{
	EnvRegion, EnvCurrency, EnvVAT, EnvPrecision, EnvLowPriceCutoff, EnvPriceType,
	EnvPriceInCents, EnvAdditionalCosts, EnvPeriodType, EnvTimezone, EnvTickInterval,
	EnvLogLevel, EnvDataProvider, EnvProviderURL, EnvProviderParams, EnvCSVDir,
	EnvPublishTimezone, EnvPublishHour, EnvHTTPAddr, EnvKafkaBrokers, EnvKafkaTopic,
	EnvNodeName,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvRegion, DefaultRegion)
	v.SetDefault(EnvCurrency, "")
	v.SetDefault(EnvVAT, DefaultVAT)
	v.SetDefault(EnvPrecision, DefaultPrecision)
	v.SetDefault(EnvLowPriceCutoff, DefaultLowPriceCutoff)
	v.SetDefault(EnvPriceType, DefaultPriceType)
	v.SetDefault(EnvPriceInCents, false)
	v.SetDefault(EnvAdditionalCosts, DefaultAdditionalCosts)
	v.SetDefault(EnvPeriodType, DefaultPeriodType)
	v.SetDefault(EnvTimezone, DefaultTimezone)
	v.SetDefault(EnvTickInterval, DefaultTickInterval)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)
	v.SetDefault(EnvDataProvider, DefaultDataProvider)
	v.SetDefault(EnvProviderURL, DefaultProviderURL)
	v.SetDefault(EnvProviderParams, DefaultProviderParams)
	v.SetDefault(EnvCSVDir, DefaultCSVDir)
	v.SetDefault(EnvPublishTimezone, DefaultPublishTimezone)
	v.SetDefault(EnvPublishHour, DefaultPublishHour)
	v.SetDefault(EnvHTTPAddr, DefaultHTTPAddr)
	v.SetDefault(EnvKafkaBrokers, "")
	v.SetDefault(EnvKafkaTopic, DefaultKafkaTopic)
	v.SetDefault(EnvNodeName, "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	tickInterval, err := time.ParseDuration(v.GetString(EnvTickInterval) + "s")
	if err != nil {
		return nil, fmt.Errorf("invalid tick interval: %w", err)
	}

	// Load provider configuration
	providerParams, err := parseProviderParams(v.GetString(EnvProviderParams))
	if err != nil {
		return nil, fmt.Errorf("invalid provider params: %w", err)
	}

	cfg := &Config{
		Region:          v.GetString(EnvRegion),
		Currency:        v.GetString(EnvCurrency),
		VAT:             v.GetBool(EnvVAT),
		Precision:       v.GetInt(EnvPrecision),
		LowPriceCutoff:  v.GetFloat64(EnvLowPriceCutoff),
		PriceType:       v.GetString(EnvPriceType),
		PriceInCents:    v.GetBool(EnvPriceInCents),
		AdditionalCosts: v.GetString(EnvAdditionalCosts),
		PeriodType:      v.GetString(EnvPeriodType),
		Timezone:        v.GetString(EnvTimezone),
		TickInterval:    tickInterval,
		LogLevel:        v.GetString(EnvLogLevel),
		DataProvider:    v.GetString(EnvDataProvider),
		ProviderURL:     v.GetString(EnvProviderURL),
		ProviderParams:  providerParams,
		CSVDir:          v.GetString(EnvCSVDir),
		PublishTimezone: v.GetString(EnvPublishTimezone),
		PublishHour:     v.GetInt(EnvPublishHour),
		HTTPAddr:        v.GetString(EnvHTTPAddr),
		KafkaBrokers:    splitList(v.GetString(EnvKafkaBrokers)),
		KafkaTopic:      v.GetString(EnvKafkaTopic),
		NodeName:        v.GetString(EnvNodeName),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration once, at startup
func (c *Config) Validate() error {
	if _, ok := Regions[c.Region]; !ok {
		return fmt.Errorf("unknown region: %s", c.Region)
	}
	if _, ok := PriceUnits[c.PriceType]; !ok {
		return fmt.Errorf("unknown price type: %s. Supported types: Wh, kWh, MWh", c.PriceType)
	}
	if c.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", c.Precision)
	}
	if c.LowPriceCutoff <= 0 {
		return fmt.Errorf("low price cutoff must be positive, got %v", c.LowPriceCutoff)
	}
	if c.PriceInCents {
		if _, ok := MinorUnits[c.EffectiveCurrency()]; !ok {
			return fmt.Errorf("no minor unit known for currency %s", c.EffectiveCurrency())
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if _, err := time.LoadLocation(c.PublishTimezone); err != nil {
		return fmt.Errorf("invalid publish timezone: %w", err)
	}
	if c.PublishHour < 0 || c.PublishHour > 23 {
		return fmt.Errorf("publish hour must be within 0-23, got %d", c.PublishHour)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	return nil
}

// EffectiveCurrency returns the currency override or the region's currency
func (c *Config) EffectiveCurrency() string {
	if c.Currency != "" {
		return c.Currency
	}
	return Regions[c.Region].Currency
}

// EffectiveVAT returns the region's VAT rate, or 0 when VAT is disabled
func (c *Config) EffectiveVAT() float64 {
	if !c.VAT {
		return 0
	}
	return Regions[c.Region].VAT
}

// parseProviderParams parses provider parameters from JSON string
func parseProviderParams(jsonStr string) (map[string]string, error) {
	params := map[string]string{}
	if strings.TrimSpace(jsonStr) == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(jsonStr), &params); err != nil {
		return nil, fmt.Errorf("failed to parse provider params JSON: %w", err)
	}
	return params, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
