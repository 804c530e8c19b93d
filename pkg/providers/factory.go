package providers

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kcas/spotprice/internal/config"
	"kcas/spotprice/internal/datastore"
)

// ProviderFactory creates market data providers based on configuration
type ProviderFactory struct {
	logger *zap.SugaredLogger
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(logger *zap.SugaredLogger) *ProviderFactory {
	return &ProviderFactory{logger: logger}
}

// CreateProvider creates a provider based on configuration
func (f *ProviderFactory) CreateProvider(cfg *config.Config) (datastore.MarketDataProvider, error) {
	providerType := strings.ToLower(cfg.DataProvider)

	switch providerType {
	case "nordpool":
		return NewNordPoolProvider(cfg.ProviderURL, f.logger), nil

	case "epex":
		return NewEPEXProvider(cfg.ProviderURL, cfg.ProviderParams, f.logger), nil

	case "csv":
		return NewCSVProvider(cfg.CSVDir, f.logger), nil

	case "mock":
		return NewMockProvider(), nil

	case "static":
		return NewStaticProviderWithDefaults(time.Now()), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s. Supported types: %s",
			cfg.DataProvider, strings.Join(f.GetSupportedProviders(), ", "))
	}
}

// GetSupportedProviders returns a list of supported provider types
func (f *ProviderFactory) GetSupportedProviders() []string {
	return []string{"nordpool", "epex", "csv", "mock", "static"}
}

// ValidateProviderConfig validates provider configuration
func (f *ProviderFactory) ValidateProviderConfig(cfg *config.Config) error {
	providerType := strings.ToLower(cfg.DataProvider)

	// Check if provider type is supported
	for _, p := range f.GetSupportedProviders() {
		if p == providerType {
			// Provider type is valid, perform provider-specific validation
			return f.validateSpecificProvider(providerType, cfg)
		}
	}

	return fmt.Errorf("unsupported provider type: %s. Supported types: %v", cfg.DataProvider, f.GetSupportedProviders())
}

// validateSpecificProvider performs provider-specific validation
func (f *ProviderFactory) validateSpecificProvider(providerType string, cfg *config.Config) error {
	switch providerType {
	case "nordpool":
		// An empty URL selects the public data portal

	case "epex":
		// market_area comes from the region; the rest must be configured
		requiredParams := []string{"auction", "modality", "sub_modality"}
		for _, param := range requiredParams {
			if _, exists := cfg.ProviderParams[param]; !exists {
				return fmt.Errorf("EPEX provider missing required parameter: %s", param)
			}
		}

	case "csv":
		if cfg.CSVDir == "" {
			return fmt.Errorf("CSV provider requires a data directory")
		}

	case "mock", "static":
		// No special validation

	default:
		return fmt.Errorf("unknown provider type for validation: %s", providerType)
	}

	return nil
}
