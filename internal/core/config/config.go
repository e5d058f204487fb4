package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// RedisURL is the connection URL for the Redis cache.
	RedisURL string `mapstructure:"REDIS_URL" default:"redis://localhost:6379/0"`

	// Carrier holds the logistics provider configuration.
	Carrier CarrierConfig `mapstructure:",squash"`

	// Proxy holds the optional outbound HTTP proxy configuration.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// CarrierConfig holds the credentials and defaults for the logistics provider.
// The provider runs two API generations: a legacy one authenticated with a
// short-lived token obtained via email/password login, and a modern one
// authenticated with a static access-token/secret-key pair embedded in every
// request body. The modern API is selected iff both modern credentials are set.
type CarrierConfig struct {
	// LegacyBaseURL is the base URL of the legacy (token-login) API.
	LegacyBaseURL string `mapstructure:"CARRIER_LEGACY_BASE_URL" default:"https://apiv2.shipping-provider.in/v1/external"`
	// LegacyEmail is the login email for the legacy API.
	LegacyEmail string `mapstructure:"CARRIER_LEGACY_EMAIL"`
	// LegacyPassword is the login password for the legacy API.
	LegacyPassword string `mapstructure:"CARRIER_LEGACY_PASSWORD"`
	// LegacyToken is an optional pre-issued bearer token. When set, login is
	// skipped and the token is treated as valid for 30 days from process start.
	LegacyToken string `mapstructure:"CARRIER_LEGACY_TOKEN"`

	// ModernBaseURL is the base URL of the modern API.
	ModernBaseURL string `mapstructure:"CARRIER_MODERN_BASE_URL" default:"https://api.shipping-provider.co.in/api_v3"`
	// ModernAccessToken is the static access token for the modern API.
	ModernAccessToken string `mapstructure:"CARRIER_MODERN_ACCESS_TOKEN"`
	// ModernSecretKey is the static secret key for the modern API.
	ModernSecretKey string `mapstructure:"CARRIER_MODERN_SECRET_KEY"`

	// ChannelID is the optional sales channel identifier sent with orders.
	ChannelID string `mapstructure:"CARRIER_CHANNEL_ID"`
	// PickupLocation is the registered warehouse name orders ship from.
	PickupLocation string `mapstructure:"CARRIER_PICKUP_LOCATION" default:"Primary"`
	// PickupPincode is the default origin pincode for serviceability checks.
	PickupPincode string `mapstructure:"CARRIER_PICKUP_PINCODE" default:"400001"`

	// DefaultLengthCm is the fallback parcel length in centimeters.
	DefaultLengthCm float64 `mapstructure:"CARRIER_DEFAULT_LENGTH_CM" default:"10"`
	// DefaultBreadthCm is the fallback parcel breadth in centimeters.
	DefaultBreadthCm float64 `mapstructure:"CARRIER_DEFAULT_BREADTH_CM" default:"10"`
	// DefaultHeightCm is the fallback parcel height in centimeters.
	DefaultHeightCm float64 `mapstructure:"CARRIER_DEFAULT_HEIGHT_CM" default:"10"`

	// AWBLookupWindowDays is the trailing window scanned when resolving an AWB
	// by order number on the modern API.
	AWBLookupWindowDays int `mapstructure:"CARRIER_AWB_LOOKUP_WINDOW_DAYS" default:"7"`
	// ServiceabilityCacheTTLSeconds is how long serviceability results stay cached.
	ServiceabilityCacheTTLSeconds int `mapstructure:"CARRIER_SERVICEABILITY_CACHE_TTL_SECONDS" default:"300"`
	// RequestTimeoutSeconds is the per-request timeout for provider calls.
	RequestTimeoutSeconds int `mapstructure:"CARRIER_REQUEST_TIMEOUT_SECONDS" default:"30"`
}

// ProxyConfig holds optional outbound HTTP proxy details for provider calls.
type ProxyConfig struct {
	// Enabled toggles routing provider traffic through the proxy.
	Enabled bool `mapstructure:"OUTBOUND_PROXY_ENABLED" default:"false"`
	// Hostname is the proxy server hostname.
	Hostname string `mapstructure:"OUTBOUND_PROXY_HOST"`
	// Port is the proxy server port.
	Port int `mapstructure:"OUTBOUND_PROXY_PORT"`
	// Username is the optional proxy username.
	Username string `mapstructure:"OUTBOUND_PROXY_USER"`
	// Password is the optional proxy password.
	Password string `mapstructure:"OUTBOUND_PROXY_PASS"`
}

// UsesModernAPI reports whether the modern API generation is selected.
// Modern credentials take precedence when both credential sets are present.
func (c CarrierConfig) UsesModernAPI() bool {
	return c.ModernAccessToken != "" && c.ModernSecretKey != ""
}

// Validate checks that at least one complete credential set is present.
func (c CarrierConfig) Validate() error {
	if c.UsesModernAPI() {
		return nil
	}
	if c.LegacyEmail != "" && c.LegacyPassword != "" {
		return nil
	}
	if c.LegacyToken != "" {
		return nil
	}
	return errors.New("carrier credentials missing: set CARRIER_MODERN_ACCESS_TOKEN/CARRIER_MODERN_SECRET_KEY or CARRIER_LEGACY_EMAIL/CARRIER_LEGACY_PASSWORD")
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
