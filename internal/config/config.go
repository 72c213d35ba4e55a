package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Titan    TitanConfig    `mapstructure:"titan"    validate:"required"`
	Checkout CheckoutConfig `mapstructure:"checkout" validate:"required"`
	Bypass   BypassConfig   `mapstructure:"bypass"   validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig contains the control-channel server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// AuthConfig contains control-channel authentication settings. AccessKeyHash
// is the bcrypt hash of the operator access key; generate one with
// cmd/hash-generator.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	AccessKeyHash        string `mapstructure:"access_key_hash"        validate:"required"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TitanConfig locates the remote shop the engine checks out against.
type TitanConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// PaymentBaseURL is the payment gateway the interactive checkout window
	// is pointed at after a successful order.
	PaymentBaseURL string `mapstructure:"payment_base_url" validate:"required,url"`

	// TimeoutSeconds bounds every single request to the shop. The pipeline
	// retries forever anyway; a hung connection must not stall a stage.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// CheckoutConfig tunes pipeline behavior shared by all tasks.
type CheckoutConfig struct {
	// FreeShippingThreshold is the item price above which the free-shipping
	// code is used instead of asking the shop for an estimate.
	FreeShippingThreshold float64 `mapstructure:"free_shipping_threshold" validate:"required,gt=0"`
}

// BypassConfig sizes the browser-challenge admission pool.
type BypassConfig struct {
	// Doors is the number of browser sessions allowed to run challenges
	// concurrently across all tasks.
	Doors int `mapstructure:"doors" validate:"required,gt=0"`
}

// NotifyConfig configures success notifications. Both URLs are optional;
// notification failures never affect task state.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
}

// DatabaseConfig contains the optional snapshot-archive settings. When URL is
// empty the engine runs purely in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty"`
}
