package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the server configuration, loadable from TUMANA_ environment
// variables, flags or YAML config files.
type Config struct {
	Addr            string          `default:"0.0.0.0:8080" env:"ADDR" yaml:"addr" usage:"API server listen address"`
	MarketplaceURL  string          `env:"MARKETPLACE_URL" yaml:"marketplace_url" flag:"marketplace-url" usage:"Marketplace backend base URL, e.g. https://api.tumana.ph/api"`
	DatabaseURL     string          `env:"DATABASE_URL" yaml:"database_url" flag:"database-url" usage:"PostgreSQL URL for the checkout attempt log (optional)"`
	TokenSecret     string          `env:"TOKEN_SECRET" yaml:"token_secret" flag:"token-secret" usage:"HMAC secret the marketplace signs session tokens with; required with a database URL"`
	TokenIssuer     string          `env:"TOKEN_ISSUER" yaml:"token_issuer" flag:"token-issuer" usage:"Expected iss claim of session tokens (optional)"`
	ShippingFee     string          `default:"50" env:"SHIPPING_FEE" yaml:"shipping_fee" flag:"shipping-fee" usage:"Shipping fee charged per distinct seller"`
	UpstreamTimeout time.Duration   `default:"10s" env:"UPSTREAM_TIMEOUT" yaml:"upstream_timeout" flag:"upstream-timeout" usage:"Timeout of each marketplace request"`
	RateLimit       RateLimitConfig `env:"RATE_LIMIT" yaml:"rate_limit"`
	CORS            CORSConfig      `env:"CORS" yaml:"cors"`
	Graceful        GracefulConfig  `env:"GRACEFUL" yaml:"graceful"`
}

// RateLimitConfig controls the sliding window rate limiters: one per client
// IP, and one per shopper token within it.
type RateLimitConfig struct {
	Max    int           `default:"100" env:"MAX" yaml:"max" usage:"Max requests per shopper token per window"`
	PerIP  int           `default:"600" env:"PER_IP" yaml:"per_ip" usage:"Max requests per client IP per window"`
	Window time.Duration `default:"1m" env:"WINDOW" yaml:"window" usage:"Rate limit window duration"`
	// TrustForwarded keys clients by X-Forwarded-For; enable only behind a proxy that sets it.
	TrustForwarded bool `default:"false" env:"TRUST_FORWARDED" yaml:"trust_forwarded" usage:"Key clients by X-Forwarded-For set by a fronting proxy"`
}

// CORSConfig lists the web origins allowed to call the API.
type CORSConfig struct {
	Origins []string `default:"*" env:"ORIGINS" yaml:"origins" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s" env:"READINESS_DELAY" yaml:"readiness_delay" flag:"readiness-delay" usage:"Delay after readiness=false before shutdown"`
	ShutdownTimeout time.Duration `default:"15s" env:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" flag:"shutdown-timeout" usage:"Maximum shutdown duration"`
}

// LoadConfig loads configuration from the environment, flags and the first
// of config.yaml or /etc/tumana/config.yaml that exists.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		Files: []string{"config.yaml", "/etc/tumana/config.yaml"},
	})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	base.EnvPrefix = "TUMANA"
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}

	var cfg Config
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the PORT and DATABASE_URL variables set by
// hosting platforms onto the TUMANA_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.MarketplaceURL == "" {
		return errors.New("marketplace URL is required: set TUMANA_MARKETPLACE_URL")
	}
	u, err := url.Parse(c.MarketplaceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("invalid marketplace URL %q", c.MarketplaceURL)
	}
	if _, err := c.ShippingFeePerSeller(); err != nil {
		return err
	}
	if c.RateLimit.Max < 1 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	if c.RateLimit.PerIP < c.RateLimit.Max {
		return errors.New("rate limit per_ip must not be lower than max")
	}
	if c.DatabaseURL != "" && c.TokenSecret == "" {
		return errors.New("token secret is required with a database URL: set TUMANA_TOKEN_SECRET")
	}
	if c.UpstreamTimeout <= 0 {
		return errors.New("upstream timeout must be positive")
	}
	return nil
}

// RequestTimeout bounds one API request. A checkout makes two sequential
// upstream calls.
func (c *Config) RequestTimeout() time.Duration {
	return 2*c.UpstreamTimeout + 2*time.Second
}

// WriteTimeout is the server write deadline, later than RequestTimeout so
// the response to a timed out request can still be written.
func (c *Config) WriteTimeout() time.Duration {
	return c.RequestTimeout() + 5*time.Second
}

// ShippingFeePerSeller parses ShippingFee.
func (c *Config) ShippingFeePerSeller() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse shipping fee %q", c.ShippingFee)
	}
	if fee.IsNegative() {
		return decimal.Zero, errors.Errorf("shipping fee %s is negative", fee)
	}
	return fee, nil
}
