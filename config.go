package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// EnvConfig is the environment backed implementation of Config.
type EnvConfig struct {
	SigningKey       string        `env:"AUTH_SIGNING_KEY,required"`
	SigningMethod    string        `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey       string        `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenTTL         time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"168h"`
	TokenLookup      string        `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization,cookie:authorization"`
	AuthScheme       string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Issuer           string        `env:"AUTH_ISSUER" envDefault:"coursemind"`
	Audience         []string      `env:"AUTH_AUDIENCE" envSeparator:","`
	ResetTokenWindow time.Duration `env:"AUTH_RESET_TOKEN_WINDOW" envDefault:"15m"`
	PasswordHashCost int           `env:"AUTH_PASSWORD_HASH_COST" envDefault:"14"`
	PaymentSecret    string        `env:"AUTH_PAYMENT_SECRET"`
}

var _ Config = &EnvConfig{}

// LoadConfig reads configuration from the process environment, after loading
// a .env file when one exists.
func LoadConfig() (*EnvConfig, error) {
	// the .env file might not exist and that's ok
	_ = godotenv.Load()

	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse auth configuration")
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *EnvConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *EnvConfig) GetTokenTTL() time.Duration {
	return c.TokenTTL
}

func (c *EnvConfig) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *EnvConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAudience() []string {
	return c.Audience
}

func (c *EnvConfig) GetResetTokenWindow() time.Duration {
	return c.ResetTokenWindow
}

func (c *EnvConfig) GetPasswordHashCost() int {
	return c.PasswordHashCost
}

func (c *EnvConfig) GetPaymentSecret() string {
	return c.PaymentSecret
}
