// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net/url"
	"time"
)

// StructuredConfig is the top-level configuration container for the
// TeachCraft account backend. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the keyring master
	// secret and token/session lifetimes.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the relational database backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Mail holds SMTP settings for outbound verification and recovery mail.
	Mail Mail `envPrefix:"MAIL_"`

	// Captcha holds settings for the Cloudflare Turnstile verifier.
	Captcha Captcha `envPrefix:"CAPTCHA_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values that control key
// derivation, session signing, and single-use token lifecycle.
type App struct {
	// MasterSecret is the hex-encoded master secret from which the keyring
	// derives all purpose-scoped keys. Must be kept confidential.
	// Env: APP_MASTER_SECRET
	MasterSecret string `env:"MASTER_SECRET"`

	// KeyringContext is the stable per-deployment context label used for
	// key derivation (e.g. "teachcraft:v1"). Changing it rotates every
	// derived key.
	// Env: APP_KEYRING_CONTEXT
	KeyringContext string `env:"KEYRING_CONTEXT"`

	// SessionIssuer is the "iss" claim embedded in every session token.
	// Env: APP_SESSION_ISSUER
	SessionIssuer string `env:"SESSION_ISSUER"`

	// SessionDuration specifies how long a session token remains valid
	// after login (e.g. "24h").
	// Env: APP_SESSION_DURATION
	SessionDuration time.Duration `env:"SESSION_DURATION"`

	// TokenValidity is the lifetime of single-use email verification and
	// password recovery tokens (e.g. "1h").
	// Env: APP_TOKEN_VALIDITY
	TokenValidity time.Duration `env:"TOKEN_VALIDITY"`

	// HashConcurrency bounds how many argon2id password hashing operations
	// may run at once. Protects the scheduler from hashing bursts.
	// Env: APP_HASH_CONCURRENCY
	HashConcurrency int `env:"HASH_CONCURRENCY"`

	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for the persistence backends used by the
// application.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds the data-source descriptor for the PostgreSQL backend.
type DB struct {
	// Host is the database server hostname.
	// Env: STORAGE_DB_HOST
	Host string `env:"HOST"`

	// Port is the database server TCP port.
	// Env: STORAGE_DB_PORT
	Port int `env:"PORT"`

	// User is the database role used for all connections.
	// Env: STORAGE_DB_USER
	User string `env:"USER"`

	// Password is the database role password.
	// Env: STORAGE_DB_PASSWORD
	Password string `env:"PASSWORD"`

	// Database is the database name.
	// Env: STORAGE_DB_NAME
	Database string `env:"NAME"`
}

// DSN assembles the PostgreSQL connection string from the descriptor fields.
// User and password are URL-escaped.
func (d DB) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Database,
	)
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "0.0.0.0:8080").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it (e.g. "30s", "1m").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Mail holds SMTP settings for outbound email.
type Mail struct {
	// Host is the SMTP server hostname.
	// Env: MAIL_HOST
	Host string `env:"HOST"`

	// Port is the SMTP server port.
	// Env: MAIL_PORT
	Port int `env:"PORT"`

	// Username is the SMTP account username.
	// Env: MAIL_USERNAME
	Username string `env:"USERNAME"`

	// Password is the SMTP account password.
	// Env: MAIL_PASSWORD
	Password string `env:"PASSWORD"`

	// Sender is the From address used for outbound mail. Defaults to
	// Username when empty.
	// Env: MAIL_SENDER
	Sender string `env:"SENDER"`

	// BaseURL is the public base URL embedded in verification and recovery
	// links (e.g. "https://example.com").
	// Env: MAIL_BASE_URL
	BaseURL string `env:"BASE_URL"`
}

// Captcha holds configuration for CAPTCHA verification of unauthenticated
// form submissions.
type Captcha struct {
	// TurnstileSecret is the Cloudflare Turnstile secret key. When empty,
	// CAPTCHA verification is disabled.
	// Env: CAPTCHA_TURNSTILE_SECRET
	TurnstileSecret string `env:"TURNSTILE_SECRET"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// TokenCleanupInterval is how often the expired-token cleanup worker
	// runs (e.g. "1h").
	// Env: WORKERS_TOKEN_CLEANUP_INTERVAL
	TokenCleanupInterval time.Duration `env:"TOKEN_CLEANUP_INTERVAL"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}

// applyDefaults fills zero-valued optional fields with their defaults.
// Required fields are left untouched; validate reports them.
func (cfg *StructuredConfig) applyDefaults() {
	if cfg.App.SessionDuration == 0 {
		cfg.App.SessionDuration = 24 * time.Hour
	}
	if cfg.App.TokenValidity == 0 {
		cfg.App.TokenValidity = time.Hour
	}
	if cfg.App.HashConcurrency == 0 {
		cfg.App.HashConcurrency = 4
	}
	if cfg.App.SessionIssuer == "" {
		cfg.App.SessionIssuer = "teachcraft"
	}
	if cfg.Server.HTTPAddress == "" {
		cfg.Server.HTTPAddress = "0.0.0.0:8080"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Storage.DB.Port == 0 {
		cfg.Storage.DB.Port = 5432
	}
	if cfg.Workers.TokenCleanupInterval == 0 {
		cfg.Workers.TokenCleanupInterval = time.Hour
	}
	if cfg.Mail.Sender == "" {
		cfg.Mail.Sender = cfg.Mail.Username
	}
}
