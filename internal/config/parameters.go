// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

// Runtime modes.
const (
	ModeService = "service"
	ModeLambda  = "lambda"
)

// Signing key sources.
const (
	SecretSourceStatic = "static"
	SecretSourceSSM    = "ssm"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Calendly is a struct that contains the configuration of the Calendly integration.
	Calendly calendly
	// Store is a struct that contains the configuration of the entity store.
	Store store
	// Archive is a struct that contains the configuration of the S3 payload archive.
	Archive archive
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"service"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
}

type calendly struct {
	// Enabled switches the integration on. Deliveries are rejected while it is off.
	Enabled bool `yaml:"enabled,omitempty"`
	// Secret is the webhook signing key when SecretSource is "static".
	Secret string `yaml:"secret,omitempty"`
	// SecretSource selects where the signing key is read from: "static" or "ssm".
	SecretSource string `yaml:"secretSource,omitempty" default:"static"`
	// SSMKey is the SSM parameter holding the signing key.
	SSMKey string `yaml:"ssmKey,omitempty"`
	// SSMCacheTTL is how long a fetched signing key is reused.
	SSMCacheTTL time.Duration `yaml:"ssmCacheTTL,omitempty" default:"1m"`
	// Tolerance is the maximum accepted age of a signature timestamp.
	Tolerance time.Duration `yaml:"tolerance,omitempty" default:"180s"`
	// PhoneQuestion is the booking form question whose answer becomes the Lead phone.
	PhoneQuestion string `yaml:"phoneQuestion,omitempty" default:"Telefonnummer"`
}

type store struct {
	// Driver is one of sqlite, postgres or mysql.
	Driver string `yaml:"driver,omitempty" default:"sqlite"`
	// DSN is the driver specific connection string.
	DSN string `yaml:"dsn,omitempty" default:"file:calendly.db?_busy_timeout=5000"`
	// AutoMigrate creates the schema on startup.
	AutoMigrate bool `yaml:"autoMigrate,omitempty"`
}

type archive struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	BucketName string `yaml:"bucketName,omitempty"`
}

type service struct {
	Path         string        `yaml:"path,omitempty" default:"/"`
	Addr         string        `yaml:"addr,omitempty"`
	Port         string        `yaml:"port,omitempty" default:"8080"`
	Timeout      time.Duration `yaml:"timeout,omitempty" default:"5s"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes,omitempty" default:"1048576"`
	// RateLimit is the sustained number of webhook requests accepted per second. Zero disables throttling.
	RateLimit float64 `yaml:"rateLimit,omitempty"`
	RateBurst int64   `yaml:"rateBurst,omitempty" default:"10"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Calendly),
		defaults.Set(&Store),
		defaults.Set(&Archive),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
}

// Validate checks the combination of loaded values.
func Validate() error {
	var errs []error
	switch Global.Mode {
	case ModeService, ModeLambda:
	default:
		errs = append(errs, fmt.Errorf("invalid mode: %q", Global.Mode))
	}
	switch Calendly.SecretSource {
	case SecretSourceStatic:
	case SecretSourceSSM:
		if Calendly.SSMKey == "" {
			errs = append(errs, errors.New("calendly.ssmKey is required when calendly.secretSource is ssm"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported calendly.secretSource: %q", Calendly.SecretSource))
	}
	if Archive.Enabled && Archive.BucketName == "" {
		errs = append(errs, errors.New("archive.bucketName is required when the archive is enabled"))
	}
	return errors.Join(errs...)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global   global   `yaml:"global,omitempty"`
		Calendly calendly `yaml:"calendly,omitempty"`
		Store    store    `yaml:"store,omitempty"`
		Archive  archive  `yaml:"archive,omitempty"`
		Service  service  `yaml:"service,omitempty"`
		Lambda   lambda   `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Calendly = a.Calendly
	Store = a.Store
	Archive = a.Archive
	Service = a.Service
	Lambda = a.Lambda

	return nil
}
