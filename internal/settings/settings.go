// Package settings supplies the integration switch and webhook signing key, read once per request.
package settings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/pkg/errors"
)

// ErrSecretUnset is returned when the integration is enabled without a signing key.
var ErrSecretUnset = errors.New("webhook signing key is not configured")

// Settings is the integration state for a single request.
type Settings struct {
	Enabled bool
	Secret  []byte
}

// Provider returns the current Settings.
type Provider interface {
	Settings(ctx context.Context) (*Settings, error)
}

// Static serves fixed settings.
type Static struct {
	Enabled bool
	Secret  string
}

// Settings implements Provider.
func (s Static) Settings(context.Context) (*Settings, error) {
	if s.Enabled && s.Secret == "" {
		return nil, ErrSecretUnset
	}
	return &Settings{Enabled: s.Enabled, Secret: []byte(s.Secret)}, nil
}

// SecretGetter fetches a secret by key.
type SecretGetter interface {
	GetSecret(ctx context.Context, key string, encrypted bool) (*string, error)
}

// Option configures an SSMProvider.
type Option func(*SSMProvider)

// WithLogger sets the logger instance for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(p *SSMProvider) {
		p.logger = logger
	}
}

// WithTTL caches the fetched secret for ttl. A zero ttl fetches on every call.
func WithTTL(ttl time.Duration) Option {
	return func(p *SSMProvider) {
		p.ttl = ttl
	}
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(p *SSMProvider) {
		p.now = now
	}
}

// SSMProvider reads the signing key from an SSM parameter. The enabled flag is static.
type SSMProvider struct {
	getter  SecretGetter
	key     string
	enabled bool
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	secret    []byte
	fetchedAt time.Time
}

// NewSSMProvider creates an SSMProvider resolving key through getter.
func NewSSMProvider(getter SecretGetter, key string, enabled bool, opts ...Option) *SSMProvider {
	_inst := &SSMProvider{
		getter:  getter,
		key:     key,
		enabled: enabled,
		now:     time.Now,
		logger:  helpers.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(_inst)
	}
	return _inst
}

// Settings implements Provider. The parameter is not fetched while the integration is disabled.
func (p *SSMProvider) Settings(ctx context.Context) (*Settings, error) {
	if !p.enabled {
		return &Settings{}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.secret != nil && p.ttl > 0 && p.now().Sub(p.fetchedAt) < p.ttl {
		return &Settings{Enabled: true, Secret: p.secret}, nil
	}

	p.logger.Debug("fetching signing key...", slog.String("key", p.key))
	value, err := p.getter.GetSecret(ctx, p.key, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch webhook signing key")
	}
	if *value == "" {
		return nil, ErrSecretUnset
	}
	p.secret = []byte(*value)
	p.fetchedAt = p.now()
	return &Settings{Enabled: true, Secret: p.secret}, nil
}
