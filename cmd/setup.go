package cmd

import (
	"context"

	"github.com/isometry/calendly-webhook/internal/config"
	"github.com/isometry/calendly-webhook/internal/controllers/aws"
	"github.com/isometry/calendly-webhook/internal/crm"
	"github.com/isometry/calendly-webhook/internal/handler"
	"github.com/isometry/calendly-webhook/internal/reconcile"
	"github.com/isometry/calendly-webhook/internal/runtime"
	"github.com/isometry/calendly-webhook/internal/settings"
	"github.com/pkg/errors"
)

// setup wires the runtime from the loaded configuration. The returned store must be closed by the caller.
func setup(ctx context.Context) (*runtime.Runtime, *crm.GormStore, error) {
	logger.Debug("opening entity store...", "driver", config.Store.Driver)
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	var awsCtl *aws.Controller
	if config.Calendly.SecretSource == config.SecretSourceSSM || config.Archive.Enabled {
		logger.Debug("creating AWS controller...")
		awsCtl, err = aws.NewController(
			aws.WithContext(ctx),
			aws.WithLogger(logger.With("component", "aws-controller")))
		if err != nil {
			_ = store.Close()
			return nil, nil, errors.Wrap(err, "failed to create AWS controller")
		}
	}

	var provider settings.Provider = settings.Static{
		Enabled: config.Calendly.Enabled,
		Secret:  config.Calendly.Secret,
	}
	if config.Calendly.SecretSource == config.SecretSourceSSM {
		provider = settings.NewSSMProvider(awsCtl, config.Calendly.SSMKey, config.Calendly.Enabled,
			settings.WithTTL(config.Calendly.SSMCacheTTL),
			settings.WithLogger(logger.With("component", "settings")))
	}

	reconciler := reconcile.NewReconciler(store,
		reconcile.WithPhoneQuestion(config.Calendly.PhoneQuestion),
		reconcile.WithLogger(logger.With("component", "reconciler")))

	opts := []handler.Option{
		handler.WithSettings(provider),
		handler.WithReconciler(reconciler),
		handler.WithTolerance(config.Calendly.Tolerance),
		handler.WithLambdaPayloadType(config.Lambda.PayloadType),
		handler.WithLogger(logger.With("component", "webhook-handler")),
	}
	if config.Archive.Enabled {
		opts = append(opts, handler.WithArchiver(awsCtl, config.Archive.BucketName))
	}

	logger.Debug("creating webhook handler...")
	hdl, err := handler.NewHandler(opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, errors.Wrap(err, "failed to create webhook handler")
	}

	logger.Debug("creating runtime...")
	rt := runtime.NewRuntime(hdl,
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithPath(config.Service.Path),
		runtime.WithMaxBodyBytes(config.Service.MaxBodyBytes),
		runtime.WithRateLimit(config.Service.RateLimit, int(config.Service.RateBurst)),
		runtime.WithHealthCheck(store.Ping))
	return rt, store, nil
}

func openStore() (*crm.GormStore, error) {
	store, err := crm.Open(crm.Config{
		Driver:      config.Store.Driver,
		DSN:         config.Store.DSN,
		AutoMigrate: config.Store.AutoMigrate,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open entity store")
	}
	return store, nil
}
