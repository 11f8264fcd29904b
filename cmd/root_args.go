package cmd

import (
	"time"

	"github.com/isometry/calendly-webhook/internal/config"
	"github.com/isometry/calendly-webhook/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'service' and 'lambda'",
		Short:       helpers.Ptr("m"),
	},
	&config.Calendly.Secret: {
		Name:        "calendly-webhook-secret",
		Description: "The webhook signing key used when the secret source is 'static'",
		Env:         helpers.Ptr("CALENDLY_WEBHOOK_SECRET"),
	},
	&config.Calendly.SecretSource: {
		Name:        "calendly-secret-source",
		Description: "Where the webhook signing key is read from. Supported values are 'static' and 'ssm'",
		Short:       helpers.Ptr("A"),
	},
	&config.Calendly.SSMKey: {
		Name:        "calendly-ssm-key",
		Description: "The SSM parameter holding the webhook signing key",
	},
	&config.Calendly.PhoneQuestion: {
		Name:        "calendly-phone-question",
		Description: "The booking form question whose answer is stored as the lead phone number",
	},
	&config.Store.Driver: {
		Name:        "store-driver",
		Description: "The entity store driver. Supported values are 'sqlite', 'postgres' and 'mysql'",
	},
	&config.Store.DSN: {
		Name:        "store-dsn",
		Description: "The entity store connection string",
		Env:         helpers.Ptr("STORE_DSN"),
	},
	&config.Archive.BucketName: {
		Name:        "archive-s3-bucket",
		Description: "The S3 bucket verified deliveries are archived to",
		Env:         helpers.Ptr("ARCHIVE_S3_BUCKET"),
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Calendly.Enabled: {
		Name:        "calendly-enabled",
		Description: "Enable the Calendly integration. Deliveries are rejected with 503 while disabled",
		Short:       helpers.Ptr("e"),
	},
	&config.Store.AutoMigrate: {
		Name:        "store-auto-migrate",
		Description: "Create the entity store schema on startup",
	},
	&config.Archive.Enabled: {
		Name:        "archive-s3",
		Description: "Enable S3 archiving of verified deliveries",
		Env:         helpers.Ptr("ARCHIVE_S3_ENABLED"),
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Calendly.Tolerance: {
		Name:        "calendly-tolerance",
		Description: "The maximum accepted age of a webhook signature timestamp",
	},
	&config.Calendly.SSMCacheTTL: {
		Name:        "calendly-ssm-cache-ttl",
		Description: "How long a signing key fetched from SSM is reused. 0 fetches it for every delivery",
	},
}
