package cmd

import (
	"time"

	"github.com/isometry/calendly-webhook/internal/config"
	"github.com/isometry/calendly-webhook/internal/helpers"
)

var svcEnvMapString = map[*string]boundEnvVar[string]{
	&config.Service.Addr: {
		Name:        "service-host-addr",
		Description: "The address to serve the service on (default all interfaces in dual-stack mode)",
		Short:       helpers.Ptr("H"),
	},
	&config.Service.Port: {
		Name:        "service-host-port",
		Description: "The port to serve the service on",
		Short:       helpers.Ptr("p"),
	},
	&config.Service.Path: {
		Name:        "service-host-path",
		Description: "The path to serve the webhook on",
		Short:       helpers.Ptr("P"),
	},
}

var svcEnvMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Service.Timeout: {
		Name:        "service-io-timeout",
		Description: "The timeout for I/O operations",
		Short:       helpers.Ptr("t"),
	},
}

var svcEnvMapInt64 = map[*int64]boundEnvVar[int64]{
	&config.Service.MaxBodyBytes: {
		Name:        "service-max-body-bytes",
		Description: "The largest accepted request body",
	},
	&config.Service.RateBurst: {
		Name:        "service-rate-burst",
		Description: "The number of webhook requests accepted in a burst above the rate limit",
	},
}

var svcEnvMapFloat64 = map[*float64]boundEnvVar[float64]{
	&config.Service.RateLimit: {
		Name:        "service-rate-limit",
		Description: "The sustained number of webhook requests accepted per second. 0 disables throttling",
	},
}
