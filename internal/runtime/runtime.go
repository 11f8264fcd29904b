// Package runtime adapts the webhook handler to HTTP servers and AWS Lambda invocations.
package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/isometry/calendly-webhook/internal/models"
	"golang.org/x/time/rate"
)

// Lambda payload types.
const (
	PayloadTypeAPIGatewayV1 = "api-gateway-v1"
	PayloadTypeAPIGatewayV2 = "api-gateway-v2"
	PayloadTypeLambdaURL    = "lambda-url"
)

// DefaultMaxBodyBytes caps request bodies read by ServeHTTP.
const DefaultMaxBodyBytes int64 = 1 << 20

// Processor handles a normalised delivery.
type Processor interface {
	Process(ctx context.Context, req models.Request) (models.Response, error)
	GetLambdaPayloadType() string
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger instance for the runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithPath sets the path the webhook is served on.
func WithPath(path string) Option {
	return func(r *Runtime) {
		if path != "" {
			r.path = path
		}
	}
}

// WithMaxBodyBytes caps the accepted request body size. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxBodyBytes = n
		}
	}
}

// WithRateLimit throttles webhook requests to rps with the given burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(r *Runtime) {
		if rps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithHealthCheck registers a check run by the health endpoint.
func WithHealthCheck(check HealthCheck) Option {
	return func(r *Runtime) {
		r.healthChecks = append(r.healthChecks, check)
	}
}

// Runtime serves a Processor over HTTP and Lambda.
type Runtime struct {
	Processor
	logger       *slog.Logger
	path         string
	maxBodyBytes int64
	limiter      *rate.Limiter
	healthChecks []HealthCheck
}

// NewRuntime creates a new runtime instance
func NewRuntime(processor Processor, opts ...Option) *Runtime {
	_inst := &Runtime{
		Processor:    processor,
		logger:       helpers.NewNoopLogger(),
		path:         "/",
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	return _inst
}

// Router returns the HTTP routes of the service: the webhook and a health endpoint.
func (r *Runtime) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(r.loggingMiddleware)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", r.healthz)
	router.Group(func(webhook chi.Router) {
		if r.limiter != nil {
			webhook.Use(r.rateLimitMiddleware)
		}
		webhook.Post(r.path, r.ServeHTTP)
	})
	return router
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "method not allowed", slog.Any("method", req.Method))
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusMethodNotAllowed}, nil, resp)
		return
	}

	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("path", req.URL.Path))
	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		headers[strings.ToLower(k)] = v[0]
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, r.maxBodyBytes+1))
	if err != nil {
		r.logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(models.Response{StatusCode: http.StatusInternalServerError}, err, resp)
		return
	}
	if int64(len(body)) > r.maxBodyBytes {
		r.logger.Warn("rejecting oversized request body", slog.Int64("limit", r.maxBodyBytes))
		helpers.RespondHTTP(models.Response{Body: "payload too large", StatusCode: http.StatusRequestEntityTooLarge}, nil, resp)
		return
	}

	response, err := r.Process(req.Context(), models.Request{Body: body, Headers: headers})
	helpers.RespondHTTP(response, err, resp)
}

// HandleEvent is the Lambda handler for the runtime. The raw invocation payload is decoded
// according to the configured payload type and the response is returned in the matching shape.
// Rejections are reported through the status code rather than as invocation errors.
func (r *Runtime) HandleEvent(ctx context.Context, payload json.RawMessage) (any, error) {
	payloadType := r.GetLambdaPayloadType()
	r.logger.Info("received lambda invocation", slog.String("payloadType", payloadType))

	var (
		body            string
		headers         map[string]string
		isBase64Encoded bool
	)
	switch payloadType {
	case PayloadTypeAPIGatewayV1:
		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("failed to decode %s request: %w", payloadType, err)
		}
		body, headers, isBase64Encoded = req.Body, req.Headers, req.IsBase64Encoded
	case PayloadTypeAPIGatewayV2:
		var req events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("failed to decode %s request: %w", payloadType, err)
		}
		body, headers, isBase64Encoded = req.Body, req.Headers, req.IsBase64Encoded
	case PayloadTypeLambdaURL:
		var req events.LambdaFunctionURLRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("failed to decode %s request: %w", payloadType, err)
		}
		body, headers, isBase64Encoded = req.Body, req.Headers, req.IsBase64Encoded
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", payloadType)
	}

	raw := []byte(body)
	if isBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return newLambdaResponse(payloadType, models.Response{Body: "invalid base64 body", StatusCode: http.StatusBadRequest}, err), nil
		}
		raw = decoded
	}

	// Lower-case incoming headers for compatibility purposes
	lch := make(map[string]string, len(headers))
	for k, v := range headers {
		lch[strings.ToLower(k)] = v
	}

	result, err := r.Process(ctx, models.Request{Body: raw, Headers: lch})
	if err != nil {
		r.logger.Warn("request rejected", slog.Int("status", result.StatusCode), slog.Any("error", err))
	}
	return newLambdaResponse(payloadType, result, err), nil
}

func newLambdaResponse(payloadType string, response models.Response, err error) any {
	rw := newBufferedResponseWriter()
	helpers.RespondHTTP(response, err, rw)
	switch payloadType {
	case PayloadTypeAPIGatewayV1:
		return events.APIGatewayProxyResponse{Body: rw.body.String(), StatusCode: rw.status, Headers: rw.flatHeaders()}
	case PayloadTypeLambdaURL:
		return events.LambdaFunctionURLResponse{Body: rw.body.String(), StatusCode: rw.status, Headers: rw.flatHeaders()}
	default:
		return events.APIGatewayV2HTTPResponse{Body: rw.body.String(), StatusCode: rw.status, Headers: rw.flatHeaders()}
	}
}

func (r *Runtime) healthz(resp http.ResponseWriter, req *http.Request) {
	for _, check := range r.healthChecks {
		if err := check(req.Context()); err != nil {
			r.logger.Warn("health check failed", slog.Any("error", err))
			helpers.RespondHTTP(models.Response{Body: "unhealthy", StatusCode: http.StatusServiceUnavailable}, err, resp)
			return
		}
	}
	helpers.RespondHTTP(models.Response{Body: "OK", StatusCode: http.StatusOK}, nil, resp)
}

func (r *Runtime) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.limiter.Allow() {
			r.logger.Warn("rate limit exceeded", slog.Any("requestor", req.RemoteAddr))
			w.Header().Set("Retry-After", "1")
			helpers.RespondHTTP(models.Response{Body: "too many requests", StatusCode: http.StatusTooManyRequests}, nil, w)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Runtime) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		r.logger.Info("http request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("request_id", middleware.GetReqID(req.Context())),
			slog.String("remote_addr", req.RemoteAddr),
		)
	})
}
