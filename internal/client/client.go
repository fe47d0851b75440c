package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"intercom-cli/internal/logging"
)

// IntercomClient talks to the intercom backend. It never retries and never
// caches; both concerns belong to the caller.
type IntercomClient struct {
	HTTP         *resty.Client
	Config       ClientConfig
	Reachability Reachability
}

type ClientConfig struct {
	BaseURL string

	// ProbeTimeout bounds the reachability check done before every request.
	ProbeTimeout time.Duration
}

const defaultProbeTimeout = 3 * time.Second

func New(cfg ClientConfig) *IntercomClient {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}

	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)
	r.SetHeader("Accept", "application/json")
	r.JSONMarshal = json.Marshal
	r.JSONUnmarshal = json.Unmarshal

	return &IntercomClient{
		HTTP:         r,
		Config:       cfg,
		Reachability: NewDialProbe(cfg.BaseURL, cfg.ProbeTimeout),
	}
}

// get issues a single GET against path and decodes a successful body into
// out. Failures come back as ErrOffline or *APIError.
func (c *IntercomClient) get(path string, out interface{}) error {
	request := c.describe(http.MethodGet, path)

	if !c.Reachability.Reachable() {
		logging.Warn().Str("request", request).Msg("no network path, request not sent")
		return ErrOffline
	}

	requestID := uuid.NewString()
	resp, err := c.HTTP.R().
		SetHeader("X-Request-ID", requestID).
		Get(path)

	if err != nil {
		apiErr := transportError(request, err)
		logAPIError(apiErr, requestID)
		return apiErr
	}

	code := resp.StatusCode()
	logging.Debug().Str("request", request).Str("request_id", requestID).Int("code", code).Msg("response received")

	if !isSuccess(code) {
		apiErr := statusError(request, code)
		logAPIError(apiErr, requestID)
		return apiErr
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		apiErr := &APIError{
			Type:    TypeInvalidData,
			Message: "Decode error",
			Code:    code,
			Request: request,
			Err:     err,
		}
		logAPIError(apiErr, requestID)
		return apiErr
	}
	return nil
}

func (c *IntercomClient) describe(method, path string) string {
	return fmt.Sprintf("%s %s%s", method, c.HTTP.BaseURL, path)
}

// isSuccess reports whether code falls in the range the backend uses for
// successful responses.
func isSuccess(code int) bool {
	return code >= 200 && code <= 210
}

func transportError(request string, err error) *APIError {
	return &APIError{
		Type:    TypeInternal,
		Message: "Internal Error",
		Code:    0,
		Request: request,
		Err:     err,
	}
}

func statusError(request string, code int) *APIError {
	return &APIError{
		Type:    ResponseType(code),
		Message: ResponseMessage(code),
		Code:    code,
		Request: request,
	}
}

func logAPIError(e *APIError, requestID string) {
	logging.Error().
		Err(e.Err).
		Str("type", e.Type).
		Str("message", e.Message).
		Int("code", e.Code).
		Str("request", e.Request).
		Str("request_id", requestID).
		Msg("api request failed")
}
