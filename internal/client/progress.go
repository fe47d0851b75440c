package client

import (
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"intercom-cli/internal/logging"
	"intercom-cli/pkg/models"
)

// ProgressFunc receives the number of body bytes read so far and the
// expected total, which is -1 when the server did not announce a length.
type ProgressFunc func(read, total int64)

// FetchCamerasWithProgress is the cancellable variant of FetchCameras.
func (c *IntercomClient) FetchCamerasWithProgress(ctx context.Context, fn ProgressFunc) (*models.CameraCollection, error) {
	var respData models.CameraListResponse

	if err := c.getWithProgress(ctx, "/cameras", &respData, fn); err != nil {
		return nil, err
	}

	cams := respData.Data.Normalize()
	return &cams, nil
}

// FetchDoorsWithProgress is the cancellable variant of FetchDoors.
func (c *IntercomClient) FetchDoorsWithProgress(ctx context.Context, fn ProgressFunc) (*models.DoorCollection, error) {
	var respData models.DoorListResponse

	if err := c.getWithProgress(ctx, "/doors", &respData, fn); err != nil {
		return nil, err
	}

	doors := respData.Collection().Normalize()
	return &doors, nil
}

func (c *IntercomClient) getWithProgress(ctx context.Context, path string, out interface{}, fn ProgressFunc) error {
	request := c.describe(http.MethodGet, path)

	if !c.Reachability.Reachable() {
		logging.Warn().Str("request", request).Msg("no network path, request not sent")
		return ErrOffline
	}

	requestID := uuid.NewString()
	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetDoNotParseResponse(true).
		Get(path)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		apiErr := transportError(request, err)
		logAPIError(apiErr, requestID)
		return apiErr
	}

	body := resp.RawBody()
	defer body.Close()

	code := resp.StatusCode()
	if !isSuccess(code) {
		apiErr := statusError(request, code)
		logAPIError(apiErr, requestID)
		return apiErr
	}

	total := int64(-1)
	if resp.RawResponse != nil {
		total = resp.RawResponse.ContentLength
	}

	data, err := io.ReadAll(&progressReader{r: body, total: total, fn: fn})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		apiErr := transportError(request, err)
		logAPIError(apiErr, requestID)
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		apiErr := &APIError{
			Type:    TypeInvalidData,
			Message: err.Error(),
			Code:    -1,
			Request: request,
			Err:     err,
		}
		logAPIError(apiErr, requestID)
		return apiErr
	}
	return nil
}

type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.fn != nil {
			p.fn(p.read, p.total)
		}
	}
	return n, err
}
