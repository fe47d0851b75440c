package client

import (
	"intercom-cli/pkg/models"
)

// FetchCameras retrieves the camera list. The call runs to completion; use
// FetchCamerasWithProgress when it has to be cancellable.
func (c *IntercomClient) FetchCameras() (*models.CameraCollection, error) {
	var respData models.CameraListResponse

	if err := c.get("/cameras", &respData); err != nil {
		return nil, err
	}

	cams := respData.Data.Normalize()
	return &cams, nil
}
