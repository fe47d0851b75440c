package client

import (
	"intercom-cli/pkg/models"
)

// FetchDoors retrieves the door list. Null entries become zero-valued doors.
func (c *IntercomClient) FetchDoors() (*models.DoorCollection, error) {
	var respData models.DoorListResponse

	if err := c.get("/doors", &respData); err != nil {
		return nil, err
	}

	doors := respData.Collection().Normalize()
	return &doors, nil
}
