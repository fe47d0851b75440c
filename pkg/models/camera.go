package models

import "fmt"

// CameraListResponse represents the outer wrapper of the GET /cameras response.
// Every field is optional on the wire; missing values decode to zero values.
type CameraListResponse struct {
	Success bool             `json:"success"`
	Data    CameraCollection `json:"data"`
}

// CameraCollection is one snapshot of the camera list: the room labels in
// display order and the cameras themselves.
type CameraCollection struct {
	Rooms   []string `json:"room"`
	Cameras []Camera `json:"cameras"`
}

// Camera represents a single camera as returned by the backend.
type Camera struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Snapshot    string `json:"snapshot"`
	Room        string `json:"room"`
	IsFavorite  bool   `json:"favorites"`
	IsRecording bool   `json:"rec"`
}

// Normalize replaces nil slices with empty ones so that a decoded snapshot
// with missing arrays compares equal to one read back from the cache.
func (c CameraCollection) Normalize() CameraCollection {
	if c.Rooms == nil {
		c.Rooms = []string{}
	}
	if c.Cameras == nil {
		c.Cameras = []Camera{}
	}
	return c
}

// Validate rejects snapshots in which two cameras share an identifier.
func (c CameraCollection) Validate() error {
	seen := make(map[int]struct{}, len(c.Cameras))
	for _, cam := range c.Cameras {
		if _, dup := seen[cam.ID]; dup {
			return fmt.Errorf("camera %d: %w", cam.ID, ErrDuplicateID)
		}
		seen[cam.ID] = struct{}{}
	}
	return nil
}

// Camera looks up a camera by identifier.
func (c CameraCollection) Camera(id int) (Camera, bool) {
	for _, cam := range c.Cameras {
		if cam.ID == id {
			return cam, true
		}
	}
	return Camera{}, false
}

// InRoom returns the cameras whose room label equals room, in snapshot order.
func (c CameraCollection) InRoom(room string) []Camera {
	var out []Camera
	for _, cam := range c.Cameras {
		if cam.Room == room {
			out = append(out, cam)
		}
	}
	return out
}
