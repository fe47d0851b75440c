package models

import "fmt"

// DoorListResponse wraps the GET /doors response. Individual entries may be
// null on the wire.
type DoorListResponse struct {
	Success bool    `json:"success"`
	Data    []*Door `json:"data"`
}

// Collection converts the wire list into a snapshot, turning null entries
// into zero-valued doors.
func (r DoorListResponse) Collection() DoorCollection {
	doors := make([]Door, 0, len(r.Data))
	for _, d := range r.Data {
		if d == nil {
			doors = append(doors, Door{})
			continue
		}
		doors = append(doors, *d)
	}
	return DoorCollection{Doors: doors}
}

// DoorCollection is one snapshot of the door list in fetch order.
type DoorCollection struct {
	Doors []Door `json:"doors"`
}

// Door represents a single door. Only Name is editable locally.
type Door struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Room       string `json:"room"`
	IsFavorite bool   `json:"favorites"`
	Snapshot   string `json:"snapshot,omitempty"`
}

// HasSnapshot reports whether the door has a visual preview.
func (d Door) HasSnapshot() bool {
	return d.Snapshot != ""
}

func (c DoorCollection) Normalize() DoorCollection {
	if c.Doors == nil {
		c.Doors = []Door{}
	}
	return c
}

// Validate rejects snapshots in which two doors share an identifier.
func (c DoorCollection) Validate() error {
	seen := make(map[int]struct{}, len(c.Doors))
	for _, d := range c.Doors {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("door %d: %w", d.ID, ErrDuplicateID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// Door looks up a door by identifier.
func (c DoorCollection) Door(id int) (Door, bool) {
	for _, d := range c.Doors {
		if d.ID == id {
			return d, true
		}
	}
	return Door{}, false
}

// WithName returns a copy of the collection in which the door with the given
// identifier carries name. The receiver is left untouched.
func (c DoorCollection) WithName(id int, name string) DoorCollection {
	doors := make([]Door, len(c.Doors))
	copy(doors, c.Doors)
	for i := range doors {
		if doors[i].ID == id {
			doors[i].Name = name
		}
	}
	return DoorCollection{Doors: doors}
}
